package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
)

const pageviewsEndpoint = "https://wikimedia.org/api/rest_v1/metrics/pageviews"

// Access filter values for Pageviews.
type PageviewsAccess string

const (
	AccessAll       PageviewsAccess = "all-access"
	AccessDesktop   PageviewsAccess = "desktop"
	AccessMobileApp PageviewsAccess = "mobile-app"
	AccessMobileWeb PageviewsAccess = "mobile-web"
)

// Agent filter values for Pageviews.
type PageviewsAgent string

const (
	AgentAll       PageviewsAgent = "all-agents"
	AgentUser      PageviewsAgent = "user"
	AgentSpider    PageviewsAgent = "spider"
	AgentAutomated PageviewsAgent = "automated"
)

// Granularity values for Pageviews.
type PageviewsGranularity string

const (
	GranularityHourly  PageviewsGranularity = "hourly"
	GranularityDaily   PageviewsGranularity = "daily"
	GranularityMonthly PageviewsGranularity = "monthly"
)

// PageviewsEntry is the view count for one timestamp, in the API's
// YYYYMMDDHH format.
type PageviewsEntry struct {
	Timestamp string
	Views     uint64
}

// PageviewsResult is the per-timestamp view counts for one article.
type PageviewsResult struct {
	Project     string
	Article     string
	Granularity PageviewsGranularity
	Access      PageviewsAccess
	Agent       PageviewsAgent
	Entries     []PageviewsEntry
}

// TotalViews sums the views over all entries.
func (r *PageviewsResult) TotalViews() uint64 {
	var total uint64
	for _, e := range r.Entries {
		total += e.Views
	}
	return total
}

// Pageviews queries the Wikimedia Pageviews REST API for per-article
// view counts. Aggregate and top views are not covered.
type Pageviews struct {
	Granularity PageviewsGranularity
	Access      PageviewsAccess
	Agent       PageviewsAgent
	Endpoint    string // Optional override for testing
}

// NewPageviews creates a query template with the given granularity and
// filters.
func NewPageviews(granularity PageviewsGranularity, access PageviewsAccess, agent PageviewsAgent) *Pageviews {
	return &Pageviews{Granularity: granularity, Access: access, Agent: agent}
}

// MonthStart returns the first day of the given month.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last day of the given month.
func MonthEnd(year int, month time.Month) time.Time {
	return MonthStart(year, month).AddDate(0, 1, -1)
}

// PerArticle fetches view counts for a single page on a project such
// as "de.wikipedia". Spaces in the page title become underscores. The
// request retries automatically on throttling responses.
func (pv *Pageviews) PerArticle(ctx context.Context, client *request.Client, project, page string, start, end time.Time) (*PageviewsResult, error) {
	endpoint := pv.Endpoint
	if endpoint == "" {
		endpoint = pageviewsEndpoint
	}

	article := strings.ReplaceAll(page, " ", "_")
	u := fmt.Sprintf("%s/per-article/%s/%s/%s/%s/%s/%s/%s",
		endpoint, project, pv.Access, pv.Agent, article, pv.Granularity,
		start.Format("20060102"), end.Format("20060102"))

	body, httpErr := client.Do(ctx, request.Spec{URL: u, RetryOn429: true})

	// Errors come back as a JSON problem document; prefer its detail
	// over the bare status code.
	var result struct {
		Status *json.RawMessage `json:"status"`
		Detail *string          `json:"detail"`
		Items  []struct {
			Timestamp string `json:"timestamp"`
			Views     uint64 `json:"views"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		if httpErr != nil {
			return nil, httpErr
		}
		return nil, errors.NewDecode("failed to decode pageviews json", err)
	}
	if result.Status != nil {
		if result.Detail != nil {
			return nil, errors.NewTool(*result.Detail)
		}
		return nil, errors.NewTool(string(*result.Status))
	}
	if httpErr != nil {
		return nil, httpErr
	}
	if result.Items == nil {
		return nil, errors.NewDecode("pageviews response has no items array", nil)
	}

	r := &PageviewsResult{
		Project:     project,
		Article:     article,
		Granularity: pv.Granularity,
		Access:      pv.Access,
		Agent:       pv.Agent,
	}
	for _, item := range result.Items {
		r.Entries = append(r.Entries, PageviewsEntry{Timestamp: item.Timestamp, Views: item.Views})
	}
	return r, nil
}

// ProjectPage names one article on one project for MultipleArticles.
type ProjectPage struct {
	Project string
	Page    string
}

// MultipleArticles fetches view counts for several pages concurrently,
// at most maxConcurrent requests in flight. Keep maxConcurrent low to
// stay under the API rate limits. Pages whose requests fail are
// dropped from the results.
func (pv *Pageviews) MultipleArticles(ctx context.Context, client *request.Client, pages []ProjectPage, start, end time.Time, maxConcurrent int) ([]*PageviewsResult, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	results := make([]*PageviewsResult, len(pages))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	var mu sync.Mutex

	for i, pp := range pages {
		i, pp := i, pp
		g.Go(func() error {
			r, err := pv.PerArticle(ctx, client, pp.Project, pp.Page, start, end)
			if err != nil {
				slog.Warn("Pageviews request failed", "project", pp.Project, "page", pp.Page, "error", err)
				return nil
			}
			mu.Lock()
			results[i] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
