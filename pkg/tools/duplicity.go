package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
)

const duplicityEndpoint = "https://wikidata-todo.toolforge.org/duplicity/api.php"

// duplicityTimeLayout is the compact timestamp format Duplicity uses.
const duplicityTimeLayout = "20060102150405"

// DuplicityResult is one page without a Wikidata item.
type DuplicityResult struct {
	Title        string
	CreationDate time.Time
}

// Duplicity lists the pages on a wiki that have no Wikidata item.
type Duplicity struct {
	Site     site.Site
	Endpoint string // Optional override for testing

	Results []DuplicityResult
}

// NewDuplicity creates a Duplicity query for the given wiki.
func NewDuplicity(s site.Site) *Duplicity {
	return &Duplicity{Site: s}
}

// Name implements Tool.
func (d *Duplicity) Name() string { return "duplicity" }

// Request implements Tool.
func (d *Duplicity) Request() (request.Spec, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = duplicityEndpoint
	}

	q := url.Values{}
	q.Set("action", "articles")
	q.Set("wiki", d.Site.Wiki)
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool.
func (d *Duplicity) ParseResponse(body []byte) error {
	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			Title        string `json:"title"`
			CreationDate string `json:"creation_date"`
		} `json:"articles"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode duplicity json", err)
	}
	if result.Status != "OK" {
		return errors.NewTool(fmt.Sprintf("duplicity status is not OK: %q", result.Status))
	}

	d.Results = d.Results[:0]
	for _, a := range result.Articles {
		created, err := time.Parse(duplicityTimeLayout, a.CreationDate)
		if err != nil {
			return errors.NewDecode("bad creation_date "+a.CreationDate, err)
		}
		d.Results = append(d.Results, DuplicityResult{Title: a.Title, CreationDate: created})
	}
	return nil
}

// DuplicityWikis lists the wikis Duplicity tracks, with their page
// counts.
func DuplicityWikis(ctx context.Context, c *request.Client, endpoint string) (map[string]uint64, error) {
	if endpoint == "" {
		endpoint = duplicityEndpoint
	}

	q := url.Values{}
	q.Set("action", "wikis")
	body, err := c.Do(ctx, request.Spec{URL: endpoint, Query: q})
	if err != nil {
		return nil, err
	}

	var result struct {
		Wikis []struct {
			Wiki string `json:"wiki"`
			Cnt  string `json:"cnt"`
		} `json:"wikis"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.NewDecode("failed to decode duplicity wikis json", err)
	}

	wikis := make(map[string]uint64, len(result.Wikis))
	for _, w := range result.Wikis {
		cnt, err := strconv.ParseUint(w.Cnt, 10, 64)
		if err != nil {
			continue
		}
		wikis[w.Wiki] = cnt
	}
	return wikis, nil
}
