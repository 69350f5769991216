// Package wikidata implements the batch sitelink lookups used to
// translate page titles between wikis via Wikidata items.
package wikidata

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
)

const apiEndpoint = "https://www.wikidata.org/w/api.php"

// Wikidata allows max 50 entities per request; at most 5 chunk
// requests are in flight at once.
const (
	batchSize     = 50
	maxConcurrent = 5
)

// Client queries the Wikidata API.
type Client struct {
	request     *request.Client
	APIEndpoint string // Optional override for testing
}

// NewClient creates a new Wikidata client.
func NewClient(r *request.Client) *Client {
	return &Client{request: r, APIEndpoint: apiEndpoint}
}

// ItemsForTitles resolves page titles on the given wiki to their
// Wikidata item IDs. Titles without an item are absent from the result.
func (c *Client) ItemsForTitles(ctx context.Context, wiki string, titles []string) (map[string]string, error) {
	chunks := chunk(titles)
	results := make([]map[string]string, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, part := range chunks {
		i, part := i, part
		g.Go(func() error {
			q := url.Values{}
			q.Set("action", "wbgetentities")
			q.Set("format", "json")
			q.Set("sites", wiki)
			q.Set("titles", strings.Join(part, "|"))
			q.Set("props", "sitelinks")
			q.Set("sitefilter", wiki)

			entities, err := c.getEntities(ctx, q)
			if err != nil {
				return err
			}

			found := make(map[string]string)
			for id, ent := range entities {
				if ent.Missing != nil || !strings.HasPrefix(id, "Q") {
					continue
				}
				if link, ok := ent.Sitelinks[wiki]; ok {
					found[link.Title] = id
				}
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(results), nil
}

// SitelinksForItems resolves Wikidata item IDs to their page titles on
// the target wiki. Items without a sitelink there are absent from the
// result.
func (c *Client) SitelinksForItems(ctx context.Context, ids []string, targetWiki string) (map[string]string, error) {
	chunks := chunk(ids)
	results := make([]map[string]string, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, part := range chunks {
		i, part := i, part
		g.Go(func() error {
			q := url.Values{}
			q.Set("action", "wbgetentities")
			q.Set("format", "json")
			q.Set("ids", strings.Join(part, "|"))
			q.Set("props", "sitelinks")
			q.Set("sitefilter", targetWiki)

			entities, err := c.getEntities(ctx, q)
			if err != nil {
				return err
			}

			found := make(map[string]string)
			for id, ent := range entities {
				if ent.Missing != nil {
					continue
				}
				if link, ok := ent.Sitelinks[targetWiki]; ok {
					found[id] = link.Title
				}
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge(results), nil
}

type entity struct {
	Missing   *string `json:"missing"`
	Sitelinks map[string]struct {
		Title string `json:"title"`
	} `json:"sitelinks"`
}

func (c *Client) getEntities(ctx context.Context, q url.Values) (map[string]entity, error) {
	body, err := c.request.Do(ctx, request.Spec{URL: c.APIEndpoint, Query: q})
	if err != nil {
		return nil, err
	}

	var result struct {
		Error *struct {
			Code string `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
		Entities map[string]entity `json:"entities"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.NewDecode("failed to decode json", err)
	}
	if result.Error != nil {
		return nil, errors.NewTool("wikidata: " + result.Error.Code + ": " + result.Error.Info)
	}
	return result.Entities, nil
}

func chunk(items []string) [][]string {
	var chunks [][]string
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}

// merge combines the per-chunk maps. Chunks contribute disjoint keys,
// so order does not matter.
func merge(results []map[string]string) map[string]string {
	out := make(map[string]string)
	for _, r := range results {
		for k, v := range r {
			out[k] = v
		}
	}
	return out
}
