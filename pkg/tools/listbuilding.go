package tools

import (
	"encoding/json"
	"net/url"

	"wikitools/internal/errors"
	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

const listBuildingEndpoint = "https://list-building.toolforge.org/api/serpentine"

// ListBuildingResult is one page related to the query page.
type ListBuildingResult struct {
	Title       string
	QID         string
	Description string
}

// ListBuilding lists pages on a wiki related to a given page.
type ListBuilding struct {
	Site     site.Site
	Title    string
	Endpoint string // Optional override for testing

	Results []ListBuildingResult
}

// NewListBuilding creates a query for the given wiki and page.
func NewListBuilding(s site.Site, t string) *ListBuilding {
	return &ListBuilding{Site: s, Title: t}
}

// Name implements Tool.
func (l *ListBuilding) Name() string { return "listbuilding" }

// Request implements Tool.
func (l *ListBuilding) Request() (request.Spec, error) {
	endpoint := l.Endpoint
	if endpoint == "" {
		endpoint = listBuildingEndpoint
	}

	q := url.Values{}
	q.Set("lang", l.Site.Language)
	q.Set("title", l.Title)
	q.Set("qid", "")
	q.Set("k-reader", "3")
	q.Set("k-links", "3")
	q.Set("k-morelike", "4")
	q.Set("wp", "")
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool. Malformed rows are skipped.
func (l *ListBuilding) ParseResponse(body []byte) error {
	var result struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode listbuilding json", err)
	}
	if result.Results == nil {
		return errors.NewDecode("listbuilding response has no results array", nil)
	}

	l.Results = l.Results[:0]
	for _, row := range result.Results {
		t, ok := row["page_title"].(string)
		if !ok {
			continue
		}
		qid, ok := row["qid"].(string)
		if !ok {
			continue
		}
		desc, ok := row["description"].(string)
		if !ok {
			continue
		}
		l.Results = append(l.Results, ListBuildingResult{Title: t, QID: qid, Description: desc})
	}
	return nil
}

// PageList converts the result rows into a page list on the query's
// wiki.
func (l *ListBuilding) PageList() *pagelist.PageList {
	pl := &pagelist.PageList{Site: l.Site}
	for _, r := range l.Results {
		pl.Pages = append(pl.Pages, pagelist.Page{
			Title: title.New(r.Title, 0),
			Meta:  map[string]any{"qid": r.QID, "description": r.Description},
		})
	}
	return pl
}
