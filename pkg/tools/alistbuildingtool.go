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

// The tool really does spell it "bulding".
const aListBuildingToolEndpoint = "https://a-list-bulding-tool.toolforge.org/API/"

// AListBuildingToolResult is one page related to the query item.
type AListBuildingToolResult struct {
	Title string `json:"title"`
	QID   string `json:"qid"`
}

// AListBuildingTool lists pages on a wiki related to a Wikidata item.
type AListBuildingTool struct {
	Site     site.Site
	QID      string
	Endpoint string // Optional override for testing

	Results []AListBuildingToolResult
}

// NewAListBuildingTool creates a query for the given wiki and item.
func NewAListBuildingTool(s site.Site, qid string) *AListBuildingTool {
	return &AListBuildingTool{Site: s, QID: qid}
}

// Name implements Tool.
func (a *AListBuildingTool) Name() string { return "alistbuildingtool" }

// Request implements Tool.
func (a *AListBuildingTool) Request() (request.Spec, error) {
	endpoint := a.Endpoint
	if endpoint == "" {
		endpoint = aListBuildingToolEndpoint
	}

	q := url.Values{}
	q.Set("wiki_db", a.Site.Wiki)
	q.Set("QID", a.QID)
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool. Rows missing title or qid are skipped;
// the upstream data is known to be sparse.
func (a *AListBuildingTool) ParseResponse(body []byte) error {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return errors.NewDecode("failed to decode alistbuildingtool json", err)
	}

	a.Results = a.Results[:0]
	for _, row := range rows {
		t, ok := row["title"].(string)
		if !ok {
			continue
		}
		qid, ok := row["qid"].(string)
		if !ok {
			continue
		}
		a.Results = append(a.Results, AListBuildingToolResult{Title: t, QID: qid})
	}
	return nil
}

// PageList converts the result rows into a page list on the query's
// wiki.
func (a *AListBuildingTool) PageList() *pagelist.PageList {
	pl := &pagelist.PageList{Site: a.Site}
	for _, r := range a.Results {
		pl.Pages = append(pl.Pages, pagelist.Page{
			Title: title.New(r.Title, 0),
			Meta:  map[string]any{"qid": r.QID},
		})
	}
	return pl
}
