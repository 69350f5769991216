package tools

import (
	"encoding/json"
	"net/url"
	"strconv"

	"wikitools/internal/errors"
	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

// WikiSearchResult is one search hit.
type WikiSearchResult struct {
	NamespaceID int
	Title       string
	PageID      uint64
	Size        uint64
	WordCount   uint64
	Snippet     string
}

// WikiSearch runs a full-text search on a wiki via the MediaWiki
// search API.
type WikiSearch struct {
	Site         site.Site
	Query        string
	NamespaceIDs string
	Offset       uint32
	SearchLimit  uint32
	Endpoint     string // Optional override for testing

	Results []WikiSearchResult
}

// NewWikiSearch creates a search on the given wiki, restricted to the
// main namespace with a limit of 10 hits.
func NewWikiSearch(s site.Site, query string) *WikiSearch {
	return &WikiSearch{
		Site:         s,
		Query:        query,
		NamespaceIDs: "0",
		SearchLimit:  10,
	}
}

// WithNamespaceIDs restricts the search to the given pipe-separated
// namespace IDs.
func (w *WikiSearch) WithNamespaceIDs(ids string) *WikiSearch {
	w.NamespaceIDs = ids
	return w
}

// WithLimit sets the maximum number of hits.
func (w *WikiSearch) WithLimit(limit uint32) *WikiSearch {
	w.SearchLimit = limit
	return w
}

// WithOffset sets the search offset for paging.
func (w *WikiSearch) WithOffset(offset uint32) *WikiSearch {
	w.Offset = offset
	return w
}

// Name implements Tool.
func (w *WikiSearch) Name() string { return "search" }

// Request implements Tool.
func (w *WikiSearch) Request() (request.Spec, error) {
	endpoint := w.Endpoint
	if endpoint == "" {
		endpoint = w.Site.APIURL()
	}

	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", w.Query)
	q.Set("srnamespace", w.NamespaceIDs)
	q.Set("sroffset", strconv.FormatUint(uint64(w.Offset), 10))
	q.Set("srlimit", strconv.FormatUint(uint64(w.SearchLimit), 10))
	q.Set("format", "json")
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool. Malformed hits are skipped.
func (w *WikiSearch) ParseResponse(body []byte) error {
	var result struct {
		Query struct {
			Search []map[string]any `json:"search"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode search json", err)
	}
	if result.Query.Search == nil {
		return errors.NewDecode("search response has no search array", nil)
	}

	w.Results = w.Results[:0]
	for _, row := range result.Query.Search {
		ns, ok := row["ns"].(float64)
		if !ok {
			continue
		}
		t, ok := row["title"].(string)
		if !ok {
			continue
		}
		pageID, ok := row["pageid"].(float64)
		if !ok {
			continue
		}
		size, ok := row["size"].(float64)
		if !ok {
			continue
		}
		wordCount, ok := row["wordcount"].(float64)
		if !ok {
			continue
		}
		snippet, ok := row["snippet"].(string)
		if !ok {
			continue
		}
		w.Results = append(w.Results, WikiSearchResult{
			NamespaceID: int(ns),
			Title:       t,
			PageID:      uint64(pageID),
			Size:        uint64(size),
			WordCount:   uint64(wordCount),
			Snippet:     snippet,
		})
	}
	return nil
}

// PageList converts the search hits into a page list on the query's
// wiki, parsing namespace prefixes with the given formatter.
func (w *WikiSearch) PageList(f title.Formatter) *pagelist.PageList {
	pl := &pagelist.PageList{Site: w.Site}
	for _, r := range w.Results {
		pl.Pages = append(pl.Pages, pagelist.Page{
			Title: f.Parse(r.Title),
			Meta: map[string]any{
				"page_id":   r.PageID,
				"size":      r.Size,
				"wordcount": r.WordCount,
				"snippet":   r.Snippet,
			},
		})
	}
	return pl
}
