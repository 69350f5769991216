package tools

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"wikitools/internal/errors"
	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

const wikiNearbyEndpoint = "https://wikinearby.toolforge.org/api/nearby"

// WikiNearbyResult is one page near the query location.
type WikiNearbyResult struct {
	Title       string
	Description string
	Lat         float64
	Lon         float64
	Distance    float64 // km
	Image       string
}

// WikiNearby lists pages near a location, given either as a page title
// or as coordinates.
type WikiNearby struct {
	Site     site.Site
	Query    string
	Offset   int
	Endpoint string // Optional override for testing

	Results []WikiNearbyResult
	Lat     *float64
	Lon     *float64
}

// NewWikiNearbyFromPage creates a query anchored on a page title.
func NewWikiNearbyFromPage(s site.Site, t string) *WikiNearby {
	return &WikiNearby{Site: s, Query: t}
}

// NewWikiNearbyFromCoordinates creates a query anchored on coordinates.
func NewWikiNearbyFromCoordinates(s site.Site, lat, lon float64) *WikiNearby {
	return &WikiNearby{Site: s, Query: fmt.Sprintf("%v, %v", lat, lon)}
}

// Name implements Tool.
func (w *WikiNearby) Name() string { return "wikinearby" }

// Request implements Tool.
func (w *WikiNearby) Request() (request.Spec, error) {
	endpoint := w.Endpoint
	if endpoint == "" {
		endpoint = wikiNearbyEndpoint
	}

	q := url.Values{}
	q.Set("q", w.Query)
	q.Set("lang", w.Site.Language)
	q.Set("offset", strconv.Itoa(w.Offset))
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool. The service reports numbers as
// strings; rows that fail to parse are skipped.
func (w *WikiNearby) ParseResponse(body []byte) error {
	var result struct {
		Lat  any `json:"lat"`
		Lon  any `json:"lon"`
		List []struct {
			Page string `json:"page"`
			Desc string `json:"desc"`
			Img  string `json:"img"`
			Lat  any    `json:"lat"`
			Lon  any    `json:"lon"`
			Dist any    `json:"dist"`
		} `json:"list"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode wikinearby json", err)
	}
	if result.List == nil {
		return errors.NewDecode("wikinearby response has no list array", nil)
	}

	w.Lat = stringFloat(result.Lat)
	w.Lon = stringFloat(result.Lon)
	w.Results = w.Results[:0]
	for _, row := range result.List {
		if row.Page == "" {
			continue
		}
		lat := stringFloat(row.Lat)
		lon := stringFloat(row.Lon)
		dist := stringFloat(row.Dist)
		if lat == nil || lon == nil || dist == nil {
			continue
		}
		w.Results = append(w.Results, WikiNearbyResult{
			Title:       row.Page,
			Description: row.Desc,
			Image:       row.Img,
			Lat:         *lat,
			Lon:         *lon,
			Distance:    *dist,
		})
	}
	return nil
}

// PageList converts the result rows into a page list on the query's
// wiki, parsing namespace prefixes with the given formatter.
func (w *WikiNearby) PageList(f title.Formatter) *pagelist.PageList {
	pl := &pagelist.PageList{Site: w.Site}
	for _, r := range w.Results {
		meta := map[string]any{
			"lat":      r.Lat,
			"lon":      r.Lon,
			"distance": r.Distance,
		}
		if r.Description != "" {
			meta["description"] = r.Description
		}
		if r.Image != "" {
			meta["image"] = r.Image
		}
		pl.Pages = append(pl.Pages, pagelist.Page{Title: f.Parse(r.Title), Meta: meta})
	}
	return pl
}

// stringFloat parses the string-encoded floats this service emits.
func stringFloat(v any) *float64 {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
