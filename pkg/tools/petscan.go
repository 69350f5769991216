package tools

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"wikitools/internal/errors"
	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

const petscanEndpoint = "https://petscan.wmflabs.org/"

// PetScanFileUsage is one global-image-usage row for a file page.
type PetScanFileUsage struct {
	NS   int    `json:"ns"`
	Page string `json:"page"`
	Wiki string `json:"wiki"`
}

// PetScanMetadata is the optional per-page metadata block.
type PetScanMetadata struct {
	Coordinates    string `json:"coordinates"` // "lat/lon"
	Image          string `json:"image"`
	Wikidata       string `json:"wikidata"`
	Disambiguation bool   `json:"disambiguation"`
	Fileusage      string `json:"fileusage"`
	ImgHeight      uint64 `json:"img_height"`
	ImgWidth       uint64 `json:"img_width"`
	ImgMajorMime   string `json:"img_major_mime"`
	ImgMediaType   string `json:"img_media_type"`
	ImgMinorMime   string `json:"img_minor_mime"`
	ImgSha1        string `json:"img_sha1"`
	ImgSize        uint64 `json:"img_size"`
	ImgTimestamp   string `json:"img_timestamp"`
	ImgUserText    string `json:"img_user_text"`
}

// LatLon splits the "lat/lon" coordinate string.
func (m PetScanMetadata) LatLon() (lat, lon float64, ok bool) {
	parts := strings.Split(m.Coordinates, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(parts[0], 64)
	lon, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// PetScanPage is one result row of a PetScan query.
type PetScanPage struct {
	PageID        uint32             `json:"page_id"`
	PageLatest    string             `json:"page_latest"`
	PageLen       uint32             `json:"page_len"`
	PageNamespace int                `json:"page_namespace"`
	PageTitle     string             `json:"page_title"`
	GIU           []PetScanFileUsage `json:"giu"`
	Metadata      PetScanMetadata    `json:"metadata"`
}

// PetScan runs a saved PetScan query by PSID.
type PetScan struct {
	PSID       uint32
	Parameters url.Values // overrides applied on top of the PSID
	Endpoint   string     // Optional override for testing

	Pages      []PetScanPage
	Namespaces map[int]string
	Query      string
	Wiki       string
	Status     string
}

// NewPetScan creates a PetScan query for a saved PSID.
func NewPetScan(psid uint32) *PetScan {
	return &PetScan{PSID: psid, Parameters: url.Values{}}
}

// Name implements Tool.
func (p *PetScan) Name() string { return "petscan" }

// Request implements Tool.
func (p *PetScan) Request() (request.Spec, error) {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = petscanEndpoint
	}

	q := url.Values{}
	q.Set("psid", strconv.FormatUint(uint64(p.PSID), 10))
	q.Set("format", "json")
	q.Set("output_compatability", "quick-intersection")
	for key, vals := range p.Parameters {
		for _, v := range vals {
			q.Add(key, v)
		}
	}
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool.
func (p *PetScan) ParseResponse(body []byte) error {
	var result struct {
		Status     string            `json:"status"`
		Query      string            `json:"query"`
		Wiki       string            `json:"wiki"`
		Namespaces map[string]string `json:"namespaces"`
		Pages      []PetScanPage     `json:"pages"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode petscan json", err)
	}

	p.Status = result.Status
	if p.Status != "OK" {
		return errors.NewTool(fmt.Sprintf("petscan status is not OK: %q", p.Status))
	}
	p.Query = result.Query
	p.Wiki = result.Wiki
	p.Namespaces = make(map[int]string, len(result.Namespaces))
	for k, v := range result.Namespaces {
		id, err := strconv.Atoi(k)
		if err != nil {
			return errors.NewDecode("bad namespace id "+k, err)
		}
		p.Namespaces[id] = v
	}
	p.Pages = result.Pages
	return nil
}

// PageList converts the result rows into a page list on the query's
// wiki.
func (p *PetScan) PageList() (*pagelist.PageList, error) {
	s, err := site.FromWiki(p.Wiki)
	if err != nil {
		return nil, err
	}

	pl := &pagelist.PageList{Site: s}
	for _, pg := range p.Pages {
		meta := map[string]any{
			"page_id":  pg.PageID,
			"page_len": pg.PageLen,
		}
		if pg.PageLatest != "" {
			meta["page_latest"] = pg.PageLatest
		}
		if pg.Metadata.Wikidata != "" {
			meta["wikidata"] = pg.Metadata.Wikidata
		}
		if pg.Metadata.Coordinates != "" {
			meta["coordinates"] = pg.Metadata.Coordinates
		}
		if pg.Metadata.Image != "" {
			meta["image"] = pg.Metadata.Image
		}
		pl.Pages = append(pl.Pages, pagelist.Page{
			Title: title.New(pg.PageTitle, pg.PageNamespace),
			Meta:  meta,
		})
	}
	return pl, nil
}
