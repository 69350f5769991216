package tools

import (
	"encoding/json"
	"fmt"

	"wikitools/internal/errors"
	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

const pagepileEndpoint = "https://pagepile.toolforge.org/api.php"

// PagePile retrieves the list of pages in a PagePile by ID.
type PagePile struct {
	ID       uint32
	Endpoint string // Optional override for testing

	PrefixedTitles []string
	Language       string
	Project        string
	Wiki           string
}

// NewPagePile creates a PagePile lookup for the given pile ID.
func NewPagePile(id uint32) *PagePile {
	return &PagePile{ID: id}
}

// Name implements Tool.
func (p *PagePile) Name() string { return "pagepile" }

// Request implements Tool.
func (p *PagePile) Request() (request.Spec, error) {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = pagepileEndpoint
	}

	// doit is a bare flag, so the query is assembled by hand.
	u := fmt.Sprintf("%s?id=%d&action=get_data&doit&format=json", endpoint, p.ID)
	return request.Spec{URL: u}, nil
}

// ParseResponse implements Tool. The pile's own page counters must
// agree with the page array.
func (p *PagePile) ParseResponse(body []byte) error {
	var result struct {
		Language      string   `json:"language"`
		Project       string   `json:"project"`
		Wiki          string   `json:"wiki"`
		Pages         []string `json:"pages"`
		PagesReturned *int64   `json:"pages_returned"`
		PagesTotal    *int64   `json:"pages_total"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode pagepile json", err)
	}
	if result.PagesReturned == nil || result.PagesTotal == nil {
		return errors.NewDecode("pagepile response has no page counters", nil)
	}
	if *result.PagesReturned != *result.PagesTotal {
		return errors.NewDecode(fmt.Sprintf("pages_returned (%d) != pages_total (%d)",
			*result.PagesReturned, *result.PagesTotal), nil)
	}
	if *result.PagesTotal != int64(len(result.Pages)) {
		return errors.NewDecode(fmt.Sprintf("pages_total (%d) != len(pages) (%d)",
			*result.PagesTotal, len(result.Pages)), nil)
	}

	p.Language = result.Language
	p.Project = result.Project
	p.Wiki = result.Wiki
	p.PrefixedTitles = result.Pages
	return nil
}

// Site resolves the pile's wiki, falling back to language+project.
func (p *PagePile) Site() (site.Site, error) {
	if p.Wiki != "" {
		return site.FromWiki(p.Wiki)
	}
	if p.Language != "" && p.Project != "" {
		return site.FromLanguageProject(p.Language, p.Project), nil
	}
	return site.Site{}, errors.NewDecode("pagepile response names no wiki", nil)
}

// PageList converts the prefixed titles into a page list, parsing
// namespace prefixes with the given formatter.
func (p *PagePile) PageList(f title.Formatter) (*pagelist.PageList, error) {
	s, err := p.Site()
	if err != nil {
		return nil, err
	}

	pl := &pagelist.PageList{Site: s}
	for _, prefixed := range p.PrefixedTitles {
		pl.Pages = append(pl.Pages, pagelist.Page{Title: f.Parse(prefixed)})
	}
	return pl, nil
}
