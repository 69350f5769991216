package tools

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"wikitools/internal/errors"
	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

const grepEndpoint = "https://grep.toolforge.org/index.php"

// Grep lists pages on a wiki whose titles match a regular expression.
type Grep struct {
	Site             site.Site
	Pattern          string
	NamespaceID      uint32
	IncludeRedirects bool
	Limit100         bool
	Endpoint         string // Optional override for testing

	Results []string
}

// NewGrep creates a title search for the given wiki and pattern.
func NewGrep(s site.Site, pattern string) *Grep {
	return &Grep{Site: s, Pattern: pattern}
}

// WithNamespaceID restricts the search to one namespace.
func (g *Grep) WithNamespaceID(id uint32) *Grep {
	g.NamespaceID = id
	return g
}

// WithRedirects includes redirects in the results.
func (g *Grep) WithRedirects() *Grep {
	g.IncludeRedirects = true
	return g
}

// WithLimit100 caps the results at 100 titles.
func (g *Grep) WithLimit100() *Grep {
	g.Limit100 = true
	return g
}

// Name implements Tool.
func (g *Grep) Name() string { return "grep" }

// Request implements Tool.
func (g *Grep) Request() (request.Spec, error) {
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = grepEndpoint
	}

	q := url.Values{}
	q.Set("lang", g.Site.Language)
	q.Set("project", g.Site.Project)
	q.Set("namespace", strconv.FormatUint(uint64(g.NamespaceID), 10))
	q.Set("pattern", g.Pattern)
	if g.IncludeRedirects {
		q.Set("redirects", "on")
	}
	if g.Limit100 {
		q.Set("limit", "on")
	}
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool. The body is HTML; the hits are list
// items wrapping an anchor.
func (g *Grep) ParseResponse(body []byte) error {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return errors.NewDecode("failed to parse grep html", err)
	}
	g.Results = g.Results[:0]
	g.collectListAnchors(doc)
	return nil
}

func (g *Grep) collectListAnchors(n *html.Node) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Li {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == atom.A {
				if t := anchorText(c); t != "" {
					g.Results = append(g.Results, t)
				}
			}
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		g.collectListAnchors(c)
	}
}

func anchorText(a *html.Node) string {
	var b strings.Builder
	for c := a.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(b.String())
}

// PageList converts the matched titles into a page list on the query's
// wiki. The titles come back without namespace prefix, so the query's
// namespace is applied directly.
func (g *Grep) PageList() *pagelist.PageList {
	pl := &pagelist.PageList{Site: g.Site}
	for _, t := range g.Results {
		pl.Pages = append(pl.Pages, pagelist.Page{Title: title.New(t, int(g.NamespaceID))})
	}
	return pl
}
