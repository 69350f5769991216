package title

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
)

// SiteFormatter formats titles with a specific wiki's own namespace
// names ("Kategorie:" on dewiki, "Category:" on enwiki).
type SiteFormatter struct {
	names     map[int]string
	canonical map[int]string
}

// Prefixed implements Formatter.
func (f *SiteFormatter) Prefixed(t Title) string {
	return prefixed(f.names, t)
}

// Parse implements Formatter. Both the local and the canonical
// namespace names are accepted as prefixes.
func (f *SiteFormatter) Parse(s string) Title {
	t := parse(f.names, s)
	if t.NamespaceID == 0 && strings.Contains(s, ":") {
		return parse(f.canonical, s)
	}
	return t
}

// Source provides a Formatter for a site. The pagelist operations take
// a Source so they can pretty-print titles for whatever wiki a
// collection ends up on.
type Source interface {
	ForSite(ctx context.Context, s site.Site) (Formatter, error)
}

// CanonicalSource returns the canonical formatter for every site,
// without network access.
type CanonicalSource struct{}

// ForSite implements Source.
func (CanonicalSource) ForSite(_ context.Context, _ site.Site) (Formatter, error) {
	return CanonicalFormatter{}, nil
}

// APISource fetches each site's namespace names from its MediaWiki API,
// once per site. On fetch failure it falls back to the canonical names.
type APISource struct {
	Client      *request.Client
	APIEndpoint string // Optional override for testing

	cache map[string]Formatter
}

// NewAPISource creates an APISource over the shared HTTP client.
func NewAPISource(c *request.Client) *APISource {
	return &APISource{Client: c, cache: make(map[string]Formatter)}
}

// ForSite implements Source.
func (a *APISource) ForSite(ctx context.Context, s site.Site) (Formatter, error) {
	if a.cache == nil {
		a.cache = make(map[string]Formatter)
	}
	if f, ok := a.cache[s.Wiki]; ok {
		return f, nil
	}

	f, err := a.fetch(ctx, s)
	if err != nil {
		slog.Warn("Falling back to canonical namespace names", "wiki", s.Wiki, "error", err)
		return CanonicalFormatter{}, nil
	}
	a.cache[s.Wiki] = f
	return f, nil
}

func (a *APISource) fetch(ctx context.Context, s site.Site) (*SiteFormatter, error) {
	endpoint := a.APIEndpoint
	if endpoint == "" {
		endpoint = s.APIURL()
	}

	q := url.Values{}
	q.Set("action", "query")
	q.Set("meta", "siteinfo")
	q.Set("siprop", "namespaces")
	q.Set("format", "json")
	q.Set("formatversion", "2")

	body, err := a.Client.Do(ctx, request.Spec{URL: endpoint, Query: q})
	if err != nil {
		return nil, err
	}

	var result struct {
		Query struct {
			Namespaces map[string]struct {
				ID        int    `json:"id"`
				Name      string `json:"name"`
				Canonical string `json:"canonical"`
			} `json:"namespaces"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errors.NewDecode("failed to decode siteinfo json", err)
	}
	if len(result.Query.Namespaces) == 0 {
		return nil, errors.NewDecode("siteinfo response has no namespaces", nil)
	}

	f := &SiteFormatter{
		names:     make(map[int]string),
		canonical: make(map[int]string),
	}
	for _, ns := range result.Query.Namespaces {
		f.names[ns.ID] = ns.Name
		f.canonical[ns.ID] = ns.Canonical
	}
	return f, nil
}
