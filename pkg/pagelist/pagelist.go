// Package pagelist implements the page-list algebra: page identity,
// metadata merge, cross-wiki translation and the subset/union set
// operations.
package pagelist

import (
	"context"
	"encoding/json"
	"os"

	"wikitools/internal/errors"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

// Reserved page-list JSON keys, derived on encode and never stored as
// metadata.
const (
	keyTitle         = "title"
	keyNamespaceID   = "namespace_id"
	keyPrefixedTitle = "prefixed_title"
)

// Page is one page identity plus the open-ended metadata bag the
// producing tool attached to it.
type Page struct {
	Title title.Title
	Meta  map[string]any
}

// Key is the set-algebra identity of the page within its wiki.
func (p Page) Key() string {
	return p.Title.Key()
}

// Clone returns a copy of p with its own metadata map, so mutating the
// copy's metadata leaves p untouched.
func (p Page) Clone() Page {
	if p.Meta == nil {
		return p
	}
	meta := make(map[string]any, len(p.Meta))
	for k, v := range p.Meta {
		meta[k] = v
	}
	return Page{Title: p.Title, Meta: meta}
}

// Merge returns a new Page with p's title and p's metadata overlaid by
// other's. Other wins on key collision. Both inputs stay unchanged.
func (p Page) Merge(other Page) Page {
	meta := make(map[string]any, len(p.Meta)+len(other.Meta))
	for k, v := range p.Meta {
		meta[k] = v
	}
	for k, v := range other.Meta {
		meta[k] = v
	}
	return Page{Title: p.Title, Meta: meta}
}

// PageList is an ordered collection of pages belonging to one wiki.
type PageList struct {
	Site  site.Site
	Pages []Page
}

// FromJSON decodes a page-list document. The title and namespace_id
// members are mandatory per page; malformed page entries are skipped.
// All other members become metadata, with the reserved keys stripped.
func FromJSON(data []byte) (*PageList, error) {
	var doc struct {
		Site struct {
			Wiki string `json:"wiki"`
		} `json:"site"`
		Pages []map[string]any `json:"pages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewDecode("failed to decode page list json", err)
	}
	if doc.Site.Wiki == "" {
		return nil, errors.NewDecode("missing site.wiki", nil)
	}
	s, err := site.FromWiki(doc.Site.Wiki)
	if err != nil {
		return nil, err
	}

	pl := &PageList{Site: s}
	for _, raw := range doc.Pages {
		name, ok := raw[keyTitle].(string)
		if !ok {
			continue
		}
		ns, ok := raw[keyNamespaceID].(float64)
		if !ok {
			continue
		}

		meta := make(map[string]any, len(raw))
		for k, v := range raw {
			switch k {
			case keyTitle, keyNamespaceID, keyPrefixedTitle:
				continue
			}
			meta[k] = v
		}
		pl.Pages = append(pl.Pages, Page{Title: title.New(name, int(ns)), Meta: meta})
	}
	return pl, nil
}

// FromFile reads and decodes a page-list document from disk.
func FromFile(path string) (*PageList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewValidation("cannot read " + path + ": " + err.Error())
	}
	return FromJSON(data)
}

// ToJSON encodes the page-list document, synthesizing the reserved
// members from each page's identity using the given formatter.
func (pl *PageList) ToJSON(f title.Formatter) ([]byte, error) {
	pages := make([]map[string]any, 0, len(pl.Pages))
	for _, p := range pl.Pages {
		obj := make(map[string]any, len(p.Meta)+3)
		for k, v := range p.Meta {
			obj[k] = v
		}
		obj[keyTitle] = p.Title.Name
		obj[keyNamespaceID] = p.Title.NamespaceID
		obj[keyPrefixedTitle] = f.Prefixed(p.Title)
		pages = append(pages, obj)
	}

	doc := map[string]any{
		"site": map[string]any{
			"wiki":     pl.Site.Wiki,
			"language": pl.Site.Language,
			"project":  pl.Site.Project,
		},
		"pages": pages,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ToWiki translates the whole collection onto the target wiki. Pages
// with no translation are dropped. The formatter source supplies the
// prefixed-title rendering for the source wiki and the parsing for the
// target wiki.
func (pl *PageList) ToWiki(ctx context.Context, tr Translator, ns title.Source, target site.Site) (*PageList, error) {
	if pl.Site == target {
		cp := &PageList{Site: pl.Site, Pages: make([]Page, 0, len(pl.Pages))}
		for _, p := range pl.Pages {
			cp.Pages = append(cp.Pages, p.Clone())
		}
		return cp, nil
	}

	srcFmt, err := ns.ForSite(ctx, pl.Site)
	if err != nil {
		return nil, err
	}
	tgtFmt, err := ns.ForSite(ctx, target)
	if err != nil {
		return nil, err
	}

	prefixed := make([]string, 0, len(pl.Pages))
	for _, p := range pl.Pages {
		prefixed = append(prefixed, srcFmt.Prefixed(p.Title))
	}

	old2new, err := tr.Translate(ctx, pl.Site, target, prefixed)
	if err != nil {
		return nil, err
	}

	out := &PageList{Site: target}
	for i, p := range pl.Pages {
		newTitle, ok := old2new[prefixed[i]]
		if !ok {
			continue
		}
		out.Pages = append(out.Pages, Page{Title: tgtFmt.Parse(newTitle), Meta: p.Clone().Meta})
	}
	return out, nil
}

// Subset returns, in pl's original order, every page whose identity
// also occurs in other, merged with its counterpart. Other is
// translated onto pl's wiki first if the sites differ; only the
// right-hand side is ever translated.
func (pl *PageList) Subset(ctx context.Context, tr Translator, ns title.Source, other *PageList) (*PageList, error) {
	other, err := other.ToWiki(ctx, tr, ns, pl.Site)
	if err != nil {
		return nil, err
	}

	lookup := keyLookup(other.Pages)
	out := &PageList{Site: pl.Site}
	for _, p := range pl.Pages {
		pos, ok := lookup[p.Key()]
		if !ok {
			continue
		}
		out.Pages = append(out.Pages, p.Merge(other.Pages[pos]))
	}
	return out, nil
}

// Union combines both collections. Pages present in both are merged in
// pl's position; pages only in other are appended afterwards in other's
// original relative order. Other is translated onto pl's wiki first if
// the sites differ.
func (pl *PageList) Union(ctx context.Context, tr Translator, ns title.Source, other *PageList) (*PageList, error) {
	other, err := other.ToWiki(ctx, tr, ns, pl.Site)
	if err != nil {
		return nil, err
	}

	lookup := keyLookup(other.Pages)
	out := &PageList{Site: pl.Site}
	for _, p := range pl.Pages {
		if pos, ok := lookup[p.Key()]; ok {
			out.Pages = append(out.Pages, p.Merge(other.Pages[pos]))
			delete(lookup, p.Key())
		} else {
			out.Pages = append(out.Pages, p.Clone())
		}
	}

	for i, p := range other.Pages {
		if pos, ok := lookup[p.Key()]; ok && pos == i {
			out.Pages = append(out.Pages, p)
		}
	}
	return out, nil
}

// keyLookup maps page identity to position. Duplicate identities keep
// the last position.
func keyLookup(pages []Page) map[string]int {
	lookup := make(map[string]int, len(pages))
	for i, p := range pages {
		lookup[p.Key()] = i
	}
	return lookup
}
