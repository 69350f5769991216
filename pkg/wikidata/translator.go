package wikidata

import (
	"context"

	"wikitools/pkg/site"
)

// SitelinkTranslator translates titles between wikis by following
// Wikidata sitelinks: source title to item, item to target sitelink.
// It implements pagelist.Translator.
type SitelinkTranslator struct {
	client *Client
}

// NewSitelinkTranslator creates a translator over the given client.
func NewSitelinkTranslator(c *Client) *SitelinkTranslator {
	return &SitelinkTranslator{client: c}
}

// Translate maps prefixed titles on the source wiki to their
// counterparts on the target wiki. Titles without an item, and items
// without a sitelink on the target, are absent from the result.
func (t *SitelinkTranslator) Translate(ctx context.Context, from, to site.Site, prefixed []string) (map[string]string, error) {
	title2item, err := t.client.ItemsForTitles(ctx, from.Wiki, prefixed)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(title2item))
	for _, id := range title2item {
		ids = append(ids, id)
	}

	item2title, err := t.client.SitelinksForItems(ctx, ids, to.Wiki)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for title, id := range title2item {
		if target, ok := item2title[id]; ok {
			out[title] = target
		}
	}
	return out, nil
}
