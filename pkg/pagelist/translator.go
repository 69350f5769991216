package pagelist

import (
	"context"
	"encoding/json"
	"fmt"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
)

// Translator maps prefixed titles from one wiki to another. Titles with
// no counterpart on the target wiki are simply absent from the result
// map; that is not an error.
type Translator interface {
	Translate(ctx context.Context, from, to site.Site, prefixed []string) (map[string]string, error)
}

const infernalEndpoint = "https://wd-infernal.toolforge.org/change_wiki"

// InfernalTranslator translates titles through the wd-infernal service.
type InfernalTranslator struct {
	Client   *request.Client
	Endpoint string // Optional override for testing
}

// NewInfernalTranslator creates the default cross-wiki translator.
func NewInfernalTranslator(c *request.Client) *InfernalTranslator {
	return &InfernalTranslator{Client: c}
}

// Translate implements Translator. It POSTs the titles as a JSON array
// and receives the old-to-new mapping back.
func (t *InfernalTranslator) Translate(ctx context.Context, from, to site.Site, prefixed []string) (map[string]string, error) {
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = infernalEndpoint
	}

	payload, err := json.Marshal(prefixed)
	if err != nil {
		return nil, errors.NewValidation("cannot encode titles: " + err.Error())
	}

	body, err := t.Client.Do(ctx, request.Spec{
		Method:      "POST",
		URL:         fmt.Sprintf("%s/%s/%s", endpoint, from.Wiki, to.Wiki),
		Body:        payload,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var old2new map[string]string
	if err := json.Unmarshal(body, &old2new); err != nil {
		return nil, errors.NewDecode("failed to decode translation json", err)
	}
	return old2new, nil
}
