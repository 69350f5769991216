package tools

import (
	"encoding/json"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
)

const completerEndpoint = "https://completer.toolforge.org/data"

// CompleterFilter narrows a Completer query. Exactly one of the field
// groups is used, chosen by Type. Categories and templates must not
// carry a namespace prefix.
type CompleterFilter struct {
	Type  string // "category", "petscan" or "template"
	Title string // category or template name
	Depth uint32 // category only
	PSID  string // petscan only
	Talk  bool
}

// CategoryFilter filters by category with the given depth.
func CategoryFilter(category string, depth uint32) CompleterFilter {
	return CompleterFilter{Type: "category", Title: category, Depth: depth}
}

// PetScanFilter filters by a saved PetScan query.
func PetScanFilter(psid string) CompleterFilter {
	return CompleterFilter{Type: "petscan", PSID: psid}
}

// TemplateFilter filters by template transclusion.
func TemplateFilter(template string) CompleterFilter {
	return CompleterFilter{Type: "template", Title: template}
}

func (f CompleterFilter) payload() map[string]any {
	switch f.Type {
	case "petscan":
		return map[string]any{
			"type":     "petscan",
			"specific": map[string]any{"id": f.PSID},
		}
	case "template":
		return map[string]any{
			"type":     "template",
			"specific": map[string]any{"title": f.Title, "talk": f.Talk},
		}
	default:
		return map[string]any{
			"type":     "category",
			"specific": map[string]any{"title": f.Title, "depth": f.Depth, "talk": f.Talk},
		}
	}
}

// CompleterResult is one page missing on the target wiki, with the
// number of times it is wanted.
type CompleterResult struct {
	Title string
	Count uint64
}

// Completer finds articles on one Wikipedia that are missing on
// another. From and To are Wikipedia language codes ("de", "en").
type Completer struct {
	From        string
	To          string
	Filters     []CompleterFilter
	IgnoreCache bool
	Endpoint    string // Optional override for testing

	ID      uint64
	Results []CompleterResult
}

// NewCompleter creates a Completer query between two language editions.
func NewCompleter(from, to string) *Completer {
	return &Completer{From: from, To: to}
}

// Filter appends a filter and returns the receiver for chaining.
func (c *Completer) Filter(f CompleterFilter) *Completer {
	c.Filters = append(c.Filters, f)
	return c
}

// Name implements Tool.
func (c *Completer) Name() string { return "completer" }

// Request implements Tool.
func (c *Completer) Request() (request.Spec, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = completerEndpoint
	}

	filters := make([]map[string]any, 0, len(c.Filters))
	for _, f := range c.Filters {
		filters = append(filters, f.payload())
	}
	payload := map[string]any{
		"info": map[string]any{
			"from":        c.From,
			"to":          c.To,
			"ignoreCache": c.IgnoreCache,
			"filters":     filters,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return request.Spec{}, errors.NewValidation("cannot encode completer payload: " + err.Error())
	}

	return request.Spec{
		Method:      "POST",
		URL:         endpoint,
		Body:        body,
		ContentType: "application/json",
	}, nil
}

// ParseResponse implements Tool.
func (c *Completer) ParseResponse(body []byte) error {
	var result struct {
		Success bool `json:"success"`
		Meta    struct {
			ID *uint64 `json:"id"`
		} `json:"meta"`
		Data [][]any `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode completer json", err)
	}
	if !result.Success {
		return errors.NewTool("completer has failed: " + string(body))
	}
	if result.Meta.ID == nil {
		return errors.NewTool("completer response has no id")
	}

	c.ID = *result.Meta.ID
	c.Results = c.Results[:0]
	for _, row := range result.Data {
		if len(row) < 2 {
			continue
		}
		title, ok := row[0].(string)
		if !ok {
			continue
		}
		count, ok := row[1].(float64)
		if !ok {
			continue
		}
		c.Results = append(c.Results, CompleterResult{Title: title, Count: uint64(count)})
	}
	return nil
}
