// Package tools wraps the public Wikimedia-ecosystem query services:
// one type per tool, each building a single request and parsing its
// response into a small typed result.
package tools

import (
	"context"

	"wikitools/pkg/request"
)

// Tool is the request/parse cycle every wrapper implements. Validation
// happens in Request; a tool-reported failure surfaces from
// ParseResponse.
type Tool interface {
	// Name identifies the tool in errors and logs.
	Name() string
	// Request describes the single HTTP request the tool performs.
	Request() (request.Spec, error)
	// ParseResponse decodes the response body into the tool's fields.
	ParseResponse(body []byte) error
}

// Run executes a tool's request/parse cycle over the shared client.
func Run(ctx context.Context, c *request.Client, t Tool) error {
	spec, err := t.Request()
	if err != nil {
		return err
	}
	body, err := c.Do(ctx, spec)
	if err != nil {
		return err
	}
	return t.ParseResponse(body)
}
