package tools

import (
	"encoding/json"
	"fmt"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
)

const quarryEndpoint = "https://quarry.wmcloud.org"

// Quarry downloads the latest result set of a saved Quarry query.
type Quarry struct {
	ID       uint64
	Endpoint string // Optional override for testing

	Columns []string
	Rows    [][]any
}

// NewQuarry creates a Quarry lookup for the given query ID.
func NewQuarry(id uint64) *Quarry {
	return &Quarry{ID: id}
}

// Name implements Tool.
func (q *Quarry) Name() string { return "quarry" }

// Request implements Tool.
func (q *Quarry) Request() (request.Spec, error) {
	endpoint := q.Endpoint
	if endpoint == "" {
		endpoint = quarryEndpoint
	}
	return request.Spec{
		URL: fmt.Sprintf("%s/query/%d/result/latest/0/json", endpoint, q.ID),
	}, nil
}

// ParseResponse implements Tool.
func (q *Quarry) ParseResponse(body []byte) error {
	var result struct {
		Headers *[]string `json:"headers"`
		Rows    *[][]any  `json:"rows"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode quarry json", err)
	}
	if result.Headers == nil {
		return errors.NewDecode("no headers in quarry json", nil)
	}
	if result.Rows == nil {
		return errors.NewDecode("no rows in quarry json", nil)
	}

	q.Columns = *result.Headers
	q.Rows = *result.Rows
	return nil
}

// Colnum returns the position of the named column, or -1.
func (q *Quarry) Colnum(name string) int {
	for i, c := range q.Columns {
		if c == name {
			return i
		}
	}
	return -1
}
