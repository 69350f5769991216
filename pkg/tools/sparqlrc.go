package tools

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
)

const sparqlRCEndpoint = "https://wikidata-todo.toolforge.org/sparql_rc.php"

// sparqlRCTimeLayout is the compact timestamp format the tool uses for
// both query parameters and result fields.
const sparqlRCTimeLayout = "20060102150405"

// EntityEditor is one user who edited an entity in the query window.
type EntityEditor struct {
	ID    uint64
	Name  string
	Edits uint64
}

// EntityEdit is one changed entity with its edit metadata.
type EntityEdit struct {
	ID       string
	Label    string
	Comment  *string
	Msg      *string
	DiffHTML *string
	Editors  []EntityEditor
	TSBefore time.Time
	TSAfter  time.Time
	Changed  bool
	Created  bool
	Reverted bool
}

// SparqlRC lists recent changes to the Wikidata entities matched by a
// SPARQL query. The first variable of the select statement must be the
// entity ID, named "?q".
type SparqlRC struct {
	Sparql        string
	Start         time.Time // mandatory
	End           time.Time
	Languages     []string
	NoBotEdits    bool
	SkipUnchanged bool
	Endpoint      string // Optional override for testing

	Results []EntityEdit
}

// NewSparqlRC creates a recent-changes query for the given SPARQL.
func NewSparqlRC(sparql string) *SparqlRC {
	return &SparqlRC{Sparql: sparql}
}

// WithStart sets the start of the query window. This is mandatory.
func (s *SparqlRC) WithStart(t time.Time) *SparqlRC {
	s.Start = t
	return s
}

// WithEnd sets the end of the query window.
func (s *SparqlRC) WithEnd(t time.Time) *SparqlRC {
	s.End = t
	return s
}

// Name implements Tool.
func (s *SparqlRC) Name() string { return "sparql_rc" }

// Request implements Tool.
func (s *SparqlRC) Request() (request.Spec, error) {
	if s.Start.IsZero() {
		return request.Spec{}, errors.NewValidation("sparql_rc start date is not set")
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = sparqlRCEndpoint
	}

	q := url.Values{}
	q.Set("sparql", s.Sparql)
	q.Set("start", s.Start.Format(sparqlRCTimeLayout))
	if s.End.IsZero() {
		q.Set("end", "")
	} else {
		q.Set("end", s.End.Format(sparqlRCTimeLayout))
	}
	q.Set("user_lang", strings.Join(s.Languages, ","))
	q.Set("no_bots", boolParam(s.NoBotEdits))
	q.Set("skip_unchanged", boolParam(s.SkipUnchanged))
	q.Set("format", "json")
	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool. Items with missing mandatory fields
// are skipped.
func (s *SparqlRC) ParseResponse(body []byte) error {
	var result struct {
		Status string           `json:"status"`
		Items  []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode sparql_rc json", err)
	}
	if result.Status != "OK" {
		return errors.NewTool(fmt.Sprintf("sparql_rc status is not OK: %q", result.Status))
	}
	if result.Items == nil {
		return errors.NewDecode("sparql_rc response has no items array", nil)
	}

	s.Results = s.Results[:0]
	for _, item := range result.Items {
		if e, ok := parseEntityEdit(item); ok {
			s.Results = append(s.Results, e)
		}
	}
	return nil
}

func parseEntityEdit(item map[string]any) (EntityEdit, bool) {
	id, ok := item["id"].(string)
	if !ok {
		return EntityEdit{}, false
	}
	label, ok := item["label"].(string)
	if !ok {
		return EntityEdit{}, false
	}
	before, ok := parseSparqlRCDate(item["ts_before"])
	if !ok {
		return EntityEdit{}, false
	}
	after, ok := parseSparqlRCDate(item["ts_after"])
	if !ok {
		return EntityEdit{}, false
	}
	e := EntityEdit{
		ID:       id,
		Label:    label,
		Comment:  optString(item["comment"]),
		Msg:      optString(item["msg"]),
		DiffHTML: optString(item["diff"]),
		TSBefore: before,
		TSAfter:  after,
	}
	e.Changed, _ = item["changed"].(bool)
	e.Created, _ = item["created"].(bool)
	e.Reverted, _ = item["reverted"].(bool)
	if editors, ok := item["editors"].([]any); ok {
		for _, row := range editors {
			m, ok := row.(map[string]any)
			if !ok {
				continue
			}
			if ed, ok := parseEntityEditor(m); ok {
				e.Editors = append(e.Editors, ed)
			}
		}
	}
	return e, true
}

func parseEntityEditor(m map[string]any) (EntityEditor, bool) {
	idStr, ok := m["user_id"].(string)
	if !ok {
		return EntityEditor{}, false
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return EntityEditor{}, false
	}
	name, ok := m["user_text"].(string)
	if !ok {
		return EntityEditor{}, false
	}
	edits, ok := m["edits"].(float64)
	if !ok {
		return EntityEditor{}, false
	}
	return EntityEditor{ID: id, Name: name, Edits: uint64(edits)}, true
}

func parseSparqlRCDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(sparqlRCTimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func optString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
