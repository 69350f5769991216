package tools

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
)

const missingTopicsEndpoint = "https://missingtopics.toolforge.org/"

// MissingTopicsResult is one missing article with its occurrence count.
type MissingTopicsResult struct {
	Title string
	Count uint64
}

// MissingTopics lists red links for a category tree or a single
// article. Exactly one of Category or Article must be set.
type MissingTopics struct {
	Site            site.Site
	Category        string
	CategoryDepth   uint32
	Article         string
	NoSingles       bool
	NoTemplateLinks *bool
	OccursMoreThan  *uint32
	Endpoint        string // Optional override for testing

	URLUsed string
	Results []MissingTopicsResult
}

// NewMissingTopics creates a MissingTopics query for the given wiki.
func NewMissingTopics(s site.Site) *MissingTopics {
	return &MissingTopics{Site: s}
}

// WithCategory restricts the query to a category tree with the given
// depth.
func (m *MissingTopics) WithCategory(category string, depth uint32) *MissingTopics {
	m.Category = category
	m.CategoryDepth = depth
	return m
}

// WithArticle restricts the query to links from a single article.
func (m *MissingTopics) WithArticle(article string) *MissingTopics {
	m.Article = article
	return m
}

// Limit keeps only results that occur more often than the given count.
func (m *MissingTopics) Limit(occursMoreThan uint32) *MissingTopics {
	m.NoSingles = true
	m.OccursMoreThan = &occursMoreThan
	return m
}

// NoTemplates filters out links coming from templates.
func (m *MissingTopics) NoTemplates(v bool) *MissingTopics {
	m.NoTemplateLinks = &v
	return m
}

// Name implements Tool.
func (m *MissingTopics) Name() string { return "missing_topics" }

// Request implements Tool.
func (m *MissingTopics) Request() (request.Spec, error) {
	if m.Category != "" && m.Article != "" {
		return request.Spec{}, errors.NewValidation("only one of category or article can be set")
	}
	if m.Category == "" && m.Article == "" {
		return request.Spec{}, errors.NewValidation("either category or article must be set")
	}

	endpoint := m.Endpoint
	if endpoint == "" {
		endpoint = missingTopicsEndpoint
	}

	q := url.Values{}
	q.Set("language", m.Site.Language)
	q.Set("project", m.Site.Project)
	q.Set("doit", "Run")
	q.Set("wikimode", "json")
	if m.Category != "" {
		q.Set("category", m.Category)
		q.Set("depth", strconv.FormatUint(uint64(m.CategoryDepth), 10))
	} else {
		q.Set("article", m.Article)
	}
	if m.NoSingles {
		q.Set("nosingles", "1")
	} else {
		q.Set("nosingles", "0")
	}
	if m.NoTemplateLinks != nil {
		if *m.NoTemplateLinks {
			q.Set("no_template_links", "1")
		} else {
			q.Set("no_template_links", "0")
		}
	}
	if m.OccursMoreThan != nil {
		q.Set("limitnum", strconv.FormatUint(uint64(*m.OccursMoreThan), 10))
	}

	return request.Spec{URL: endpoint, Query: q}, nil
}

// ParseResponse implements Tool.
func (m *MissingTopics) ParseResponse(body []byte) error {
	var result struct {
		Status  string             `json:"status"`
		Results map[string]*uint64 `json:"results"`
		URL     *string            `json:"url"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode missingtopics json", err)
	}
	if result.Status != "OK" {
		return errors.NewTool(fmt.Sprintf("missingtopics status is not OK: %q", result.Status))
	}
	if result.URL == nil {
		return errors.NewDecode("missingtopics response has no url", nil)
	}

	m.URLUsed = *result.URL
	m.Results = m.Results[:0]
	for title, count := range result.Results {
		if count == nil {
			continue
		}
		m.Results = append(m.Results, MissingTopicsResult{Title: title, Count: *count})
	}
	return nil
}
