package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
)

func TestMissingTopicsValidation(t *testing.T) {
	s, err := site.FromWiki("dewiki")
	require.NoError(t, err)

	_, err = NewMissingTopics(s).Request()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))

	_, err = NewMissingTopics(s).WithCategory("Biologie", 2).WithArticle("Biochemie").Request()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestMissingTopicsCategory(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("language") != "de" || q.Get("project") != "wikipedia" {
			t.Errorf("Unexpected language/project %s/%s", q.Get("language"), q.Get("project"))
		}
		if q.Get("category") != "Biologie" || q.Get("depth") != "2" {
			t.Errorf("Unexpected category/depth %s/%s", q.Get("category"), q.Get("depth"))
		}
		if q.Get("doit") != "Run" || q.Get("wikimode") != "json" {
			t.Errorf("Unexpected doit/wikimode %s/%s", q.Get("doit"), q.Get("wikimode"))
		}
		if q.Get("nosingles") != "1" || q.Get("limitnum") != "5" {
			t.Errorf("Unexpected nosingles/limitnum %s/%s", q.Get("nosingles"), q.Get("limitnum"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"url": "https://missingtopics.toolforge.org/?foo",
			"results": {"Zellatmung": 7, "Glykolyse": 6, "Kaputt": null}
		}`))
	}))
	defer ts.Close()

	s, err := site.FromWiki("dewiki")
	require.NoError(t, err)

	m := NewMissingTopics(s).WithCategory("Biologie", 2).Limit(5)
	m.Endpoint = ts.URL
	require.NoError(t, Run(context.Background(), request.New(0), m))

	assert.Equal(t, "https://missingtopics.toolforge.org/?foo", m.URLUsed)
	require.Len(t, m.Results, 2)
	counts := map[string]uint64{}
	for _, r := range m.Results {
		counts[r.Title] = r.Count
	}
	assert.Equal(t, map[string]uint64{"Zellatmung": 7, "Glykolyse": 6}, counts)
}

func TestMissingTopicsStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "no such category", "url": "x", "results": {}}`))
	}))
	defer ts.Close()

	s, err := site.FromWiki("dewiki")
	require.NoError(t, err)

	m := NewMissingTopics(s).WithArticle("Biochemie")
	m.Endpoint = ts.URL
	err = Run(context.Background(), request.New(0), m)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTool))
}
