package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

func TestWikiSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "query" || q.Get("list") != "search" {
			t.Errorf("Unexpected action/list %s/%s", q.Get("action"), q.Get("list"))
		}
		if q.Get("srsearch") != "Magnus Manske" {
			t.Errorf("Expected srsearch=Magnus Manske, got %s", q.Get("srsearch"))
		}
		if q.Get("srnamespace") != "0" || q.Get("srlimit") != "10" {
			t.Errorf("Unexpected defaults srnamespace=%s srlimit=%s", q.Get("srnamespace"), q.Get("srlimit"))
		}
		w.Write([]byte(`{"query": {"search": [
			{"ns": 0, "title": "Magnus Manske", "pageid": 3361346, "size": 9244,
			 "wordcount": 880, "snippet": "is a German biochemist"},
			{"ns": 0, "title": "Broken", "pageid": "not a number"}
		]}}`))
	}))
	defer ts.Close()

	s, err := site.FromWiki("enwiki")
	require.NoError(t, err)

	ws := NewWikiSearch(s, "Magnus Manske")
	ws.Endpoint = ts.URL
	require.NoError(t, Run(context.Background(), request.New(0), ws))

	require.Len(t, ws.Results, 1)
	assert.Equal(t, "Magnus Manske", ws.Results[0].Title)
	assert.Equal(t, uint64(3361346), ws.Results[0].PageID)

	pl := ws.PageList(title.CanonicalFormatter{})
	require.Len(t, pl.Pages, 1)
	assert.Equal(t, uint64(880), pl.Pages[0].Meta["wordcount"])
}
