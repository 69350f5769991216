package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
)

func TestDuplicity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "articles" {
			t.Errorf("Expected action=articles, got %s", q.Get("action"))
		}
		if q.Get("wiki") != "dewiki" {
			t.Errorf("Expected wiki=dewiki, got %s", q.Get("wiki"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"articles": [
				{"title": "Trude Herr", "creation_date": "20240115093000"}
			]
		}`))
	}))
	defer ts.Close()

	s, err := site.FromWiki("dewiki")
	require.NoError(t, err)

	d := NewDuplicity(s)
	d.Endpoint = ts.URL
	require.NoError(t, Run(context.Background(), request.New(0), d))

	require.Len(t, d.Results, 1)
	assert.Equal(t, "Trude Herr", d.Results[0].Title)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), d.Results[0].CreationDate)
}

func TestDuplicityBadDate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OK", "articles": [{"title": "X", "creation_date": "not a date"}]}`))
	}))
	defer ts.Close()

	s, err := site.FromWiki("dewiki")
	require.NoError(t, err)

	d := NewDuplicity(s)
	d.Endpoint = ts.URL
	err = Run(context.Background(), request.New(0), d)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDecode))
}

func TestDuplicityWikis(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") != "wikis" {
			t.Errorf("Expected action=wikis, got %s", r.URL.Query().Get("action"))
		}
		w.Write([]byte(`{"wikis": [
			{"wiki": "dewiki", "cnt": "1234"},
			{"wiki": "enwiki", "cnt": "5678"},
			{"wiki": "brokenwiki", "cnt": "n/a"}
		]}`))
	}))
	defer ts.Close()

	wikis, err := DuplicityWikis(context.Background(), request.New(0), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, map[string]uint64{"dewiki": 1234, "enwiki": 5678}, wikis)
}
