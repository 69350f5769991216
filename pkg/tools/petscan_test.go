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
)

func TestPetScan(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("psid") != "25951472" {
			t.Errorf("Expected psid=25951472, got %s", q.Get("psid"))
		}
		if q.Get("format") != "json" {
			t.Errorf("Expected format=json, got %s", q.Get("format"))
		}
		if q.Get("output_compatability") != "quick-intersection" {
			t.Errorf("Unexpected output_compatability %s", q.Get("output_compatability"))
		}
		if q.Get("foo") != "bar" {
			t.Errorf("Expected parameter override foo=bar, got %s", q.Get("foo"))
		}
		w.Write([]byte(`{
			"status": "OK",
			"query": "something",
			"wiki": "enwiki",
			"namespaces": {"0": "", "1": "Talk"},
			"pages": [
				{
					"page_id": 36936,
					"page_latest": "1219457213",
					"page_len": 4268,
					"page_namespace": 0,
					"page_title": "Biochemistry",
					"metadata": {"wikidata": "Q7094", "coordinates": "52.2/0.12"}
				}
			]
		}`))
	}))
	defer ts.Close()

	ps := NewPetScan(25951472)
	ps.Parameters.Set("foo", "bar")
	ps.Endpoint = ts.URL
	require.NoError(t, Run(context.Background(), request.New(0), ps))

	assert.Equal(t, "enwiki", ps.Wiki)
	assert.Equal(t, map[int]string{0: "", 1: "Talk"}, ps.Namespaces)
	require.Len(t, ps.Pages, 1)
	assert.Equal(t, "Biochemistry", ps.Pages[0].PageTitle)

	lat, lon, ok := ps.Pages[0].Metadata.LatLon()
	require.True(t, ok)
	assert.InDelta(t, 52.2, lat, 1e-9)
	assert.InDelta(t, 0.12, lon, 1e-9)

	pl, err := ps.PageList()
	require.NoError(t, err)
	require.Len(t, pl.Pages, 1)
	assert.Equal(t, "enwiki", pl.Site.Wiki)
	assert.Equal(t, "Biochemistry", pl.Pages[0].Title.Name)
	assert.Equal(t, "Q7094", pl.Pages[0].Meta["wikidata"])
}

func TestPetScanStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "No PSID"}`))
	}))
	defer ts.Close()

	ps := NewPetScan(123)
	ps.Endpoint = ts.URL
	err := Run(context.Background(), request.New(0), ps)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTool))
}
