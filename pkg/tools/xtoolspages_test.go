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
)

func TestXToolsPages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/pages/en.wikipedia.org/Magnus_Manske/0/all/all/1970-01-01/1970-01-01"
		if r.URL.Path != want {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "tsv" {
			t.Errorf("Expected format=tsv, got %s", r.URL.Query().Get("format"))
		}
		w.Write([]byte("namespace\tpage_title\tdate\toriginal_size\tcurrent_size\tassessment\n" +
			"0\tBiochemistry\t2004-03-01 12:34\t1234\t4268\tB\n" +
			"not a number\tBroken\t2004-03-01 12:34\t1\t1\tC\n" +
			"0\tShort row\n"))
	}))
	defer ts.Close()

	s, err := site.FromWiki("enwiki")
	require.NoError(t, err)

	x := NewXToolsPages(s, "Magnus_Manske")
	x.Endpoint = ts.URL
	require.NoError(t, Run(context.Background(), request.New(0), x))

	require.Len(t, x.Results, 1)
	assert.Equal(t, "Biochemistry", x.Results[0].Title)
	assert.Equal(t, uint32(4268), x.Results[0].CurrentSize)
	assert.Equal(t, "B", x.Results[0].Assessment)

	pl := x.PageList()
	require.Len(t, pl.Pages, 1)
	assert.Equal(t, "2004-03-01 12:34", pl.Pages[0].Meta["date"])
}

func TestXToolsPagesFilters(t *testing.T) {
	s, err := site.FromWiki("dewiki")
	require.NoError(t, err)

	x := NewXToolsPages(s, "Example")
	x.NamespaceID = 14
	x.Redirects = RedirectsOnly
	x.Deleted = DeletedLive
	x.StartDate = "2024-01-01"
	x.EndDate = "2024-02-01"

	spec, err := x.Request()
	require.NoError(t, err)
	assert.Equal(t,
		"https://xtools.wmcloud.org/pages/de.wikipedia.org/Example/14/onlyredirects/live/2024-01-01/2024-02-01?format=tsv",
		spec.URL)
}
