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

func TestGrep(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lang") != "en" || q.Get("project") != "wikipedia" {
			t.Errorf("Unexpected lang/project %s/%s", q.Get("lang"), q.Get("project"))
		}
		if q.Get("pattern") != "^Mag.*ske$" {
			t.Errorf("Unexpected pattern %s", q.Get("pattern"))
		}
		if q.Get("redirects") != "on" {
			t.Errorf("Expected redirects=on, got %s", q.Get("redirects"))
		}
		if q.Has("limit") {
			t.Error("Did not expect limit parameter")
		}
		w.Write([]byte(`<html><body><ol>
			<li><a href="https://en.wikipedia.org/wiki/Magnus_Manske">Magnus Manske</a></li>
			<li><a href="https://en.wikipedia.org/wiki/Magdeburgske">Magdeburgske</a></li>
		</ol></body></html>`))
	}))
	defer ts.Close()

	s, err := site.FromWiki("enwiki")
	require.NoError(t, err)

	g := NewGrep(s, "^Mag.*ske$").WithRedirects()
	g.Endpoint = ts.URL
	require.NoError(t, Run(context.Background(), request.New(0), g))

	assert.Equal(t, []string{"Magnus Manske", "Magdeburgske"}, g.Results)

	pl := g.PageList()
	require.Len(t, pl.Pages, 2)
	assert.Equal(t, "Magnus Manske", pl.Pages[0].Title.Name)
	assert.Equal(t, 0, pl.Pages[0].Title.NamespaceID)
}

func TestGrepParseAttributedAnchors(t *testing.T) {
	g := &Grep{}
	err := g.ParseResponse([]byte(`<html><body>
		<a href="/logout">not a hit</a>
		<ol>
			<li><a href="/wiki/Plain">Plain</a></li>
			<li><a href="/wiki/Styled" class="mw-redirect" title="Styled">Styled</a></li>
			<li>no anchor here</li>
		</ol></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Plain", "Styled"}, g.Results)
}
