package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikitools/internal/errors"
)

func TestFromWiki(t *testing.T) {
	tests := []struct {
		wiki     string
		language string
		project  string
	}{
		{"enwiki", "en", "wikipedia"},
		{"enwiktionarywiki", "en", "wiktionary"},
		{"dewiktionarywiki", "de", "wiktionary"},
		{"commonswiki", "commons", "wikimedia"},
		{"wikidatawiki", "www", "wikidata"},
		{"specieswiki", "species", "wikimedia"},
		{"metawiki", "meta", "wikimedia"},
	}

	for _, tt := range tests {
		t.Run(tt.wiki, func(t *testing.T) {
			s, err := FromWiki(tt.wiki)
			require.NoError(t, err)
			assert.Equal(t, tt.wiki, s.Wiki)
			assert.Equal(t, tt.language, s.Language)
			assert.Equal(t, tt.project, s.Project)
		})
	}
}

func TestFromWikiNormalization(t *testing.T) {
	s, err := FromWiki("  EN-Wiki ")
	require.NoError(t, err)
	assert.Equal(t, "en_wiki", s.Wiki)
	assert.Equal(t, "en_", s.Language)
	assert.Equal(t, "wikipedia", s.Project)
}

func TestFromWikiUnrecognized(t *testing.T) {
	_, err := FromWiki("nosuchthing")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestFromLanguageProject(t *testing.T) {
	tests := []struct {
		language string
		project  string
		wiki     string
	}{
		{"en", "wikipedia", "enwiki"},
		{"en", "wiktionary", "enwiktionarywiki"},
		{"commons", "wikimedia", "commonswiki"},
		{"www", "wikidata", "wikidatawiki"},
		{"species", "wikimedia", "specieswiki"},
		{"meta", "wikimedia", "metawiki"},
	}

	for _, tt := range tests {
		t.Run(tt.wiki, func(t *testing.T) {
			s := FromLanguageProject(tt.language, tt.project)
			assert.Equal(t, tt.wiki, s.Wiki)
			assert.Equal(t, tt.language, s.Language)
			assert.Equal(t, tt.project, s.Project)
		})
	}
}

// Wiki name -> (language, project) -> wiki name must be the identity for
// every special-cased name and for regularly patterned names.
func TestRoundTrip(t *testing.T) {
	wikis := []string{
		"enwiki", "dewiki", "frwiki",
		"enwiktionarywiki", "dewiktionarywiki",
		"commonswiki", "wikidatawiki", "specieswiki", "metawiki",
	}

	for _, wiki := range wikis {
		t.Run(wiki, func(t *testing.T) {
			s, err := FromWiki(wiki)
			require.NoError(t, err)
			back := FromLanguageProject(s.Language, s.Project)
			assert.Equal(t, wiki, back.Wiki)
		})
	}
}

func TestWebserver(t *testing.T) {
	tests := []struct {
		wiki   string
		server string
	}{
		{"enwiki", "en.wikipedia.org"},
		{"dewiktionarywiki", "de.wiktionary.org"},
		{"commonswiki", "commons.wikimedia.org"},
		{"wikidatawiki", "www.wikidata.org"},
		{"zh_yuewiki", "zh-yue.wikipedia.org"},
	}

	for _, tt := range tests {
		t.Run(tt.wiki, func(t *testing.T) {
			s, err := FromWiki(tt.wiki)
			require.NoError(t, err)
			assert.Equal(t, tt.server, s.Webserver())
			assert.Equal(t, "https://"+tt.server+"/w/api.php", s.APIURL())
		})
	}
}

func TestLanguageProject(t *testing.T) {
	s, err := FromWiki("zh_yuewiki")
	require.NoError(t, err)
	assert.Equal(t, "zh-yue.wikipedia", s.LanguageProject())
}
