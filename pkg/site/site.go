// Package site resolves Wikimedia wiki database names into language and
// project components and back.
package site

import (
	"regexp"
	"strings"

	"wikitools/internal/errors"
)

var reWiki = regexp.MustCompile(`^(.+?)(wik.+)$`)

// Site identifies a single Wikimedia wiki.
type Site struct {
	Wiki     string
	Language string
	Project  string
}

// FromWiki resolves a free-form wiki name ("enwiki", "Commons-Wiki", ...)
// into a Site. Names are case-insensitive and hyphens count as underscores.
// Unrecognized names return a validation error.
func FromWiki(wiki string) (Site, error) {
	wiki = normalizeWiki(wiki)

	var language, project string
	switch wiki {
	case "commonswiki":
		language, project = "commons", "wikimedia"
	case "wikidatawiki":
		language, project = "www", "wikidata"
	case "specieswiki":
		language, project = "species", "wikimedia"
	case "metawiki":
		language, project = "meta", "wikimedia"
	default:
		cap := reWiki.FindStringSubmatch(wiki)
		if cap == nil {
			return Site{}, errors.NewValidation("no such wiki: " + wiki)
		}
		language, project = cap[1], cap[2]
		if project == "wiki" {
			project = "wikipedia"
		} else if strings.HasSuffix(project, "wiki") {
			project = project[:len(project)-4]
		}
	}

	return Site{Wiki: wiki, Language: language, Project: project}, nil
}

// FromLanguageProject constructs a Site from its components.
func FromLanguageProject(language, project string) Site {
	var wiki string
	switch project {
	case "wikidata":
		wiki = "wikidatawiki"
	case "wikipedia", "wikimedia":
		wiki = language + "wiki"
	default:
		wiki = language + project + "wiki"
	}
	return Site{Wiki: wiki, Language: language, Project: project}
}

func normalizeWiki(wiki string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(wiki, "-", "_")))
}

// Webserver returns the hostname for the site, e.g. "en.wikipedia.org".
func (s Site) Webserver() string {
	return strings.ReplaceAll(s.Language, "_", "-") + "." + s.Project + ".org"
}

// LanguageProject returns "language.project" with hyphens in the language,
// the identifier format the pageviews API expects.
func (s Site) LanguageProject() string {
	return strings.ReplaceAll(s.Language, "_", "-") + "." + s.Project
}

// APIURL returns the MediaWiki api.php endpoint for the site.
func (s Site) APIURL() string {
	return "https://" + s.Webserver() + "/w/api.php"
}
