package title

import "strings"

// canonicalNames are the English namespace names every MediaWiki
// installation understands.
var canonicalNames = map[int]string{
	-2: "Media",
	-1: "Special",
	0:  "",
	1:  "Talk",
	2:  "User",
	3:  "User talk",
	4:  "Project",
	5:  "Project talk",
	6:  "File",
	7:  "File talk",
	8:  "MediaWiki",
	9:  "MediaWiki talk",
	10: "Template",
	11: "Template talk",
	12: "Help",
	13: "Help talk",
	14: "Category",
	15: "Category talk",
}

// CanonicalFormatter formats titles with the canonical English
// namespace names. It is the fallback when a wiki's own names cannot
// be fetched.
type CanonicalFormatter struct{}

// Prefixed implements Formatter.
func (CanonicalFormatter) Prefixed(t Title) string {
	return prefixed(canonicalNames, t)
}

// Parse implements Formatter.
func (CanonicalFormatter) Parse(s string) Title {
	return parse(canonicalNames, s)
}

func prefixed(names map[int]string, t Title) string {
	name, ok := names[t.NamespaceID]
	if !ok || name == "" {
		return t.Name
	}
	return name + ":" + t.Name
}

func parse(names map[int]string, s string) Title {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	prefix, rest, found := strings.Cut(s, ":")
	if found {
		for id, name := range names {
			if name != "" && strings.EqualFold(name, strings.TrimSpace(prefix)) {
				return New(rest, id)
			}
		}
	}
	return New(s, 0)
}
