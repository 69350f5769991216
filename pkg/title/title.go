// Package title models MediaWiki page titles and their namespace
// prefixes.
package title

import (
	"fmt"
	"strings"
)

// Title is a page title within one wiki. Name uses spaces, never
// underscores.
type Title struct {
	Name        string
	NamespaceID int
}

// New creates a Title, normalizing underscores to spaces.
func New(name string, namespaceID int) Title {
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	return Title{Name: name, NamespaceID: namespaceID}
}

// Underscored returns the title with spaces replaced by underscores.
func (t Title) Underscored() string {
	return strings.ReplaceAll(t.Name, " ", "_")
}

// Key is the canonical page identity within one wiki.
func (t Title) Key() string {
	return fmt.Sprintf("%d:%s", t.NamespaceID, t.Underscored())
}

// Formatter renders and parses namespace-prefixed titles for one wiki.
type Formatter interface {
	// Prefixed returns the title with its namespace prefix, e.g.
	// "Category:Biology".
	Prefixed(t Title) string
	// Parse splits a prefixed title back into namespace and name. An
	// unknown prefix is treated as part of a main-namespace title.
	Parse(prefixed string) Title
}
