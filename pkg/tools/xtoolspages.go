package tools

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"wikitools/pkg/pagelist"
	"wikitools/pkg/request"
	"wikitools/pkg/site"
	"wikitools/pkg/title"
)

const xtoolsEndpoint = "https://xtools.wmcloud.org"

// xtoolsTimeLayout is the timestamp format in the TSV output.
const xtoolsTimeLayout = "2006-01-02 15:04"

// Redirect filter values for XToolsPages.
type Redirects string

const (
	RedirectsNone Redirects = "noredirects"
	RedirectsAll  Redirects = "all"
	RedirectsOnly Redirects = "onlyredirects"
)

// Deleted-page filter values for XToolsPages.
type DeletedPages string

const (
	DeletedAll  DeletedPages = "all"
	DeletedLive DeletedPages = "live"
	DeletedOnly DeletedPages = "deleted"
)

// XToolsPagesResult is one page created by the queried user.
type XToolsPagesResult struct {
	Title        string
	NamespaceID  int
	Date         time.Time
	OriginalSize uint32
	CurrentSize  uint32
	Assessment   string
}

// XToolsPages lists the pages a user created on a wiki, as TSV from
// the XTools pages endpoint.
type XToolsPages struct {
	Site        site.Site
	User        string
	NamespaceID uint32
	Redirects   Redirects
	Deleted     DeletedPages
	StartDate   string // YYYY-MM-DD, zero date if empty
	EndDate     string
	Endpoint    string // Optional override for testing

	Results []XToolsPagesResult
}

// NewXToolsPages creates a pages query for the given wiki and user.
func NewXToolsPages(s site.Site, user string) *XToolsPages {
	return &XToolsPages{
		Site:      s,
		User:      user,
		Redirects: RedirectsAll,
		Deleted:   DeletedAll,
	}
}

// Name implements Tool.
func (x *XToolsPages) Name() string { return "xtools_pages" }

// Request implements Tool.
func (x *XToolsPages) Request() (request.Spec, error) {
	endpoint := x.Endpoint
	if endpoint == "" {
		endpoint = xtoolsEndpoint
	}

	// The service treats the epoch date as "no bound".
	start := x.StartDate
	if start == "" {
		start = "1970-01-01"
	}
	end := x.EndDate
	if end == "" {
		end = "1970-01-01"
	}

	u := fmt.Sprintf("%s/pages/%s/%s/%d/%s/%s/%s/%s?format=tsv",
		endpoint, x.Site.Webserver(), x.User, x.NamespaceID,
		x.Redirects, x.Deleted, start, end)
	return request.Spec{URL: u}, nil
}

// ParseResponse implements Tool. The first line is the header; rows
// that do not have exactly six well-formed columns are skipped.
func (x *XToolsPages) ParseResponse(body []byte) error {
	lines := strings.Split(string(body), "\n")
	x.Results = x.Results[:0]
	for i, line := range lines {
		if i == 0 {
			continue
		}
		if r, ok := parseXToolsRow(line); ok {
			x.Results = append(x.Results, r)
		}
	}
	return nil
}

func parseXToolsRow(line string) (XToolsPagesResult, bool) {
	cols := strings.Split(line, "\t")
	if len(cols) != 6 {
		return XToolsPagesResult{}, false
	}
	ns, err := strconv.Atoi(cols[0])
	if err != nil {
		return XToolsPagesResult{}, false
	}
	date, err := time.Parse(xtoolsTimeLayout, cols[2])
	if err != nil {
		return XToolsPagesResult{}, false
	}
	origSize, err := strconv.ParseUint(cols[3], 10, 32)
	if err != nil {
		return XToolsPagesResult{}, false
	}
	curSize, err := strconv.ParseUint(cols[4], 10, 32)
	if err != nil {
		return XToolsPagesResult{}, false
	}
	return XToolsPagesResult{
		Title:        cols[1],
		NamespaceID:  ns,
		Date:         date,
		OriginalSize: uint32(origSize),
		CurrentSize:  uint32(curSize),
		Assessment:   cols[5],
	}, true
}

// PageList converts the result rows into a page list on the query's
// wiki.
func (x *XToolsPages) PageList() *pagelist.PageList {
	pl := &pagelist.PageList{Site: x.Site}
	for _, r := range x.Results {
		pl.Pages = append(pl.Pages, pagelist.Page{
			Title: title.New(r.Title, r.NamespaceID),
			Meta: map[string]any{
				"date":          r.Date.Format(xtoolsTimeLayout),
				"original_size": r.OriginalSize,
				"current_size":  r.CurrentSize,
				"assessment":    r.Assessment,
			},
		})
	}
	return pl
}
