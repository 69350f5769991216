package tools

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
)

const persondataEndpoint = "https://persondata.toolforge.org/vorlagen/index.php"

// Comparison operators for the occurrence filter.
type PersondataOccOp string

const (
	OccEqual   PersondataOccOp = "eq"
	OccLarger  PersondataOccOp = "gt"
	OccSmaller PersondataOccOp = "lt"
)

// Comparison operators for the parameter name filter.
type PersondataParamNameOp string

const (
	ParamNameEqual     PersondataParamNameOp = "eq"
	ParamNameUnequal   PersondataParamNameOp = "ne"
	ParamNameMissing   PersondataParamNameOp = "miss"
	ParamNameLike      PersondataParamNameOp = "lk"
	ParamNameNotLike   PersondataParamNameOp = "nl"
	ParamNameRegexp    PersondataParamNameOp = "rx"
	ParamNameNotRegexp PersondataParamNameOp = "nr"
)

// Comparison operators for the parameter value filter.
type PersondataParamValueOp string

const (
	ParamValueEqual     PersondataParamValueOp = "eq"
	ParamValueContains  PersondataParamValueOp = "hs"
	ParamValueLike      PersondataParamValueOp = "lk"
	ParamValueNotLike   PersondataParamValueOp = "nl"
	ParamValueRegexp    PersondataParamValueOp = "rx"
	ParamValueNotRegexp PersondataParamValueOp = "nr"
)

// PersondataTemplatesResult is one template transclusion. Params maps
// positional parameter numbers to their values.
type PersondataTemplatesResult struct {
	Article     string
	UsageNumber uint32
	Params      map[uint32]string
}

// PersondataTemplates queries template usage on German Wikipedia. The
// tool exports semicolon-separated CSV.
type PersondataTemplates struct {
	Template      string
	WithRedirects bool
	Occurrence    *uint32
	OccurrenceOp  PersondataOccOp
	ParamName     string
	ParamNameOp   PersondataParamNameOp
	ParamValue    string
	ParamValueOp  PersondataParamValueOp
	InTable       bool
	InTemplate    bool
	InReference   bool
	InWikilink    bool
	InArticle     bool
	InComments    bool
	CaseSensitive bool
	Endpoint      string // Optional override for testing

	Results []PersondataTemplatesResult
}

// NewPersondataTemplates creates a usage query for the given template,
// including its redirects.
func NewPersondataTemplates(template string) *PersondataTemplates {
	return &PersondataTemplates{
		Template:      template,
		WithRedirects: true,
		OccurrenceOp:  OccEqual,
		ParamNameOp:   ParamNameEqual,
		ParamValueOp:  ParamValueEqual,
	}
}

// WithOccurrence restricts the query to the nth transclusion, compared
// with the given operator.
func (p *PersondataTemplates) WithOccurrence(occ uint32, op PersondataOccOp) *PersondataTemplates {
	p.Occurrence = &occ
	p.OccurrenceOp = op
	return p
}

// WithParamName filters by parameter name. Several names can be given
// separated by pipes for the equal, unequal and like operators.
func (p *PersondataTemplates) WithParamName(name string, op PersondataParamNameOp) *PersondataTemplates {
	p.ParamName = name
	p.ParamNameOp = op
	return p
}

// WithParamValue filters by parameter value.
func (p *PersondataTemplates) WithParamValue(value string, op PersondataParamValueOp) *PersondataTemplates {
	p.ParamValue = value
	p.ParamValueOp = op
	return p
}

// Name implements Tool.
func (p *PersondataTemplates) Name() string { return "persondata_templates" }

// Request implements Tool. The tool expects bare flag parameters
// without values, so the URL is assembled by hand.
func (p *PersondataTemplates) Request() (request.Spec, error) {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = persondataEndpoint
	}

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteString("?export=1&tzoffset=0&show_occ&show_param&show_value")

	if p.Template != "" {
		fmt.Fprintf(&b, "&tmpl=%s", url.QueryEscape(p.Template))
		if p.WithRedirects {
			b.WriteString("&with_wl")
		}
	}
	if p.Occurrence != nil {
		fmt.Fprintf(&b, "&occ=%d", *p.Occurrence)
		if p.OccurrenceOp != OccEqual {
			fmt.Fprintf(&b, "&occ_op=%s", p.OccurrenceOp)
		}
	}
	if p.ParamName != "" {
		fmt.Fprintf(&b, "&param=%s", url.QueryEscape(p.ParamName))
		if p.ParamNameOp != ParamNameEqual {
			fmt.Fprintf(&b, "&param_name_op=%s", p.ParamNameOp)
		}
	}
	if p.ParamValue != "" {
		fmt.Fprintf(&b, "&value=%s", url.QueryEscape(p.ParamValue))
		if p.ParamValueOp != ParamValueEqual {
			fmt.Fprintf(&b, "&param_value_op=%s", p.ParamValueOp)
		}
	}
	for _, flag := range []struct {
		set  bool
		name string
	}{
		{p.InTable, "in_t"},
		{p.InTemplate, "in_v"},
		{p.InReference, "in_r"},
		{p.InWikilink, "in_l"},
		{p.InArticle, "in_a"},
		{p.InComments, "in_c"},
		{p.CaseSensitive, "case"},
	} {
		if flag.set {
			b.WriteString("&" + flag.name)
		}
	}

	return request.Spec{URL: b.String()}, nil
}

// ParseResponse implements Tool. The header row names the columns;
// numeric column names are positional template parameters. Unreadable
// rows are skipped.
func (p *PersondataTemplates) ParseResponse(body []byte) error {
	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return errors.NewDecode("failed to read persondata csv header", err)
	}

	p.Results = p.Results[:0]
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		result := PersondataTemplatesResult{Params: map[uint32]string{}}
		for i, value := range record {
			if i >= len(header) {
				break
			}
			switch col := header[i]; col {
			case "Artikel":
				result.Article = value
			case "Einbindung":
				n, err := strconv.ParseUint(value, 10, 32)
				if err == nil {
					result.UsageNumber = uint32(n)
				}
			default:
				if key, err := strconv.ParseUint(col, 10, 32); err == nil {
					result.Params[uint32(key)] = value
				}
			}
		}
		p.Results = append(p.Results, result)
	}
	return nil
}
