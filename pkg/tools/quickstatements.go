package tools

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"wikitools/internal/errors"
	"wikitools/pkg/request"
)

const quickStatementsEndpoint = "https://quickstatements.toolforge.org/api.php"

// QuickStatements starts a server-side QuickStatements batch. It needs
// a username and a token from the QuickStatements user page, and the
// user must have run at least one server-side batch manually so their
// OAuth details are on file.
type QuickStatements struct {
	Username  string
	Token     string
	BatchName string
	Site      string
	Compress  bool
	Endpoint  string // Optional override for testing

	commands []string
	BatchID  *uint64
}

// NewQuickStatements creates a batch for the given credentials,
// targeting Wikidata with compression on.
func NewQuickStatements(username, token string) *QuickStatements {
	return &QuickStatements{
		Username: username,
		Token:    token,
		Site:     "wikidata",
		Compress: true,
	}
}

// WithBatchName gives the batch a name. Optional.
func (qs *QuickStatements) WithBatchName(name string) *QuickStatements {
	qs.BatchName = name
	return qs
}

// NoCompression deactivates command compression, in case complex
// CREATE commands misbehave.
func (qs *QuickStatements) NoCompression() *QuickStatements {
	qs.Compress = false
	return qs
}

// AddCommand appends a tab-separated V1 command to the batch.
func (qs *QuickStatements) AddCommand(command string) {
	qs.commands = append(qs.commands, command)
}

// Name implements Tool.
func (qs *QuickStatements) Name() string { return "quickstatements" }

// Request implements Tool.
func (qs *QuickStatements) Request() (request.Spec, error) {
	endpoint := qs.Endpoint
	if endpoint == "" {
		endpoint = quickStatementsEndpoint
	}

	form := url.Values{}
	form.Set("action", "import")
	form.Set("submit", "1")
	form.Set("format", "v1")
	form.Set("token", qs.Token)
	form.Set("username", qs.Username)
	form.Set("batchname", qs.BatchName)
	form.Set("data", strings.Join(qs.commands, "\n"))
	form.Set("compress", boolParam(qs.Compress))
	form.Set("site", qs.Site)

	return request.Spec{
		Method:      http.MethodPost,
		URL:         endpoint,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}, nil
}

// ParseResponse implements Tool.
func (qs *QuickStatements) ParseResponse(body []byte) error {
	var result struct {
		Status  *string `json:"status"`
		BatchID *uint64 `json:"batch_id"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return errors.NewDecode("failed to decode quickstatements json", err)
	}
	if result.Status == nil {
		return errors.NewDecode("quickstatements response has no status", nil)
	}
	if *result.Status != "OK" {
		return errors.NewTool(fmt.Sprintf("quickstatements status is not OK: %q", *result.Status))
	}
	qs.BatchID = result.BatchID
	return nil
}
