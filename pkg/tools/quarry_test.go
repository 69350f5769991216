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

func TestQuarry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query/82868/result/latest/0/json" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"headers": ["page_id", "page_title"],
			"rows": [[36936, "Biochemistry"], [24489, "Physics"]]
		}`))
	}))
	defer ts.Close()

	q := NewQuarry(82868)
	q.Endpoint = ts.URL
	require.NoError(t, Run(context.Background(), request.New(0), q))

	assert.Equal(t, []string{"page_id", "page_title"}, q.Columns)
	require.Len(t, q.Rows, 2)
	assert.Equal(t, "Biochemistry", q.Rows[0][1])

	assert.Equal(t, 1, q.Colnum("page_title"))
	assert.Equal(t, -1, q.Colnum("no_such_column"))
}

func TestQuarryMissingRows(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"headers": ["page_id"]}`))
	}))
	defer ts.Close()

	q := NewQuarry(1)
	q.Endpoint = ts.URL
	err := Run(context.Background(), request.New(0), q)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindDecode))
}
