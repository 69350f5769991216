package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikitools/internal/errors"
)

func TestDoGet(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected method GET, got %s", r.Method)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "wikitools/") {
			t.Errorf("Unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("Expected format=json, got %s", r.URL.Query().Get("format"))
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	c := New(0)
	q := url.Values{}
	q.Set("format", "json")
	body, err := c.Do(context.Background(), Spec{URL: ts.URL, Query: q})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestDoPost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected method POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`ok`))
	}))
	defer ts.Close()

	c := New(0)
	_, err := c.Do(context.Background(), Spec{
		Method:      "POST",
		URL:         ts.URL,
		Body:        []byte(`["a","b"]`),
		ContentType: "application/json",
	})
	require.NoError(t, err)
}

func TestDoStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer ts.Close()

	c := New(0)
	_, err := c.Do(context.Background(), Spec{URL: ts.URL})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTransport))
}

func TestDoRetryOn429(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`done`))
	}))
	defer ts.Close()

	c := New(0)
	body, err := c.Do(context.Background(), Spec{URL: ts.URL, RetryOn429: true})
	require.NoError(t, err)
	assert.Equal(t, "done", string(body))
	assert.Equal(t, 3, calls)
}

func TestDo429WithoutRetryFlag(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := New(0)
	_, err := c.Do(context.Background(), Spec{URL: ts.URL})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindTransport))
}

func TestDoRetryCancellation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	c := New(0)
	_, err := c.Do(ctx, Spec{URL: ts.URL, RetryOn429: true})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryAfterDefault(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, defaultRetryAfter, retryAfter(resp))

	resp.Header.Set("Retry-After", "12")
	assert.Equal(t, 12*time.Second, retryAfter(resp))

	resp.Header.Set("Retry-After", "0")
	assert.Equal(t, time.Duration(0), retryAfter(resp))

	resp.Header.Set("Retry-After", "soon")
	assert.Equal(t, defaultRetryAfter, retryAfter(resp))
}
