// Package request provides the shared HTTP client used by every tool
// wrapper. One request, one response; the only retry loop is the 429
// backoff some REST endpoints require.
package request

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"wikitools/internal/errors"
	"wikitools/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("wikitools/%s (https://github.com/wikitools/wikitools)", version.Version)

// defaultRetryAfter is used when a 429 response carries no Retry-After header.
const defaultRetryAfter = 5 * time.Second

// Spec describes a single outbound request.
type Spec struct {
	Method      string // GET or POST, GET if empty
	URL         string
	Query       url.Values // appended to the URL
	Body        []byte
	ContentType string
	Accept      string
	// RetryOn429 re-issues the identical request after a 429 response,
	// sleeping for the server's Retry-After, indefinitely. Rate-limit
	// backoff, not failure retry.
	RetryOn429 bool
}

// Client wraps http.Client with the fixed timeout and User-Agent policy
// shared by all tools.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// New creates a Client with the given total request timeout.
// A zero timeout falls back to 60 seconds.
func New(timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}
}

// SetUserAgent overrides the default User-Agent header.
func (c *Client) SetUserAgent(ua string) {
	if ua != "" {
		c.userAgent = ua
	}
}

// Do executes the request described by spec and returns the response body.
// A status >= 400 is a transport error. The context governs cancellation
// across 429 backoff sleeps.
func (c *Client) Do(ctx context.Context, spec Spec) ([]byte, error) {
	u := spec.URL
	if len(spec.Query) > 0 {
		parsed, err := url.Parse(spec.URL)
		if err != nil {
			return nil, errors.NewValidation("invalid url: " + spec.URL)
		}
		q := parsed.Query()
		for key, vals := range spec.Query {
			for _, v := range vals {
				q.Add(key, v)
			}
		}
		parsed.RawQuery = q.Encode()
		u = parsed.String()
	}

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}

	for {
		req, err := c.newRequest(ctx, method, u, spec)
		if err != nil {
			return nil, err
		}

		slog.Debug("Network Request", "method", method, "host", req.URL.Host, "path", req.URL.Path)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.NewTransport("request failed", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && spec.RetryOn429 {
			wait := retryAfter(resp)
			resp.Body.Close()
			slog.Warn("Rate limited, backing off", "url", req.URL, "wait", wait)
			select {
			case <-time.After(wait):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 400 {
			// The body may still carry a structured error payload.
			return body, errors.NewTransport(fmt.Sprintf("api error: status %d", resp.StatusCode), nil)
		}
		if err != nil {
			return nil, errors.NewTransport("read error", err)
		}
		return body, nil
	}
}

func (c *Client) newRequest(ctx context.Context, method, u string, spec Spec) (*http.Request, error) {
	var body io.Reader = http.NoBody
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.NewValidation("failed to create request: " + err.Error())
	}
	req.Header.Set("User-Agent", c.userAgent)
	if spec.ContentType != "" {
		req.Header.Set("Content-Type", spec.ContentType)
	}
	if spec.Accept != "" {
		req.Header.Set("Accept", spec.Accept)
	}
	return req, nil
}

// retryAfter reads the Retry-After header, in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}
