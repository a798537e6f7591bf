package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prismeai/prisme-cli/internal/buildinfo"
)

// Client talks to the platform's REST API. Calls are never retried: a
// failure is returned to the caller as is.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  *slog.Logger
}

func (c Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (c Client) baseEndpointFor(path string) (string, error) {
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", fmt.Errorf("missing api base url")
	}
	u, err := url.Parse(strings.TrimRight(c.BaseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	// path is already escaped segment by segment.
	p := strings.TrimPrefix(strings.TrimSpace(path), "/")
	raw := strings.TrimRight(u.EscapedPath(), "/") + "/" + p
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	u.Path, u.RawPath = unescaped, raw
	return u.String(), nil
}

// do sends one request and returns the raw response body.
func (c Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, int, http.Header, error) {
	endpoint, err := c.baseEndpointFor(path)
	if err != nil {
		return nil, 0, nil, err
	}
	if len(query) > 0 {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, 0, nil, err
		}
		u.RawQuery = query.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, 0, nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if strings.TrimSpace(c.Token) != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, nil, err
	}
	defer resp.Body.Close()
	c.logger().Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, resp.Header, err
	}
	return b, resp.StatusCode, resp.Header, nil
}

func encodeBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	return &buf, nil
}

// DoRootREST sends a JSON request and decodes the JSON response. Non-JSON
// bodies (HTML error pages and the like) come back as a raw string so
// callers can wrap them. The status is returned without interpretation.
func (c Client) DoRootREST(ctx context.Context, method string, path string, query url.Values, body any) (any, int, error) {
	r, err := encodeBody(body)
	if err != nil {
		return nil, 0, err
	}
	b, status, _, err := c.do(ctx, method, path, query, r, "application/json")
	if err != nil {
		return nil, status, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return string(b), status, nil
	}
	return out, status, nil
}

// call is the typed variant of DoRootREST: non-2xx statuses become *Error
// and successful bodies are decoded into out (when non-nil).
func (c Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	r, err := encodeBody(body)
	if err != nil {
		return err
	}
	b, status, _, err := c.do(ctx, method, path, query, r, "application/json")
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if status < 200 || status >= 300 {
		return newError(status, b)
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func seg(s string) string { return url.PathEscape(s) }
