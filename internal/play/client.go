package play

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quire/internal/logging"
	"quire/internal/manifest"
)

// ErrUnexpectedStatus tags responses outside the 2xx range.
var ErrUnexpectedStatus = errors.New("unexpected status")

// HTTPDoer describes the HTTP client used by the Play client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Token authorizes downloads for one work for a limited time.
type Token struct {
	// URL is the per-work content base; variant names and ziptree.json are
	// resolved against it.
	URL string
	// ExpiresAt is the token expiry reported by the API.
	ExpiresAt time.Time

	params url.Values
}

// Params returns the signed query parameters that must accompany every
// request under the token's URL.
func (t Token) Params() url.Values {
	cp := make(url.Values, len(t.params))
	for k, v := range t.params {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}

// Client is a DLsite Play API session.
type Client struct {
	baseURL string
	http    HTTPDoer
	logger  *slog.Logger
}

// NewClient constructs a Play client. The HTTP client must carry an
// authenticated DLsite session cookie jar.
func NewClient(baseURL string, doer HTTPDoer, logger *slog.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    doer,
		logger:  logging.NewComponentLogger(logger, "play"),
	}
}

// Authorize primes the Play session for the account's purchased works. It
// must be called once per session before requesting download tokens.
func (c *Client) Authorize(ctx context.Context) error {
	if err := c.getDiscard(ctx, c.baseURL+"/login/", nil); err != nil {
		return fmt.Errorf("play login: %w", err)
	}
	headers := http.Header{"Referer": []string{c.baseURL + "/"}}
	if err := c.getDiscard(ctx, c.baseURL+"/api/authorize", headers); err != nil {
		return fmt.Errorf("play authorize: %w", err)
	}
	c.logger.Debug("play session authorized")
	return nil
}

type tokenResponse struct {
	URL     string            `json:"url"`
	Cookies map[string]string `json:"cookies"`
	Expires string            `json:"expires"`
}

// DownloadToken requests a download token for the given workno.
func (c *Client) DownloadToken(ctx context.Context, workno string) (Token, error) {
	endpoint := c.baseURL + "/api/download_token?" + url.Values{"workno": {workno}}.Encode()
	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return Token{}, fmt.Errorf("download token for %s: %w", workno, err)
	}
	defer body.Close()

	var raw tokenResponse
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return Token{}, fmt.Errorf("decode download token for %s: %w", workno, err)
	}
	if raw.URL == "" {
		return Token{}, fmt.Errorf("download token for %s has no url", workno)
	}
	expires, err := parseTimestamp(raw.Expires)
	if err != nil {
		return Token{}, fmt.Errorf("download token for %s: expires %q: %w", workno, raw.Expires, err)
	}

	params := make(url.Values, len(raw.Cookies))
	for key, value := range raw.Cookies {
		params.Set(strings.TrimPrefix(key, "CloudFront-"), value)
	}
	c.logger.Debug("obtained download token",
		logging.String(logging.FieldWorkno, workno),
		logging.String("expires", expires.Format(time.RFC3339)))
	return Token{URL: raw.URL, ExpiresAt: expires, params: params}, nil
}

// ZipTree fetches and parses the work manifest under the token.
func (c *Client) ZipTree(ctx context.Context, token Token) (*manifest.Tree, error) {
	body, err := c.get(ctx, signedURL(token, "ziptree.json"), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch ziptree: %w", err)
	}
	defer body.Close()

	payload, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read ziptree: %w", err)
	}
	tree, err := manifest.Parse(payload)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("parsed ziptree",
		logging.String(logging.FieldWorkno, tree.Workno),
		logging.Int("assets", tree.Len()))
	return tree, nil
}

// FetchFile streams the raw bytes of one encoded variant. The caller owns
// the returned body. No retries happen here; reconstruction is pure, so
// callers may re-invoke freely.
func (c *Client) FetchFile(ctx context.Context, token Token, encodedName string) (io.ReadCloser, error) {
	body, err := c.get(ctx, signedURL(token, encodedName), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", encodedName, err)
	}
	return body, nil
}

func signedURL(token Token, name string) string {
	base := strings.TrimRight(token.URL, "/") + "/" + name
	if params := token.Params(); len(params) > 0 {
		return base + "?" + params.Encode()
	}
	return base
}

func (c *Client) get(ctx context.Context, rawURL string, headers http.Header) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode, req.URL.Path)
	}
	return resp.Body, nil
}

func (c *Client) getDiscard(ctx context.Context, rawURL string, headers http.Header) error {
	body, err := c.get(ctx, rawURL, headers)
	if err != nil {
		return err
	}
	defer body.Close()
	_, err = io.Copy(io.Discard, body)
	return err
}

func parseTimestamp(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-0700",
		"2006-01-02T15:04:05.999999-0700",
	}
	var lastErr error
	for _, layout := range layouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
