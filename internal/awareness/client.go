package awareness

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/oit-infosec/awareness-compliance/internal"
	"github.com/oit-infosec/awareness-compliance/pkg/logger"
)

const defaultPerPage = 500

// TokenProvider supplies the reporting API bearer token. Injecting it
// keeps credential reads out of the client and lets tests substitute a
// fixed value.
type TokenProvider interface {
	Token() (string, error)
}

// StaticToken is a token already in hand, e.g. from config.
type StaticToken string

func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", errors.New("empty api token")
	}
	return string(t), nil
}

// TokenFile reads the token from the first line of a credentials file
// that is kept out of version control.
type TokenFile string

func (t TokenFile) Token() (string, error) {
	f, err := os.Open(string(t))
	if err != nil {
		return "", fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		return "", fmt.Errorf("token file %s is empty", string(t))
	}
	token := strings.TrimSpace(scanner.Text())
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", string(t))
	}
	return token, nil
}

// Client is a read-only client for the awareness platform's reporting
// API. It follows page-number pagination and maps the API's terminal
// failure modes onto the run's error taxonomy. There is no retry or
// backoff here; the platform rate-limits aggressively and operators
// schedule runs accordingly.
type Client struct {
	baseURL        string
	tokens         TokenProvider
	perPage        int
	requestTimeout time.Duration
	httpClient     *http.Client
	logger         *slog.Logger
}

func NewClient(cfg internal.PlatformConfig, tokens TokenProvider, logger *slog.Logger) *Client {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		tokens:         tokens,
		perPage:        perPage,
		requestTimeout: cfg.RequestTimeout,
		httpClient:     &http.Client{},
		logger:         logger,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("resolve api token: %w", err)
	}

	apiURL := c.baseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	reqCtx, cancel := internal.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return internal.ErrTokenRejected
	case resp.StatusCode == http.StatusNotFound:
		return internal.ErrAPIPathNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return internal.NewUpstreamError(
			fmt.Sprintf("reporting API returned status %d for %s", resp.StatusCode, path),
			resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &internal.AppError{
			Type:    internal.ErrorTypeUpstream,
			Code:    internal.ErrCodeUpstreamDecode,
			Message: fmt.Sprintf("failed to decode response for %s", path),
			Cause:   err,
		}
	}

	return nil
}

// fetchAllPages follows page-number pagination until the API returns an
// empty page. A page that comes back exactly full still triggers one more
// request; only an empty collection ends the walk, so the result is the
// complete unfiltered set in API order.
func fetchAllPages[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T

	page := 1
	for {
		q := url.Values{}
		for key, vals := range query {
			q[key] = vals
		}
		q.Set("per_page", strconv.Itoa(c.perPage))
		q.Set("page", strconv.Itoa(page))

		var batch []T
		if err := c.get(ctx, path, q, &batch); err != nil {
			return nil, err
		}

		logger.Or(ctx, c.logger).Info("fetched page from reporting API",
			"path", path,
			"page", page,
			"records", len(batch))

		if len(batch) == 0 {
			return all, nil
		}

		all = append(all, batch...)
		page++
	}
}
