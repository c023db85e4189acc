// Package registry is the read-only Docker Hub API client.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/whalemap/whalemap/internal/model"
)

// hubTimeFormats are tried in priority order. Docker Hub emits ISO 8601
// with microseconds: 2026-01-17T08:19:30.340959Z.
var hubTimeFormats = []string{
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02T15:04:05.999999-07:00",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseTime parses a Docker Hub timestamp. It never substitutes a default:
// an unrecognized format is an explicit error.
func ParseTime(dateStr string) (time.Time, error) {
	for _, format := range hubTimeFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("registry: unable to parse date %q", dateStr)
}

// Client talks to the Docker Hub v2 API.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// New returns a Client bound to baseURL (e.g. https://hub.docker.com/v2).
func New(baseURL string, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(30 * time.Second)
	return &Client{http: c, log: log}
}

// Login exchanges a personal access token for a short-lived JWT.
// A 401 is an authentication failure; the caller treats it as hard.
func (c *Client) Login(ctx context.Context, username, pat string) (string, error) {
	if pat == "" {
		return "", fmt.Errorf("registry: %w: access token required for login", model.ErrAuth)
	}
	var out loginResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&loginRequest{Username: username, Password: pat}).
		SetResult(&out).
		Post("/users/login")
	if err != nil {
		return "", fmt.Errorf("registry: login request: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		return "", fmt.Errorf("registry: %w: access token rejected", model.ErrAuth)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("registry: login returned status %d", resp.StatusCode())
	}
	if out.Token == "" {
		return "", fmt.Errorf("registry: login returned no token")
	}
	return out.Token, nil
}

// ValidateUser checks that a Docker Hub username exists.
func (c *Client) ValidateUser(ctx context.Context, username string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/users/%s", username))
	if err != nil {
		return fmt.Errorf("registry: user lookup: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("registry: %w: docker hub user %q", model.ErrNotFound, username)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("registry: user lookup returned status %d", resp.StatusCode())
	}
	return nil
}

// FetchRepositories lists repositories for a Docker Hub user.
// token is optional; when empty only public repositories are visible.
func (c *Client) FetchRepositories(ctx context.Context, username, token string) ([]Repository, error) {
	var page repositoryPage
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("page_size", "100").
		SetResult(&page)
	if token != "" {
		req.SetHeader("Authorization", "JWT "+token)
	}
	resp, err := req.Get(fmt.Sprintf("/repositories/%s/", username))
	if err != nil {
		return nil, fmt.Errorf("registry: fetch repositories: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode()).Str("username", username).
			Msg("repository listing failed")
		return nil, fmt.Errorf("registry: repository listing returned status %d", resp.StatusCode())
	}
	return page.Results, nil
}

// FetchTags lists tags for one repository.
func (c *Client) FetchTags(ctx context.Context, username, repo, token string) ([]Tag, error) {
	var page tagPage
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("page_size", "100").
		SetResult(&page)
	if token != "" {
		req.SetHeader("Authorization", "JWT "+token)
	}
	resp, err := req.Get(fmt.Sprintf("/repositories/%s/%s/tags", username, repo))
	if err != nil {
		return nil, fmt.Errorf("registry: fetch tags: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("registry: tag listing returned status %d", resp.StatusCode())
	}
	return page.Results, nil
}
