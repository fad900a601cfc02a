// Package github reads repository contents and language statistics
// from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/replit/scaninit/internal/api"
)

// DefaultAPIURL is the API of GitHub.com.
const DefaultAPIURL = "https://api.github.com"

// Client implements api.ContentFetcher and api.LanguageStats.
type Client struct {
	apiURL string
	token  string
}

// New returns a client for the API at apiURL, authenticating with
// token when it is not empty.
func New(details api.APIDetails) *Client {
	apiURL := details.APIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{apiURL: strings.TrimSuffix(apiURL, "/"), token: details.Auth}
}

func (c *Client) get(ctx context.Context, endpoint string, v interface{}) error {
	resp, err := api.HttpClient.GetWithToken(ctx, c.apiURL+endpoint, c.token)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", endpoint, resp.Status)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	return nil
}

// GetContent fetches a file through the contents API. A directory
// comes back as a JSON array.
func (c *Client) GetContent(ctx context.Context, owner, repo, path, ref string) (*api.Content, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s?ref=%s",
		url.PathEscape(owner), url.PathEscape(repo), escapePath(path), url.QueryEscape(ref))

	var raw json.RawMessage
	if err := c.get(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		return &api.Content{IsDirectory: true}, nil
	}

	var file struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return &api.Content{Content: file.Content}, nil
}

// ListLanguages returns the languages GitHub detected in the
// repository with their size in bytes.
func (c *Client) ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/languages", url.PathEscape(owner), url.PathEscape(repo))
	languages := map[string]int{}
	if err := c.get(ctx, endpoint, &languages); err != nil {
		return nil, err
	}
	return languages, nil
}

func escapePath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
