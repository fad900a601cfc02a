package api

import (
	"context"
	"fmt"
	"net/http"
)

var HttpClient = &ScaninitHttpClient{}

type ScaninitHttpClient struct {
	http.Client
}

func (c *ScaninitHttpClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "scaninit (+https://github.com/replit/scaninit)")
	resp, err := c.Client.Do(req)
	if resp == nil && err == nil {
		panic(fmt.Errorf("no response and no error %v", req))
	}

	return resp, err
}

// GetWithToken issues a GET against the GitHub API, authenticating
// with token when it is non-empty.
func (c *ScaninitHttpClient) GetWithToken(ctx context.Context, url string, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return &http.Response{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}
	return c.Do(req)
}
