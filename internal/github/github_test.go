package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replit/scaninit/internal/api"
)

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(api.APIDetails{APIURL: server.URL + "/", Auth: "secret"})
}

func TestGetContentFile(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/cat/contents/.github/my config.yml", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		assert.Equal(t, "token secret", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("User-Agent"), "scaninit")
		w.Write([]byte(`{"type": "file", "content": "bmFtZTogeA==\n"}`))
	})

	content, err := client.GetContent(context.Background(), "octo", "cat", ".github/my config.yml", "main")
	require.NoError(t, err)
	assert.False(t, content.IsDirectory)
	require.NotNil(t, content.Content)
	assert.Equal(t, "bmFtZTogeA==\n", *content.Content)
}

func TestGetContentDirectory(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"type": "file", "name": "a.yml"}]`))
	})

	content, err := client.GetContent(context.Background(), "octo", "cat", "dir", "main")
	require.NoError(t, err)
	assert.True(t, content.IsDirectory)
	assert.Nil(t, content.Content)
}

func TestGetContentWithoutContent(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type": "submodule"}`))
	})

	content, err := client.GetContent(context.Background(), "octo", "cat", "sub", "main")
	require.NoError(t, err)
	assert.Nil(t, content.Content)
	assert.False(t, content.IsDirectory)
}

func TestGetContentNotFound(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Not Found"}`, http.StatusNotFound)
	})

	_, err := client.GetContent(context.Background(), "octo", "cat", "missing.yml", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestListLanguages(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/cat/languages", r.URL.Path)
		w.Write([]byte(`{"TypeScript": 1200, "Go": 300}`))
	})

	languages, err := client.ListLanguages(context.Background(), "octo", "cat")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"TypeScript": 1200, "Go": 300}, languages)
}

func TestNewDefaultAPIURL(t *testing.T) {
	assert.Equal(t, DefaultAPIURL, New(api.APIDetails{}).apiURL)
}
