// Package testutil provides in-memory implementations of the
// collaborators in internal/api for use in tests.
package testutil

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/replit/scaninit/internal/api"
)

// Engine is a scripted api.Engine. Every call is recorded.
type Engine struct {
	Languages []string
	Version   string

	// ResolveQueriesFunc overrides the default query resolution,
	// which assigns every query to the language in its file name
	// prefix ("java-foo.qls" -> java) or to the first supported
	// language.
	ResolveQueriesFunc func(queries []string, extraSearchPath string) (api.ResolveQueriesOutput, error)

	// PackDownloadErr, if set, fails the download of the
	// given pack list index (0-based call count).
	PackDownloadErr   error
	PackDownloadErrAt int

	ResolveLanguagesCalls int
	ResolveQueriesCalls   [][]string
	PackDownloadCalls     []PackDownloadCall
}

// PackDownloadCall records one PackDownload invocation, including the
// process environment observed while it ran.
type PackDownloadCall struct {
	Packs           []string
	QLConfigFile    string
	Credentials     api.Credentials
	EnvGitHubToken  string
	EnvRegistryAuth string
}

func (e *Engine) ResolveLanguages(ctx context.Context) (map[string]bool, error) {
	e.ResolveLanguagesCalls++
	result := map[string]bool{}
	for _, l := range e.Languages {
		result[l] = true
	}
	return result, nil
}

func (e *Engine) ResolveQueries(ctx context.Context, queries []string, extraSearchPath string) (api.ResolveQueriesOutput, error) {
	e.ResolveQueriesCalls = append(e.ResolveQueriesCalls, append([]string{}, queries...))
	if e.ResolveQueriesFunc != nil {
		return e.ResolveQueriesFunc(queries, extraSearchPath)
	}
	out := api.ResolveQueriesOutput{
		ByLanguage:                map[api.Language]map[string]struct{}{},
		NoDeclaredLanguage:        map[string]struct{}{},
		MultipleDeclaredLanguages: map[string]struct{}{},
	}
	for _, q := range queries {
		language := api.Language("")
		for _, l := range e.Languages {
			if strings.HasPrefix(q, l+"-") {
				language = api.Language(l)
			}
		}
		if language == "" && len(e.Languages) > 0 {
			language = api.Language(e.Languages[0])
		}
		if out.ByLanguage[language] == nil {
			out.ByLanguage[language] = map[string]struct{}{}
		}
		out.ByLanguage[language]["/resolved/"+q] = struct{}{}
	}
	return out, nil
}

func (e *Engine) PackDownload(ctx context.Context, packs []string, qlconfigFile string, creds api.Credentials) (api.PackDownloadOutput, error) {
	index := len(e.PackDownloadCalls)
	e.PackDownloadCalls = append(e.PackDownloadCalls, PackDownloadCall{
		Packs:           append([]string{}, packs...),
		QLConfigFile:    qlconfigFile,
		Credentials:     creds,
		EnvGitHubToken:  os.Getenv("GITHUB_TOKEN"),
		EnvRegistryAuth: os.Getenv("CODEQL_REGISTRIES_AUTH"),
	})
	if e.PackDownloadErr != nil && e.PackDownloadErrAt == index {
		return api.PackDownloadOutput{}, e.PackDownloadErr
	}
	out := api.PackDownloadOutput{}
	for _, p := range packs {
		out.Packs = append(out.Packs, api.DownloadedPack{Name: p, Version: "1.0.0"})
	}
	return out, nil
}

func (e *Engine) GetVersion(ctx context.Context) (api.VersionInfo, error) {
	version := e.Version
	if version == "" {
		version = "2.15.0"
	}
	return api.VersionInfo{Version: version}, nil
}

func (e *Engine) Path() string {
	return "/opt/codeql/codeql"
}

// Fetcher serves files from an in-memory map keyed by
// "owner/repo/path@ref". Directories are keys mapped to nil; an empty
// string stands for a response without a content field.
type Fetcher struct {
	Files map[string]*string
	Calls int
}

// FileContent returns a pointer to the base64 encoding of s, as the
// GitHub contents API would return it.
func FileContent(s string) *string {
	encoded := base64.StdEncoding.EncodeToString([]byte(s))
	return &encoded
}

func (f *Fetcher) GetContent(ctx context.Context, owner, repo, path, ref string) (*api.Content, error) {
	f.Calls++
	key := fmt.Sprintf("%s/%s/%s@%s", owner, repo, path, ref)
	content, ok := f.Files[key]
	if !ok {
		return nil, fmt.Errorf("404 Not Found: %s", key)
	}
	if content == nil {
		return &api.Content{IsDirectory: true}, nil
	}
	if *content == "" {
		return &api.Content{}, nil
	}
	return &api.Content{Content: content}, nil
}

// Stats returns a fixed language breakdown.
type Stats struct {
	Languages map[string]int
	Calls     int
}

func (s *Stats) ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	s.Calls++
	return s.Languages, nil
}

// Unsetenv unsets key for the rest of the test and restores it
// afterwards.
func Unsetenv(t testing.TB, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
}
