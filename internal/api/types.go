// Package api defines the types shared across scaninit: languages,
// pack maps, and the collaborators (engine, content fetcher, language
// statistics) that the configuration core talks to.
package api

import (
	"context"
	"fmt"
	"strings"
)

// Language is a canonical analysis language identifier, such as
// "javascript" or "cpp".
type Language string

// Supported languages. Keep up to date with the alias table in
// internal/languages.
const (
	LanguageCpp        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageGo         Language = "go"
	LanguageJava       Language = "java"
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageRuby       Language = "ruby"
	LanguageSwift      Language = "swift"
)

// PacksByLanguage maps each language to an ordered list of canonical
// pack specifications ("scope/name[@version][:path]").
type PacksByLanguage map[Language][]string

// QuerySpec is one entry of a queries list, either from the
// configuration file or from the queries input.
type QuerySpec struct {
	Uses string `json:"uses" yaml:"uses"`
}

// RepositoryNwo identifies a repository by owner and name.
type RepositoryNwo struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

func (r RepositoryNwo) String() string {
	return r.Owner + "/" + r.Repo
}

// ParseRepositoryNwo parses "owner/repo".
func ParseRepositoryNwo(nwo string) (RepositoryNwo, error) {
	parts := strings.Split(strings.TrimSpace(nwo), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryNwo{}, fmt.Errorf("%q is not a valid repository name", nwo)
	}
	return RepositoryNwo{Owner: parts[0], Repo: parts[1]}, nil
}

// GitHubVariant is the flavour of GitHub the run talks to.
type GitHubVariant string

const (
	GitHubDotCom GitHubVariant = "GitHub.com"
	GitHubGHES   GitHubVariant = "GHES"
	GitHubGHAE   GitHubVariant = "GHAE"
)

// GitHubVersion describes the GitHub instance. Version is only set
// for GHES.
type GitHubVersion struct {
	Type    GitHubVariant `json:"type" validate:"omitempty,oneof=GitHub.com GHES GHAE"`
	Version string        `json:"version,omitempty"`
}

// APIDetails holds the connection details for the GitHub API.
type APIDetails struct {
	Auth   string
	URL    string
	APIURL string
}

// Credentials is the immutable set of secrets handed to the engine
// when it downloads packs.
type Credentials struct {
	APIToken       string
	RegistriesAuth string
}

// ResolveQueriesOutput is what the engine reports after resolving a
// list of query specifiers.
type ResolveQueriesOutput struct {
	// Map from language to the set of query files for it.
	ByLanguage map[Language]map[string]struct{} `json:"byLanguage"`

	// Queries whose pack declares no language.
	NoDeclaredLanguage map[string]struct{} `json:"noDeclaredLanguage"`

	// Queries whose pack declares more than one language.
	MultipleDeclaredLanguages map[string]struct{} `json:"multipleDeclaredLanguages"`
}

// DownloadedPack is one pack reported by the engine after a download.
type DownloadedPack struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PackDownloadOutput is what the engine reports after downloading a
// set of packs.
type PackDownloadOutput struct {
	Packs []DownloadedPack `json:"packs"`
}

// VersionInfo is the engine's self-reported version.
type VersionInfo struct {
	Version  string          `json:"version"`
	Features map[string]bool `json:"features,omitempty"`
}

// Engine is the analysis engine. Only the capabilities the
// configuration core needs are exposed.
type Engine interface {
	// ResolveLanguages returns the set of languages the engine
	// can analyze.
	ResolveLanguages(ctx context.Context) (map[string]bool, error)

	// ResolveQueries expands query specifiers into query files
	// grouped by language.
	ResolveQueries(ctx context.Context, queries []string, extraSearchPath string) (ResolveQueriesOutput, error)

	// PackDownload fetches the given packs. qlconfigFile is empty
	// when no registry file was generated.
	PackDownload(ctx context.Context, packs []string, qlconfigFile string, creds Credentials) (PackDownloadOutput, error)

	GetVersion(ctx context.Context) (VersionInfo, error)

	// Path returns the command used to run the engine.
	Path() string
}

// Content is a file fetched from a repository. IsDirectory is set
// when the path named a directory, in which case Content is nil.
type Content struct {
	Content     *string
	IsDirectory bool
}

// ContentFetcher reads files from remote repositories.
type ContentFetcher interface {
	GetContent(ctx context.Context, owner, repo, path, ref string) (*Content, error)
}

// LanguageStats reports the languages GitHub detected in a
// repository, keyed by GitHub's display name, with byte counts.
type LanguageStats interface {
	ListLanguages(ctx context.Context, owner, repo string) (map[string]int, error)
}
