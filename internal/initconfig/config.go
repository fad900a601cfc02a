package initconfig

import (
	"path/filepath"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/augment"
)

const (
	DefaultDebugArtifactName = "debug-artifacts"
	DefaultDebugDatabaseName = "db"

	databasesDirName = "codeql_databases"
)

// CustomQueries is a group of queries resolved with the same extra
// search path.
type CustomQueries struct {
	Queries    []string `json:"queries"`
	SearchPath string   `json:"searchPath,omitempty"`
}

// LanguageQueries are the query files to run for one language.
// Builtin queries come from the default and built-in suites, Custom
// from anything the user named.
type LanguageQueries struct {
	Builtin []string        `json:"builtin"`
	Custom  []CustomQueries `json:"custom"`
}

// Config is the resolved configuration of a run. It is written once
// by InitConfig and read back by later steps with GetConfig.
type Config struct {
	Languages   []api.Language                   `json:"languages"`
	Queries     map[api.Language]LanguageQueries `json:"queries"`
	PathsIgnore []string                         `json:"pathsIgnore"`
	Paths       []string                         `json:"paths"`
	Packs       api.PacksByLanguage              `json:"packs"`

	// OriginalUserInput is the configuration document exactly as
	// parsed, before any merging. Mapping keys are always strings, and
	// numbers read back through GetConfig are float64.
	OriginalUserInput map[string]interface{} `json:"originalUserInput,omitempty"`

	TempDir           string            `json:"tempDir"`
	CodeQLCmd         string            `json:"codeQLCmd"`
	GitHubVersion     api.GitHubVersion `json:"gitHubVersion"`
	DBLocation        string            `json:"dbLocation"`
	DebugMode         bool              `json:"debugMode"`
	DebugArtifactName string            `json:"debugArtifactName"`
	DebugDatabaseName string            `json:"debugDatabaseName"`

	AugmentationProperties augment.Properties `json:"augmentationProperties"`

	TrapCaches            map[api.Language]string `json:"trapCaches"`
	TrapCacheDownloadTime int64                   `json:"trapCacheDownloadTime"`
}

// DatabasePath returns where the database for language is created.
func (c *Config) DatabasePath(language api.Language) string {
	return filepath.Join(c.DBLocation, string(language))
}
