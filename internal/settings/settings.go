// Package settings supplies defaults for the command-line inputs from
// an optional scaninit.toml file in the workspace, a .env file, and
// the variables a CI runner exports.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	FileName    = "scaninit.toml"
	EnvFileName = ".env"
)

// Settings mirrors the flags of the init command. Empty values are
// left for the command line or the environment to fill in.
type Settings struct {
	Languages         string `toml:"languages"`
	Queries           string `toml:"queries"`
	Packs             string `toml:"packs"`
	ConfigFile        string `toml:"config-file"`
	Registries        string `toml:"registries"`
	DBLocation        string `toml:"db-location"`
	CodeQL            string `toml:"codeql"`
	Debug             bool   `toml:"debug"`
	DebugArtifactName string `toml:"debug-artifact-name"`
	DebugDatabaseName string `toml:"debug-database-name"`
}

// Load reads <workspace>/scaninit.toml. A missing file yields zero
// Settings. Unknown keys are an error so that typos do not go
// unnoticed.
func Load(workspace string) (Settings, error) {
	filename := filepath.Join(workspace, FileName)
	var s Settings
	md, err := toml.DecodeFile(filename, &s)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, fmt.Errorf("%s: %w", filename, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("%s: unknown setting %q", filename, undecoded[0].String())
	}
	return s, nil
}

// LoadEnvFile loads <workspace>/.env into the process environment if
// it exists. Variables that are already set keep their value.
func LoadEnvFile(workspace string) error {
	filename := filepath.Join(workspace, EnvFileName)
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(filename); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}

// Environment holds what the CI runner tells us about the run.
type Environment struct {
	Token      string
	Repository string
	ServerURL  string
	APIURL     string
	TempDir    string
	Workspace  string
}

// FromEnvironment reads the runner's variables.
func FromEnvironment() Environment {
	return Environment{
		Token:      os.Getenv("GITHUB_TOKEN"),
		Repository: os.Getenv("GITHUB_REPOSITORY"),
		ServerURL:  os.Getenv("GITHUB_SERVER_URL"),
		APIURL:     os.Getenv("GITHUB_API_URL"),
		TempDir:    os.Getenv("RUNNER_TEMP"),
		Workspace:  os.Getenv("GITHUB_WORKSPACE"),
	}
}

// FirstNonEmpty returns the first of values that is not empty.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
