// Package registries turns the registries input into a qlconfig file
// for the engine and an auth-token string for the environment.
package registries

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v2"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/util"
)

// AuthEnvVar carries registry credentials to the engine, formatted as
// "url1=token1,url2=token2".
const AuthEnvVar = "CODEQL_REGISTRIES_AUTH"

// QLConfigFileName is the name of the generated registry file inside
// the temp directory.
const QLConfigFileName = "qlconfig.yml"

// MinimumEngineVersion is the first engine release that accepts a
// qlconfig file when downloading packs.
var MinimumEngineVersion = version.Must(version.NewVersion("2.10.4"))

// Registry is one entry of the registries input.
type Registry struct {
	URL string `yaml:"url"`

	// Packages is a glob or list of globs naming the packs
	// served by this registry.
	Packages interface{} `yaml:"packages"`
	Token    string      `yaml:"token"`
}

// SafeRegistry is a Registry without its credentials.
type SafeRegistry struct {
	URL      string      `yaml:"url"`
	Packages interface{} `yaml:"packages"`
}

type qlconfig struct {
	Registries []SafeRegistry `yaml:"registries"`
}

// Generated is the outcome of Generate. Both fields are empty when
// there is nothing to pass to the engine.
type Generated struct {
	AuthTokens   string
	QLConfigFile string
}

// Parse parses the registries input. An empty input yields nil.
func Parse(input string) ([]Registry, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	var raw interface{}
	if err := yaml.Unmarshal([]byte(input), &raw); err != nil {
		return nil, api.NewUserError(api.ErrInvalidRegistries,
			"Invalid registries input. Must be a YAML string.")
	}
	shapeErr := api.NewUserError(api.ErrInvalidRegistries,
		"Invalid 'registries' input. Must be an array of objects with 'url' and 'packages' properties.")

	list, ok := raw.([]interface{})
	if !ok {
		return nil, shapeErr
	}
	registries := []Registry{}
	for _, entry := range list {
		fields, ok := entry.(map[interface{}]interface{})
		if !ok {
			return nil, shapeErr
		}
		url, _ := fields["url"].(string)
		packages := fields["packages"]
		if url == "" || !validPackages(packages) {
			return nil, shapeErr
		}
		token, _ := fields["token"].(string)
		registries = append(registries, Registry{URL: url, Packages: packages, Token: token})
	}
	return registries, nil
}

func validPackages(packages interface{}) bool {
	switch p := packages.(type) {
	case string:
		return p != ""
	case []interface{}:
		if len(p) == 0 {
			return false
		}
		for _, item := range p {
			if s, ok := item.(string); !ok || s == "" {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// normalizeURL appends the trailing slash the engine expects.
func normalizeURL(url string) string {
	if strings.HasSuffix(url, "/") {
		return url
	}
	return url + "/"
}

// Safe strips credentials and normalizes URLs.
func Safe(registries []Registry) []SafeRegistry {
	result := make([]SafeRegistry, 0, len(registries))
	for _, r := range registries {
		result = append(result, SafeRegistry{URL: normalizeURL(r.URL), Packages: r.Packages})
	}
	return result
}

// AuthTokens formats the credentials of registries in input order.
func AuthTokens(registries []Registry) string {
	pairs := make([]string, 0, len(registries))
	for _, r := range registries {
		pairs = append(pairs, normalizeURL(r.URL)+"="+r.Token)
	}
	return strings.Join(pairs, ",")
}

// Generate parses the registries input and, if there is one, writes
// the credential-free qlconfig file into tempDir. A value of
// CODEQL_REGISTRIES_AUTH already present in the environment takes
// precedence over the tokens from the input.
func Generate(ctx context.Context, input string, tempDir string, engine api.Engine) (Generated, error) {
	registries, err := Parse(input)
	if err != nil {
		return Generated{}, err
	}

	generated := Generated{}
	if registries != nil {
		if err := checkEngineVersion(ctx, engine); err != nil {
			return Generated{}, err
		}
		contents, err := yaml.Marshal(qlconfig{Registries: Safe(registries)})
		if err != nil {
			return Generated{}, err
		}
		generated.QLConfigFile = filepath.Join(tempDir, QLConfigFileName)
		if err := os.MkdirAll(tempDir, 0o755); err != nil {
			return Generated{}, err
		}
		if err := util.WriteAtomic(generated.QLConfigFile, contents); err != nil {
			return Generated{}, fmt.Errorf("writing %s: %w", generated.QLConfigFile, err)
		}
		util.Logger.Debug("generated "+QLConfigFileName, "contents", string(contents))
		generated.AuthTokens = AuthTokens(registries)
	}

	if existing := os.Getenv(AuthEnvVar); existing != "" {
		util.Logger.Debug("using " + AuthEnvVar + " environment variable to authenticate with registries")
		generated.AuthTokens = existing
	}
	return generated, nil
}

func checkEngineVersion(ctx context.Context, engine api.Engine) error {
	info, err := engine.GetVersion(ctx)
	if err != nil {
		return err
	}
	v, err := version.NewVersion(info.Version)
	if err != nil {
		return fmt.Errorf("parsing engine version %q: %w", info.Version, err)
	}
	if v.LessThan(MinimumEngineVersion) {
		return api.NewUserError(api.ErrUnsupportedEngine,
			"The 'registries' input is not supported on CodeQL CLI versions earlier than %s. Please upgrade to CodeQL CLI version %s or later.",
			MinimumEngineVersion, MinimumEngineVersion)
	}
	return nil
}
