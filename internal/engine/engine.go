// Package engine runs the analysis engine's command-line interface as
// a subprocess and decodes its JSON output.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/trace"
	"github.com/replit/scaninit/internal/util"
)

// DefaultCommand is used when no engine path is configured.
const DefaultCommand = "codeql"

// CLI is an api.Engine backed by the engine executable.
type CLI struct {
	cmd string

	mu      sync.Mutex
	version *api.VersionInfo
}

// New returns an engine that runs cmd, or DefaultCommand if cmd is
// empty.
func New(cmd string) *CLI {
	if cmd == "" {
		cmd = DefaultCommand
	}
	return &CLI{cmd: cmd}
}

func (c *CLI) Path() string {
	return c.cmd
}

// run executes the engine with args and decodes its stdout into v.
func (c *CLI) run(ctx context.Context, v interface{}, extraEnv []string, args ...string) error {
	span, ctx := trace.StartSpan(ctx, "engine."+args[0])
	defer span.Finish()

	output, err := util.GetCmdOutput(ctx, append([]string{c.cmd}, args...), extraEnv)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(output, v); err != nil {
		return fmt.Errorf("%s %s: unexpected output: %w", c.cmd, args[0], err)
	}
	return nil
}

// ResolveLanguages lists the languages the engine has extractors
// for.
func (c *CLI) ResolveLanguages(ctx context.Context) (map[string]bool, error) {
	// Maps each language to the directories of its extractors.
	var extractors map[string][]string
	if err := c.run(ctx, &extractors, nil, "resolve", "languages", "--format=json"); err != nil {
		return nil, err
	}
	result := map[string]bool{}
	for language := range extractors {
		result[language] = true
	}
	return result, nil
}

// resolvedQueries mirrors the engine's "bylanguage" output, where
// every set is an object with empty values.
type resolvedQueries struct {
	ByLanguage                map[string]map[string]interface{} `json:"byLanguage"`
	NoDeclaredLanguage        map[string]interface{}            `json:"noDeclaredLanguage"`
	MultipleDeclaredLanguages map[string]interface{}            `json:"multipleDeclaredLanguages"`
}

func (c *CLI) ResolveQueries(ctx context.Context, queries []string, extraSearchPath string) (api.ResolveQueriesOutput, error) {
	args := []string{"resolve", "queries"}
	args = append(args, queries...)
	args = append(args, "--format=bylanguage")
	if extraSearchPath != "" {
		args = append(args, "--additional-packs="+extraSearchPath)
	}

	var raw resolvedQueries
	if err := c.run(ctx, &raw, nil, args...); err != nil {
		return api.ResolveQueriesOutput{}, err
	}

	out := api.ResolveQueriesOutput{
		ByLanguage:                map[api.Language]map[string]struct{}{},
		NoDeclaredLanguage:        keys(raw.NoDeclaredLanguage),
		MultipleDeclaredLanguages: keys(raw.MultipleDeclaredLanguages),
	}
	for language, files := range raw.ByLanguage {
		out.ByLanguage[api.Language(language)] = keys(files)
	}
	return out, nil
}

// PackDownload downloads packs. Credentials reach the engine through
// its environment only, so they never show up in the echoed command.
func (c *CLI) PackDownload(ctx context.Context, packs []string, qlconfigFile string, creds api.Credentials) (api.PackDownloadOutput, error) {
	args := []string{"pack", "download", "--format=json", "--resolve-query-specs"}
	if qlconfigFile != "" {
		args = append(args, "--qlconfig-file="+qlconfigFile)
	}
	args = append(args, packs...)

	var env []string
	if creds.APIToken != "" {
		env = append(env, "GITHUB_TOKEN="+creds.APIToken)
	}
	if creds.RegistriesAuth != "" {
		env = append(env, "CODEQL_REGISTRIES_AUTH="+creds.RegistriesAuth)
	}

	var out api.PackDownloadOutput
	if err := c.run(ctx, &out, env, args...); err != nil {
		return api.PackDownloadOutput{}, err
	}
	return out, nil
}

// GetVersion returns the engine's version. The result is cached for
// the lifetime of c.
func (c *CLI) GetVersion(ctx context.Context) (api.VersionInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version != nil {
		return *c.version, nil
	}

	var info api.VersionInfo
	if err := c.run(ctx, &info, nil, "version", "--format=json"); err != nil {
		return api.VersionInfo{}, err
	}
	c.version = &info
	return info, nil
}

func keys[V any](m map[string]V) map[string]struct{} {
	result := make(map[string]struct{}, len(m))
	for k := range m {
		result[k] = struct{}{}
	}
	return result
}
