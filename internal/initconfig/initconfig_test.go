package initconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/testutil"
)

func newOptions(t *testing.T, engine *testutil.Engine) Options {
	t.Helper()
	return Options{
		LanguagesInput: "javascript",
		TempDir:        t.TempDir(),
		WorkspacePath:  t.TempDir(),
		GitHubVersion:  api.GitHubVersion{Type: api.GitHubDotCom},
		Engine:         engine,
	}
}

func newEngine() *testutil.Engine {
	return &testutil.Engine{Languages: []string{"javascript", "java", "python"}}
}

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	filename := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(filename), 0755))
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))
}

func TestInitConfigWithoutOverridesMatchesDefault(t *testing.T) {
	opts := newOptions(t, newEngine())
	opts.LanguagesInput = "python, JavaScript"

	cfg, err := InitConfig(context.Background(), opts)
	require.NoError(t, err)

	defaults, err := GetDefaultConfig(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, defaults, cfg)

	assert.Equal(t, []api.Language{api.LanguageJavaScript, api.LanguagePython}, cfg.Languages)
	assert.Equal(t, map[api.Language]LanguageQueries{
		api.LanguageJavaScript: {
			Builtin: []string{"/resolved/javascript-code-scanning.qls"},
			Custom:  []CustomQueries{},
		},
		api.LanguagePython: {
			Builtin: []string{"/resolved/python-code-scanning.qls"},
			Custom:  []CustomQueries{},
		},
	}, cfg.Queries)
	assert.Equal(t, []string{}, cfg.Paths)
	assert.Equal(t, []string{}, cfg.PathsIgnore)
	assert.Equal(t, api.PacksByLanguage{}, cfg.Packs)
	assert.Nil(t, cfg.OriginalUserInput)
	assert.Equal(t, "/opt/codeql/codeql", cfg.CodeQLCmd)
	assert.Equal(t, filepath.Join(opts.TempDir, "codeql_databases"), cfg.DBLocation)
	assert.Equal(t, "debug-artifacts", cfg.DebugArtifactName)
	assert.Equal(t, "db", cfg.DebugDatabaseName)
	assert.Equal(t, map[api.Language]string{}, cfg.TrapCaches)

	saved, err := GetConfig(opts.TempDir)
	require.NoError(t, err)
	assert.Equal(t, cfg, saved)
}

func TestGetDefaultConfigWritesNothing(t *testing.T) {
	opts := newOptions(t, newEngine())

	_, err := GetDefaultConfig(context.Background(), opts)
	require.NoError(t, err)

	saved, err := GetConfig(opts.TempDir)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestInitConfigFromFile(t *testing.T) {
	engine := newEngine()
	opts := newOptions(t, engine)
	writeFile(t, opts.WorkspacePath, "queries/foo.ql", "select 1")
	writeFile(t, opts.WorkspacePath, ".github/codeql/codeql-config.yml", `
name: my config
disable-default-queries: true
queries:
  - uses: ./queries
  - uses: security-extended
paths:
  - src/**
paths-ignore:
  - /tests
packs:
  javascript:
    - a/b
    - " c/d @ 1.2.3 "
`)
	opts.ConfigFile = ".github/codeql/codeql-config.yml"

	cfg, err := InitConfig(context.Background(), opts)
	require.NoError(t, err)

	realQueries, err := filepath.EvalSymlinks(filepath.Join(opts.WorkspacePath, "queries"))
	require.NoError(t, err)
	workspace, err := filepath.Abs(opts.WorkspacePath)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"javascript-security-extended.qls"},
		{realQueries},
	}, engine.ResolveQueriesCalls)
	assert.Equal(t, LanguageQueries{
		Builtin: []string{"/resolved/javascript-security-extended.qls"},
		Custom: []CustomQueries{{
			Queries:    []string{"/resolved/" + realQueries},
			SearchPath: workspace,
		}},
	}, cfg.Queries[api.LanguageJavaScript])
	assert.Equal(t, []string{"src/"}, cfg.Paths)
	assert.Equal(t, []string{"tests"}, cfg.PathsIgnore)
	assert.Equal(t, api.PacksByLanguage{api.LanguageJavaScript: {"a/b", "c/d@1.2.3"}}, cfg.Packs)
	assert.Equal(t, "my config", cfg.OriginalUserInput["name"])
}

func TestInlineConfigWinsOverFile(t *testing.T) {
	opts := newOptions(t, newEngine())
	writeFile(t, opts.WorkspacePath, "config.yml", "paths: [from-file]")
	opts.ConfigFile = "config.yml"
	opts.ConfigInput = "paths: [inline]"

	cfg, err := InitConfig(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"inline"}, cfg.Paths)
}

func TestOriginalUserInputNonStringKeys(t *testing.T) {
	for _, input := range []string{
		"query-filters:\n  1: a\n",
		"paths: [src]\nextra: {true: yes}\n",
	} {
		opts := newOptions(t, newEngine())
		opts.ConfigInput = input

		cfg, err := InitConfig(context.Background(), opts)
		require.NoError(t, err, input)

		saved, err := GetConfig(opts.TempDir)
		require.NoError(t, err, input)
		require.NotNil(t, saved, input)
		assert.Equal(t, cfg.OriginalUserInput, saved.OriginalUserInput, input)
	}
}

func TestOriginalUserInputRoundTrip(t *testing.T) {
	opts := newOptions(t, newEngine())
	opts.ConfigInput = `
name: round trip
paths: [src]
threads: 4
ratio: 0.5
query-filters:
  - exclude:
      id: js/foo
      severity: 2
`

	cfg, err := InitConfig(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.OriginalUserInput["threads"])

	saved, err := GetConfig(opts.TempDir)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, map[string]interface{}{
		"name":    "round trip",
		"paths":   []interface{}{"src"},
		"threads": float64(4),
		"ratio":   0.5,
		"query-filters": []interface{}{
			map[string]interface{}{
				"exclude": map[string]interface{}{
					"id":       "js/foo",
					"severity": float64(2),
				},
			},
		},
	}, saved.OriginalUserInput)
}

func TestQueriesInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		builtin []string
	}{
		{
			name:  "no input keeps file queries",
			input: "",
			builtin: []string{
				"/resolved/javascript-code-scanning.qls",
				"/resolved/javascript-security-and-quality.qls",
			},
		},
		{
			name:  "input replaces file queries",
			input: "security-extended",
			builtin: []string{
				"/resolved/javascript-code-scanning.qls",
				"/resolved/javascript-security-extended.qls",
			},
		},
		{
			name:  "combining input adds to file queries",
			input: " + security-extended",
			builtin: []string{
				"/resolved/javascript-code-scanning.qls",
				"/resolved/javascript-security-and-quality.qls",
				"/resolved/javascript-security-extended.qls",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newOptions(t, newEngine())
			opts.ConfigInput = "queries: [{uses: security-and-quality}]"
			opts.QueriesInput = tt.input

			cfg, err := InitConfig(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.builtin, cfg.Queries[api.LanguageJavaScript].Builtin)
		})
	}
}

func TestCustomQueriesPassedToEngine(t *testing.T) {
	engine := newEngine()
	opts := newOptions(t, engine)
	opts.QueriesInput = "+codeql/javascript-queries:Security"
	opts.ConfigInput = "disable-default-queries: true"

	cfg, err := InitConfig(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"codeql/javascript-queries:Security"}}, engine.ResolveQueriesCalls)
	assert.Equal(t, []CustomQueries{{
		Queries: []string{"/resolved/codeql/javascript-queries:Security"},
	}}, cfg.Queries[api.LanguageJavaScript].Custom)
	assert.Empty(t, cfg.Queries[api.LanguageJavaScript].Builtin)
}

func TestPacksInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		packs api.PacksByLanguage
	}{
		{"absent", "", api.PacksByLanguage{api.LanguageJavaScript: {"a/b"}}},
		{"replace", "c/d", api.PacksByLanguage{api.LanguageJavaScript: {"c/d"}}},
		{"combine", "+c/d, e/f@~1.0", api.PacksByLanguage{api.LanguageJavaScript: {"a/b", "c/d", "e/f@~1.0"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := newOptions(t, newEngine())
			opts.ConfigInput = "packs: [a/b]"
			opts.PacksInput = tt.input

			cfg, err := InitConfig(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.packs, cfg.Packs)
			assert.Equal(t, tt.input != "" && tt.input[0] == '+', cfg.AugmentationProperties.PacksInputCombines)
		})
	}
}

func TestLocalQueryErrors(t *testing.T) {
	opts := newOptions(t, newEngine())
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(opts.WorkspacePath, "elsewhere")))

	opts.QueriesInput = "./missing"
	_, err := InitConfig(context.Background(), opts)
	assert.Equal(t, api.ErrInvalidQuery, api.UserErrorKindOf(err))
	assert.EqualError(t, err, `The workflow property "queries" is invalid: the local path "./missing" does not exist`)

	opts.QueriesInput = ""
	writeFile(t, opts.WorkspacePath, "config.yml", "queries: [{uses: ./elsewhere}]")
	opts.ConfigFile = "config.yml"
	_, err = InitConfig(context.Background(), opts)
	assert.Equal(t, api.ErrInvalidQuery, api.UserErrorKindOf(err))
	assert.EqualError(t, err, `The configuration file "config.yml" is invalid: property "queries.uses" is invalid as the local path "./elsewhere" is outside of the repository`)
}

func TestQueriesWithoutDeclaredLanguage(t *testing.T) {
	engine := newEngine()
	engine.ResolveQueriesFunc = func(queries []string, extraSearchPath string) (api.ResolveQueriesOutput, error) {
		return api.ResolveQueriesOutput{
			ByLanguage:                map[api.Language]map[string]struct{}{},
			NoDeclaredLanguage:        map[string]struct{}{"/b.ql": {}, "/a.ql": {}},
			MultipleDeclaredLanguages: map[string]struct{}{},
		}, nil
	}
	opts := newOptions(t, engine)

	_, err := InitConfig(context.Background(), opts)
	assert.Equal(t, api.ErrInvalidQuery, api.UserErrorKindOf(err))
	assert.EqualError(t, err, "The following queries do not declare a language. Their qlpack.yml files are either missing or is invalid.\n/a.ql\n/b.ql")
}

func TestQueriesWithMultipleDeclaredLanguages(t *testing.T) {
	engine := newEngine()
	engine.ResolveQueriesFunc = func(queries []string, extraSearchPath string) (api.ResolveQueriesOutput, error) {
		return api.ResolveQueriesOutput{
			MultipleDeclaredLanguages: map[string]struct{}{"/multi.ql": {}},
		}, nil
	}
	opts := newOptions(t, engine)

	_, err := InitConfig(context.Background(), opts)
	assert.Equal(t, api.ErrInvalidQuery, api.UserErrorKindOf(err))
	assert.Contains(t, err.Error(), "declare multiple languages")
}

func TestNoQueriesToRun(t *testing.T) {
	opts := newOptions(t, newEngine())
	opts.ConfigInput = "disable-default-queries: true"

	_, err := InitConfig(context.Background(), opts)
	assert.Equal(t, api.ErrInvalidQuery, api.UserErrorKindOf(err))

	opts.PacksInput = "a/b"
	cfg, err := InitConfig(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, api.PacksByLanguage{api.LanguageJavaScript: {"a/b"}}, cfg.Packs)
}

func TestInitConfigPropagatesUserErrors(t *testing.T) {
	opts := newOptions(t, newEngine())
	opts.ConfigFile = "../input"

	_, err := InitConfig(context.Background(), opts)
	assert.Equal(t, api.ErrConfigFileOutsideWorkspace, api.UserErrorKindOf(err))

	saved, err := GetConfig(opts.TempDir)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestExplicitSettings(t *testing.T) {
	opts := newOptions(t, newEngine())
	opts.DBLocation = "/dbs"
	opts.CodeQLCmd = "/usr/bin/codeql"
	opts.DebugMode = true
	opts.DebugArtifactName = "my-artifact"
	opts.DebugDatabaseName = "my-db"
	opts.TrapCaches = map[api.Language]string{
		api.LanguageJavaScript: "/trap/js",
		api.LanguageRuby:       "/trap/ruby",
	}
	opts.TrapCacheDownloadTime = 42

	cfg, err := InitConfig(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "/dbs", cfg.DBLocation)
	assert.Equal(t, "/dbs/javascript", cfg.DatabasePath(api.LanguageJavaScript))
	assert.Equal(t, "/usr/bin/codeql", cfg.CodeQLCmd)
	assert.True(t, cfg.DebugMode)
	assert.Equal(t, "my-artifact", cfg.DebugArtifactName)
	assert.Equal(t, "my-db", cfg.DebugDatabaseName)
	assert.Equal(t, map[api.Language]string{api.LanguageJavaScript: "/trap/js"}, cfg.TrapCaches)
	assert.Equal(t, int64(42), cfg.TrapCacheDownloadTime)
}

func TestOptionsValidate(t *testing.T) {
	opts := newOptions(t, newEngine())
	require.NoError(t, opts.Validate())

	missing := opts
	missing.TempDir = ""
	missing.Engine = nil
	err := missing.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TempDir")
	assert.Contains(t, err.Error(), "Engine")

	badName := opts
	badName.DebugArtifactName = "a/b"
	assert.Error(t, badName.Validate())

	badVersion := opts
	badVersion.GitHubVersion = api.GitHubVersion{Type: "GitLab"}
	assert.Error(t, badVersion.Validate())
}
