package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/config"
	"github.com/replit/scaninit/internal/download"
	"github.com/replit/scaninit/internal/engine"
	"github.com/replit/scaninit/internal/github"
	"github.com/replit/scaninit/internal/initconfig"
	"github.com/replit/scaninit/internal/languages"
	"github.com/replit/scaninit/internal/packs"
	"github.com/replit/scaninit/internal/settings"
	"github.com/replit/scaninit/internal/store"
	"github.com/replit/scaninit/internal/table"
	"github.com/replit/scaninit/internal/trace"
	"github.com/replit/scaninit/internal/util"
)

// environmentFlags are the flags describing the run's surroundings,
// filled in from the runner's environment when not given.
type environmentFlags struct {
	workspace  string
	tempDir    string
	codeql     string
	repository string
	serverURL  string
	apiURL     string
}

// initFlags are the inputs of 'scaninit init'.
type initFlags struct {
	languages         string
	queries           string
	packs             string
	configFile        string
	configInput       string
	registries        string
	dbLocation        string
	debugArtifactName string
	debugDatabaseName string
	gitHubVersion     string
}

// dieOnError exits if err is set. Misconfiguration exits with status
// 2, anything else with status 1.
func dieOnError(err error) {
	if err == nil {
		return
	}
	if api.IsUserError(err) {
		util.DieWithCode(2, "%s", err)
	}
	util.Die("error: %s", err)
}

// startTrace starts tracing if requested and returns the root span's
// context and a function that ends it. The function also runs if the
// command dies first.
func startTrace(name string) (context.Context, func()) {
	if !trace.MaybeTrace(getVersion()) {
		return context.Background(), func() {}
	}
	span, ctx := trace.StartSpanFromExistingContext(context.Background(), name)
	var once sync.Once
	finish := func() {
		once.Do(func() {
			span.Finish()
			trace.Stop()
		})
	}
	util.OnExit(finish)
	return ctx, finish
}

// resolve fills in what the flags left out from the environment.
func (e environmentFlags) resolve() (environmentFlags, settings.Environment) {
	runner := settings.FromEnvironment()
	if e.workspace == "" {
		e.workspace = runner.Workspace
	}
	if e.workspace == "" {
		cwd, err := os.Getwd()
		if err != nil {
			util.Die("error: %s", err)
		}
		e.workspace = cwd
	}

	// A .env file may supply any of the runner variables.
	dieOnError(settings.LoadEnvFile(e.workspace))
	runner = settings.FromEnvironment()

	e.tempDir = settings.FirstNonEmpty(e.tempDir, runner.TempDir, filepath.Join(os.TempDir(), "scaninit"))
	e.repository = settings.FirstNonEmpty(e.repository, runner.Repository)
	e.serverURL = settings.FirstNonEmpty(e.serverURL, runner.ServerURL, "https://github.com")
	e.apiURL = settings.FirstNonEmpty(e.apiURL, runner.APIURL, github.DefaultAPIURL)
	return e, runner
}

// languageStats returns client when there is a repository to ask
// about, and nil otherwise.
func languageStats(client *github.Client, repo api.RepositoryNwo) api.LanguageStats {
	if repo.Owner == "" {
		return nil
	}
	return client
}

func parseRepository(repository string) api.RepositoryNwo {
	if repository == "" {
		return api.RepositoryNwo{}
	}
	nwo, err := api.ParseRepositoryNwo(repository)
	if err != nil {
		util.DieWithCode(2, "%s", err)
	}
	return nwo
}

// parseGitHubVersion parses "GitHub.com", "GHAE" or "GHES:<version>".
func parseGitHubVersion(s string) api.GitHubVersion {
	if s == "" {
		return api.GitHubVersion{Type: api.GitHubDotCom}
	}
	variant, ver, _ := strings.Cut(s, ":")
	return api.GitHubVersion{Type: api.GitHubVariant(variant), Version: ver}
}

// runInit implements 'scaninit init'.
func runInit(envFlags environmentFlags, in initFlags) {
	ctx, finish := startTrace("scaninit.init")
	defer finish()

	envFlags, runner := envFlags.resolve()
	s, err := settings.Load(envFlags.workspace)
	dieOnError(err)

	details := api.APIDetails{
		Auth:   runner.Token,
		URL:    envFlags.serverURL,
		APIURL: envFlags.apiURL,
	}
	client := github.New(details)
	eng := engine.New(settings.FirstNonEmpty(envFlags.codeql, s.CodeQL))
	repo := parseRepository(envFlags.repository)

	opts := initconfig.Options{
		LanguagesInput:    settings.FirstNonEmpty(in.languages, s.Languages),
		QueriesInput:      settings.FirstNonEmpty(in.queries, s.Queries),
		PacksInput:        settings.FirstNonEmpty(in.packs, s.Packs),
		RegistriesInput:   settings.FirstNonEmpty(in.registries, s.Registries),
		ConfigFile:        settings.FirstNonEmpty(in.configFile, s.ConfigFile),
		ConfigInput:       in.configInput,
		DBLocation:        settings.FirstNonEmpty(in.dbLocation, s.DBLocation),
		DebugMode:         config.Debug || s.Debug,
		DebugArtifactName: settings.FirstNonEmpty(in.debugArtifactName, s.DebugArtifactName),
		DebugDatabaseName: settings.FirstNonEmpty(in.debugDatabaseName, s.DebugDatabaseName),
		Repository:        repo,
		TempDir:           envFlags.tempDir,
		CodeQLCmd:         eng.Path(),
		WorkspacePath:     envFlags.workspace,
		GitHubVersion:     parseGitHubVersion(in.gitHubVersion),
		APIDetails:        details,
		Engine:            eng,
		Fetcher:           client,
		Stats:             languageStats(client, repo),
	}

	cfg, err := initconfig.InitConfig(ctx, opts)
	dieOnError(err)
	util.ProgressMsg(fmt.Sprintf("saved configuration for %s to %s",
		joinLanguages(cfg.Languages), store.Location(cfg.TempDir)))

	_, err = download.Packs(ctx, download.Request{
		Engine:          eng,
		Languages:       cfg.Languages,
		Packs:           cfg.Packs,
		APIDetails:      details,
		RegistriesInput: opts.RegistriesInput,
		TempDir:         cfg.TempDir,
	})
	dieOnError(err)
}

func joinLanguages(langs []api.Language) string {
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = string(l)
	}
	return strings.Join(names, ", ")
}

// configLine is one row of the table printed by 'scaninit
// show-config'.
type configLine struct {
	Field string `pretty:"Field"`
	Value string `pretty:"Value"`
}

// runShowConfig implements 'scaninit show-config'.
func runShowConfig(envFlags environmentFlags, outputFormat outputFormat) {
	envFlags, _ = envFlags.resolve()
	cfg, err := initconfig.GetConfig(envFlags.tempDir)
	dieOnError(err)
	if cfg == nil {
		util.Die("no configuration saved in %s; run 'scaninit init' first", envFlags.tempDir)
	}

	switch outputFormat {
	case outputFormatTable:
		rows := []configLine{
			{"Languages", joinLanguages(cfg.Languages)},
			{"Engine", cfg.CodeQLCmd},
			{"Databases", cfg.DBLocation},
			{"Paths", strings.Join(cfg.Paths, ", ")},
			{"Paths ignored", strings.Join(cfg.PathsIgnore, ", ")},
		}
		for _, language := range cfg.Languages {
			q := cfg.Queries[language]
			custom := 0
			for _, c := range q.Custom {
				custom += len(c.Queries)
			}
			rows = append(rows,
				configLine{
					Field: "Database (" + string(language) + ")",
					Value: cfg.DatabasePath(language),
				},
				configLine{
					Field: "Queries (" + string(language) + ")",
					Value: fmt.Sprintf("%d built-in, %d custom", len(q.Builtin), custom),
				},
			)
		}
		for _, language := range cfg.Packs.SortedLanguages() {
			rows = append(rows, configLine{
				Field: "Packs (" + string(language) + ")",
				Value: strings.Join(cfg.Packs[language], ", "),
			})
		}
		t := table.FromStructs(rows)
		t.Print()

	case outputFormatJSON:
		outputB, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			panic(err)
		}
		fmt.Println(string(outputB))
	}
}

// runValidatePack implements 'scaninit validate-pack'.
func runValidatePack(args []string) {
	for _, arg := range args {
		canonical, err := packs.Validate(arg)
		dieOnError(err)
		fmt.Println(canonical)
	}
}

// languageLine is one row of the table printed by 'scaninit
// list-languages'.
type languageLine struct {
	Language string   `json:"language" pretty:"Language"`
	Aliases  []string `json:"aliases" pretty:"Aliases"`
}

// runListLanguages implements 'scaninit list-languages'.
func runListLanguages(outputFormat outputFormat) {
	rows := []languageLine{}
	for _, language := range languages.All() {
		rows = append(rows, languageLine{
			Language: string(language),
			Aliases:  languages.Aliases(language),
		})
	}

	switch outputFormat {
	case outputFormatTable:
		t := table.FromStructs(rows)
		t.SortBy("Language")
		t.Print()

	case outputFormatJSON:
		outputB, err := json.Marshal(rows)
		if err != nil {
			panic(err)
		}
		fmt.Println(string(outputB))
	}
}

// runResolveLanguages implements 'scaninit resolve-languages'.
func runResolveLanguages(envFlags environmentFlags, languagesInput string) {
	ctx, finish := startTrace("scaninit.resolve-languages")
	defer finish()

	envFlags, runner := envFlags.resolve()
	client := github.New(api.APIDetails{Auth: runner.Token, APIURL: envFlags.apiURL})
	repo := parseRepository(envFlags.repository)
	resolver := &languages.Resolver{
		Engine:     engine.New(envFlags.codeql),
		Stats:      languageStats(client, repo),
		Repository: repo,
	}
	langs, err := resolver.Resolve(ctx, languagesInput)
	dieOnError(err)
	for _, language := range langs {
		fmt.Println(language)
	}
}
