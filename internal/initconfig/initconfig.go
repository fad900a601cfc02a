// Package initconfig assembles the resolved configuration of a run
// from the languages input, the configuration document and the
// packs and queries inputs, and persists it for later steps.
package initconfig

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/augment"
	"github.com/replit/scaninit/internal/languages"
	"github.com/replit/scaninit/internal/source"
	"github.com/replit/scaninit/internal/store"
	"github.com/replit/scaninit/internal/trace"
	"github.com/replit/scaninit/internal/util"
)

// InitConfig resolves the configuration of a run from opts, writes it
// to the run's temporary directory, and returns it.
func InitConfig(ctx context.Context, opts Options) (*Config, error) {
	span, ctx := trace.StartSpan(ctx, "initconfig.InitConfig")
	defer span.Finish()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	langs, err := resolveLanguages(ctx, opts)
	if err != nil {
		return nil, err
	}

	loaded, err := loadSource(ctx, opts, langs)
	if err != nil {
		return nil, err
	}

	cfg, err := assemble(ctx, opts, langs, loaded)
	if err != nil {
		return nil, err
	}

	util.Logger.Debug("saving configuration", "path", store.Location(opts.TempDir))
	if err := store.Write(opts.TempDir, cfg); err != nil {
		return nil, fmt.Errorf("saving configuration: %w", err)
	}
	return cfg, nil
}

// GetDefaultConfig assembles the configuration a run would get without
// any configuration document. The packs and queries inputs still
// apply. Nothing is written.
func GetDefaultConfig(ctx context.Context, opts Options) (*Config, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	langs, err := resolveLanguages(ctx, opts)
	if err != nil {
		return nil, err
	}
	return assemble(ctx, opts, langs, &source.Result{Origin: source.OriginNone})
}

// GetConfig reads back the configuration written by InitConfig. It
// returns nil, nil if there is none yet.
func GetConfig(tempDir string) (*Config, error) {
	cfg := &Config{}
	found, err := store.Read(tempDir, cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		util.Logger.Debug("no configuration saved yet", "path", store.Location(tempDir))
		return nil, nil
	}
	return cfg, nil
}

func resolveLanguages(ctx context.Context, opts Options) ([]api.Language, error) {
	span, ctx := trace.StartSpan(ctx, "initconfig.resolveLanguages")
	defer span.Finish()

	resolver := &languages.Resolver{
		Engine:     opts.Engine,
		Stats:      opts.Stats,
		Repository: opts.Repository,
	}
	langs, err := resolver.Resolve(ctx, opts.LanguagesInput)
	if err != nil {
		return nil, err
	}
	util.Logger.Debug("resolved languages", "languages", langs)
	return langs, nil
}

func loadSource(ctx context.Context, opts Options, langs []api.Language) (*source.Result, error) {
	span, ctx := trace.StartSpan(ctx, "initconfig.loadSource")
	defer span.Finish()

	loaded, err := source.Load(ctx, source.Request{
		ConfigInput:   opts.ConfigInput,
		ConfigFile:    opts.ConfigFile,
		WorkspacePath: opts.WorkspacePath,
		Languages:     langs,
		Fetcher:       opts.Fetcher,
	})
	if err != nil {
		return nil, err
	}
	util.Logger.Debug("loaded configuration", "origin", loaded.Origin, "location", loaded.Location)
	return loaded, nil
}

// assemble merges the loaded document with the inputs and defaults
// and resolves the queries to run.
func assemble(ctx context.Context, opts Options, langs []api.Language, loaded *source.Result) (*Config, error) {
	doc := loaded.Config

	props, err := augment.Calculate(opts.PacksInput, opts.QueriesInput, langs)
	if err != nil {
		return nil, err
	}

	workspace, err := filepath.Abs(opts.WorkspacePath)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace %s: %w", opts.WorkspacePath, err)
	}

	configFile := ""
	if loaded.Origin == source.OriginLocal || loaded.Origin == source.OriginRemote {
		configFile = opts.ConfigFile
	}
	plan, err := planQueries(workspace, langs, configFile,
		doc.DisableDefaultQueries.Value,
		props.QueriesInput, props.QueriesInputCombines, doc.Queries.Value)
	if err != nil {
		return nil, err
	}
	queries, err := plan.resolve(ctx, opts.Engine, workspace, langs)
	if err != nil {
		return nil, err
	}

	packs := mergePacks(doc.Packs, props, langs)
	for _, language := range langs {
		q := queries[language]
		if len(q.Builtin) == 0 && len(q.Custom) == 0 && len(packs[language]) == 0 {
			return nil, api.NewUserError(api.ErrInvalidQuery,
				"Did not detect any queries to run for %s. Please add some queries to your configuration file.", language)
		}
	}

	cfg := &Config{
		Languages:              langs,
		Queries:                queries,
		PathsIgnore:            orEmpty(doc.PathsIgnore),
		Paths:                  orEmpty(doc.Paths),
		Packs:                  packs,
		OriginalUserInput:      doc.Raw,
		TempDir:                opts.TempDir,
		CodeQLCmd:              opts.CodeQLCmd,
		GitHubVersion:          opts.GitHubVersion,
		DBLocation:             opts.DBLocation,
		DebugMode:              opts.DebugMode,
		DebugArtifactName:      opts.DebugArtifactName,
		DebugDatabaseName:      opts.DebugDatabaseName,
		AugmentationProperties: props,
		TrapCaches:             map[api.Language]string{},
		TrapCacheDownloadTime:  opts.TrapCacheDownloadTime,
	}
	if cfg.CodeQLCmd == "" {
		cfg.CodeQLCmd = opts.Engine.Path()
	}
	if cfg.DBLocation == "" {
		cfg.DBLocation = filepath.Join(opts.TempDir, databasesDirName)
	}
	if cfg.DebugArtifactName == "" {
		cfg.DebugArtifactName = DefaultDebugArtifactName
	}
	if cfg.DebugDatabaseName == "" {
		cfg.DebugDatabaseName = DefaultDebugDatabaseName
	}
	for language, dir := range opts.TrapCaches {
		if api.ContainsLanguage(langs, language) {
			cfg.TrapCaches[language] = dir
		}
	}
	return cfg, nil
}

// mergePacks applies the packs input to the packs of the document.
// A combining input is appended to the document's packs for the
// analyzed language; otherwise it replaces them all.
func mergePacks(filePacks source.Optional[api.PacksByLanguage], props augment.Properties, langs []api.Language) api.PacksByLanguage {
	result := api.PacksByLanguage{}
	if filePacks.Set {
		for _, language := range filePacks.Value.SortedLanguages() {
			result[language] = append([]string{}, filePacks.Value[language]...)
		}
	}
	if props.PacksInput == nil {
		return result
	}

	language := langs[0]
	if props.PacksInputCombines {
		result[language] = append(result[language], props.PacksInput...)
		return result
	}
	return api.PacksByLanguage{language: append([]string{}, props.PacksInput...)}
}

func orEmpty(paths source.Optional[[]string]) []string {
	if !paths.Set || paths.Value == nil {
		return []string{}
	}
	return paths.Value
}
