package initconfig

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/source"
	"github.com/replit/scaninit/internal/trace"
	"github.com/replit/scaninit/internal/util"
)

const defaultSuite = "code-scanning"

// Suites that can be named without a language in queries.uses.
var builtinSuites = []string{"security-extended", "security-and-quality"}

// queryPlan is the list of query specifiers to hand to the engine,
// split by how they must be resolved.
type queryPlan struct {
	builtin []string
	custom  []string

	// Set when a custom query is a path in the workspace, which
	// then becomes an extra search path.
	local bool
}

// queryErrorf reports a bad queries.uses value, naming the file it
// came from when there is one.
func queryErrorf(configFile string, format string, a ...interface{}) error {
	if configFile == "" {
		return api.NewUserError(api.ErrInvalidQuery,
			"The workflow property \"queries\" is invalid: %s", fmt.Sprintf(format, a...))
	}
	return api.NewUserError(api.ErrInvalidQuery,
		"The configuration file %q is invalid: property \"queries.uses\" is invalid as %s",
		configFile, fmt.Sprintf(format, a...))
}

// planQueries collects the queries of a run: the default suite of
// every language unless disabled, then the queries input, then the
// file's queries unless the queries input replaces them.
func planQueries(workspace string, langs []api.Language, configFile string, disableDefault bool, inputQueries []api.QuerySpec, inputCombines bool, fileQueries []api.QuerySpec) (queryPlan, error) {
	plan := queryPlan{}
	if !disableDefault {
		for _, language := range langs {
			plan.builtin = util.AppendUnique(plan.builtin, fmt.Sprintf("%s-%s.qls", language, defaultSuite))
		}
	}

	type use struct {
		uses   string
		origin string
	}
	var uses []use
	for _, q := range inputQueries {
		uses = append(uses, use{q.Uses, ""})
	}
	if inputQueries == nil || inputCombines {
		for _, q := range fileQueries {
			uses = append(uses, use{q.Uses, configFile})
		}
	}

	for _, u := range uses {
		if err := plan.add(workspace, langs, u.uses, u.origin); err != nil {
			return queryPlan{}, err
		}
	}
	return plan, nil
}

func (p *queryPlan) add(workspace string, langs []api.Language, uses string, configFile string) error {
	uses = strings.TrimSpace(uses)
	if uses == "" {
		return queryErrorf(configFile, "a \"uses\" value is empty")
	}

	for _, suite := range builtinSuites {
		if uses == suite {
			for _, language := range langs {
				p.builtin = util.AppendUnique(p.builtin, fmt.Sprintf("%s-%s.qls", language, suite))
			}
			return nil
		}
	}

	if strings.HasPrefix(uses, "./") {
		resolved, err := localQueryPath(workspace, uses, configFile)
		if err != nil {
			return err
		}
		p.custom = util.AppendUnique(p.custom, resolved)
		p.local = true
		return nil
	}

	p.custom = util.AppendUnique(p.custom, uses)
	return nil
}

// localQueryPath resolves a "./" query path against the workspace.
// The path must exist and, after following links, stay inside the
// workspace.
func localQueryPath(workspace string, uses string, configFile string) (string, error) {
	absolute := filepath.Join(workspace, uses)
	exists, err := util.FileExists(absolute)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", queryErrorf(configFile, "the local path %q does not exist", uses)
	}

	target, err := filepath.EvalSymlinks(absolute)
	if err != nil {
		return "", err
	}
	realWorkspace, err := filepath.EvalSymlinks(workspace)
	if err != nil {
		return "", err
	}
	if !source.Within(realWorkspace, target) {
		return "", queryErrorf(configFile, "the local path %q is outside of the repository", uses)
	}
	return target, nil
}

// resolve asks the engine for the query files of the plan. Built-in
// suites and custom queries are resolved separately so that the two
// stay apart in the result.
func (p *queryPlan) resolve(ctx context.Context, engine api.Engine, workspace string, langs []api.Language) (map[api.Language]LanguageQueries, error) {
	span, ctx := trace.StartSpan(ctx, "initconfig.resolveQueries")
	defer span.Finish()

	result := map[api.Language]LanguageQueries{}
	for _, language := range langs {
		result[language] = LanguageQueries{Builtin: []string{}, Custom: []CustomQueries{}}
	}

	if len(p.builtin) > 0 {
		byLanguage, err := resolveWith(ctx, engine, p.builtin, "")
		if err != nil {
			return nil, err
		}
		for language, files := range byLanguage {
			q, ok := result[language]
			if !ok {
				util.Logger.Debug("ignoring queries for a language that is not analyzed", "language", language)
				continue
			}
			q.Builtin = append(q.Builtin, files...)
			result[language] = q
		}
	}

	if len(p.custom) > 0 {
		searchPath := ""
		if p.local {
			searchPath = workspace
		}
		byLanguage, err := resolveWith(ctx, engine, p.custom, searchPath)
		if err != nil {
			return nil, err
		}
		for language, files := range byLanguage {
			q, ok := result[language]
			if !ok {
				util.Logger.Debug("ignoring queries for a language that is not analyzed", "language", language)
				continue
			}
			q.Custom = append(q.Custom, CustomQueries{Queries: files, SearchPath: searchPath})
			result[language] = q
		}
	}

	return result, nil
}

// resolveWith runs one engine resolution and rejects queries whose
// language cannot be told.
func resolveWith(ctx context.Context, engine api.Engine, queries []string, searchPath string) (map[api.Language][]string, error) {
	util.Logger.Debug("resolving queries", "queries", queries, "searchPath", searchPath)
	out, err := engine.ResolveQueries(ctx, queries, searchPath)
	if err != nil {
		return nil, fmt.Errorf("resolving queries %s: %w", strings.Join(queries, ", "), err)
	}

	if len(out.NoDeclaredLanguage) > 0 {
		return nil, api.NewUserError(api.ErrInvalidQuery,
			"The following queries do not declare a language. Their qlpack.yml files are either missing or is invalid.\n%s",
			strings.Join(sortedSet(out.NoDeclaredLanguage), "\n"))
	}
	if len(out.MultipleDeclaredLanguages) > 0 {
		return nil, api.NewUserError(api.ErrInvalidQuery,
			"The following queries declare multiple languages. Their qlpack.yml files are either missing or is invalid.\n%s",
			strings.Join(sortedSet(out.MultipleDeclaredLanguages), "\n"))
	}

	result := map[api.Language][]string{}
	for language, files := range out.ByLanguage {
		if len(files) > 0 {
			result[language] = sortedSet(files)
		}
	}
	return result, nil
}

func sortedSet(set map[string]struct{}) []string {
	result := make([]string, 0, len(set))
	for s := range set {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}
