// Package languages normalizes, validates and resolves the set of
// languages to analyze.
package languages

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/util"
)

// Keep up to date with the constants in internal/api.
var canonical = []api.Language{
	api.LanguageCpp,
	api.LanguageCSharp,
	api.LanguageGo,
	api.LanguageJava,
	api.LanguageJavaScript,
	api.LanguagePython,
	api.LanguageRuby,
	api.LanguageSwift,
}

// Map from lower-cased alias to the language it stands for. Keys are
// already normalized, so GitHub's display names ("C#", "C++",
// "TypeScript") resolve after lower-casing.
var aliases = map[string]api.Language{
	"c":          api.LanguageCpp,
	"c++":        api.LanguageCpp,
	"c#":         api.LanguageCSharp,
	"kotlin":     api.LanguageJava,
	"typescript": api.LanguageJavaScript,
}

// All returns every canonical language, sorted.
func All() []api.Language {
	result := make([]api.Language, len(canonical))
	copy(result, canonical)
	return result
}

// Aliases returns the aliases of language, sorted.
func Aliases(language api.Language) []string {
	result := []string{}
	for alias, l := range aliases {
		if l == language {
			result = append(result, alias)
		}
	}
	sort.Strings(result)
	return result
}

// Normalize trims, lower-cases and alias-substitutes name. The result
// is not necessarily a known language; use Parse for that.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if l, ok := aliases[name]; ok {
		return string(l)
	}
	return name
}

// Parse returns the canonical language for name, if there is one.
func Parse(name string) (api.Language, bool) {
	normalized := api.Language(Normalize(name))
	if api.ContainsLanguage(canonical, normalized) {
		return normalized, true
	}
	return "", false
}

// Resolver resolves the languages input against the engine.
type Resolver struct {
	Engine api.Engine

	// Stats is only consulted when the input is empty.
	Stats      api.LanguageStats
	Repository api.RepositoryNwo
}

// Resolve returns the deduplicated, sorted set of languages to
// analyze. With a non-empty input every token must name (directly or
// through an alias) a language the engine supports. With an empty
// input the repository's detected languages are used and anything
// unsupported is dropped.
func (r *Resolver) Resolve(ctx context.Context, input string) ([]api.Language, error) {
	supported, err := r.Engine.ResolveLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving supported languages: %w", err)
	}

	tokens := util.SplitAndTrim(input, ",\n")
	fromUser := len(tokens) > 0
	if !fromUser {
		tokens, err = r.detected(ctx)
		if err != nil {
			return nil, err
		}
	}

	result := []api.Language{}
	unknown := []string{}
	for _, token := range tokens {
		language, ok := Parse(token)
		if !ok || !supported[string(language)] {
			unknown = util.AppendUnique(unknown, token)
			continue
		}
		if !api.ContainsLanguage(result, language) {
			result = append(result, language)
		}
	}

	if fromUser && len(unknown) > 0 {
		return nil, api.NewUserError(api.ErrUnknownLanguages,
			"Did not recognise the following languages: %s", strings.Join(unknown, ", "))
	}
	if !fromUser && len(unknown) > 0 {
		util.Logger.Debug("ignoring unsupported repository languages", "languages", unknown)
	}
	if len(result) == 0 {
		return nil, api.NewUserError(api.ErrNoLanguages,
			"Did not detect any languages to analyze. Please update input in workflow or check that GitHub detects the correct languages in your repository.")
	}

	api.SortLanguages(result)
	return result, nil
}

// detected asks the repository language statistics which languages
// the repository contains.
func (r *Resolver) detected(ctx context.Context) ([]string, error) {
	if r.Stats == nil {
		return nil, nil
	}
	stats, err := r.Stats.ListLanguages(ctx, r.Repository.Owner, r.Repository.Repo)
	if err != nil {
		return nil, fmt.Errorf("listing languages of %s: %w", r.Repository, err)
	}
	names := []string{}
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	util.Logger.Debug("languages detected in repository", "languages", names)
	return names, nil
}
