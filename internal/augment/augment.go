// Package augment works out how the packs and queries inputs of a run
// combine with, or override, what the configuration file declares.
package augment

import (
	"strings"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/packs"
)

// Properties records the packs and queries inputs after parsing. A
// nil list means the input was not given.
type Properties struct {
	// True if the queries input started with "+", so its queries
	// are added to those of the configuration file.
	QueriesInputCombines bool            `json:"queriesInputCombines"`
	QueriesInput         []api.QuerySpec `json:"queriesInput,omitempty"`

	// True if the packs input started with "+", so its packs are
	// added to those of the configuration file.
	PacksInputCombines bool     `json:"packsInputCombines"`
	PacksInput         []string `json:"packsInput,omitempty"`
}

// Calculate parses the raw packs and queries inputs. Blank inputs are
// treated as absent.
func Calculate(rawPacksInput, rawQueriesInput string, languages []api.Language) (Properties, error) {
	props := Properties{}

	packsByLanguage, packsCombine, err := ParsePacksFromInput(rawPacksInput, languages)
	if err != nil {
		return Properties{}, err
	}
	if packsByLanguage != nil {
		props.PacksInputCombines = packsCombine
		props.PacksInput = packsByLanguage[languages[0]]
	}

	queries, queriesCombine, err := parseQueriesFromInput(rawQueriesInput)
	if err != nil {
		return Properties{}, err
	}
	props.QueriesInput = queries
	props.QueriesInputCombines = queriesCombine

	return props, nil
}

// ParsePacksFromInput parses a comma-separated packs input for a
// single-language analysis and returns the canonical packs keyed by
// that language, along with whether the input combines with the
// configuration file. It returns nil for a blank input.
func ParsePacksFromInput(rawPacksInput string, languages []api.Language) (api.PacksByLanguage, bool, error) {
	if strings.TrimSpace(rawPacksInput) == "" {
		return nil, false, nil
	}
	if len(languages) > 1 {
		return nil, false, api.NewUserError(api.ErrPacksInputMultiLanguage,
			"Cannot specify a 'packs' input in a multi-language analysis. Use a codeql-config.yml file instead and specify packs by language.")
	}
	if len(languages) == 0 {
		return nil, false, api.NewUserError(api.ErrNoLanguages,
			"No languages specified. Cannot process the packs input.")
	}

	body, combine, err := stripCombineMarker(rawPacksInput, "packs")
	if err != nil {
		return nil, false, err
	}

	result := []string{}
	for _, token := range strings.Split(body, ",") {
		canonical, err := packs.Validate(token)
		if err != nil {
			return nil, false, err
		}
		result = append(result, canonical)
	}
	return api.PacksByLanguage{languages[0]: result}, combine, nil
}

func parseQueriesFromInput(rawQueriesInput string) ([]api.QuerySpec, bool, error) {
	if strings.TrimSpace(rawQueriesInput) == "" {
		return nil, false, nil
	}

	body, combine, err := stripCombineMarker(rawQueriesInput, "queries")
	if err != nil {
		return nil, false, err
	}

	result := []api.QuerySpec{}
	for _, token := range strings.Split(body, ",") {
		result = append(result, api.QuerySpec{Uses: strings.TrimSpace(token)})
	}
	return result, combine, nil
}

// stripCombineMarker trims raw and removes a leading "+". A "+" with
// nothing after it is an error.
func stripCombineMarker(raw string, property string) (string, bool, error) {
	body := strings.TrimSpace(raw)
	if !strings.HasPrefix(body, "+") {
		return body, false, nil
	}
	body = strings.TrimSpace(body[1:])
	if body == "" {
		return "", false, api.NewUserError(api.ErrCombineMarkerEmpty,
			"The workflow property %q is invalid: A '+' was used in the '%s' input to specify that you wished to add some %s to your CodeQL analysis. However, no %s were specified. Please either remove the '+' or specify some %s.",
			property, property, property, property, property)
	}
	return body, true, nil
}
