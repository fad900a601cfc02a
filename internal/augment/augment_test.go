package augment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replit/scaninit/internal/api"
)

var javascript = []api.Language{api.LanguageJavaScript}

func TestCalculateNoInputs(t *testing.T) {
	props, err := Calculate("", "", javascript)
	require.NoError(t, err)
	assert.Equal(t, Properties{}, props)
	assert.Nil(t, props.PacksInput)
	assert.Nil(t, props.QueriesInput)
}

func TestCalculateCombiningPacks(t *testing.T) {
	props, err := Calculate(" +a/x , b/y", "", javascript)
	require.NoError(t, err)
	assert.Equal(t, Properties{
		PacksInputCombines: true,
		PacksInput:         []string{"a/x", "b/y"},
	}, props)
}

func TestCalculateOverridingPacks(t *testing.T) {
	props, err := Calculate("a/x@1.0.0, b/y:some/path", "", javascript)
	require.NoError(t, err)
	assert.False(t, props.PacksInputCombines)
	assert.Equal(t, []string{"a/x@1.0.0", "b/y:some/path"}, props.PacksInput)
}

func TestCalculateQueries(t *testing.T) {
	props, err := Calculate("", " + ./a.ql, security-extended ", javascript)
	require.NoError(t, err)
	assert.Equal(t, Properties{
		QueriesInputCombines: true,
		QueriesInput: []api.QuerySpec{
			{Uses: "./a.ql"},
			{Uses: "security-extended"},
		},
	}, props)

	props, err = Calculate("", "x/y@main", nil)
	require.NoError(t, err)
	assert.False(t, props.QueriesInputCombines)
	assert.Equal(t, []api.QuerySpec{{Uses: "x/y@main"}}, props.QueriesInput)
}

func TestCalculateEmptyCombine(t *testing.T) {
	_, err := Calculate("", "+", javascript)
	require.Error(t, err)
	assert.Equal(t, api.ErrCombineMarkerEmpty, api.UserErrorKindOf(err))
	assert.Contains(t, err.Error(), `The workflow property "queries" is invalid`)

	_, err = Calculate("  +  ", "", javascript)
	require.Error(t, err)
	assert.Equal(t, api.ErrCombineMarkerEmpty, api.UserErrorKindOf(err))
	assert.Contains(t, err.Error(), `The workflow property "packs" is invalid`)
}

func TestCalculateInvalidPack(t *testing.T) {
	_, err := Calculate("a/b,not_a_pack", "", javascript)
	require.Error(t, err)
	assert.Equal(t, api.ErrInvalidPack, api.UserErrorKindOf(err))
	assert.Equal(t, `"not_a_pack" is not a valid pack`, err.Error())
}

func TestParsePacksFromInput(t *testing.T) {
	packs, combine, err := ParsePacksFromInput("a/b,c/d@1.2.3", []api.Language{api.LanguageCpp})
	require.NoError(t, err)
	assert.False(t, combine)
	assert.Equal(t, api.PacksByLanguage{api.LanguageCpp: {"a/b", "c/d@1.2.3"}}, packs)

	packs, _, err = ParsePacksFromInput("  ", []api.Language{api.LanguageCpp})
	require.NoError(t, err)
	assert.Nil(t, packs)
}

func TestParsePacksFromInputMultiLanguage(t *testing.T) {
	_, _, err := ParsePacksFromInput("a/b,c/d@1.2.3", []api.Language{api.LanguageCpp, api.LanguageJava})
	require.Error(t, err)
	assert.Equal(t, api.ErrPacksInputMultiLanguage, api.UserErrorKindOf(err))
}

func TestParsePacksFromInputNoLanguages(t *testing.T) {
	_, _, err := ParsePacksFromInput("a/b", nil)
	require.Error(t, err)
	assert.Equal(t, api.ErrNoLanguages, api.UserErrorKindOf(err))
}
