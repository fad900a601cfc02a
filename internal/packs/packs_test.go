package packs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replit/scaninit/internal/api"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		input    string
		expected Pack
	}{
		{"a/b", Pack{Name: "a/b"}},
		{"a-b/c-d", Pack{Name: "a-b/c-d"}},
		{"a1/b2", Pack{Name: "a1/b2"}},
		{"a/b@1.2.3", Pack{Name: "a/b", Version: "1.2.3"}},
		{"a/b@~1.2.3", Pack{Name: "a/b", Version: "~1.2.3"}},
		{"a/b@^1.2.3", Pack{Name: "a/b", Version: "^1.2.3"}},
		{"a/b@>=1.0.0 <2.0.0", Pack{Name: "a/b", Version: ">=1.0.0 <2.0.0"}},
		{"a/b@1.x", Pack{Name: "a/b", Version: "1.x"}},
		{"a/b@*", Pack{Name: "a/b", Version: "*"}},
		{"a/b@1.0.0-beta.1", Pack{Name: "a/b", Version: "1.0.0-beta.1"}},
		{"a/b@1.0.0 - 2.0.0", Pack{Name: "a/b", Version: "1.0.0 - 2.0.0"}},
		{"a/b@1.x || ^2.0.0", Pack{Name: "a/b", Version: "1.x || ^2.0.0"}},
		{"a/b@~1.2.3:abc/def", Pack{Name: "a/b", Version: "~1.2.3", Path: "abc/def"}},
		{"a/b:abc/def", Pack{Name: "a/b", Path: "abc/def"}},
		{"a/b:z:a", Pack{Name: "a/b", Path: "z:a"}},
		{"   a/b:abc/def    ", Pack{Name: "a/b", Path: "abc/def"}},
		{"a/b @ 1.2.3 : some path/x.ql", Pack{Name: "a/b", Version: "1.2.3", Path: "some path/x.ql"}},
		{"a/b@1.2.3:a b/c d", Pack{Name: "a/b", Version: "1.2.3", Path: "a b/c d"}},
	}
	for _, c := range cases {
		p, err := Parse(c.input)
		require.NoError(t, err, c.input)
		assert.Equal(t, c.expected, p, c.input)
	}
}

func TestParseInvalid(t *testing.T) {
	inputs := []string{
		"",
		"c",
		"c/",
		"/d",
		"c-/d",
		"-c/d",
		"c/d-",
		"c--d/e",
		"c/d_d",
		"C/d",
		"c/d/e",
		"c/d@",
		"c/d@@",
		"c/d@1.0.0:",
		"c/d:",
		"c/d:/a",
		"c/d:a/../b",
		"c/d:../a",
		"c/d:a//b",
		"@1.0.0:a",
		"c/d@../a",
		"c/d@b/../a",
		"c/d:z@1",
		"c/d@1.0.0@2",
		"c/d@1.x.3",
	}
	for _, input := range inputs {
		_, err := Parse(input)
		require.Error(t, err, input)
		assert.Equal(t, api.ErrInvalidPack, api.UserErrorKindOf(err), input)
	}
}

func TestParseErrorUsesOriginalText(t *testing.T) {
	_, err := Parse("  c/d_d  ")
	require.Error(t, err)
	assert.Equal(t, `"  c/d_d  " is not a valid pack`, err.Error())
}

func TestValidate(t *testing.T) {
	canonical, err := Validate("  a/b @ ~1.2.3 : x y/z  ")
	require.NoError(t, err)
	assert.Equal(t, "a/b@~1.2.3:x y/z", canonical)

	_, err = Validate("not a pack")
	assert.Error(t, err)
}

func TestCanonicalRoundTrip(t *testing.T) {
	inputs := []string{
		"a/b",
		" a/b@1.2.3 ",
		"a/b : p/q",
		"a/b@ ^1.0.0 :x.qls",
		"a/b@>=1.0.0 <2.0.0:a b",
	}
	for _, input := range inputs {
		first, err := Validate(input)
		require.NoError(t, err, input)
		second, err := Validate(first)
		require.NoError(t, err, first)
		assert.Equal(t, first, second)
	}
}
