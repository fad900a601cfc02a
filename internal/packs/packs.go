// Package packs parses, validates and canonicalizes pack
// specifications of the form "scope/name[@version][:path]".
package packs

import (
	"path"
	"regexp"
	"strings"

	"github.com/replit/scaninit/internal/api"
)

// A scope or name component: lower-case alphanumerics with single
// hyphens between them.
const component = `[a-z0-9](?:-?[a-z0-9])*`

var namePattern = regexp.MustCompile(`^` + component + `/` + component + `$`)

// Pack is a parsed pack specification. Version and Path are empty
// when absent.
type Pack struct {
	Name    string
	Version string
	Path    string
}

// String returns the canonical form of p.
func (p Pack) String() string {
	s := p.Name
	if p.Version != "" {
		s += "@" + p.Version
	}
	if p.Path != "" {
		s += ":" + p.Path
	}
	return s
}

// Parse parses text into a Pack. Whitespace around the whole
// specification and around the "@" and ":" delimiters is ignored;
// whitespace inside the path is kept.
func Parse(text string) (Pack, error) {
	invalid := api.NewUserError(api.ErrInvalidPack, "\"%s\" is not a valid pack", text)

	spec := strings.TrimSpace(text)
	name := spec
	var version, subPath string
	hasVersion, hasPath := false, false

	if at := strings.IndexByte(spec, '@'); at >= 0 {
		hasVersion = true
		name = spec[:at]
		version = spec[at+1:]
		if colon := strings.IndexByte(version, ':'); colon >= 0 {
			hasPath = true
			subPath = version[colon+1:]
			version = version[:colon]
		}
	} else if colon := strings.IndexByte(spec, ':'); colon >= 0 {
		hasPath = true
		name = spec[:colon]
		subPath = spec[colon+1:]
	}

	name = strings.TrimSpace(name)
	version = strings.TrimSpace(version)
	subPath = strings.TrimSpace(subPath)

	if !namePattern.MatchString(name) {
		return Pack{}, invalid
	}
	if hasVersion && !validRange(version) {
		return Pack{}, invalid
	}
	if hasPath && !validPath(subPath) {
		return Pack{}, invalid
	}

	return Pack{Name: name, Version: version, Path: subPath}, nil
}

// Validate checks text and returns its canonical form.
func Validate(text string) (string, error) {
	p, err := Parse(text)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// validPath accepts non-empty relative paths that are already in
// normal form and do not climb out of the pack.
func validPath(p string) bool {
	if p == "" || path.IsAbs(p) || strings.ContainsRune(p, '\\') {
		return false
	}
	if path.Clean(p) != p {
		return false
	}
	return p != ".." && !strings.HasPrefix(p, "../")
}
