package packs

import (
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"
)

// Operators allowed in front of a version in a range. Longer
// operators come first so ">=" is not read as ">".
var operators = []string{">=", "<=", ">", "<", "=", "^", "~"}

// Matches an operator separated from its version by whitespace, as in
// ">= 1.2.3".
var detachedOperator = regexp.MustCompile(`(>=|<=|>|<|=|\^|~)\s+`)

// validRange reports whether r is a version range in the usual
// package-manager syntax: comparators separated by whitespace,
// alternatives separated by "||", hyphen ranges, and "x"/"*"
// wildcards.
func validRange(r string) bool {
	if strings.TrimSpace(r) == "" {
		return false
	}
	r = detachedOperator.ReplaceAllString(r, "$1")
	for _, alternative := range strings.Split(r, "||") {
		fields := strings.Fields(alternative)
		if len(fields) == 0 {
			return false
		}
		if len(fields) == 3 && fields[1] == "-" {
			if !validPartial(fields[0]) || !validPartial(fields[2]) {
				return false
			}
			continue
		}
		for _, field := range fields {
			if !validComparator(field) {
				return false
			}
		}
	}
	return true
}

func validComparator(c string) bool {
	for _, op := range operators {
		if strings.HasPrefix(c, op) {
			c = c[len(op):]
			break
		}
	}
	return validPartial(c)
}

// validPartial accepts a full version, or a version whose trailing
// components are wildcards ("1.x", "1.2.*", "*").
func validPartial(v string) bool {
	if v == "" {
		return false
	}
	if !strings.ContainsAny(v, "xX*") {
		_, err := version.NewVersion(v)
		return err == nil
	}

	parts := strings.Split(strings.TrimPrefix(v, "v"), ".")
	if len(parts) > 3 {
		return false
	}
	concrete := []string{}
	wild := false
	for _, part := range parts {
		switch part {
		case "x", "X", "*":
			wild = true
		default:
			if wild {
				return false
			}
			concrete = append(concrete, part)
		}
	}
	if len(concrete) == 0 {
		return true
	}
	_, err := version.NewVersion(strings.Join(concrete, "."))
	return err == nil
}
