package source

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/languages"
	"github.com/replit/scaninit/internal/packs"
	"github.com/replit/scaninit/internal/util"
)

// Optional is a document field that may be absent. Malformed fields
// never get this far; they are rejected during validation.
type Optional[T any] struct {
	Value T
	Set   bool
}

func some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// UserConfig is a validated configuration document.
type UserConfig struct {
	Name                  Optional[string]
	DisableDefaultQueries Optional[bool]
	Queries               Optional[[]api.QuerySpec]
	Paths                 Optional[[]string]
	PathsIgnore           Optional[[]string]
	Packs                 Optional[api.PacksByLanguage]

	// Raw is the document exactly as parsed, for display and for
	// tools downstream. It is nil for an empty document.
	Raw map[string]interface{}
}

// stringKeys rewrites nested mappings decoded with non-string keys,
// such as {1: a} or {true: yes}, so the document can be stored as
// JSON. Keys are formatted with fmt.Sprint.
func stringKeys(v interface{}) interface{} {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = stringKeys(e)
		}
		return m
	case map[string]interface{}:
		for k, e := range v {
			v[k] = stringKeys(e)
		}
		return v
	case []interface{}:
		for i, e := range v {
			v[i] = stringKeys(e)
		}
		return v
	default:
		return v
	}
}

// propertyError builds the error for a malformed property.
type propertyError func(property string, format string, a ...interface{}) error

// parseDocument parses and validates contents. languages are the
// languages being analyzed; they decide how a packs list without
// language keys is interpreted.
func parseDocument(contents []byte, langs []api.Language, invalid propertyError, unreadable func(error) error) (UserConfig, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(contents, &root); err != nil {
		return UserConfig{}, unreadable(err)
	}

	// An empty file parses to a zero node.
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return UserConfig{}, nil
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode {
		doc = doc.Content[0]
	}
	if doc.Kind == yaml.ScalarNode && doc.ShortTag() == "!!null" {
		return UserConfig{}, nil
	}
	if doc.Kind != yaml.MappingNode {
		return UserConfig{}, unreadable(fmt.Errorf("top level is not a mapping"))
	}

	cfg := UserConfig{}
	if err := doc.Decode(&cfg.Raw); err != nil {
		return UserConfig{}, unreadable(err)
	}
	for k, v := range cfg.Raw {
		cfg.Raw[k] = stringKeys(v)
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i].Value, doc.Content[i+1]
		var err error
		switch key {
		case "name":
			if !isString(value) || value.Value == "" {
				return UserConfig{}, invalid("name", "must be a non-empty string")
			}
			cfg.Name = some(value.Value)

		case "disable-default-queries":
			var b bool
			if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!bool" || value.Decode(&b) != nil {
				return UserConfig{}, invalid("disable-default-queries", "must be a boolean")
			}
			cfg.DisableDefaultQueries = some(b)

		case "queries":
			var queries []api.QuerySpec
			queries, err = parseQueries(value, invalid)
			cfg.Queries = some(queries)

		case "paths", "paths-ignore":
			var paths []string
			paths, err = parsePaths(key, value, invalid)
			if key == "paths" {
				cfg.Paths = some(paths)
			} else {
				cfg.PathsIgnore = some(paths)
			}

		case "packs":
			var byLanguage api.PacksByLanguage
			byLanguage, err = parsePacks(value, langs, invalid)
			cfg.Packs = some(byLanguage)
		}
		if err != nil {
			return UserConfig{}, err
		}
	}
	return cfg, nil
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func parseQueries(value *yaml.Node, invalid propertyError) ([]api.QuerySpec, error) {
	if value.Kind != yaml.SequenceNode {
		return nil, invalid("queries", "must be an array")
	}
	result := []api.QuerySpec{}
	for _, item := range value.Content {
		if item.Kind != yaml.MappingNode {
			return nil, invalid("queries", "must be an array of objects with a \"uses\" property")
		}
		var uses *yaml.Node
		for j := 0; j+1 < len(item.Content); j += 2 {
			if item.Content[j].Value == "uses" {
				uses = item.Content[j+1]
			}
		}
		if uses == nil || !isString(uses) || strings.TrimSpace(uses.Value) == "" {
			return nil, invalid("queries.uses", "must be a non-empty string")
		}
		result = append(result, api.QuerySpec{Uses: strings.TrimSpace(uses.Value)})
	}
	return result, nil
}

func parsePaths(property string, value *yaml.Node, invalid propertyError) ([]string, error) {
	if value.Kind != yaml.SequenceNode {
		return nil, invalid(property, "must be an array")
	}
	result := []string{}
	for _, item := range value.Content {
		if !isString(item) {
			return nil, invalid(property, "must be an array of non-empty strings")
		}
		sanitized, err := sanitizePath(property, item.Value, invalid)
		if err != nil {
			return nil, err
		}
		result = append(result, sanitized)
	}
	return result, nil
}

// sanitizePath makes a path filter relative to the source root and
// drops a redundant trailing "**".
func sanitizePath(property string, original string, invalid propertyError) (string, error) {
	p := strings.TrimLeft(original, "/")
	if strings.HasSuffix(p, "/**") {
		p = p[:len(p)-2]
	}
	if p == "" {
		return "", invalid(property, "%q is not an invalid path. It is not necessary to include it, and it is not allowed to exclude it.", original)
	}
	if strings.ContainsRune(p, '\\') {
		return "", invalid(property, "%q contains an \"\\\" character. These are not allowed in filters. If running on windows we recommend using \"/\" instead for path filters.", original)
	}
	if strings.Contains(strings.ReplaceAll(p, "**/", ""), "**") {
		util.Logger.Warn("\"**\" should only be used as a complete path component", "property", property, "path", original)
	}
	if strings.ContainsAny(p, "?+[]!") {
		util.Logger.Warn("path filters are globs, not regular expressions", "property", property, "path", original)
	}
	return p, nil
}

func parsePackList(property string, value *yaml.Node, invalid propertyError) ([]string, error) {
	if value.Kind != yaml.SequenceNode {
		return nil, invalid(property, "must be an array")
	}
	result := []string{}
	for _, item := range value.Content {
		if !isString(item) {
			return nil, invalid(property, "must be an array of strings")
		}
		canonical, err := packs.Validate(item.Value)
		if err != nil {
			return nil, err
		}
		result = append(result, canonical)
	}
	return result, nil
}

// parsePacks accepts either a list of packs, which is only allowed
// when a single language is analyzed, or a map from language to a
// list of packs. Map keys go through the same normalization as the
// languages input.
func parsePacks(value *yaml.Node, langs []api.Language, invalid propertyError) (api.PacksByLanguage, error) {
	switch value.Kind {
	case yaml.SequenceNode:
		if len(langs) != 1 {
			return nil, invalid("packs", "must split packages by language")
		}
		list, err := parsePackList("packs", value, invalid)
		if err != nil {
			return nil, err
		}
		return api.PacksByLanguage{langs[0]: list}, nil

	case yaml.MappingNode:
		result := api.PacksByLanguage{}
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i].Value
			language, ok := languages.Parse(key)
			if !ok {
				return nil, invalid("packs", "has %q, which is not a known language", key)
			}
			list, err := parsePackList("packs."+key, value.Content[i+1], invalid)
			if err != nil {
				return nil, err
			}
			result[language] = append(result[language], list...)
		}
		return result, nil

	default:
		return nil, invalid("packs", "must be an array or an object")
	}
}
