// Package source finds the configuration document for a run (inline
// text, a file in the workspace, or a file in another repository),
// parses it, and validates it into a UserConfig.
package source

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/util"
)

// Origin says where the configuration document came from.
type Origin int

const (
	OriginNone Origin = iota
	OriginInline
	OriginLocal
	OriginRemote
)

func (o Origin) String() string {
	switch o {
	case OriginInline:
		return "inline"
	case OriginLocal:
		return "local"
	case OriginRemote:
		return "remote"
	default:
		return "none"
	}
}

// Request describes where to look for the configuration.
type Request struct {
	// ConfigInput is inline configuration text. It takes
	// precedence over ConfigFile.
	ConfigInput string

	// ConfigFile is a path relative to WorkspacePath, or a
	// remote reference "owner/repo/path@ref".
	ConfigFile    string
	WorkspacePath string

	// Languages being analyzed. Needed to interpret a packs list
	// that is not split by language.
	Languages []api.Language

	// Fetcher is only used for remote references.
	Fetcher api.ContentFetcher
}

// Result is a loaded configuration document.
type Result struct {
	Origin Origin

	// Location is the file path or remote reference the
	// document was read from.
	Location string
	Config   UserConfig
}

var remotePattern = regexp.MustCompile(`^([^/]+)/([^/]+)/([^@]+)@(.*)$`)

// Load finds, parses and validates the configuration document. With
// neither inline text nor a file reference it returns an empty
// document.
func Load(ctx context.Context, req Request) (*Result, error) {
	switch {
	case strings.TrimSpace(req.ConfigInput) != "":
		cfg, err := parseDocument([]byte(req.ConfigInput), req.Languages,
			inlinePropertyError, inlineUnreadable)
		if err != nil {
			return nil, err
		}
		return &Result{Origin: OriginInline, Config: cfg}, nil

	case strings.TrimSpace(req.ConfigFile) == "":
		return &Result{Origin: OriginNone}, nil

	case isLocal(req.ConfigFile):
		return loadLocal(req)

	default:
		return loadRemote(ctx, req)
	}
}

// isLocal reports whether configFile names a file in the workspace
// rather than a remote reference.
func isLocal(configFile string) bool {
	if strings.HasPrefix(configFile, "./") {
		return true
	}
	return !strings.Contains(configFile, "@")
}

func loadLocal(req Request) (*Result, error) {
	configFile := req.ConfigFile
	workspace, err := filepath.Abs(req.WorkspacePath)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace %s: %w", req.WorkspacePath, err)
	}
	resolved := configFile
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(workspace, resolved)
	}
	resolved = filepath.Clean(resolved)

	if !Within(workspace, resolved) {
		return nil, api.NewUserError(api.ErrConfigFileOutsideWorkspace,
			"The configuration file %q is outside of the workspace", configFile)
	}
	info, err := os.Stat(resolved)
	if errors.Is(err, os.ErrNotExist) {
		return nil, api.NewUserError(api.ErrConfigFileDoesNotExist,
			"The configuration file %q does not exist", configFile)
	} else if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, api.NewUserError(api.ErrConfigFileDirectoryGiven,
			"The configuration file %q looks like a directory, not a file", configFile)
	}

	contents, err := os.ReadFile(resolved)
	if err != nil {
		return nil, err
	}
	util.Logger.Debug("loaded configuration file", "path", resolved)

	cfg, err := parseDocument(contents, req.Languages,
		filePropertyError(configFile), fileUnreadable(configFile))
	if err != nil {
		return nil, err
	}
	return &Result{Origin: OriginLocal, Location: resolved, Config: cfg}, nil
}

// Within reports whether path is root or below it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func loadRemote(ctx context.Context, req Request) (*Result, error) {
	configFile := req.ConfigFile
	pieces := remotePattern.FindStringSubmatch(configFile)
	if pieces == nil {
		return nil, api.NewUserError(api.ErrConfigFileRepoFormatInvalid,
			"The configuration file %q is not a supported remote file reference. Expected format <owner>/<repository>/<file-path>@<ref>", configFile)
	}
	owner, repo, path, ref := pieces[1], pieces[2], pieces[3], pieces[4]

	if req.Fetcher == nil {
		return nil, fmt.Errorf("no content fetcher configured for remote configuration file %s", configFile)
	}
	content, err := req.Fetcher.GetContent(ctx, owner, repo, path, ref)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", configFile, err)
	}
	if content.IsDirectory {
		return nil, api.NewUserError(api.ErrConfigFileDirectoryGiven,
			"The configuration file %q looks like a directory, not a file", configFile)
	}
	if content.Content == nil {
		return nil, api.NewUserError(api.ErrConfigFileFormatInvalid,
			"The configuration file %q could not be read", configFile)
	}

	// The contents API wraps base64 at 60 columns.
	encoded := strings.Join(strings.Fields(*content.Content), "")
	contents, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fileUnreadable(configFile)(err)
	}

	cfg, err := parseDocument(contents, req.Languages,
		filePropertyError(configFile), fileUnreadable(configFile))
	if err != nil {
		return nil, err
	}
	return &Result{Origin: OriginRemote, Location: configFile, Config: cfg}, nil
}

func filePropertyError(configFile string) propertyError {
	return func(property string, format string, a ...interface{}) error {
		return api.NewUserError(api.ErrConfigFileInvalid,
			"The configuration file %q is invalid: property %q %s",
			configFile, property, fmt.Sprintf(format, a...))
	}
}

func fileUnreadable(configFile string) func(error) error {
	return func(err error) error {
		return api.NewUserError(api.ErrConfigFileFormatInvalid,
			"The configuration file %q could not be read: %s", configFile, err)
	}
}

func inlinePropertyError(property string, format string, a ...interface{}) error {
	return api.NewUserError(api.ErrConfigFileInvalid,
		"The \"config\" input is invalid: property %q %s", property, fmt.Sprintf(format, a...))
}

func inlineUnreadable(err error) error {
	return api.NewUserError(api.ErrConfigFileFormatInvalid,
		"The \"config\" input could not be read: %s", err)
}
