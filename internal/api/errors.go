package api

import (
	"errors"
	"fmt"
)

// UserErrorKind classifies a UserError.
type UserErrorKind string

const (
	ErrConfigFileOutsideWorkspace  UserErrorKind = "config-file-outside-workspace"
	ErrConfigFileRepoFormatInvalid UserErrorKind = "config-file-repo-format-invalid"
	ErrConfigFileDoesNotExist      UserErrorKind = "config-file-does-not-exist"
	ErrConfigFileDirectoryGiven    UserErrorKind = "config-file-directory-given"
	ErrConfigFileFormatInvalid     UserErrorKind = "config-file-format-invalid"
	ErrConfigFileInvalid           UserErrorKind = "config-file-invalid"
	ErrNoLanguages                 UserErrorKind = "no-languages"
	ErrUnknownLanguages            UserErrorKind = "unknown-languages"
	ErrInvalidPack                 UserErrorKind = "invalid-pack-name"
	ErrPacksInputMultiLanguage     UserErrorKind = "packs-input-multi-language"
	ErrInvalidRegistries           UserErrorKind = "invalid-registries-block"
	ErrCombineMarkerEmpty          UserErrorKind = "combine-marker-with-empty-body"
	ErrUnsupportedEngine           UserErrorKind = "unsupported-engine"
	ErrInvalidQuery                UserErrorKind = "invalid-query"
)

// UserError is a misconfiguration the user can fix. Anything that is
// not a UserError indicates a bug or a collaborator failure.
type UserError struct {
	Kind    UserErrorKind
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

// NewUserError is a composition of fmt.Sprintf and UserError.
func NewUserError(kind UserErrorKind, format string, a ...interface{}) *UserError {
	return &UserError{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// IsUserError reports whether err is, or wraps, a UserError.
func IsUserError(err error) bool {
	var userErr *UserError
	return errors.As(err, &userErr)
}

// UserErrorKindOf returns the kind of the UserError in err's chain,
// or "" if there is none.
func UserErrorKindOf(err error) UserErrorKind {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Kind
	}
	return ""
}
