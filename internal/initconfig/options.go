package initconfig

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/replit/scaninit/internal/api"
)

// Options are the inputs of a run. String inputs left empty are
// treated as not given.
type Options struct {
	LanguagesInput  string
	QueriesInput    string
	PacksInput      string
	RegistriesInput string

	// ConfigFile is a workspace-relative path or a remote
	// reference; ConfigInput is inline configuration text and
	// wins over ConfigFile.
	ConfigFile  string
	ConfigInput string

	DBLocation        string
	DebugMode         bool
	DebugArtifactName string `validate:"omitempty,artifactname"`
	DebugDatabaseName string `validate:"omitempty,artifactname"`

	Repository    api.RepositoryNwo
	TempDir       string `validate:"required"`
	CodeQLCmd     string
	WorkspacePath string `validate:"required"`
	GitHubVersion api.GitHubVersion
	APIDetails    api.APIDetails

	// TrapCaches maps languages to directories holding TRAP
	// caches restored by an earlier step. Entries for languages
	// that are not analyzed are dropped.
	TrapCaches            map[api.Language]string
	TrapCacheDownloadTime int64

	Engine  api.Engine         `validate:"required"`
	Fetcher api.ContentFetcher // only needed for remote configuration files
	Stats   api.LanguageStats  // only needed when LanguagesInput is empty
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Artifact names end up as file names.
	_ = validate.RegisterValidation("artifactname", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "/\\:*?\"<>|")
	})
}

// Validate checks that the options are complete enough to assemble
// a configuration.
func (o *Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}
	var problems []string
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			problems = append(problems, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
	} else {
		problems = append(problems, err.Error())
	}
	return fmt.Errorf("invalid options: %s", strings.Join(problems, ", "))
}
