// Package cli implements the command-line interface of scaninit.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/replit/scaninit/internal/config"
	"github.com/replit/scaninit/internal/util"
)

type outputFormat int

const (
	outputFormatTable outputFormat = iota
	outputFormatJSON
)

// parseOutputFormat takes "table" or "json" and returns an
// outputFormat enum value.
func parseOutputFormat(formatStr string) outputFormat {
	switch formatStr {
	case "table":
		return outputFormatTable
	case "json":
		return outputFormatJSON
	default:
		util.Die(`Error: invalid format %#v (must be "table" or "json")`, formatStr)
		return 0
	}
}

// version is set at build time to a Git tag or the string
// "development version" when not tagging a release.
var version = "unknown version"

// getVersion returns a string that can be printed when calling
// 'scaninit --version'.
func getVersion() string {
	return "scaninit " + version
}

// DoCLI reads the command-line arguments and runs the appropriate
// code, then exits the process (or returns to indicate normal exit).
func DoCLI() {
	var env environmentFlags
	var in initFlags
	var formatStr string
	var languagesInput string

	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:     "scaninit",
		Short:   "Resolve the code scanning configuration of a CI run",
		Version: getVersion(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			util.SetupLogger()
		},
	}
	rootCmd.SetVersionTemplate(`{{.Version}}` + "\n")
	rootCmd.PersistentFlags().BoolVarP(
		&config.Quiet, "quiet", "q", false, "don't show what commands are being run",
	)
	rootCmd.PersistentFlags().BoolVar(
		&config.Debug, "debug", false, "show debug logging and keep debug artifacts",
	)
	rootCmd.PersistentFlags().StringVar(
		&env.workspace, "workspace", "", "root of the checked out repository (default $GITHUB_WORKSPACE or the current directory)",
	)
	rootCmd.PersistentFlags().StringVar(
		&env.tempDir, "temp-dir", "", "directory for files of this run (default $RUNNER_TEMP)",
	)
	rootCmd.PersistentFlags().StringVar(
		&env.codeql, "codeql", "", "path to the engine executable",
	)
	rootCmd.PersistentFlags().BoolP(
		"help", "h", false, "display command-line usage",
	)
	rootCmd.PersistentFlags().BoolP(
		"version", "v", false, "display command version",
	)

	cmdInit := &cobra.Command{
		Use:   "init",
		Short: "Resolve and save the configuration, then download packs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runInit(env, in)
		},
	}
	cmdInit.Flags().SortFlags = false
	cmdInit.Flags().StringVar(&in.languages, "languages", "", "comma-separated languages to analyze (default: detect)")
	cmdInit.Flags().StringVar(&in.queries, "queries", "", `queries to run; prefix with "+" to add to the configuration file's`)
	cmdInit.Flags().StringVar(&in.packs, "packs", "", `packs to download; prefix with "+" to add to the configuration file's`)
	cmdInit.Flags().StringVar(&in.configFile, "config-file", "", "configuration file in the workspace, or owner/repo/path@ref")
	cmdInit.Flags().StringVar(&in.configInput, "config", "", "inline configuration, overrides --config-file")
	cmdInit.Flags().StringVar(&in.registries, "registries", "", "YAML list of registries with url, packages and token")
	cmdInit.Flags().StringVar(&in.dbLocation, "db-location", "", "where to create databases (default <temp-dir>/codeql_databases)")
	cmdInit.Flags().StringVar(&in.debugArtifactName, "debug-artifact-name", "", "name of the debug artifact")
	cmdInit.Flags().StringVar(&in.debugDatabaseName, "debug-database-name", "", "name of the debug database")
	cmdInit.Flags().StringVar(&env.repository, "repository", "", "owner/repo being analyzed (default $GITHUB_REPOSITORY)")
	cmdInit.Flags().StringVar(&env.serverURL, "github-url", "", "URL of the GitHub instance (default $GITHUB_SERVER_URL)")
	cmdInit.Flags().StringVar(&env.apiURL, "github-api-url", "", "URL of the GitHub API (default $GITHUB_API_URL)")
	cmdInit.Flags().StringVar(&in.gitHubVersion, "github-version", "", `GitHub flavour: "GitHub.com", "GHAE" or "GHES:<version>"`)
	rootCmd.AddCommand(cmdInit)

	cmdShowConfig := &cobra.Command{
		Use:   "show-config",
		Short: "Print the configuration saved by init",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runShowConfig(env, parseOutputFormat(formatStr))
		},
	}
	cmdShowConfig.Flags().StringVarP(
		&formatStr, "format", "f", "table", `output format ("table" or "json")`,
	)
	rootCmd.AddCommand(cmdShowConfig)

	cmdValidatePack := &cobra.Command{
		Use:   "validate-pack PACK...",
		Short: "Check pack specifications and print their canonical form",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runValidatePack(args)
		},
	}
	rootCmd.AddCommand(cmdValidatePack)

	cmdListLanguages := &cobra.Command{
		Use:   "list-languages",
		Short: "List supported languages and their aliases",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runListLanguages(parseOutputFormat(formatStr))
		},
	}
	cmdListLanguages.Flags().StringVarP(
		&formatStr, "format", "f", "table", `output format ("table" or "json")`,
	)
	rootCmd.AddCommand(cmdListLanguages)

	cmdResolveLanguages := &cobra.Command{
		Use:   "resolve-languages",
		Short: "Print the languages a run would analyze",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runResolveLanguages(env, languagesInput)
		},
	}
	cmdResolveLanguages.Flags().StringVar(
		&languagesInput, "languages", "", "comma-separated languages (default: detect)",
	)
	cmdResolveLanguages.Flags().StringVar(&env.repository, "repository", "", "owner/repo to detect languages of (default $GITHUB_REPOSITORY)")
	cmdResolveLanguages.Flags().StringVar(&env.apiURL, "github-api-url", "", "URL of the GitHub API (default $GITHUB_API_URL)")
	rootCmd.AddCommand(cmdResolveLanguages)

	specialArgs := map[string](func()){}
	for _, helpFlag := range []string{"-help", "-?"} {
		specialArgs[helpFlag] = func() {
			rootCmd.Usage()
			os.Exit(0)
		}
	}
	for _, versionFlag := range []string{"-version", "-V"} {
		specialArgs[versionFlag] = func() {
			fmt.Println(getVersion())
			os.Exit(0)
		}
	}

	if len(os.Args) >= 2 {
		fn, ok := specialArgs[os.Args[1]]
		if ok {
			fn()
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
