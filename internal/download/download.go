// Package download fetches the packs configured for each analyzed
// language, one language at a time, with registry credentials in
// place for the duration of the batch.
package download

import (
	"context"
	"fmt"
	"strings"

	"github.com/replit/scaninit/internal/api"
	"github.com/replit/scaninit/internal/registries"
	"github.com/replit/scaninit/internal/trace"
	"github.com/replit/scaninit/internal/util"
)

// APITokenEnvVar is read by the engine to authenticate against the
// GitHub API and the default container registry.
const APITokenEnvVar = "GITHUB_TOKEN"

// Request is everything Packs needs.
type Request struct {
	Engine api.Engine

	// Languages being analyzed. Packs for other languages are
	// skipped.
	Languages []api.Language
	Packs     api.PacksByLanguage

	APIDetails      api.APIDetails
	RegistriesInput string
	TempDir         string
}

// Packs downloads the packs of every analyzed language. Languages are
// visited in name order and downloads run strictly one after another;
// the first failure stops the batch. The API token and registry
// credentials are passed to the engine explicitly and are also placed
// in the process environment until Packs returns.
func Packs(ctx context.Context, req Request) (api.PackDownloadOutput, error) {
	span, ctx := trace.StartSpan(ctx, "download.Packs")
	defer span.Finish()

	generated, err := registries.Generate(ctx, req.RegistriesInput, req.TempDir, req.Engine)
	if err != nil {
		return api.PackDownloadOutput{}, err
	}
	creds := api.Credentials{
		APIToken:       req.APIDetails.Auth,
		RegistriesAuth: generated.AuthTokens,
	}

	env, err := setEnvironment(map[string]string{
		APITokenEnvVar:        creds.APIToken,
		registries.AuthEnvVar: creds.RegistriesAuth,
	})
	if err != nil {
		return api.PackDownloadOutput{}, err
	}
	defer env.restore()

	total := api.PackDownloadOutput{Packs: []api.DownloadedPack{}}
	for _, language := range req.Packs.SortedLanguages() {
		packs := req.Packs[language]
		if !api.ContainsLanguage(req.Languages, language) {
			util.Logger.Debug("skipping packs for a language that is not analyzed", "language", language)
			continue
		}
		if len(packs) == 0 {
			continue
		}

		util.Logger.Info("downloading custom packs", "language", language)
		result, err := req.Engine.PackDownload(ctx, packs, generated.QLConfigFile, creds)
		if err != nil {
			return api.PackDownloadOutput{}, fmt.Errorf("downloading packs for %s: %w", language, err)
		}
		util.Logger.Info("downloaded", "packs", describe(result.Packs))
		total.Packs = append(total.Packs, result.Packs...)
	}

	if len(total.Packs) > 0 {
		util.Logger.Info(fmt.Sprintf("downloaded %d packs", len(total.Packs)))
	} else {
		util.Logger.Info("no packs to download")
	}
	return total, nil
}

func describe(packs []api.DownloadedPack) string {
	parts := make([]string, 0, len(packs))
	for _, p := range packs {
		v := p.Version
		if v == "" {
			v = "latest"
		}
		parts = append(parts, p.Name+"@"+v)
	}
	return strings.Join(parts, ", ")
}
