package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/alignx/internal/repositories"
	"github.com/desertthunder/alignx/internal/shared"
	"github.com/urfave/cli/v3"
)

type keyVerifier interface {
	Verify(ctx context.Context) error
}

// AuthLogin stores an API key taken from --key or from a cURL command copied from the dashboard.
//
// With --open the dashboard is opened first so the key can be copied.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	key := strings.TrimSpace(cmd.String("key"))
	curlFile := cmd.String("curl-file")

	if cmd.Bool("open") {
		dashboard := r.config.API.DashboardURL
		r.logger.Info("opening dashboard", "url", dashboard)
		if err := shared.OpenBrowser(dashboard); err != nil {
			r.logger.Warn("could not open browser", "error", err)
			r.writePlain("Open %s to create an API key\n", dashboard)
		}
		if key == "" && curlFile == "" {
			return r.writePlain("Run 'alignx auth login --key <key>' once you have a key\n")
		}
	}

	if key != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --key and --curl-file", shared.ErrInvalidArgument)
	}

	if curlFile != "" {
		req, err := shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		if key, err = req.APIKey(); err != nil {
			return err
		}
		r.logger.Info("parsed API key from cURL command", "file", curlFile)
	}

	if key == "" {
		return fmt.Errorf("%w: either --key or --curl-file must be provided", shared.ErrMissingArgument)
	}

	r.api.SetKey(key)
	if !cmd.Bool("skip-verify") {
		if v, ok := r.taskAPI.(keyVerifier); ok {
			r.logger.Info("verifying API key", "base_url", r.api.BaseURL())
			if err := v.Verify(ctx); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
			}
		}
	}

	if err := r.openDB(); err != nil {
		return err
	}
	if err := r.settings.Set(repositories.SettingAPIKey, key); err != nil {
		return err
	}

	r.logger.Info("API key saved", "database", r.config.Database.Path)
	return r.writePlain("✓ API key saved\n")
}

// AuthStatus reports where the API key comes from and whether the API accepts it.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	source := "config or environment"
	if !r.api.HasKey() {
		if err := r.openDB(); err != nil {
			r.logger.Warn("could not open database", "error", err)
		}
		r.resolveKey()
		source = "saved"
	}

	if !r.api.HasKey() {
		r.writePlain("✗ No API key configured\n")
		return fmt.Errorf("%w: run 'alignx auth login' or set %s", shared.ErrNotAuthenticated, shared.EnvAPIKey)
	}

	r.writePlain("API: %s\n", r.api.BaseURL())
	r.writePlain("Key: %s\n", source)

	if v, ok := r.taskAPI.(keyVerifier); ok {
		if err := v.Verify(ctx); err != nil {
			r.writePlain("Authentication: ✗ Rejected\n")
			return err
		}
	}
	return r.writePlain("Authentication: ✓ Authenticated\n")
}

// AuthLogout removes the saved API key. Keys from the config file or environment are untouched.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.openDB(); err != nil {
		return err
	}
	if err := r.settings.Delete(repositories.SettingAPIKey); err != nil {
		return err
	}
	return r.writePlain("✓ Saved API key removed\n")
}
