package main

import (
	"context"
	"os"

	"github.com/desertthunder/topgenres/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates config.toml from the embedded template when missing, then opens the configured
// credential store, which runs migrations for the sqlite backend.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = "config.toml"
	}

	r.writePlainHeader("topgenres setup")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Created %s\n", configPath)

		config, err := shared.LoadConfig(configPath)
		if err != nil {
			return err
		}
		r.config = config
	} else {
		r.writePlain("• Using existing %s\n", configPath)
	}

	config := r.cfg()
	r.logger.Info("initializing credential store", "backend", config.Store.Backend)
	if _, err := r.credentials(ctx); err != nil {
		return err
	}

	switch config.Store.Backend {
	case "sqlite", "":
		r.writePlain("✓ Credential store ready (sqlite: %s)\n", config.Database.Path)
	case "redis":
		r.writePlain("✓ Credential store ready (redis: %s)\n", config.Redis.URL)
	default:
		r.writePlain("✓ Credential store ready (%s)\n", config.Store.Backend)
	}

	if err := config.Validate(); err != nil {
		r.writePlainln("Next steps:")
		r.writePlain("1. Register an app at https://developer.spotify.com/dashboard\n")
		r.writePlain("2. Add %s as a redirect URI\n", config.Credentials.Spotify.RedirectURI)
		r.writePlain("3. Set credentials.spotify.client_id in %s\n", configPath)
		r.writePlain("4. Run 'topgenres connect'\n")
		return nil
	}

	r.writePlainln("Run 'topgenres connect' to authorize.")
	return nil
}
