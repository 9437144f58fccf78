package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/ytlinks/internal/services"
	"github.com/desertthunder/ytlinks/internal/shared"
	"github.com/desertthunder/ytlinks/internal/ui"
	"github.com/urfave/cli/v3"
)

const cookieDomain = ".youtube.com"

// SetupDatabase creates config.toml when missing, then initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.CurrentVersion(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v (schema version %d)", config.Database.Path, version)
	return nil
}

// SetupYTDLP downloads yt-dlp into the go-ytdlp cache unless a usable binary is already present.
func (r *Runner) SetupYTDLP(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("installing yt-dlp")
	if err := services.InstallYTDLP(ctx); err != nil {
		return fmt.Errorf("failed to install yt-dlp: %w", err)
	}
	return r.writePlain("%s\n", ui.Styles.OK("✓ yt-dlp is ready"))
}

// SetupCookies turns a browser cURL command into cookies.txt for yt-dlp and, through the proxy, browser.json
// for authenticated ytmusicapi sessions.
func (r *Runner) SetupCookies(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	var curlHeaders *shared.CurlHeaders
	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	cookiesPath := config.Extractor.Cookies
	if cookiesPath == "" {
		cookiesPath = "cookies.txt"
	}
	if err := curlHeaders.WriteCookiesFile(cookiesPath, cookieDomain); err != nil {
		return err
	}
	r.logger.Info("cookies written", "path", cookiesPath, "count", len(curlHeaders.Cookies()))
	r.writePlain("%s\n", ui.Styles.OK("✓ Cookies saved to "+cookiesPath))

	if cmd.Bool("skip-proxy") {
		return nil
	}

	headersRaw := curlHeaders.ToHeadersRaw()
	r.logger.Debug("generated headers_raw", "length", len(headersRaw))
	proxy := r.proxy(config)
	if err := proxy.Health(ctx); err != nil {
		return fmt.Errorf("YouTube Music proxy at %q is not reachable, start it or pass --skip-proxy: %w", config.Credentials.YouTube.ProxyURL, err)
	}
	r.logger.Info("calling YouTube Music proxy setup endpoint")

	setupResp, err := proxy.SetupBrowser(ctx, headersRaw)
	if err != nil {
		return fmt.Errorf("setup request failed: %w", err)
	}
	if !setupResp.Success {
		return fmt.Errorf("%w: proxy setup failed: %s", shared.ErrAPIRequest, setupResp.Message)
	}

	outputPath := cmd.String("output")
	if outputPath == "" {
		outputPath = config.Credentials.YouTube.HeadersPath
	}
	if outputPath == "" {
		outputPath = "browser.json"
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	authJSON, err := json.MarshalIndent(setupResp.AuthContent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal auth content: %w", err)
	}

	if err := os.WriteFile(outputPath, authJSON, 0600); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	r.logger.Info("browser.json saved", "path", outputPath)
	r.writePlain("%s\n", ui.Styles.OK("✓ YouTube Music authentication configured"))
	r.writePlain("Auth file saved to: %s\n", outputPath)
	if outputPath != config.Credentials.YouTube.HeadersPath {
		r.writePlainln("Next step:")
		r.writePlain("Update config.toml with: credentials.youtube.headers_path = \"%s\"\n", outputPath)
	}
	return nil
}
