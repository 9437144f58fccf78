package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 5000 {
			t.Errorf("expected server port 5000, got %d", config.Server.Port)
		}
		if config.Files.Links != "links.json" {
			t.Errorf("expected links file links.json, got %s", config.Files.Links)
		}
		if config.Refresh.Interval.Duration != time.Hour {
			t.Errorf("expected refresh interval 1h, got %s", config.Refresh.Interval)
		}
		if config.Catalog.Provider != CatalogYTMusic {
			t.Errorf("expected catalog %s, got %s", CatalogYTMusic, config.Catalog.Provider)
		}
		if config.Extractor.Provider != ExtractorYTDLP {
			t.Errorf("expected extractor %s, got %s", ExtractorYTDLP, config.Extractor.Provider)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig keeps defaults for missing keys", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		testConfig := `[server]
port = 8080

[refresh]
interval = "10m"
concurrency = 4

[files]
links = "/data/links.json"
group_by_artist = true
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected port 8080, got %d", config.Server.Port)
		}
		if config.Refresh.Interval.Duration != 10*time.Minute {
			t.Errorf("expected interval 10m, got %s", config.Refresh.Interval)
		}
		if !config.Files.GroupByArtist {
			t.Error("expected group_by_artist to be true")
		}
		if config.Files.Artists != "artists.json" {
			t.Errorf("expected default artists file, got %s", config.Files.Artists)
		}
	})

	t.Run("LoadConfig rejects bad durations", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[refresh]\ninterval = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Fatal("expected error for invalid duration")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"PORT":              "9001",
			"SPOTIFY_ID":        "id",
			"SPOTIFY_SECRET":    "secret",
			"YTMUSIC_PROXY_URL": "http://proxy:8080/",
			"COOKIES_FILE":      "/secrets/cookies.txt",
		}
		config := DefaultConfig()
		if err := config.ApplyEnv(func(k string) string { return env[k] }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if config.Server.Port != 9001 {
			t.Errorf("expected port 9001, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "id" || config.Credentials.Spotify.ClientSecret != "secret" {
			t.Error("expected spotify credentials from env")
		}
		if config.Credentials.YouTube.ProxyURL != "http://proxy:8080" {
			t.Errorf("expected trimmed proxy URL, got %s", config.Credentials.YouTube.ProxyURL)
		}
		if config.Extractor.Cookies != "/secrets/cookies.txt" {
			t.Errorf("expected cookies override, got %s", config.Extractor.Cookies)
		}
	})

	t.Run("ApplyEnv rejects non-numeric PORT", func(t *testing.T) {
		config := DefaultConfig()
		err := config.ApplyEnv(func(k string) string {
			if k == "PORT" {
				return "http"
			}
			return ""
		})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*Config)
			wantErr error
		}{
			{"unknown catalog", func(c *Config) { c.Catalog.Provider = "deezer" }, ErrInvalidConfig},
			{"unknown extractor", func(c *Config) { c.Extractor.Provider = "ffmpeg" }, ErrInvalidConfig},
			{"zero interval", func(c *Config) { c.Refresh.Interval.Duration = 0 }, ErrInvalidConfig},
			{"empty links path", func(c *Config) { c.Files.Links = " " }, ErrInvalidConfig},
			{"spotify without credentials", func(c *Config) { c.Catalog.Provider = CatalogSpotify }, ErrMissingCredentials},
			{"negative concurrency", func(c *Config) { c.Refresh.Concurrency = -1 }, ErrInvalidConfig},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("Addr", func(t *testing.T) {
		s := ServerConfig{Host: "0.0.0.0", Port: 5000}
		if s.Addr() != "0.0.0.0:5000" {
			t.Errorf("unexpected addr %s", s.Addr())
		}
	})
}
