package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Catalog and extractor provider names accepted in configuration.
const (
	CatalogYTMusic  = "ytmusic"
	CatalogSpotify  = "spotify"
	ExtractorYTDLP  = "ytdlp"
	ExtractorNative = "native"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Files       FilesConfig       `toml:"files"`
	Refresh     RefreshConfig     `toml:"refresh"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Extractor   ExtractorConfig   `toml:"extractor"`
	Database    DatabaseConfig    `toml:"database"`
	Credentials CredentialsConfig `toml:"credentials"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	StaticDir      string   `toml:"static_dir"`
	LogLevel       string   `toml:"log_level"`
	LogFile        string   `toml:"log_file"` // Appends logs here instead of stderr when set
	AllowedOrigins []string `toml:"allowed_origins"`
}

// FilesConfig locates the persisted links and artist lists.
type FilesConfig struct {
	Links         string `toml:"links"`
	Artists       string `toml:"artists"`
	GroupByArtist bool   `toml:"group_by_artist"`
}

// RefreshConfig controls the update pipeline and its schedule.
type RefreshConfig struct {
	Interval          Duration `toml:"interval"`
	OnStart           bool     `toml:"on_start"`
	Concurrency       int      `toml:"concurrency"`
	MaxSongsPerArtist int      `toml:"max_songs_per_artist"`
	Dedupe            bool     `toml:"dedupe"`
}

// CatalogConfig selects and tunes the artist resolver.
type CatalogConfig struct {
	Provider          string   `toml:"provider"`
	Timeout           Duration `toml:"timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	MatchThreshold    float64  `toml:"match_threshold"`
}

// ExtractorConfig selects and tunes the audio resolver.
type ExtractorConfig struct {
	Provider    string   `toml:"provider"`
	Executable  string   `toml:"executable"`
	Install     bool     `toml:"install"`
	Cookies     string   `toml:"cookies"`
	Format      string   `toml:"format"`
	Timeout     Duration `toml:"timeout"`
	Cache       bool     `toml:"cache"`
	CacheMargin Duration `toml:"cache_margin"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// YouTubeConfig points at the ytmusicapi proxy.
type YouTubeConfig struct {
	ProxyURL    string `toml:"proxy_url"`
	HeadersPath string `toml:"headers_path"`
}

// SpotifyConfig contains Spotify API client credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Market       string `toml:"market"`
}

// Duration wraps [time.Duration] so TOML values like "10m" decode.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a [time.ParseDuration] string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration in [time.Duration.String] form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Addr returns the host:port the HTTP server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig loads path when it exists, falls back to defaults otherwise, then applies .env and environment overrides.
func ResolveConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			config = loaded
		}
	}

	if err := config.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides configuration values from environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q is not a number", ErrInvalidConfig, port)
		}
		c.Server.Port = p
	}
	if host := strings.TrimSpace(getenv("HOST")); host != "" {
		c.Server.Host = host
	}
	if id := strings.TrimSpace(getenv("SPOTIFY_ID")); id != "" {
		c.Credentials.Spotify.ClientID = id
	}
	if secret := strings.TrimSpace(getenv("SPOTIFY_SECRET")); secret != "" {
		c.Credentials.Spotify.ClientSecret = secret
	}
	if proxy := strings.TrimSpace(getenv("YTMUSIC_PROXY_URL")); proxy != "" {
		c.Credentials.YouTube.ProxyURL = strings.TrimRight(proxy, "/")
	}
	if cookies := strings.TrimSpace(getenv("COOKIES_FILE")); cookies != "" {
		c.Extractor.Cookies = cookies
	}
	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if strings.TrimSpace(c.Files.Links) == "" {
		return fmt.Errorf("%w: files.links must be set", ErrInvalidConfig)
	}
	if c.Refresh.Interval.Duration <= 0 {
		return fmt.Errorf("%w: refresh.interval must be positive", ErrInvalidConfig)
	}
	if c.Refresh.Concurrency < 0 || c.Refresh.MaxSongsPerArtist < 0 {
		return fmt.Errorf("%w: refresh.concurrency and refresh.max_songs_per_artist cannot be negative", ErrInvalidConfig)
	}

	switch c.Catalog.Provider {
	case CatalogYTMusic:
	case CatalogSpotify:
		if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
			return fmt.Errorf("%w: spotify catalog needs client_id and client_secret", ErrMissingCredentials)
		}
	default:
		return fmt.Errorf("%w: unknown catalog provider %q", ErrInvalidConfig, c.Catalog.Provider)
	}

	switch c.Extractor.Provider {
	case ExtractorYTDLP, ExtractorNative:
	default:
		return fmt.Errorf("%w: unknown extractor provider %q", ErrInvalidConfig, c.Extractor.Provider)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
