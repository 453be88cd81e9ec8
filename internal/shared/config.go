package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables read by [Config.ApplyEnv].
const (
	EnvClientID     = "SPOTIFY_CLIENT_ID"
	EnvClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvRedirectURI  = "SPOTIFY_REDIRECT_URI"
)

// MaxBatchSize is the most items Spotify accepts in one add-items call.
const MaxBatchSize = 100

// Config represents the application configuration loaded from a TOML file and the environment.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Import      ImportConfig      `toml:"import"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenPath    string `toml:"token_path"`
}

// ImportConfig controls a single spreadsheet import run.
type ImportConfig struct {
	InputPath    string  `toml:"input_path"`
	NotFoundPath string  `toml:"not_found_path"`
	PlaylistName string  `toml:"playlist_name"`
	Public       bool    `toml:"public"`
	BatchSize    int     `toml:"batch_size"`
	SearchRate   float64 `toml:"search_rate"`
	// SearchTimeout is the limit for one search in seconds.
	SearchTimeout int `toml:"search_timeout"`
}

// DatabaseConfig contains database connection settings for run history.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
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

// ResolveConfig builds the runtime configuration: embedded defaults, then the TOML file at path
// (skipped when it does not exist), then variables from a .env file, then the process environment.
func ResolveConfig(path, envFile string) (*Config, error) {
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

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to load %s: %v", ErrInvalidConfig, envFile, err)
		}
	}

	config.ApplyEnv(os.LookupEnv)
	return config, nil
}

// ApplyEnv overrides Spotify credentials with non-empty environment values.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvClientID); ok && strings.TrimSpace(v) != "" {
		c.Credentials.Spotify.ClientID = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvClientSecret); ok && strings.TrimSpace(v) != "" {
		c.Credentials.Spotify.ClientSecret = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvRedirectURI); ok && strings.TrimSpace(v) != "" {
		c.Credentials.Spotify.RedirectURI = strings.TrimSpace(v)
	}
}

// Validate reports every missing credential in a single [ErrMissingCredentials] error.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.Spotify.ClientID == "" {
		missing = append(missing, EnvClientID)
	}
	if c.Credentials.Spotify.ClientSecret == "" {
		missing = append(missing, EnvClientSecret)
	}
	if c.Credentials.Spotify.RedirectURI == "" {
		missing = append(missing, EnvRedirectURI)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}

	if c.Import.SearchRate < 0 {
		return fmt.Errorf("%w: search_rate must not be negative", ErrInvalidConfig)
	}
	if c.Import.SearchTimeout < 0 {
		return fmt.Errorf("%w: search_timeout must not be negative", ErrInvalidConfig)
	}

	return nil
}

// EffectiveBatchSize clamps the configured batch size to 1..[MaxBatchSize].
func (c ImportConfig) EffectiveBatchSize() int {
	if c.BatchSize <= 0 || c.BatchSize > MaxBatchSize {
		return MaxBatchSize
	}
	return c.BatchSize
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
