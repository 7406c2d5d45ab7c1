// Package config resolves client settings. Precedence, highest wins:
// command-line overrides, environment (a .env file is loaded first), the
// JSONC config file, defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
)

var (
	ErrInvalid      = errors.New("invalid config")
	ErrFileNotFound = errors.New("config file not found")
)

// Environment variables.
const (
	EnvAPIHost    = "RECORDS_API_HOST"
	EnvAPIBaseURL = "RECORDS_API_BASE_URL"
	EnvTimeout    = "RECORDS_TIMEOUT"
	EnvTheme      = "RECORDS_THEME"
	EnvLogLevel   = "RECORDS_LOG_LEVEL"
	EnvLogFile    = "RECORDS_LOG_FILE"
)

// Defaults.
const (
	DefaultAPIHost    = "http://localhost:8080"
	DefaultAPIBaseURL = "/api"
	DefaultTimeout    = 10 * time.Second
	DefaultTheme      = "classic"
	DefaultLogLevel   = "info"
)

// Config holds all client settings.
type Config struct {
	// APIHost is joined with a relative APIBaseURL.
	APIHost string `json:"api_host"`
	// APIBaseURL is the API root; absolute URLs are used as is.
	APIBaseURL string        `json:"api_base_url"`
	Timeout    time.Duration `json:"-"`
	Theme      string        `json:"theme"`
	LogLevel   string        `json:"log_level"`
	LogFile    string        `json:"log_file"`

	// BaseURLFromDefault is set when no source configured APIBaseURL.
	BaseURLFromDefault bool `json:"-"`
}

// fileConfig is the on-disk shape; durations are strings like "5s".
type fileConfig struct {
	APIHost    string `json:"api_host"`
	APIBaseURL string `json:"api_base_url"`
	Timeout    string `json:"timeout"`
	Theme      string `json:"theme"`
	LogLevel   string `json:"log_level"`
	LogFile    string `json:"log_file"`
}

// Sources tracks which files contributed.
type Sources struct {
	File   string // config file path if loaded
	DotEnv string // .env path if loaded
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// ConfigPath is an explicit config file; it must exist.
	ConfigPath string
	// DotEnvPath defaults to ".env" in the working directory.
	DotEnvPath string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// Overrides are applied last; zero fields are ignored.
	Overrides Config
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIHost:            DefaultAPIHost,
		APIBaseURL:         DefaultAPIBaseURL,
		Timeout:            DefaultTimeout,
		Theme:              DefaultTheme,
		LogLevel:           DefaultLogLevel,
		LogFile:            defaultLogFile(),
		BaseURLFromDefault: true,
	}
}

func defaultLogFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".records", "records.log")
}

// GlobalPath returns $XDG_CONFIG_HOME/records/config.json, falling back to
// ~/.config/records/config.json. Empty if no home directory is known.
func GlobalPath(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "records", "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "records", "config.json")
}

// Load resolves the configuration.
func Load(opts LoadOptions) (Config, Sources, error) {
	var src Sources
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
		dotenv := opts.DotEnvPath
		if dotenv == "" {
			dotenv = ".env"
		}
		// godotenv.Load never overrides variables already set
		if err := godotenv.Load(dotenv); err == nil {
			src.DotEnv = dotenv
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, src, fmt.Errorf("%w: %s: %w", ErrInvalid, dotenv, err)
		}
	}

	cfg := Default()

	path, mustExist := opts.ConfigPath, true
	if path == "" {
		path, mustExist = GlobalPath(getenv), false
	}
	if path != "" {
		fc, loaded, err := loadFile(path, mustExist)
		if err != nil {
			return Config{}, src, err
		}
		if loaded {
			src.File = path
			if err := merge(&cfg, fc); err != nil {
				return Config{}, src, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
			}
		}
	}

	if err := merge(&cfg, fileConfig{
		APIHost:    getenv(EnvAPIHost),
		APIBaseURL: getenv(EnvAPIBaseURL),
		Timeout:    getenv(EnvTimeout),
		Theme:      getenv(EnvTheme),
		LogLevel:   getenv(EnvLogLevel),
		LogFile:    getenv(EnvLogFile),
	}); err != nil {
		return Config{}, src, fmt.Errorf("%w: environment: %w", ErrInvalid, err)
	}

	applyOverrides(&cfg, opts.Overrides)

	if err := cfg.Validate(); err != nil {
		return Config{}, src, err
	}
	return cfg, src, nil
}

func loadFile(path string, mustExist bool) (fileConfig, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if mustExist {
				return fileConfig{}, false, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return fileConfig{}, false, nil
		}
		return fileConfig{}, false, fmt.Errorf("read config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: invalid JSONC: %w", ErrInvalid, path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return fileConfig{}, false, fmt.Errorf("%w %s: invalid JSON: %w", ErrInvalid, path, err)
	}
	return fc, true, nil
}

// merge copies non-blank values from fc. A blank base URL keeps the
// previous one.
func merge(cfg *Config, fc fileConfig) error {
	if v := strings.TrimSpace(fc.APIHost); v != "" {
		cfg.APIHost = v
	}
	if v := strings.TrimSpace(fc.APIBaseURL); v != "" {
		cfg.APIBaseURL = v
		cfg.BaseURLFromDefault = false
	}
	if v := strings.TrimSpace(fc.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if v := strings.TrimSpace(fc.Theme); v != "" {
		cfg.Theme = v
	}
	if v := strings.TrimSpace(fc.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(fc.LogFile); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func applyOverrides(cfg *Config, o Config) {
	if o.APIHost != "" {
		cfg.APIHost = o.APIHost
	}
	if o.APIBaseURL != "" {
		cfg.APIBaseURL = o.APIBaseURL
		cfg.BaseURLFromDefault = false
	}
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	if o.Theme != "" {
		cfg.Theme = o.Theme
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFile != "" {
		cfg.LogFile = o.LogFile
	}
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalid)
	}
	if _, err := c.APIURL(); err != nil {
		return err
	}
	return nil
}

// APIURL is the absolute API root the client talks to.
func (c Config) APIURL() (string, error) {
	base := strings.TrimSpace(c.APIBaseURL)
	if base == "" {
		base = DefaultAPIBaseURL
	}
	if u, err := url.Parse(base); err == nil && u.IsAbs() && u.Host != "" {
		return strings.TrimRight(base, "/"), nil
	}
	host, err := url.Parse(strings.TrimSpace(c.APIHost))
	if err != nil || !host.IsAbs() || host.Host == "" {
		return "", fmt.Errorf("%w: api_host must be an absolute URL, got %q", ErrInvalid, c.APIHost)
	}
	return strings.TrimRight(host.String(), "/") + "/" + strings.Trim(base, "/"), nil
}

// APILabel is the short description shown in the UI header.
func (c Config) APILabel() string {
	if c.BaseURLFromDefault {
		return "API: " + DefaultAPIBaseURL + " (default)"
	}
	return "API: " + c.APIBaseURL
}

// Format renders the config as indented JSON.
func Format(c Config) (string, error) {
	api, _ := c.APIURL()
	out := struct {
		Config
		Timeout string `json:"timeout"`
		APIURL  string `json:"api_url"`
	}{Config: c, Timeout: c.Timeout.String(), APIURL: api}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}
	return string(data), nil
}
