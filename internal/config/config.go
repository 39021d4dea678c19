package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	appName   = "gpm"
	envPrefix = "GPM"
)

type Config struct {
	InstallDir string   `mapstructure:"install_dir" toml:"install_dir"`
	APIURL     string   `mapstructure:"api_url" toml:"api_url"`
	ArchiveURL string   `mapstructure:"archive_url" toml:"archive_url"`
	UserAgent  string   `mapstructure:"user_agent" toml:"user_agent"`
	Token      string   `mapstructure:"token" toml:"token"`
	Timeout    string   `mapstructure:"timeout" toml:"timeout"`
	Include    []string `mapstructure:"include" toml:"include"`
	Exclude    []string `mapstructure:"exclude" toml:"exclude"`
	CacheTTL   string   `mapstructure:"cache_ttl" toml:"cache_ttl"`
	CacheFile  string   `mapstructure:"cache_file" toml:"cache_file"`
	LogLevel   string   `mapstructure:"log_level" toml:"log_level"`
	Progress   bool     `mapstructure:"progress" toml:"progress"`
}

func Default() *Config {
	return &Config{
		InstallDir: "gpm_modules",
		APIURL:     "https://api.github.com",
		ArchiveURL: "https://github.com",
		UserAgent:  "gpm",
		Include:    []string{},
		Exclude:    []string{},
		CacheFile:  filepath.Join(xdg.CacheHome, appName, "api.db"),
		LogLevel:   "warn",
		Progress:   true,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/gpm/config.toml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.toml")
}

func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the config file at path if there is one, then applies
// GPM_* environment overrides on top of it.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("install_dir", d.InstallDir)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("archive_url", d.ArchiveURL)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("token", d.Token)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("include", d.Include)
	v.SetDefault("exclude", d.Exclude)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("cache_file", d.CacheFile)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("progress", d.Progress)

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := cfg.TimeoutDuration(); err != nil {
		return nil, err
	}
	if _, err := cfg.CacheTTLDuration(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// TimeoutDuration is the HTTP timeout. Zero means none.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	return parseDuration("timeout", c.Timeout)
}

// CacheTTLDuration is how long API responses stay cached. Zero disables
// the cache.
func (c *Config) CacheTTLDuration() (time.Duration, error) {
	return parseDuration("cache_ttl", c.CacheTTL)
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", key, s)
	}
	return d, nil
}

// Encode writes cfg as TOML. The token is masked.
func Encode(w io.Writer, cfg *Config) error {
	out := *cfg
	if out.Token != "" {
		out.Token = "********"
	}
	return toml.NewEncoder(w).Encode(out)
}

// WriteDefault writes the default config to path. It reports false without
// touching anything if the file already exists.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(Default()); err != nil {
		return false, err
	}
	return true, nil
}
