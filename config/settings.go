// Package config provides periscope settings loaded from a YAML file and
// PERISCOPE_* environment variables.
//
// Settings are created via Load() which handles:
// - Config file discovery (explicit path, ./periscope.yaml, ~/.config/periscope)
// - Environment overrides with validation
// - Default value application
// - Camera definitions
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/richinex/periscope/browse"
	"github.com/richinex/periscope/engine"
	"github.com/richinex/periscope/model"
)

// EnvPrefix prefixes every environment override: cache.result_ttl is read
// from PERISCOPE_CACHE_RESULT_TTL.
const EnvPrefix = "PERISCOPE"

// Settings holds all application configuration.
type Settings struct {
	// Fixture is the YAML host file the CLI serves queries from.
	Fixture string `mapstructure:"fixture"`

	// Timezone is the zone media titles are written in. Empty means local.
	Timezone string `mapstructure:"timezone"`

	LogLevel string `mapstructure:"log_level"`

	Cache   CacheConfig          `mapstructure:"cache"`
	Cameras []model.CameraConfig `mapstructure:"cameras"`
}

// CacheConfig holds cache configuration.
type CacheConfig struct {
	// Path is the SQLite file results persist to. Empty keeps them in
	// memory only.
	Path      string        `mapstructure:"path"`
	ResultTTL time.Duration `mapstructure:"result_ttl"`
	BrowseTTL time.Duration `mapstructure:"browse_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fixture", "")
	v.SetDefault("timezone", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("cache.path", "")
	v.SetDefault("cache.result_ttl", engine.DefaultResultTTL)
	v.SetDefault("cache.browse_ttl", browse.DefaultCacheTTL)
}

// Load reads settings from path, or from the first periscope.yaml found in
// the working directory or the user config directory when path is empty.
// A missing file is only an error when path was given.
func Load(path string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("periscope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "periscope"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}
	if err := settings.validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// MustLoad loads settings.
// Panics if the file or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustLoad(path string) Settings {
	settings, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

func (s Settings) validate() error {
	if _, err := s.Location(); err != nil {
		return err
	}
	if _, err := s.Level(); err != nil {
		return err
	}
	if s.Cache.ResultTTL <= 0 {
		return fmt.Errorf("invalid value for cache.result_ttl: %q: must be positive", s.Cache.ResultTTL)
	}
	if s.Cache.BrowseTTL <= 0 {
		return fmt.Errorf("invalid value for cache.browse_ttl: %q: must be positive", s.Cache.BrowseTTL)
	}

	seen := make(map[string]bool, len(s.Cameras))
	for i, camera := range s.Cameras {
		id := camera.CameraID()
		if id == "" {
			return fmt.Errorf("camera %d: needs an id, camera_entity or frigate.camera_name", i)
		}
		if seen[id] {
			return fmt.Errorf("camera %d: duplicate id %q", i, id)
		}
		seen[id] = true
	}
	return nil
}

// Location returns the configured timezone.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid value for timezone: %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Level returns the configured log level.
func (s Settings) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid value for log_level: %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// CameraIDs returns the configured camera ids in order.
func (s Settings) CameraIDs() []string {
	ids := make([]string, 0, len(s.Cameras))
	for _, camera := range s.Cameras {
		ids = append(ids, camera.CameraID())
	}
	return ids
}
