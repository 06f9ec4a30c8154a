// Package config handles loading, validating, and overriding themesync
// configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joshkremer/themesync/internal/download"
	"github.com/joshkremer/themesync/internal/sanitize"
	"github.com/joshkremer/themesync/internal/shopify"
	"github.com/joshkremer/themesync/internal/workspace"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "themesync.yaml"

// EnvPrefix prefixes environment overrides, e.g. THEMESYNC_STORE.
const EnvPrefix = "THEMESYNC"

// Config is the top-level themesync configuration.
type Config struct {
	Store       string          `yaml:"store"       mapstructure:"store"`
	Environment string          `yaml:"environment" mapstructure:"environment"`
	CLI         CLIConfig       `yaml:"cli"         mapstructure:"cli"`
	Workspace   WorkspaceConfig `yaml:"workspace"   mapstructure:"workspace"`
	Download    DownloadConfig  `yaml:"download"    mapstructure:"download"`
	Sanitize    SanitizeConfig  `yaml:"sanitize"    mapstructure:"sanitize"`
	Archive     ArchiveConfig   `yaml:"archive"     mapstructure:"archive"`
	Log         LogConfig       `yaml:"log"         mapstructure:"log"`
}

// CLIConfig locates the Shopify CLI.
type CLIConfig struct {
	Binary  string        `yaml:"binary"  mapstructure:"binary"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// WorkspaceConfig names the theme directory.
type WorkspaceConfig struct {
	ThemeDir string `yaml:"themeDir" mapstructure:"themeDir"`
}

// DownloadConfig holds snapshot download defaults.
type DownloadConfig struct {
	Destination     string `yaml:"destination"     mapstructure:"destination"`
	Naming          string `yaml:"naming"          mapstructure:"naming"`
	ContinueOnError bool   `yaml:"continueOnError" mapstructure:"continueOnError"`
	SkipDownloaded  bool   `yaml:"skipDownloaded"  mapstructure:"skipDownloaded"`
	IncludeLive     bool   `yaml:"includeLive"     mapstructure:"includeLive"`
}

// SanitizeConfig controls template and asset cleanup.
type SanitizeConfig struct {
	ScrubMetafields bool     `yaml:"scrubMetafields" mapstructure:"scrubMetafields"`
	MetafieldRefs   []string `yaml:"metafieldRefs"   mapstructure:"metafieldRefs"`
	AppBlockPrefix  string   `yaml:"appBlockPrefix"  mapstructure:"appBlockPrefix"`
	ConflictFiles   []string `yaml:"conflictFiles"   mapstructure:"conflictFiles"`
}

// ArchiveConfig holds snapshot archive targets.
type ArchiveConfig struct {
	S3 S3Config `yaml:"s3" mapstructure:"s3"`
}

// S3Config holds AWS S3 archive settings.
type S3Config struct {
	Bucket string `yaml:"bucket" mapstructure:"bucket"`
	Region string `yaml:"region" mapstructure:"region"`
	Prefix string `yaml:"prefix" mapstructure:"prefix"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Environment: "development",
		CLI: CLIConfig{
			Binary: shopify.DefaultBinary,
		},
		Workspace: WorkspaceConfig{
			ThemeDir: workspace.DefaultThemeDir,
		},
		Download: DownloadConfig{
			Destination:     download.DefaultDestination,
			Naming:          string(download.NamingName),
			ContinueOnError: true,
			SkipDownloaded:  true,
		},
		Sanitize: SanitizeConfig{
			ScrubMetafields: true,
			MetafieldRefs:   append([]string(nil), sanitize.DefaultMetafieldRefs...),
			AppBlockPrefix:  sanitize.DefaultAppBlockPrefix,
			ConflictFiles:   []string{"buddha-megamenu.js", "ico-select.svg", "theme.scss"},
		},
		Archive: ArchiveConfig{
			S3: S3Config{Prefix: "themesync"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load returns a Config with defaults applied first, then the file at
// configPath (YAML or TOML) if one is given, then THEMESYNC_* environment
// variables such as THEMESYNC_DOWNLOAD_NAMING.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		switch strings.TrimPrefix(filepath.Ext(configPath), ".") {
		case "toml":
			v.SetConfigType("toml")
		default:
			v.SetConfigType("yaml")
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers every setting with viper. Lists set in a file then
// replace the default list instead of being merged into it, and every key
// becomes overridable from the environment.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("store", d.Store)
	v.SetDefault("environment", d.Environment)
	v.SetDefault("cli.binary", d.CLI.Binary)
	v.SetDefault("cli.timeout", d.CLI.Timeout)
	v.SetDefault("workspace.themeDir", d.Workspace.ThemeDir)
	v.SetDefault("download.destination", d.Download.Destination)
	v.SetDefault("download.naming", d.Download.Naming)
	v.SetDefault("download.continueOnError", d.Download.ContinueOnError)
	v.SetDefault("download.skipDownloaded", d.Download.SkipDownloaded)
	v.SetDefault("download.includeLive", d.Download.IncludeLive)
	v.SetDefault("sanitize.scrubMetafields", d.Sanitize.ScrubMetafields)
	v.SetDefault("sanitize.metafieldRefs", d.Sanitize.MetafieldRefs)
	v.SetDefault("sanitize.appBlockPrefix", d.Sanitize.AppBlockPrefix)
	v.SetDefault("sanitize.conflictFiles", d.Sanitize.ConflictFiles)
	v.SetDefault("archive.s3.bucket", d.Archive.S3.Bucket)
	v.SetDefault("archive.s3.region", d.Archive.S3.Region)
	v.SetDefault("archive.s3.prefix", d.Archive.S3.Prefix)
	v.SetDefault("log.level", d.Log.Level)
}

var logLevels = []string{"debug", "info", "warn", "error", "fatal"}

// Validate checks the Config for common errors.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.CLI.Binary) == "" {
		errs = append(errs, errors.New("config: cli.binary is required"))
	}
	if c.CLI.Timeout < 0 {
		errs = append(errs, fmt.Errorf("config: cli.timeout must not be negative (got %s)", c.CLI.Timeout))
	}
	if name := c.Workspace.ThemeDir; name == "" || filepath.Base(name) != name {
		errs = append(errs, fmt.Errorf("config: workspace.themeDir must be a plain directory name (got %q)", name))
	}
	if _, err := download.ParseNaming(c.Download.Naming); err != nil {
		errs = append(errs, fmt.Errorf("config: download.naming: %w", err))
	}
	if strings.TrimSpace(c.Sanitize.AppBlockPrefix) == "" {
		errs = append(errs, errors.New("config: sanitize.appBlockPrefix is required"))
	}
	for _, f := range c.Sanitize.ConflictFiles {
		if f == "" || filepath.Base(f) != f {
			errs = append(errs, fmt.Errorf("config: sanitize.conflictFiles entries must be file names (got %q)", f))
		}
	}
	if !contains(logLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("config: log.level must be one of %s (got %q)", strings.Join(logLevels, ", "), c.Log.Level))
	}
	return errors.Join(errs...)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// WithOverrides applies CLI flag overrides to the config. Known keys are
// mapped to their corresponding struct fields; empty strings are ignored.
// The modified config is returned for convenient chaining.
func (c *Config) WithOverrides(overrides map[string]any) *Config {
	for key, val := range overrides {
		if s, ok := val.(string); ok && s == "" {
			continue
		}
		switch key {
		case "store":
			if s, ok := val.(string); ok {
				c.Store = s
			}
		case "environment":
			if s, ok := val.(string); ok {
				c.Environment = s
			}
		case "binary":
			if s, ok := val.(string); ok {
				c.CLI.Binary = s
			}
		case "themeDir":
			if s, ok := val.(string); ok {
				c.Workspace.ThemeDir = s
			}
		case "logLevel":
			if s, ok := val.(string); ok {
				c.Log.Level = s
			}
		case "destination":
			if s, ok := val.(string); ok {
				c.Download.Destination = s
			}
		case "naming":
			if s, ok := val.(string); ok {
				c.Download.Naming = s
			}
		case "bucket":
			if s, ok := val.(string); ok {
				c.Archive.S3.Bucket = s
			}
		}
	}
	return c
}

// YAML renders the resolved configuration.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return data, nil
}
