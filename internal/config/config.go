// Package config provides configuration management for the arbor server.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingAddr      = errors.New("server.addr is required")
	ErrSessionKeyLength = errors.New("server.session_key must be at least 32 characters long")
	ErrMissingDSN       = errors.New("database.dsn is required")
	ErrNoLanguages      = errors.New("site.languages must list at least one language")
	ErrLanguageCode     = errors.New("language code is required")
	ErrLanguageName     = errors.New("language name is required")
	ErrDuplicateCode    = errors.New("duplicate language code")
	ErrInvalidLogLevel  = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Site     SiteConfig     `yaml:"site"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	SessionKey string `yaml:"session_key"`
}

// DatabaseConfig contains storage settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SiteConfig describes the site served by this instance.
type SiteConfig struct {
	Title        string     `yaml:"title"`
	Languages    []Language `yaml:"languages"`
	TemplatesDir string     `yaml:"templates_dir"`
	UploadsDir   string     `yaml:"uploads_dir"`
}

// Language is one site language. The first entry is the primary language.
type Language struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "arbor.db"
	}
	if c.Site.TemplatesDir == "" {
		c.Site.TemplatesDir = "internal/web/templates"
	}
	if c.Site.UploadsDir == "" {
		c.Site.UploadsDir = "uploads"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return ErrMissingAddr
	}
	if len(c.Server.SessionKey) < 32 {
		return ErrSessionKeyLength
	}
	if c.Database.DSN == "" {
		return ErrMissingDSN
	}
	if len(c.Site.Languages) == 0 {
		return ErrNoLanguages
	}

	seen := map[string]bool{}
	for i, lang := range c.Site.Languages {
		if lang.Code == "" {
			return fmt.Errorf("%w: languages[%d]", ErrLanguageCode, i)
		}
		if lang.Name == "" {
			return fmt.Errorf("%w: languages[%d]", ErrLanguageName, i)
		}
		if seen[lang.Code] {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, lang.Code)
		}
		seen[lang.Code] = true
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// PrimaryLanguage returns the code of the first configured language.
func (c *Config) PrimaryLanguage() string {
	return c.Site.Languages[0].Code
}

// HasLanguage reports whether code is a configured site language.
func (c *Config) HasLanguage(code string) bool {
	for _, lang := range c.Site.Languages {
		if lang.Code == code {
			return true
		}
	}
	return false
}
