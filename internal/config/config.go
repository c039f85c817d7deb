// Package config holds all tcellatlas configuration, loaded from a YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is what Discover walks the directory tree looking for.
const ConfigFileName = ".tcellatlas.yaml"

// Config holds all tcellatlas configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Archive ArchiveConfig `yaml:"archive"`
	Design  DesignConfig  `yaml:"design"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig configures the local artifact cache.
type CacheConfig struct {
	// Dir is the root cache directory; one subdirectory per series,
	// one per artifact type below that.
	Dir string `yaml:"dir"`

	// DatabasePath is the SQLite store for tidied metadata and results.
	DatabasePath string `yaml:"database_path"`
}

// ArchiveConfig configures the public archive endpoints.
type ArchiveConfig struct {
	BaseURL       string `yaml:"base_url"`
	AnnotationURL string `yaml:"annotation_url"`
	Timeout       string `yaml:"timeout"`
}

// DesignConfig names the two treatment levels compared by the
// differential-expression fit.
type DesignConfig struct {
	Reference string `yaml:"reference"`
	Contrast  string `yaml:"contrast"`
}

// ReportConfig configures the top table and plots.
type ReportConfig struct {
	TopN         int     `yaml:"top_n"`
	PValueCutoff float64 `yaml:"p_value_cutoff"`
	LogFCCutoff  float64 `yaml:"log_fc_cutoff"`
	PlotDir      string  `yaml:"plot_dir"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns a Config with working defaults for the public GEO
// archive layout.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			Dir:          "geo_cache",
			DatabasePath: "tcellatlas.db",
		},
		Archive: ArchiveConfig{
			BaseURL:       "https://ftp.ncbi.nlm.nih.gov/geo",
			AnnotationURL: "https://ftp.ncbi.nlm.nih.gov/geo/platforms/GPL96nnn/GPL96/annot/GPL96.annot.gz",
			Timeout:       "5m",
		},
		Design: DesignConfig{
			Reference: "rest",
			Contrast:  "act",
		},
		Report: ReportConfig{
			TopN:         25,
			PValueCutoff: 0.05,
			LogFCCutoff:  1.0,
			PlotDir:      "plots",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file, layers it over defaults, and applies
// environment overrides. An empty path yields defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Discover finds the config file using priority: env > flag > walk-up
// from CWD. Returns "" when no file exists; Load treats that as
// defaults-only.
func Discover(flagPath string) (string, error) {
	if envPath := os.Getenv("TCELLATLAS_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("config not found at TCELLATLAS_CONFIG: %s", envPath)
	}

	if flagPath != "" {
		if _, err := os.Stat(flagPath); err == nil {
			return flagPath, nil
		}
		return "", fmt.Errorf("config not found at --config path: %s", flagPath)
	}

	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, ConfigFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	return "", nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TCELLATLAS_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv("TCELLATLAS_DB"); v != "" {
		c.Cache.DatabasePath = v
	}
	if v := os.Getenv("TCELLATLAS_ARCHIVE_URL"); v != "" {
		c.Archive.BaseURL = v
	}
	if v := os.Getenv("TCELLATLAS_ANNOTATION_URL"); v != "" {
		c.Archive.AnnotationURL = v
	}
	if v := os.Getenv("TCELLATLAS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) validate() error {
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must not be empty")
	}
	if c.Design.Reference == c.Design.Contrast {
		return fmt.Errorf("design levels must differ (both %q)", c.Design.Reference)
	}
	if _, err := c.ArchiveTimeout(); err != nil {
		return err
	}
	return nil
}

// ArchiveTimeout parses the archive timeout string.
func (c *Config) ArchiveTimeout() (time.Duration, error) {
	if c.Archive.Timeout == "" {
		return 5 * time.Minute, nil
	}
	d, err := time.ParseDuration(c.Archive.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid archive.timeout %q: %w", c.Archive.Timeout, err)
	}
	return d, nil
}
