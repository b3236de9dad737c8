package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"songcatalog/internal/provider"
)

const (
	MinParallelJobs = 1
	MaxParallelJobs = 32
)

// Environment variables that override the file configuration.
const (
	EnvOutputDir   = "SONGCATALOG_OUTPUT_DIR"
	EnvCachePath   = "SONGCATALOG_CACHE_PATH"
	EnvCatalogPath = "SONGCATALOG_CATALOG_PATH"
)

// Config contains the program configuration
type Config struct {
	OutputDir           string        `yaml:"output_dir"`
	Verbose             bool          `yaml:"verbose"`
	ParallelJobs        int           `yaml:"parallel_jobs"`
	LyricSources        []string      `yaml:"lyric_sources"`
	SimilarityThreshold float64       `yaml:"similarity_threshold"`
	CachePath           string        `yaml:"cache_path"`
	CacheStaleAfter     time.Duration `yaml:"cache_stale_after"`
	CatalogPath         string        `yaml:"catalog_path,omitempty"`

	YouTubePlaylists []string `yaml:"youtube_playlists,omitempty"`
	Charts           []string `yaml:"charts,omitempty"`
	TagsDirs         []string `yaml:"tags_dirs,omitempty"`
	TitleFiles       []string `yaml:"title_files,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		OutputDir:           filepath.Join(homeDir(), "songcatalog"),
		ParallelJobs:        10,
		LyricSources:        []string{"lrclib", "azlyrics"},
		SimilarityThreshold: 0.8,
		CachePath:           filepath.Join(xdg.CacheHome, "songcatalog", "discographies.db"),
		CacheStaleAfter:     72 * time.Hour,
	}
}

// LoadConfigFile loads configuration from a YAML file, then applies a .env
// file from the working directory and the environment overrides.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	// a missing .env is fine
	_ = godotenv.Load()
	cfg.applyEnv()

	cfg.OutputDir = ExpandHome(cfg.OutputDir)
	cfg.CachePath = ExpandHome(cfg.CachePath)
	cfg.CatalogPath = ExpandHome(cfg.CatalogPath)
	for i, d := range cfg.TagsDirs {
		cfg.TagsDirs[i] = ExpandHome(d)
	}
	for i, f := range cfg.TitleFiles {
		cfg.TitleFiles[i] = ExpandHome(f)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvCachePath); v != "" {
		c.CachePath = v
	}
	if v := os.Getenv(EnvCatalogPath); v != "" {
		c.CatalogPath = v
	}
}

// HasFeeds reports whether any title feed is configured.
func (c *Config) HasFeeds() bool {
	return len(c.YouTubePlaylists)+len(c.Charts)+len(c.TagsDirs)+len(c.TitleFiles) > 0
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./songcatalog.yaml",
		"./songcatalog.yml",
		filepath.Join(home, ".config", "songcatalog", "config.yaml"),
		filepath.Join(home, ".config", "songcatalog", "config.yml"),
		filepath.Join(home, ".songcatalog.yaml"),
		filepath.Join(home, ".songcatalog.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "songcatalog", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "songcatalog", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	if c.ParallelJobs < MinParallelJobs || c.ParallelJobs > MaxParallelJobs {
		return fmt.Errorf("parallel_jobs must be between %d and %d, got %d", MinParallelJobs, MaxParallelJobs, c.ParallelJobs)
	}

	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold >= 1 {
		return fmt.Errorf("similarity_threshold must be strictly between 0.0 and 1.0, got %.2f", c.SimilarityThreshold)
	}

	if len(c.LyricSources) == 0 {
		return fmt.Errorf("lyric_sources cannot be empty, valid sources: %s", strings.Join(provider.Known, ", "))
	}
	seen := make(map[string]bool, len(c.LyricSources))
	for _, s := range c.LyricSources {
		if !provider.IsKnown(s) {
			return fmt.Errorf("unknown lyric source %q, valid sources: %s", s, strings.Join(provider.Known, ", "))
		}
		if seen[s] {
			return fmt.Errorf("lyric source %q listed twice", s)
		}
		seen[s] = true
	}

	if c.CachePath == "" {
		return fmt.Errorf("cache_path cannot be empty")
	}
	if c.CacheStaleAfter <= 0 {
		return fmt.Errorf("cache_stale_after must be positive, got %s", c.CacheStaleAfter)
	}

	for _, u := range append(append([]string{}, c.YouTubePlaylists...), c.Charts...) {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("feed URL %q must start with http:// or https://", u)
		}
	}

	return nil
}
