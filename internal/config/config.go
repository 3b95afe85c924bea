// Package config loads globwalk's configuration. Settings apply in order of
// increasing precedence: built-in defaults, the user config
// (~/.config/globwalk/config.yaml), the project config (.globwalk.yaml),
// then GLOBWALK_* environment variables. Command flags sit on top of all of
// these and are merged by the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sort orders accepted by walk.sort.
const (
	SortNone = "none"
	SortName = "name"
	SortSize = "size"
)

// Color modes accepted by output.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the complete globwalk configuration.
type Config struct {
	Version  int            `yaml:"version" json:"version"`
	Patterns []string       `yaml:"patterns" json:"patterns"`
	Walk     WalkConfig     `yaml:"walk" json:"walk"`
	Watch    WatchConfig    `yaml:"watch" json:"watch"`
	Snapshot SnapshotConfig `yaml:"snapshot" json:"snapshot"`
	Output   OutputConfig   `yaml:"output" json:"output"`
	Log      LogConfig      `yaml:"log" json:"log"`
}

// WalkConfig mirrors the walker builder knobs.
type WalkConfig struct {
	MinDepth int `yaml:"min_depth" json:"min_depth"`
	// MaxDepth stops descent at this depth (0 = unlimited).
	MaxDepth    int  `yaml:"max_depth" json:"max_depth"`
	FollowLinks bool `yaml:"follow_links" json:"follow_links"`
	// MaxOpen bounds open directory handles (0 = library default).
	MaxOpen         int    `yaml:"max_open" json:"max_open"`
	ContentsFirst   bool   `yaml:"contents_first" json:"contents_first"`
	CaseInsensitive bool   `yaml:"case_insensitive" json:"case_insensitive"`
	Sort            string `yaml:"sort" json:"sort"`
}

// WatchConfig tunes the change watcher.
type WatchConfig struct {
	// Debounce is the quiet period before a batch of events is emitted.
	Debounce   string `yaml:"debounce" json:"debounce"`
	BufferSize int    `yaml:"buffer_size" json:"buffer_size"`
	// CacheSize is the number of verdicts kept in the LRU cache.
	CacheSize int `yaml:"cache_size" json:"cache_size"`
}

// SnapshotConfig locates the snapshot database.
type SnapshotConfig struct {
	Path string `yaml:"path" json:"path"`
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	Color string `yaml:"color" json:"color"`
	Long  bool   `yaml:"long" json:"long"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// NewConfig creates a Config with the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version:  1,
		Patterns: nil,
		Walk: WalkConfig{
			MinDepth:        0,
			MaxDepth:        0, // unlimited
			FollowLinks:     false,
			MaxOpen:         0, // library default
			ContentsFirst:   false,
			CaseInsensitive: false,
			Sort:            SortNone,
		},
		Watch: WatchConfig{
			Debounce:   "500ms",
			BufferSize: 100,
			CacheSize:  1024,
		},
		Snapshot: SnapshotConfig{
			Path: defaultSnapshotPath(),
		},
		Output: OutputConfig{
			Color: ColorAuto,
			Long:  false,
		},
		Log: LogConfig{
			Level: "warn", // keep stderr quiet unless asked
		},
	}
}

// defaultSnapshotPath returns the default snapshot database location.
func defaultSnapshotPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".globwalk", "snapshots.db")
	}
	return filepath.Join(home, ".globwalk", "snapshots.db")
}

// GetUserConfigPath returns the location of the per-user config file.
// It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/globwalk/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/globwalk/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "globwalk", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "globwalk", "config.yaml")
	}
	return filepath.Join(home, ".config", "globwalk", "config.yaml")
}

// Load loads configuration for a project directory. It applies settings in
// order of increasing precedence:
//  1. Built-in defaults
//  2. User config (~/.config/globwalk/config.yaml)
//  3. Project config (.globwalk.yaml in dir)
//  4. Environment variables (GLOBWALK_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromDir attempts to load .globwalk.yaml or .globwalk.yml from dir.
func (c *Config) loadFromDir(dir string) error {
	yamlPath := filepath.Join(dir, ".globwalk.yaml")
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".globwalk.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	// No config file is fine, defaults apply.
	return nil
}

// loadYAML reads a YAML file and merges its settings into c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c. Boolean knobs merge
// only when set to true; a file cannot switch a default back off.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Patterns) > 0 {
		c.Patterns = other.Patterns
	}

	if other.Walk.MinDepth != 0 {
		c.Walk.MinDepth = other.Walk.MinDepth
	}
	if other.Walk.MaxDepth != 0 {
		c.Walk.MaxDepth = other.Walk.MaxDepth
	}
	if other.Walk.FollowLinks {
		c.Walk.FollowLinks = true
	}
	if other.Walk.MaxOpen != 0 {
		c.Walk.MaxOpen = other.Walk.MaxOpen
	}
	if other.Walk.ContentsFirst {
		c.Walk.ContentsFirst = true
	}
	if other.Walk.CaseInsensitive {
		c.Walk.CaseInsensitive = true
	}
	if other.Walk.Sort != "" {
		c.Walk.Sort = other.Walk.Sort
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Watch.BufferSize != 0 {
		c.Watch.BufferSize = other.Watch.BufferSize
	}
	if other.Watch.CacheSize != 0 {
		c.Watch.CacheSize = other.Watch.CacheSize
	}

	if other.Snapshot.Path != "" {
		c.Snapshot.Path = other.Snapshot.Path
	}

	if other.Output.Color != "" {
		c.Output.Color = other.Output.Color
	}
	if other.Output.Long {
		c.Output.Long = true
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// applyEnvOverrides applies GLOBWALK_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GLOBWALK_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Walk.MaxDepth = n
		}
	}
	if v := os.Getenv("GLOBWALK_MAX_OPEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Walk.MaxOpen = n
		}
	}
	if v := os.Getenv("GLOBWALK_FOLLOW_LINKS"); v != "" {
		c.Walk.FollowLinks = parseBool(v)
	}
	if v := os.Getenv("GLOBWALK_CASE_INSENSITIVE"); v != "" {
		c.Walk.CaseInsensitive = parseBool(v)
	}
	if v := os.Getenv("GLOBWALK_SORT"); v != "" {
		c.Walk.Sort = v
	}
	if v := os.Getenv("GLOBWALK_COLOR"); v != "" {
		c.Output.Color = v
	}
	if v := os.Getenv("GLOBWALK_SNAPSHOT_PATH"); v != "" {
		c.Snapshot.Path = v
	}
	if v := os.Getenv("GLOBWALK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// Validate checks every field and reports the first bad value.
func (c *Config) Validate() error {
	if c.Walk.MinDepth < 0 {
		return fmt.Errorf("walk.min_depth must be non-negative, got %d", c.Walk.MinDepth)
	}
	if c.Walk.MaxDepth < 0 {
		return fmt.Errorf("walk.max_depth must be non-negative, got %d", c.Walk.MaxDepth)
	}
	if c.Walk.MaxOpen < 0 {
		return fmt.Errorf("walk.max_open must be non-negative, got %d", c.Walk.MaxOpen)
	}

	validSorts := map[string]bool{SortNone: true, SortName: true, SortSize: true}
	if !validSorts[strings.ToLower(c.Walk.Sort)] {
		return fmt.Errorf("walk.sort must be 'none', 'name', or 'size', got %s", c.Walk.Sort)
	}

	if c.Watch.Debounce != "" {
		if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
			return fmt.Errorf("watch.debounce must be a duration like '500ms', got %s", c.Watch.Debounce)
		}
	}
	if c.Watch.BufferSize < 0 {
		return fmt.Errorf("watch.buffer_size must be non-negative, got %d", c.Watch.BufferSize)
	}
	if c.Watch.CacheSize < 0 {
		return fmt.Errorf("watch.cache_size must be non-negative, got %d", c.Watch.CacheSize)
	}

	validColors := map[string]bool{ColorAuto: true, ColorAlways: true, ColorNever: true}
	if !validColors[strings.ToLower(c.Output.Color)] {
		return fmt.Errorf("output.color must be 'auto', 'always', or 'never', got %s", c.Output.Color)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	return nil
}

// DebounceDuration returns the parsed watch debounce interval.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// FindProjectRoot finds the project root directory by walking up from
// startDir looking for a .git directory or a .globwalk.yaml/.yml file.
// When nothing is found it returns startDir itself.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".globwalk.yaml")) ||
			fileExists(filepath.Join(currentDir, ".globwalk.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists reports whether path exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists reports whether path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
