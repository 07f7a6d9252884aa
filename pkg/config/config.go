/*
Package config manages the TOML (or YAML) config for tstserve.
*/
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/tstserve/internal/utils"
	"github.com/charmbracelet/log"
)

// FileName is the default config file name inside the config directory.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Suggest SuggestConfig `toml:"suggest" yaml:"suggest"`
	Dict    DictConfig    `toml:"dict" yaml:"dict"`
	Store   StoreConfig   `toml:"store" yaml:"store"`
	Server  ServerConfig  `toml:"server" yaml:"server"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	CLI     CliConfig     `toml:"cli" yaml:"cli"`
}

// SuggestConfig controls matching and ranking.
type SuggestConfig struct {
	UsePrefix       bool `toml:"use_prefix" yaml:"use_prefix"`
	EditDistance    int  `toml:"edit_distance" yaml:"edit_distance"`
	DefaultLimit    int  `toml:"default_limit" yaml:"default_limit"`
	MaxLimit        int  `toml:"max_limit" yaml:"max_limit"`
	OnlyMorePopular bool `toml:"only_more_popular" yaml:"only_more_popular"`
}

// DictConfig holds dictionary source options.
type DictConfig struct {
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	MaxChunks int    `toml:"max_chunks" yaml:"max_chunks"`
}

// StoreConfig holds persistence options for jaspell.dat.
type StoreConfig struct {
	Dir      string `toml:"dir" yaml:"dir"`
	Autoload bool   `toml:"autoload" yaml:"autoload"`
	Autosave bool   `toml:"autosave" yaml:"autosave"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MinPrefix    int  `toml:"min_prefix" yaml:"min_prefix"`
	MaxPrefix    int  `toml:"max_prefix" yaml:"max_prefix"`
	EnableFilter bool `toml:"enable_filter" yaml:"enable_filter"`
	// ReloadEvery is the config reload interval in seconds; 0 disables reloads.
	ReloadEvery int `toml:"reload_every" yaml:"reload_every"`
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Addr    string `toml:"addr" yaml:"addr"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit    int  `toml:"default_limit" yaml:"default_limit"`
	DefaultMinLen   int  `toml:"default_min_len" yaml:"default_min_len"`
	DefaultMaxLen   int  `toml:"default_max_len" yaml:"default_max_len"`
	DefaultNoFilter bool `toml:"default_no_filter" yaml:"default_no_filter"`
}

// ReloadInterval returns the reload period, or 0 when disabled.
func (s ServerConfig) ReloadInterval() time.Duration {
	if s.ReloadEvery <= 0 {
		return 0
	}
	return time.Duration(s.ReloadEvery) * time.Second
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Suggest: SuggestConfig{
			UsePrefix:       true,
			EditDistance:    2,
			DefaultLimit:    10,
			MaxLimit:        64,
			OnlyMorePopular: true,
		},
		Dict: DictConfig{
			DataDir:   "data",
			MaxChunks: 0,
		},
		Store: StoreConfig{
			Dir:      "",
			Autoload: true,
			Autosave: true,
		},
		Server: ServerConfig{
			MinPrefix:    1,
			MaxPrefix:    60,
			EnableFilter: true,
			ReloadEvery:  0,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		CLI: CliConfig{
			DefaultLimit:    24,
			DefaultMinLen:   1,
			DefaultMaxLen:   24,
			DefaultNoFilter: false,
		},
	}
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/tstserve
// 2. ~/Library/Application Support/tstserve (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", "tstserve")
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", "tstserve")
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config
// 2. Default path: [UserConfigDir]/tstserve/config.toml
// 3. Builtin defaults
//
// The returned path is empty when builtin defaults are used.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads a TOML or YAML file over the defaults. A file that fails to
// decode as a whole is retried section by section, keeping every valid field.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadConfigFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.normalize()
	return config, nil
}

func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "suggest"); ok {
		extractSuggestConfig(section, &config.Suggest)
	}
	if section, ok := utils.ExtractSection(tempConfig, "dict"); ok {
		extractDictConfig(section, &config.Dict)
	}
	if section, ok := utils.ExtractSection(tempConfig, "store"); ok {
		extractStoreConfig(section, &config.Store)
	}
	if section, ok := utils.ExtractSection(tempConfig, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(tempConfig, "metrics"); ok {
		extractMetricsConfig(section, &config.Metrics)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	config.normalize()
	return config, nil
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.Suggest.EditDistance < 0 {
		log.Warnf("edit_distance %d is negative, using %d", c.Suggest.EditDistance, defaults.Suggest.EditDistance)
		c.Suggest.EditDistance = defaults.Suggest.EditDistance
	}
	if c.Suggest.MaxLimit <= 0 {
		c.Suggest.MaxLimit = defaults.Suggest.MaxLimit
	}
	if c.Suggest.DefaultLimit <= 0 || c.Suggest.DefaultLimit > c.Suggest.MaxLimit {
		c.Suggest.DefaultLimit = min(defaults.Suggest.DefaultLimit, c.Suggest.MaxLimit)
	}
	if c.Server.MinPrefix < 1 {
		c.Server.MinPrefix = defaults.Server.MinPrefix
	}
	if c.Server.MaxPrefix < c.Server.MinPrefix {
		c.Server.MaxPrefix = max(defaults.Server.MaxPrefix, c.Server.MinPrefix)
	}
}

func extractSuggestConfig(data map[string]any, suggest *SuggestConfig) {
	if val, ok := utils.ExtractBool(data, "use_prefix"); ok {
		suggest.UsePrefix = val
	}
	if val, ok := utils.ExtractInt(data, "edit_distance"); ok {
		suggest.EditDistance = val
	}
	if val, ok := utils.ExtractInt(data, "default_limit"); ok {
		suggest.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt(data, "max_limit"); ok {
		suggest.MaxLimit = val
	}
	if val, ok := utils.ExtractBool(data, "only_more_popular"); ok {
		suggest.OnlyMorePopular = val
	}
}

func extractDictConfig(data map[string]any, dict *DictConfig) {
	if val, ok := utils.ExtractString(data, "data_dir"); ok {
		dict.DataDir = val
	}
	if val, ok := utils.ExtractInt(data, "max_chunks"); ok {
		dict.MaxChunks = val
	}
}

func extractStoreConfig(data map[string]any, store *StoreConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		store.Dir = val
	}
	if val, ok := utils.ExtractBool(data, "autoload"); ok {
		store.Autoload = val
	}
	if val, ok := utils.ExtractBool(data, "autosave"); ok {
		store.Autosave = val
	}
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "min_prefix"); ok {
		server.MinPrefix = val
	}
	if val, ok := utils.ExtractInt(data, "max_prefix"); ok {
		server.MaxPrefix = val
	}
	if val, ok := utils.ExtractBool(data, "enable_filter"); ok {
		server.EnableFilter = val
	}
	if val, ok := utils.ExtractInt(data, "reload_every"); ok {
		server.ReloadEvery = val
	}
}

func extractMetricsConfig(data map[string]any, metrics *MetricsConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		metrics.Enabled = val
	}
	if val, ok := utils.ExtractString(data, "addr"); ok {
		metrics.Addr = val
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
	if val, ok := utils.ExtractInt(data, "default_min_len"); ok {
		cli.DefaultMinLen = val
	}
	if val, ok := utils.ExtractInt(data, "default_max_len"); ok {
		cli.DefaultMaxLen = val
	}
	if val, ok := utils.ExtractBool(data, "default_no_filter"); ok {
		cli.DefaultNoFilter = val
	}
}

// SaveConfig writes config as TOML, or YAML for .yaml/.yml paths.
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveConfigFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}

// Update changes server limits and saves to file. Nil arguments are left as is.
func (c *Config) Update(configPath string, maxLimit, minPrefix, maxPrefix *int, enableFilter *bool) error {
	if maxLimit != nil {
		c.Suggest.MaxLimit = *maxLimit
	}
	if minPrefix != nil {
		c.Server.MinPrefix = *minPrefix
	}
	if maxPrefix != nil {
		c.Server.MaxPrefix = *maxPrefix
	}
	if enableFilter != nil {
		c.Server.EnableFilter = *enableFilter
	}
	c.normalize()
	return SaveConfig(c, configPath)
}
