package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config is the persistent application configuration
type Config struct {
	// Annotation backend settings
	Backend BackendConfig `json:"backend"`

	// UI Preferences
	UI UIConfig `json:"ui"`

	// Where batch files and the cache database live
	DataDir string `json:"data_dir,omitempty"`
}

// BackendConfig holds annotation backend settings
type BackendConfig struct {
	URL           string `json:"url"`
	TimeoutSecs   int    `json:"timeout_secs"`
	RequestsPerTick int  `json:"requests_per_tick"` // reannotation rate limit, per second
}

// UIConfig holds UI preferences
type UIConfig struct {
	PageSize        int      `json:"page_size"`          // examples per load-more page
	LoadMoreDelayMs int      `json:"load_more_delay_ms"` // minimum latency before the window grows
	ColorCode       bool     `json:"color_code"`         // per-class color coding
	ClassPalette    []string `json:"class_palette,omitempty"` // hex colors for unclear/negative/positive
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:           "http://localhost:8000",
			TimeoutSecs:   60,
			RequestsPerTick: 1,
		},
		UI: UIConfig{
			PageSize:        50,
			LoadMoreDelayMs: 300,
			ColorCode:       true,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".examdeck", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from an explicit path, or returns defaults.
// A corrupt file falls back to defaults rather than failing startup.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), nil
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to an explicit path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// AutoPopulateFromEnv fills in settings from environment variables
func (c *Config) AutoPopulateFromEnv() {
	if url := os.Getenv("EXAMDECK_BACKEND_URL"); url != "" {
		c.Backend.URL = url
	}
	if dir := os.Getenv("EXAMDECK_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
}

// applyDefaults fills zero values a hand-edited config may have dropped.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Backend.URL == "" {
		c.Backend.URL = def.Backend.URL
	}
	if c.Backend.TimeoutSecs <= 0 {
		c.Backend.TimeoutSecs = def.Backend.TimeoutSecs
	}
	if c.Backend.RequestsPerTick <= 0 {
		c.Backend.RequestsPerTick = def.Backend.RequestsPerTick
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = def.UI.PageSize
	}
	if c.UI.LoadMoreDelayMs < 0 {
		c.UI.LoadMoreDelayMs = 0
	}
}

// DataPath returns the directory examdeck stores its cache database in.
func (c *Config) DataPath() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".examdeck")
}
