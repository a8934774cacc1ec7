// CLAUDE:SUMMARY Mirror configuration: env loader, optional YAML file, defaults.
package mirror

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mirror configuration. The zero value plus TargetURL is a
// working setup; everything else has a default.
type Config struct {
	// TargetURL is the page to mirror. Required.
	TargetURL string `yaml:"target_url"`

	// PublicBaseURL is prepended to every local reference written into the
	// mirrored markup. May be empty for root-relative references.
	PublicBaseURL string `yaml:"public_base_url"`

	// OutputDir receives index.html (and index.md when Markdown is set).
	// Default: "original".
	OutputDir string `yaml:"output_dir"`

	// AssetDir is the asset store directory; its base name is also the path
	// segment used in local references. Default: "assets".
	AssetDir string `yaml:"asset_dir"`

	// ManifestPath is the SQLite journal location. Empty disables journaling.
	ManifestPath string `yaml:"manifest_path"`

	// UserAgent for all outbound requests.
	UserAgent string `yaml:"user_agent"`

	// Timeout per request. Default 0: no timeout, a hung fetch hangs the
	// run. Setting this is an explicit deviation from the reference
	// behaviour, available for unattended operation.
	Timeout time.Duration `yaml:"timeout"`

	// MaxAssetBytes caps each downloaded body. 0 = fetcher default.
	MaxAssetBytes int64 `yaml:"max_asset_bytes"`

	// Markdown additionally writes an index.md rendition of the page.
	Markdown bool `yaml:"markdown"`

	Render RenderConfig `yaml:"render"`
}

// RenderConfig gates the headless-Chrome page fetch.
type RenderConfig struct {
	// Enabled routes the page markup fetch through Chrome. Assets are
	// always fetched with plain GETs.
	Enabled bool `yaml:"enabled"`

	// ControlURL of an external Chrome. Empty = launch locally.
	ControlURL string `yaml:"control_url"`

	// Settle wait after page load.
	Settle time.Duration `yaml:"settle"`
}

func (c *Config) defaults() {
	if c.OutputDir == "" {
		c.OutputDir = "original"
	}
	if c.AssetDir == "" {
		c.AssetDir = "assets"
	}
}

// FromEnv builds a Config from the environment. TARGET_URL and BASE_URL are
// the two inputs the pipeline was designed around; the rest are optional
// operator knobs.
func FromEnv() *Config {
	cfg := &Config{
		TargetURL:     os.Getenv("TARGET_URL"),
		PublicBaseURL: os.Getenv("BASE_URL"),
		OutputDir:     os.Getenv("OUTPUT_DIR"),
		AssetDir:      os.Getenv("ASSET_DIR"),
		ManifestPath:  os.Getenv("MANIFEST_DB"),
		UserAgent:     os.Getenv("USER_AGENT"),
	}
	if v := os.Getenv("FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if boolEnv("MARKDOWN") {
		cfg.Markdown = true
	}
	if boolEnv("RENDER") {
		cfg.Render.Enabled = true
	}
	cfg.Render.ControlURL = os.Getenv("RENDER_CONTROL_URL")
	return cfg
}

func boolEnv(key string) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
