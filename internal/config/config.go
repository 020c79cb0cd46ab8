package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Game defaults for GUILTY GEAR -STRIVE- on GameBanana.
const (
	DefaultGameID       = 11534
	DefaultCategoryRoot = 12914
	DefaultBaseURL      = "https://gamebanana.com"
	DefaultPerPage      = 15
)

// Config mirrors the YAML schema. Missing optional values fall back to
// Default(); Validate() checks the rest.
type Config struct {
	Version int       `yaml:"version"`
	General General   `yaml:"general"`
	Game    Game      `yaml:"game"`
	Network Network   `yaml:"network"`
	Catalog Catalog   `yaml:"catalog"`
	Logging Logging   `yaml:"logging"`
	Metrics Metrics   `yaml:"metrics"`
	UI      UIOptions `yaml:"ui"`
}

type General struct {
	DataRoot     string `yaml:"data_root"`     // registry.json, state.db, caches
	DownloadRoot string `yaml:"download_root"` // archives and their extracted directories
}

type Game struct {
	ID           int    `yaml:"id"`
	ModsDir      string `yaml:"mods_dir"`      // staged mods live here, one directory per mod id
	CategoryRoot int    `yaml:"category_root"` // parent category listed in the category picker
}

type Network struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type Catalog struct {
	BaseURL       string `yaml:"base_url"`
	PerPage       int    `yaml:"per_page"`
	NSFW          bool   `yaml:"nsfw"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // human|json
}

type Metrics struct {
	PrometheusTextfile PromTextfile `yaml:"prometheus_textfile"`
}

type PromTextfile struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type UIOptions struct {
	// ResultLabel is the browse row pattern; tokens: {name} {views} {likes} {downloads} {category}.
	// Empty keeps the fixed-width default.
	ResultLabel string `yaml:"result_label"`
}

// Default returns a config usable without any file on disk.
func Default() *Config {
	data := "~/.cache/ggmod"
	if d, err := os.UserCacheDir(); err == nil && d != "" {
		data = filepath.Join(d, "ggmod")
	}
	c := &Config{
		Version: 1,
		General: General{DataRoot: data, DownloadRoot: filepath.Join(data, "downloads")},
		Game:    Game{ID: DefaultGameID, CategoryRoot: DefaultCategoryRoot},
		Network: Network{TimeoutSeconds: 60},
		Catalog: Catalog{BaseURL: DefaultBaseURL, PerPage: DefaultPerPage, CacheTTLHours: 24},
		Logging: Logging{Level: "info", Format: "human"},
	}
	c.Game.ModsDir = DetectModsDir()
	_ = c.expandPaths()
	return c
}

// Load reads, parses, expands, and validates a YAML config file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		return nil, err
	}
	// Expand ${ENV} placeholders before unmarshalling
	b = []byte(os.ExpandEnv(string(b)))
	c := Default()
	c.General.DownloadRoot = ""
	c.Game.ModsDir = ""
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.fillDefaults()
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) fillDefaults() {
	if c.General.DownloadRoot == "" && c.General.DataRoot != "" {
		c.General.DownloadRoot = filepath.Join(c.General.DataRoot, "downloads")
	}
	if c.Game.ID == 0 {
		c.Game.ID = DefaultGameID
	}
	if c.Game.CategoryRoot == 0 {
		c.Game.CategoryRoot = DefaultCategoryRoot
	}
	if c.Game.ModsDir == "" {
		c.Game.ModsDir = DetectModsDir()
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = DefaultBaseURL
	}
	if c.Catalog.PerPage == 0 {
		c.Catalog.PerPage = DefaultPerPage
	}
}

func (c *Config) expandPaths() error {
	var err error
	if c.General.DataRoot, err = expandTilde(c.General.DataRoot); err != nil {
		return err
	}
	if c.General.DownloadRoot, err = expandTilde(c.General.DownloadRoot); err != nil {
		return err
	}
	if c.Game.ModsDir, err = expandTilde(c.Game.ModsDir); err != nil {
		return fmt.Errorf("game.mods_dir: %w", err)
	}
	if c.Metrics.PrometheusTextfile.Path, err = expandTilde(c.Metrics.PrometheusTextfile.Path); err != nil {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", c.Version)
	}
	if c.General.DataRoot == "" {
		return errors.New("general.data_root is required")
	}
	if c.Catalog.PerPage < 1 || c.Catalog.PerPage > 50 {
		return fmt.Errorf("catalog.per_page must be between 1 and 50")
	}
	if c.Catalog.CacheTTLHours < 0 {
		return fmt.Errorf("catalog.cache_ttl_hours must be >= 0")
	}
	if c.Network.TimeoutSeconds < 0 {
		return fmt.Errorf("network.timeout_seconds must be >= 0")
	}
	lvl := strings.ToLower(c.Logging.Level)
	switch lvl {
	case "", "debug", "info", "warn", "error":
		// ok
	default:
		return fmt.Errorf("logging.level invalid: %s", c.Logging.Level)
	}
	fmtStr := strings.ToLower(c.Logging.Format)
	switch fmtStr {
	case "", "human", "json":
		// ok
	default:
		return fmt.Errorf("logging.format invalid: %s", c.Logging.Format)
	}
	return nil
}

// RegistryPath is where the list of known mods is persisted.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.General.DataRoot, "registry.json")
}

// steamRoots are checked in order.
var steamRoots = []string{
	"~/.steam/root",
	`C:\Program Files (x86)\Steam`,
}

// DetectModsDir returns the GGST ~mods directory under the first Steam
// installation found, or "" when none is present.
func DetectModsDir() string {
	root := ""
	for _, r := range steamRoots {
		p, err := expandTilde(r)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			root = p
			break
		}
	}
	if root == "" {
		return ""
	}
	return filepath.Join(root, "steamapps", "common", "GUILTY GEAR STRIVE", "RED", "Content", "Paks", "~mods")
}

func expandTilde(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] != '~' {
		return p, nil
	}
	h, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if p == "~" {
		return h, nil
	}
	return filepath.Join(h, p[2:]), nil
}

// EnsureDir creates path if it does not exist.
func EnsureDir(path string, perm fs.FileMode) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, perm)
}
