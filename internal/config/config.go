// Package config loads the docsite site configuration.
package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// EnvHostname overrides sitemap.hostname when set.
const EnvHostname = "DOCSITE_HOSTNAME"

// Config represents the site configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Theme   ThemeConfig   `yaml:"theme"`
	Content ContentConfig `yaml:"content"`
	Sitemap SitemapConfig `yaml:"sitemap"`
	Output  OutputConfig  `yaml:"output"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`

	// BaseDir is the directory relative paths are resolved against
	// (the directory holding the configuration file).
	BaseDir string `yaml:"-"`
}

// SiteConfig holds site-wide metadata.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Lang        string `yaml:"lang,omitempty"`
	// Base is the URL path the site is served under, e.g. "/dovecot-fts-flatcurve/".
	Base string `yaml:"base,omitempty"`
	// LastUpdated enables git-derived last-updated times.
	LastUpdated bool `yaml:"last_updated,omitempty"`
}

// NavLink is a single navigation entry.
type NavLink struct {
	Text string `yaml:"text"`
	Link string `yaml:"link"`
}

// SidebarGroup is a titled group of sidebar links. Text may be empty.
type SidebarGroup struct {
	Text  string    `yaml:"text,omitempty"`
	Items []NavLink `yaml:"items"`
}

// SocialLink is an icon link shown in the header.
type SocialLink struct {
	Icon string `yaml:"icon"`
	Link string `yaml:"link"`
}

// SearchConfig is passed through to templates; docsite does not index content.
type SearchConfig struct {
	Provider string `yaml:"provider,omitempty"`
}

// ThemeConfig describes the navigation structure of the built-in layout.
type ThemeConfig struct {
	Nav         []NavLink      `yaml:"nav,omitempty"`
	Sidebar     []SidebarGroup `yaml:"sidebar,omitempty"`
	SocialLinks []SocialLink   `yaml:"social_links,omitempty"`
	Search      SearchConfig   `yaml:"search,omitempty"`
	// Outline is "deep" (h2-h6) or a single heading level.
	Outline string `yaml:"outline,omitempty"`
}

// ContentConfig locates the site sources.
type ContentConfig struct {
	Dir       string `yaml:"dir"`
	DataDir   string `yaml:"data_dir,omitempty"`
	PublicDir string `yaml:"public_dir,omitempty"`
}

// SitemapConfig configures sitemap.xml emission.
type SitemapConfig struct {
	// Hostname is the absolute URL of the deployed site root. Required for builds.
	Hostname      string `yaml:"hostname"`
	NotFoundPage  string `yaml:"not_found_page,omitempty"`
	PageExtension string `yaml:"page_extension,omitempty"`
	Gzip          bool   `yaml:"gzip,omitempty"`
}

// OutputConfig configures the build output.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Report writes build-report.json next to the output directory.
	Report bool `yaml:"report,omitempty"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig enables the build history database.
type HistoryConfig struct {
	Database string `yaml:"database,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	baseDir := filepath.Dir(configPath)
	loadEnvFiles(baseDir)

	// #nosec G304 -- configuration path is supplied by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.ConfigError("failed to parse configuration").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	cfg.BaseDir = baseDir
	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Sitemap.Hostname == "" {
		slog.Warn("sitemap.hostname is not set; builds will fail when writing sitemap.xml",
			"env", EnvHostname)
	}
	return cfg, nil
}

// Parse decodes YAML after expanding ${VAR} references. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			return &cfg, nil
		}
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() {
	if h := strings.TrimSpace(os.Getenv(EnvHostname)); h != "" {
		c.Sitemap.Hostname = h
	}
}

// Path resolves p against BaseDir unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

// OutlineLevels returns the inclusive heading range shown in the page outline.
func (c *Config) OutlineLevels() (minLevel, maxLevel int) {
	return ParseOutline(c.Theme.Outline)
}

// ParseOutline maps an outline setting to a heading range: "deep" is h2-h6,
// a number selects that level only, anything else falls back to h2.
func ParseOutline(o string) (minLevel, maxLevel int) {
	o = strings.TrimSpace(o)
	if o == "deep" {
		return 2, 6
	}
	n, err := strconv.Atoi(o)
	if err != nil || n < 1 || n > 6 {
		return 2, 2
	}
	return n, n
}
