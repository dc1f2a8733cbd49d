package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Default directory names, resolved under the dmkit home directory.
const (
	DefaultSessionsDir  = "game_sessions"
	DefaultCampaignsDir = "campaigns"
	DefaultTemplatesDir = "available_campaigns"
	DefaultKnowledgeDir = "knowledge"
	DefaultLogLevel     = "info"
)

// Config holds application configuration.
type Config struct {
	// SessionsDir holds one directory per game session (characters, metadata, log).
	SessionsDir string `json:"sessions_dir,omitempty"`

	// CampaignsDir holds campaign skeletons and created campaign instances.
	CampaignsDir string `json:"campaigns_dir,omitempty"`

	// TemplatesDir holds campaign templates used by campaign_create_instance.
	TemplatesDir string `json:"templates_dir,omitempty"`

	// KnowledgeDir is the root of the markdown rules knowledge base.
	KnowledgeDir string `json:"knowledge_dir,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFile receives log output when set. Empty means stderr.
	LogFile string `json:"log_file,omitempty"`

	// DBMaxOpenConns limits the maximum number of open journal connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle journal connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool types to disable entirely
	// ("dice", "character", "session", "knowledge", "campaign").
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// envOverrides mirrors the environment knobs. Empty values leave the file config untouched.
type envOverrides struct {
	SessionsDir   string   `env:"DND_SESSIONS_DIR"`
	CampaignsDir  string   `env:"DND_CAMPAIGNS_DIR"`
	TemplatesDir  string   `env:"DND_TEMPLATES_DIR"`
	KnowledgeDir  string   `env:"DND_KNOWLEDGE_DIR"`
	LogLevel      string   `env:"DND_LOG_LEVEL"`
	LogFile       string   `env:"DND_LOG_FILE"`
	DisabledTools []string `env:"DND_DISABLED_TOOLS" envSeparator:","`
	DisabledTypes []string `env:"DND_DISABLED_TYPES" envSeparator:","`
}

// DefaultConfig returns the default configuration.
// Directories are relative until Resolve is called.
func DefaultConfig() *Config {
	return &Config{
		SessionsDir:  DefaultSessionsDir,
		CampaignsDir: DefaultCampaignsDir,
		TemplatesDir: DefaultTemplatesDir,
		KnowledgeDir: DefaultKnowledgeDir,
		LogLevel:     DefaultLogLevel,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.dmkit.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global home and the nearest repo .dmkit directory.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Environment overrides are applied last. Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo, then environment
	return ApplyEnv(Merge(Merge(DefaultConfig(), global), repo))
}

// FindRepoConfig walks upward from startDir to find the nearest .dmkit/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".dmkit", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ApplyEnv overlays DND_* environment variables onto cfg and returns the result.
func ApplyEnv(cfg *Config) (*Config, error) {
	var raw envOverrides
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	overlay := &Config{
		SessionsDir:   raw.SessionsDir,
		CampaignsDir:  raw.CampaignsDir,
		TemplatesDir:  raw.TemplatesDir,
		KnowledgeDir:  raw.KnowledgeDir,
		LogLevel:      strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		LogFile:       raw.LogFile,
		DisabledTools: raw.DisabledTools,
		DisabledTypes: raw.DisabledTypes,
	}
	return Merge(cfg, overlay), nil
}

// Resolve makes every directory absolute. Relative directories are placed under baseDir.
func (c *Config) Resolve(baseDir string) {
	c.SessionsDir = resolveDir(baseDir, c.SessionsDir, DefaultSessionsDir)
	c.CampaignsDir = resolveDir(baseDir, c.CampaignsDir, DefaultCampaignsDir)
	c.TemplatesDir = resolveDir(baseDir, c.TemplatesDir, DefaultTemplatesDir)
	c.KnowledgeDir = resolveDir(baseDir, c.KnowledgeDir, DefaultKnowledgeDir)
	if c.LogFile != "" && !filepath.IsAbs(c.LogFile) {
		c.LogFile = filepath.Join(baseDir, c.LogFile)
	}
}

func resolveDir(baseDir, dir, fallback string) string {
	if dir == "" {
		dir = fallback
	}
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(baseDir, dir)
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	return &Config{
		SessionsDir:    mergeString(base.SessionsDir, overlay.SessionsDir),
		CampaignsDir:   mergeString(base.CampaignsDir, overlay.CampaignsDir),
		TemplatesDir:   mergeString(base.TemplatesDir, overlay.TemplatesDir),
		KnowledgeDir:   mergeString(base.KnowledgeDir, overlay.KnowledgeDir),
		LogLevel:       mergeString(base.LogLevel, overlay.LogLevel),
		LogFile:        mergeString(base.LogFile, overlay.LogFile),
		DBMaxOpenConns: mergeInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns),
		DBMaxIdleConns: mergeInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns),
		DisabledTools:  mergeStringSlice(base.DisabledTools, overlay.DisabledTools),
		DisabledTypes:  mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes),
	}
}

func mergeString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

func mergeInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s != "" && !seen[s] {
				seen[s] = true
				result = append(result, s)
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
