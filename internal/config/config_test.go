package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DND_SESSIONS_DIR", "DND_CAMPAIGNS_DIR", "DND_TEMPLATES_DIR", "DND_KNOWLEDGE_DIR",
		"DND_LOG_LEVEL", "DND_LOG_FILE", "DND_DISABLED_TOOLS", "DND_DISABLED_TYPES",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.SessionsDir != DefaultSessionsDir {
		t.Fatalf("SessionsDir = %q, want %q", cfg.SessionsDir, DefaultSessionsDir)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"knowledge_dir": "/srv/rules", "log_level": "debug"}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.KnowledgeDir != "/srv/rules" {
		t.Fatalf("KnowledgeDir = %q, want /srv/rules", cfg.KnowledgeDir)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Untouched fields keep defaults
	if cfg.CampaignsDir != DefaultCampaignsDir {
		t.Fatalf("CampaignsDir = %q, want %q", cfg.CampaignsDir, DefaultCampaignsDir)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"disabled_tools": ["campaign_create_instance", "character_update"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "campaign_create_instance" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "campaign_create_instance")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	clearEnv(t)
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	writeConfig(t, globalDir, `{"log_level": "warn", "disabled_tools": ["dice_roll"]}`)
	writeConfig(t, filepath.Join(repoRoot, ".dmkit"), `{"log_level": "debug", "disabled_tools": ["campaign_log"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug (repo override)", cfg.LogLevel)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.SessionsDir != DefaultSessionsDir {
		t.Errorf("SessionsDir = %q, want default", cfg.SessionsDir)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_EnvOverrides(t *testing.T) {
	clearEnv(t)
	globalDir := t.TempDir()
	writeConfig(t, globalDir, `{"sessions_dir": "from_file", "log_level": "warn", "disabled_types": ["campaign"]}`)

	t.Setenv("DND_SESSIONS_DIR", "/tmp/sessions")
	t.Setenv("DND_LOG_LEVEL", "DEBUG")
	t.Setenv("DND_DISABLED_TYPES", "knowledge, dice")

	cfg, err := LoadWithRepo(globalDir, "")
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.SessionsDir != "/tmp/sessions" {
		t.Errorf("SessionsDir = %q, want env value", cfg.SessionsDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	want := []string{"campaign", "knowledge", "dice"}
	if len(cfg.DisabledTypes) != len(want) {
		t.Fatalf("DisabledTypes = %v, want %v", cfg.DisabledTypes, want)
	}
	for i := range want {
		if cfg.DisabledTypes[i] != want[i] {
			t.Errorf("DisabledTypes[%d] = %q, want %q", i, cfg.DisabledTypes[i], want[i])
		}
	}
}

func TestResolve(t *testing.T) {
	home := t.TempDir()
	cfg := &Config{
		SessionsDir:  "",
		CampaignsDir: "camps",
		KnowledgeDir: "/abs/knowledge",
		LogFile:      "dmkit.log",
	}
	cfg.Resolve(home)

	if cfg.SessionsDir != filepath.Join(home, DefaultSessionsDir) {
		t.Errorf("SessionsDir = %q", cfg.SessionsDir)
	}
	if cfg.CampaignsDir != filepath.Join(home, "camps") {
		t.Errorf("CampaignsDir = %q", cfg.CampaignsDir)
	}
	if cfg.TemplatesDir != filepath.Join(home, DefaultTemplatesDir) {
		t.Errorf("TemplatesDir = %q", cfg.TemplatesDir)
	}
	if cfg.KnowledgeDir != "/abs/knowledge" {
		t.Errorf("KnowledgeDir = %q", cfg.KnowledgeDir)
	}
	if cfg.LogFile != filepath.Join(home, "dmkit.log") {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{LogLevel: "info", DBMaxOpenConns: 5}
	overlay := &Config{LogLevel: "error"}

	result := Merge(base, overlay)

	if result.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error (overlay)", result.LogLevel)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"dice_roll", "session_log"}}
	overlay := &Config{DisabledTools: []string{"session_log", " campaign_log "}}

	result := Merge(base, overlay)

	want := []string{"dice_roll", "session_log", "campaign_log"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestFindRepoConfig_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, filepath.Join(tmpDir, ".dmkit"), `{}`)
	configPath := filepath.Join(tmpDir, ".dmkit", "config.json")

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	if found := FindRepoConfig(subdir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
	if found := FindRepoConfig(tmpDir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}
