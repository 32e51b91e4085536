package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.LLM.Provider != "groq" {
		t.Errorf("Default provider = %q, want %q", cfg.LLM.Provider, "groq")
	}
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("Default temperature = %v, want 0.1", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 2000 {
		t.Errorf("Default maxTokens = %d, want 2000", cfg.LLM.MaxTokens)
	}
	if cfg.Format != "text" {
		t.Errorf("Default format = %q, want %q", cfg.Format, "text")
	}
	if cfg.FailOn != "none" {
		t.Errorf("Default failOn = %q, want %q", cfg.FailOn, "none")
	}
	if cfg.Server.Port != 8000 || cfg.Server.RateLimitPerMinute != 60 || cfg.Server.ReviewTimeoutSeconds != 300 {
		t.Errorf("Default server = %+v", cfg.Server)
	}
	if cfg.Review.MaxFileSizeKB != 500 {
		t.Errorf("Default maxFileSizeKB = %d, want 500", cfg.Review.MaxFileSizeKB)
	}
	if len(cfg.Agents) != 5 {
		t.Errorf("Default agents = %v", cfg.Agents)
	}
	if !cfg.Privacy.RedactSecrets {
		t.Error("Default redactSecrets should be true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestMergeEnv(t *testing.T) {
	t.Setenv("QUORUM_PROVIDER", "openai")
	t.Setenv("QUORUM_MODEL", "gpt-4o")
	t.Setenv("QUORUM_FAIL_ON", "high")
	t.Setenv("QUORUM_FORMAT", "json")
	t.Setenv("QUORUM_MAX_FINDINGS", "10")
	t.Setenv("QUORUM_AGENTS", "security, secrets")
	t.Setenv("QUORUM_PORT", "9090")
	t.Setenv("GITHUB_TOKEN", "ghp_test")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}

	if cfg.LLM.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", cfg.LLM.Provider, "openai")
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", cfg.LLM.Model, "gpt-4o")
	}
	if cfg.FailOn != "high" {
		t.Errorf("FailOn = %q, want %q", cfg.FailOn, "high")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.MaxFindings != 10 {
		t.Errorf("MaxFindings = %d, want 10", cfg.MaxFindings)
	}
	if strings.Join(cfg.Agents, ",") != "security,secrets" {
		t.Errorf("Agents = %v", cfg.Agents)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.GitHub.Token != "ghp_test" {
		t.Errorf("GitHub.Token = %q", cfg.GitHub.Token)
	}
}

func TestMergeEnv_InvalidInt(t *testing.T) {
	t.Setenv("QUORUM_MAX_FINDINGS", "notanumber")

	cfg := Default()
	err := mergeEnv(&cfg)
	if err == nil {
		t.Fatal("Expected error for invalid QUORUM_MAX_FINDINGS")
	}
	if !strings.Contains(err.Error(), "QUORUM_MAX_FINDINGS") {
		t.Errorf("error should name the variable, got %v", err)
	}
}

func TestMergeOverrides(t *testing.T) {
	cfg := Default()
	overrides := map[string]string{
		"provider":    "gemini",
		"model":       "gemini-2.0-flash",
		"format":      "json",
		"failOn":      "medium",
		"maxFindings": "25",
		"rulesFile":   "",
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		t.Fatalf("mergeOverrides error: %v", err)
	}

	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Provider = %q, want %q", cfg.LLM.Provider, "gemini")
	}
	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q, want %q", cfg.LLM.Model, "gemini-2.0-flash")
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q, want %q", cfg.Format, "json")
	}
	if cfg.FailOn != "medium" {
		t.Errorf("FailOn = %q, want %q", cfg.FailOn, "medium")
	}
	if cfg.MaxFindings != 25 {
		t.Errorf("MaxFindings = %d, want 25", cfg.MaxFindings)
	}
	if cfg.RulesFile != "" {
		t.Errorf("empty override should be ignored, RulesFile = %q", cfg.RulesFile)
	}
}

func TestSetField(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(Config) bool
	}{
		{"llm.temperature", "0.5", func(c Config) bool { return c.LLM.Temperature == 0.5 }},
		{"temperature", "0.2", func(c Config) bool { return c.LLM.Temperature == 0.2 }},
		{"cache.enabled", "false", func(c Config) bool { return !c.Cache.Enabled }},
		{"privacy.redactPaths", "*.pem, .env", func(c Config) bool { return len(c.Privacy.RedactPaths) == 2 }},
		{"server.rateLimitEnabled", "false", func(c Config) bool { return !c.Server.RateLimitEnabled }},
		{"review.supportedLanguages", "go", func(c Config) bool { return len(c.Review.SupportedLanguages) == 1 }},
		{"logLevel", "DEBUG", func(c Config) bool { return c.LogLevel == "debug" }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			cfg := Default()
			if err := SetField(&cfg, tt.key, tt.value); err != nil {
				t.Fatalf("SetField(%q, %q) error: %v", tt.key, tt.value, err)
			}
			if !tt.check(cfg) {
				t.Errorf("SetField(%q, %q) did not apply: %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestSetField_UnknownKey(t *testing.T) {
	cfg := Default()
	if err := SetField(&cfg, "nonexistent", "value"); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestSetField_InvalidValues(t *testing.T) {
	for _, kv := range [][2]string{
		{"maxFindings", "notanumber"},
		{"llm.temperature", "warm"},
		{"cache.enabled", "maybe"},
	} {
		cfg := Default()
		if err := SetField(&cfg, kv[0], kv[1]); err == nil {
			t.Errorf("SetField(%q, %q) expected error", kv[0], kv[1])
		}
	}
}

func TestConfigPrecedence(t *testing.T) {
	t.Setenv("QUORUM_PROVIDER", "openai")

	cfg := Default()
	if err := mergeEnv(&cfg); err != nil {
		t.Fatalf("mergeEnv error: %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("After env merge, Provider = %q, want %q", cfg.LLM.Provider, "openai")
	}

	if err := mergeOverrides(&cfg, map[string]string{"provider": "gemini"}); err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("After override, Provider = %q, want %q", cfg.LLM.Provider, "gemini")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"format", func(c *Config) { c.Format = "yaml" }},
		{"failOn", func(c *Config) { c.FailOn = "severe" }},
		{"logLevel", func(c *Config) { c.LogLevel = "trace" }},
		{"temperature", func(c *Config) { c.LLM.Temperature = 3 }},
		{"provider", func(c *Config) { c.LLM.Provider = "" }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}

func TestAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk_env")

	cfg := Default()
	if got := cfg.APIKey(); got != "gsk_env" {
		t.Errorf("APIKey() = %q, want env fallback", got)
	}
	cfg.LLM.APIKey = "explicit"
	if got := cfg.APIKey(); got != "explicit" {
		t.Errorf("APIKey() = %q, want configured key", got)
	}
}

func TestMasked(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "secret"
	cfg.GitHub.Token = "token"

	m := cfg.Masked()
	if m.LLM.APIKey == "secret" || m.GitHub.Token == "token" {
		t.Errorf("Masked() leaked credentials: %+v", m)
	}
	if cfg.LLM.APIKey != "secret" {
		t.Error("Masked() must not modify the receiver")
	}
}

func TestAnalyzerTimeout(t *testing.T) {
	cfg := Default()
	cfg.AnalyzerTimeoutSeconds = 30
	if got := cfg.AnalyzerTimeout(); got != 30*time.Second {
		t.Errorf("AnalyzerTimeout() = %v", got)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir error: %v", err)
	}
	if dir != "/tmp/xdg-test/quorum" {
		t.Errorf("ConfigDir = %q, want %q", dir, "/tmp/xdg-test/quorum")
	}
	path, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath error: %v", err)
	}
	if path != "/tmp/xdg-test/quorum/config.toml" {
		t.Errorf("ConfigPath = %q, want %q", path, "/tmp/xdg-test/quorum/config.toml")
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o"
	cfg.MaxFindings = 25
	cfg.Cache.Enabled = false

	if err := Save(cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded := Default()
	if err := LoadFile(&loaded); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if loaded.LLM.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", loaded.LLM.Provider, "openai")
	}
	if loaded.LLM.Model != "gpt-4o" {
		t.Errorf("Model = %q, want %q", loaded.LLM.Model, "gpt-4o")
	}
	if loaded.MaxFindings != 25 {
		t.Errorf("MaxFindings = %d, want 25", loaded.MaxFindings)
	}
	if loaded.Cache.Enabled {
		t.Error("Cache.Enabled should round-trip as false")
	}
}

func TestLoadFile_PartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	content := `
failOn = "high"

[llm]
provider = "anthropic"

[privacy]
redactSecrets = false
`
	if err := os.MkdirAll(filepath.Join(dir, "quorum"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quorum", "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(&cfg); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.FailOn != "high" || cfg.LLM.Provider != "anthropic" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Privacy.RedactSecrets {
		t.Error("explicit false in file should override default")
	}
	if cfg.LLM.MaxTokens != 2000 || cfg.Server.Port != 8000 {
		t.Errorf("defaults lost for keys absent from file: %+v", cfg)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "quorum"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quorum", "config.toml"), []byte("format = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(&cfg); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFile_NoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	if err := LoadFile(&cfg); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.LLM.Provider != "groq" {
		t.Errorf("missing file should leave defaults, got %q", cfg.LLM.Provider)
	}
}

func TestLoad_Integration(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(map[string]string{"provider": "openai"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("Provider = %q, want %q", cfg.LLM.Provider, "openai")
	}
	if cfg.MaxFindings != 50 {
		t.Errorf("MaxFindings = %d, want 50 (default)", cfg.MaxFindings)
	}

	if _, err := Load(map[string]string{"format": "yaml"}); err == nil {
		t.Error("Load should reject an invalid format")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	for _, want := range []string{"llm.provider", "server.port", "review.maxFileSizeKB"} {
		found := false
		for _, k := range keys {
			if k == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Keys() missing %q", want)
		}
	}
}
