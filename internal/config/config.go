package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the quorum configuration.
type Config struct {
	LLM                    LLMConfig     `toml:"llm"`
	Agents                 []string      `toml:"agents,omitempty"`
	MaxConcurrency         int           `toml:"maxConcurrency"`
	AnalyzerTimeoutSeconds int           `toml:"analyzerTimeoutSeconds"`
	Format                 string        `toml:"format"`
	FailOn                 string        `toml:"failOn"`
	MaxFindings            int           `toml:"maxFindings"`
	RulesFile              string        `toml:"rulesFile,omitempty"`
	LogLevel               string        `toml:"logLevel"`
	Cache                  CacheConfig   `toml:"cache"`
	Privacy                PrivacyConfig `toml:"privacy"`
	Server                 ServerConfig  `toml:"server"`
	GitHub                 GitHubConfig  `toml:"github"`
	Review                 ReviewConfig  `toml:"review"`
}

// LLMConfig selects the model provider used by the review personas.
type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model,omitempty"`
	BaseURL     string  `toml:"baseURL,omitempty"`
	APIKey      string  `toml:"apiKey,omitempty"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"maxTokens"`
	// TimeoutSeconds bounds a single provider call.
	TimeoutSeconds int `toml:"timeoutSeconds"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir,omitempty"`
	TTLSeconds int    `toml:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `toml:"redactSecrets"`
	RedactPaths   []string `toml:"redactPaths,omitempty"`
}

// ServerConfig controls `quorum serve`.
type ServerConfig struct {
	Host                 string `toml:"host"`
	Port                 int    `toml:"port"`
	RateLimitEnabled     bool   `toml:"rateLimitEnabled"`
	RateLimitPerMinute   int    `toml:"rateLimitPerMinute"`
	ReviewTimeoutSeconds int    `toml:"reviewTimeoutSeconds"`
}

// GitHubConfig points the pull request client at an API endpoint.
type GitHubConfig struct {
	APIURL string `toml:"apiURL,omitempty"`
	Token  string `toml:"token,omitempty"`
}

// ReviewConfig limits what the review service accepts.
type ReviewConfig struct {
	MaxFileSizeKB      int      `toml:"maxFileSizeKB"`
	SupportedLanguages []string `toml:"supportedLanguages"`
}

var (
	validFormats  = []string{"text", "json", "markdown", "github", "sarif", "pretty"}
	validFailOn   = []string{"none", "info", "low", "medium", "high", "critical"}
	validLogLevel = []string{"debug", "info", "warn", "error"}
)

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:       "groq",
			Temperature:    0.1,
			MaxTokens:      2000,
			TimeoutSeconds: 120,
		},
		Agents:                 []string{"security", "performance", "quality", "logic", "secrets"},
		MaxConcurrency:         8,
		AnalyzerTimeoutSeconds: 180,
		Format:                 "text",
		FailOn:                 "none",
		MaxFindings:            50,
		LogLevel:               "info",
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Server: ServerConfig{
			Host:                 "0.0.0.0",
			Port:                 8000,
			RateLimitEnabled:     true,
			RateLimitPerMinute:   60,
			ReviewTimeoutSeconds: 300,
		},
		Review: ReviewConfig{
			MaxFileSizeKB:      500,
			SupportedLanguages: []string{"python", "javascript", "typescript", "java", "go", "rust"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for quorum.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quorum"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "quorum"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "quorum"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "quorum"), nil
	default:
		return filepath.Join(home, ".config", "quorum"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadFile decodes the config file over cfg. Keys absent from the file keep
// the values already in cfg. A missing file is not an error.
func LoadFile(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-empty values are applied).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	if err := LoadFile(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKeys maps QUORUM_* variables to config keys.
var envKeys = map[string]string{
	"QUORUM_PROVIDER":         "llm.provider",
	"QUORUM_MODEL":            "llm.model",
	"QUORUM_BASE_URL":         "llm.baseURL",
	"QUORUM_TEMPERATURE":      "llm.temperature",
	"QUORUM_MAX_TOKENS":       "llm.maxTokens",
	"QUORUM_AGENTS":           "agents",
	"QUORUM_MAX_CONCURRENCY":  "maxConcurrency",
	"QUORUM_FORMAT":           "format",
	"QUORUM_FAIL_ON":          "failOn",
	"QUORUM_MAX_FINDINGS":     "maxFindings",
	"QUORUM_LOG_LEVEL":        "logLevel",
	"QUORUM_HOST":             "server.host",
	"QUORUM_PORT":             "server.port",
	"QUORUM_RATE_LIMIT":       "server.rateLimitPerMinute",
	"QUORUM_REVIEW_TIMEOUT":   "server.reviewTimeoutSeconds",
	"QUORUM_MAX_FILE_SIZE_KB": "review.maxFileSizeKB",
	"QUORUM_GITHUB_API_URL":   "github.apiURL",
	"GITHUB_TOKEN":            "github.token",
}

func mergeEnv(cfg *Config) error {
	names := make([]string, 0, len(envKeys))
	for name := range envKeys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		if err := SetField(cfg, envKeys[name], v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k, v := range overrides {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := SetField(cfg, k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

type setter func(cfg *Config, value string) error

var fields = map[string]setter{
	"llm.provider":                func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	"llm.model":                   func(c *Config, v string) error { c.LLM.Model = v; return nil },
	"llm.baseURL":                 func(c *Config, v string) error { c.LLM.BaseURL = v; return nil },
	"llm.apiKey":                  func(c *Config, v string) error { c.LLM.APIKey = v; return nil },
	"llm.temperature":             floatField(func(c *Config) *float64 { return &c.LLM.Temperature }),
	"llm.maxTokens":               intField(func(c *Config) *int { return &c.LLM.MaxTokens }),
	"llm.timeoutSeconds":          intField(func(c *Config) *int { return &c.LLM.TimeoutSeconds }),
	"agents":                      listField(func(c *Config) *[]string { return &c.Agents }),
	"maxConcurrency":              intField(func(c *Config) *int { return &c.MaxConcurrency }),
	"analyzerTimeoutSeconds":      intField(func(c *Config) *int { return &c.AnalyzerTimeoutSeconds }),
	"format":                      func(c *Config, v string) error { c.Format = v; return nil },
	"failOn":                      func(c *Config, v string) error { c.FailOn = v; return nil },
	"maxFindings":                 intField(func(c *Config) *int { return &c.MaxFindings }),
	"rulesFile":                   func(c *Config, v string) error { c.RulesFile = v; return nil },
	"logLevel":                    func(c *Config, v string) error { c.LogLevel = strings.ToLower(v); return nil },
	"cache.enabled":               boolField(func(c *Config) *bool { return &c.Cache.Enabled }),
	"cache.dir":                   func(c *Config, v string) error { c.Cache.Dir = v; return nil },
	"cache.ttlSeconds":            intField(func(c *Config) *int { return &c.Cache.TTLSeconds }),
	"privacy.redactSecrets":       boolField(func(c *Config) *bool { return &c.Privacy.RedactSecrets }),
	"privacy.redactPaths":         listField(func(c *Config) *[]string { return &c.Privacy.RedactPaths }),
	"server.host":                 func(c *Config, v string) error { c.Server.Host = v; return nil },
	"server.port":                 intField(func(c *Config) *int { return &c.Server.Port }),
	"server.rateLimitEnabled":     boolField(func(c *Config) *bool { return &c.Server.RateLimitEnabled }),
	"server.rateLimitPerMinute":   intField(func(c *Config) *int { return &c.Server.RateLimitPerMinute }),
	"server.reviewTimeoutSeconds": intField(func(c *Config) *int { return &c.Server.ReviewTimeoutSeconds }),
	"github.apiURL":               func(c *Config, v string) error { c.GitHub.APIURL = v; return nil },
	"github.token":                func(c *Config, v string) error { c.GitHub.Token = v; return nil },
	"review.maxFileSizeKB":        intField(func(c *Config) *int { return &c.Review.MaxFileSizeKB }),
	"review.supportedLanguages":   listField(func(c *Config) *[]string { return &c.Review.SupportedLanguages }),
}

// Short aliases accepted by CLI overrides and `config set`.
var aliases = map[string]string{
	"provider":    "llm.provider",
	"model":       "llm.model",
	"temperature": "llm.temperature",
	"maxTokens":   "llm.maxTokens",
}

func intField(get func(*Config) *int) setter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("must be an integer: %w", err)
		}
		*get(c) = n
		return nil
	}
}

func floatField(get func(*Config) *float64) setter {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("must be a number: %w", err)
		}
		*get(c) = f
		return nil
	}
}

func boolField(get func(*Config) *bool) setter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("must be true or false: %w", err)
		}
		*get(c) = b
		return nil
	}
}

func listField(get func(*Config) *[]string) setter {
	return func(c *Config, v string) error {
		var items []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		*get(c) = items
		return nil
	}
}

// Keys lists every key accepted by SetField, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	if full, ok := aliases[key]; ok {
		key = full
	}
	set, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err := set(cfg, value); err != nil {
		return fmt.Errorf("%s %w", key, err)
	}
	return nil
}

// Validate rejects values no command can run with.
func (c Config) Validate() error {
	var errs []error
	if c.LLM.Provider == "" {
		errs = append(errs, errors.New("llm.provider is required"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature %v out of range [0,2]", c.LLM.Temperature))
	}
	if !slices.Contains(validFormats, c.Format) {
		errs = append(errs, fmt.Errorf("invalid format %q (valid: %s)", c.Format, strings.Join(validFormats, ", ")))
	}
	if !slices.Contains(validFailOn, c.FailOn) {
		errs = append(errs, fmt.Errorf("invalid failOn %q (valid: %s)", c.FailOn, strings.Join(validFailOn, ", ")))
	}
	if !slices.Contains(validLogLevel, c.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid logLevel %q (valid: %s)", c.LogLevel, strings.Join(validLogLevel, ", ")))
	}
	if c.MaxConcurrency < 0 {
		errs = append(errs, errors.New("maxConcurrency must not be negative"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

var providerKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"groq":      "GROQ_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
	"ollama":    "OLLAMA_API_KEY",
}

// ProviderKeyEnv names the environment variable holding the API key for provider.
func ProviderKeyEnv(provider string) string {
	return providerKeyEnv[provider]
}

// APIKey returns the configured LLM key, falling back to the provider's
// standard environment variable.
func (c Config) APIKey() string {
	if c.LLM.APIKey != "" {
		return c.LLM.APIKey
	}
	if env := ProviderKeyEnv(c.LLM.Provider); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// AnalyzerTimeout is the per-analyzer deadline, zero when unset.
func (c Config) AnalyzerTimeout() time.Duration {
	return time.Duration(c.AnalyzerTimeoutSeconds) * time.Second
}

// LLMTimeout bounds a single provider call, zero when unset.
func (c Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// Masked returns a copy safe to print: credentials are replaced.
func (c Config) Masked() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.LLM.APIKey = mask(c.LLM.APIKey)
	c.GitHub.Token = mask(c.GitHub.Token)
	return c
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}
