// Package config provides application-wide configuration. Defaults are layered
// first, then an optional YAML file named by MFGOPS_CONFIG, then environment
// variables. All fields have safe defaults so the binary runs locally without
// any setup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the manufacturing operations service.
type Config struct {
	// HTTP
	Addr string `yaml:"addr"` // MFGOPS_ADDR — default: ":8080"

	// Storage
	DBPath string `yaml:"db_path"` // MFGOPS_DB_PATH — default: "mfgops.db"

	// Auth
	JWTSecret         string `yaml:"jwt_secret"`          // MFGOPS_JWT_SECRET — signing secret, plumbed into pkg/auth at startup
	AdminUser         string `yaml:"admin_user"`          // MFGOPS_ADMIN_USER — default: "admin"
	AdminPasswordHash string `yaml:"admin_password_hash"` // MFGOPS_ADMIN_PASSWORD_HASH — bcrypt; empty disables login

	// Logging
	LogLevel string `yaml:"log_level"` // MFGOPS_LOG_LEVEL — default: "info"

	// LLM
	LLMProvider     string `yaml:"llm_provider"`      // LLM_PROVIDER — default: "ollama"
	OllamaBaseURL   string `yaml:"ollama_base_url"`   // OLLAMA_BASE_URL — default: "http://localhost:11434"
	OllamaModel     string `yaml:"ollama_model"`      // OLLAMA_MODEL — default: "nomic-embed-text" (embed model, 768 dims)
	OllamaChatModel string `yaml:"ollama_chat_model"` // OLLAMA_CHAT_MODEL — default: "llama3.2:3b"

	// Mock backends enabled at startup.
	Backends []string `yaml:"backends"` // MFGOPS_BACKENDS — comma-separated, default: all three

	// Remote MCP server
	Remote RemoteConfig `yaml:"remote"`

	// Document retrieval
	DocsDir      string `yaml:"docs_dir"`      // MFGOPS_DOCS_DIR — default: "./docs"
	ChunkSize    int    `yaml:"chunk_size"`    // MFGOPS_CHUNK_SIZE — default: 512
	ChunkOverlap int    `yaml:"chunk_overlap"` // MFGOPS_CHUNK_OVERLAP — default: 50
}

// RemoteConfig configures the optional remote MCP backend.
type RemoteConfig struct {
	Enabled        bool          `yaml:"enabled"`         // MFGOPS_REMOTE_ENABLED
	Endpoint       string        `yaml:"endpoint"`        // MFGOPS_REMOTE_ENDPOINT — default: "http://localhost:45345/mcp"
	BearerToken    string        `yaml:"bearer_token"`    // MFGOPS_REMOTE_TOKEN
	ConnectTimeout time.Duration `yaml:"connect_timeout"` // MFGOPS_REMOTE_CONNECT_TIMEOUT — default: 30s
	ReadTimeout    time.Duration `yaml:"read_timeout"`    // MFGOPS_REMOTE_READ_TIMEOUT — default: 5m
	CacheTTL       time.Duration `yaml:"cache_ttl"`       // MFGOPS_REMOTE_CACHE_TTL — default: 5m
}

const (
	envKeyConfigFile           = "MFGOPS_CONFIG"
	envKeyAddr                 = "MFGOPS_ADDR"
	envKeyDBPath               = "MFGOPS_DB_PATH"
	envKeyJWTSecret            = "MFGOPS_JWT_SECRET"
	envKeyAdminUser            = "MFGOPS_ADMIN_USER"
	envKeyAdminPasswordHash    = "MFGOPS_ADMIN_PASSWORD_HASH"
	envKeyLogLevel             = "MFGOPS_LOG_LEVEL"
	envKeyLLMProvider          = "LLM_PROVIDER"
	envKeyOllamaBaseURL        = "OLLAMA_BASE_URL"
	envKeyOllamaModel          = "OLLAMA_MODEL"
	envKeyOllamaChatModel      = "OLLAMA_CHAT_MODEL"
	envKeyBackends             = "MFGOPS_BACKENDS"
	envKeyRemoteEnabled        = "MFGOPS_REMOTE_ENABLED"
	envKeyRemoteEndpoint       = "MFGOPS_REMOTE_ENDPOINT"
	envKeyRemoteToken          = "MFGOPS_REMOTE_TOKEN"
	envKeyRemoteConnectTimeout = "MFGOPS_REMOTE_CONNECT_TIMEOUT"
	envKeyRemoteReadTimeout    = "MFGOPS_REMOTE_READ_TIMEOUT"
	envKeyRemoteCacheTTL       = "MFGOPS_REMOTE_CACHE_TTL"
	envKeyDocsDir              = "MFGOPS_DOCS_DIR"
	envKeyChunkSize            = "MFGOPS_CHUNK_SIZE"
	envKeyChunkOverlap         = "MFGOPS_CHUNK_OVERLAP"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DBPath:          "mfgops.db",
		AdminUser:       "admin",
		LogLevel:        "info",
		LLMProvider:     "ollama",
		OllamaBaseURL:   "http://localhost:11434",
		OllamaModel:     "nomic-embed-text",
		OllamaChatModel: "llama3.2:3b",
		Backends:        []string{"equipment", "analytics", "transactional"},
		Remote: RemoteConfig{
			Endpoint:       "http://localhost:45345/mcp",
			ConnectTimeout: 30 * time.Second,
			ReadTimeout:    5 * time.Minute,
			CacheTTL:       5 * time.Minute,
		},
		DocsDir:      "./docs",
		ChunkSize:    512,
		ChunkOverlap: 50,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// MFGOPS_CONFIG (when set), then environment variable overrides. A missing or
// malformed config file is an error; an unset MFGOPS_CONFIG is not.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envKeyConfigFile); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Addr = envOr(envKeyAddr, cfg.Addr)
	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	cfg.JWTSecret = envOr(envKeyJWTSecret, cfg.JWTSecret)
	cfg.AdminUser = envOr(envKeyAdminUser, cfg.AdminUser)
	cfg.AdminPasswordHash = envOr(envKeyAdminPasswordHash, cfg.AdminPasswordHash)
	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)
	cfg.LLMProvider = envOr(envKeyLLMProvider, cfg.LLMProvider)
	cfg.OllamaBaseURL = envOr(envKeyOllamaBaseURL, cfg.OllamaBaseURL)
	cfg.OllamaModel = envOr(envKeyOllamaModel, cfg.OllamaModel)
	cfg.OllamaChatModel = envOr(envKeyOllamaChatModel, cfg.OllamaChatModel)
	cfg.DocsDir = envOr(envKeyDocsDir, cfg.DocsDir)

	if v := os.Getenv(envKeyBackends); v != "" {
		cfg.Backends = splitList(v)
	}

	var err error
	if cfg.ChunkSize, err = envInt(envKeyChunkSize, cfg.ChunkSize); err != nil {
		return Config{}, err
	}
	if cfg.ChunkOverlap, err = envInt(envKeyChunkOverlap, cfg.ChunkOverlap); err != nil {
		return Config{}, err
	}

	if cfg.Remote.Enabled, err = envBool(envKeyRemoteEnabled, cfg.Remote.Enabled); err != nil {
		return Config{}, err
	}
	cfg.Remote.Endpoint = envOr(envKeyRemoteEndpoint, cfg.Remote.Endpoint)
	cfg.Remote.BearerToken = envOr(envKeyRemoteToken, cfg.Remote.BearerToken)
	if cfg.Remote.ConnectTimeout, err = envDuration(envKeyRemoteConnectTimeout, cfg.Remote.ConnectTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Remote.ReadTimeout, err = envDuration(envKeyRemoteReadTimeout, cfg.Remote.ReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Remote.CacheTTL, err = envDuration(envKeyRemoteCacheTTL, cfg.Remote.CacheTTL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// envDuration accepts Go duration syntax ("30s", "5m").
func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
