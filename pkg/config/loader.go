package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, TUICHAT_CONFIG env, ./tuichat.yaml, ~/.config/tuichat/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. TUICHAT_CONFIG environment variable
// 3. ./tuichat.yaml in the current directory
// 4. $HOME/.config/tuichat/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("TUICHAT_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{"tuichat.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, home+"/.config/tuichat/config.yaml")
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps TUICHAT_* environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TUICHAT_ENGINE_KIND"); v != "" {
		cfg.Engine.Kind = v
	}
	if v := os.Getenv("TUICHAT_BACKEND_URL"); v != "" {
		cfg.Engine.BackendURL = v
	}
	if v := os.Getenv("TUICHAT_MODEL"); v != "" {
		cfg.Engine.DefaultModel = v
	}
	if v := os.Getenv("TUICHAT_API_KEY"); v != "" {
		cfg.Engine.APIKey = v
	}
	if v := os.Getenv("TUICHAT_THEME"); v != "" {
		cfg.Render.Theme = v
	}
	if v := os.Getenv("TUICHAT_ALT_SCREEN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Render.AltScreenDefault = b
		}
	}
	if v := os.Getenv("TUICHAT_SESSION_STORE"); v != "" {
		cfg.SessionStore.Type = v
	}
	if v := os.Getenv("TUICHAT_SESSION_FILE"); v != "" {
		cfg.SessionStore.FilePath = v
	}
	if v := os.Getenv("TUICHAT_SESSION_STORE_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.SessionStore.MaxSize = size
		}
	}
	if v := os.Getenv("TUICHAT_METRICS_ADDR"); v != "" {
		cfg.Observability.Metrics.Enabled = true
		cfg.Observability.Metrics.Addr = v
	}

	// TUICHAT_MCP_SERVERS: JSON array of MCP server configs.
	if v := os.Getenv("TUICHAT_MCP_SERVERS"); v != "" {
		servers, err := parseMCPServersJSON(v)
		if err == nil && len(servers) > 0 {
			cfg.MCP.Servers = servers
		}
	}
}

// parseMCPServersJSON parses a JSON array of MCP server configurations.
func parseMCPServersJSON(jsonStr string) ([]MCPServerConfig, error) {
	var servers []MCPServerConfig
	if err := json.Unmarshal([]byte(jsonStr), &servers); err != nil {
		return nil, fmt.Errorf("parsing MCP servers JSON: %w", err)
	}
	return servers, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	if cfg.Engine.APIKeyFile != "" && cfg.Engine.APIKey == "" {
		val, err := readSecretFile(cfg.Engine.APIKeyFile)
		if err != nil {
			return fmt.Errorf("engine.api_key_file: %w", err)
		}
		cfg.Engine.APIKey = val
	}

	if cfg.SessionStore.Postgres.DSNFile != "" && cfg.SessionStore.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.SessionStore.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("session_store.postgres.dsn_file: %w", err)
		}
		cfg.SessionStore.Postgres.DSN = val
	}

	for i := range cfg.MCP.Servers {
		auth := &cfg.MCP.Servers[i].Auth
		if auth.ClientIDFile != "" && auth.ClientID == "" {
			val, err := readSecretFile(auth.ClientIDFile)
			if err != nil {
				return fmt.Errorf("mcp.servers[%d].auth.client_id_file: %w", i, err)
			}
			auth.ClientID = val
		}
		if auth.ClientSecretFile != "" && auth.ClientSecret == "" {
			val, err := readSecretFile(auth.ClientSecretFile)
			if err != nil {
				return fmt.Errorf("mcp.servers[%d].auth.client_secret_file: %w", i, err)
			}
			auth.ClientSecret = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
