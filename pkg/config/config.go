// Package config provides unified configuration for the tuichat
// client.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (TUICHAT_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the tuichat client.
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	Render        RenderConfig        `yaml:"render"`
	SessionStore  SessionStoreConfig  `yaml:"session_store"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// EngineConfig selects and configures the chatengine.Engine backing a
// session.
type EngineConfig struct {
	Kind         string `yaml:"kind"`          // "mock" (default) or "http"
	BackendURL   string `yaml:"backend_url"`   // required for kind=http
	APIKey       string `yaml:"api_key"`       // optional, kind=http
	APIKeyFile   string `yaml:"api_key_file"`  // _file variant for api_key
	DefaultModel string `yaml:"default_model"` // default: "mock-model"
	MaxTurns     int    `yaml:"max_turns"`     // default: 10
}

// RenderConfig holds Renderer Surface defaults.
type RenderConfig struct {
	Theme            string `yaml:"theme"`              // default: "dark"
	AltScreenDefault bool   `yaml:"alt_screen_default"` // default: false
	ComposerRows     int    `yaml:"composer_rows"`      // default: 1
}

// SessionStoreConfig selects and configures the persistence backend.
type SessionStoreConfig struct {
	Type     string         `yaml:"type"`      // "memory", "file", or "postgres", default: "memory"
	MaxSize  int            `yaml:"max_size"`  // for memory store, default: 10000
	FilePath string         `yaml:"file_path"` // for type=file, a single-session JSON snapshot path
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"` // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"` // default: 25
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

// MCPConfig holds external Model Context Protocol tool server settings.
type MCPConfig struct {
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes a single MCP server connection. It mirrors
// pkg/toolsclient.ServerConfig/AuthConfig plus the _file secret-ref
// fields this package resolves before handing the result to
// toolsclient.
type MCPServerConfig struct {
	Name      string            `yaml:"name"`
	Transport string            `yaml:"transport"` // "sse" or "streamable-http"
	URL       string            `yaml:"url"`
	Headers   map[string]string `yaml:"headers"`
	Auth      MCPAuthConfig     `yaml:"auth"`
}

// MCPAuthConfig describes the authentication method for an MCP server.
type MCPAuthConfig struct {
	Type             string   `yaml:"type"` // "static" or "oauth_client_credentials"
	TokenURL         string   `yaml:"token_url"`
	ClientID         string   `yaml:"client_id"`
	ClientIDFile     string   `yaml:"client_id_file"`
	ClientSecret     string   `yaml:"client_secret"`
	ClientSecretFile string   `yaml:"client_secret_file"`
	Scopes           []string `yaml:"scopes"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings for the
// optional debug sidecar HTTP server (see pkg/observability).
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: "127.0.0.1:9090"
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Kind:         "mock",
			DefaultModel: "mock-model",
			MaxTurns:     10,
		},
		Render: RenderConfig{
			Theme:        "dark",
			ComposerRows: 1,
		},
		SessionStore: SessionStoreConfig{
			Type:    "memory",
			MaxSize: 10000,
			Postgres: PostgresConfig{
				MaxConns: 25,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: false,
				Addr:    "127.0.0.1:9090",
				Path:    "/metrics",
			},
		},
	}
}
