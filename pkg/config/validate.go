package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	switch c.Engine.Kind {
	case "mock", "http":
		// valid
	default:
		errs = append(errs, fmt.Errorf("engine.kind must be \"mock\" or \"http\", got %q", c.Engine.Kind))
	}

	if c.Engine.Kind == "http" && c.Engine.BackendURL == "" {
		errs = append(errs, fmt.Errorf("engine.backend_url is required when engine.kind is \"http\""))
	}

	switch c.SessionStore.Type {
	case "memory", "file", "postgres":
		// valid
	default:
		errs = append(errs, fmt.Errorf("session_store.type must be \"memory\", \"file\", or \"postgres\", got %q", c.SessionStore.Type))
	}

	if c.SessionStore.Type == "file" && c.SessionStore.FilePath == "" {
		errs = append(errs, fmt.Errorf("session_store.file_path is required when session_store.type is \"file\""))
	}

	if c.SessionStore.Type == "postgres" {
		if c.SessionStore.Postgres.DSN == "" && c.SessionStore.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("session_store.postgres.dsn or session_store.postgres.dsn_file is required when session_store.type is \"postgres\""))
		}
	}

	for i, server := range c.MCP.Servers {
		switch server.Auth.Type {
		case "", "static", "oauth_client_credentials":
			// valid
		default:
			errs = append(errs, fmt.Errorf("mcp.servers[%d].auth.type must be \"static\" or \"oauth_client_credentials\", got %q", i, server.Auth.Type))
		}
	}

	return errors.Join(errs...)
}
