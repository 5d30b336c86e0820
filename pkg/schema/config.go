// Package schema discovers warehouse tables and columns from
// INFORMATION_SCHEMA on a Fabric SQL analytics endpoint.
package schema

import (
	"fmt"
)

// Auth methods supported for warehouse connections.
const (
	AuthSQL              = "sql"
	AuthServicePrincipal = "service_principal"
	AuthDefault          = "default"
)

// Config contains warehouse connection options.
type Config struct {
	// Endpoint is the SQL analytics endpoint host, e.g.
	// xxx.datawarehouse.fabric.microsoft.com
	Endpoint string
	Port     int
	Database string

	// AuthMethod determines which authentication to use
	// Options: "sql", "service_principal", "default"
	AuthMethod string

	// SQL Authentication fields
	Username string
	Password string

	// Service Principal (Azure AD) fields
	TenantID     string
	ClientID     string
	ClientSecret string

	// Connection options
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// DefaultConfig returns a Config with Fabric-appropriate defaults.
// Fabric endpoints require encryption, and "default" auth resolves
// credentials the same way DefaultAzureCredential does (managed identity,
// CLI, environment variables).
func DefaultConfig(endpoint, database string) *Config {
	return &Config{
		Endpoint:          endpoint,
		Port:              DefaultPort(),
		Database:          database,
		AuthMethod:        AuthDefault,
		Encrypt:           true,
		ConnectionTimeout: DefaultConnectionTimeout(),
	}
}

// Validate checks if the config has all required fields for the selected auth method.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	switch c.AuthMethod {
	case AuthSQL:
		if c.Username == "" {
			return fmt.Errorf("username is required for SQL authentication")
		}
	case AuthServicePrincipal:
		if c.TenantID == "" {
			return fmt.Errorf("tenant_id is required for service principal")
		}
		if c.ClientID == "" {
			return fmt.Errorf("client_id is required for service principal")
		}
		if c.ClientSecret == "" {
			return fmt.Errorf("client_secret is required for service principal")
		}
	case AuthDefault:
		// No config fields required; credentials resolved at connect time.
	default:
		return fmt.Errorf("invalid auth method: %s (must be sql, service_principal, or default)", c.AuthMethod)
	}

	return nil
}
