package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("ws.datawarehouse.fabric.microsoft.com", "Sales")

	assert.Equal(t, "ws.datawarehouse.fabric.microsoft.com", cfg.Endpoint)
	assert.Equal(t, "Sales", cfg.Database)
	assert.Equal(t, 1433, cfg.Port)
	assert.Equal(t, AuthDefault, cfg.AuthMethod)
	assert.True(t, cfg.Encrypt)
	assert.Equal(t, 30, cfg.ConnectionTimeout)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config { return DefaultConfig("host", "db") }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid default auth", func(c *Config) {}, ""},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint is required"},
		{"missing database", func(c *Config) { c.Database = "" }, "database is required"},
		{"zero port", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"unknown auth method", func(c *Config) { c.AuthMethod = "kerberos" }, "invalid auth method"},
		{
			"sql auth needs username",
			func(c *Config) { c.AuthMethod = AuthSQL },
			"username is required",
		},
		{
			"sql auth valid",
			func(c *Config) { c.AuthMethod = AuthSQL; c.Username = "sa"; c.Password = "x" },
			"",
		},
		{
			"service principal needs tenant",
			func(c *Config) { c.AuthMethod = AuthServicePrincipal; c.ClientID = "id"; c.ClientSecret = "s" },
			"tenant_id is required",
		},
		{
			"service principal needs client id",
			func(c *Config) { c.AuthMethod = AuthServicePrincipal; c.TenantID = "t"; c.ClientSecret = "s" },
			"client_id is required",
		},
		{
			"service principal needs secret",
			func(c *Config) { c.AuthMethod = AuthServicePrincipal; c.TenantID = "t"; c.ClientID = "id" },
			"client_secret is required",
		},
		{
			"service principal valid",
			func(c *Config) {
				c.AuthMethod = AuthServicePrincipal
				c.TenantID = "t"
				c.ClientID = "id"
				c.ClientSecret = "s"
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
