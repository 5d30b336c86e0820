// Package config loads generator configuration from config.yaml with
// environment variable overrides. Secrets (passwords, client secrets)
// must only come from environment variables.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/fabworks/semgen/pkg/pipeline"
	"github.com/fabworks/semgen/pkg/schema"
)

// DefaultConfigFile is the config file Load reads when none is given.
const DefaultConfigFile = "config.yaml"

// Config holds all configuration for the semantic model generator.
// Environment variables always override YAML values for fields that
// support both.
type Config struct {
	Version string `yaml:"-"` // Set at load time, not from config

	// Warehouse connection settings
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Model generation settings
	Model ModelConfig `yaml:"model"`

	// Output settings (folder mode)
	Output OutputConfig `yaml:"output"`

	// Fabric deployment settings (fabric mode)
	Fabric FabricConfig `yaml:"fabric"`
}

// WarehouseConfig holds SQL endpoint connection configuration.
type WarehouseConfig struct {
	Endpoint string `yaml:"endpoint" env:"WAREHOUSE_ENDPOINT"`
	Port     int    `yaml:"port" env:"WAREHOUSE_PORT" env-default:"1433"`
	Database string `yaml:"database" env:"WAREHOUSE_DATABASE"`

	// AuthMethod is "sql", "service_principal", or "default".
	AuthMethod string `yaml:"auth_method" env:"WAREHOUSE_AUTH_METHOD" env-default:"default"`

	Username string `yaml:"username" env:"WAREHOUSE_USERNAME"`
	Password string `yaml:"-" env:"WAREHOUSE_PASSWORD"` // Secret - not in YAML

	TenantID     string `yaml:"tenant_id" env:"AZURE_TENANT_ID"`
	ClientID     string `yaml:"client_id" env:"AZURE_CLIENT_ID"`
	ClientSecret string `yaml:"-" env:"AZURE_CLIENT_SECRET"` // Secret - not in YAML

	Encrypt                bool `yaml:"encrypt" env:"WAREHOUSE_ENCRYPT" env-default:"true"`
	TrustServerCertificate bool `yaml:"trust_server_certificate" env:"WAREHOUSE_TRUST_SERVER_CERTIFICATE" env-default:"false"`
	ConnectionTimeout      int  `yaml:"connection_timeout" env:"WAREHOUSE_CONNECTION_TIMEOUT" env-default:"30"`
}

// ModelConfig holds the semantic model settings.
type ModelConfig struct {
	Name        string `yaml:"name" env:"MODEL_NAME"`
	CatalogName string `yaml:"catalog_name" env:"CATALOG_NAME"`

	// Schemas to discover tables from.
	Schemas []string `yaml:"schemas" env:"SCHEMAS" env-separator:"," env-default:"dbo"`

	// KeyPrefixes mark surrogate key columns for classification and
	// relationship inference.
	KeyPrefixes []string `yaml:"key_prefixes" env:"KEY_PREFIXES" env-separator:"," env-default:"SK_"`

	// IncludeTables and ExcludeTables filter discovered tables by exact
	// name. Empty means no filtering on that side.
	IncludeTables []string `yaml:"include_tables" env:"INCLUDE_TABLES" env-separator:","`
	ExcludeTables []string `yaml:"exclude_tables" env:"EXCLUDE_TABLES" env-separator:","`
}

// OutputConfig holds folder output settings.
type OutputConfig struct {
	// Mode is "folder" or "fabric".
	Mode string `yaml:"mode" env:"OUTPUT_MODE" env-default:"folder"`
	Path string `yaml:"path" env:"OUTPUT_PATH" env-default:"./output"`

	// DevMode writes timestamped folders (and deploys timestamped
	// models in fabric mode) so repeated runs never collide.
	DevMode   bool `yaml:"dev_mode" env:"DEV_MODE" env-default:"true"`
	Overwrite bool `yaml:"overwrite" env:"OVERWRITE" env-default:"false"`
}

// FabricConfig holds Fabric deployment settings.
type FabricConfig struct {
	// Workspace may be a GUID or a display name.
	Workspace string `yaml:"workspace" env:"FABRIC_WORKSPACE"`

	// ItemName names the lakehouse or warehouse the model reads from.
	ItemName string `yaml:"item_name" env:"FABRIC_ITEM_NAME"`
	ItemType string `yaml:"item_type" env:"FABRIC_ITEM_TYPE" env-default:"Lakehouse"`

	ConfirmOverwrite bool `yaml:"confirm_overwrite" env:"FABRIC_CONFIRM_OVERWRITE" env-default:"false"`
}

// Load reads configuration from the given YAML file with environment
// variable overrides. A missing file is not an error; configuration then
// comes entirely from the environment. The version parameter is injected
// at build time and set on the returned Config.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	// A containerized run against a SQL endpoint on the host needs the
	// Docker host alias instead of localhost.
	cfg.Warehouse.Endpoint = ResolveHostForDocker(cfg.Warehouse.Endpoint)

	return cfg, nil
}

// ConnectionConfig maps the warehouse settings onto the connection layer.
func (c *Config) ConnectionConfig() *schema.Config {
	return &schema.Config{
		Endpoint:               c.Warehouse.Endpoint,
		Port:                   c.Warehouse.Port,
		Database:               c.Warehouse.Database,
		AuthMethod:             c.Warehouse.AuthMethod,
		Username:               c.Warehouse.Username,
		Password:               c.Warehouse.Password,
		TenantID:               c.Warehouse.TenantID,
		ClientID:               c.Warehouse.ClientID,
		ClientSecret:           c.Warehouse.ClientSecret,
		Encrypt:                c.Warehouse.Encrypt,
		TrustServerCertificate: c.Warehouse.TrustServerCertificate,
		ConnectionTimeout:      c.Warehouse.ConnectionTimeout,
	}
}

// PipelineConfig maps the loaded configuration onto a pipeline run.
func (c *Config) PipelineConfig() *pipeline.Config {
	return &pipeline.Config{
		Connection:       *c.ConnectionConfig(),
		Schemas:          c.Model.Schemas,
		KeyPrefixes:      c.Model.KeyPrefixes,
		ModelName:        c.Model.Name,
		CatalogName:      c.Model.CatalogName,
		IncludeTables:    c.Model.IncludeTables,
		ExcludeTables:    c.Model.ExcludeTables,
		OutputMode:       c.Output.Mode,
		OutputPath:       c.Output.Path,
		Workspace:        c.Fabric.Workspace,
		ItemName:         c.Fabric.ItemName,
		ItemType:         c.Fabric.ItemType,
		DevMode:          c.Output.DevMode,
		Overwrite:        c.Output.Overwrite,
		ConfirmOverwrite: c.Fabric.ConfirmOverwrite,
		Version:          c.Version,
	}
}
