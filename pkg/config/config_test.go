package config

import (
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets every variable the loader reads so results don't depend
// on the surrounding environment.
func clearEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"WAREHOUSE_ENDPOINT", "WAREHOUSE_PORT", "WAREHOUSE_DATABASE",
		"WAREHOUSE_AUTH_METHOD", "WAREHOUSE_USERNAME", "WAREHOUSE_PASSWORD",
		"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
		"WAREHOUSE_ENCRYPT", "WAREHOUSE_TRUST_SERVER_CERTIFICATE", "WAREHOUSE_CONNECTION_TIMEOUT",
		"MODEL_NAME", "CATALOG_NAME", "SCHEMAS", "KEY_PREFIXES",
		"INCLUDE_TABLES", "EXCLUDE_TABLES",
		"OUTPUT_MODE", "OUTPUT_PATH", "DEV_MODE", "OVERWRITE",
		"FABRIC_WORKSPACE", "FABRIC_ITEM_NAME", "FABRIC_ITEM_TYPE", "FABRIC_CONFIRM_OVERWRITE",
	}
	for _, v := range vars {
		// t.Setenv registers cleanup that restores the original value.
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfigFile(t, `
warehouse:
  endpoint: "myws.datawarehouse.fabric.microsoft.com"
  database: "sales_warehouse"
  auth_method: "default"
model:
  name: "Sales Model"
  catalog_name: "sales_catalog"
  schemas:
    - dbo
    - sales
  key_prefixes:
    - SK_
    - ID_
output:
  mode: "folder"
  path: "/tmp/models"
`)

	cfg, err := Load(path, "1.2.3")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Warehouse.Endpoint != "myws.datawarehouse.fabric.microsoft.com" {
		t.Errorf("unexpected endpoint %q", cfg.Warehouse.Endpoint)
	}
	if cfg.Warehouse.Database != "sales_warehouse" {
		t.Errorf("unexpected database %q", cfg.Warehouse.Database)
	}
	if cfg.Model.Name != "Sales Model" {
		t.Errorf("unexpected model name %q", cfg.Model.Name)
	}
	if len(cfg.Model.Schemas) != 2 || cfg.Model.Schemas[1] != "sales" {
		t.Errorf("unexpected schemas %v", cfg.Model.Schemas)
	}
	if len(cfg.Model.KeyPrefixes) != 2 || cfg.Model.KeyPrefixes[0] != "SK_" {
		t.Errorf("unexpected key prefixes %v", cfg.Model.KeyPrefixes)
	}
	if cfg.Output.Path != "/tmp/models" {
		t.Errorf("unexpected output path %q", cfg.Output.Path)
	}
	if cfg.Version != "1.2.3" {
		t.Errorf("expected Version=1.2.3, got %q", cfg.Version)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfigFile(t, `
warehouse:
  endpoint: "yaml-endpoint.example.com"
  database: "yaml_db"
model:
  name: "YAML Model"
  catalog_name: "yaml_catalog"
`)

	t.Setenv("WAREHOUSE_ENDPOINT", "env-endpoint.example.com")
	t.Setenv("MODEL_NAME", "Env Model")

	cfg, err := Load(path, "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Warehouse.Endpoint != "env-endpoint.example.com" {
		t.Errorf("expected env endpoint override, got %q", cfg.Warehouse.Endpoint)
	}
	if cfg.Model.Name != "Env Model" {
		t.Errorf("expected env model name override, got %q", cfg.Model.Name)
	}
	if cfg.Warehouse.Database != "yaml_db" {
		t.Errorf("expected yaml database to survive, got %q", cfg.Warehouse.Database)
	}
}

func TestLoad_MissingFileUsesEnvOnly(t *testing.T) {
	clearEnv(t)

	t.Setenv("WAREHOUSE_ENDPOINT", "env-only.example.com")
	t.Setenv("WAREHOUSE_DATABASE", "env_db")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"), "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Warehouse.Endpoint != "env-only.example.com" {
		t.Errorf("unexpected endpoint %q", cfg.Warehouse.Endpoint)
	}
	if cfg.Warehouse.Database != "env_db" {
		t.Errorf("unexpected database %q", cfg.Warehouse.Database)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Warehouse.Port != 1433 {
		t.Errorf("expected default port 1433, got %d", cfg.Warehouse.Port)
	}
	if cfg.Warehouse.AuthMethod != "default" {
		t.Errorf("expected default auth method, got %q", cfg.Warehouse.AuthMethod)
	}
	if !cfg.Warehouse.Encrypt {
		t.Error("expected encryption on by default")
	}
	if cfg.Warehouse.ConnectionTimeout != 30 {
		t.Errorf("expected default timeout 30, got %d", cfg.Warehouse.ConnectionTimeout)
	}
	if len(cfg.Model.Schemas) != 1 || cfg.Model.Schemas[0] != "dbo" {
		t.Errorf("expected default schemas [dbo], got %v", cfg.Model.Schemas)
	}
	if len(cfg.Model.KeyPrefixes) != 1 || cfg.Model.KeyPrefixes[0] != "SK_" {
		t.Errorf("expected default key prefixes [SK_], got %v", cfg.Model.KeyPrefixes)
	}
	if cfg.Output.Mode != "folder" {
		t.Errorf("expected default output mode folder, got %q", cfg.Output.Mode)
	}
	if !cfg.Output.DevMode {
		t.Error("expected dev mode on by default")
	}
	if cfg.Output.Overwrite {
		t.Error("expected overwrite off by default")
	}
	if cfg.Fabric.ItemType != "Lakehouse" {
		t.Errorf("expected default item type Lakehouse, got %q", cfg.Fabric.ItemType)
	}
	if cfg.Fabric.ConfirmOverwrite {
		t.Error("expected confirm overwrite off by default")
	}
}

func TestLoad_SecretsFromEnvOnly(t *testing.T) {
	clearEnv(t)

	// Secret fields carry yaml:"-", so YAML values must be ignored.
	path := writeConfigFile(t, `
warehouse:
  endpoint: "ep.example.com"
  password: "yaml-password"
  client_secret: "yaml-secret"
`)

	t.Setenv("WAREHOUSE_PASSWORD", "env-password")
	t.Setenv("AZURE_CLIENT_SECRET", "env-secret")

	cfg, err := Load(path, "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Warehouse.Password != "env-password" {
		t.Errorf("expected password from env, got %q", cfg.Warehouse.Password)
	}
	if cfg.Warehouse.ClientSecret != "env-secret" {
		t.Errorf("expected client secret from env, got %q", cfg.Warehouse.ClientSecret)
	}
}

func TestLoad_ListsFromEnvSeparator(t *testing.T) {
	clearEnv(t)

	t.Setenv("SCHEMAS", "dbo,sales,finance")
	t.Setenv("KEY_PREFIXES", "SK_,ID_")
	t.Setenv("INCLUDE_TABLES", "FactSales,DimCustomer")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Model.Schemas) != 3 || cfg.Model.Schemas[2] != "finance" {
		t.Errorf("unexpected schemas %v", cfg.Model.Schemas)
	}
	if len(cfg.Model.KeyPrefixes) != 2 {
		t.Errorf("unexpected key prefixes %v", cfg.Model.KeyPrefixes)
	}
	if len(cfg.Model.IncludeTables) != 2 || cfg.Model.IncludeTables[0] != "FactSales" {
		t.Errorf("unexpected include tables %v", cfg.Model.IncludeTables)
	}
}

func TestConnectionConfig_Mapping(t *testing.T) {
	clearEnv(t)

	cfg := &Config{}
	cfg.Warehouse = WarehouseConfig{
		Endpoint:          "ep.example.com",
		Port:              1433,
		Database:          "wh",
		AuthMethod:        "service_principal",
		TenantID:          "tenant",
		ClientID:          "client",
		ClientSecret:      "secret",
		Encrypt:           true,
		ConnectionTimeout: 30,
	}

	conn := cfg.ConnectionConfig()
	if conn.Endpoint != "ep.example.com" || conn.Database != "wh" {
		t.Errorf("unexpected connection config %+v", conn)
	}
	if conn.AuthMethod != "service_principal" || conn.TenantID != "tenant" {
		t.Errorf("auth fields not mapped: %+v", conn)
	}
	if err := conn.Validate(); err != nil {
		t.Errorf("mapped config should validate: %v", err)
	}
}

func TestPipelineConfig_Mapping(t *testing.T) {
	clearEnv(t)

	path := writeConfigFile(t, `
warehouse:
  endpoint: "ep.example.com"
  database: "wh"
model:
  name: "Sales Model"
  catalog_name: "sales_catalog"
  schemas: [dbo]
  key_prefixes: [SK_]
output:
  mode: "fabric"
fabric:
  workspace: "analytics"
  item_name: "sales-lakehouse"
  item_type: "Warehouse"
  confirm_overwrite: true
`)

	cfg, err := Load(path, "2.0.0")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	pc := cfg.PipelineConfig()
	if pc.ModelName != "Sales Model" || pc.CatalogName != "sales_catalog" {
		t.Errorf("model fields not mapped: %+v", pc)
	}
	if pc.OutputMode != "fabric" || pc.Workspace != "analytics" {
		t.Errorf("fabric fields not mapped: %+v", pc)
	}
	if pc.ItemType != "Warehouse" || !pc.ConfirmOverwrite {
		t.Errorf("fabric deployment fields not mapped: %+v", pc)
	}
	if pc.Connection.Endpoint != "ep.example.com" {
		t.Errorf("connection not mapped: %+v", pc.Connection)
	}
	if pc.Version != "2.0.0" {
		t.Errorf("version not mapped: %q", pc.Version)
	}

	if err := pc.Validate(); err != nil {
		t.Errorf("mapped config should validate: %v", err)
	}
}
