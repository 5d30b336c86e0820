package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/fabworks/semgen/pkg/model"
	"github.com/fabworks/semgen/pkg/schema"
)

func validFolderConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		Connection:  *schema.DefaultConfig("endpoint.fabric.microsoft.com", "warehouse"),
		Schemas:     []string{"dbo"},
		KeyPrefixes: []string{"SK_"},
		ModelName:   "Sales Model",
		CatalogName: "sales_catalog",
		OutputMode:  OutputModeFolder,
		OutputPath:  t.TempDir(),
		Version:     "1.0.0",
	}
}

func validFabricConfig(t *testing.T) *Config {
	t.Helper()
	cfg := validFolderConfig(t)
	cfg.OutputMode = OutputModeFabric
	cfg.OutputPath = ""
	cfg.Workspace = "analytics-workspace"
	cfg.ItemName = "sales-lakehouse"
	cfg.ItemType = ItemTypeLakehouse
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid folder config",
			mutate: func(c *Config) {},
		},
		{
			name: "empty schemas",
			mutate: func(c *Config) {
				c.Schemas = nil
			},
			wantErr: "schemas",
		},
		{
			name: "empty key prefixes",
			mutate: func(c *Config) {
				c.KeyPrefixes = nil
			},
			wantErr: "key_prefixes",
		},
		{
			name: "missing model name",
			mutate: func(c *Config) {
				c.ModelName = ""
			},
			wantErr: "model_name",
		},
		{
			name: "missing catalog name",
			mutate: func(c *Config) {
				c.CatalogName = ""
			},
			wantErr: "catalog_name",
		},
		{
			name: "invalid output mode",
			mutate: func(c *Config) {
				c.OutputMode = "printer"
			},
			wantErr: "output_mode",
		},
		{
			name: "folder mode requires output path",
			mutate: func(c *Config) {
				c.OutputPath = ""
			},
			wantErr: "output_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validFolderConfig(t)
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

func TestConfigValidate_FabricMode(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validFabricConfig(t).Validate())
	})

	t.Run("requires workspace", func(t *testing.T) {
		cfg := validFabricConfig(t)
		cfg.Workspace = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "workspace")
	})

	t.Run("requires item name", func(t *testing.T) {
		cfg := validFabricConfig(t)
		cfg.ItemName = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lakehouse_or_warehouse")
	})

	t.Run("warehouse item type accepted", func(t *testing.T) {
		cfg := validFabricConfig(t)
		cfg.ItemType = ItemTypeWarehouse
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid item type", func(t *testing.T) {
		cfg := validFabricConfig(t)
		cfg.ItemType = "Notebook"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "item_type")
	})
}

func TestStageError(t *testing.T) {
	cause := errors.New("connection refused")
	err := stageErr("connection", cause)

	assert.Contains(t, err.Error(), "[connection]")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)

	var stageError *StageError
	require.ErrorAs(t, err, &stageError)
	assert.Equal(t, "connection", stageError.Stage)
}

// starTables returns a two-table star: FactSales referencing DimCustomer.
func starTables(t *testing.T) []model.TableMetadata {
	t.Helper()

	col := func(name, sqlType string, ordinal int) model.ColumnMetadata {
		c, err := model.NewColumnMetadata(name, sqlType, false, ordinal)
		require.NoError(t, err)
		return c
	}

	return []model.TableMetadata{
		{
			SchemaName: "dbo",
			TableName:  "FactSales",
			Columns: []model.ColumnMetadata{
				col("SK_Customer", "int", 1),
				col("SK_Date", "int", 2),
				col("Amount", "decimal", 3),
			},
		},
		{
			SchemaName: "dbo",
			TableName:  "DimCustomer",
			Columns: []model.ColumnMetadata{
				col("SK_Customer", "int", 1),
				col("CustomerName", "varchar", 2),
			},
		},
	}
}

type fakeDeployer struct {
	devCalls  int
	prodCalls int

	workspace        string
	modelName        string
	files            map[string]string
	confirmOverwrite bool

	modelID string
	err     error
}

func (f *fakeDeployer) DeployDev(ctx context.Context, workspace, modelName string, files map[string]string, timestamp string) (string, error) {
	f.devCalls++
	f.workspace = workspace
	f.modelName = modelName
	f.files = files
	return f.modelID, f.err
}

func (f *fakeDeployer) DeployProd(ctx context.Context, workspace, modelName string, files map[string]string, confirmOverwrite bool) (string, error) {
	f.prodCalls++
	f.workspace = workspace
	f.modelName = modelName
	f.files = files
	f.confirmOverwrite = confirmOverwrite
	return f.modelID, f.err
}

// newTestPipeline stubs the connection and discovery stages so Run exercises
// everything downstream without a real SQL endpoint.
func newTestPipeline(t *testing.T, deployer Deployer, tables []model.TableMetadata) *Pipeline {
	t.Helper()

	p := New(deployer, zaptest.NewLogger(t))
	p.connect = func(ctx context.Context, cfg *schema.Config, logger *zap.Logger) (*sql.DB, error) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		return db, nil
	}
	p.discover = func(ctx context.Context, db *sql.DB, schemas []string, logger *zap.Logger) ([]model.TableMetadata, error) {
		return tables, nil
	}
	return p
}

func TestRun_FolderMode(t *testing.T) {
	p := newTestPipeline(t, nil, starTables(t))
	cfg := validFolderConfig(t)

	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, OutputModeFolder, result.Mode)
	assert.NotEmpty(t, result.OutputPath)
	assert.NotEmpty(t, result.Summary.Written)
	assert.Empty(t, result.ModelID)

	// The model folder holds the rendered definition on disk.
	modelTMDL := filepath.Join(result.OutputPath, "definition", "model.tmdl")
	content, err := os.ReadFile(modelTMDL)
	require.NoError(t, err)
	assert.Contains(t, string(content), "model Model")

	tableFile := filepath.Join(result.OutputPath, "definition", "tables", "FactSales.tmdl")
	_, err = os.Stat(tableFile)
	assert.NoError(t, err)
}

func TestRun_FolderMode_DevModeTimestampsFolder(t *testing.T) {
	p := newTestPipeline(t, nil, starTables(t))
	cfg := validFolderConfig(t)
	cfg.DevMode = true

	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Regexp(t, `Sales Model_\d{8}T\d{6}Z$`, result.OutputPath)
}

func TestRun_FolderMode_FiltersTables(t *testing.T) {
	p := newTestPipeline(t, nil, starTables(t))
	cfg := validFolderConfig(t)
	cfg.IncludeTables = []string{"DimCustomer"}

	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(result.OutputPath, "definition", "tables", "DimCustomer.tmdl"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(result.OutputPath, "definition", "tables", "FactSales.tmdl"))
	assert.True(t, os.IsNotExist(err), "excluded table should not be rendered")
}

func TestRun_FabricDevMode(t *testing.T) {
	deployer := &fakeDeployer{modelID: "model-id-123"}
	p := newTestPipeline(t, deployer, starTables(t))
	cfg := validFabricConfig(t)
	cfg.DevMode = true

	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, deployer.devCalls)
	assert.Equal(t, 0, deployer.prodCalls)
	assert.Equal(t, "analytics-workspace", deployer.workspace)
	assert.Equal(t, "Sales Model", deployer.modelName)
	assert.Contains(t, deployer.files, "definition/model.tmdl")

	assert.Equal(t, OutputModeFabric, result.Mode)
	assert.Equal(t, "model-id-123", result.ModelID)
	assert.Equal(t, "Sales Model", result.ModelName)
}

func TestRun_FabricProdMode(t *testing.T) {
	deployer := &fakeDeployer{modelID: "model-id-456"}
	p := newTestPipeline(t, deployer, starTables(t))
	cfg := validFabricConfig(t)
	cfg.DevMode = false
	cfg.ConfirmOverwrite = true

	result, err := p.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, deployer.prodCalls)
	assert.Equal(t, 0, deployer.devCalls)
	assert.True(t, deployer.confirmOverwrite)
	assert.Equal(t, "model-id-456", result.ModelID)
}

func TestRun_InvalidConfigFailsFast(t *testing.T) {
	p := newTestPipeline(t, nil, starTables(t))
	cfg := validFolderConfig(t)
	cfg.Schemas = nil

	_, err := p.Run(context.Background(), cfg)
	var stageError *StageError
	require.ErrorAs(t, err, &stageError)
	assert.Equal(t, "config", stageError.Stage)
}

func TestRun_ConnectionErrorWrapsStage(t *testing.T) {
	p := newTestPipeline(t, nil, starTables(t))
	cause := errors.New("login failed")
	p.connect = func(ctx context.Context, cfg *schema.Config, logger *zap.Logger) (*sql.DB, error) {
		return nil, cause
	}

	_, err := p.Run(context.Background(), validFolderConfig(t))
	var stageError *StageError
	require.ErrorAs(t, err, &stageError)
	assert.Equal(t, "connection", stageError.Stage)
	assert.ErrorIs(t, err, cause)
}

func TestRun_DiscoveryErrorWrapsStage(t *testing.T) {
	p := newTestPipeline(t, nil, starTables(t))
	p.discover = func(ctx context.Context, db *sql.DB, schemas []string, logger *zap.Logger) ([]model.TableMetadata, error) {
		return nil, fmt.Errorf("schema read failed")
	}

	_, err := p.Run(context.Background(), validFolderConfig(t))
	var stageError *StageError
	require.ErrorAs(t, err, &stageError)
	assert.Equal(t, "discovery", stageError.Stage)
}

func TestRun_DeploymentErrorWrapsStage(t *testing.T) {
	deployer := &fakeDeployer{err: errors.New("definition rejected")}
	p := newTestPipeline(t, deployer, starTables(t))

	_, err := p.Run(context.Background(), validFabricConfig(t))
	var stageError *StageError
	require.ErrorAs(t, err, &stageError)
	assert.Equal(t, "deployment", stageError.Stage)
}

func TestRun_FabricModeWithoutDeployer(t *testing.T) {
	p := newTestPipeline(t, nil, starTables(t))

	_, err := p.Run(context.Background(), validFabricConfig(t))
	var stageError *StageError
	require.ErrorAs(t, err, &stageError)
	assert.Equal(t, "deployment", stageError.Stage)
}
