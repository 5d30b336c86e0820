// Package pipeline orchestrates semantic model generation end to end:
// connect to the SQL endpoint, discover and filter tables, classify them,
// infer relationships, render TMDL, then write a folder or deploy to Fabric.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/fabworks/semgen/pkg/model"
	"github.com/fabworks/semgen/pkg/output"
	"github.com/fabworks/semgen/pkg/schema"
	"github.com/fabworks/semgen/pkg/semantic"
	"github.com/fabworks/semgen/pkg/tmdl"
)

const (
	OutputModeFolder = "folder"
	OutputModeFabric = "fabric"

	ItemTypeLakehouse = "Lakehouse"
	ItemTypeWarehouse = "Warehouse"
)

// Config holds everything one generation run needs. Validate before use.
type Config struct {
	// Connection carries the SQL endpoint, database, and auth settings.
	Connection schema.Config

	// Schemas to discover tables from. At least one is required.
	Schemas []string
	// KeyPrefixes mark surrogate key columns (e.g. "SK_"). At least one
	// is required.
	KeyPrefixes []string

	ModelName   string
	CatalogName string

	// IncludeTables and ExcludeTables filter discovered tables by exact
	// name. Nil means no filtering on that side.
	IncludeTables []string
	ExcludeTables []string

	// OutputMode is "folder" or "fabric".
	OutputMode string
	// OutputPath is the base folder for folder mode.
	OutputPath string

	// Workspace and ItemName identify the Fabric deployment target. The
	// workspace may be a GUID or a display name; ItemName names the
	// lakehouse or warehouse the model reads from.
	Workspace string
	ItemName  string
	ItemType  string

	// DevMode writes timestamped folders and deploys timestamped models
	// so repeated runs never collide.
	DevMode bool
	// Overwrite allows folder mode to reuse an existing prod folder.
	Overwrite bool
	// ConfirmOverwrite allows prod deployment to replace an existing model.
	ConfirmOverwrite bool

	// Version stamps generated file watermarks.
	Version string
}

// Validate checks the configuration for a run. Connection settings are
// validated separately when the connection opens.
func (c *Config) Validate() error {
	if len(c.Schemas) == 0 {
		return fmt.Errorf("schemas must not be empty")
	}
	if len(c.KeyPrefixes) == 0 {
		return fmt.Errorf("key_prefixes must not be empty")
	}
	if c.ModelName == "" {
		return fmt.Errorf("model_name is required")
	}
	if c.CatalogName == "" {
		return fmt.Errorf("catalog_name is required")
	}

	switch c.OutputMode {
	case OutputModeFolder:
		if c.OutputPath == "" {
			return fmt.Errorf("output_path is required for folder mode")
		}
	case OutputModeFabric:
		if c.Workspace == "" {
			return fmt.Errorf("workspace is required for fabric mode")
		}
		if c.ItemName == "" {
			return fmt.Errorf("lakehouse_or_warehouse is required for fabric mode")
		}
		if c.ItemType != ItemTypeLakehouse && c.ItemType != ItemTypeWarehouse {
			return fmt.Errorf("item_type must be %q or %q, got %q", ItemTypeLakehouse, ItemTypeWarehouse, c.ItemType)
		}
	default:
		return fmt.Errorf("output_mode must be %q or %q, got %q", OutputModeFolder, OutputModeFabric, c.OutputMode)
	}

	return nil
}

// StageError wraps a failure with the pipeline stage it happened in, so a
// run that dies deep in discovery or deployment names the stage up front.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("[%s] %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// Deployer deploys a packaged model definition to a Fabric workspace.
// fabric.Client satisfies it.
type Deployer interface {
	DeployDev(ctx context.Context, workspace, modelName string, files map[string]string, timestamp string) (string, error)
	DeployProd(ctx context.Context, workspace, modelName string, files map[string]string, confirmOverwrite bool) (string, error)
}

// Result reports what a run produced. Mode-specific fields are zero for
// the other mode.
type Result struct {
	Mode string

	// Folder mode.
	OutputPath string
	Summary    output.WriteSummary

	// Fabric mode.
	ModelID   string
	ModelName string
}

// Pipeline runs generation with injected collaborators. The zero value is
// not usable; construct with New.
type Pipeline struct {
	logger   *zap.Logger
	writer   *output.Writer
	deployer Deployer

	// Stage functions, replaceable in tests.
	connect  func(ctx context.Context, cfg *schema.Config, logger *zap.Logger) (*sql.DB, error)
	discover func(ctx context.Context, db *sql.DB, schemas []string, logger *zap.Logger) ([]model.TableMetadata, error)
}

// New builds a pipeline. deployer may be nil when only folder mode is used.
func New(deployer Deployer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger:   logger.Named("pipeline"),
		writer:   output.NewWriter(logger),
		deployer: deployer,
		connect:  schema.Connect,
		discover: schema.DiscoverTables,
	}
}

// Run executes the full pipeline for cfg. Every failure is wrapped in a
// StageError naming the stage that failed.
func (p *Pipeline) Run(ctx context.Context, cfg *Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, stageErr("config", err)
	}

	db, err := p.connect(ctx, &cfg.Connection, p.logger)
	if err != nil {
		return nil, stageErr("connection", err)
	}
	defer db.Close()

	tables, err := p.discover(ctx, db, cfg.Schemas, p.logger)
	if err != nil {
		return nil, stageErr("discovery", err)
	}

	tables = schema.FilterTables(tables, cfg.IncludeTables, cfg.ExcludeTables)
	p.logger.Info("tables selected",
		zap.Int("count", len(tables)),
		zap.Strings("schemas", cfg.Schemas))

	classifications := semantic.ClassifyTables(tables, cfg.KeyPrefixes)
	relationships := semantic.InferRelationships(tables, classifications, cfg.KeyPrefixes)
	p.logger.Info("star schema inferred",
		zap.Int("relationships", len(relationships)))

	files, err := tmdl.GenerateAll(cfg.ModelName, tables, classifications, relationships, cfg.KeyPrefixes, cfg.CatalogName)
	if err != nil {
		return nil, stageErr("tmdl_generation", err)
	}

	switch cfg.OutputMode {
	case OutputModeFabric:
		return p.deploy(ctx, cfg, files)
	default:
		return p.writeFolder(cfg, files)
	}
}

func (p *Pipeline) writeFolder(cfg *Config, files map[string]string) (*Result, error) {
	summary, err := p.writer.WriteFolder(files, output.WriteOptions{
		BasePath:  cfg.OutputPath,
		ModelName: cfg.ModelName,
		DevMode:   cfg.DevMode,
		Overwrite: cfg.Overwrite,
		Version:   cfg.Version,
	})
	if err != nil {
		return nil, stageErr("output", err)
	}
	return &Result{
		Mode:       OutputModeFolder,
		OutputPath: summary.OutputPath,
		Summary:    summary,
	}, nil
}

func (p *Pipeline) deploy(ctx context.Context, cfg *Config, files map[string]string) (*Result, error) {
	if p.deployer == nil {
		return nil, stageErr("deployment", fmt.Errorf("no deployer configured"))
	}

	var (
		modelID string
		err     error
	)
	if cfg.DevMode {
		modelID, err = p.deployer.DeployDev(ctx, cfg.Workspace, cfg.ModelName, files, "")
	} else {
		modelID, err = p.deployer.DeployProd(ctx, cfg.Workspace, cfg.ModelName, files, cfg.ConfirmOverwrite)
	}
	if err != nil {
		return nil, stageErr("deployment", err)
	}

	return &Result{
		Mode:      OutputModeFabric,
		ModelID:   modelID,
		ModelName: cfg.ModelName,
	}, nil
}
