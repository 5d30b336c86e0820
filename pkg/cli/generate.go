package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fabworks/semgen/pkg/config"
	"github.com/fabworks/semgen/pkg/fabric"
	"github.com/fabworks/semgen/pkg/pipeline"
)

// GenerateOptions holds flag overrides for the generate command. Only flags
// the user actually set override the loaded configuration.
type GenerateOptions struct {
	ModelName   string
	CatalogName string
	Schemas     []string
	KeyPrefixes []string
	Include     []string
	Exclude     []string

	Mode       string
	OutputPath string

	Workspace string
	ItemName  string
	ItemType  string

	Prod             bool
	Overwrite        bool
	ConfirmOverwrite bool

	DryRun  bool
	Verbose bool
}

// runPipeline executes a configured run. Replaceable in tests.
var runPipeline = func(ctx context.Context, deployer pipeline.Deployer, logger *zap.Logger, cfg *pipeline.Config) (*pipeline.Result, error) {
	return pipeline.New(deployer, logger).Run(ctx, cfg)
}

// newDeployer builds the Fabric deployment client. Replaceable in tests.
var newDeployer = func(logger *zap.Logger) (pipeline.Deployer, error) {
	tokens, err := fabric.NewAzureTokenProvider()
	if err != nil {
		return nil, err
	}
	return fabric.NewClient(tokens, logger), nil
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(cfgFile *string, version string) *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a semantic model from a warehouse schema",
		Long: `Discover tables from the configured SQL analytics endpoint, infer the
star schema, and render the semantic model.

Folder mode writes a TMDL folder to disk; fabric mode deploys the model to
a workspace. Dev mode (the default) timestamps folder and model names so
repeated runs never collide.`,
		Example: `  # Generate into the configured output folder
  semgen generate

  # Deploy to a Fabric workspace, replacing the existing model
  semgen generate --mode fabric --prod --confirm-overwrite

  # Preview the resolved plan without connecting
  semgen generate --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, *cfgFile, version, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ModelName, "model-name", "", "Semantic model display name")
	cmd.Flags().StringVar(&opts.CatalogName, "catalog-name", "", "Lakehouse or warehouse catalog name for DirectLake partitions")
	cmd.Flags().StringSliceVar(&opts.Schemas, "schemas", nil, "Schemas to discover tables from")
	cmd.Flags().StringSliceVar(&opts.KeyPrefixes, "key-prefixes", nil, "Surrogate key column prefixes")
	cmd.Flags().StringSliceVar(&opts.Include, "include-tables", nil, "Only generate these tables")
	cmd.Flags().StringSliceVar(&opts.Exclude, "exclude-tables", nil, "Skip these tables")

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "Output mode: folder or fabric")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Base folder for folder mode")

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Fabric workspace GUID or display name")
	cmd.Flags().StringVar(&opts.ItemName, "item", "", "Lakehouse or warehouse the model reads from")
	cmd.Flags().StringVar(&opts.ItemType, "item-type", "", "Fabric item type: Lakehouse or Warehouse")

	cmd.Flags().BoolVar(&opts.Prod, "prod", false, "Production run: no timestamp suffixes")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Allow folder mode to reuse an existing prod folder")
	cmd.Flags().BoolVar(&opts.ConfirmOverwrite, "confirm-overwrite", false, "Allow prod deployment to replace an existing model")

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the resolved plan without connecting")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

func runGenerate(cmd *cobra.Command, cfgFile, version string, opts *GenerateOptions) error {
	cfg, err := config.Load(cfgFile, version)
	if err != nil {
		return err
	}

	pc := cfg.PipelineConfig()
	applyOverrides(cmd, pc, opts)

	if err := pc.Validate(); err != nil {
		return err
	}

	if opts.DryRun {
		printPlan(cmd, pc)
		return nil
	}

	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var deployer pipeline.Deployer
	if pc.OutputMode == pipeline.OutputModeFabric {
		deployer, err = newDeployer(logger)
		if err != nil {
			return err
		}
	}

	result, err := runPipeline(cmd.Context(), deployer, logger, pc)
	if err != nil {
		return err
	}

	switch result.Mode {
	case pipeline.OutputModeFabric:
		fmt.Fprintf(cmd.OutOrStdout(), "Deployed semantic model %q (id %s)\n", result.ModelName, result.ModelID)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote semantic model to %s\n", result.OutputPath)
		fmt.Fprintf(cmd.OutOrStdout(), "  %d written, %d unchanged, %d preserved\n",
			len(result.Summary.Written), len(result.Summary.Unchanged), len(result.Summary.Skipped))
	}

	return nil
}

// applyOverrides copies flag values the user actually set onto the
// pipeline config, leaving file and environment values alone otherwise.
func applyOverrides(cmd *cobra.Command, pc *pipeline.Config, opts *GenerateOptions) {
	flags := cmd.Flags()

	if flags.Changed("model-name") {
		pc.ModelName = opts.ModelName
	}
	if flags.Changed("catalog-name") {
		pc.CatalogName = opts.CatalogName
	}
	if flags.Changed("schemas") {
		pc.Schemas = opts.Schemas
	}
	if flags.Changed("key-prefixes") {
		pc.KeyPrefixes = opts.KeyPrefixes
	}
	if flags.Changed("include-tables") {
		pc.IncludeTables = opts.Include
	}
	if flags.Changed("exclude-tables") {
		pc.ExcludeTables = opts.Exclude
	}
	if flags.Changed("mode") {
		pc.OutputMode = opts.Mode
	}
	if flags.Changed("output") {
		pc.OutputPath = opts.OutputPath
	}
	if flags.Changed("workspace") {
		pc.Workspace = opts.Workspace
	}
	if flags.Changed("item") {
		pc.ItemName = opts.ItemName
	}
	if flags.Changed("item-type") {
		pc.ItemType = opts.ItemType
	}
	if flags.Changed("prod") {
		pc.DevMode = !opts.Prod
	}
	if flags.Changed("overwrite") {
		pc.Overwrite = opts.Overwrite
	}
	if flags.Changed("confirm-overwrite") {
		pc.ConfirmOverwrite = opts.ConfirmOverwrite
	}
}

func printPlan(cmd *cobra.Command, pc *pipeline.Config) {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Dry run; nothing will be written or deployed.")
	fmt.Fprintf(out, "  Endpoint:     %s\n", pc.Connection.Endpoint)
	fmt.Fprintf(out, "  Database:     %s\n", pc.Connection.Database)
	fmt.Fprintf(out, "  Schemas:      %v\n", pc.Schemas)
	fmt.Fprintf(out, "  Key prefixes: %v\n", pc.KeyPrefixes)
	fmt.Fprintf(out, "  Model:        %s\n", pc.ModelName)
	fmt.Fprintf(out, "  Catalog:      %s\n", pc.CatalogName)
	fmt.Fprintf(out, "  Mode:         %s\n", pc.OutputMode)
	if pc.OutputMode == pipeline.OutputModeFabric {
		fmt.Fprintf(out, "  Workspace:    %s\n", pc.Workspace)
		fmt.Fprintf(out, "  Item:         %s (%s)\n", pc.ItemName, pc.ItemType)
	} else {
		fmt.Fprintf(out, "  Output path:  %s\n", pc.OutputPath)
	}
	fmt.Fprintf(out, "  Dev mode:     %v\n", pc.DevMode)
}
