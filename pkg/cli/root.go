// Package cli provides the command-line interface for the semantic model
// generator.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd(version string) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "semgen",
		Short: "Semantic model generator for Microsoft Fabric",
		Long: `semgen reads a warehouse schema from a Fabric SQL analytics endpoint,
infers a star schema from surrogate key naming conventions, and renders a
DirectLake semantic model as TMDL. The result is written to a local folder
or deployed straight to a Fabric workspace.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	rootCmd.AddCommand(NewGenerateCommand(&cfgFile, version))
	rootCmd.AddCommand(NewVersionCommand(version))

	return rootCmd
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd := NewRootCmd(version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the CLI logger. Verbose runs get full development
// output; otherwise only warnings and errors reach the terminal.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
