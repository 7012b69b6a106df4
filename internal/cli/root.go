// Package cli provides the command-line interface for tldr.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/tldr"
	"github.com/nao1215/tldr/engine"
	"github.com/nao1215/tldr/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "tldr",
		Short: "Load CSV files into typed tables",
		Long: `tldr reads a program of file directives, infers the schema of every
declared CSV file, applies the declared column types and loads the rows
into an in-memory SQLite database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if cfg.Verbose && cfg.FileUsed != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", cfg.FileUsed)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tldr.yaml)")
	rootCmd.PersistentFlags().Int("concurrency", 0, "Number of files resolved and read at the same time")
	rootCmd.PersistentFlags().Int("chunk-size", 0, "Rows per record batch")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|json|csv)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputTable, config.OutputJSON, config.OutputCSV}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newLoadCommand())
	rootCmd.AddCommand(newQueryCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig retrieves the config from the command context.
func getConfig(cmd *cobra.Command) *config.Config {
	if c, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		Concurrency: config.DefaultConcurrency,
		Output:      config.DefaultOutput,
		LogLevel:    config.DefaultLogLevel,
	}
}

// loaderOptions converts the config into loader options.
func loaderOptions(cfg *config.Config, logger *slog.Logger) []tldr.Option {
	return []tldr.Option{
		tldr.WithLogger(logger),
		tldr.WithConcurrency(cfg.Concurrency),
		tldr.WithChunkSize(cfg.ChunkSize),
	}
}

// openProgram loads the program stored at path into a new engine context.
func openProgram(cmd *cobra.Command, path string) (*engine.Context, error) {
	cfg := getConfig(cmd)
	logger := cfg.Logger(cmd.ErrOrStderr())

	builder, err := tldr.NewBuilder(loaderOptions(cfg, logger)...).
		AddProgramFile(path).
		Build(cmd.Context())
	if err != nil {
		return nil, err
	}
	return builder.Open(cmd.Context())
}
