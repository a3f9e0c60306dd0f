package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/app"
	"github.com/dshills/folio/internal/config"
)

type globalOptions struct {
	configPath string
	dataDir    string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	g := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "folio",
		Short:         "Rich-text document engine with an HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultConfigFile(), "Path to configuration file.")
	cmd.PersistentFlags().StringVar(&g.dataDir, "data", "", "Override paths.dataDir.")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override logging.level.")

	addServe(cmd, g)
	addNew(cmd, g)
	addList(cmd, g)
	addShow(cmd, g)
	addExport(cmd, g)
	addImport(cmd, g)
	addRun(cmd, g)
	addDelete(cmd, g)
	addVersion(cmd)
	return cmd
}

// load reads configuration and builds the App. Flags override the file
// and environment.
func (g *globalOptions) load(ctx context.Context, watch bool) (*app.App, error) {
	opts := []config.Option{config.WithConfigFile(g.configPath), config.WithWatcher(watch)}
	if g.dataDir != "" {
		opts = append(opts, config.WithOverride("paths.dataDir", g.dataDir))
	}
	if g.logLevel != "" {
		opts = append(opts, config.WithOverride("logging.level", g.logLevel))
	}
	cfg := config.New(opts...)
	if err := cfg.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	a, err := app.New(cfg, os.Stderr)
	if err != nil {
		cfg.Close()
		return nil, err
	}
	return a, nil
}
