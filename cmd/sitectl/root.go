package main

import (
	"fmt"

	"aetheria-site/internal/config"
	"aetheria-site/internal/content"
	"aetheria-site/internal/pages"
	"aetheria-site/internal/storage"
	"aetheria-site/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfgFile string
	cfg     config.Config
	logger  zerolog.Logger
	store   *storage.JSONStore
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sitectl",
		Short: "Manage the Aetheria marketing site",
		Long: `sitectl runs the Aetheria site server and works directly on its data directory:
show the stored content, list and resolve custom pages, export everything, or reset
the stored records to their defaults.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initialize()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")

	root.AddCommand(
		newServeCmd(a),
		newContentCmd(a),
		newProductsCmd(a),
		newPagesCmd(a),
		newSlugCmd(),
		newExportCmd(a),
		newResetCmd(a),
		newOpenCmd(a),
	)
	return root
}

func (a *app) initialize() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if cfg.File != "" {
		a.logger.Debug().Str("path", cfg.File).Msg("Using config file")
	}

	store, err := storage.NewJSONStore(cfg.Data.Dir)
	if err != nil {
		return fmt.Errorf("error initializing storage: %w", err)
	}
	a.store = store
	return nil
}

func (a *app) adapter() *storage.Adapter {
	return storage.NewAdapter(a.store, a.logger)
}

func (a *app) contentStore() *content.Store {
	return content.NewStore(a.adapter(), a.logger)
}

func (a *app) catalog() *content.Catalog {
	return content.NewCatalog(a.adapter(), a.logger)
}

func (a *app) registry() *pages.Registry {
	return pages.NewRegistry(a.adapter(), a.logger)
}
