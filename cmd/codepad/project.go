package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/codepad/internal/domain/templates"
	"github.com/GriffinCanCode/codepad/internal/domain/workspace"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/config"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/logging"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/server"
	"github.com/GriffinCanCode/codepad/internal/infrastructure/store"
)

var outputFile string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the saved project as JSON",
	Long:  "Write the saved project as JSON to --out, or to stdout when --out is not given.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(cmd, func(ctx context.Context, w *workspace.Workspace) error {
			data, err := w.Export()
			if err != nil {
				return err
			}
			if outputFile == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(outputFile, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported project to %s\n", outputFile)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the saved project with an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		return withWorkspace(cmd, func(ctx context.Context, w *workspace.Workspace) error {
			if err := w.Import(data); err != nil {
				return err
			}
			if err := w.Save(ctx); err != nil {
				return err
			}
			st := w.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d nodes, %d open files\n", st.Nodes, st.OpenFiles)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every saved editor key",
	Long:  "Delete the saved project, open files, and preferences. The next start uses the default project.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := cliSetup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		st, err := server.OpenStore(cfg, nil, logger.Component("store"))
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := store.ClearAll(cmd.Context(), st)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d keys\n", n)
		return nil
	},
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the starter project templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := templates.Load()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tFILES\tDESCRIPTION")
		for _, t := range reg.List() {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", t.Name, t.Files(), t.Description)
		}
		return tw.Flush()
	},
}

func init() {
	exportCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file")
	rootCmd.AddCommand(exportCmd, importCmd, resetCmd, templatesCmd)
}

// cliSetup loads config with quiet logging unless --dev is set
func cliSetup(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := server.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Logging.Development {
		if err := logger.SetLevel("warn"); err != nil {
			return nil, nil, err
		}
	}
	return cfg, logger, nil
}

// withWorkspace opens the configured store and workspace, runs fn, and
// flushes and closes both
func withWorkspace(cmd *cobra.Command, fn func(ctx context.Context, w *workspace.Workspace) error) (err error) {
	cfg, logger, err := cliSetup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	st, err := server.OpenStore(cfg, nil, logger.Component("store"))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := server.OpenWorkspace(ctx, cfg, st, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(context.Background()); cerr != nil && err == nil {
			err = cerr
		}
		logger.Debug("Workspace closed", zap.String("store", cfg.Store.Driver))
	}()

	return fn(ctx, w)
}
