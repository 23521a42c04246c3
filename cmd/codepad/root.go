package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/codepad/internal/infrastructure/config"
)

var (
	port      string
	storeKind string
	storePath string
	devMode   bool
)

var rootCmd = &cobra.Command{
	Use:   "codepad",
	Short: "Browser code editor backend",
	Long: `codepad serves the project model of a browser code editor: a tree of
files and folders, the open tabs, and editor preferences, saved automatically
to a local store.

Without a subcommand it runs the server.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "Store driver: memory, file or sqlite (env STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store-path", "", "Store directory (env STORE_PATH)")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Development mode: debug level, console logs")
	rootCmd.Flags().StringVarP(&port, "port", "p", "", "Server port (env PORT)")
}

// loadConfig reads the environment, then applies flags that were set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("store") {
		cfg.Store.Driver = storeKind
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = storePath
	}
	if devMode {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
