package main

import (
	"log/slog"
	"os"

	"github.com/py60800/abcedit/internal/config"
	"github.com/spf13/cobra"
)

var (
	RootCmd = &cobra.Command{
		Use:               "abcedit",
		Short:             "enter and edit ABC scores note by note",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	configFlag string
	debugFlag  bool

	cfg    *config.Config
	logger = slog.Default()
)

func init() {
	RootCmd.PersistentFlags().StringVar(
		&configFlag, "config", "",
		"YAML configuration file")
	RootCmd.PersistentFlags().BoolVar(
		&debugFlag, "debug", false,
		"log at debug level")
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFlag == "" {
		cfg = config.Default()
	} else if cfg, err = config.Load(configFlag); err != nil {
		return err
	}
	if debugFlag {
		cfg.Log.Level = "debug"
	}
	logger = cfg.Logger(os.Stderr)
	return nil
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
