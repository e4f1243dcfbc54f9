package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/py60800/abcedit/internal/server"
	"github.com/py60800/abcedit/session"
	"github.com/spf13/cobra"
)

var (
	ServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "serve the configured score over HTTP",
		Args:  cobra.NoArgs,
		RunE:  serveCmd,
	}

	addrFlag string
)

func init() {
	ServeCmd.Flags().StringVar(
		&addrFlag, "addr", "",
		"listen address, overrides server.addr")
	RootCmd.AddCommand(ServeCmd)
}

func serveCmd(cmd *cobra.Command, args []string) error {
	s, err := cfg.NewSession(logger)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	loop := session.NewLoop(16)
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event loop", "error", err)
		}
	}()

	srv := server.New(s, loop, logger)
	srv.Tempo = cfg.Tempo
	addr := cfg.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}
	return srv.ListenAndServe(ctx, addr)
}
