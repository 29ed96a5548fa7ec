package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalike-app/kalike/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		opts, err := resolveOptions(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, opts, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn("close failed", "error", err)
			}
		}()

		addr := flagOrEnv(cmd, "addr", "KALIKE_ADDR")
		if addr == "" {
			addr = app.DefaultAddr
		}
		log.Info("starting kalike", "version", version, "db", opts.DBPath)
		if err := a.Serve(ctx, addr); err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides KALIKE_ADDR; default "+app.DefaultAddr+")")
}
