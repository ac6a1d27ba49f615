package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mensylisir/elevate/bridge"
	"github.com/mensylisir/elevate/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge daemon on the configured Unix socket",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	controller, store, err := newController()
	if err != nil {
		return err
	}
	defer store.Close()

	server := bridge.NewServer(cfg.SocketPath, controller)
	if err := server.Start(); err != nil {
		return err
	}
	logger.Log.Infof("listening on %s", cfg.SocketPath)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	logger.Log.Infof("received %s, shutting down", s)

	server.Stop()
	return nil
}
