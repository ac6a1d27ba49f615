package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mensylisir/elevate/bridge"
	"github.com/mensylisir/elevate/logger"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Drop the cached credential and invalidate the system timestamp",
	RunE:  runClearCache,
}

func init() {
	rootCmd.AddCommand(clearCacheCmd)
}

func runClearCache(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if daemonRunning() {
		bridge.NewClient(cfg.SocketPath).ClearCache(ctx)
		logger.Log.Info("cache cleared")
		return nil
	}

	controller, store, err := newController()
	if err != nil {
		return err
	}
	defer store.Close()
	controller.ClearCache(ctx)
	logger.Log.Info("cache cleared")
	return nil
}
