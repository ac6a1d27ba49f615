package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mensylisir/elevate/bridge"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report whether elevation would currently succeed without a prompt",
	Long: `check reports whether a command could be elevated right now without
asking for a password, either because a credential is cached or because
the current user has passwordless elevation. Exits 0 when granted, 1
when a password would be required.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var granted bool
	if daemonRunning() {
		granted = bridge.NewClient(cfg.SocketPath).CheckPrivileges(ctx)
	} else {
		controller, store, err := newController()
		if err != nil {
			return err
		}
		defer store.Close()
		granted = controller.CheckPrivileges(ctx)
	}

	if granted {
		fmt.Println("granted")
		return nil
	}
	fmt.Println("denied")
	os.Exit(1)
	return nil
}
