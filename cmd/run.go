package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mensylisir/elevate/bridge"
	"github.com/mensylisir/elevate/session"
)

var (
	runPasswordStdin bool
	runDirect        bool
	runLocal         bool
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- command [args...]",
	Short: "Execute a single command with elevated privileges",
	Long: `run executes one command through the elevation pipeline. When a bridge
daemon is listening on the configured socket the request goes through it,
so the daemon's credential cache is shared; otherwise the command runs
in-process.

If elevation needs a password and stdin is a terminal, run prompts for it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runPasswordStdin, "password-stdin", false, "read the password from the first line of stdin")
	runCmd.Flags().BoolVar(&runDirect, "direct", false, "bypass the credential cache entirely")
	runCmd.Flags().BoolVar(&runLocal, "local", false, "run in-process even if a daemon is listening")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	req := &session.ElevationRequest{Command: args[0], Args: args[1:]}

	if runPasswordStdin {
		pw, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && pw == "" {
			return fmt.Errorf("reading password from stdin: %w", err)
		}
		req.Password = strings.TrimRight(pw, "\r\n")
	}

	resp := dispatchRun(ctx, req)

	if resp.NeedsPassword && req.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "[%s] password: ", elevationName())
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		req.Password = string(pw)
		resp = dispatchRun(ctx, req)
	}

	return printResponse(resp)
}

func dispatchRun(ctx context.Context, req *session.ElevationRequest) *session.ElevationResponse {
	if !runLocal && daemonRunning() {
		client := bridge.NewClient(cfg.SocketPath)
		if runDirect {
			return client.DirectEscalation(ctx, req.Command, req.Args)
		}
		return client.FastSudo(ctx, req)
	}

	controller, store, err := newController()
	if err != nil {
		return &session.ElevationResponse{Error: err.Error()}
	}
	defer store.Close()
	if runDirect {
		return controller.ExecuteDirect(ctx, req.Command, req.Args)
	}
	return controller.Execute(ctx, req)
}

func printResponse(resp *session.ElevationResponse) error {
	if resp.Output != "" {
		fmt.Print(resp.Output)
		if !strings.HasSuffix(resp.Output, "\n") {
			fmt.Println()
		}
	}
	if resp.Success {
		return nil
	}
	if resp.NeedsPassword {
		return fmt.Errorf("a password is required (rerun with --password-stdin or from a terminal)")
	}
	if resp.Error != "" {
		return fmt.Errorf("%s", resp.Error)
	}
	return fmt.Errorf("command failed")
}
