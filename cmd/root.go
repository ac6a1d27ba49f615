package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mensylisir/elevate/cache"
	"github.com/mensylisir/elevate/common"
	"github.com/mensylisir/elevate/config"
	"github.com/mensylisir/elevate/executor"
	"github.com/mensylisir/elevate/logger"
	"github.com/mensylisir/elevate/privilege"
	"github.com/mensylisir/elevate/session"
	"github.com/mensylisir/elevate/util"
)

var (
	cfgFile    string
	logDir     string
	verbose    bool
	socketPath string

	cfg *config.ServiceConfig
)

var rootCmd = &cobra.Command{
	Use:   common.AppName,
	Short: "Privileged command execution service with credential caching",
	Long: `elevate runs commands with elevated privileges on behalf of a frontend,
caching a verified credential in memory for a bounded time so the user is
not prompted on every request.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "path to the service config file (default $ELEVATE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "directory for rotated log files (default: stdout)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "bridge socket path (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	path := util.FirstNonEmpty(cfgFile, os.Getenv("ELEVATE_CONFIG"))
	if path != "" {
		loaded, err := config.LoadServiceConfig(path)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if socketPath != "" {
		cfg.SocketPath = socketPath
	}
	if logDir != "" {
		cfg.Log.Dir = logDir
	}
	if verbose {
		cfg.Log.Verbose = true
	}

	level, err := logrus.ParseLevel(util.FirstNonEmpty(cfg.Log.Level, config.DefaultLogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	return logger.InitGlobalLogger(cfg.Log.Dir, cfg.Log.Verbose, level)
}

// newController assembles the in-process component stack from the loaded
// configuration. Callers own the returned store and must Close it.
func newController() (*session.Controller, *cache.CredentialStore, error) {
	store := cache.NewCredentialStore(
		cache.WithTTL(cfg.CredentialTTL.Std()),
		cache.WithJanitorInterval(time.Minute),
	)

	prober := privilege.NewSudoProber(
		privilege.WithProbeElevationCommand(cfg.ElevationCommand...),
	)

	var (
		exec executor.Executor
		err  error
	)
	if cfg.Remote != nil {
		exec, err = executor.NewSSHExecutor(executor.SSHConfig{
			Address:        cfg.Remote.Address,
			Port:           cfg.Remote.Port,
			User:           cfg.Remote.User,
			Password:       cfg.Remote.Password,
			PrivateKeyPath: cfg.Remote.PrivateKeyPath,
		},
			executor.WithSSHTimeout(cfg.ExecTimeout.Std()),
			executor.WithSSHOutputLimit(cfg.OutputLimit),
			executor.WithSSHElevationCommand(cfg.ElevationCommand...),
		)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
	} else {
		exec = executor.NewLocalExecutor(
			executor.WithTimeout(cfg.ExecTimeout.Std()),
			executor.WithOutputLimit(cfg.OutputLimit),
			executor.WithElevationCommand(cfg.ElevationCommand...),
		)
	}

	controller := session.NewController(store, prober, exec,
		session.WithCredentialTTL(cfg.CredentialTTL.Std()),
		session.WithProbeGrace(cfg.ProbeGrace.Std()),
	)
	return controller, store, nil
}

// elevationName is the display name of the configured elevation wrapper.
func elevationName() string {
	if len(cfg.ElevationCommand) > 0 {
		return filepath.Base(cfg.ElevationCommand[0])
	}
	return "sudo"
}

// daemonRunning reports whether a bridge daemon already serves the
// configured socket.
func daemonRunning() bool {
	info, err := os.Stat(cfg.SocketPath)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSocket != 0
}
