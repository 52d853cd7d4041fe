// Package cli implements the selfgate CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rcliao/selfgate/internal/config"
	"github.com/rcliao/selfgate/internal/store"
)

var (
	configPath  string
	storePath   string
	backendFlag string
	formatFlag  string
	verbose     bool

	cfg    *config.Config
	logger = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "selfgate",
	Short: "Learn self-rules from assistant replies",
	Long: "Scan assistant replies for stylistic patterns and keep a small, deduplicated set of " +
		"self-rules, saved at most once per day and never on consecutive turns.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			exitErr("load config", err)
		}
		if storePath != "" {
			cfg.Store.Path = storePath
		}
		if backendFlag != "" {
			cfg.Store.Backend = backendFlag
		}
		logger, err = newLogger(verbose)
		if err != nil {
			exitErr("init logger", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SELFGATE_CONFIG)")
	RootCmd.PersistentFlags().StringVarP(&storePath, "store", "s", "", "Store path (default: $SELFGATE_STORE or ./data/self_memory.json)")
	RootCmd.PersistentFlags().StringVarP(&backendFlag, "backend", "b", "", "Store backend: json, sqlite or memory")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log gate decisions to stderr")
}

func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zc.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return zc.Build()
}

func openStore() (store.Store, error) {
	return store.Open(cfg.Store.Backend, cfg.Store.Path)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
