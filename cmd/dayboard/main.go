package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"dayboard/internal/config"
	appLog "dayboard/internal/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.1.0-dev"

type rootFlags struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "dayboard",
		Short:         "Personal schedule analytics dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
				appLog.Debug(fmt.Sprintf(format, args...))
			})); err != nil {
				appLog.Error("failed to set GOMAXPROCS", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "./dayboard.yaml", "Path to config file (created with defaults if missing)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info or error (overrides config)")

	root.AddCommand(
		newServeCommand(flags),
		newAnalyzeCommand(flags),
		newVersionCommand(),
	)
	return root
}

// loadConfig loads the config file and applies the log level.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return nil, err
	}
	level := cfg.LogLevel
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))
	return cfg, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "dayboard", version)
		},
	}
}
