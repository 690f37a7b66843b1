// Package main implements counselorctl, the operator CLI for the counselor
// bot: ask questions, message users, inspect statistics and manage the
// knowledge table.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmstudyabroad/counselor-bot/internal/buildinfo"
	"github.com/mmstudyabroad/counselor-bot/internal/config"
	"github.com/mmstudyabroad/counselor-bot/internal/logger"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries what every subcommand needs. loadConfig is swapped in tests.
type cli struct {
	loadConfig func() (*config.Config, error)
	verbose    bool
}

func newRootCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	c := &cli{loadConfig: loadConfig}

	root := &cobra.Command{
		Use:           "counselorctl",
		Short:         "Operate the study-abroad counselor bot",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			slog.SetDefault(logger.NewWithWriter(level, cmd.ErrOrStderr()).Logger)
		},
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Print reply details and debug logs")

	root.AddCommand(
		c.askCmd(),
		c.sendCmd(),
		c.typingCmd(),
		c.profileCmd(),
		c.statsCmd(),
		c.knowledgeCmd(),
	)
	return root
}

func (c *cli) config() (*config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
