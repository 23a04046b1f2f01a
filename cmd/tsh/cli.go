package main

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/nixpig/tsh/internal/jobs"
	"github.com/nixpig/tsh/internal/shell"
)

type cliFlags struct {
	verbose    bool
	noPrompt   bool
	maxJobs    int
	configPath string
}

func rootCmd() *cobra.Command {
	flags := &cliFlags{}

	c := &cobra.Command{
		Use:          "tsh",
		Short:        "Tiny interactive shell with job control",
		Example:      "tsh --verbose",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := defaultConfig()

			if flags.configPath != "" {
				if err := cfg.loadFile(flags.configPath); err != nil {
					return err
				}
			}

			applyFlagOverrides(cfg, flags, cmd.Flags())

			if err := cfg.validate(); err != nil {
				return err
			}

			return runShell(cfg, flags.noPrompt)
		},
	}

	addFlags(c.Flags(), flags)

	return c
}

func addFlags(fs *pflag.FlagSet, flags *cliFlags) {
	fs.BoolVarP(
		&flags.verbose,
		"verbose",
		"v",
		false,
		"Emit additional diagnostic logs",
	)

	fs.BoolVarP(
		&flags.noPrompt,
		"no-prompt",
		"p",
		false,
		"Do not emit a command prompt",
	)

	fs.IntVar(
		&flags.maxJobs,
		"max-jobs",
		jobs.DefaultCapacity,
		"Maximum number of concurrently tracked jobs",
	)

	fs.StringVar(&flags.configPath, "config", "", "Path to YAML config file")
}

// applyFlagOverrides makes flags given on the command line win over values
// from the config file.
func applyFlagOverrides(cfg *config, flags *cliFlags, fs *pflag.FlagSet) {
	if fs.Changed("verbose") {
		cfg.Verbose = flags.verbose
	}

	if fs.Changed("max-jobs") {
		cfg.MaxJobs = flags.maxJobs
	}
}

func runShell(cfg *config, noPrompt bool) error {
	logger := newLogger(cfg.Verbose)

	// The prompt is only useful when a human is typing at a terminal.
	prompt := cfg.Prompt
	if noPrompt || !term.IsTerminal(int(os.Stdin.Fd())) {
		prompt = ""
	}

	sh := shell.New(shell.Options{
		Capacity: cfg.MaxJobs,
		Prompt:   prompt,
		Out:      os.Stdout,
		Logger:   logger,
	})

	stop := sh.HandleSignals()
	defer stop()

	logger.Debug("shell started", "max_jobs", cfg.MaxJobs)

	return sh.Run(os.Stdin)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(
		os.Stderr,
		&slog.HandlerOptions{Level: level},
	)

	return slog.New(handler).With(slog.String("session", uuid.NewString()))
}
