// Package cmd provides the command-line interface of memsim.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// envFlags maps the flags that can take their default from the environment.
var envFlags = map[string]string{
	"backing-store": "MEMSIM_BACKING_STORE",
	"tlb-entries":   "MEMSIM_TLB_ENTRIES",
	"page-size":     "MEMSIM_PAGE_SIZE",
	"monitor-port":  "MEMSIM_MONITOR_PORT",
}

func newRootCmd() *cobra.Command {
	cfg := defaultConfig()

	rootCmd := &cobra.Command{
		Use:   "memsim <reference-sequence-file> [frames] [PRA]",
		Short: "memsim simulates address translation in demand-paged memory.",
		Long: `memsim translates each logical address of the reference file ` +
			`through a TLB and a page table, faulting pages in from a backing ` +
			`store and evicting them with FIFO, LRU or OPT replacement.`,
		Args:          cobra.RangeArgs(1, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return applyEnv(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.parseArgs(args); err != nil {
				return err
			}

			if err := cfg.validate(); err != nil {
				return err
			}

			return run(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cfg.bindFlags(rootCmd)
	rootCmd.AddCommand(newGenStoreCmd(cfg))
	rootCmd.AddCommand(newReportCmd())

	return rootCmd
}

// applyEnv loads .env and fills the flags the user did not set from MEMSIM_*
// variables.
func applyEnv(cmd *cobra.Command) error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	for flag, env := range envFlags {
		f := cmd.Flags().Lookup(flag)
		if f == nil || f.Changed {
			continue
		}

		value, ok := os.LookupEnv(env)
		if !ok {
			continue
		}

		if err := cmd.Flags().Set(flag, value); err != nil {
			return configError(env, value, err.Error())
		}
	}

	return nil
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// Execute runs the root command and exits with 1 if it fails.
func Execute() {
	rootCmd := newRootCmd()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		atexit.Exit(1)
	}
}
