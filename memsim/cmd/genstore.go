package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sarchlab/memsim/memory"
	"github.com/spf13/cobra"
)

func newGenStoreCmd(cfg *config) *cobra.Command {
	var force bool

	genStoreCmd := &cobra.Command{
		Use:   "gen-store <output-file>",
		Short: "Write a synthetic backing store image.",
		Long: `gen-store writes 256 pages where the byte at flat index i is ` +
			`(i / page-size) XOR (i % page-size).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePageSize(cfg.pageSize); err != nil {
				return err
			}

			err := writeStore(args[0], cfg.pageSize, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(),
				"Backing store written to %s\n", args[0])

			return nil
		},
	}

	genStoreCmd.Flags().BoolVar(&force, "force", false,
		"Overwrite the output file if it exists.")

	return genStoreCmd
}

func writeStore(path string, pageSize int, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)

	err = memory.GenerateBackingStore(w, numPages, pageSize)
	if err == nil {
		err = w.Flush()
	}

	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	return err
}
