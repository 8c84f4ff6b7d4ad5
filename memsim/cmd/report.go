package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/memsim/datarecording"
	"github.com/sarchlab/memsim/simulation"
	"github.com/sarchlab/memsim/tracing"
	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	var faults bool

	reportCmd := &cobra.Command{
		Use:   "report <database-file>",
		Short: "Print the runs stored in a recording.",
		Long: `report reads a database written with --record and prints the ` +
			`configuration and the summary of every run it holds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return report(cmd.Context(), args[0], faults, cmd.OutOrStdout())
		},
	}

	reportCmd.Flags().BoolVar(&faults, "faults", false,
		"Also list the translations that caused a page fault.")

	return reportCmd
}

func report(ctx context.Context, path string, faults bool, w io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return configError("database file", path, err.Error())
	}

	reader, err := datarecording.NewReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	reader.MapTable("exec_info", datarecording.ExecInfo{})
	reader.MapTable("summary", tracing.SummaryEntry{})
	reader.MapTable("translation", tracing.TranslationEntry{})

	info, _, err := reader.Query(ctx, "exec_info", datarecording.QueryParams{})
	if err != nil {
		return fmt.Errorf("reading exec_info: %w", err)
	}

	for _, row := range info {
		e := row.(*datarecording.ExecInfo)
		fmt.Fprintf(w, "%s = %s\n", e.Property, e.Value)
	}

	summaries, _, err := reader.Query(ctx, "summary",
		datarecording.QueryParams{OrderBy: "Session"})
	if err != nil {
		return fmt.Errorf("reading summary: %w", err)
	}

	for _, row := range summaries {
		s := row.(*tracing.SummaryEntry)

		fmt.Fprintf(w, "Session = %s\n", s.Session)

		if err := simulation.WriteSummary(w, s.Stats()); err != nil {
			return err
		}

		if faults {
			if err := reportFaults(ctx, reader, s.Session, w); err != nil {
				return err
			}
		}
	}

	return nil
}

func reportFaults(
	ctx context.Context,
	reader datarecording.DataReader,
	session string,
	w io.Writer,
) error {
	rows, _, err := reader.Query(ctx, "translation", datarecording.QueryParams{
		Where:   "Session = ? AND PageFault = ?",
		Args:    []any{session, true},
		OrderBy: `"Index"`,
	})
	if err != nil {
		return fmt.Errorf("reading translation: %w", err)
	}

	for _, row := range rows {
		t := row.(*tracing.TranslationEntry)
		fmt.Fprintf(w, "Fault %d: address %d, page %d, frame %d, evicted %d\n",
			t.Index, t.Address, t.Page, t.Frame, t.Evicted)
	}

	return nil
}
