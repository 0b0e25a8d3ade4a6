// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/history"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and export archived runs",
	Long: `History reads the local SQLite archive of past ask runs. Use list to
browse, show to print one run in full, and export to dump runs as YAML or
JSON.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.List(cmd.Context(), listOptsFromFlags(cmd))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	formatHistoryTable(cmd.OutOrStdout(), recs)
	return nil
}

func formatHistoryTable(w io.Writer, recs []history.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return
	}

	fmt.Fprintf(w, "%-8s  %-16s  %-10s  %-4s  %s\n", "ID", "Created", "Mode", "OK", "Question")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range recs {
		ok := "yes"
		if !r.Outcome.Success {
			ok = "no"
		}
		question := r.Question
		if len(question) > 52 {
			question = question[:49] + "..."
		}
		fmt.Fprintf(w, "%-8s  %-16s  %-10s  %-4s  %s\n",
			r.ID[:8], r.CreatedAt.Local().Format("2006-01-02 15:04"), r.Outcome.Mode, ok, question)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(recs))
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print one archived run",
	Long: `Show prints the answer, sources, and trace of one run. The ID may be
abbreviated to its first eight or more characters.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if format != "text" {
		return writeOutcome(w, rec.Outcome, format)
	}

	fmt.Fprintf(w, "Run:      %s\n", rec.ID)
	fmt.Fprintf(w, "Created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Mode:     %s\n", rec.Outcome.Mode)
	if rec.Model != "" {
		fmt.Fprintf(w, "Model:    %s\n", rec.Model)
	}
	fmt.Fprintf(w, "Question: %s\n\n", rec.Question)
	if err := writeOutcome(w, rec.Outcome, format); err != nil {
		return err
	}
	if rec.Outcome.Trace != "" {
		fmt.Fprintf(w, "\nTrace:\n%s\n", rec.Outcome.Trace)
	}
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export archived runs to YAML or JSON",
	Long: `Export writes archived runs, including their evidence, to stdout or to the
file named by --output. Supports the same filters as list; by default every
run is exported.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := store.Export(cmd.Context(), w, format, listOptsFromFlags(cmd)); err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
	}
	return nil
}

// --- shared helpers ---

func openHistory() (*history.Store, error) {
	return history.NewStore(types.HistoryConfig{DBPath: viper.GetString("history.db")})
}

func listOptsFromFlags(cmd *cobra.Command) history.ListOptions {
	limit, _ := cmd.Flags().GetInt("limit")
	contains, _ := cmd.Flags().GetString("contains")
	return history.ListOptions{Limit: limit, Contains: contains}
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum runs to list")
	historyListCmd.Flags().String("contains", "", "only runs whose question contains this text")
	historyListCmd.Flags().Bool("json", false, "output runs as JSON")

	historyShowCmd.Flags().Bool("json", false, "print the outcome as JSON")
	historyShowCmd.Flags().Bool("yaml", false, "print the outcome as YAML")

	historyExportCmd.Flags().String("format", history.FormatYAML, "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "write to this file instead of stdout")
	historyExportCmd.Flags().String("contains", "", "only runs whose question contains this text")
	historyExportCmd.Flags().Int("limit", 0, "maximum runs to export (0 = all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
