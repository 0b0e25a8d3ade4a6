// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/internal/history"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question, optionally from web search evidence",
	Long: `Ask answers a natural-language question.

With --mode web_search (the default) the model plans up to three search
queries, each query is searched on the web, and the deduplicated results are
handed to the model with instructions to answer only from them. The printed
sources are exactly the URLs of that evidence.

With --mode no_search the model answers from its own knowledge in a single
call.

The outcome is stored in the run archive unless --no-history is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := types.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	model, _ := cmd.Flags().GetString("model")
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := pipelineConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	completer, err := newCompleter(ctx, cfg.AI)
	if err != nil {
		return err
	}
	exec, err := newExecutor(cfg.Search)
	if err != nil {
		return err
	}

	p := pipeline.New(completer, exec, cfg, logger)
	if trace, _ := cmd.Flags().GetBool("trace"); trace {
		p.Progress = cmd.ErrOrStderr()
	}

	out := p.Run(ctx, pipeline.Request{Question: question, Mode: mode, Model: model})

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		if model == "" {
			model = cfg.AI.Model
		}
		saveRun(cmd, cfg.History, question, model, out)
	}

	if err := writeOutcome(cmd.OutOrStdout(), out, format); err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("research failed: %s", out.Error)
	}
	return nil
}

// saveRun archives out. Archive failures are logged but never fail the
// command, since the answer has already been produced.
func saveRun(cmd *cobra.Command, cfg types.HistoryConfig, question, model string, out types.ResearchOutcome) {
	store, err := history.NewStore(cfg)
	if err != nil {
		logger.Warn("could not open run archive", zap.Error(err))
		return
	}
	defer store.Close()

	rec, err := store.Save(cmd.Context(), question, model, out)
	if err != nil {
		logger.Warn("could not archive run", zap.Error(err))
		return
	}
	logger.Debug("run archived", zap.String("id", rec.ID))
}

// outputFormat reads the mutually exclusive --json and --yaml flags.
func outputFormat(cmd *cobra.Command) (string, error) {
	asJSON, _ := cmd.Flags().GetBool("json")
	asYAML, _ := cmd.Flags().GetBool("yaml")
	switch {
	case asJSON && asYAML:
		return "", fmt.Errorf("--json and --yaml cannot be combined")
	case asJSON:
		return "json", nil
	case asYAML:
		return "yaml", nil
	default:
		return "text", nil
	}
}

// writeOutcome prints out in the requested format.
func writeOutcome(w io.Writer, out types.ResearchOutcome, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	}

	if !out.Success {
		fmt.Fprintf(w, "error: %s\n", out.Error)
		return nil
	}
	fmt.Fprintln(w, strings.TrimSpace(out.Answer))
	if len(out.Sources) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for i, u := range out.Sources {
			title := ""
			if i < len(out.Evidence) {
				title = out.Evidence[i].Title
			}
			fmt.Fprintf(w, "  [%d] %s\n      %s\n", i+1, title, u)
		}
	}
	return nil
}

func init() {
	askCmd.Flags().String("mode", string(types.ModeWebSearch), "answer mode: web_search or no_search")
	askCmd.Flags().String("model", "", "model identifier (default: ai.model from config)")
	askCmd.Flags().Bool("json", false, "print the outcome as JSON")
	askCmd.Flags().Bool("yaml", false, "print the outcome as YAML")
	askCmd.Flags().Bool("no-history", false, "do not store this run in the archive")
	askCmd.Flags().Bool("trace", false, "print planned queries and retrieval sources to stderr as they happen")

	rootCmd.AddCommand(askCmd)
}
