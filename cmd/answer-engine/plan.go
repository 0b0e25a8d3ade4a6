// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/plan"
)

var planCmd = &cobra.Command{
	Use:   "plan [question]",
	Short: "Show the search queries the model would run for a question",
	Long: `Plan runs only the query planning step: the model decomposes the question
into one to three search queries, which are printed one per line. Nothing is
searched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")
	model, _ := cmd.Flags().GetString("model")

	cfg, err := pipelineConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	completer, err := newCompleter(ctx, cfg.AI)
	if err != nil {
		return err
	}
	if model == "" {
		model = cfg.AI.Model
	}

	queries, err := plan.New(completer, cfg.Planner, logger).Plan(ctx, model, question)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(queries)
	}
	for i, q := range queries {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, q)
	}
	return nil
}

func init() {
	planCmd.Flags().String("model", "", "model identifier (default: ai.model from config)")
	planCmd.Flags().Bool("json", false, "print the queries as a JSON array")

	rootCmd.AddCommand(planCmd)
}
