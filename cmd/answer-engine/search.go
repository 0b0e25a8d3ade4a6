// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one web search query and print the results",
	Long: `Search sends a single query to the configured search endpoint and prints
the extracted results. When the endpoint is unreachable, rejects the request,
or returns no results, the built-in fallback table answers instead and the
summary line says why.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := pipelineConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("max-results") {
		cfg.Search.ResultsPerQuery, _ = cmd.Flags().GetInt("max-results")
	}

	exec, err := newExecutor(cfg.Search)
	if err != nil {
		return err
	}
	r := exec.Search(cmd.Context(), strings.Join(args, " "))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return search.FormatJSON(r, cmd.OutOrStdout())
	}
	search.FormatTable(r, cmd.OutOrStdout())
	return nil
}

func init() {
	searchCmd.Flags().Int("max-results", 3, "maximum number of results to keep")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
