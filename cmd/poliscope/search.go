package poliscope

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/poliscope/poliscope"
	"github.com/poliscope/poliscope/pkg/config"
	"github.com/poliscope/poliscope/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the indexed policy documents",
	Long: `Restore the latest index snapshot and run a search against it.

Use --policies to aggregate results into whole-policy matches instead
of individual chunks, and --json for machine-readable output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Int("top-k", 10, "Number of results to return")
	searchCmd.Flags().String("strategy", "", "Retrieval strategy (simple, hybrid, hierarchical, multi_representation, full_advanced)")
	searchCmd.Flags().String("rerank", "", "Rerank method (auto, rule_based, cross_encoder, llm, multi_stage)")
	searchCmd.Flags().String("context", "", "Applicant context used for intent boosting and summaries")
	searchCmd.Flags().Bool("summary", false, "Generate an LLM summary of the results")
	searchCmd.Flags().Bool("policies", false, "Aggregate results into whole-policy matches")
	searchCmd.Flags().Bool("json", false, "Print the raw JSON response")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)
	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer engine.Close()

	ctx := cmd.Context()
	if err := engine.RestoreLatest(ctx); err != nil {
		return fmt.Errorf("restore index snapshot (run 'poliscope index' first): %w", err)
	}

	queryText := strings.Join(args, " ")
	topK, _ := cmd.Flags().GetInt("top-k")
	asJSON, _ := cmd.Flags().GetBool("json")

	if matchPolicies, _ := cmd.Flags().GetBool("policies"); matchPolicies {
		matches, err := engine.MatchPolicies(ctx, queryText, topK)
		if err != nil {
			return fmt.Errorf("match policies: %w", err)
		}
		if asJSON {
			return printJSON(matches)
		}
		printMatches(matches)
		return nil
	}

	strategy, _ := cmd.Flags().GetString("strategy")
	rerankMethod, _ := cmd.Flags().GetString("rerank")
	applicantContext, _ := cmd.Flags().GetString("context")
	withSummary, _ := cmd.Flags().GetBool("summary")

	resp, err := engine.Search(ctx, poliscope.SearchRequest{
		Query:            queryText,
		TopK:             topK,
		Strategy:         types.Strategy(strategy),
		RerankMethod:     types.RerankMethod(rerankMethod),
		ApplicantContext: applicantContext,
		WithSummary:      withSummary,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if asJSON {
		return printJSON(resp)
	}
	printResponse(resp)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printResponse(resp *types.Response) {
	if !resp.Success {
		fmt.Printf("Search failed: %s\n", resp.Error)
		for _, s := range resp.Suggestions {
			fmt.Printf("  - %s\n", s)
		}
		return
	}
	fmt.Printf("%d results (strategy %s, rerank %s)\n\n", len(resp.Results), resp.StrategyUsed, resp.RerankMethod)
	for i, r := range resp.Results {
		fmt.Printf("%2d. [%.3f] %s (%s)\n", i+1, r.Score, r.ChunkID, r.PolicyID)
		fmt.Printf("    %s\n", excerpt(r.Content, 160))
	}
	if resp.Summary != "" {
		fmt.Printf("\nSummary:\n%s\n", resp.Summary)
	}
	if resp.Optimization != "" {
		fmt.Printf("\nOptimization advice:\n%s\n", resp.Optimization)
	}
}

func printMatches(matches []types.PolicyMatch) {
	fmt.Printf("%d matching policies\n\n", len(matches))
	for i, m := range matches {
		title := m.Title
		if title == "" {
			title = m.PolicyID
		}
		fmt.Printf("%2d. [%.3f] %s\n", i+1, m.Score, title)
		for k, v := range m.KeyInformation {
			fmt.Printf("    %s: %s\n", k, excerpt(v, 120))
		}
	}
}

func excerpt(s string, limit int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
