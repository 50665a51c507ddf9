package poliscope

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/poliscope/poliscope/pkg/config"
	"github.com/poliscope/poliscope/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index <chunks.json>",
	Short: "Build the hierarchical index from a chunk file",
	Long: `Read policy chunks from a JSON file, build the hierarchical index,
and save a snapshot so later commands (and the server with --restore)
can load it without re-indexing.

The file holds a JSON array of chunk objects:

  [{"chunk_id": "p1::s1", "policy_id": "p1", "content": "...", "level": "section"}]`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().Bool("no-snapshot", false, "Skip saving a snapshot after indexing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read chunk file: %w", err)
	}
	var chunks []types.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("parse chunk file: %w", err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("chunk file %s holds no chunks", args[0])
	}

	logger := newLogger(cfg)
	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	defer engine.Close()

	ctx := cmd.Context()
	if err := engine.IndexChunks(ctx, chunks); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	fmt.Printf("Indexed %d chunks\n", len(chunks))

	if noSnap, _ := cmd.Flags().GetBool("no-snapshot"); !noSnap {
		if err := engine.SaveSnapshot(ctx); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		fmt.Println("Saved index snapshot")
	}
	return nil
}
