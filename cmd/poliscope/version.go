package poliscope

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/poliscope/poliscope/pkg/server/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("poliscope %s\n", handlers.Version)
		fmt.Printf("  commit:     %s\n", handlers.GitCommit)
		fmt.Printf("  built:      %s\n", handlers.BuildTime)
		fmt.Printf("  go version: %s\n", handlers.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
