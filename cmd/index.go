package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"planai/constants/lipgloss"
	"planai/search"
)

var indexCmd = &cobra.Command{
	Use:   "index [directory]",
	Short: "Build or update the semantic search index",
	Long: `The 'index' subcommand chunks source files, embeds the chunks and stores
them in the local vector index. Files whose content hash is unchanged
since the last run are skipped, so re-indexing is cheap.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		directory := "."
		if len(args) > 0 {
			directory = args[0]
		}
		patterns, _ := cmd.Flags().GetStringSlice("pattern")
		rebuild, _ := cmd.Flags().GetBool("rebuild")
		handleIndexCommand(rootDependencies, directory, patterns, rebuild)
	},
}

func init() {
	indexCmd.Flags().StringSliceP("pattern", "p", nil, "File glob to include (repeatable, defaults to common source types)")
	indexCmd.Flags().Bool("rebuild", false, "Drop the index and re-index from scratch")
	rootCmd.AddCommand(indexCmd)
}

func handleIndexCommand(rootDependencies *RootDependencies, directory string, patterns []string, rebuild bool) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithRemoveWhenDone(true)
	indexing, _ := spinner.Start("Indexing files...")

	var (
		stats *search.IndexStats
		err   error
	)
	if rebuild {
		stats, err = rootDependencies.Search.RebuildIndex(ctx)
	} else {
		stats, err = rootDependencies.Search.IndexDirectory(ctx, directory, patterns)
	}
	indexing.Stop()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	for _, indexErr := range stats.Errors {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("⚠ %s: %s", indexErr.File, indexErr.Err)))
	}
	fmt.Println(lipgloss.Green.Render(fmt.Sprintf(
		"Indexed %d of %d file(s) (%d unchanged, %d chunks).",
		stats.IndexedFiles, stats.TotalFiles, stats.SkippedFiles, stats.TotalChunks,
	)))
}
