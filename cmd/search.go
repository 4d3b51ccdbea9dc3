package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"planai/constants/lipgloss"
	"planai/utils"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic search over the indexed codebase",
	Long: `The 'search' subcommand embeds the query and returns the most similar
indexed code chunks. Run 'planai index' first to build the index.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		topK, _ := cmd.Flags().GetInt("top")
		handleSearchCommand(rootDependencies, strings.Join(args, " "), topK)
	},
}

func init() {
	searchCmd.Flags().IntP("top", "k", 5, "Number of results to return")
	rootCmd.AddCommand(searchCmd)
}

func handleSearchCommand(rootDependencies *RootDependencies, query string, topK int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	response, err := rootDependencies.Search.Search(ctx, query, topK)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	if response.TotalResults == 0 {
		fmt.Println(lipgloss.Yellow.Render("No results. Is the index built? Try 'planai index' first."))
		return
	}

	for i, result := range response.Results {
		meta := result.Metadata
		header := fmt.Sprintf("%d. %s:%d-%d (%s %s, relevance %.3f)",
			i+1, meta.FilePath, meta.StartLine, meta.EndLine, meta.Type, meta.Name, result.Relevance)
		fmt.Println(lipgloss.BlueSky.Render(header))

		language := utils.DetectLanguageFromPath(meta.FilePath)
		if err := utils.RenderAndPrintMarkdownWithContext(ctx, result.Content, language, "dracula"); err != nil {
			fmt.Println(result.Content)
		}
		fmt.Println()
	}
}
