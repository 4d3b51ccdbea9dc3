package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"planai/actionlog"
	"planai/config"
	"planai/constants/lipgloss"
	"planai/executor"
	"planai/fixmanager"
	"planai/planner"
	"planai/providers"
	"planai/providers/contracts"
	"planai/search"
	searchcontracts "planai/search/contracts"
	"planai/tokens"
	tokenscontracts "planai/tokens/contracts"
)

// RootDependencies holds the wired services every subcommand draws from.
type RootDependencies struct {
	Config       *config.Config
	Cwd          string
	Provider     contracts.ActionProvider
	TokenTracker tokenscontracts.ITokenTracker
	Journal      *actionlog.Journal
	Planner      *planner.Planner
	Executor     *executor.Executor
	FixManager   *fixmanager.FixManager
	Search       *search.Service
}

var rootCmd = &cobra.Command{
	Use:   "planai",
	Short: "AI planning assistant that turns natural language into reversible filesystem changes",
	Long: `planai converts natural-language requests into structured action plans,
validates them against the live filesystem, and applies them with a journal
that makes every change reversible. It also provides dependency-aware
refactoring for Python projects and semantic code search.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// handleRootCommand loads configuration and builds the service graph.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		os.Exit(1)
	}

	cfg := config.LoadConfigWithCache(cmd.Root(), cwd)

	tracker := tokens.NewTokenTracker()
	provider := providers.NewActionProvider(cfg.AIProviderConfig, tracker)

	journal, err := actionlog.New(cfg.LogDir)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error opening action journal: %v", err)))
		os.Exit(1)
	}

	plnr := planner.New(provider, cfg.PlansDir)
	exec := executor.New(journal)

	fixMgr, err := fixmanager.New(cwd, plnr, journal)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error initializing fix manager: %v", err)))
		os.Exit(1)
	}

	searchSvc, err := buildSearchService(cfg, tracker)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error initializing search index: %v", err)))
		os.Exit(1)
	}

	return &RootDependencies{
		Config:       cfg,
		Cwd:          cwd,
		Provider:     provider,
		TokenTracker: tracker,
		Journal:      journal,
		Planner:      plnr,
		Executor:     exec,
		FixManager:   fixMgr,
		Search:       searchSvc,
	}
}

// buildSearchService picks the embedder the same way the provider factory
// picks the chat backend: API-backed when credentials exist, the offline
// hash embedder otherwise.
func buildSearchService(cfg *config.Config, tracker tokenscontracts.ITokenTracker) (*search.Service, error) {
	var embedder searchcontracts.Embedder
	pc := cfg.AIProviderConfig
	if (pc.Provider == "openai" || pc.Provider == "azure") && pc.ApiKey != "" {
		embedder = search.NewOpenAIEmbedder(&search.EmbedderConfig{
			Provider:   pc.Provider,
			ApiKey:     pc.ApiKey,
			BaseURL:    pc.BaseURL,
			Model:      cfg.EmbeddingModel,
			ApiVersion: pc.ApiVersion,
			Tokens:     tracker,
		})
	} else {
		embedder = search.NewHashEmbedder()
	}

	store := search.NewJSONVectorStore(filepath.Join(cfg.IndexDir, "index.json"))
	return search.NewService(search.NewCodeChunker(), embedder, store, cfg.IndexDir)
}

// Execute runs the root command.
func Execute() {
	config.InitFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}
