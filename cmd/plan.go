package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"planai/constants/lipgloss"
	"planai/models"
	"planai/utils"
)

var planCmd = &cobra.Command{
	Use:   "plan [query]",
	Short: "Generate an action plan from a natural-language request",
	Long: `The 'plan' subcommand sends the request to the configured AI provider and
saves the resulting action plan to disk without executing anything.
Review the plan, then run 'planai apply <plan-file>' to execute it.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		output, _ := cmd.Flags().GetString("output")
		handlePlanCommand(rootDependencies, strings.Join(args, " "), output)
	},
}

func init() {
	planCmd.Flags().StringP("output", "o", "", "Path to save the plan to (extension selects JSON or YAML)")
	rootCmd.AddCommand(planCmd)
}

func handlePlanCommand(rootDependencies *RootDependencies, query, output string) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if strings.TrimSpace(query) == "" {
		fmt.Println(lipgloss.Info.Render("Describe what you want done:"))
		input, err := utils.InputPrompt(bufio.NewReader(os.Stdin))
		if err != nil || strings.TrimSpace(input) == "" {
			fmt.Println(lipgloss.Red.Render("A request is required to create a plan."))
			os.Exit(1)
		}
		query = input
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithRemoveWhenDone(true)
	generating, _ := spinner.Start("Generating plan...")

	plan, err := rootDependencies.Planner.CreatePlan(ctx, query)
	generating.Stop()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	path, err := rootDependencies.Planner.SavePlan(plan, output)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("Plan %s saved to %s", plan.ID, path)))
	printActions(plan.Actions)

	rootDependencies.TokenTracker.DisplayTokens(
		rootDependencies.Config.AIProviderConfig.Provider,
		rootDependencies.Config.AIProviderConfig.Model,
	)
}

func printActions(actions []models.Action) {
	if len(actions) == 0 {
		fmt.Println(lipgloss.Yellow.Render("The plan contains no actions."))
		return
	}

	rows := pterm.TableData{{"#", "Type", "Path", "Description"}}
	for i, action := range actions {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			string(action.Type),
			action.Path,
			action.Description,
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
