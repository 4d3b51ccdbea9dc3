package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"planai/constants/lipgloss"
	"planai/executor"
	"planai/models"
	"planai/planner"
	"planai/utils"
)

var applyCmd = &cobra.Command{
	Use:   "apply <plan-file>",
	Short: "Validate and execute a saved action plan",
	Long: `The 'apply' subcommand loads a plan from disk, validates it against the
current filesystem, and executes its actions in order. Every destructive
action is journaled so 'planai rollback' can undo it. Execution stops at
the first failing action.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		yes, _ := cmd.Flags().GetBool("yes")
		skipValidation, _ := cmd.Flags().GetBool("skip-validation")
		handleApplyCommand(rootDependencies, args[0], dryRun, yes, skipValidation)
	},
}

func init() {
	applyCmd.Flags().Bool("dry-run", false, "Show what would be executed without touching the filesystem")
	applyCmd.Flags().BoolP("yes", "y", false, "Execute without asking for confirmation")
	applyCmd.Flags().Bool("skip-validation", false, "Execute without validating the plan first")
	rootCmd.AddCommand(applyCmd)
}

func handleApplyCommand(rootDependencies *RootDependencies, planPath string, dryRun, yes, skipValidation bool) {
	plan, err := planner.LoadPlan(planPath)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Plan %s: %s", plan.ID, plan.Query)))
	printActions(plan.Actions)

	if dryRun {
		fmt.Println(lipgloss.Yellow.Render("Dry run, nothing was executed."))
		return
	}

	if !yes {
		confirmed, err := utils.ConfirmPrompt(bufio.NewReader(os.Stdin), fmt.Sprintf("Execute %d action(s)", len(plan.Actions)))
		if err != nil || !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Aborted."))
			return
		}
	}

	result, err := rootDependencies.Executor.ExecutePlan(plan, executor.Options{SkipValidation: skipValidation})
	if result != nil {
		printIssues(result.ValidationIssues)
		printExecution(result)
	}
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func printIssues(issues []models.Issue) {
	for _, issue := range issues {
		line := fmt.Sprintf("action %d [%s]: %s", issue.ActionIndex, issue.Type, issue.Message)
		if issue.Critical {
			fmt.Println(lipgloss.Red.Render("✗ " + line))
		} else {
			fmt.Println(lipgloss.Yellow.Render("⚠ " + line))
		}
	}
}

func printExecution(result *models.ExecutionResult) {
	for _, res := range result.ExecutedActions {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ %s", res.Message)))
	}
	for _, res := range result.FailedActions {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✗ %s %s: %s", res.Action.Type, res.Action.Path, res.Err)))
	}

	summary := fmt.Sprintf("%d executed, %d failed", len(result.ExecutedActions), len(result.FailedActions))
	if result.Success {
		fmt.Println(lipgloss.BoxStyle.Render(lipgloss.Green.Render(summary)))
	} else {
		fmt.Println(lipgloss.BoxStyle.Render(lipgloss.Red.Render(summary)))
	}
}
