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
	"planai/fixmanager"
	"planai/utils"
)

var fixCmd = &cobra.Command{
	Use:   "fix <description>",
	Short: "Plan and apply a dependency-aware refactoring",
	Long: `The 'fix' subcommand analyzes the dependency graph around the target
files, sends that context to the AI provider together with the requested
change, and validates the returned plan against the project's structure
(cycles, public API, blast radius) before anything is applied.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		files, _ := cmd.Flags().GetStringSlice("file")
		apply, _ := cmd.Flags().GetBool("apply")
		yes, _ := cmd.Flags().GetBool("yes")
		handleFixCommand(rootDependencies, strings.Join(args, " "), files, apply, yes)
	},
}

func init() {
	fixCmd.Flags().StringSliceP("file", "f", nil, "Target file (repeatable)")
	fixCmd.Flags().Bool("apply", false, "Apply the fix plan after validation")
	fixCmd.Flags().BoolP("yes", "y", false, "Apply without per-change confirmation")
	_ = fixCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(fixCmd)
}

func handleFixCommand(rootDependencies *RootDependencies, description string, files []string, apply, yes bool) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithRemoveWhenDone(true)
	analyzing, _ := spinner.Start("Analyzing project context...")

	result, err := rootDependencies.FixManager.FixWithContext(ctx, description, files)
	analyzing.Stop()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Fix plan for: %s", result.Plan.Description)))
	printActions(result.Plan.Changes)
	printFixValidation(result)

	if !apply {
		fmt.Println(lipgloss.Yellow.Render("Review the plan, then re-run with --apply to execute it."))
		return
	}

	var confirm func(string) bool
	if !yes {
		reader := bufio.NewReader(os.Stdin)
		confirm = func(prompt string) bool {
			ok, err := utils.ConfirmPrompt(reader, prompt)
			return err == nil && ok
		}
	}

	applyResult := rootDependencies.FixManager.ApplyFixPlan(result, confirm)
	for _, change := range applyResult.AppliedChanges {
		switch change.Status {
		case "success":
			fmt.Println(lipgloss.Green.Render("✔ " + change.Description))
		case "skipped":
			fmt.Println(lipgloss.Gray.Render("- " + change.Description))
		default:
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✗ %s: %s", change.Description, change.Err)))
		}
	}
	for _, fix := range applyResult.ImportFixes {
		if fix.Err != "" {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✗ %s: %s", fix.File, fix.Err)))
			continue
		}
		fmt.Println(lipgloss.Info.Render(fmt.Sprintf("import fixed in %s:%d", fix.File, fix.LineNumber)))
	}
	if applyResult.SyntaxCheck != nil {
		for _, issue := range applyResult.SyntaxCheck.InvalidFiles {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("syntax error in %s: %s", issue.File, issue.Err)))
		}
	}

	if applyResult.Success {
		fmt.Println(lipgloss.Green.Render("Fix plan applied."))
	} else {
		fmt.Println(lipgloss.Red.Render("Fix plan finished with errors."))
		os.Exit(1)
	}
}

func printFixValidation(result *fixmanager.FixResult) {
	validation := result.Validation

	risk := validation.RiskLevel
	switch risk {
	case "high":
		risk = lipgloss.Red.Render(risk)
	case "medium":
		risk = lipgloss.Yellow.Render(risk)
	default:
		risk = lipgloss.Green.Render(risk)
	}
	fmt.Printf("Risk level: %s\n", risk)

	for _, msg := range validation.Errors {
		fmt.Println(lipgloss.Red.Render("✗ " + msg))
	}
	for _, msg := range validation.Suggestions {
		fmt.Println(lipgloss.Yellow.Render("⚠ " + msg))
	}
}
