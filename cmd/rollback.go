package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"planai/constants/lipgloss"
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Undo the most recent journaled actions",
	Long: `The 'rollback' subcommand reads the newest entries from the action journal
and inverts them: created files are deleted, modified files get their
previous content back, deleted files are restored. Rolled-back entries are
consumed so the same change is never undone twice.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		steps, _ := cmd.Flags().GetInt("steps")
		handleRollbackCommand(rootDependencies, steps)
	},
}

func init() {
	rollbackCmd.Flags().IntP("steps", "s", 1, "Number of journal entries to roll back")
	rootCmd.AddCommand(rollbackCmd)
}

func handleRollbackCommand(rootDependencies *RootDependencies, steps int) {
	result, err := rootDependencies.Executor.Rollback(steps)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}

	for _, action := range result.RolledBack {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ [%s] %s", action.Type, action.Description)))
	}
	for _, msg := range result.Errors {
		fmt.Println(lipgloss.Red.Render("✗ " + msg))
	}

	if result.Success {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("Rolled back %d action(s).", len(result.RolledBack))))
	} else {
		fmt.Println(lipgloss.Yellow.Render("Nothing was rolled back."))
	}
}
