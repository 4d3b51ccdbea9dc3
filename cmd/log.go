package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"planai/constants/lipgloss"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent action journal entries",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		limit, _ := cmd.Flags().GetInt("limit")
		handleLogCommand(rootDependencies, limit)
	},
}

func init() {
	logCmd.Flags().IntP("limit", "n", 10, "Maximum number of entries to show, newest first")
	rootCmd.AddCommand(logCmd)
}

func handleLogCommand(rootDependencies *RootDependencies, limit int) {
	entries, err := rootDependencies.Journal.Recent(limit)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println(lipgloss.Yellow.Render("The action journal is empty."))
		return
	}

	rows := pterm.TableData{{"ID", "Action", "Path", "Description"}}
	for _, entry := range entries {
		rows = append(rows, []string{entry.ID, entry.Action, entry.Details.Path, entry.Description})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
