package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/lingoboard/lingoboard/internal"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check local state and backend reachability",
	Long: `Check the health of the client by verifying:
  • State database accessibility
  • Stored credentials
  • Backend reachability (via the public leaderboard endpoint)

This command is useful for debugging connectivity and session issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("🔍 lingoboard Health Check"))
		fmt.Println()

		// Step 1: open the state database
		fmt.Println(infoStyle.Render("Step 1: Opening state database..."))
		store, gw, cleanup, err := openClient()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ Failed to open state database:"), err)
			os.Exit(1)
		}
		defer cleanup()
		fmt.Println(successStyle.Render("✅ State database OK"))
		fmt.Println()

		// Step 2: stored credentials
		fmt.Println(infoStyle.Render("Step 2: Checking stored credentials..."))
		if user, ok := store.CurrentUser(); ok {
			fmt.Println(successStyle.Render(fmt.Sprintf("✅ Cached session for %s", user.Name)))
		} else {
			fmt.Println(warningStyle.Render("⚠ No cached session (run `lingoboard login`)"))
		}
		fmt.Println()

		// Step 3: backend reachability via the public endpoint
		fmt.Println(infoStyle.Render("Step 3: Checking backend reachability..."))
		if _, err := internal.FetchLeaderboard(cmd.Context(), gw); err != nil {
			if internal.IsNetworkFailure(err) {
				fmt.Println(errorStyle.Render("❌ Backend unreachable:"), gw.BaseURL())
				os.Exit(1)
			}
			fmt.Println(warningStyle.Render("⚠ Backend reachable but returned an error:"), err)
		} else {
			fmt.Println(successStyle.Render("✅ Backend reachable: " + gw.BaseURL()))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
