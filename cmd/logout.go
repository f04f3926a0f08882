package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the local session",
	Long: `End the local session.

Clears the stored credentials, the cached account data, and the credit
balance. Logout is local-only and succeeds whether or not the backend is
reachable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		store.Logout()
		fmt.Println(successStyle.Render("✅ Logged out"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
