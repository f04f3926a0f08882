package cmd

import (
	"fmt"

	"github.com/lingoboard/lingoboard/internal"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.LoadCurrentUser(cmd.Context()); err != nil {
			if internal.IsNetworkFailure(err) {
				// Offline: fall back to whatever the snapshot restored.
				fmt.Println(warningStyle.Render("⚠ Backend unreachable, showing cached account"))
			} else {
				return err
			}
		}

		user, ok := store.CurrentUser()
		if !ok {
			fmt.Println(infoStyle.Render("Not logged in"))
			return nil
		}

		fmt.Println(titleStyle.Render(user.Name))
		if user.Email != "" {
			fmt.Printf("  Email:   %s\n", user.Email)
		}
		fmt.Printf("  ID:      %d\n", user.ID)
		fmt.Printf("  Credits: %d\n", store.Credits())
		if user.PrivilegeLevel > 0 {
			fmt.Printf("  Privilege level: %d\n", user.PrivilegeLevel)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
