package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var creditsDeduct int

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show or deduct the credit balance",
	Long: `Show the credit balance.

The balance is always the server's value; --deduct asks the backend to
deduct credits and shows the returned balance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if creditsDeduct > 0 {
			if err := store.DeductCredits(cmd.Context(), creditsDeduct); err != nil {
				return err
			}
		} else {
			if err := store.RefreshCredits(cmd.Context()); err != nil {
				return err
			}
		}

		fmt.Printf("Credits: %s\n", countStyle.Render(fmt.Sprintf("%d", store.Credits())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(creditsCmd)
	creditsCmd.Flags().IntVar(&creditsDeduct, "deduct", 0, "Deduct this many credits before showing the balance")
}
