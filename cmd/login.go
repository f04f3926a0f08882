package cmd

import (
	"fmt"
	"syscall"

	"github.com/lingoboard/lingoboard/internal"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail         string
	loginPassword      string
	loginProductHash   string
	loginFreeTrialCode string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Start a session with the backend",
	Long: `Start a session with the backend.

Credentials can be passed with --email/--password; the password is prompted
for when omitted. Product-hash logins for trial access use --product-hash
and --free-trial-code instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if loginEmail != "" && loginPassword == "" {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			loginPassword = string(raw)
		}

		resp, err := store.Login(cmd.Context(), internal.LoginRequest{
			Email:         loginEmail,
			Password:      loginPassword,
			ProductHash:   loginProductHash,
			FreeTrialCode: loginFreeTrialCode,
		})
		if err != nil {
			if internal.IsNetworkFailure(err) {
				return fmt.Errorf("backend is unreachable, try again later")
			}
			return err
		}

		if resp.AuthURL == "" {
			fmt.Println(successStyle.Render("✅ Logged in"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginProductHash, "product-hash", "", "Product hash for trial access")
	loginCmd.Flags().StringVar(&loginFreeTrialCode, "free-trial-code", "", "Free trial code")
}
