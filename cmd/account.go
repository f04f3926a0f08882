package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	signupEmail    string
	signupPassword string
	signupName     string

	forgotEmail string

	resetToken    string
	resetPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		payload := map[string]string{
			"email":      signupEmail,
			"password":   signupPassword,
			"personName": signupName,
		}
		if _, err := store.SignUp(cmd.Context(), payload); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✅ Account created"))
		return nil
	},
}

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Account recovery operations",
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset email",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		payload := map[string]string{"email": forgotEmail}
		if _, err := store.ForgotPassword(cmd.Context(), payload); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✅ Reset email requested"))
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Complete a password reset",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		payload := map[string]string{
			"token":    resetToken,
			"password": resetPassword,
		}
		if _, err := store.ResetPassword(cmd.Context(), payload); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✅ Password updated"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
	signupCmd.Flags().StringVar(&signupEmail, "email", "", "Account email")
	signupCmd.Flags().StringVar(&signupPassword, "password", "", "Account password")
	signupCmd.Flags().StringVar(&signupName, "name", "", "Display name")
	_ = signupCmd.MarkFlagRequired("email")
	_ = signupCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(forgotPasswordCmd)
	forgotPasswordCmd.Flags().StringVar(&forgotEmail, "email", "", "Account email")
	_ = forgotPasswordCmd.MarkFlagRequired("email")

	accountCmd.AddCommand(resetPasswordCmd)
	resetPasswordCmd.Flags().StringVar(&resetToken, "token", "", "Reset token from the email")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "New password")
	_ = resetPasswordCmd.MarkFlagRequired("token")
	_ = resetPasswordCmd.MarkFlagRequired("password")
}
