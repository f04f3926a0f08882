package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.LoadAPIKeys(cmd.Context()); err != nil {
			return err
		}

		keys := store.APIKeys()
		if len(keys) == 0 {
			fmt.Println(headerStyle.Render("🔑 No API keys"))
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("🔑 Found %d key(s)", len(keys))))
		fmt.Println()

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Key")+"\t"+titleStyle.Render("Created")+"\t")
		_, _ = fmt.Fprintln(w, strings.Repeat("─", 90))

		for _, key := range keys {
			created := key.CreatedAt
			if created == "" {
				created = "—"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				idStyle.Render(strconv.FormatInt(key.ID, 10)),
				key.Name,
				maskKey(key.Key),
				dateStyle.Render(created))
		}

		_ = w.Flush()
		return nil
	},
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Generate a new API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		key, err := store.CreateAPIKey(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render("✅ Key created"))
		fmt.Printf("  ID:  %d\n", key.ID)
		fmt.Printf("  Key: %s\n", key.Key)
		fmt.Println(idStyle.Render("Store the key now; it is only shown in full once."))
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid key id %q", args[0])
		}

		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.DeleteAPIKey(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✅ Key deleted"))
		return nil
	},
}

// maskKey hides all but the tail of the key material.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysDeleteCmd)
}
