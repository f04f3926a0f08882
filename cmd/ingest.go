package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestChatID int64

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.pdf>",
	Short: "Upload a PDF document into a chat workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		store, _, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := store.IngestPDF(cmd.Context(), ingestChatID, filepath.Base(path), f); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✅ Document uploaded"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().Int64Var(&ingestChatID, "chat", 0, "Target chat id")
	_ = ingestCmd.MarkFlagRequired("chat")
}
