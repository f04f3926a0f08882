package cmd

import (
	"fmt"
	"os"

	"github.com/lingoboard/lingoboard/internal"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	host      string
	statePath string
	version   string = "dev"
	commit    string = "unknown"
	date      string = "unknown"
)

// defaultHost is used when neither --host nor LINGOBOARD_HOST is set.
const defaultHost = "https://api.lingoboard.ai"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lingoboard",
	Short: "Command-line client for the lingoboard evaluation platform",
	Long: `A command-line client for the lingoboard model-evaluation platform.

lingoboard talks to the platform backend and keeps a local state database
with your session credentials and cached account data.

Features:
  • Log in and manage your account
  • List, create, rename, and delete chat workspaces
  • Manage API keys and your credit balance
  • Browse the public translation leaderboard
  • Upload PDF documents into a chat

Quick Start:
  lingoboard login --email you@example.com     # Start a session
  lingoboard chats list                        # List chat workspaces
  lingoboard leaderboard                       # Show the public leaderboard

For detailed usage, see: https://github.com/lingoboard/lingoboard`,
	Version: versionString(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// backendHost resolves the backend base URL from the flag, the environment,
// or the default, in that order.
func backendHost() string {
	if host != "" {
		return host
	}
	if env := os.Getenv("LINGOBOARD_HOST"); env != "" {
		return env
	}
	return defaultHost
}

// openClient builds the state database, gateway, and store. The returned
// cleanup closes the database.
func openClient() (*internal.Store, *internal.Gateway, func(), error) {
	path := statePath
	if path == "" {
		var err error
		path, err = internal.DefaultStatePath()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to locate state database: %w", err)
		}
	}

	db, err := internal.OpenStateDB(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}

	creds := internal.NewCredentialStore(db)
	gw := internal.NewGateway(backendHost(), creds).
		WithSessionTerminatedHook(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run `lingoboard login` to sign in again.")
		})
	store := internal.NewStore(gw, creds, db).
		WithNavigateHook(func(url string) {
			fmt.Printf("Open this URL in your browser to continue:\n  %s\n", url)
		})

	if err := store.RestoreState(); err != nil {
		internal.LogWarn("Failed to restore persisted state: %v", err)
	}

	cleanup := func() {
		if err := store.SaveState(); err != nil {
			internal.LogWarn("Failed to persist state: %v", err)
		}
		_ = db.Close()
	}
	return store, gw, cleanup, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&host, "host", "", "Backend host (default $LINGOBOARD_HOST or "+defaultHost+")")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "Custom state database location")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
