package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/lingoboard/lingoboard/internal"
	"github.com/lingoboard/lingoboard/internal/export"
	"github.com/spf13/cobra"
)

var (
	leaderboardFormat string
	leaderboardOutput string
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the public evaluation leaderboard",
	Long: `Show the public evaluation leaderboard, grouped by dataset.

The leaderboard is public and needs no session. Use --format to export a
grouped report as json, yaml, or markdown instead of the table view.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, gw, cleanup, err := openClient()
		if err != nil {
			return err
		}
		defer cleanup()

		report, err := internal.BuildLeaderboardReport(cmd.Context(), gw)
		if err != nil {
			if internal.IsNetworkFailure(err) {
				return fmt.Errorf("backend is unreachable, try again later")
			}
			return err
		}

		if leaderboardFormat == "table" {
			displayLeaderboard(report)
			return nil
		}

		exporter, err := export.NewExporter(leaderboardFormat)
		if err != nil {
			return err
		}

		var out io.Writer = os.Stdout
		if leaderboardOutput != "" {
			f, err := os.Create(leaderboardOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", leaderboardOutput, err)
			}
			defer f.Close()
			out = f
		}
		return exporter.Export(report, out)
	},
}

func displayLeaderboard(report *internal.LeaderboardReport) {
	if len(report.Datasets) == 0 {
		fmt.Println(headerStyle.Render("🏆 No submissions yet"))
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("🏆 Leaderboard — %d dataset(s)", len(report.Datasets))))

	for _, dataset := range report.Datasets {
		fmt.Println()
		fmt.Println(titleStyle.Render(dataset.Name))

		w := tabwriter.NewWriter(lipgloss.DefaultRenderer().Output(), 0, 0, 3, ' ', tabwriter.AlignRight)
		_, _ = fmt.Fprintln(w, titleStyle.Render("Rank")+"\t"+titleStyle.Render("Model")+"\t"+titleStyle.Render("Score")+"\t"+titleStyle.Render("Submitted")+"\t")
		_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))

		for _, model := range dataset.Models {
			name := model.Model
			if len(name) > 40 {
				name = name[:37] + "..."
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				idStyle.Render(strconv.Itoa(model.Rank)),
				name,
				countStyle.Render(fmt.Sprintf("%.3f", model.Score)),
				dateStyle.Render(model.Submitted))
		}

		_ = w.Flush()
	}

	fmt.Println()
	fmt.Println(idStyle.Render("📚 Datasets: ") + dateStyle.Render(report.Datasets[0].URL))
}

func init() {
	rootCmd.AddCommand(leaderboardCmd)
	leaderboardCmd.Flags().StringVar(&leaderboardFormat, "format", "table", "Output format (table, json, yaml, md)")
	leaderboardCmd.Flags().StringVarP(&leaderboardOutput, "output", "o", "", "Write the report to a file instead of stdout")
}
