package export

import (
	"fmt"
	"io"

	"github.com/lingoboard/lingoboard/internal"
)

// MarkdownExporter exports leaderboard reports in Markdown format
type MarkdownExporter struct{}

// Export writes a report to Markdown format
func (e *MarkdownExporter) Export(report *internal.LeaderboardReport, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Leaderboard\n\n")
	if report.FetchedAt != "" {
		_, _ = fmt.Fprintf(w, "**Fetched:** %s\n\n", report.FetchedAt)
	}

	for i, dataset := range report.Datasets {
		_, _ = fmt.Fprintf(w, "## %s\n\n", dataset.Name)
		if dataset.URL != "" {
			_, _ = fmt.Fprintf(w, "Dataset: <%s>\n\n", dataset.URL)
		}

		_, _ = fmt.Fprintf(w, "| Rank | Model | Score | Submitted |\n")
		_, _ = fmt.Fprintf(w, "|------|-------|-------|-----------|\n")
		for _, model := range dataset.Models {
			_, _ = fmt.Fprintf(w, "| %d | %s | %.3f | %s |\n",
				model.Rank, model.Model, model.Score, model.Submitted)
		}

		if i < len(report.Datasets)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
