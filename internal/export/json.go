package export

import (
	"encoding/json"
	"io"

	"github.com/lingoboard/lingoboard/internal"
)

// JSONExporter exports leaderboard reports in JSON format (pretty-printed)
type JSONExporter struct{}

// Export writes a report to JSON format
func (e *JSONExporter) Export(report *internal.LeaderboardReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(report)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
