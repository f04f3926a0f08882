package export

import (
	"io"

	"github.com/lingoboard/lingoboard/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports leaderboard reports in YAML format
type YAMLExporter struct{}

// Export writes a report to YAML format
func (e *YAMLExporter) Export(report *internal.LeaderboardReport, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer func() { _ = enc.Close() }()

	return enc.Encode(report)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
