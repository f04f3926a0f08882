package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// floresDatasetURL is the home of the evaluation datasets shown with every
// grouped leaderboard.
const floresDatasetURL = "https://huggingface.co/datasets/openlanguagedata/flores_plus"

// LeaderboardModel is one ranked submission within a dataset group.
type LeaderboardModel struct {
	Rank      int     `json:"rank" yaml:"rank"`
	Model     string  `json:"model" yaml:"model"`
	Score     float64 `json:"score" yaml:"score"`
	Submitted string  `json:"submitted" yaml:"submitted"`
}

// DatasetGroup is the grouped view of all submissions against one dataset.
type DatasetGroup struct {
	Key    string             `json:"key" yaml:"key"` // raw dataset_name
	Name   string             `json:"name" yaml:"name"`
	URL    string             `json:"url" yaml:"url"`
	Models []LeaderboardModel `json:"models" yaml:"models"`
}

// LeaderboardReport is the exportable grouped leaderboard.
type LeaderboardReport struct {
	FetchedAt string         `json:"fetched_at" yaml:"fetched_at"`
	Datasets  []DatasetGroup `json:"datasets" yaml:"datasets"`
}

// FetchLeaderboard retrieves the public leaderboard. The endpoint is
// unauthenticated, so it bypasses the refresh-and-retry path.
func FetchLeaderboard(ctx context.Context, gw *Gateway) ([]LeaderboardEntry, error) {
	var resp leaderboardResponse
	if err := gw.PublicJSON(ctx, "public/get_leaderboard", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("leaderboard fetch unsuccessful")
	}
	return resp.Leaderboard, nil
}

// DatasetDisplayName derives the human name of a dataset from its raw name.
// "flores_french_translation" becomes "French – BLEU" and
// "flores_french_translation_bertscore" becomes "French – BERTScore".
func DatasetDisplayName(datasetName string) string {
	var language, metric string
	if strings.Contains(datasetName, "_bertscore") {
		language = strings.TrimSuffix(strings.TrimPrefix(datasetName, "flores_"), "_translation_bertscore")
		metric = "BERTScore"
	} else {
		language = strings.TrimSuffix(strings.TrimPrefix(datasetName, "flores_"), "_translation")
		metric = "BLEU"
	}
	if language == "" {
		return metric
	}
	return strings.ToUpper(language[:1]) + language[1:] + " – " + metric
}

// GroupLeaderboard groups submissions by dataset, preserving first-seen
// dataset order and sorting each dataset's models by rank.
func GroupLeaderboard(entries []LeaderboardEntry) []DatasetGroup {
	var groups []DatasetGroup
	index := make(map[string]int)

	for _, entry := range entries {
		i, ok := index[entry.DatasetName]
		if !ok {
			i = len(groups)
			index[entry.DatasetName] = i
			groups = append(groups, DatasetGroup{
				Key:  entry.DatasetName,
				Name: DatasetDisplayName(entry.DatasetName),
				URL:  floresDatasetURL,
			})
		}
		groups[i].Models = append(groups[i].Models, LeaderboardModel{
			Rank:      entry.Rank,
			Model:     entry.ModelName,
			Score:     entry.Score,
			Submitted: formatSubmitted(entry.SubmittedAt),
		})
	}

	for i := range groups {
		models := groups[i].Models
		sort.SliceStable(models, func(a, b int) bool {
			return models[a].Rank < models[b].Rank
		})
	}
	return groups
}

// BuildLeaderboardReport fetches, groups, and timestamps the leaderboard.
func BuildLeaderboardReport(ctx context.Context, gw *Gateway) (*LeaderboardReport, error) {
	entries, err := FetchLeaderboard(ctx, gw)
	if err != nil {
		return nil, err
	}
	return &LeaderboardReport{
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
		Datasets:  GroupLeaderboard(entries),
	}, nil
}

// formatSubmitted renders the submission timestamp as a short date. Values
// that fail to parse are shown as-is.
func formatSubmitted(raw string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 02, 2006")
		}
	}
	return raw
}
