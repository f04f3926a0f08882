package internal

import (
	"context"
	"net/http"
	"testing"

	"github.com/lingoboard/lingoboard/testutil"
)

func TestDatasetDisplayName(t *testing.T) {
	tests := []struct {
		name    string
		dataset string
		want    string
	}{
		{"french bleu", "flores_french_translation", "French – BLEU"},
		{"french bertscore", "flores_french_translation_bertscore", "French – BERTScore"},
		{"spanish bleu", "flores_spanish_translation", "Spanish – BLEU"},
		{"already capitalized survives", "flores_German_translation", "German – BLEU"},
		{"no flores prefix", "custom_translation", "Custom – BLEU"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DatasetDisplayName(tt.dataset); got != tt.want {
				t.Errorf("DatasetDisplayName(%q) = %q, want %q", tt.dataset, got, tt.want)
			}
		})
	}
}

func TestGroupLeaderboardSingleEntry(t *testing.T) {
	groups := GroupLeaderboard([]LeaderboardEntry{
		{Rank: 1, ModelName: "m1", Score: 0.742, DatasetName: "flores_french_translation"},
	})

	if len(groups) != 1 {
		t.Fatalf("GroupLeaderboard() produced %d groups, want 1", len(groups))
	}
	group := groups[0]
	if group.Name != "French – BLEU" {
		t.Errorf("group.Name = %q, want %q", group.Name, "French – BLEU")
	}
	if group.URL != floresDatasetURL {
		t.Errorf("group.URL = %q, want dataset home", group.URL)
	}
	if len(group.Models) != 1 || group.Models[0].Model != "m1" || group.Models[0].Score != 0.742 {
		t.Errorf("group.Models = %+v, want single m1/0.742 entry", group.Models)
	}
}

func TestGroupLeaderboardOrderAndRanking(t *testing.T) {
	entries := []LeaderboardEntry{
		{Rank: 2, ModelName: "b", Score: 0.5, DatasetName: "flores_french_translation"},
		{Rank: 1, ModelName: "c", Score: 0.9, DatasetName: "flores_spanish_translation"},
		{Rank: 1, ModelName: "a", Score: 0.7, DatasetName: "flores_french_translation"},
	}

	groups := GroupLeaderboard(entries)
	if len(groups) != 2 {
		t.Fatalf("GroupLeaderboard() produced %d groups, want 2", len(groups))
	}

	// Dataset order follows first appearance, not alphabetical order.
	if groups[0].Key != "flores_french_translation" || groups[1].Key != "flores_spanish_translation" {
		t.Errorf("group order = [%s, %s], want first-seen order", groups[0].Key, groups[1].Key)
	}

	// Models within a dataset sort by rank.
	french := groups[0].Models
	if len(french) != 2 || french[0].Model != "a" || french[1].Model != "b" {
		t.Errorf("french models = %+v, want rank order a, b", french)
	}
}

func TestGroupLeaderboardEmpty(t *testing.T) {
	if groups := GroupLeaderboard(nil); len(groups) != 0 {
		t.Errorf("GroupLeaderboard(nil) = %+v, want empty", groups)
	}
}

func TestFormatSubmitted(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2026-03-15T10:30:00Z", "Mar 15, 2026"},
		{"2026-03-15 10:30:00", "Mar 15, 2026"},
		{"2026-03-15", "Mar 15, 2026"},
		{"yesterday", "yesterday"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := formatSubmitted(tt.raw); got != tt.want {
			t.Errorf("formatSubmitted(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestFetchLeaderboard(t *testing.T) {
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/public/get_leaderboard": testutil.JSONHandler(http.StatusOK, leaderboardResponse{
			Success: true,
			Leaderboard: []LeaderboardEntry{
				{Rank: 1, ModelName: "m1", Score: 0.742, DatasetName: "flores_french_translation"},
			},
		}),
	})

	_, creds := newTestState(t, nil)
	gw := NewGateway(server.URL, creds)

	entries, err := FetchLeaderboard(context.Background(), gw)
	if err != nil {
		t.Fatalf("FetchLeaderboard() error = %v", err)
	}
	if len(entries) != 1 || entries[0].ModelName != "m1" {
		t.Errorf("FetchLeaderboard() = %+v, want single m1 entry", entries)
	}
}

func TestFetchLeaderboardUnsuccessful(t *testing.T) {
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/public/get_leaderboard": testutil.JSONHandler(http.StatusOK, leaderboardResponse{Success: false}),
	})

	_, creds := newTestState(t, nil)
	gw := NewGateway(server.URL, creds)

	if _, err := FetchLeaderboard(context.Background(), gw); err == nil {
		t.Fatal("FetchLeaderboard() expected error when success flag is false")
	}
}

func TestBuildLeaderboardReport(t *testing.T) {
	server := testutil.NewBackend(t, map[string]http.HandlerFunc{
		"/public/get_leaderboard": testutil.JSONHandler(http.StatusOK, leaderboardResponse{
			Success: true,
			Leaderboard: []LeaderboardEntry{
				{Rank: 1, ModelName: "m1", Score: 0.742, DatasetName: "flores_french_translation", SubmittedAt: "2026-03-15"},
			},
		}),
	})

	_, creds := newTestState(t, nil)
	gw := NewGateway(server.URL, creds)

	report, err := BuildLeaderboardReport(context.Background(), gw)
	if err != nil {
		t.Fatalf("BuildLeaderboardReport() error = %v", err)
	}
	if report.FetchedAt == "" {
		t.Error("report.FetchedAt empty")
	}
	if len(report.Datasets) != 1 || report.Datasets[0].Models[0].Submitted != "Mar 15, 2026" {
		t.Errorf("report.Datasets = %+v, want formatted submission date", report.Datasets)
	}
}
