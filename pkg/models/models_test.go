package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		daysBack int
		wantErr  bool
	}{
		{
			name:     "valid lookback",
			daysBack: 7,
			wantErr:  false,
		},
		{
			name:     "single day",
			daysBack: 1,
			wantErr:  false,
		},
		{
			name:     "zero days rejected",
			daysBack: 0,
			wantErr:  true,
		},
		{
			name:     "negative days rejected",
			daysBack: -3,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := NewTimeWindow(now, tt.daysBack)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, now, window.End)
			assert.Equal(t, now.AddDate(0, 0, -tt.daysBack), window.Start)
			assert.True(t, window.Start.Before(window.End))
		})
	}
}

func TestTimeWindowContains(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	window, err := NewTimeWindow(now, 7)
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"inside the window", now.AddDate(0, 0, -3), true},
		{"exactly at start", window.Start, true},
		{"exactly at end", window.End, true},
		{"before the window", window.Start.Add(-time.Second), false},
		{"after the window", window.End.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, window.Contains(tt.at))
		})
	}
}

func TestRepositorySummaryIsEmpty(t *testing.T) {
	tests := []struct {
		name    string
		summary RepositorySummary
		want    bool
	}{
		{
			name: "no changes at all",
			summary: RepositorySummary{
				Repository: "org/repo",
				Narrative:  NoChangesNarrative,
			},
			want: true,
		},
		{
			name: "no features but dependency updates",
			summary: RepositorySummary{
				Repository:      "org/repo",
				Narrative:       NoChangesNarrative,
				DependencyCount: 2,
			},
			want: false,
		},
		{
			name: "narrative with bullets",
			summary: RepositorySummary{
				Repository: "org/repo",
				Narrative:  "Two improvements shipped.",
				Bullets:    []string{"Improved the API"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.IsEmpty())
		})
	}
}
