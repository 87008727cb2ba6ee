package scrape

import (
	"testing"
	"time"

	"chartscraper/internal/domain"
)

func TestTaskKey(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		task Task
		want string
	}{
		{Task{Kind: TaskTrack, TrackID: "abc123"}, "track:abc123"},
		{Task{Kind: TaskRange, Start: start, End: end}, "range:2024-01-01:2024-01-31"},
		{Task{Kind: TaskCountry, Country: "us", Mode: domain.ViewWeekly}, "country:us:weekly"},
	}
	for _, tt := range tests {
		if got := tt.task.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}
}

func TestSubmitAfterStopDoesNotPanic(t *testing.T) {
	s := newTestScraper(t, &fakeBrowser{})
	s.Start()
	s.Stop()

	// Past the queue capacity, so a closed-channel send or a blocked send
	// would both surface here.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < cap(s.taskQueue)+5; i++ {
			s.Submit(Task{Kind: TaskTrack, TrackID: "late"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked after Stop")
	}
}

func TestExportFormats(t *testing.T) {
	tests := []struct {
		configured string
		want       []string
	}{
		{"csv", []string{"csv"}},
		{"csv, json ,parquet", []string{"csv", "json", "parquet"}},
		{"", []string{"csv"}},
		{" , ", []string{"csv"}},
	}
	for _, tt := range tests {
		s := newTestScraper(t, &fakeBrowser{})
		s.cfg.ExportFormats = tt.configured
		got := s.exportFormats()
		if len(got) != len(tt.want) {
			t.Errorf("exportFormats(%q) = %v, want %v", tt.configured, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("exportFormats(%q) = %v, want %v", tt.configured, got, tt.want)
				break
			}
		}
	}
}
