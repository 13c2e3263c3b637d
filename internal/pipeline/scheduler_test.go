package pipeline

import (
	"testing"
	"time"

	"github.com/TrentConley/face-authentication/internal/matcher"
)

func TestShouldRecognize(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := RecognitionScheduler{Interval: 5 * time.Second}

	tests := []struct {
		name            string
		lastRecognition time.Time
		now             time.Time
		expected        bool
	}{
		{
			name:     "never recognized",
			now:      base,
			expected: true,
		},
		{
			name:            "3s after last recognition reuses cached result",
			lastRecognition: base,
			now:             base.Add(3 * time.Second),
			expected:        false,
		},
		{
			name:            "6s after last recognition triggers a fresh cycle",
			lastRecognition: base,
			now:             base.Add(6 * time.Second),
			expected:        true,
		},
		{
			name:            "exactly at the interval",
			lastRecognition: base,
			now:             base.Add(5 * time.Second),
			expected:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &TrackState{LastRecognition: tt.lastRecognition}
			if got := s.ShouldRecognize(track, tt.now); got != tt.expected {
				t.Errorf("ShouldRecognize = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRecordOverwritesUnconditionally(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := RecognitionScheduler{Interval: 5 * time.Second}
	track := &TrackState{}

	s.Record(track, matcher.Result{Identity: "alice", OK: true, Distance: 0.2}, base)
	s.Record(track, matcher.Result{Distance: 0.9}, base.Add(5*time.Second))

	if track.LastMatch.OK || track.LastMatch.Identity != "" {
		t.Errorf("LastMatch = %+v, want most recent (no match)", track.LastMatch)
	}
	if !track.LastRecognition.Equal(base.Add(5 * time.Second)) {
		t.Errorf("LastRecognition = %v, want %v", track.LastRecognition, base.Add(5*time.Second))
	}
}
