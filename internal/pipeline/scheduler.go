package pipeline

import (
	"time"

	"github.com/TrentConley/face-authentication/internal/matcher"
)

// RecognitionScheduler throttles the expensive recognition path: per track,
// the gallery lookup runs at most once per Interval, and the last result is
// reused in between so the frame loop stays smooth.
type RecognitionScheduler struct {
	Interval time.Duration
}

// ShouldRecognize reports whether a recognition cycle is due for the track.
// It is true for a track that has never been recognized, or once Interval
// has elapsed since the last recognition.
func (s RecognitionScheduler) ShouldRecognize(track *TrackState, now time.Time) bool {
	return track.LastRecognition.IsZero() || now.Sub(track.LastRecognition) >= s.Interval
}

// Record stores a fresh recognition result on the track. It overwrites
// unconditionally: the track always reflects the most recent recognition
// attempt. Callers must supply non-decreasing timestamps per track.
func (s RecognitionScheduler) Record(track *TrackState, result matcher.Result, now time.Time) {
	track.LastMatch = result
	track.LastRecognition = now
}
