package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TrentConley/face-authentication/internal/matcher"
)

// trackPhase is the per-track authentication state.
type trackPhase int

const (
	phaseObserving trackPhase = iota
	phaseAuthenticatedPending
	phaseAuthenticatedReported
)

// TrackState holds the per-track recognition and authentication state.
// It is owned exclusively by the SessionTracker; no other component
// mutates it.
type TrackState struct {
	Key             string
	BBox            []float64 // last observed bounding box [x1, y1, x2, y2]
	FirstSeen       time.Time
	LastSeen        time.Time
	LastMatch       matcher.Result
	LastRecognition time.Time // zero until the first recognition cycle

	phase            trackPhase
	reportedIdentity string
}

// AuthEvent is the sole user-visible signal of a successful authentication.
// It is emitted exactly once per track per unbroken observation streak for
// a given identity.
type AuthEvent struct {
	ID       string    `json:"id"`
	Identity string    `json:"identity"`
	TrackKey string    `json:"track_key"`
	Distance float64   `json:"distance"`
	At       time.Time `json:"at"`
}

// SessionTracker associates detections with tracks across consecutive
// frames and deduplicates authentication events per track.
//
// Association is greedy IoU matching on bounding boxes: each detection
// claims the unclaimed track it overlaps most, and falls back to a fresh
// track key when the best overlap is below the floor. Tracks unobserved
// for longer than the grace period expire; expiry is final, and a face
// that reappears later gets a brand-new key and a brand-new window.
type SessionTracker struct {
	iouFloor float64
	grace    time.Duration

	mu     sync.Mutex
	tracks map[string]*TrackState
}

// NewSessionTracker creates a tracker with the given association floor
// and track grace period.
func NewSessionTracker(iouFloor float64, grace time.Duration) *SessionTracker {
	return &SessionTracker{
		iouFloor: iouFloor,
		grace:    grace,
		tracks:   make(map[string]*TrackState),
	}
}

// Observe resolves a track for each detected bounding box, in input order,
// and expires tracks that have been unobserved past the grace period.
func (st *SessionTracker) Observe(now time.Time, boxes [][]float64) []*TrackState {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.expireLocked(now)

	claimed := make(map[string]bool, len(boxes))
	out := make([]*TrackState, len(boxes))

	for i, bbox := range boxes {
		track := st.bestMatchLocked(bbox, claimed)
		if track == nil {
			track = &TrackState{
				Key:       uuid.NewString(),
				FirstSeen: now,
			}
			st.tracks[track.Key] = track
		}
		claimed[track.Key] = true
		track.BBox = bbox
		track.LastSeen = now
		out[i] = track
	}

	return out
}

// bestMatchLocked finds the unclaimed track with the highest IoU at or
// above the floor, or nil.
func (st *SessionTracker) bestMatchLocked(bbox []float64, claimed map[string]bool) *TrackState {
	var best *TrackState
	bestIoU := -1.0
	for _, track := range st.tracks {
		if claimed[track.Key] {
			continue
		}
		iou := ComputeIoU(bbox, track.BBox)
		if iou >= st.iouFloor && iou > bestIoU {
			best = track
			bestIoU = iou
		}
	}
	return best
}

// expireLocked discards tracks unobserved for longer than the grace period.
func (st *SessionTracker) expireLocked(now time.Time) {
	for key, track := range st.tracks {
		if now.Sub(track.LastSeen) > st.grace {
			delete(st.tracks, key)
		}
	}
}

// Apply feeds a (possibly reused) match result into the track's state
// machine and returns the authentication event to emit, or nil.
//
// A matched identity fires one event and marks the window authenticated;
// repeats of the same identity stay silent until a non-match (or a
// different identity) resets the window.
func (st *SessionTracker) Apply(track *TrackState, result matcher.Result, now time.Time) *AuthEvent {
	st.mu.Lock()
	defer st.mu.Unlock()

	if !result.OK {
		track.phase = phaseObserving
		track.reportedIdentity = ""
		return nil
	}

	if track.phase == phaseAuthenticatedReported && track.reportedIdentity == result.Identity {
		return nil
	}

	// A different identity implicitly closes the previous window.
	track.phase = phaseAuthenticatedPending
	event := &AuthEvent{
		ID:       uuid.NewString(),
		Identity: result.Identity,
		TrackKey: track.Key,
		Distance: result.Distance,
		At:       now,
	}
	track.phase = phaseAuthenticatedReported
	track.reportedIdentity = result.Identity
	return event
}

// Len returns the number of live tracks.
func (st *SessionTracker) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.tracks)
}
