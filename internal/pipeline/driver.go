// Package pipeline composes the face authentication loop: frames in,
// annotated results and deduplicated authentication events out.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TrentConley/face-authentication/internal/extractor"
	"github.com/TrentConley/face-authentication/internal/gallery"
	"github.com/TrentConley/face-authentication/internal/matcher"
)

const (
	// defaultIoUFloor is the minimum bounding-box overlap for a detection
	// to continue an existing track.
	defaultIoUFloor = 0.3
	// defaultCandidateK is how many nearest-neighbor candidates are
	// fetched from the gallery per recognition cycle.
	defaultCandidateK = 5
)

// Config carries the immutable pipeline configuration, supplied once at
// construction.
type Config struct {
	Detector            extractor.Detector
	Store               gallery.Store
	Threshold           float64
	RecognitionInterval time.Duration
	TrackGracePeriod    time.Duration
	CandidateK          int
	DetectTimeout       time.Duration
	IoUFloor            float64
}

// Annotation describes one face in a processed frame: its region, the
// identity it resolved to ("unknown" when unmatched), and the distance of
// the best gallery candidate.
type Annotation struct {
	TrackKey string    `json:"track_key"`
	BBox     []float64 `json:"bbox"`
	Identity string    `json:"identity"`
	Distance float64   `json:"distance"`
}

// FrameResult is the per-frame pipeline output. Results preserve frame
// arrival order.
type FrameResult struct {
	Seq         int64        `json:"seq"`
	At          time.Time    `json:"at"`
	Annotations []Annotation `json:"annotations"`
	Events      []AuthEvent  `json:"events,omitempty"`
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	FramesSeen      uint64 `json:"frames_seen"`
	FramesProcessed uint64 `json:"frames_processed"`
	FramesDropped   uint64 `json:"frames_dropped"`
	EventsEmitted   uint64 `json:"events_emitted"`
	ActiveTracks    int    `json:"active_tracks"`
}

// Pipeline drives detection, scheduling, matching and session tracking
// over a frame source.
type Pipeline struct {
	cfg         Config
	scheduler   RecognitionScheduler
	tracker     *SessionTracker
	broadcaster *Broadcaster

	framesSeen      atomic.Uint64
	framesProcessed atomic.Uint64
	framesDropped   atomic.Uint64
	eventsEmitted   atomic.Uint64

	emptyGalleryLogged atomic.Bool
}

// New creates a pipeline from the given configuration, applying defaults
// for unset tuning knobs.
func New(cfg Config) *Pipeline {
	if cfg.CandidateK <= 0 {
		cfg.CandidateK = defaultCandidateK
	}
	if cfg.IoUFloor <= 0 {
		cfg.IoUFloor = defaultIoUFloor
	}
	if cfg.DetectTimeout <= 0 {
		cfg.DetectTimeout = 10 * time.Second
	}
	return &Pipeline{
		cfg:         cfg,
		scheduler:   RecognitionScheduler{Interval: cfg.RecognitionInterval},
		tracker:     NewSessionTracker(cfg.IoUFloor, cfg.TrackGracePeriod),
		broadcaster: NewBroadcaster(),
	}
}

// Events returns the broadcaster carrying emitted authentication events.
func (p *Pipeline) Events() *Broadcaster {
	return p.broadcaster
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		FramesSeen:      p.framesSeen.Load(),
		FramesProcessed: p.framesProcessed.Load(),
		FramesDropped:   p.framesDropped.Load(),
		EventsEmitted:   p.eventsEmitted.Load(),
		ActiveTracks:    p.tracker.Len(),
	}
}

// Run processes frames from source until it is exhausted or ctx is
// cancelled, and returns the per-frame result stream. Frames are
// processed strictly in arrival order. Acquisition runs ahead of
// processing through a single-slot inbox: when extraction falls behind
// the capture rate, the newest frame replaces the unconsumed one and the
// drop counter grows, so the pipeline never buffers without bound.
//
// After cancellation no further authentication events are emitted; the
// in-flight extractor call is bounded by DetectTimeout.
func (p *Pipeline) Run(ctx context.Context, source FrameSource) <-chan FrameResult {
	out := make(chan FrameResult)
	inbox := newFrameInbox()

	go func() {
		defer inbox.CloseInbox()
		for {
			frame, err := source.Next(ctx)
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
					log.Printf("frame source failed: %v", err)
				}
				return
			}
			p.framesSeen.Add(1)
			if dropped := inbox.Put(frame); dropped {
				p.framesDropped.Add(1)
			}
		}
	}()

	go func() {
		defer close(out)
		defer p.broadcaster.Close()
		for {
			frame, ok := inbox.Take(ctx)
			if !ok {
				return
			}
			result := p.process(ctx, frame)
			if ctx.Err() != nil {
				return
			}
			for _, event := range result.Events {
				p.broadcaster.Publish(event)
			}
			select {
			case out <- result:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// process runs one frame through detect, associate, schedule, match and
// the session state machine.
func (p *Pipeline) process(ctx context.Context, frame Frame) FrameResult {
	result := FrameResult{Seq: frame.Seq, At: frame.At}

	detectCtx, cancel := context.WithTimeout(ctx, p.cfg.DetectTimeout)
	faces, err := p.cfg.Detector.Detect(detectCtx, frame.Data)
	cancel()
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("detection failed on frame %d: %v", frame.Seq, err)
		}
		return result
	}
	p.framesProcessed.Add(1)
	if len(faces) == 0 {
		return result
	}

	boxes := make([][]float64, len(faces))
	for i := range faces {
		boxes[i] = faces[i].BBox
	}
	tracks := p.tracker.Observe(frame.At, boxes)

	for i, track := range tracks {
		if p.scheduler.ShouldRecognize(track, frame.At) {
			res := p.recognize(ctx, faces[i].Embedding)
			p.scheduler.Record(track, res, frame.At)
		}

		if event := p.tracker.Apply(track, track.LastMatch, frame.At); event != nil {
			p.eventsEmitted.Add(1)
			result.Events = append(result.Events, *event)
		}

		identity := track.LastMatch.Identity
		if !track.LastMatch.OK {
			identity = "unknown"
		}
		result.Annotations = append(result.Annotations, Annotation{
			TrackKey: track.Key,
			BBox:     faces[i].BBox,
			Identity: identity,
			Distance: track.LastMatch.Distance,
		})
	}

	return result
}

// recognize runs one gallery lookup + match. Failures degrade to "no
// match this cycle"; the next scheduled interval retries.
func (p *Pipeline) recognize(ctx context.Context, embedding []float32) matcher.Result {
	entries, _, err := p.cfg.Store.FindNearest(ctx, embedding, p.cfg.CandidateK)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("gallery query failed, treating as no match: %v", err)
		}
		return matcher.Result{Distance: 2.0}
	}

	res, err := matcher.Match(embedding, entries, p.cfg.Threshold)
	switch {
	case errors.Is(err, matcher.ErrEmptyGallery):
		if p.emptyGalleryLogged.CompareAndSwap(false, true) {
			log.Printf("gallery is empty; running in detection-only mode until faces are registered")
		}
	case err != nil:
		log.Printf("match failed: %v", err)
	default:
		p.emptyGalleryLogged.Store(false)
	}
	return res
}

// frameInbox is a single-slot mailbox between frame acquisition and
// processing. New frames overwrite an unconsumed one, so the consumer
// always sees the latest frame and backlog never grows.
type frameInbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  *Frame
	closed bool
}

func newFrameInbox() *frameInbox {
	in := &frameInbox{}
	in.cond = sync.NewCond(&in.mu)
	return in
}

// Put stores a frame, reporting whether an unconsumed frame was dropped.
func (in *frameInbox) Put(frame Frame) (dropped bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return false
	}
	dropped = in.frame != nil
	in.frame = &frame
	in.cond.Signal()
	return dropped
}

// Take blocks until a frame is available, the inbox closes, or ctx is
// cancelled. The second return is false when no more frames will come.
func (in *frameInbox) Take(ctx context.Context) (Frame, bool) {
	// Wake the waiter when the context is cancelled.
	stop := context.AfterFunc(ctx, func() {
		in.mu.Lock()
		in.cond.Broadcast()
		in.mu.Unlock()
	})
	defer stop()

	in.mu.Lock()
	defer in.mu.Unlock()
	for in.frame == nil && !in.closed && ctx.Err() == nil {
		in.cond.Wait()
	}
	if in.frame == nil || ctx.Err() != nil {
		return Frame{}, false
	}
	frame := *in.frame
	in.frame = nil
	return frame, true
}

// CloseInbox marks the inbox closed; a pending frame is still delivered.
func (in *frameInbox) CloseInbox() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.cond.Broadcast()
}
