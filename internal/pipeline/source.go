package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Frame is one encoded image from a frame source.
type Frame struct {
	Seq  int64
	Data []byte
	At   time.Time
}

// FrameSource supplies frames in arrival order. Next returns io.EOF when
// the source is exhausted; a live source never is.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// DirSource replays the image files of a directory in lexical order at a
// fixed rate. It stands in for a camera during development and testing
// and is the finite-source case of the pipeline: the output sequence
// terminates when the files run out.
type DirSource struct {
	files    []string
	idx      int
	seq      int64
	interval time.Duration
}

// NewDirSource lists the supported image files under dir. fps controls the
// replay rate; zero or negative means no pacing.
func NewDirSource(dir string, fps float64) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frame directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}
	sort.Strings(files)

	var interval time.Duration
	if fps > 0 {
		interval = time.Duration(float64(time.Second) / fps)
	}
	return &DirSource{files: files, interval: interval}, nil
}

// Next returns the next frame, pacing by the configured rate.
func (s *DirSource) Next(ctx context.Context) (Frame, error) {
	if s.idx >= len(s.files) {
		return Frame{}, io.EOF
	}

	if s.interval > 0 && s.seq > 0 {
		timer := time.NewTimer(s.interval)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-timer.C:
		}
	}

	data, err := os.ReadFile(s.files[s.idx])
	if err != nil {
		return Frame{}, fmt.Errorf("reading frame %s: %w", s.files[s.idx], err)
	}
	s.idx++
	s.seq++
	return Frame{Seq: s.seq, Data: data, At: time.Now()}, nil
}
