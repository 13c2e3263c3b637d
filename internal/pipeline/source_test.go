package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSourceReplaysInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.png", "c.webp", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	src, err := NewDirSource(dir, 0)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}

	var got []string
	for {
		frame, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, string(frame.Data))
		if frame.Seq != int64(len(got)) {
			t.Errorf("frame %q has seq %d, want %d", frame.Data, frame.Seq, len(got))
		}
	}

	want := []string{"a.png", "b.jpg", "c.webp"}
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDirSourceEmptyDir(t *testing.T) {
	if _, err := NewDirSource(t.TempDir(), 0); err == nil {
		t.Error("expected an error for a directory without images")
	}
}

func TestDirSourceHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// A very low rate forces a long inter-frame wait on the second frame.
	src, err := NewDirSource(dir, 0.001)
	if err != nil {
		t.Fatalf("NewDirSource: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := src.Next(ctx); err != nil {
		t.Fatalf("first Next: %v", err)
	}

	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next after cancel = %v, want context.Canceled", err)
	}
}
