package extractor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestResizeImageDownscalesLongSide(t *testing.T) {
	data := encodeTestImage(t, 400, 200)

	resized, err := ResizeImage(data, 100)
	if err != nil {
		t.Fatalf("ResizeImage: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 100 || h != 50 {
		t.Errorf("resized to %dx%d, want 100x50 (aspect preserved)", w, h)
	}
}

func TestResizeImageSmallImageKeepsSize(t *testing.T) {
	data := encodeTestImage(t, 50, 40)

	resized, err := ResizeImage(data, 100)
	if err != nil {
		t.Fatalf("ResizeImage: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(resized))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 50 || h != 40 {
		t.Errorf("resized to %dx%d, want unchanged 50x40", w, h)
	}
}

func TestResizeImageRejectsGarbage(t *testing.T) {
	if _, err := ResizeImage([]byte("not an image"), 100); err == nil {
		t.Error("expected an error for undecodable data")
	}
}
