package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/TrentConley/face-authentication/internal/extractor"
	"github.com/TrentConley/face-authentication/internal/gallery"
	"github.com/TrentConley/face-authentication/internal/gallery/memory"
)

// fakeDetector returns a fixed set of faces for any image.
type fakeDetector struct {
	faces []extractor.DetectedFace
	err   error
}

func (d *fakeDetector) Detect(ctx context.Context, image []byte) ([]extractor.DetectedFace, error) {
	return d.faces, d.err
}

func testDeps(detector extractor.Detector) Deps {
	return Deps{
		Store:    memory.New(),
		Detector: detector,
		Model:    "buffalo_l",
		Dim:      4,
	}
}

func seedIdentity(t *testing.T, deps Deps, identity string, embedding []float32) {
	t.Helper()
	err := deps.Store.Insert(context.Background(), gallery.Entry{
		Identity:  identity,
		Embedding: embedding,
		Model:     deps.Model,
		Dim:       len(embedding),
	})
	if err != nil {
		t.Fatalf("seeding gallery: %v", err)
	}
}

// requestWithIdentity builds a request carrying the chi URL parameter
// {identity}, as the router would.
func requestWithIdentity(method, target, identity string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("identity", identity)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// multipartImage builds a multipart body with a single "image" part.
func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "face.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("status = %d, want %d (body: %s)", recorder.Code, expected, recorder.Body.String())
	}
}

func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	if got := recorder.Header().Get("Content-Type"); !strings.HasPrefix(got, expected) {
		t.Errorf("content type = %q, want %q", got, expected)
	}
}

func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), v); err != nil {
		t.Fatalf("parsing response %q: %v", recorder.Body.String(), err)
	}
}
