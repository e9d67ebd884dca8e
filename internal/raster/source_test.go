package raster

import (
	"bytes"
	"context"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, SyntheticImage(8, 8)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoadSource_Synthetic(t *testing.T) {
	src, err := LoadSource(context.Background(), "", FetchOptions{})
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if src.Name != "synthetic-1024" {
		t.Errorf("Name = %q, want synthetic-1024", src.Name)
	}
	b := src.Image.Bounds()
	if b.Dx() != 1024 || b.Dy() != 1024 {
		t.Errorf("bounds = %v, want 1024x1024", b)
	}
}

func TestLoadSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.png")
	if err := os.WriteFile(path, encodeTestPNG(t), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := LoadSource(context.Background(), path, FetchOptions{})
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if src.Name != "input.png" {
		t.Errorf("Name = %q, want input.png", src.Name)
	}
	if src.Image.Bounds().Dx() != 8 {
		t.Errorf("width = %d, want 8", src.Image.Bounds().Dx())
	}
}

func TestLoadSource_RejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("definitely not pixels"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSource(context.Background(), path, FetchOptions{}); err == nil {
		t.Fatal("expected error for non-image input")
	}
}

func TestLoadSource_MissingFile(t *testing.T) {
	if _, err := LoadSource(context.Background(), filepath.Join(t.TempDir(), "nope.png"), FetchOptions{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSource_HTTP(t *testing.T) {
	data := encodeTestPNG(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", `attachment; filename="duke.png"`)
		_, _ = w.Write(data)
	}))
	defer ts.Close()

	src, err := LoadSource(context.Background(), ts.URL+"/some/image", FetchOptions{})
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if src.Name != "duke.png" {
		t.Errorf("Name = %q, want duke.png (from Content-Disposition)", src.Name)
	}
}

func TestLoadSource_HTTPFallsBackToURLPath(t *testing.T) {
	data := encodeTestPNG(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(data)
	}))
	defer ts.Close()

	src, err := LoadSource(context.Background(), ts.URL+"/images/logo.png", FetchOptions{})
	if err != nil {
		t.Fatalf("LoadSource failed: %v", err)
	}
	if src.Name != "logo.png" {
		t.Errorf("Name = %q, want logo.png", src.Name)
	}
}

func TestLoadSource_HTTPErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer ts.Close()

	if _, err := LoadSource(context.Background(), ts.URL, FetchOptions{}); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestSyntheticImageDeterministic(t *testing.T) {
	a := SyntheticImage(64, 64)
	b := SyntheticImage(64, 64)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("synthetic image is not deterministic")
	}
}
