package raster

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/draw"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		want    draw.Interpolator
		wantErr bool
	}{
		{"nearest", draw.NearestNeighbor, false},
		{"bilinear", draw.ApproxBiLinear, false},
		{"catmullrom", draw.CatmullRom, false},
		{"", draw.ApproxBiLinear, false},
		{"lanczos", nil, true},
	}

	for _, tt := range tests {
		got, err := ParseFilter(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFilter(%q): expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFilter(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFilter(%q) returned wrong interpolator", tt.name)
		}
	}
}

func TestSnapshotSizeRoundsUp(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))

	w, h := SnapshotSize(src, 1.5, 2.0)
	if w != 15 || h != 20 {
		t.Errorf("size = %dx%d, want 15x20", w, h)
	}

	// ceil semantics: 10 * 0.25 = 2.5 -> 3
	w, h = SnapshotSize(src, 0.25, 0.25)
	if w != 3 || h != 3 {
		t.Errorf("size = %dx%d, want 3x3", w, h)
	}
}

func TestSnapshotScalesImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(1, 0, color.RGBA{G: 255, A: 255})
	src.SetRGBA(0, 1, color.RGBA{B: 255, A: 255})
	src.SetRGBA(1, 1, color.RGBA{R: 255, G: 255, A: 255})

	dst, err := Snapshot(src, 2, 2, draw.NearestNeighbor)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if got := dst.Bounds(); got.Dx() != 4 || got.Dy() != 4 {
		t.Fatalf("bounds = %v, want 4x4", got)
	}
	// Nearest neighbor keeps each source pixel as a 2x2 block.
	if got := dst.RGBAAt(0, 0); got.R != 255 || got.G != 0 {
		t.Errorf("pixel (0,0) = %v, want red", got)
	}
	if got := dst.RGBAAt(3, 0); got.G != 255 || got.R != 0 {
		t.Errorf("pixel (3,0) = %v, want green", got)
	}
}

func TestSnapshotRejectsDegenerateScale(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if _, err := Snapshot(src, 0, 1, draw.NearestNeighbor); err == nil {
		t.Error("expected error for zero scale")
	}
	if _, err := Snapshot(src, -1, 1, draw.NearestNeighbor); err == nil {
		t.Error("expected error for negative scale")
	}
}

func TestSnapshotRejectsOversizedOutput(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1024, 1024))
	if _, err := Snapshot(src, 1e6, 1e6, draw.NearestNeighbor); err == nil {
		t.Error("expected error for oversized snapshot")
	}
}

func TestSavePNGReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot_4x4.png")

	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	img := SyntheticImage(4, 4)
	if err := SavePNG(img, path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// PNG signature
	if len(data) < 8 || data[1] != 'P' || data[2] != 'N' || data[3] != 'G' {
		t.Error("saved file is not a PNG")
	}
}
