// Package raster implements the operation being metered: scaling a source
// image into a freshly allocated raster, plus loading and saving helpers.
package raster

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/draw"
)

// Filter selects the scaling interpolator.
type Filter string

const (
	FilterNearest    Filter = "nearest"
	FilterBilinear   Filter = "bilinear"
	FilterCatmullRom Filter = "catmullrom"
)

// maxSnapshotPixels caps the output raster so a misconfigured grid fails a
// run instead of exhausting memory.
const maxSnapshotPixels = 1 << 30

// ParseFilter maps a filter name to its interpolator.
func ParseFilter(name string) (draw.Interpolator, error) {
	switch Filter(name) {
	case FilterNearest:
		return draw.NearestNeighbor, nil
	case FilterBilinear, "":
		return draw.ApproxBiLinear, nil
	case FilterCatmullRom:
		return draw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown filter %q (want nearest, bilinear or catmullrom)", name)
	}
}

// SnapshotSize returns the output dimensions for scaling src by (sx, sy).
// Dimensions round up, so a fractional scale never truncates the raster.
func SnapshotSize(src image.Image, sx, sy float64) (int, int) {
	b := src.Bounds()
	w := int(math.Ceil(sx * float64(b.Dx())))
	h := int(math.Ceil(sy * float64(b.Dy())))
	return w, h
}

// Snapshot scales src by (sx, sy) into a new RGBA raster. This is the
// metered operation; allocation of the destination is part of the cost.
func Snapshot(src image.Image, sx, sy float64, interp draw.Interpolator) (*image.RGBA, error) {
	w, h := SnapshotSize(src, sx, sy)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid snapshot size %dx%d (scale %gx%g)", w, h, sx, sy)
	}
	if int64(w)*int64(h) > maxSnapshotPixels {
		return nil, fmt.Errorf("snapshot %dx%d exceeds pixel limit", w, h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	interp.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// SavePNG writes img to path, replacing any existing file.
func SavePNG(img image.Image, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing snapshot: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}
