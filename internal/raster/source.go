package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	// Decoders for the formats a source image may arrive in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	"github.com/vfaronov/httpheader"
)

// maxSourceBytes bounds how much of a remote body we are willing to read.
const maxSourceBytes = 64 << 20

// Source is a decoded benchmark input image.
type Source struct {
	Name  string
	Image image.Image
}

// FetchOptions tunes HTTP retrieval of remote source images.
type FetchOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// LoadSource resolves ref into a decoded image. An empty ref yields the
// built-in synthetic test image; http(s) refs are fetched; anything else is
// treated as a local file path.
func LoadSource(ctx context.Context, ref string, opts FetchOptions) (*Source, error) {
	if ref == "" {
		return &Source{Name: "synthetic-1024", Image: SyntheticImage(1024, 1024)}, nil
	}

	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return fetchSource(ctx, u, opts)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to read source image: %w", err)
	}
	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return &Source{Name: filepath.Base(ref), Image: img}, nil
}

func fetchSource(ctx context.Context, u *url.URL, opts FetchOptions) (*Source, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read source image body: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("source image larger than %d bytes", maxSourceBytes)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.String(), err)
	}

	return &Source{Name: remoteFilename(resp, u), Image: img}, nil
}

// remoteFilename prefers the server's Content-Disposition filename over the
// last URL path segment.
func remoteFilename(resp *http.Response, u *url.URL) string {
	_, filename, _ := httpheader.ContentDisposition(resp.Header)
	if filename != "" {
		// Strip any path components a hostile server might send.
		filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
		if filename != "." && filename != "/" {
			return filename
		}
	}
	if name := path.Base(u.Path); name != "." && name != "/" {
		return name
	}
	return u.Host
}

func decodeImage(data []byte) (image.Image, error) {
	if !filetype.IsImage(data) {
		return nil, fmt.Errorf("source is not an image")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode source image: %w", err)
	}
	return img, nil
}

// SyntheticImage builds a deterministic test pattern: RGB gradients with a
// 32px checker overlay for high-frequency content.
func SyntheticImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r := uint8(x * 255 / w)
			g := uint8(y * 255 / h)
			b := uint8((x + y) * 255 / (w + h))
			if (x/32+y/32)%2 == 0 {
				r, g, b = 255-r, 255-g, 255-b
			}
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
