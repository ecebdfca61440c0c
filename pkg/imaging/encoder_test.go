package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"strings"
	"testing"
)

// ═══════════════════════════════════════════════════════════
// Helpers
// ═══════════════════════════════════════════════════════════

type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func fileFrom(data []byte, contentType string) (File, *trackingReader) {
	tr := &trackingReader{Reader: bytes.NewReader(data)}
	return File{
		Name:        "passport.png",
		Size:        int64(len(data)),
		ContentType: contentType,
		Open:        func() (io.ReadCloser, error) { return tr, nil },
	}, tr
}

func gradientPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// ═══════════════════════════════════════════════════════════
// Encode
// ═══════════════════════════════════════════════════════════

func TestEncode_ResizesLandscape(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f, tr := fileFrom(gradientPNG(t, 1200, 800), "image/png")

	out, err := enc.Encode(context.Background(), f)
	if err != nil {
		t.Fatalf("Encode should succeed: %v", err)
	}
	if out.Width != 600 || out.Height != 400 {
		t.Errorf("expected 600x400, got %dx%d", out.Width, out.Height)
	}
	if !strings.HasPrefix(out.DataURI, DataURIPrefix) {
		t.Errorf("expected jpeg data URI, got prefix %q", out.DataURI[:30])
	}
	if out.FileName != "passport.png" {
		t.Errorf("expected original file name, got %s", out.FileName)
	}
	if out.UploadedAt.IsZero() {
		t.Error("expected upload timestamp")
	}
	if !tr.closed {
		t.Error("file handle should be closed after encoding")
	}

	raw, err := base64.StdEncoding.DecodeString(out.Base64())
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not jpeg: %v", err)
	}
	if cfg.Width != 600 || cfg.Height != 400 {
		t.Errorf("decoded payload is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestEncode_ResizesPortraitWithoutStretching(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f, _ := fileFrom(gradientPNG(t, 300, 900), "image/png")

	out, err := enc.Encode(context.Background(), f)
	if err != nil {
		t.Fatalf("Encode should succeed: %v", err)
	}
	if out.Width != 200 || out.Height != 600 {
		t.Errorf("expected 200x600, got %dx%d", out.Width, out.Height)
	}
}

func TestEncode_SmallImageNotUpscaled(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f, _ := fileFrom(gradientPNG(t, 120, 80), "image/png")

	out, err := enc.Encode(context.Background(), f)
	if err != nil {
		t.Fatalf("Encode should succeed: %v", err)
	}
	if out.Width != 120 || out.Height != 80 {
		t.Errorf("expected 120x80, got %dx%d", out.Width, out.Height)
	}
	if out.Quality != 60 {
		t.Errorf("expected first-pass quality 60, got %d", out.Quality)
	}
}

func TestEncode_FileTooLarge(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f := File{Name: "huge.png", Size: 8 << 20, ContentType: "image/png", Open: func() (io.ReadCloser, error) {
		t.Fatal("Open must not be called for oversized uploads")
		return nil, nil
	}}

	if _, err := enc.Encode(context.Background(), f); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestEncode_UnderstatedSizeStillCapped(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxUploadBytes = 1024
	enc := NewEncoder(opts)
	f, tr := fileFrom(noisePNG(t, 64, 64), "image/png")
	f.Size = 10

	if _, err := enc.Encode(context.Background(), f); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
	if !tr.closed {
		t.Error("file handle should be closed on failure")
	}
}

func TestEncode_NotAnImage(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f, _ := fileFrom([]byte("%PDF-1.4"), "application/pdf")

	if _, err := enc.Encode(context.Background(), f); !errors.Is(err, ErrNotImage) {
		t.Errorf("expected ErrNotImage, got %v", err)
	}
}

func TestEncode_EmptyFileIsLoadFailure(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f, tr := fileFrom(nil, "image/jpeg")

	_, err := enc.Encode(context.Background(), f)
	if !errors.Is(err, ErrLoadFailed) {
		t.Errorf("expected ErrLoadFailed, got %v", err)
	}
	if errors.Is(err, ErrFileTooLarge) {
		t.Error("load failure must be distinct from size ceiling")
	}
	if !tr.closed {
		t.Error("file handle should be closed on failure")
	}
}

func TestEncode_UndecodableIsLoadFailure(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f, _ := fileFrom([]byte("this is definitely not a picture"), "image/jpeg")

	if _, err := enc.Encode(context.Background(), f); !errors.Is(err, ErrLoadFailed) {
		t.Errorf("expected ErrLoadFailed, got %v", err)
	}
}

func TestEncode_OpenError(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f := File{Name: "x.png", Size: 10, ContentType: "image/png", Open: func() (io.ReadCloser, error) {
		return nil, errors.New("disk gone")
	}}

	if _, err := enc.Encode(context.Background(), f); !errors.Is(err, ErrLoadFailed) {
		t.Errorf("expected ErrLoadFailed, got %v", err)
	}
}

func TestEncode_HardCeiling(t *testing.T) {
	opts := DefaultOptions()
	opts.SoftLimitBytes = 2 << 10
	opts.HardLimitBytes = 4 << 10
	enc := NewEncoder(opts)
	f, _ := fileFrom(noisePNG(t, 400, 400), "image/png")

	if _, err := enc.Encode(context.Background(), f); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("expected ErrImageTooLarge, got %v", err)
	}
}

func TestEncode_FallbackQuality(t *testing.T) {
	// noise at q60 lands above a tiny soft limit; q40 must be used
	ref := NewEncoder(DefaultOptions())
	f, _ := fileFrom(noisePNG(t, 200, 200), "image/png")
	first, err := ref.Encode(context.Background(), f)
	if err != nil {
		t.Fatalf("reference encode: %v", err)
	}

	opts := DefaultOptions()
	opts.SoftLimitBytes = len(first.JPEG) - 1
	opts.HardLimitBytes = len(first.JPEG) * 2
	enc := NewEncoder(opts)
	f, _ = fileFrom(noisePNG(t, 200, 200), "image/png")

	out, err := enc.Encode(context.Background(), f)
	if err != nil {
		t.Fatalf("Encode should succeed: %v", err)
	}
	if out.Quality != 40 {
		t.Errorf("expected fallback quality 40, got %d", out.Quality)
	}
	if len(out.JPEG) >= len(first.JPEG) {
		t.Errorf("fallback pass should be smaller: %d >= %d", len(out.JPEG), len(first.JPEG))
	}
}

func TestEncode_CancelledContext(t *testing.T) {
	enc := NewEncoder(DefaultOptions())
	f, tr := fileFrom(gradientPNG(t, 50, 50), "image/png")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := enc.Encode(ctx, f); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !tr.closed {
		t.Error("file handle should be closed")
	}
}

// ═══════════════════════════════════════════════════════════
// FitWithin
// ═══════════════════════════════════════════════════════════

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h, max  int
		wantW, wantH int
	}{
		{4000, 4000, 600, 600, 600},
		{1200, 800, 600, 600, 400},
		{800, 1200, 600, 400, 600},
		{600, 600, 600, 600, 600},
		{599, 10, 600, 599, 10},
		{6000, 5, 600, 600, 1},
	}
	for _, tc := range cases {
		w, h := FitWithin(tc.w, tc.h, tc.max)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("FitWithin(%d,%d,%d) = %dx%d, want %dx%d", tc.w, tc.h, tc.max, w, h, tc.wantW, tc.wantH)
		}
	}
}
