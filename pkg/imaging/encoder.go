// Package imaging turns an uploaded passport photo into a bounded-size JPEG
// data URI ready for storage.
package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif" // decoders
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrFileTooLarge the upload exceeds the raw size ceiling
	ErrFileTooLarge = errors.New("image file exceeds the upload size limit")
	// ErrNotImage the upload is not declared as an image
	ErrNotImage = errors.New("file is not an image")
	// ErrLoadFailed the upload is empty or cannot be decoded
	ErrLoadFailed = errors.New("failed to load image")
	// ErrImageTooLarge the photo is still over the hard ceiling after the
	// fallback compression pass
	ErrImageTooLarge = errors.New("image is too large even after compression")
)

// DataURIPrefix prefix of every encoded payload
const DataURIPrefix = "data:image/jpeg;base64,"

// Options encoder limits
type Options struct {
	MaxUploadBytes  int64
	MaxDimension    int
	Quality         int
	FallbackQuality int
	SoftLimitBytes  int
	HardLimitBytes  int
}

// DefaultOptions 5 MiB upload, 600 px, q60 then q40, 500 KiB soft / 650 KiB hard
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes:  5 << 20,
		MaxDimension:    600,
		Quality:         60,
		FallbackQuality: 40,
		SoftLimitBytes:  500 << 10,
		HardLimitBytes:  650 << 10,
	}
}

// File an uploaded image. Open is called once; the encoder closes what it returns.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Encoded result of a successful encode
type Encoded struct {
	DataURI    string
	FileName   string
	UploadedAt time.Time
	JPEG       []byte
	Width      int
	Height     int
	Quality    int
}

// Base64 payload without the data URI prefix
func (e *Encoded) Base64() string {
	return strings.TrimPrefix(e.DataURI, DataURIPrefix)
}

// Encoder resizes and recompresses photos
type Encoder struct {
	opts Options
	now  func() time.Time
}

// NewEncoder creates an Encoder; zero-valued options take the defaults
func NewEncoder(opts Options) *Encoder {
	def := DefaultOptions()
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = def.MaxUploadBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = def.MaxDimension
	}
	if opts.Quality <= 0 {
		opts.Quality = def.Quality
	}
	if opts.FallbackQuality <= 0 {
		opts.FallbackQuality = def.FallbackQuality
	}
	if opts.SoftLimitBytes <= 0 {
		opts.SoftLimitBytes = def.SoftLimitBytes
	}
	if opts.HardLimitBytes <= 0 {
		opts.HardLimitBytes = def.HardLimitBytes
	}
	return &Encoder{opts: opts, now: time.Now}
}

// Encode validates, decodes, downsizes and JPEG-encodes f.
func (e *Encoder) Encode(ctx context.Context, f File) (*Encoded, error) {
	if f.Size > e.opts.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return nil, ErrNotImage
	}
	if f.Open == nil {
		return nil, ErrLoadFailed
	}

	raw, err := e.read(f)
	if err != nil {
		return nil, err
	}

	if mt := mimetype.Detect(raw); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: content sniffed as %s", ErrLoadFailed, mt.String())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), e.opts.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; flatten transparency onto white
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	quality := e.opts.Quality
	out, err := encodeJPEG(dst, quality)
	if err != nil {
		return nil, err
	}
	if len(out) > e.opts.SoftLimitBytes {
		quality = e.opts.FallbackQuality
		if out, err = encodeJPEG(dst, quality); err != nil {
			return nil, err
		}
	}
	if len(out) > e.opts.HardLimitBytes {
		return nil, ErrImageTooLarge
	}

	return &Encoded{
		DataURI:    DataURIPrefix + base64.StdEncoding.EncodeToString(out),
		FileName:   f.Name,
		UploadedAt: e.now().UTC(),
		JPEG:       out,
		Width:      w,
		Height:     h,
		Quality:    quality,
	}, nil
}

// read pulls at most MaxUploadBytes from the file and always closes it
func (e *Encoder) read(f File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, e.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	if int64(len(raw)) > e.opts.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrLoadFailed)
	}
	return raw, nil
}

// FitWithin scales (w, h) so neither side exceeds max, preserving aspect
// ratio. Images already inside the box are returned unchanged.
func FitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	if w >= h {
		nh := h * max / w
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := w * max / h
	if nw < 1 {
		nw = 1
	}
	return nw, max
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), nil
}
