// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates uploaded pictures, re-encodes them for the web
// and produces the square thumbnail shown in the admin media library.
// Decoding and scaling use the pure Go golang.org/x/image packages.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Supported upload types.
const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimeWebP = "image/webp"
)

const (
	// ThumbnailSize is the edge length of the square thumbnail.
	ThumbnailSize = 300
	// ThumbnailQuality is the JPEG quality of thumbnails.
	ThumbnailQuality = 80
	// OptimizedQuality is the JPEG quality of re-encoded originals.
	OptimizedQuality = 85

	// MaxDimension bounds either edge of an accepted upload.
	MaxDimension = 16384
	// MaxPixels bounds the decoded area of an accepted upload.
	MaxPixels = 40_000_000
)

// ErrUnsupportedType is returned when the bytes are not a JPEG, PNG or WebP.
var ErrUnsupportedType = errors.New("only JPEG, PNG, and WebP images are allowed")

// ErrTooManyPixels is returned when the declared dimensions exceed
// MaxDimension or MaxPixels. The check runs on the header before decoding.
var ErrTooManyPixels = errors.New("image dimensions exceed the allowed size")

// extensions maps a supported type to the file extension used when storing it.
var extensions = map[string]string{
	MimeJPEG: ".jpg",
	MimePNG:  ".png",
	MimeWebP: ".webp",
}

// Result is a processed upload ready for storage.
type Result struct {
	MimeType  string
	Ext       string
	Width     int
	Height    int
	Data      []byte // optimized original
	Thumbnail []byte // ThumbnailSize square JPEG
}

// Detect sniffs the content type from the leading bytes and returns it if
// it is one of the supported image types.
func Detect(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if _, ok := extensions[mime]; !ok {
		return "", ErrUnsupportedType
	}
	return mime, nil
}

// Extension returns the stored file extension for a supported type.
func Extension(mime string) string {
	return extensions[mime]
}

// Process decodes data, re-encodes it and renders the thumbnail. JPEG is
// re-encoded at OptimizedQuality, PNG with best compression and WebP is
// kept as received.
func Process(data []byte) (*Result, error) {
	mime, err := Detect(data)
	if err != nil {
		return nil, err
	}

	if err := checkDimensions(mime, data); err != nil {
		return nil, err
	}

	img, err := decode(mime, data)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode %s: %w", mime, err)
	}
	bounds := img.Bounds()

	optimized, err := optimize(mime, img, data)
	if err != nil {
		return nil, fmt.Errorf("imaging: optimize %s: %w", mime, err)
	}

	thumb, err := Thumbnail(img, ThumbnailSize)
	if err != nil {
		return nil, fmt.Errorf("imaging: thumbnail: %w", err)
	}

	return &Result{
		MimeType:  mime,
		Ext:       extensions[mime],
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		Data:      optimized,
		Thumbnail: thumb,
	}, nil
}

// Thumbnail scales and centre-crops img to a size x size square and
// encodes it as JPEG. Transparent areas are flattened onto white.
func Thumbnail(img image.Image, size int) ([]byte, error) {
	src := coverRect(img.Bounds(), size, size)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: ThumbnailQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// coverRect returns the centred region of b with the aspect ratio w:h.
// Scaling that region to w x h fills the target without distortion.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	bw, bh := b.Dx(), b.Dy()
	cw, ch := bw, bw*h/w
	if ch > bh {
		cw, ch = bh*w/h, bh
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	x0 := b.Min.X + (bw-cw)/2
	y0 := b.Min.Y + (bh-ch)/2
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

func checkDimensions(mime string, data []byte) error {
	var (
		cfg image.Config
		err error
	)
	r := bytes.NewReader(data)
	switch mime {
	case MimeJPEG:
		cfg, err = jpeg.DecodeConfig(r)
	case MimePNG:
		cfg, err = png.DecodeConfig(r)
	case MimeWebP:
		cfg, err = webp.DecodeConfig(r)
	default:
		return ErrUnsupportedType
	}
	if err != nil {
		return fmt.Errorf("imaging: read %s header: %w", mime, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 ||
		cfg.Width > MaxDimension || cfg.Height > MaxDimension ||
		cfg.Width*cfg.Height > MaxPixels {
		return fmt.Errorf("imaging: %dx%d: %w", cfg.Width, cfg.Height, ErrTooManyPixels)
	}
	return nil
}

func decode(mime string, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch mime {
	case MimeJPEG:
		return jpeg.Decode(r)
	case MimePNG:
		return png.Decode(r)
	case MimeWebP:
		return webp.Decode(r)
	}
	return nil, ErrUnsupportedType
}

func optimize(mime string, img image.Image, original []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch mime {
	case MimeJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: OptimizedQuality}); err != nil {
			return nil, err
		}
	case MimePNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return original, nil
	}
	return buf.Bytes(), nil
}
