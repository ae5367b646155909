package compress

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/goliatone/go-formmanager/pkg/form"
)

var (
	// ErrNotImage is returned when the selected file is not a decodable image.
	ErrNotImage = errors.New("compress: file is not an image")
	// ErrNoFile is returned when a selection carries no file.
	ErrNoFile = errors.New("compress: no file selected")
)

// Options bounds the compressed output.
type Options struct {
	MaxSizeMB        float64
	MaxWidthOrHeight int
}

// DefaultOptions are applied to every image selection.
var DefaultOptions = Options{
	MaxSizeMB:        0.5,
	MaxWidthOrHeight: 1200,
}

const (
	maxIterations  = 10
	initialQuality = 92
	minQuality     = 10
	qualityStep    = 8
	scaleStep      = 0.8
)

// Compressor transforms an image file into a smaller one.
type Compressor interface {
	Compress(ctx context.Context, file form.File, opts Options) (form.File, error)
}

// CompressorFunc adapts a function to Compressor.
type CompressorFunc func(ctx context.Context, file form.File, opts Options) (form.File, error)

// Compress calls fn.
func (fn CompressorFunc) Compress(ctx context.Context, file form.File, opts Options) (form.File, error) {
	return fn(ctx, file, opts)
}

// ImageCompressor decodes JPEG, PNG, GIF and WebP input, scales it so the
// longest side fits MaxWidthOrHeight, and re-encodes until the output fits
// MaxSizeMB or the iteration budget runs out. PNG input stays PNG; everything
// else is written as JPEG.
type ImageCompressor struct{}

// NewImageCompressor returns the default compressor.
func NewImageCompressor() *ImageCompressor {
	return &ImageCompressor{}
}

// Compress implements Compressor.
func (c *ImageCompressor) Compress(ctx context.Context, file form.File, opts Options) (form.File, error) {
	if err := ctx.Err(); err != nil {
		return form.File{}, err
	}
	if len(file.Data) == 0 {
		return form.File{}, ErrNoFile
	}

	mt := mimetype.Detect(file.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return form.File{}, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	src, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return form.File{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}

	img := fit(src, opts.MaxWidthOrHeight)
	limit := int(opts.MaxSizeMB * 1024 * 1024)
	asPNG := mt.Is("image/png")

	var (
		out     []byte
		quality = initialQuality
	)
	for i := 0; i < maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return form.File{}, err
		}
		out, err = encode(img, asPNG, quality)
		if err != nil {
			return form.File{}, fmt.Errorf("compress: encode: %w", err)
		}
		if limit <= 0 || len(out) <= limit {
			break
		}
		if !asPNG && quality-qualityStep >= minQuality {
			quality -= qualityStep
			continue
		}
		img = scale(img, scaleStep)
	}

	contentType, ext := "image/jpeg", ".jpg"
	if asPNG {
		contentType, ext = "image/png", ".png"
	}
	return form.File{
		Name:        strings.TrimSuffix(file.Name, filepath.Ext(file.Name)) + ext,
		ContentType: contentType,
		Data:        out,
	}, nil
}

func encode(img image.Image, asPNG bool, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if asPNG {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// fit scales img down so its longest side is at most bound. Images already
// within bounds are returned unchanged.
func fit(img image.Image, bound int) image.Image {
	b := img.Bounds()
	longest := b.Dx()
	if b.Dy() > longest {
		longest = b.Dy()
	}
	if bound <= 0 || longest <= bound {
		return img
	}
	return scale(img, float64(bound)/float64(longest))
}

func scale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}

// flatten composites img onto white so transparent regions do not turn black
// when written as JPEG.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// DataURL encodes file as a base64 data URL.
func DataURL(file form.File) string {
	contentType := file.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(file.Data).String()
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(file.Data)
}
