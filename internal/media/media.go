// Package media приводит загруженные изображения к единому размеру и формату.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"path"
	"time"

	"tush00nka/chato/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// DefaultMaxPixels предел площади изображения до декодирования
const DefaultMaxPixels = 40_000_000

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

func (f Format) ext() string {
	if f == JPEG {
		return "jpg"
	}
	return "png"
}

func (f Format) contentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Size ограничивающий прямоугольник
type Size struct {
	Width  int
	Height int
}

type Stored struct {
	Key string
	URL string
}

type Processor struct {
	storage   storage.FileStorage
	prefix    string
	maxPixels int
}

// NewProcessor maxPixels <= 0 означает DefaultMaxPixels
func NewProcessor(fs storage.FileStorage, maxPixels int) *Processor {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Processor{storage: fs, prefix: "attachments", maxPixels: maxPixels}
}

// Process вписывает изображение в size с сохранением пропорций (без увеличения),
// кодирует в format и сохраняет в хранилище
func (p *Processor) Process(ctx context.Context, raw []byte, size Size, format Format) (Stored, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Stored{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	// размер сжатого файла не ограничивает размер распакованного
	if int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return Stored{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, p.maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Stored{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if err := ctx.Err(); err != nil {
		return Stored{}, err
	}

	var buf bytes.Buffer
	if err := encode(&buf, Fit(src, size), format); err != nil {
		return Stored{}, fmt.Errorf("encode image: %w", err)
	}

	key := path.Join(p.prefix, time.Now().UTC().Format("2006/01/02"), uuid.NewString()+"."+format.ext())
	url, err := p.storage.Save(ctx, key, buf.Bytes(), format.contentType())
	if err != nil {
		return Stored{}, err
	}

	return Stored{Key: key, URL: url}, nil
}

// Discard удаляет ранее сохраненный файл
func (p *Processor) Discard(ctx context.Context, key string) error {
	return p.storage.Remove(ctx, key)
}

// Fit уменьшает изображение, чтобы оно поместилось в size
func Fit(src image.Image, size Size) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if size.Width <= 0 || size.Height <= 0 || (w <= size.Width && h <= size.Height) {
		return src
	}

	scale := min(float64(size.Width)/float64(w), float64(size.Height)/float64(h))
	dw := max(1, int(math.Round(float64(w)*scale)))
	dh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
	return dst
}

func encode(buf *bytes.Buffer, img image.Image, format Format) error {
	switch format {
	case JPEG:
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 85})
	case PNG:
		return png.Encode(buf, img)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
