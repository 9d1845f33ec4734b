package processing

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/agri-assistant/pkg/types"
)

// DefaultPreviewSize is the longest side of a generated preview in pixels
const DefaultPreviewSize = 480

// MaxPixels bounds the decoded size of an image, about 40 megapixels
const MaxPixels = 40_000_000

var (
	// ErrUnknownFormat is returned when the bytes are not a decodable image
	ErrUnknownFormat = errors.New("image: unknown or unsupported format")
	// ErrImageTooLarge is returned when the declared dimensions exceed MaxPixels
	ErrImageTooLarge = errors.New("image: dimensions too large")
)

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Format      string
}

// Processor builds previews of uploaded images. It never touches the bytes
// that are sent to the model.
type Processor struct {
	previewSize int
	quality     int
}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{previewSize: DefaultPreviewSize, quality: 80}
}

// NewProcessorWithSize creates a processor producing previews no larger than size
func NewProcessorWithSize(size, quality int) *Processor {
	if size <= 0 {
		size = DefaultPreviewSize
	}
	if quality < 1 || quality > 100 {
		quality = 80
	}
	return &Processor{previewSize: size, quality: quality}
}

// Decode decodes image bytes with WebP support and EXIF auto orientation.
// Images declaring more than MaxPixels are rejected before any pixel data
// is allocated.
func (p *Processor) Decode(data []byte) (image.Image, string, error) {
	cfg, format, err := decodeConfig(data)
	if err != nil {
		return nil, "", err
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	if img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true)); err == nil {
		return img, format, nil
	}

	// Fallback: explicit WebP decode
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, "webp", nil
	}

	return nil, "", ErrUnknownFormat
}

// decodeConfig reads only the image header
func decodeConfig(data []byte) (image.Config, string, error) {
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return cfg, format, nil
	}
	if cfg, err := webp.DecodeConfig(bytes.NewReader(data)); err == nil {
		return cfg, "webp", nil
	}
	return image.Config{}, "", ErrUnknownFormat
}

// Inspect returns dimensions and format of the image without decoding it
func (p *Processor) Inspect(data []byte) (ImageInfo, error) {
	cfg, format, err := decodeConfig(data)
	if err != nil {
		return ImageInfo{}, err
	}
	info := ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}
	if info.Height > 0 {
		info.AspectRatio = float64(info.Width) / float64(info.Height)
	}
	return info, nil
}

// Preview returns a JPEG thumbnail of the image as a data URL
func (p *Processor) Preview(data []byte) (string, error) {
	img, _, err := p.Decode(data)
	if err != nil {
		return "", err
	}

	b := img.Bounds()
	if b.Dx() > p.previewSize || b.Dy() > p.previewSize {
		img = imaging.Fit(img, p.previewSize, p.previewSize, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}
	preview := types.InlineImage{Data: base64.StdEncoding.EncodeToString(buf.Bytes()), MIMEType: "image/jpeg"}
	return preview.DataURL(), nil
}
