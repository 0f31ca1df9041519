// Package imaging decodes meal photos and computes the coarse image
// statistics used by the classifier, the portion estimator and the
// image quality score.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"

	_ "golang.org/x/image/bmp"  // BMP decoder registration
	_ "golang.org/x/image/webp" // WebP decoder registration

	"github.com/tphakala/nutritive-go/internal/errors"
)

// MaxPixels bounds width*height of an image accepted for decoding
const MaxPixels = 50_000_000

// Photo is a decoded meal photograph together with its encoded bytes.
// The encoded bytes are kept for classifiers that upload the original image.
type Photo struct {
	Data   []byte
	Format string // registered decoder name: jpeg, png, gif, bmp or webp
	Image  image.Image
}

// Width returns the decoded width in pixels
func (p *Photo) Width() int { return p.Image.Bounds().Dx() }

// Height returns the decoded height in pixels
func (p *Photo) Height() int { return p.Image.Bounds().Dy() }

// MIMEType returns the media type of the encoded bytes
func (p *Photo) MIMEType() string {
	switch p.Format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// Decode decodes image bytes. Empty or undecodable input, and images whose
// header declares more than MaxPixels, fail with errors.CategoryImageUnreadable.
// The header is checked before any pixel buffer is allocated.
func Decode(data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, errors.Newf("image is empty").
			Component("imaging").
			Category(errors.CategoryImageUnreadable).
			Build()
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Component("imaging").
			Category(errors.CategoryImageUnreadable).
			Context("operation", "decode_image_config").
			Context("size_bytes", len(data)).
			Build()
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > MaxPixels {
		return nil, errors.Newf("image dimensions %dx%d exceed %d pixels", cfg.Width, cfg.Height, MaxPixels).
			Component("imaging").
			Category(errors.CategoryImageUnreadable).
			Context("width", cfg.Width).
			Context("height", cfg.Height).
			Build()
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Component("imaging").
			Category(errors.CategoryImageUnreadable).
			Context("operation", "decode_image").
			Context("size_bytes", len(data)).
			Build()
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.Newf("image has zero size").
			Component("imaging").
			Category(errors.CategoryImageUnreadable).
			Build()
	}

	return &Photo{Data: data, Format: format, Image: img}, nil
}

// DecodeFile reads and decodes an image file
func DecodeFile(path string) (*Photo, error) {
	data, err := os.ReadFile(path) //nolint:gosec // caller supplied image path
	if err != nil {
		return nil, errors.New(err).
			Component("imaging").
			Category(errors.CategoryImageUnreadable).
			FileContext(path, 0).
			Context("operation", "read_image").
			Build()
	}
	return Decode(data)
}
