package imaging

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG export quality used when the caller passes 0.
const DefaultQuality = 0.92

// ErrUnknownFormat is returned for export formats other than PNG and JPEG.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat maps a user supplied name ("png", "jpg", "jpeg", case
// insensitive) to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png", "":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// MimeType returns the MIME type of the format.
func (f Format) MimeType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Decode reads any registered image format (PNG, JPEG, GIF, BMP, TIFF) and
// returns it as NRGBA anchored at the origin. EXIF orientation is applied so
// that the bitmap matches what a browser would display.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return imaging.Clone(img), nil
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format detected from the file extension: "png", "jpeg",
	// "gif", "bmp", "tiff" or "unknown".
	Format string `json:"format"`

	// HasAlpha indicates whether any pixel is not fully opaque.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// DecodeFile opens and decodes an image file, returning its pixels and
// metadata.
//
// # Errors
//
//   - Returns error if the file does not exist or cannot be read
//   - Returns error if the file is not a decodable image
func DecodeFile(path string) (*image.NRGBA, *ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	img, err := Decode(f)
	if err != nil {
		return nil, nil, err
	}

	format := "unknown"
	if ff, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(ff.String())
	}

	return img, &ImageInfo{
		Width:         img.Rect.Dx(),
		Height:        img.Rect.Dy(),
		Format:        format,
		HasAlpha:      !img.Opaque(),
		FileSizeBytes: stat.Size(),
	}, nil
}

// Encode writes img in the given format. quality is in (0, 1] and only
// affects JPEG; values outside that range fall back to DefaultQuality.
func Encode(w io.Writer, img image.Image, format Format, quality float64) error {
	var err error
	switch format {
	case FormatPNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case FormatJPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality)))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// jpegQuality converts a 0..1 quality factor into the 1..100 scale used by
// image/jpeg.
func jpegQuality(q float64) int {
	if q <= 0 || q > 1 || math.IsNaN(q) {
		q = DefaultQuality
	}
	v := int(math.Round(q * 100))
	if v < 1 {
		v = 1
	}
	return v
}
