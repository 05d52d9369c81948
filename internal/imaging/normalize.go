// Package imaging prepares uploaded photos for the model.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/apex/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MIMEType is the encoding every normalized image is sent with.
	MIMEType = "image/jpeg"

	maxImageDimension = 1536
	imageQuality      = 85
)

// ErrUnsupportedImage is returned when the bytes are not a decodable image.
var ErrUnsupportedImage = errors.New("unsupported image encoding")

// Normalize returns a JPEG no larger than maxImageDimension on either side.
// JPEGs already within bounds are returned unchanged.
func Normalize(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if format == "jpeg" && width <= maxImageDimension && height <= maxImageDimension {
		return data, nil
	}

	dst := img
	if width > maxImageDimension || height > maxImageDimension {
		newWidth, newHeight := fit(width, height, maxImageDimension)
		scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)
		dst = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: imageQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	log.WithFields(log.Fields{
		"format":   format,
		"original": fmt.Sprintf("%dx%d", width, height),
		"result":   fmt.Sprintf("%dx%d", dst.Bounds().Dx(), dst.Bounds().Dy()),
		"bytes":    buf.Len(),
	}).Debug("Normalized image")
	return buf.Bytes(), nil
}

// fit scales width and height so the larger side equals limit, keeping the aspect ratio.
func fit(width, height, limit int) (int, int) {
	if width >= height {
		h := height * limit / width
		if h < 1 {
			h = 1
		}
		return limit, h
	}
	w := width * limit / height
	if w < 1 {
		w = 1
	}
	return w, limit
}
