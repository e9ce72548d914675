// Package imaging converts uploaded images into data URLs for multimodal prompts.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrNotImage is returned for bytes no registered decoder recognizes.
var ErrNotImage = errors.New("not a decodable image")

var passthroughFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Format reports the sniffed image format, or ErrNotImage.
func Format(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrNotImage
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return format, nil
}

// DataURL returns data:image/<fmt>;base64,... Formats other than jpeg, png,
// gif and webp are labelled image/jpeg.
func (e *Encoder) DataURL(data []byte) (string, error) {
	format, err := Format(data)
	if err != nil {
		return "", err
	}
	if !passthroughFormats[format] {
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
