package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

func tinyImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func TestDataURLKeepsPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, tinyImage()); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	url, err := NewEncoder().DataURL(buf.Bytes())
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Fatalf("unexpected prefix: %s", url[:30])
	}
}

func TestDataURLLabelsUnsupportedFormatsAsJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, tinyImage()); err != nil {
		t.Fatalf("encode bmp: %v", err)
	}
	format, err := Format(buf.Bytes())
	if err != nil || format != "bmp" {
		t.Fatalf("expected bmp sniff, got %q, %v", format, err)
	}
	url, err := NewEncoder().DataURL(buf.Bytes())
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if !strings.HasPrefix(url, "data:image/jpeg;base64,") {
		t.Fatalf("expected jpeg label, got %s", url[:30])
	}
}

func TestDataURLRejectsNonImages(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("%PDF-1.4 not an image")} {
		if _, err := NewEncoder().DataURL(data); !errors.Is(err, ErrNotImage) {
			t.Fatalf("expected ErrNotImage, got %v", err)
		}
	}
}
