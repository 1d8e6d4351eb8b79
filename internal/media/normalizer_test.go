package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 10 {
		for x := 0; x < w; x += 10 {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeResizesToTargetHeight(t *testing.T) {
	n := NewNormalizer(DefaultTargetHeight, DefaultQuality)

	out, err := n.Normalize(encodePNG(t, 1800, 1200))
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if cfg.Width != 1350 || cfg.Height != 900 {
		t.Errorf("size = %dx%d, want 1350x900", cfg.Width, cfg.Height)
	}
}

func TestNormalizeUpscalesSmallImages(t *testing.T) {
	n := NewNormalizer(300, 80)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 100, 50)), nil); err != nil {
		t.Fatal(err)
	}
	out, err := n.Normalize(buf.Bytes())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 600 || cfg.Height != 300 {
		t.Errorf("size = %dx%d, want 600x300", cfg.Width, cfg.Height)
	}
}

func TestNormalizeRejectsNonImages(t *testing.T) {
	n := NewNormalizer(0, 0)
	_, err := n.Normalize([]byte("%PDF-1.4 not an image"))
	if !errors.Is(err, ErrUnsupportedImageFormat) {
		t.Errorf("Normalize() error = %v, want ErrUnsupportedImageFormat", err)
	}
}

func TestIsAllowedEventMedia(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"poster.jpg", true},
		{"poster.JPEG", true},
		{"clip.Mp4", true},
		{"clip.webm", true},
		{"anim.gif", true},
		{"brochure.pdf", false},
		{"script.exe", false},
		{"noext", false},
		{"jpg", false},
	}
	for _, tt := range tests {
		if got := IsAllowedEventMedia(tt.filename); got != tt.want {
			t.Errorf("IsAllowedEventMedia(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}
