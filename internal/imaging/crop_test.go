package imaging

import (
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func TestSubImage_KeepsCoordinates(t *testing.T) {
	img := createPatternImage(100, 100)

	sub, err := SubImage(img, 50, 0, 100, 50)
	if err != nil {
		t.Fatalf("SubImage failed: %v", err)
	}
	if sub.Bounds() != image.Rect(50, 0, 100, 50) {
		t.Errorf("bounds: got %v", sub.Bounds())
	}

	// (75, 25) is in the green quadrant of the parent.
	r, g, b, _ := sub.At(75, 25).RGBA()
	if r != 0 || g>>8 != 255 || b != 0 {
		t.Errorf("pixel (75,25): got (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}
}

func TestSubImage_WithoutSubImageMethod(t *testing.T) {
	// image.Uniform has no SubImage method.
	img := &boundedUniform{Uniform: image.NewUniform(color.RGBA{9, 9, 9, 255}), rect: image.Rect(0, 0, 40, 40)}

	sub, err := SubImage(img, 10, 10, 20, 30)
	if err != nil {
		t.Fatalf("SubImage failed: %v", err)
	}
	if sub.Bounds() != image.Rect(10, 10, 20, 30) {
		t.Errorf("bounds: got %v", sub.Bounds())
	}
	if r, _, _, _ := sub.At(15, 15).RGBA(); r>>8 != 9 {
		t.Errorf("pixel: got %d, want 9", r>>8)
	}
}

type boundedUniform struct {
	*image.Uniform
	rect image.Rectangle
}

func (b *boundedUniform) Bounds() image.Rectangle { return b.rect }

func TestSubImage_OutOfBounds(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"x1 negative", -1, 0, 50, 50},
		{"y1 negative", 0, -1, 50, 50},
		{"x2 too large", 0, 0, 101, 50},
		{"y2 too large", 0, 0, 50, 101},
		{"all out of bounds", -1, -1, 200, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SubImage(img, tt.x1, tt.y1, tt.x2, tt.y2); err == nil {
				t.Error("SubImage should fail for out-of-bounds coordinates")
			}
		})
	}
}

func TestSubImage_InvalidRegion(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{255, 0, 0, 255})

	tests := []struct {
		name           string
		x1, y1, x2, y2 int
	}{
		{"x1 >= x2", 50, 0, 50, 50},
		{"x1 > x2", 60, 0, 50, 50},
		{"y1 >= y2", 0, 50, 50, 50},
		{"zero area", 50, 50, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := SubImage(img, tt.x1, tt.y1, tt.x2, tt.y2); err == nil {
				t.Error("SubImage should fail for invalid region")
			}
		})
	}
}

func TestNamedRegion(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)

	tests := []struct {
		region string
		want   image.Rectangle
	}{
		{"top-left", image.Rect(0, 0, 50, 50)},
		{"top-right", image.Rect(50, 0, 100, 50)},
		{"bottom-left", image.Rect(0, 50, 50, 100)},
		{"bottom-right", image.Rect(50, 50, 100, 100)},
		{"top-half", image.Rect(0, 0, 100, 50)},
		{"bottom-half", image.Rect(0, 50, 100, 100)},
		{"left-half", image.Rect(0, 0, 50, 100)},
		{"right-half", image.Rect(50, 0, 100, 100)},
		{"center", image.Rect(25, 25, 75, 75)},
	}

	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			got, err := NamedRegion(bounds, tt.region)
			if err != nil {
				t.Fatalf("NamedRegion(%s) failed: %v", tt.region, err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNamedRegion_OffsetBounds(t *testing.T) {
	got, err := NamedRegion(image.Rect(10, 20, 110, 120), "top-left")
	if err != nil {
		t.Fatalf("NamedRegion failed: %v", err)
	}
	if got != image.Rect(10, 20, 60, 70) {
		t.Errorf("got %v", got)
	}
}

func TestNamedRegion_Invalid(t *testing.T) {
	for _, region := range []string{"invalid", "TOP-LEFT", "middle", "", "center-left"} {
		t.Run(region, func(t *testing.T) {
			if _, err := NamedRegion(image.Rect(0, 0, 10, 10), region); err == nil {
				t.Errorf("NamedRegion should fail for invalid region %q", region)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	img := createPatternImage(200, 100)

	result, err := Preview(img, 50)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if result.Width != 50 || result.Height != 25 {
		t.Errorf("dimensions: got %dx%d, want 50x25", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType: got %s, want image/png", result.MimeType)
	}

	decoded, err := base64.StdEncoding.DecodeString(result.ImageBase64)
	if err != nil {
		t.Fatalf("failed to decode base64: %v", err)
	}
	if _, err := png.Decode(strings.NewReader(string(decoded))); err != nil {
		t.Errorf("preview is not a PNG: %v", err)
	}
}

func TestPreview_NeverEnlarges(t *testing.T) {
	result, err := Preview(createPatternImage(40, 20), 400)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if result.Width != 40 || result.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 40x20", result.Width, result.Height)
	}
}
