//go:build !gosseract

package ocr

import (
	"context"
	"image"
)

// GosseractEnabled reports whether the in-process engine was compiled in.
const GosseractEnabled = false

// Gosseract is a stub that fails on every call.
type Gosseract struct {
	Language    string
	PageSegMode int
	TessdataDir string
}

// NewGosseract always fails with ErrGosseractNotEnabled.
func NewGosseract(language string) (*Gosseract, error) {
	return nil, ErrGosseractNotEnabled
}

// Recognize always fails with ErrGosseractNotEnabled.
func (g *Gosseract) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	return nil, ErrGosseractNotEnabled
}
