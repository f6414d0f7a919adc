package ocr

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrEngineNotFound is returned when no Tesseract binary can be located.
	ErrEngineNotFound = errors.New("tesseract is not installed or its path is not specified")

	// ErrMalformedBox marks a token whose coordinates could not be extracted.
	ErrMalformedBox = errors.New("malformed bounding box")

	// ErrGosseractNotEnabled is returned when the in-process engine is
	// requested but the binary was built without the "gosseract" tag.
	ErrGosseractNotEnabled = errors.New("gosseract engine not enabled; rebuild with -tags gosseract")
)

// Box is an axis-aligned pixel rectangle with its origin at the top-left.
type Box struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Rect converts b to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// BoxFromRect converts an image.Rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Token is one recognized word.
type Token struct {
	// Text is the word as reported by the engine, untrimmed.
	Text string `json:"text"`

	// Confidence is the engine's confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Box is the word's bounding box in source image coordinates.
	Box Box `json:"box"`

	// Err is non-nil when the engine reported coordinates that could not be
	// parsed. Box is meaningless in that case.
	Err error `json:"-"`
}

// Oracle recognizes words in an image.
//
// Recognize blocks until the engine finishes or ctx is done. It never
// retries; any error is fatal to the caller's run.
type Oracle interface {
	Recognize(ctx context.Context, img image.Image) ([]Token, error)
}

// OracleFunc adapts an ordinary function to the Oracle interface.
type OracleFunc func(ctx context.Context, img image.Image) ([]Token, error)

// Recognize calls f(ctx, img).
func (f OracleFunc) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	return f(ctx, img)
}
