//go:build gosseract

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// GosseractEnabled reports whether the in-process engine was compiled in.
const GosseractEnabled = true

// Gosseract runs Tesseract in-process through the gosseract bindings.
//
// It needs libtesseract and its headers at build time and is only
// compiled with the "gosseract" build tag.
type Gosseract struct {
	// Language is a Tesseract language code. Empty means DefaultLanguage.
	Language string

	// PageSegMode is applied when non-zero.
	PageSegMode int

	// TessdataDir overrides TESSDATA_PREFIX when set.
	TessdataDir string
}

// NewGosseract returns an in-process engine for language.
func NewGosseract(language string) (*Gosseract, error) {
	return &Gosseract{Language: language}, nil
}

// Recognize performs word-level OCR on img.
//
// The bindings cannot be interrupted, so ctx is only checked before and
// after the engine runs.
func (g *Gosseract) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("OCR interrupted: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if g.TessdataDir != "" {
		if err := client.SetTessdataPrefix(g.TessdataDir); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	lang := g.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	if err := client.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}

	if g.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(g.PageSegMode)); err != nil {
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("OCR interrupted: %w", err)
	}

	origin := img.Bounds().Min
	tokens := make([]Token, 0, len(boxes))
	for _, box := range boxes {
		tokens = append(tokens, Token{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Box:        BoxFromRect(box.Box.Add(origin)),
		})
	}

	return tokens, nil
}
