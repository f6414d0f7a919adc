package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Tesseract runs the tesseract command-line program and parses its TSV output.
type Tesseract struct {
	// Binary is the path to the tesseract executable. Use Locate to find it.
	Binary string

	// Language is a Tesseract language code such as "eng" or "fra+eng".
	// Empty means DefaultLanguage.
	Language string

	// PageSegMode is passed as --psm when non-zero.
	PageSegMode int

	// TessdataDir is passed as --tessdata-dir when set.
	TessdataDir string
}

// NewTesseract returns a CLI engine for the given binary and language.
func NewTesseract(binary, language string) *Tesseract {
	return &Tesseract{Binary: binary, Language: language}
}

// Recognize performs word-level OCR on img.
//
// The image is written to a temporary PNG for the engine and deleted
// afterwards. Bounding boxes are relative to img's top-left corner shifted
// by img.Bounds().Min, so they address pixels of img directly.
//
// The engine runs under ctx; cancelling ctx kills the process.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	if t.Binary == "" {
		return nil, ErrEngineNotFound
	}

	tmpFile, err := os.CreateTemp("", "ocr-input-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp image: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.Binary, t.args(tmpPath)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("OCR interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("OCR failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	tokens, err := ParseTSV(&stdout)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	if origin := img.Bounds().Min; origin != (image.Point{}) {
		for i := range tokens {
			tokens[i].Box.X += origin.X
			tokens[i].Box.Y += origin.Y
		}
	}

	return tokens, nil
}

func (t *Tesseract) args(imagePath string) []string {
	lang := t.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	args := []string{imagePath, "stdout", "-l", lang}
	if t.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PageSegMode))
	}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	return append(args, "tsv")
}

// Version returns the first line of `tesseract --version`.
func Version(ctx context.Context, binary string) (string, error) {
	out, err := exec.CommandContext(ctx, binary, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to query tesseract version: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	return "", fmt.Errorf("empty version output")
}
