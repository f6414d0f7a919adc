// Package ocr finds words and their bounding boxes in an image using Tesseract.
//
// Every engine implements Oracle. Two engines are available:
//
//   - Tesseract: runs the tesseract program and parses its TSV output.
//     Use Locate to find the binary.
//   - Gosseract: in-process bindings via gosseract/v2, compiled only with
//     the "gosseract" build tag (needs libtesseract headers).
//
// Upscaled wraps any Oracle to enlarge or grayscale the image first. The
// enlargement shrinks when the host is short of memory.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Coordinates
//
// Token boxes are in pixels of the image passed to Recognize, origin
// top-left, as (x, y, width, height).
//
// # Error Handling
//
// Engine failures (missing binary, bad language, crash, cancellation) are
// returned as errors and end the run. A word row whose coordinates cannot
// be parsed is not an error: its Token carries Err wrapping ErrMalformedBox
// and callers skip it.
package ocr
