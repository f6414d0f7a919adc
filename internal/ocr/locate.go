package ocr

import (
	"fmt"
	"os"
	"os/exec"
)

// DefaultBinary is the executable name searched on PATH.
const DefaultBinary = "tesseract"

// Well-known install locations checked after PATH.
var defaultPaths = []string{
	`C:\Program Files\Tesseract-OCR\tesseract.exe`,
	`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
}

var lookPath = exec.LookPath

// Locate returns the Tesseract binary to run.
//
// An explicit path wins when it names an existing file. Otherwise the
// binary is looked up on PATH, then in the default install locations.
// The error wraps ErrEngineNotFound.
func Locate(explicit string) (string, error) {
	if explicit != "" && isFile(explicit) {
		return explicit, nil
	}
	if p, err := lookPath(DefaultBinary); err == nil {
		return p, nil
	}
	for _, p := range defaultPaths {
		if isFile(p) {
			return p, nil
		}
	}
	if explicit != "" {
		return "", fmt.Errorf("%w: %s does not exist; install it or use the -b/--bin option", ErrEngineNotFound, explicit)
	}
	return "", fmt.Errorf("%w; install it or use the -b/--bin option", ErrEngineNotFound)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
