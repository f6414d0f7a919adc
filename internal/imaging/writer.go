package imaging

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"
)

// ErrEncode is returned when a redacted image cannot be written.
var ErrEncode = errors.New("failed to write output image")

// DefaultJPEGQuality matches the quality most tools use for JPEG output.
const DefaultJPEGQuality = 95

// SaveOptions controls encoding.
type SaveOptions struct {
	// JPEGQuality ranges from 1 to 100. Zero means DefaultJPEGQuality.
	JPEGQuality int
}

// OutputPath returns where the redacted copy of input is written.
//
// With an output directory the file keeps its name: dir/name.ext. Without
// one it is written next to the input as name.blurred.ext.
func OutputPath(input, outputDir string) string {
	base := filepath.Base(input)
	if outputDir != "" {
		return filepath.Join(outputDir, base)
	}

	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(filepath.Dir(input), name+".blurred"+ext)
}

// Save encodes img to path in the format implied by its extension.
//
// The image is written to a pending file in the same directory and renamed
// over path only once it is complete. If anything fails the pending file is
// removed and path is left untouched. All errors wrap ErrEncode.
func Save(img image.Image, path string, opts SaveOptions) error {
	format, err := CanEncode(path)
	if err != nil {
		return err
	}

	quality := opts.JPEGQuality
	if quality == 0 {
		quality = DefaultJPEGQuality
	}

	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	defer pf.Cleanup()

	if err := imaging.Encode(pf, img, format, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrEncode, format, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return nil
}

// CanEncode reports the output format for path, or an error wrapping
// ErrEncode when its extension names a format that cannot be written.
func CanEncode(path string) (imaging.Format, error) {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}
	return format, nil
}
