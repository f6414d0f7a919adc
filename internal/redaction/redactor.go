package redaction

import (
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/convolution"
	"go.uber.org/zap"

	"github.com/ironsheep/image-redact/internal/logger"
)

// Apply returns a copy of img with every rect Gaussian-blurred.
//
// Rects are processed in order and each blur reads the pixels left by the
// previous ones, so overlapping rects are blurred more than once. Rects are
// clipped to the image; the kernel size still comes from the unclipped
// width and height. img itself is never modified.
func Apply(img image.Image, rects []image.Rectangle) *image.RGBA {
	return NewRedactor(nil).Apply(img, rects)
}

// Redactor blurs regions of an image.
type Redactor struct {
	logger *logger.Logger
}

// NewRedactor creates a Redactor. A nil logger discards output.
func NewRedactor(log *logger.Logger) *Redactor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Redactor{logger: log.WithComponent("redaction")}
}

// Apply is the Redactor form of the package-level Apply. At debug level it
// also logs how strongly each region was obscured.
func (r *Redactor) Apply(img image.Image, rects []image.Rectangle) *image.RGBA {
	out := clone.AsRGBA(img)
	bounds := out.Bounds()
	debug := r.logger.Core().Enabled(zap.DebugLevel)

	for i, rect := range rects {
		rect = rect.Canon()
		clipped := rect.Intersect(bounds)
		if clipped.Empty() {
			r.logger.Debug("region outside image, skipped", zap.Int("region", i), zap.Stringer("rect", rect))
			continue
		}

		kx, ky := KernelSize(rect.Dx()), KernelSize(rect.Dy())
		if kx == 1 && ky == 1 {
			continue
		}

		var before image.Image
		if debug {
			before = clone.AsRGBA(out.SubImage(clipped))
		}

		blurRegion(out, clipped, kx, ky)

		if debug {
			r.logger.Debug("region blurred",
				zap.Int("region", i),
				zap.Stringer("rect", clipped),
				zap.Int("kernel_x", kx),
				zap.Int("kernel_y", ky),
				zap.Float64("strength", Strength(before, out, clipped)),
			)
		}
	}

	return out
}

// blurRegion runs a separable Gaussian blur over rect of img in place.
// Pixels outside rect are never read: the sub-image is padded by
// reflecting about its border pixels (dcb|abcd|cba).
func blurRegion(img *image.RGBA, rect image.Rectangle, kx, ky int) {
	px, py := kx/2, ky/2
	var region image.Image = reflectPad(img, rect, px, py)

	if kx > 1 {
		region = convolution.Convolve(region, rowKernel(kx), &convolution.Options{Wrap: false})
	}
	if ky > 1 {
		region = convolution.Convolve(region, rowKernel(ky).Transposed(), &convolution.Options{Wrap: false})
	}

	draw.Draw(img, rect, region, image.Pt(px, py), draw.Src)
}

// reflectPad copies rect of img into a new image at the origin with px
// columns and py rows of reflected border on each side.
func reflectPad(img *image.RGBA, rect image.Rectangle, px, py int) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w+2*px, h+2*py))

	for y := 0; y < h+2*py; y++ {
		sy := rect.Min.Y + reflect101(y-py, h)
		for x := 0; x < w+2*px; x++ {
			sx := rect.Min.X + reflect101(x-px, w)
			d := out.PixOffset(x, y)
			s := img.PixOffset(sx, sy)
			copy(out.Pix[d:d+4], img.Pix[s:s+4])
		}
	}
	return out
}

// reflect101 maps i into [0, n) by mirroring about the first and last
// index without repeating them.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		} else {
			i = 2*n - 2 - i
		}
	}
	return i
}
