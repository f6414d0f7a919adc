package ocr

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/shirou/gopsutil/v3/mem"
)

// availableMemory reports the bytes the host can still hand out.
var availableMemory = func() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return v.Available, nil
}

// upscaleCopies is how many full-size NRGBA buffers exist at once while
// resizing: the grayscale or cloned source and the resized result.
const upscaleCopies = 2

// Upscaled preprocesses the image before handing it to Oracle, then maps the
// returned boxes back to the original image.
//
// Tesseract misses small glyphs; enlarging screenshots two or three times
// is often enough for it to pick up addresses it would otherwise skip.
type Upscaled struct {
	Oracle Oracle

	// Factor enlarges the image when greater than 1.
	Factor float64

	// Grayscale converts the image to grayscale first.
	Grayscale bool
}

// Recognize implements Oracle.
func (u Upscaled) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	bounds := img.Bounds()
	if (u.Factor <= 1 && !u.Grayscale) || bounds.Empty() {
		return u.Oracle.Recognize(ctx, img)
	}

	src := image.Image(imaging.Clone(img))
	if u.Grayscale {
		src = imaging.Grayscale(src)
	}
	if factor := fitFactor(u.Factor, bounds); factor > 1 {
		w := int(math.Round(float64(bounds.Dx()) * factor))
		src = imaging.Resize(src, w, 0, imaging.Lanczos)
	}

	tokens, err := u.Oracle.Recognize(ctx, src)
	if err != nil {
		return nil, err
	}

	fx := float64(src.Bounds().Dx()) / float64(bounds.Dx())
	fy := float64(src.Bounds().Dy()) / float64(bounds.Dy())
	for i := range tokens {
		if tokens[i].Err != nil {
			continue
		}
		tokens[i].Box = scaleBox(tokens[i].Box, fx, fy, bounds.Min)
	}

	return tokens, nil
}

// fitFactor lowers factor so the enlarged copies fit in half the available
// memory. It never returns less than 1. When memory cannot be queried the
// factor is used as is.
func fitFactor(factor float64, bounds image.Rectangle) float64 {
	if factor <= 1 {
		return factor
	}
	avail, err := availableMemory()
	if err != nil || avail == 0 {
		return factor
	}

	pixels := float64(bounds.Dx()) * float64(bounds.Dy())
	budget := float64(avail) / 2
	need := pixels * 4 * upscaleCopies * factor * factor
	if need <= budget {
		return factor
	}
	return math.Max(1, math.Sqrt(budget/(pixels*4*upscaleCopies)))
}

// scaleBox divides b by the scale factors, growing outward so the result
// still covers every source pixel the scaled box touched.
func scaleBox(b Box, fx, fy float64, origin image.Point) Box {
	x0 := int(math.Floor(float64(b.X) / fx))
	y0 := int(math.Floor(float64(b.Y) / fy))
	x1 := int(math.Ceil(float64(b.X+b.Width) / fx))
	y1 := int(math.Ceil(float64(b.Y+b.Height) / fy))
	return Box{X: x0 + origin.X, Y: y0 + origin.Y, Width: x1 - x0, Height: y1 - y0}
}
