package redaction

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Strength returns the mean CIE-Lab distance between before and after over
// rect. Zero means the region is unchanged; larger values mean the content
// was obscured more. Fully transparent pixels are ignored.
func Strength(before, after image.Image, rect image.Rectangle) float64 {
	rect = rect.Intersect(before.Bounds()).Intersect(after.Bounds())
	if rect.Empty() {
		return 0
	}

	total := 0.0
	n := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			c1, ok1 := colorful.MakeColor(before.At(x, y))
			c2, ok2 := colorful.MakeColor(after.At(x, y))
			if !ok1 || !ok2 {
				continue
			}
			total += c1.DistanceLab(c2)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
