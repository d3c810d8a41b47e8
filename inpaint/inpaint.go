// Package inpaint removes detected text regions from images before the
// translated text is drawn back on.
package inpaint

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// maskPadding widens every text region so glyph edges and anti-aliasing
// halos are removed along with the text.
const maskPadding = 3

// Inpainter erases the given regions from an image and returns the cleaned
// copy. Implementations must not modify the input image.
type Inpainter interface {
	Inpaint(ctx context.Context, img image.Image, boxes []inktranslator.TextBox) (image.Image, error)
}

// BorderFill is the local inpainter: each padded region is filled with the
// average color sampled along the region's outer border. Good enough for
// flat speech-bubble backgrounds, which is the common case.
type BorderFill struct{}

func NewBorderFill() *BorderFill { return &BorderFill{} }

func (f *BorderFill) Inpaint(_ context.Context, img image.Image, boxes []inktranslator.TextBox) (image.Image, error) {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)

	for _, box := range boxes {
		rect := paddedRect(box.BBox, bounds)
		if rect.Empty() {
			continue
		}
		fill := borderColor(img, rect)
		draw.Draw(out, rect, &image.Uniform{C: fill}, image.Point{}, draw.Src)
	}
	return out, nil
}

// paddedRect grows the box by the mask padding and clamps it to the image.
func paddedRect(bbox inktranslator.BoundingBox, bounds image.Rectangle) image.Rectangle {
	return image.Rect(
		max(bbox.X1-maskPadding, bounds.Min.X),
		max(bbox.Y1-maskPadding, bounds.Min.Y),
		min(bbox.X2+maskPadding, bounds.Max.X),
		min(bbox.Y2+maskPadding, bounds.Max.Y),
	).Intersect(bounds)
}

// borderColor averages the pixels one step outside rect, falling back to
// the rect's own edge pixels at the image boundary.
func borderColor(img image.Image, rect image.Rectangle) color.Color {
	ring := rect.Inset(-1).Intersect(img.Bounds())

	var r, g, b, n uint64
	sample := func(x, y int) {
		cr, cg, cb, _ := img.At(x, y).RGBA()
		r += uint64(cr)
		g += uint64(cg)
		b += uint64(cb)
		n++
	}
	for x := ring.Min.X; x < ring.Max.X; x++ {
		sample(x, ring.Min.Y)
		sample(x, ring.Max.Y-1)
	}
	for y := ring.Min.Y + 1; y < ring.Max.Y-1; y++ {
		sample(ring.Min.X, y)
		sample(ring.Max.X-1, y)
	}
	if n == 0 {
		return color.White
	}
	return color.RGBA64{
		R: uint16(r / n),
		G: uint16(g / n),
		B: uint16(b / n),
		A: 0xffff,
	}
}

// maskImage builds the white-on-transparent mask a remote inpainting model
// expects, one padded rectangle per box.
func maskImage(bounds image.Rectangle, boxes []inktranslator.TextBox) *image.RGBA {
	mask := image.NewRGBA(bounds)
	draw.Draw(mask, bounds, image.Transparent, image.Point{}, draw.Src)
	for _, box := range boxes {
		draw.Draw(mask, paddedRect(box.BBox, bounds), image.White, image.Point{}, draw.Src)
	}
	return mask
}
