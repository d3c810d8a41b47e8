// Package render draws translated text back onto cleaned images.
package render

import (
	"fmt"
	"image"
	"log"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	inktranslator "github.com/miya-dang/InkTranslator"
	"github.com/miya-dang/InkTranslator/layout"
)

// outlineWidth is the pixel offset of the contrast outline drawn around
// every glyph.
const outlineWidth = 2

// Renderer draws text boxes onto an image using the layout engine's font
// sizing and placement.
type Renderer struct {
	layout *layout.Engine
}

func New(layoutEngine *layout.Engine) *Renderer {
	return &Renderer{layout: layoutEngine}
}

// Render draws the display text of every box onto a copy of img. Boxes
// whose layout fails are logged and left blank rather than failing the
// whole image.
func (r *Renderer) Render(img image.Image, boxes []inktranslator.TextBox, language inktranslator.Language) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("render: nil image")
	}
	ctx := gg.NewContextForImage(img)

	for i, box := range boxes {
		text := box.DisplayText()
		if text == "" {
			continue
		}
		if err := box.BBox.Validate(); err != nil {
			log.Printf("Skipping box %d: %v", i, err)
			continue
		}
		var err error
		if language.Direction() == inktranslator.DirectionTTB {
			err = r.drawVertical(ctx, img, text, box.BBox, language)
		} else {
			err = r.drawHorizontal(ctx, img, text, box.BBox, language)
		}
		if err != nil {
			log.Printf("Failed to render box %d: %v", i, err)
		}
	}
	return ctx.Image(), nil
}

func (r *Renderer) drawHorizontal(ctx *gg.Context, img image.Image, text string, bbox inktranslator.BoundingBox, language inktranslator.Language) error {
	res, err := r.layout.Layout(text, bbox, language, layout.AlignCenter)
	if err != nil {
		return err
	}
	face, err := r.layout.Fonts().Face(language, res.FontSize)
	if err != nil {
		return err
	}
	ctx.SetFontFace(face)

	fill, outline := textColors(img, bbox)
	for i, line := range res.Lines {
		p := res.Positions[i]
		baseline := float64(p.Y + res.LineHeight)
		drawOutlined(ctx, line, float64(p.X), baseline, fill, outline)
	}
	return nil
}

func (r *Renderer) drawVertical(ctx *gg.Context, img image.Image, text string, bbox inktranslator.BoundingBox, language inktranslator.Language) error {
	res, err := r.layout.LayoutVertical(text, bbox, language)
	if err != nil {
		return err
	}
	face, err := r.layout.Fonts().Face(language, res.FontSize)
	if err != nil {
		return err
	}
	ctx.SetFontFace(face)

	fill, outline := textColors(img, bbox)
	for _, col := range res.Columns {
		y := float64(col.Y)
		for _, ch := range col.Text {
			y += float64(res.CharHeight)
			if y > float64(bbox.Y2) {
				break
			}
			drawOutlined(ctx, string(ch), float64(col.X), y, fill, outline)
			y += float64(res.CharSpacing)
		}
	}
	return nil
}

// drawOutlined draws text with a four-direction outline under the fill so
// glyphs stay readable over uneven backgrounds.
func drawOutlined(ctx *gg.Context, text string, x, y float64, fill, outline colorful.Color) {
	ctx.SetRGB(outline.R, outline.G, outline.B)
	for _, d := range [][2]float64{{-outlineWidth, 0}, {outlineWidth, 0}, {0, -outlineWidth}, {0, outlineWidth}} {
		ctx.DrawString(text, x+d[0], y+d[1])
	}
	ctx.SetRGB(fill.R, fill.G, fill.B)
	ctx.DrawString(text, x, y)
}

// textColors picks black-on-white or white-on-black from the average
// luminance of the box region, so text over dark panels stays visible.
func textColors(img image.Image, bbox inktranslator.BoundingBox) (fill, outline colorful.Color) {
	black := colorful.Color{}
	white := colorful.Color{R: 1, G: 1, B: 1}

	if averageLuminance(img, bbox) < 0.35 {
		return white, black
	}
	return black, white
}

// averageLuminance samples the box region on a coarse grid and returns the
// mean perceived luminance in [0, 1].
func averageLuminance(img image.Image, bbox inktranslator.BoundingBox) float64 {
	bounds := img.Bounds()
	step := max(1, bbox.Width()/16)
	var sum float64
	var n int
	for y := bbox.Y1; y < bbox.Y2; y += step {
		for x := bbox.X1; x < bbox.X2; x += step {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			_, _, l := c.Hsl()
			sum += l
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}
