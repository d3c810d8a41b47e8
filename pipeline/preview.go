package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// Preview is a dry run: the detected boxes drawn and numbered on the
// original image, plus the recognized text in reading order, without
// translating or repainting anything.
type Preview struct {
	Image []byte
	Boxes []inktranslator.TextBox
}

// DetectOnly runs OCR and returns an annotated preview image.
func (p *Pipeline) DetectOnly(ctx context.Context, imageBytes []byte, from inktranslator.Language) (*Preview, error) {
	if !from.Valid() {
		return nil, p.fail(StageInitialized, fmt.Errorf("unsupported language %q", from))
	}
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, p.fail(StageInitialized, err)
	}

	p.notify(StageOCR, "")
	boxes, err := p.ocr.Detect(ctx, imageBytes, from)
	if err != nil {
		return nil, p.fail(StageOCR, err)
	}
	if len(boxes) == 0 {
		return nil, p.fail(StageOCR, ErrNoTextDetected)
	}
	sortReadingOrder(boxes, from)

	annotated, err := drawBoxNumbers(img, boxes)
	if err != nil {
		return nil, p.fail(StageOCR, err)
	}
	return &Preview{Image: annotated, Boxes: boxes}, nil
}

// drawBoxNumbers outlines each box in blue and writes its reading-order
// index in red above the top-left corner.
func drawBoxNumbers(img image.Image, boxes []inktranslator.TextBox) ([]byte, error) {
	ctx := gg.NewContextForImage(img)

	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	ctx.SetFontFace(truetype.NewFace(parsed, &truetype.Options{Size: 20, DPI: 72}))

	for i, box := range boxes {
		b := box.BBox
		ctx.SetRGB(0, 0, 1)
		ctx.SetLineWidth(3)
		ctx.DrawRectangle(float64(b.X1), float64(b.Y1), float64(b.Width()), float64(b.Height()))
		ctx.Stroke()

		ctx.SetRGB(1, 0, 0)
		ctx.DrawString(fmt.Sprintf("%d", i+1), float64(b.X1), float64(b.Y1)-1)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, ctx.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
