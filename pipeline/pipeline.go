// Package pipeline runs the full image translation flow: detect text,
// translate it, erase the originals and draw the translations back on.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"sort"

	inktranslator "github.com/miya-dang/InkTranslator"
	"github.com/miya-dang/InkTranslator/archive"
	"github.com/miya-dang/InkTranslator/inpaint"
	"github.com/miya-dang/InkTranslator/layout"
	"github.com/miya-dang/InkTranslator/ocr"
	"github.com/miya-dang/InkTranslator/pkg/utils"
	"github.com/miya-dang/InkTranslator/render"
	"github.com/miya-dang/InkTranslator/translate"
)

// maxImageBytes is the request payload limit of the Vision API.
const maxImageBytes = 20 << 20

// minImageDim is the smallest edge that can still hold readable text.
const minImageDim = 10

// decodeImage validates and decodes the input bytes.
func decodeImage(imageBytes []byte) (image.Image, error) {
	if len(imageBytes) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if len(imageBytes) > maxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", len(imageBytes), maxImageBytes)
	}
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() < minImageDim || b.Dy() < minImageDim {
		return nil, fmt.Errorf("image is %dx%d, too small to process", b.Dx(), b.Dy())
	}
	return img, nil
}

// Pipeline wires the processing stages together. Safe for concurrent use
// as long as its collaborators are.
type Pipeline struct {
	ocr       *ocr.Manager
	engine    *translate.Engine
	inpainter inpaint.Inpainter
	renderer  *render.Renderer
	archive   archive.Archiver
	progress  ProgressFunc
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithArchive stores before/after snapshots of every run.
func WithArchive(a archive.Archiver) Option {
	return func(p *Pipeline) { p.archive = a }
}

// WithProgress registers a status callback invoked at each stage change.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

func New(ocrManager *ocr.Manager, engine *translate.Engine, inpainter inpaint.Inpainter, renderer *render.Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		ocr:       ocrManager,
		engine:    engine,
		inpainter: inpainter,
		renderer:  renderer,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Result is a completed run: the rendered image and the boxes with both
// original and translated text.
type Result struct {
	Image []byte
	Boxes []inktranslator.TextBox
	Stage ProcessingStage
}

// Process translates every detected text region of the image from one
// language to another and returns the re-rendered image as PNG. Translation
// provider failures degrade to the original text; OCR, inpainting and
// rendering failures abort with a ProcessingError naming the stage.
func (p *Pipeline) Process(ctx context.Context, imageBytes []byte, from, to inktranslator.Language) (*Result, error) {
	p.notify(StageInitialized, "")

	if !from.Valid() || !to.Valid() {
		return nil, p.fail(StageInitialized, fmt.Errorf("unsupported language pair %q -> %q", from, to))
	}
	img, err := decodeImage(imageBytes)
	if err != nil {
		return nil, p.fail(StageInitialized, err)
	}
	p.archiveImage(ctx, "before", imageBytes)

	p.notify(StageOCR, "")
	boxes, err := p.ocr.Detect(ctx, imageBytes, from)
	if err != nil {
		return nil, p.fail(StageOCR, err)
	}
	if len(boxes) == 0 {
		return nil, p.fail(StageOCR, ErrNoTextDetected)
	}
	sortReadingOrder(boxes, from)

	p.notify(StageTranslation, fmt.Sprintf("%d boxes", len(boxes)))
	p.translateBoxes(ctx, boxes, from, to)

	p.notify(StageInpainting, "")
	cleaned, err := p.inpainter.Inpaint(ctx, img, boxes)
	if err != nil {
		return nil, p.fail(StageInpainting, err)
	}

	p.notify(StageRendering, "")
	bounds := img.Bounds()
	placed := layout.ResolveOverlaps(boxes, bounds.Dx(), bounds.Dy())
	rendered, err := p.renderer.Render(cleaned, placed, to)
	if err != nil {
		return nil, p.fail(StageRendering, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, rendered); err != nil {
		return nil, p.fail(StageRendering, fmt.Errorf("encoding result: %w", err))
	}
	p.archiveImage(ctx, "after", buf.Bytes())

	p.notify(StageCompleted, "")
	return &Result{Image: buf.Bytes(), Boxes: placed, Stage: StageCompleted}, nil
}

// translateBoxes fills TranslatedText on every box. It first packs all box
// texts into one tagged query so a single provider call keeps phrasing
// consistent across the page, then falls back to a per-box batch, then to
// sentence distribution. When every provider is exhausted the originals are
// kept and the run carries on.
func (p *Pipeline) translateBoxes(ctx context.Context, boxes []inktranslator.TextBox, from, to inktranslator.Language) {
	texts := utils.Map(boxes, func(box inktranslator.TextBox) string { return box.Text })

	translated, err := p.engine.Translate(ctx, packMarked(texts), from, to)
	if err != nil {
		var exhausted *translate.ExhaustedError
		if errors.As(err, &exhausted) {
			log.Printf("All translation providers failed, keeping original text: %v", err)
			keepOriginals(boxes)
			return
		}
		log.Printf("Failed to translate packed query: %v", err)
		p.translatePerBox(ctx, boxes, texts, from, to)
		return
	}

	segments, ok := unpackMarked(translated, len(boxes))
	if !ok {
		log.Printf("Markers lost in translation, distributing sentences across %d boxes", len(boxes))
		segments = distributeSentences(translated, len(boxes))
	}
	assignTranslations(boxes, segments)
}

func (p *Pipeline) translatePerBox(ctx context.Context, boxes []inktranslator.TextBox, texts []string, from, to inktranslator.Language) {
	translations, err := p.engine.TranslateBatch(ctx, texts, from, to)
	if err != nil {
		log.Printf("All translation providers failed, keeping original text: %v", err)
		keepOriginals(boxes)
		return
	}
	assignTranslations(boxes, translations)
}

// assignTranslations writes each translation to its box, substituting the
// original text for empty slots so every box leaves the stage readable.
func assignTranslations(boxes []inktranslator.TextBox, translations []string) {
	for i := range boxes {
		if translations[i] == "" {
			boxes[i].TranslatedText = boxes[i].Text
			continue
		}
		boxes[i].TranslatedText = translations[i]
	}
}

func keepOriginals(boxes []inktranslator.TextBox) {
	for i := range boxes {
		boxes[i].TranslatedText = boxes[i].Text
	}
}

// sortReadingOrder orders boxes the way a reader scans the page: top to
// bottom, and within a row right to left for right-to-left scripts.
func sortReadingOrder(boxes []inktranslator.TextBox, language inktranslator.Language) {
	rtl := language.ReadsRightToLeft()
	sort.SliceStable(boxes, func(i, j int) bool {
		if boxes[i].BBox.Y1 != boxes[j].BBox.Y1 {
			return boxes[i].BBox.Y1 < boxes[j].BBox.Y1
		}
		if rtl {
			return boxes[i].BBox.X1 > boxes[j].BBox.X1
		}
		return boxes[i].BBox.X1 < boxes[j].BBox.X1
	})
}

func (p *Pipeline) notify(stage ProcessingStage, detail string) {
	if p.progress != nil {
		p.progress(Status{Stage: stage, Detail: detail})
	}
}

// fail reports the error to the progress sink and wraps it with the stage
// that produced it.
func (p *Pipeline) fail(stage ProcessingStage, err error) error {
	p.notify(StageError, err.Error())
	return stageError(stage, err)
}

func (p *Pipeline) archiveImage(ctx context.Context, label string, data []byte) {
	if p.archive != nil {
		p.archive.SaveImage(ctx, label, data)
	}
}
