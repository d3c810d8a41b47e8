package ocr

import (
	"context"
	"strings"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"

	inktranslator "github.com/miya-dang/InkTranslator"
	"github.com/miya-dang/InkTranslator/pkg/utils"
)

// VisionClient is the slice of vision.ImageAnnotatorClient we use.
// Ref: https://pkg.go.dev/cloud.google.com/go/vision/v2/apiv1
// Kept as an interface so tests can stub the annotator.
type VisionClient interface {
	DetectDocumentText(ctx context.Context, image *visionpb.Image, imageContext *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.TextAnnotation, error)
}

// Vision extracts text with the Cloud Vision document text detector, one
// box per detected paragraph.
type Vision struct {
	client VisionClient
}

func NewVision(client VisionClient) *Vision {
	return &Vision{client: client}
}

func (v *Vision) Name() string { return "vision" }

func (v *Vision) SupportedLanguages() []inktranslator.Language { return inktranslator.Languages() }

func (v *Vision) ExtractText(ctx context.Context, imageBytes []byte, language inktranslator.Language) ([]inktranslator.TextBox, error) {
	hint := visionLanguageHint(language)
	var imageContext *visionpb.ImageContext
	if hint != "" {
		imageContext = &visionpb.ImageContext{LanguageHints: []string{hint}}
	}

	annotation, err := v.client.DetectDocumentText(ctx, &visionpb.Image{Content: imageBytes}, imageContext)
	if err != nil {
		return nil, err
	}
	return annotationToBoxes(annotation, language), nil
}

func visionLanguageHint(language inktranslator.Language) string {
	switch language {
	case inktranslator.LanguageJapanese:
		return "ja"
	case inktranslator.LanguageSimChinese:
		return "zh-Hans"
	case inktranslator.LanguageTradChinese:
		return "zh-Hant"
	case inktranslator.LanguageKorean:
		return "ko"
	case inktranslator.LanguageVietnamese:
		return "vi"
	case inktranslator.LanguageEnglish:
		return "en"
	}
	return ""
}

// annotationToBoxes flattens the pages/blocks/paragraphs hierarchy into one
// box per paragraph, joining word symbols without separators for CJK and
// with spaces otherwise.
func annotationToBoxes(annotation *visionpb.TextAnnotation, language inktranslator.Language) []inktranslator.TextBox {
	separator := " "
	if language.IsCJK() {
		separator = ""
	}

	var boxes []inktranslator.TextBox
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				words := utils.Map(paragraph.GetWords(), func(word *visionpb.Word) string {
					var sb strings.Builder
					for _, symbol := range word.GetSymbols() {
						sb.WriteString(symbol.GetText())
					}
					return sb.String()
				})
				bbox, ok := verticesToBox(paragraph.GetBoundingBox().GetVertices())
				if !ok {
					continue
				}
				boxes = append(boxes, inktranslator.TextBox{
					Text: utils.Join(words, separator),
					BBox: bbox,
				})
			}
		}
	}
	return boxes
}

func verticesToBox(vertices []*visionpb.Vertex) (inktranslator.BoundingBox, bool) {
	if len(vertices) == 0 {
		return inktranslator.BoundingBox{}, false
	}
	box := inktranslator.BoundingBox{
		X1: int(vertices[0].GetX()),
		Y1: int(vertices[0].GetY()),
		X2: int(vertices[0].GetX()),
		Y2: int(vertices[0].GetY()),
	}
	for _, v := range vertices[1:] {
		box.X1 = min(box.X1, int(v.GetX()))
		box.Y1 = min(box.Y1, int(v.GetY()))
		box.X2 = max(box.X2, int(v.GetX()))
		box.Y2 = max(box.Y2, int(v.GetY()))
	}
	return box, true
}
