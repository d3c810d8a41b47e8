package ocr

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"

	inktranslator "github.com/miya-dang/InkTranslator"
)

// DocumentAIClient is the slice of documentai.DocumentProcessorClient we use.
// Ref: https://pkg.go.dev/cloud.google.com/go/documentai
// Kept as an interface so tests can stub the processor.
type DocumentAIClient interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
}

// DocumentAISpec identifies the OCR processor to call.
type DocumentAISpec struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

// DocumentAI extracts text with a Document AI OCR processor, one box per
// document paragraph.
type DocumentAI struct {
	client DocumentAIClient
	spec   DocumentAISpec
}

func NewDocumentAI(client DocumentAIClient, spec DocumentAISpec) *DocumentAI {
	return &DocumentAI{client: client, spec: spec}
}

func (d *DocumentAI) Name() string { return "documentai" }

func (d *DocumentAI) SupportedLanguages() []inktranslator.Language {
	return inktranslator.Languages()
}

func (d *DocumentAI) ExtractText(ctx context.Context, imageBytes []byte, language inktranslator.Language) ([]inktranslator.TextBox, error) {
	request := &documentaipb.ProcessRequest{
		Name: fmt.Sprintf("projects/%s/locations/%s/processors/%s", d.spec.ProjectID, d.spec.Location, d.spec.ProcessorID),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  imageBytes,
				MimeType: "image/png",
			},
		},
	}
	response, err := d.client.ProcessDocument(ctx, request)
	if err != nil {
		return nil, err
	}
	return documentToBoxes(response.GetDocument()), nil
}

func documentToBoxes(document *documentaipb.Document) []inktranslator.TextBox {
	var boxes []inktranslator.TextBox
	for _, page := range document.GetPages() {
		width := int(page.GetDimension().GetWidth())
		height := int(page.GetDimension().GetHeight())
		for _, paragraph := range page.GetParagraphs() {
			layout := paragraph.GetLayout()
			text := anchorText(document.GetText(), layout.GetTextAnchor())
			bbox, ok := polyToBox(layout.GetBoundingPoly(), width, height)
			if !ok {
				continue
			}
			boxes = append(boxes, inktranslator.TextBox{
				Text: strings.TrimSpace(text),
				BBox: bbox,
			})
		}
	}
	return boxes
}

// anchorText resolves a text anchor's segments against the document's full
// text.
func anchorText(full string, anchor *documentaipb.Document_TextAnchor) string {
	var sb strings.Builder
	for _, segment := range anchor.GetTextSegments() {
		start := int(segment.GetStartIndex())
		end := int(segment.GetEndIndex())
		if start < 0 || end > len(full) || start >= end {
			continue
		}
		sb.WriteString(full[start:end])
	}
	return sb.String()
}

// polyToBox prefers absolute vertices and falls back to normalized ones
// scaled by the page dimension.
func polyToBox(poly *documentaipb.BoundingPoly, pageWidth, pageHeight int) (inktranslator.BoundingBox, bool) {
	if vertices := poly.GetVertices(); len(vertices) > 0 {
		box := inktranslator.BoundingBox{
			X1: int(vertices[0].GetX()), Y1: int(vertices[0].GetY()),
			X2: int(vertices[0].GetX()), Y2: int(vertices[0].GetY()),
		}
		for _, v := range vertices[1:] {
			box.X1 = min(box.X1, int(v.GetX()))
			box.Y1 = min(box.Y1, int(v.GetY()))
			box.X2 = max(box.X2, int(v.GetX()))
			box.Y2 = max(box.Y2, int(v.GetY()))
		}
		return box, true
	}
	normalized := poly.GetNormalizedVertices()
	if len(normalized) == 0 {
		return inktranslator.BoundingBox{}, false
	}
	box := inktranslator.BoundingBox{
		X1: int(normalized[0].GetX() * float32(pageWidth)),
		Y1: int(normalized[0].GetY() * float32(pageHeight)),
		X2: int(normalized[0].GetX() * float32(pageWidth)),
		Y2: int(normalized[0].GetY() * float32(pageHeight)),
	}
	for _, v := range normalized[1:] {
		x := int(v.GetX() * float32(pageWidth))
		y := int(v.GetY() * float32(pageHeight))
		box.X1 = min(box.X1, x)
		box.Y1 = min(box.Y1, y)
		box.X2 = max(box.X2, x)
		box.Y2 = max(box.Y2, y)
	}
	return box, true
}
