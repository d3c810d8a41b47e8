package inktranslator

import (
	"fmt"
	"strings"
)

// BoundingBox is an integer rectangle in image coordinates, with (X1, Y1)
// the top-left corner and (X2, Y2) the bottom-right corner, exclusive.
// Boxes are replaced wholesale rather than mutated.
type BoundingBox struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

func (b BoundingBox) Width() int   { return b.X2 - b.X1 }
func (b BoundingBox) Height() int  { return b.Y2 - b.Y1 }
func (b BoundingBox) CenterX() int { return (b.X1 + b.X2) / 2 }
func (b BoundingBox) CenterY() int { return (b.Y1 + b.Y2) / 2 }

// Validate checks the rectangle invariant x1 < x2, y1 < y2.
func (b BoundingBox) Validate() error {
	if b.X1 >= b.X2 || b.Y1 >= b.Y2 {
		return fmt.Errorf("degenerate bounding box (%d,%d)-(%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
	}
	return nil
}

// Translated returns a copy of the box shifted by (dx, dy).
func (b BoundingBox) Translated(dx, dy int) BoundingBox {
	return BoundingBox{X1: b.X1 + dx, Y1: b.Y1 + dy, X2: b.X2 + dx, Y2: b.Y2 + dy}
}

// Overlaps reports whether the two rectangles intersect.
func (b BoundingBox) Overlaps(other BoundingBox) bool {
	return !(b.X2 < other.X1 || other.X2 < b.X1 || b.Y2 < other.Y1 || other.Y2 < b.Y1)
}

// Union returns the smallest rectangle covering both boxes.
func (b BoundingBox) Union(other BoundingBox) BoundingBox {
	return BoundingBox{
		X1: min(b.X1, other.X1),
		Y1: min(b.Y1, other.Y1),
		X2: max(b.X2, other.X2),
		Y2: max(b.Y2, other.Y2),
	}
}

// TextBox is one detected text region. Text is set by OCR, TranslatedText by
// the translation stage; both are read-only afterwards. Language carries the
// request's source language so reading-order sorting knows the script.
type TextBox struct {
	Text           string
	TranslatedText string
	BBox           BoundingBox
	Language       Language
}

// HasTranslation reports whether the box carries a non-blank translation.
func (t TextBox) HasTranslation() bool {
	return strings.TrimSpace(t.TranslatedText) != ""
}

// DisplayText returns the translated text when present, else the original.
func (t TextBox) DisplayText() string {
	if t.HasTranslation() {
		return t.TranslatedText
	}
	return t.Text
}
