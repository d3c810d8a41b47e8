package layout

import (
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// measurer wraps a throwaway drawing context used purely for text metrics.
// gg contexts are not safe for concurrent use, so each layout call builds
// its own.
type measurer struct {
	ctx *gg.Context
}

func newMeasurer(face font.Face) *measurer {
	ctx := gg.NewContext(1, 1)
	ctx.SetFontFace(face)
	return &measurer{ctx: ctx}
}

func (m *measurer) width(text string) float64 {
	w, _ := m.ctx.MeasureString(text)
	return w
}

func (m *measurer) size(text string) (float64, float64) {
	return m.ctx.MeasureString(text)
}

// referenceChar is what line metrics are measured against: a full-width
// glyph for CJK, a capital for Latin scripts.
func referenceChar(cjk bool) string {
	if cjk {
		return "测"
	}
	return "A"
}
