package layout

import (
	"strings"

	inktranslator "github.com/miya-dang/InkTranslator"
)

const (
	// DefaultMinFontSize and DefaultMaxFontSize bound the size search.
	DefaultMinFontSize = 6
	DefaultMaxFontSize = 30

	// CJK glyphs below this point size are illegible; the search floor is
	// raised for CJK languages.
	cjkMinFontSize = 12

	// Padding kept between text and the box edge on each side.
	boxPadding = 2
)

// Alignment selects horizontal placement of lines within the box.
type Alignment string

const (
	AlignCenter Alignment = "center"
	AlignLeft   Alignment = "left"
	AlignRight  Alignment = "right"
)

// Engine computes the largest font size and wrapping that fit a text into a
// bounding box. It is stateless per call apart from the shared font cache.
type Engine struct {
	fonts *FontProvider

	MinFontSize int
	MaxFontSize int
	// MaxLines caps the wrapped line count during the size search;
	// zero means no cap.
	MaxLines int
}

// NewEngine builds a layout engine over the given fonts with default size
// bounds.
func NewEngine(fonts *FontProvider) *Engine {
	return &Engine{
		fonts:       fonts,
		MinFontSize: DefaultMinFontSize,
		MaxFontSize: DefaultMaxFontSize,
	}
}

// Fonts exposes the provider so the renderer can share the face cache.
func (e *Engine) Fonts() *FontProvider { return e.fonts }

// Point is a pixel position in image coordinates.
type Point struct {
	X int
	Y int
}

// Result is a horizontal layout: the chosen size, the wrapped lines and the
// position each line is drawn at. Recomputed per call, never cached.
type Result struct {
	FontSize    int
	Lines       []string
	LineHeight  int
	LineSpacing int
	TotalHeight int
	Positions   []Point
}

// Layout sizes and wraps text for horizontal rendering inside bbox,
// centering the block vertically and aligning lines per align.
func (e *Engine) Layout(text string, bbox inktranslator.BoundingBox, language inktranslator.Language, align Alignment) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return &Result{FontSize: e.minSizeFor(language)}, nil
	}

	targetWidth := float64(bbox.Width() - 2*boxPadding)
	targetHeight := float64(bbox.Height() - 2*boxPadding)

	fontSize, err := e.optimalFontSize(text, targetWidth, targetHeight, language)
	if err != nil {
		return nil, err
	}

	face, err := e.fonts.Face(language, fontSize)
	if err != nil {
		return nil, err
	}
	m := newMeasurer(face)
	lines := e.wrap(m, text, targetWidth, language)
	lineHeight, lineSpacing := e.lineMetrics(m, language)
	totalHeight := len(lines)*lineHeight + (len(lines)-1)*lineSpacing

	result := &Result{
		FontSize:    fontSize,
		Lines:       lines,
		LineHeight:  lineHeight,
		LineSpacing: lineSpacing,
		TotalHeight: totalHeight,
	}

	startY := bbox.Y1 + (bbox.Height()-totalHeight)/2
	for i, line := range lines {
		lineWidth := m.width(line)
		var x int
		switch align {
		case AlignLeft:
			x = bbox.X1 + boxPadding
		case AlignRight:
			x = bbox.X2 - int(lineWidth) - boxPadding
		default:
			x = bbox.X1 + (bbox.Width()-int(lineWidth))/2
		}
		result.Positions = append(result.Positions, Point{X: x, Y: startY + i*(lineHeight+lineSpacing)})
	}
	return result, nil
}

// OptimalFontSize runs only the size search, without producing positions.
func (e *Engine) OptimalFontSize(text string, bbox inktranslator.BoundingBox, language inktranslator.Language) (int, error) {
	targetWidth := float64(bbox.Width() - 2*boxPadding)
	targetHeight := float64(bbox.Height() - 2*boxPadding)
	return e.optimalFontSize(text, targetWidth, targetHeight, language)
}

// optimalFontSize binary-searches the integer size range for the largest
// size whose wrapped lines still fit the target height, defaulting to the
// minimum when nothing fits.
func (e *Engine) optimalFontSize(text string, targetWidth, targetHeight float64, language inktranslator.Language) (int, error) {
	minSize := e.minSizeFor(language)
	bestSize := minSize

	left, right := minSize, e.MaxFontSize
	for left <= right {
		mid := (left + right) / 2
		face, err := e.fonts.Face(language, mid)
		if err != nil {
			return 0, err
		}
		m := newMeasurer(face)

		lines := e.wrap(m, text, targetWidth, language)
		if e.MaxLines > 0 && len(lines) > e.MaxLines {
			right = mid - 1
			continue
		}
		lineHeight, lineSpacing := e.lineMetrics(m, language)
		totalHeight := len(lines)*lineHeight + (len(lines)-1)*lineSpacing

		if float64(totalHeight) <= targetHeight {
			bestSize = mid
			left = mid + 1
		} else {
			right = mid - 1
		}
	}
	return bestSize, nil
}

func (e *Engine) minSizeFor(language inktranslator.Language) int {
	if language.IsCJK() && e.MinFontSize < cjkMinFontSize {
		return cjkMinFontSize
	}
	return e.MinFontSize
}

// wrap dispatches to character packing for CJK scripts and greedy word
// wrapping for everything else.
func (e *Engine) wrap(m *measurer, text string, targetWidth float64, language inktranslator.Language) []string {
	if language.IsCJK() {
		return wrapCJK(m, text, targetWidth)
	}
	return wrapLatin(m, text, targetWidth)
}

// lineMetrics returns the line height and inter-line spacing for the
// language at the measurer's current face.
func (e *Engine) lineMetrics(m *measurer, language inktranslator.Language) (int, int) {
	_, h := m.size(referenceChar(language.IsCJK()))
	lineHeight := int(h)

	var lineSpacing int
	switch language {
	case inktranslator.LanguageJapanese, inktranslator.LanguageSimChinese, inktranslator.LanguageTradChinese:
		lineSpacing = max(8, int(float64(lineHeight)*0.4))
	default:
		lineSpacing = max(4, int(float64(lineHeight)*0.3))
	}
	return lineHeight, lineSpacing
}
