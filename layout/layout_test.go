package layout

import (
	"testing"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	inktranslator "github.com/miya-dang/InkTranslator"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		t.Fatal(err)
	}
	fonts := map[inktranslator.Language]*truetype.Font{}
	for _, lang := range inktranslator.Languages() {
		fonts[lang] = parsed
	}
	provider, err := NewFontProviderFromFonts(fonts)
	if err != nil {
		t.Fatal(err)
	}
	return NewEngine(provider)
}

func TestOptimalFontSize(t *testing.T) {
	engine := testEngine(t)
	text := "The quick brown fox jumps over the lazy dog"

	t.Run("stays within bounds", func(t *testing.T) {
		size, err := engine.OptimalFontSize(text, inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 200, Y2: 100}, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if size < engine.MinFontSize || size > engine.MaxFontSize {
			t.Errorf("size %d outside [%d, %d]", size, engine.MinFontSize, engine.MaxFontSize)
		}
	})

	t.Run("larger box never shrinks the font", func(t *testing.T) {
		small, err := engine.OptimalFontSize(text, inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 120, Y2: 60}, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		large, err := engine.OptimalFontSize(text, inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 400, Y2: 300}, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if large < small {
			t.Errorf("size shrank from %d to %d in a larger box", small, large)
		}
	})

	t.Run("tiny box bottoms out at minimum", func(t *testing.T) {
		size, err := engine.OptimalFontSize(text, inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 20, Y2: 12}, inktranslator.LanguageEnglish)
		if err != nil {
			t.Fatal(err)
		}
		if size != engine.MinFontSize {
			t.Errorf("got %d, want minimum %d", size, engine.MinFontSize)
		}
	})

	t.Run("respects the larger floor for cjk", func(t *testing.T) {
		size, err := engine.OptimalFontSize("何か", inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 20, Y2: 12}, inktranslator.LanguageJapanese)
		if err != nil {
			t.Fatal(err)
		}
		if size < cjkMinFontSize {
			t.Errorf("got %d, want at least %d", size, cjkMinFontSize)
		}
	})
}

func TestLayout(t *testing.T) {
	engine := testEngine(t)
	bbox := inktranslator.BoundingBox{X1: 10, Y1: 10, X2: 310, Y2: 210}

	result, err := engine.Layout("The quick brown fox jumps over the lazy dog", bbox, inktranslator.LanguageEnglish, AlignCenter)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Lines) == 0 {
		t.Fatal("no lines produced")
	}
	if len(result.Positions) != len(result.Lines) {
		t.Fatalf("%d positions for %d lines", len(result.Positions), len(result.Lines))
	}

	t.Run("lines rejoin to the input words", func(t *testing.T) {
		joined := ""
		for i, line := range result.Lines {
			if i > 0 {
				joined += " "
			}
			joined += line
		}
		if joined != "The quick brown fox jumps over the lazy dog" {
			t.Errorf("got %q", joined)
		}
	})

	t.Run("positions stay inside the box", func(t *testing.T) {
		for i, p := range result.Positions {
			if p.X < bbox.X1 || p.X > bbox.X2 {
				t.Errorf("line %d at x=%d outside [%d, %d]", i, p.X, bbox.X1, bbox.X2)
			}
		}
		first := result.Positions[0]
		last := result.Positions[len(result.Positions)-1]
		if first.Y < bbox.Y1-result.LineHeight || last.Y+result.LineHeight > bbox.Y2+result.LineHeight {
			t.Errorf("vertical span [%d, %d] poorly placed in [%d, %d]", first.Y, last.Y+result.LineHeight, bbox.Y1, bbox.Y2)
		}
	})

	t.Run("empty text lays out as nothing", func(t *testing.T) {
		result, err := engine.Layout("   ", bbox, inktranslator.LanguageEnglish, AlignCenter)
		if err != nil {
			t.Fatal(err)
		}
		if len(result.Lines) != 0 {
			t.Errorf("got %d lines for blank text", len(result.Lines))
		}
	})
}

func TestWrapLatin(t *testing.T) {
	engine := testEngine(t)
	face, err := engine.Fonts().Face(inktranslator.LanguageEnglish, 12)
	if err != nil {
		t.Fatal(err)
	}
	m := newMeasurer(face)

	t.Run("respects the target width", func(t *testing.T) {
		target := 80.0
		lines := wrapLatin(m, "several words that certainly cannot fit on one line", target)
		if len(lines) < 2 {
			t.Fatalf("expected wrapping, got %v", lines)
		}
		for _, line := range lines {
			if w := m.width(line); w > target {
				t.Errorf("line %q measures %.1f, over %.1f", line, w, target)
			}
		}
	})

	t.Run("breaks oversized words with hyphens", func(t *testing.T) {
		lines := wrapLatin(m, "supercalifragilisticexpialidocious", 40)
		if len(lines) < 2 {
			t.Fatalf("expected hyphen break, got %v", lines)
		}
		for _, line := range lines[:len(lines)-1] {
			if line[len(line)-1] != '-' {
				t.Errorf("fragment %q does not end with a hyphen", line)
			}
		}
	})
}

func TestPromoteShortLastWord(t *testing.T) {
	t.Run("promotes a trailing short word", func(t *testing.T) {
		lines := promoteShortLastWord([]string{"hello there good", "bar baz"})
		if len(lines) != 3 || lines[2] != "baz" || lines[1] != "bar" {
			t.Errorf("got %v", lines)
		}
	})
	t.Run("leaves a single line alone", func(t *testing.T) {
		lines := promoteShortLastWord([]string{"just one line"})
		if len(lines) != 1 {
			t.Errorf("got %v", lines)
		}
	})
	t.Run("leaves a long last word alone", func(t *testing.T) {
		in := []string{"hello there", "word incomprehensibilities"}
		lines := promoteShortLastWord(in)
		if len(lines) != 2 {
			t.Errorf("got %v", lines)
		}
	})
}

func TestWrapCJK(t *testing.T) {
	engine := testEngine(t)
	face, err := engine.Fonts().Face(inktranslator.LanguageEnglish, 12)
	if err != nil {
		t.Fatal(err)
	}
	m := newMeasurer(face)

	lines := wrapCJK(m, "abcdefghij", 30)
	if len(lines) < 2 {
		t.Fatalf("expected character wrapping, got %v", lines)
	}
	joined := ""
	for _, line := range lines {
		joined += line
	}
	if joined != "abcdefghij" {
		t.Errorf("characters lost in wrapping: %q", joined)
	}
}

func TestCharsPerColumn(t *testing.T) {
	bbox := inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 50, Y2: 108}
	if got := charsPerColumn(bbox, 20, 0); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	if got := charsPerColumn(bbox, 20, 5); got != 4 {
		t.Errorf("got %d, want 4", got)
	}
	if got := charsPerColumn(bbox, 500, 0); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestLayoutVertical(t *testing.T) {
	engine := testEngine(t)
	bbox := inktranslator.BoundingBox{X1: 20, Y1: 20, X2: 220, Y2: 220}

	result, err := engine.LayoutVertical("何かの文字列をここに入れる", bbox, inktranslator.LanguageJapanese)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Columns) == 0 {
		t.Fatal("no columns produced")
	}

	t.Run("columns run right to left inside the box", func(t *testing.T) {
		prevX := bbox.X2
		for i, col := range result.Columns {
			if col.X < bbox.X1 {
				t.Errorf("column %d at x=%d left of box edge %d", i, col.X, bbox.X1)
			}
			if col.X >= prevX {
				t.Errorf("column %d at x=%d does not move leftward", i, col.X)
			}
			prevX = col.X
		}
	})

	t.Run("no characters lost unless truncated", func(t *testing.T) {
		if result.Truncated {
			t.Skip("layout truncated")
		}
		total := 0
		for _, col := range result.Columns {
			total += len([]rune(col.Text))
		}
		if total != len([]rune("何かの文字列をここに入れる")) {
			t.Errorf("got %d characters", total)
		}
	})
}

func TestResolveOverlaps(t *testing.T) {
	t.Run("separates overlapping boxes", func(t *testing.T) {
		boxes := []inktranslator.TextBox{
			{BBox: inktranslator.BoundingBox{X1: 10, Y1: 10, X2: 110, Y2: 60}},
			{BBox: inktranslator.BoundingBox{X1: 50, Y1: 30, X2: 150, Y2: 80}},
		}
		resolved := ResolveOverlaps(boxes, 1000, 1000)
		if resolved[0].BBox.Overlaps(resolved[1].BBox) {
			t.Errorf("still overlapping: %+v", resolved)
		}
		if resolved[0].BBox != boxes[0].BBox {
			t.Errorf("anchor box moved: %+v", resolved[0].BBox)
		}
	})

	t.Run("leaves disjoint boxes alone", func(t *testing.T) {
		boxes := []inktranslator.TextBox{
			{BBox: inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 50, Y2: 50}},
			{BBox: inktranslator.BoundingBox{X1: 200, Y1: 200, X2: 250, Y2: 250}},
		}
		resolved := ResolveOverlaps(boxes, 1000, 1000)
		for i := range boxes {
			if resolved[i].BBox != boxes[i].BBox {
				t.Errorf("box %d moved: %+v", i, resolved[i].BBox)
			}
		}
	})

	t.Run("immovable box stays put", func(t *testing.T) {
		// The image is exactly as large as the overlap, so no direction is
		// in bounds.
		boxes := []inktranslator.TextBox{
			{BBox: inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 100, Y2: 100}},
			{BBox: inktranslator.BoundingBox{X1: 0, Y1: 0, X2: 100, Y2: 100}},
		}
		resolved := ResolveOverlaps(boxes, 100, 100)
		if resolved[1].BBox != boxes[1].BBox {
			t.Errorf("box moved out of bounds: %+v", resolved[1].BBox)
		}
	})
}

func TestFontProviderFaceCache(t *testing.T) {
	engine := testEngine(t)
	first, err := engine.Fonts().Face(inktranslator.LanguageEnglish, 14)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.Fonts().Face(inktranslator.LanguageEnglish, 14)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("same (language, size) built two faces")
	}
}
