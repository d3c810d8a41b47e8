package layout

import (
	inktranslator "github.com/miya-dang/InkTranslator"
)

// overlapClearance is the extra distance added when sliding a box off a
// neighbour.
const overlapClearance = 5

// ResolveOverlaps nudges overlapping boxes apart so rendered blocks do not
// draw over each other. Boxes are tried in order against every earlier box;
// each collision attempts a move down, up, right then left, taking the first
// direction that stays inside the image bounds. Boxes that cannot move stay
// where they are.
func ResolveOverlaps(boxes []inktranslator.TextBox, imageWidth, imageHeight int) []inktranslator.TextBox {
	resolved := make([]inktranslator.TextBox, len(boxes))
	copy(resolved, boxes)

	for i := 1; i < len(resolved); i++ {
		for j := 0; j < i; j++ {
			if !resolved[i].BBox.Overlaps(resolved[j].BBox) {
				continue
			}
			if moved, ok := slideApart(resolved[i].BBox, resolved[j].BBox, imageWidth, imageHeight); ok {
				resolved[i].BBox = moved
			}
		}
	}
	return resolved
}

func slideApart(box, other inktranslator.BoundingBox, imageWidth, imageHeight int) (inktranslator.BoundingBox, bool) {
	candidates := []inktranslator.BoundingBox{
		box.Translated(0, other.Y2-box.Y1+overlapClearance),
		box.Translated(0, -(box.Y2 - other.Y1 + overlapClearance)),
		box.Translated(other.X2-box.X1+overlapClearance, 0),
		box.Translated(-(box.X2 - other.X1 + overlapClearance), 0),
	}
	for _, c := range candidates {
		if c.X1 >= 0 && c.Y1 >= 0 && c.X2 <= imageWidth && c.Y2 <= imageHeight {
			return c, true
		}
	}
	return box, false
}
