package inktranslator

import (
	"math"
	"strings"
)

// MergeNearby clusters OCR detections whose centers sit within threshold
// pixels of each other and collapses each cluster into one logical box.
// Closeness is transitive: if A is near B and B is near C, all three merge
// even when A and C alone exceed the threshold. The merged rectangle is the
// union of the members and the merged text joins the members' texts with a
// single space in detection order, so the result is deterministic for a
// fixed input ordering.
func MergeNearby(boxes []TextBox, threshold int) []TextBox {
	if len(boxes) <= 1 {
		return boxes
	}

	parent := make([]int, len(boxes))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	// Union keeps the smaller root so every cluster is identified by its
	// earliest-indexed member.
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		if ra > rb {
			ra, rb = rb, ra
		}
		parent[rb] = ra
	}

	for i := 0; i < len(boxes); i++ {
		for j := i + 1; j < len(boxes); j++ {
			if centerDistance(boxes[i].BBox, boxes[j].BBox) <= float64(threshold) {
				union(i, j)
			}
		}
	}

	groups := map[int][]TextBox{}
	var order []int
	for i, box := range boxes {
		root := find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], box)
	}

	merged := make([]TextBox, 0, len(order))
	for _, root := range order {
		merged = append(merged, mergeGroup(groups[root]))
	}
	return merged
}

func centerDistance(a, b BoundingBox) float64 {
	dx := float64(a.CenterX() - b.CenterX())
	dy := float64(a.CenterY() - b.CenterY())
	return math.Sqrt(dx*dx + dy*dy)
}

func mergeGroup(group []TextBox) TextBox {
	if len(group) == 1 {
		return group[0]
	}

	bbox := group[0].BBox
	texts := make([]string, 0, len(group))
	for _, box := range group {
		bbox = bbox.Union(box.BBox)
		texts = append(texts, box.Text)
	}
	return TextBox{
		Text:     strings.Join(texts, " "),
		BBox:     bbox,
		Language: group[0].Language,
	}
}
