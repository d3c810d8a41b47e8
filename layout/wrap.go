package layout

import "strings"

// shortLastWordMax is the longest final word that gets promoted to its own
// last line, which reads better than a dangling word at the end of a block.
const shortLastWordMax = 10

// wrapLatin wraps word by word: words are appended while the measured width
// stays within target, a word that can never fit is broken with hyphens,
// and a short final word is promoted to its own trailing line.
func wrapLatin(m *measurer, text string, targetWidth float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		test := strings.TrimSpace(current + " " + word)
		if m.width(test) <= targetWidth {
			current = test
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		if m.width(word) > targetWidth {
			broken := breakWordWithHyphen(m, word, targetWidth)
			lines = append(lines, broken[:len(broken)-1]...)
			current = broken[len(broken)-1]
		} else {
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	return promoteShortLastWord(lines)
}

// breakWordWithHyphen splits an oversized word character by character,
// ending every fragment but the last with a hyphen.
func breakWordWithHyphen(m *measurer, word string, maxWidth float64) []string {
	var parts []string
	current := ""
	for _, r := range word {
		test := current + string(r)
		if m.width(test+"-") <= maxWidth || current == "" {
			current = test
		} else {
			parts = append(parts, current+"-")
			current = string(r)
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	if len(parts) == 0 {
		return []string{word}
	}
	return parts
}

// promoteShortLastWord moves a trailing word of up to shortLastWordMax
// characters onto its own line when the last line has company for it.
func promoteShortLastWord(lines []string) []string {
	if len(lines) < 2 {
		return lines
	}
	last := lines[len(lines)-1]
	words := strings.Fields(last)
	if len(words) < 2 {
		return lines
	}
	lastWord := words[len(words)-1]
	if len([]rune(lastWord)) > shortLastWordMax {
		return lines
	}
	lines[len(lines)-1] = strings.Join(words[:len(words)-1], " ")
	return append(lines, lastWord)
}

// wrapCJK packs characters into lines with no word-boundary logic; CJK
// scripts break anywhere.
func wrapCJK(m *measurer, text string, targetWidth float64) []string {
	var lines []string
	current := ""
	for _, r := range text {
		test := current + string(r)
		if m.width(test) <= targetWidth || current == "" {
			current = test
		} else {
			lines = append(lines, current)
			current = string(r)
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
