package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// markerPattern matches one indexed segment of a packed query, tolerating
// whitespace the translator may add around the tags.
var markerPattern = regexp.MustCompile(`(?s)\[(\d+)\]\s*(.*?)\s*\[/(\d+)\]`)

// packMarked joins texts into a single query with indexed open/close tags,
// so one provider call translates every box while keeping segments
// separable afterwards.
func packMarked(texts []string) string {
	var sb strings.Builder
	for i, text := range texts {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("[")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("]")
		sb.WriteString(text)
		sb.WriteString("[/")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("]")
	}
	return sb.String()
}

// unpackMarked recovers the per-index segments from a translated packed
// query. It reports false when any of the n segments is missing or an
// open/close pair disagrees, in which case the caller should fall back to
// sentence splitting.
func unpackMarked(translated string, n int) ([]string, bool) {
	matches := markerPattern.FindAllStringSubmatch(translated, -1)

	segments := make([]string, n)
	seen := make([]bool, n)
	for _, match := range matches {
		open, err := strconv.Atoi(match[1])
		if err != nil || match[1] != match[3] {
			return nil, false
		}
		if open < 0 || open >= n || seen[open] {
			return nil, false
		}
		segments[open] = match[2]
		seen[open] = true
	}
	for _, ok := range seen {
		if !ok {
			return nil, false
		}
	}
	return segments, true
}

// sentenceDelimiters covers Latin and CJK sentence-ending punctuation.
const sentenceDelimiters = ".!?。！？"

// splitSentences cuts text after each sentence-ending punctuation run,
// keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	inDelimiter := false
	for _, r := range text {
		isDelimiter := strings.ContainsRune(sentenceDelimiters, r)
		if inDelimiter && !isDelimiter {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
		current.WriteRune(r)
		inDelimiter = isDelimiter
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// distributeSentences spreads the sentences of a stripped translation over
// n slots when marker unpacking failed. Earlier slots receive the extra
// sentence when the split is uneven; with fewer sentences than slots the
// trailing slots stay empty.
func distributeSentences(translated string, n int) []string {
	stripped := markerPattern.ReplaceAllString(translated, "$2")
	stripped = strings.NewReplacer("[", "", "]", "", "/", "").Replace(stripped)
	sentences := splitSentences(stripped)

	segments := make([]string, n)
	if len(sentences) == 0 {
		return segments
	}
	base := len(sentences) / n
	extra := len(sentences) % n
	index := 0
	for i := 0; i < n && index < len(sentences); i++ {
		take := base
		if i < extra {
			take++
		}
		if take == 0 {
			continue
		}
		segments[i] = strings.Join(sentences[index:index+take], " ")
		index += take
	}
	return segments
}
