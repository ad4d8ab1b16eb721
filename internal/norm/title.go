package norm

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	hyphenGapRe  = regexp.MustCompile(`(\w)-\s+(\w)`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

// CleanTitle produces the comparison form of a title: lower-cased,
// whitespace collapsed, terminal punctuation stripped. It is never used
// for display.
func CleanTitle(title string) string {
	s := whitespaceRe.ReplaceAllString(title, " ")
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, ".,;:!")
	return strings.ToLower(s)
}

// FoldTitle reduces a title to the form used for similarity scoring:
// lower-cased with all punctuation removed and whitespace collapsed.
func FoldTitle(title string) string {
	s := nonWordRe.ReplaceAllString(title, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// concatenatedPhrases repairs short phrase pairs whose separating space
// is commonly dropped by PDF text extraction.
var concatenatedPhrases = []struct{ bad, good string }{
	{"asa", "as a"},
	{"inthe", "in the"},
	{"ofthe", "of the"},
	{"tothe", "to the"},
	{"forthe", "for the"},
	{"withthe", "with the"},
	{"aswell", "as well"},
	{"suchas", "such as"},
}

// splitWords are boundaries used to re-split long words concatenated by
// PDF extraction ("networkgrammars" -> "network grammars").
var splitWords = []string{
	"international", "representation", "classification", "convolutional",
	"transformer", "translation", "recognition", "processing", "generation",
	"recurrent", "attention", "embedding", "sequence", "language", "semantic",
	"learning", "networks", "grammars", "training", "machine", "network",
	"natural", "neural", "models", "memory", "deep", "model", "grammar",
}

// wholeWords are valid compounds that must not be re-split.
var wholeWords = map[string]bool{
	"overfitting":   true,
	"understanding": true,
	"interpolation": true,
	"preprocessing": true,
}

// RepairTitle cleans a title extracted from a PDF text layer for display:
// re-joins hyphenated line breaks, collapses whitespace, restores spaces
// dropped between words, and strips citation artifacts.
func RepairTitle(title string) string {
	if title == "" {
		return ""
	}
	s := hyphenGapRe.ReplaceAllString(title, "$1$2")
	s = whitespaceRe.ReplaceAllString(s, " ")
	for _, p := range concatenatedPhrases {
		re := regexp.MustCompile(`(?i)\b` + p.bad + `\b`)
		s = re.ReplaceAllString(s, p.good)
	}
	s = splitConcatenated(s)
	s = strings.Trim(s, ".,;: ")
	return s
}

// splitConcatenated re-splits long words at known word boundaries.
func splitConcatenated(text string) string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, splitWord(w, 0)...)
	}
	return strings.Join(out, " ")
}

func splitWord(word string, depth int) []string {
	// Hyphenated words are already legible; re-splitting them produces
	// garbage like "pre- training".
	if len(word) <= 8 || depth > 3 || strings.ContainsRune(word, '-') ||
		wholeWords[strings.ToLower(word)] {
		return []string{word}
	}
	lower := strings.ToLower(word)
	for _, known := range splitWords {
		if lower == known {
			return []string{word}
		}
		idx := strings.Index(lower, known)
		if idx < 0 {
			continue
		}
		rest := word[idx+len(known):]
		switch {
		case idx >= 3 && len(word)-idx > 3:
			parts := splitWord(word[:idx], depth+1)
			parts = append(parts, splitWord(word[idx:], depth+1)...)
			return parts
		case idx == 0 && len(rest) >= 4:
			parts := []string{word[:len(known)]}
			parts = append(parts, splitWord(rest, depth+1)...)
			return parts
		}
	}
	return []string{word}
}
