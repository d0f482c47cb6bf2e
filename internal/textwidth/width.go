// Package textwidth measures terminal display width and finds safe cut
// points for wrapping text into fixed-width cells. Width accounting
// follows the Unicode East Asian Width classes: wide and fullwidth runes
// occupy two columns, everything else one.
package textwidth

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// PrintedWidth returns the number of terminal columns the string
// occupies when printed.
func PrintedWidth(s string) int {
	total := 0
	for _, r := range s {
		total += runeWidth(r)
	}
	return total
}

func runeWidth(r rune) int {
	if runewidth.RuneWidth(r) >= 2 {
		return 2
	}
	return 1
}

// CutPoint returns where to cut s so that the prefix fits into maxWidth
// printed columns, together with the printed width of that prefix. The
// returned index counts runes, not bytes.
//
// The policy has four tiers:
//  1. a newline within maxWidth columns wins (hard break),
//  2. a string that fits whole is consumed whole,
//  3. otherwise cut at the latest word boundary that still fits,
//  4. a single word wider than maxWidth is cut at the column boundary.
func CutPoint(s string, maxWidth int) (int, int) {
	runes := []rune(s)

	if idx := indexRune(runes, '\n'); idx >= 0 && PrintedWidth(string(runes[:idx])) <= maxWidth {
		return PrintedWidth(string(runes[:idx])), idx
	}

	if w := PrintedWidth(s); w <= maxWidth {
		return w, len(runes)
	}

	return wordCut(runes, maxWidth)
}

// wordCut scans word boundaries, accumulating printed width plus one
// column per inter-word space, and cuts at the last boundary that fits.
// A first word that alone exceeds maxWidth falls back to a rune-level
// cut.
func wordCut(runes []rune, maxWidth int) (int, int) {
	type span struct{ start, end int } // rune offsets of one word
	var words []span
	inWord := false
	start := 0
	for i, r := range runes {
		if isSpace(r) {
			if inWord {
				words = append(words, span{start, i})
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		words = append(words, span{start, len(runes)})
	}
	if len(words) == 0 {
		return 0, len(runes)
	}

	width := 0
	cutIdx := 0
	for i, w := range words {
		wordLen := PrintedWidth(string(runes[w.start:w.end]))
		need := wordLen
		if i > 0 {
			need++ // column for the separating space
		}
		if width+need > maxWidth {
			if i == 0 {
				// Cut from the string start so the index stays absolute;
				// any leading spaces count toward the width.
				return runeCut(runes[:w.end], maxWidth)
			}
			return width, cutIdx
		}
		width += need
		cutIdx = w.end
	}
	return width, cutIdx
}

// runeCut cuts inside a single over-long word at the exact column
// boundary. A wide rune that would straddle the boundary is excluded so
// the printed width never exceeds maxWidth.
func runeCut(runes []rune, maxWidth int) (int, int) {
	width := 0
	for i, r := range runes {
		rw := runeWidth(r)
		if width+rw > maxWidth {
			return width, i
		}
		width += rw
		if width == maxWidth {
			return width, i + 1
		}
	}
	return width, len(runes)
}

func indexRune(runes []rune, want rune) int {
	for i, r := range runes {
		if r == want {
			return i
		}
	}
	return -1
}

func isSpace(r rune) bool {
	return strings.ContainsRune(" \t\n\v\f\r", r)
}
