// Package chunker splits long markdown text into segments small enough for
// a single speech request.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxRunes bounds one speech request.
const DefaultMaxRunes = 2000

// Split breaks text into segments of at most maxRunes runes. Segments follow
// heading and paragraph boundaries where possible, then sentence
// boundaries, and only then cut mid-sentence. Short text is one segment.
func Split(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxRunes
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	var out []string
	for _, b := range merge(splitBlocks(text), "\n\n", maxRunes) {
		if utf8.RuneCountInString(b) <= maxRunes {
			out = append(out, b)
			continue
		}
		for _, s := range merge(splitSentences(b), " ", maxRunes) {
			out = append(out, hardSplit(s, maxRunes)...)
		}
	}
	return out
}

// splitBlocks splits on blank lines and before heading lines.
func splitBlocks(text string) []string {
	var blocks []string
	var current []string
	flush := func() {
		if t := strings.TrimSpace(strings.Join(current, "\n")); t != "" {
			blocks = append(blocks, t)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
			continue
		case strings.HasPrefix(trimmed, "#"):
			flush()
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

// splitSentences splits after '.', '!' or '?' followed by whitespace, and
// at line breaks.
func splitSentences(text string) []string {
	var out []string
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		end := -1
		switch r {
		case '\n':
			end = i
		case '.', '!', '?':
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n') {
				end = i + 1
			}
		}
		if end < 0 {
			continue
		}
		if s := strings.TrimSpace(string(runes[start:end])); s != "" {
			out = append(out, s)
		}
		start = end
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// merge greedily joins consecutive parts while the result fits.
func merge(parts []string, sep string, maxRunes int) []string {
	var out []string
	var accum string
	for _, p := range parts {
		if accum == "" {
			accum = p
			continue
		}
		combined := accum + sep + p
		if utf8.RuneCountInString(combined) <= maxRunes {
			accum = combined
			continue
		}
		out = append(out, accum)
		accum = p
	}
	if accum != "" {
		out = append(out, accum)
	}
	return out
}

// hardSplit cuts text into maxRunes pieces, preferring the last space.
func hardSplit(text string, maxRunes int) []string {
	runes := []rune(text)
	var out []string
	for len(runes) > maxRunes {
		cut := maxRunes
		for i := maxRunes; i > maxRunes/2; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		if s := strings.TrimSpace(string(runes[:cut])); s != "" {
			out = append(out, s)
		}
		runes = runes[cut:]
	}
	if s := strings.TrimSpace(string(runes)); s != "" {
		out = append(out, s)
	}
	return out
}
