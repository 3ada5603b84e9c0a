package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/keypoints/internal/domain"
	"github.com/kailas-cloud/keypoints/internal/domain/keypoint"
)

// marker matches one list marker: a unicode bullet, an ASCII bullet followed by
// whitespace, or a short number such as "1.", "2)" or "(3)".
const marker = `(?:[•◦▪‣·●○■□►➢➤–—]|[-*+>](?:\s|$)|\(?\d{1,3}[.)](?:\s|$))`

var (
	listItemRe    = regexp.MustCompile(`^\s*` + marker)
	markerPrefix  = regexp.MustCompile(`^(?:\s*` + marker + `)+`)
	sentenceEndRe = regexp.MustCompile(`[.!?]+["'”’)\]]*\s+`)
)

// CleanText strips leading list markers and surrounding whitespace.
func CleanText(s string) string {
	return strings.TrimSpace(markerPrefix.ReplaceAllString(s, ""))
}

// Segment splits text into ordered units. Structural breaks (list items, blank lines)
// come first, then sentence boundaries inside each section. When fewer than two units
// survive, the whole text is returned as a single unit at offset 0; that includes
// empty and blank text. Only invalid UTF-8 is rejected.
func Segment(text string) ([]keypoint.TextUnit, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("text is not valid UTF-8: %w", domain.ErrInvalidInput)
	}

	var units []keypoint.TextUnit
	cursor := 0
	for _, section := range sections(text) {
		for _, frag := range sentences(section) {
			clean := CleanText(frag)
			if clean == "" {
				continue
			}
			offset := cursor
			if idx := strings.Index(text[cursor:], clean); idx >= 0 {
				offset = cursor + idx
			}
			units = append(units, keypoint.NewTextUnit(clean, offset))
			cursor = offset + len(clean)
		}
	}

	if len(units) < 2 {
		return []keypoint.TextUnit{keypoint.NewTextUnit(text, 0)}, nil
	}
	return units, nil
}

// sections splits text on blank lines and before every list item line.
func sections(text string) []string {
	var (
		out   []string
		start = -1
		pos   = 0
	)
	flush := func(end int) {
		if start >= 0 {
			out = append(out, text[start:end])
			start = -1
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		switch {
		case strings.TrimSpace(line) == "":
			flush(pos)
		case listItemRe.MatchString(line):
			flush(pos)
			start = pos
		case start < 0:
			start = pos
		}
		pos += len(line)
	}
	flush(pos)
	return out
}

// sentences splits a section after sentence-ending punctuation followed by whitespace.
func sentences(section string) []string {
	var out []string
	prev := 0
	for _, m := range sentenceEndRe.FindAllStringIndex(section, -1) {
		out = append(out, section[prev:m[1]])
		prev = m[1]
	}
	if prev < len(section) {
		out = append(out, section[prev:])
	}
	return out
}
