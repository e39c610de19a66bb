// Package extract turns uploaded text artifacts into clean, chunkable text.
package extract

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Format identifies how raw text should be cleaned.
type Format int

const (
	FormatPlain Format = iota
	FormatWebVTT
)

// FormatForFilename picks the format from the file extension.
func FormatForFilename(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".vtt") {
		return FormatWebVTT
	}
	return FormatPlain
}

var (
	utf8BOM         = []byte{0xEF, 0xBB, 0xBF}
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	cueTiming       = regexp.MustCompile(`^(\d{1,2}:)?\d{2}:\d{2}[.,]\d{3}\s+-->\s+(\d{1,2}:)?\d{2}:\d{2}[.,]\d{3}`)
	voiceTag        = regexp.MustCompile(`<v(?:\.[^ >]*)?\s+([^>]+)>`)
	markupTag       = regexp.MustCompile(`</?[^>]+>`)
)

// Normalize cleans already-extracted text: strips a UTF-8 BOM, drops invalid
// UTF-8, normalizes line endings, removes WebVTT scaffolding when format is
// FormatWebVTT, collapses horizontal whitespace and drops blank lines.
func Normalize(raw []byte, format Format) string {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	if format == FormatWebVTT {
		lines = stripWebVTT(lines)
	}

	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// stripWebVTT keeps only cue payload lines. Header, NOTE, STYLE and REGION
// blocks are dropped whole; in cue blocks the identifier and timing lines are
// dropped. Voice spans become "Speaker: " prefixes.
func stripWebVTT(lines []string) []string {
	var out []string
	var block []string

	flush := func() {
		defer func() { block = block[:0] }()
		if len(block) == 0 {
			return
		}
		first := strings.TrimSpace(block[0])
		for _, kw := range []string{"WEBVTT", "NOTE", "STYLE", "REGION"} {
			if strings.HasPrefix(first, kw) {
				return
			}
		}
		payload := block
		for i, line := range block {
			if cueTiming.MatchString(strings.TrimSpace(line)) {
				payload = block[i+1:]
				break
			}
		}
		for _, line := range payload {
			line = voiceTag.ReplaceAllString(line, "$1: ")
			out = append(out, markupTag.ReplaceAllString(line, ""))
		}
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		block = append(block, line)
	}
	flush()
	return out
}
