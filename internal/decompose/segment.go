package decompose

import (
	"strings"
	"unicode/utf8"
)

// piece is one top-level segment plus the separator text that preceded it.
// Keeping the separator lets merges restore the original request text.
type piece struct {
	text string
	sep  string
}

// delimiterRunes split an enumeration at the top level.
var delimiterRunes = map[rune]bool{
	'、': true,
	'，': true,
	',': true,
	'和': true,
}

// bracketPairs maps opening brackets to their closers. Delimiters inside
// brackets never split.
var bracketPairs = map[rune]rune{
	'(': ')',
	'[': ']',
	'{': '}',
	'（': '）',
	'【': '】',
	'《': '》',
}

// quotePairs maps opening quotes to their closers. ASCII quotes close
// themselves.
var quotePairs = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'“':  '”',
	'‘':  '’',
	'「':  '」',
	'『':  '』',
}

// splitTopLevel splits the request at delimiters that sit outside quotes
// and brackets. Empty pieces fold into the separator of the next piece, so
// consecutive delimiters do not produce empty segments.
func splitTopLevel(s string) []piece {
	runes := []rune(s)
	var pieces []piece
	var buf []rune
	sep := ""
	var brackets []rune
	var quote rune

	flush := func(nextSep string) {
		pieces = append(pieces, piece{text: string(buf), sep: sep})
		buf = buf[:0]
		sep = nextSep
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if quote != 0 {
			if r == quote {
				quote = 0
			}
			buf = append(buf, r)
			continue
		}
		if closer, ok := quotePairs[r]; ok {
			quote = closer
			buf = append(buf, r)
			continue
		}
		if closer, ok := bracketPairs[r]; ok {
			brackets = append(brackets, closer)
			buf = append(buf, r)
			continue
		}
		if len(brackets) > 0 {
			if r == brackets[len(brackets)-1] {
				brackets = brackets[:len(brackets)-1]
			}
			buf = append(buf, r)
			continue
		}

		if delimiterRunes[r] {
			flush(string(r))
			continue
		}
		if n := matchWordDelimiter(runes, i); n > 0 {
			flush(string(runes[i : i+n]))
			i += n - 1
			continue
		}

		buf = append(buf, r)
	}
	pieces = append(pieces, piece{text: string(buf), sep: sep})

	return foldEmpty(pieces)
}

// matchWordDelimiter reports the length in runes of a word delimiter
// starting at position i, or 0 when none matches. Word delimiters are the
// conjunctions "以及" and " and " (space-guarded so words like "command"
// never split).
func matchWordDelimiter(runes []rune, i int) int {
	if runes[i] == '以' && i+1 < len(runes) && runes[i+1] == '及' {
		return 2
	}
	if runes[i] == ' ' && i+4 < len(runes) {
		word := strings.ToLower(string(runes[i+1 : i+4]))
		if word == "and" && runes[i+4] == ' ' {
			return 5
		}
	}
	return 0
}

// foldEmpty removes whitespace-only pieces, attaching their text and
// separator to the following piece so nothing is lost.
func foldEmpty(pieces []piece) []piece {
	out := make([]piece, 0, len(pieces))
	pendingSep := ""
	for _, p := range pieces {
		if strings.TrimSpace(p.text) == "" {
			pendingSep += p.sep + p.text
			continue
		}
		if pendingSep != "" {
			p.sep = pendingSep + p.sep
			pendingSep = ""
		}
		out = append(out, p)
	}
	return out
}

// mergeShort folds segments below minSegmentRunes into a neighbor with the
// original separator restored. Short segments are never dropped.
func mergeShort(pieces []piece) []string {
	if len(pieces) == 0 {
		return nil
	}

	merged := make([]piece, 0, len(pieces))
	for _, p := range pieces {
		short := utf8.RuneCountInString(strings.TrimSpace(p.text)) < minSegmentRunes
		if short && len(merged) > 0 {
			merged[len(merged)-1].text += p.sep + p.text
			continue
		}
		merged = append(merged, p)
	}

	// A short head folds forward into the piece after it.
	if len(merged) > 1 && utf8.RuneCountInString(strings.TrimSpace(merged[0].text)) < minSegmentRunes {
		merged[1] = piece{text: merged[0].text + merged[1].sep + merged[1].text, sep: merged[0].sep}
		merged = merged[1:]
	}

	out := make([]string, 0, len(merged))
	for _, p := range merged {
		if text := strings.TrimSpace(p.text); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// cleanSegment trims whitespace and stray delimiter punctuation from a
// segment's edges.
func cleanSegment(s string) string {
	return strings.Trim(s, " \t\n,、，:：;；")
}
