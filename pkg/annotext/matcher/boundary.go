package matcher

import "unicode"

// validBoundary reports whether the character range [start, end) is a
// standalone token occurrence rather than a substring of a larger token.
//
// Left side: the match starts the text, or follows whitespace or ASCII
// punctuation. Right side: the match ends the text, or is followed by
// whitespace, or by ASCII punctuation other than '.' — and a '.' directly
// before the match also blocks the punctuation case, so abbreviation and
// decimal periods ("U.S.", "3.14") never terminate a match.
//
// A match failing either side is discarded, not trimmed.
func validBoundary(runes []rune, start, end int) bool {
	if start > 0 {
		prev := runes[start-1]
		if !unicode.IsSpace(prev) && !isASCIIPunct(prev) {
			return false
		}
	}
	if end == len(runes) {
		return true
	}
	next := runes[end]
	if unicode.IsSpace(next) {
		return true
	}
	if isASCIIPunct(next) && next != '.' {
		return start == 0 || runes[start-1] != '.'
	}
	return false
}

// isASCIIPunct matches the ASCII punctuation ranges !-/ :-@ [-` {-~.
func isASCIIPunct(r rune) bool {
	switch {
	case r >= '!' && r <= '/':
		return true
	case r >= ':' && r <= '@':
		return true
	case r >= '[' && r <= '`':
		return true
	case r >= '{' && r <= '~':
		return true
	}
	return false
}
