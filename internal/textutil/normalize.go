package textutil

import "strings"

const (
	ideographicSpace = '\u3000'
	zeroWidthFirst   = '\u200b'
	zeroWidthLast    = '\u200d'
	byteOrderMark    = '\ufeff'
)

// Normalize canonicalizes candidate text: trims, case-folds, converts the
// ideographic space to an ordinary space, strips zero-width and BOM-class
// characters, and collapses whitespace runs to single spaces.
func Normalize(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == ideographicSpace:
			return ' '
		case r >= zeroWidthFirst && r <= zeroWidthLast:
			return -1
		case r == byteOrderMark:
			return -1
		default:
			return r
		}
	}, lowered)
	return strings.Join(strings.Fields(cleaned), " ")
}
