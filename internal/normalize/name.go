package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Name trims the input, collapses internal whitespace to single spaces and
// title-cases each token. Applied identically regardless of source.
func Name(raw string) string {
	fields := strings.Fields(raw)
	for i, f := range fields {
		fields[i] = titleToken(f)
	}
	return strings.Join(fields, " ")
}

// titleToken upper-cases the first rune and lower-cases the rest.
func titleToken(tok string) string {
	first, size := utf8.DecodeRuneInString(tok)
	if first == utf8.RuneError {
		return tok
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(tok[size:])
}
