package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as text with Unix line endings. Invalid UTF-8 sequences
// are replaced with the replacement character.
func extractPlain(content []byte) (string, error) {
	s := string(content)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ReplaceAll(s, "\r\n", "\n"), nil
}
