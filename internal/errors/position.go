package errors

import "unicode/utf8"

// LineColumn converts a byte offset into src to a 1-based line and column.
// Columns count runes, so multi-byte characters occupy one column.
func LineColumn(src string, offset int) (line, column int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	line = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	column = utf8.RuneCountInString(src[lineStart:offset]) + 1
	return line, column
}
