package receipt

import "strings"

// Document is the composed receipt markup. It is produced once per dispatch
// and never modified afterwards; helpers return new values.
type Document string

// String returns the markup
func (d Document) String() string {
	return string(d)
}

// InsertBeforeBodyClose returns a copy with snippet placed before the first
// closing body tag, or appended when the document has none.
func (d Document) InsertBeforeBodyClose(snippet string) Document {
	const closing = "</body>"
	s := string(d)
	idx := strings.Index(s, closing)
	if idx < 0 {
		return Document(s + snippet)
	}
	return Document(s[:idx] + snippet + s[idx:])
}
