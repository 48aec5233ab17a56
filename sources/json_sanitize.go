package sources

import (
	"bytes"
	"io"
	"unicode"
)

// newTrailingCommaReader entfernt ein hängendes Komma vor der schließenden
// Array-Klammer. Einer der Roh-Exporte endet mit "},\n]" und wäre sonst kein
// gültiges JSON.
func newTrailingCommaReader(data []byte) io.Reader {
	trimmed := bytes.TrimRightFunc(data, unicode.IsSpace)
	if !bytes.HasSuffix(trimmed, []byte("]")) {
		return bytes.NewReader(data)
	}
	body := bytes.TrimRightFunc(trimmed[:len(trimmed)-1], unicode.IsSpace)
	if bytes.HasSuffix(body, []byte(",")) {
		cleaned := append(append([]byte{}, body[:len(body)-1]...), ']')
		return bytes.NewReader(cleaned)
	}
	return bytes.NewReader(data)
}
