package wowhead

import (
	"bufio"
	"bytes"
	"io"
)

// Occurrence is a token-shaped span found in a document.
type Occurrence struct {
	Line   int
	Column int
	Raw    string
	// Known is false when the abbreviation is not in the type table; such
	// spans render as literal text.
	Known     bool
	Reference Reference
}

// Scan reports every token-shaped span in r, line by line.
func Scan(r io.Reader) ([]Occurrence, error) {
	var out []Occurrence
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		out = append(out, scanLine(sc.Bytes(), line)...)
	}
	return out, sc.Err()
}

func scanLine(b []byte, line int) []Occurrence {
	var out []Occurrence
	for i := 0; i < len(b); {
		j := bytes.IndexByte(b[i:], openDelimiter)
		if j < 0 {
			break
		}
		i += j
		m, ok := MatchToken(b[i:])
		if !ok {
			i++
			continue
		}
		occ := Occurrence{Line: line, Column: i + 1, Raw: string(b[i : i+m.Length])}
		occ.Reference, occ.Known = m.Reference()
		out = append(out, occ)
		i += m.Length
	}
	return out
}

// PlainText replaces every known token in src with its visible text.
// Unknown spans are kept as written.
func PlainText(src []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < len(src); {
		j := bytes.IndexByte(src[i:], openDelimiter)
		if j < 0 {
			buf.Write(src[i:])
			break
		}
		buf.Write(src[i : i+j])
		i += j
		ref, n, ok := Parse(src[i:])
		if !ok {
			buf.WriteByte(openDelimiter)
			i++
			continue
		}
		buf.WriteString(NewLink(ref, DefaultLocale).Text)
		i += n
	}
	return buf.Bytes()
}
