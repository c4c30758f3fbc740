package wowhead

import (
	"strings"
	"unicode/utf8"
)

// forceTextMarker prefixed to a display name keeps the widget from
// replacing the author's text with the entity name.
const forceTextMarker = "!"

// Reference is a parsed reference token such as <s=123,,Name>.
type Reference struct {
	Abbrev      string
	Type        ResourceType
	ID          string
	ExtraInfo   string
	DisplayName string
	ForceText   bool
}

// HasDisplayName reports whether the author supplied visible text.
func (r Reference) HasDisplayName() bool {
	return r.DisplayName != ""
}

// Parse reads a reference token at the start of src. It returns false for
// anything that is not a token with a known abbreviation; callers render
// such input with their default text rules.
func Parse(src []byte) (Reference, int, bool) {
	m, ok := MatchToken(src)
	if !ok {
		return Reference{}, 0, false
	}
	ref, ok := m.Reference()
	if !ok {
		return Reference{}, 0, false
	}
	return ref, m.Length, true
}

// Reference resolves the abbreviation and splits the remainder into extra
// info and display name.
func (m Match) Reference() (Reference, bool) {
	t, ok := LookupType(m.Abbrev)
	if !ok {
		return Reference{}, false
	}
	ref := Reference{Abbrev: m.Abbrev, Type: t, ID: m.ID}
	ref.ExtraInfo, ref.DisplayName = splitRemainder(m.Rest)
	if strings.HasPrefix(ref.DisplayName, forceTextMarker) {
		ref.ForceText = true
		ref.DisplayName = strings.TrimPrefix(ref.DisplayName, forceTextMarker)
	}
	return ref, true
}

// splitRemainder splits ",extra,name". The first character of rest is the
// separator that follows the id. Segment boundaries are found before \,
// escapes are undone, and only the extra info is unescaped.
func splitRemainder(rest string) (extra, name string) {
	if rest == "" {
		return "", ""
	}
	first := unescapedComma(rest, 0)
	switch {
	case first < 0:
		return unescapeCommas(dropFirstRune(rest)), ""
	case first == 0:
		second := unescapedComma(rest, 1)
		if second < 0 {
			return unescapeCommas(rest[1:]), ""
		}
		return unescapeCommas(rest[1:second]), rest[second+1:]
	default:
		extra = unescapeCommas(dropFirstRune(rest[:first]))
		if first+1 < len(rest) {
			name = rest[first+1:]
		}
		return extra, name
	}
}

// unescapedComma returns the index of the first comma at or after from
// that is not preceded by a backslash, or -1.
func unescapedComma(s string, from int) int {
	for i := from; i < len(s); i++ {
		if s[i] == ',' && (i == 0 || s[i-1] != '\\') {
			return i
		}
	}
	return -1
}

func unescapeCommas(s string) string {
	return strings.ReplaceAll(s, `\,`, ",")
}

func dropFirstRune(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[size:]
}
