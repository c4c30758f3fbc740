package wowhead

// State is a position in the reference token state machine.
type State int

const (
	ExpectDelimiter State = iota
	ExpectType
	ExpectEquals
	ExpectID
	ExpectRemainder
	Done
	Rejected
)

func (s State) String() string {
	switch s {
	case ExpectDelimiter:
		return "ExpectDelimiter"
	case ExpectType:
		return "ExpectType"
	case ExpectEquals:
		return "ExpectEquals"
	case ExpectID:
		return "ExpectID"
	case ExpectRemainder:
		return "ExpectRemainder"
	case Done:
		return "Done"
	default:
		return "Rejected"
	}
}

const (
	openDelimiter  = '<'
	closeDelimiter = '>'
)

// Match is the raw shape of a reference token before the abbreviation is
// resolved: <Abbrev=ID Rest>.
type Match struct {
	Abbrev string
	ID     string
	Rest   string
	// Length is the number of bytes the token occupies, delimiters included.
	Length int
}

// scanner walks a byte slice through the token states. Every transition
// function inspects one byte and reports the next state and whether the
// byte was consumed; a state that does not consume hands the same byte to
// the next state.
type scanner struct {
	src   []byte
	pos   int
	state State

	typeStart, typeEnd int
	idStart, idEnd     int
	restStart, restEnd int
}

func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (s *scanner) expectDelimiter(c byte) (State, bool) {
	if c != openDelimiter {
		return Rejected, false
	}
	s.typeStart = s.pos + 1
	return ExpectType, true
}

func (s *scanner) expectType(c byte) (State, bool) {
	if isLower(c) {
		return ExpectType, true
	}
	if s.pos == s.typeStart {
		return Rejected, false
	}
	s.typeEnd = s.pos
	return ExpectEquals, false
}

func (s *scanner) expectEquals(c byte) (State, bool) {
	if c != '=' {
		return Rejected, false
	}
	s.idStart = s.pos + 1
	return ExpectID, true
}

func (s *scanner) expectID(c byte) (State, bool) {
	if isDigit(c) {
		return ExpectID, true
	}
	if s.pos == s.idStart {
		return Rejected, false
	}
	s.idEnd = s.pos
	s.restStart = s.pos
	return ExpectRemainder, false
}

// expectRemainder accepts anything up to the closing delimiter. Tokens do
// not span lines.
func (s *scanner) expectRemainder(c byte) (State, bool) {
	switch c {
	case closeDelimiter:
		s.restEnd = s.pos
		return Done, true
	case '\n', '\r':
		return Rejected, false
	}
	return ExpectRemainder, true
}

func (s *scanner) step(c byte) (State, bool) {
	switch s.state {
	case ExpectDelimiter:
		return s.expectDelimiter(c)
	case ExpectType:
		return s.expectType(c)
	case ExpectEquals:
		return s.expectEquals(c)
	case ExpectID:
		return s.expectID(c)
	case ExpectRemainder:
		return s.expectRemainder(c)
	}
	return Rejected, false
}

// MatchToken reports whether a reference token starts at src[0]. It does
// not resolve the abbreviation; see Parse for that.
func MatchToken(src []byte) (Match, bool) {
	s := &scanner{src: src, state: ExpectDelimiter}
	for s.pos < len(src) {
		next, consumed := s.step(src[s.pos])
		s.state = next
		if next == Rejected {
			return Match{}, false
		}
		if consumed {
			s.pos++
		}
		if next == Done {
			return Match{
				Abbrev: string(src[s.typeStart:s.typeEnd]),
				ID:     string(src[s.idStart:s.idEnd]),
				Rest:   string(src[s.restStart:s.restEnd]),
				Length: s.pos,
			}, true
		}
	}
	return Match{}, false
}
