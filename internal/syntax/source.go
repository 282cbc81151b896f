package syntax

// source is a byte reader over a type spelling with column tracking.
// Type spellings are ASCII, so each byte is one character.
type source struct {
	buf  string
	offs int  // offset of the byte after ch
	ch   rune // current character, -1 for EOF
	col  int  // 1-based column of ch

	errh func(col int, msg string)
}

func newSource(text string, errh func(col int, msg string)) *source {
	s := &source{buf: text, ch: -1, errh: errh}
	s.nextch()
	return s
}

// nextch advances to the next character. Sets s.ch to -1 at EOF.
func (s *source) nextch() {
	s.col++
	if s.offs >= len(s.buf) {
		s.ch = -1
		return
	}
	s.ch = rune(s.buf[s.offs])
	s.offs++
}

// peek returns the character after ch without consuming it.
func (s *source) peek() rune {
	if s.offs >= len(s.buf) {
		return -1
	}
	return rune(s.buf[s.offs])
}

// rest returns the unread input starting at ch.
func (s *source) rest() string {
	if s.ch < 0 {
		return ""
	}
	return s.buf[s.offs-1:]
}

// skip advances n characters.
func (s *source) skip(n int) {
	for i := 0; i < n && s.ch >= 0; i++ {
		s.nextch()
	}
}

func (s *source) error(msg string) {
	if s.errh != nil {
		s.errh(s.col, msg)
	}
}

// isLetter reports whether r is a letter (a-z, A-Z, or _).
func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_' || r == '$'
}

// isDigit reports whether r is a decimal digit (0-9).
func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isWhitespace reports whether r is a whitespace character.
func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
