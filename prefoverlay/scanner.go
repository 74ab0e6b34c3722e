package prefoverlay

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/zclconf/go-cty/cty"
)

// scanner walks over a single line of a preference file. The only state
// carried from one line to the next is whether we're inside a block comment.
type scanner struct {
	line      []byte
	pos       int
	inComment bool
}

func (s *scanner) reset(line []byte) {
	s.line = line
	s.pos = 0
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.line)
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.line[s.pos]
}

// skipTrivia moves past whitespace and comments. A "//" comment consumes
// the rest of the line, while a "/*" comment may continue onto later lines.
func (s *scanner) skipTrivia() {
	for !s.eof() {
		if s.inComment {
			end := strings.Index(string(s.line[s.pos:]), "*/")
			if end == -1 {
				s.pos = len(s.line)
				return
			}
			s.pos += end + 2
			s.inComment = false
			continue
		}
		switch c := s.peek(); {
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			s.pos++
		case s.hasPrefix("//"):
			s.pos = len(s.line)
		case s.hasPrefix("/*"):
			s.pos += 2
			s.inComment = true
		default:
			return
		}
	}
}

func (s *scanner) hasPrefix(prefix string) bool {
	return strings.HasPrefix(string(s.line[s.pos:]), prefix)
}

// expect consumes the given punctuation character, after skipping any
// leading trivia.
func (s *scanner) expect(c byte, what string) string {
	s.skipTrivia()
	if s.peek() != c {
		return fmt.Sprintf("expected %s %s", what, s.found())
	}
	s.pos++
	return ""
}

// found describes what is at the current position, for error messages.
func (s *scanner) found() string {
	if s.eof() {
		return "before the end of the line"
	}
	r, _ := utf8.DecodeRune(s.line[s.pos:])
	return fmt.Sprintf("but found %q", r)
}

func (s *scanner) ident() string {
	start := s.pos
	for !s.eof() {
		c := s.peek()
		if !(isLetter(c) || c == '_' || (s.pos > start && isDigit(c))) {
			break
		}
		s.pos++
	}
	return string(s.line[start:s.pos])
}

// value parses a string, integer or boolean literal at the current position.
func (s *scanner) value() (cty.Value, string) {
	s.skipTrivia()
	switch c := s.peek(); {
	case c == '"' || c == '\'':
		str, problem := s.stringLit()
		if problem != "" {
			return cty.NilVal, problem
		}
		return cty.StringVal(str), ""
	case c == '+' || c == '-' || isDigit(c):
		return s.intLit()
	case isLetter(c):
		switch word := s.ident(); word {
		case "true":
			return cty.True, ""
		case "false":
			return cty.False, ""
		default:
			return cty.NilVal, fmt.Sprintf("%q is not a valid value; use true, false, a number, or a quoted string", word)
		}
	default:
		return cty.NilVal, "expected a value " + s.found()
	}
}

func (s *scanner) intLit() (cty.Value, string) {
	start := s.pos
	if c := s.peek(); c == '+' || c == '-' {
		s.pos++
	}
	digits := s.pos
	for !s.eof() && isDigit(s.peek()) {
		s.pos++
	}
	if s.pos == digits {
		return cty.NilVal, "expected digits after the sign " + s.found()
	}
	if c := s.peek(); isLetter(c) || c == '.' || c == '_' {
		return cty.NilVal, "only whole numbers are allowed as preference values"
	}
	text := string(s.line[start:s.pos])
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return cty.NilVal, fmt.Sprintf("the integer %s is outside of the supported range", text)
	}
	return cty.NumberIntVal(n), ""
}

// stringLit parses a single- or double-quoted string, decoding its escape
// sequences.
func (s *scanner) stringLit() (string, string) {
	s.skipTrivia()
	quote := s.peek()
	if quote != '"' && quote != '\'' {
		return "", "expected a quoted string " + s.found()
	}
	s.pos++

	var buf strings.Builder
	for {
		if s.eof() {
			return "", "unterminated string"
		}
		c := s.peek()
		switch {
		case c == quote:
			s.pos++
			ret := buf.String()
			if !utf8.ValidString(ret) {
				return "", "string is not valid UTF-8"
			}
			return ret, ""
		case c == '\\':
			s.pos++
			r, problem := s.escape()
			if problem != "" {
				return "", problem
			}
			buf.WriteRune(r)
		default:
			buf.WriteByte(c)
			s.pos++
		}
	}
}

func (s *scanner) escape() (rune, string) {
	if s.eof() {
		return 0, "unterminated string"
	}
	c := s.peek()
	s.pos++
	switch c {
	case '\\', '"', '\'':
		return rune(c), ""
	case 'n':
		return '\n', ""
	case 'r':
		return '\r', ""
	case 't':
		return '\t', ""
	case 'x':
		return s.hexRune(2)
	case 'u':
		r, problem := s.hexRune(4)
		if problem != "" {
			return 0, problem
		}
		if utf16.IsSurrogate(r) {
			// A high surrogate must be followed by a \u escape for its
			// low surrogate.
			if !s.hasPrefix(`\u`) {
				return 0, "incomplete surrogate pair in \\u escape"
			}
			s.pos += 2
			lo, problem := s.hexRune(4)
			if problem != "" {
				return 0, problem
			}
			r = utf16.DecodeRune(r, lo)
			if r == utf8.RuneError {
				return 0, "invalid surrogate pair in \\u escape"
			}
		}
		return r, ""
	default:
		return 0, fmt.Sprintf("invalid escape sequence \\%c", c)
	}
}

func (s *scanner) hexRune(n int) (rune, string) {
	if s.pos+n > len(s.line) {
		return 0, "incomplete escape sequence"
	}
	v, err := strconv.ParseUint(string(s.line[s.pos:s.pos+n]), 16, 32)
	if err != nil {
		return 0, "invalid hexadecimal digits in escape sequence"
	}
	s.pos += n
	return rune(v), ""
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
