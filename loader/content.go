package loader

import (
	"strconv"
	"strings"
)

// kernSpace is the TJ displacement, in thousandths of a text unit, beyond
// which an adjustment is treated as a word gap.
const kernSpace = 200

// contentText decodes the text shown by a PDF content stream.
// Strings drawn by Tj, TJ, ' and " are emitted in stream order. Line moves
// (T*, Td and TD with a vertical offset, Tm, ET) start a new line. Font
// encodings are not consulted, so only simple single-byte fonts decode
// cleanly.
func contentText(stream string) string {
	s := &contentScanner{src: stream}
	var b strings.Builder
	var operands []any

	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}
	lastString := func() string {
		for i := len(operands) - 1; i >= 0; i-- {
			if str, ok := operands[i].(string); ok {
				return str
			}
		}
		return ""
	}

	for {
		s.skipSpace()
		if s.done() {
			break
		}

		switch c := s.peek(); {
		case c == '%':
			s.skipLine()
		case c == '(':
			operands = append(operands, s.literal())
		case c == '<' && s.peekAt(1) == '<', c == '>' && s.peekAt(1) == '>':
			s.pos += 2
		case c == '<':
			operands = append(operands, s.hex())
		case c == '[':
			operands = append(operands, s.array())
		case c == ']' || c == '{' || c == '}' || c == '>' || c == ')':
			s.pos++
		case c == '/':
			s.pos++
			s.word()
		case isNumberStart(c):
			if n, err := strconv.ParseFloat(s.word(), 64); err == nil {
				operands = append(operands, n)
			}
		default:
			op := s.word()
			if op == "" {
				s.pos++
				continue
			}
			switch op {
			case "Tj", "TJ":
				b.WriteString(lastString())
			case "'", `"`:
				newline()
				b.WriteString(lastString())
			case "T*", "Tm", "ET":
				newline()
			case "Td", "TD":
				if len(operands) >= 2 {
					if ty, ok := operands[len(operands)-1].(float64); ok && ty != 0 {
						newline()
					} else if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") && !strings.HasSuffix(b.String(), "\n") {
						b.WriteByte(' ')
					}
				}
			case "BI":
				s.skipInlineImage()
			}
			operands = operands[:0]
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isNumberStart(c byte) bool {
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return isSpace(c)
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

// contentScanner walks a content stream byte by byte.
type contentScanner struct {
	src string
	pos int
}

func (s *contentScanner) done() bool { return s.pos >= len(s.src) }

func (s *contentScanner) peek() byte { return s.src[s.pos] }

func (s *contentScanner) peekAt(offset int) byte {
	if s.pos+offset >= len(s.src) {
		return 0
	}
	return s.src[s.pos+offset]
}

func (s *contentScanner) skipSpace() {
	for !s.done() && isSpace(s.peek()) {
		s.pos++
	}
}

func (s *contentScanner) skipLine() {
	for !s.done() && s.peek() != '\n' && s.peek() != '\r' {
		s.pos++
	}
}

// word reads a regular token up to the next delimiter.
func (s *contentScanner) word() string {
	start := s.pos
	for !s.done() && !isDelimiter(s.peek()) {
		s.pos++
	}
	return s.src[start:s.pos]
}

// literal reads a parenthesized string, handling nesting and escapes.
func (s *contentScanner) literal() string {
	s.pos++ // (
	var b strings.Builder
	depth := 1
	for !s.done() {
		c := s.peek()
		s.pos++
		switch c {
		case '(':
			depth++
			b.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return b.String()
			}
			b.WriteByte(c)
		case '\\':
			if s.done() {
				return b.String()
			}
			e := s.peek()
			s.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '\r':
				// Line continuation
				if !s.done() && s.peek() == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					v := int(e - '0')
					for i := 0; i < 2 && !s.done() && s.peek() >= '0' && s.peek() <= '7'; i++ {
						v = v*8 + int(s.peek()-'0')
						s.pos++
					}
					b.WriteRune(rune(v & 0xff))
				} else {
					b.WriteByte(e)
				}
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// hex reads a <...> string. Bytes are mapped to Latin-1 runes.
func (s *contentScanner) hex() string {
	s.pos++ // <
	digits := make([]byte, 0, 16)
	for !s.done() && s.peek() != '>' {
		if c := s.peek(); !isSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++ // >
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	var b strings.Builder
	for i := 0; i < len(digits); i += 2 {
		v, err := strconv.ParseUint(string(digits[i:i+2]), 16, 8)
		if err != nil {
			continue
		}
		b.WriteRune(rune(v))
	}
	return b.String()
}

// array reads a TJ array into a single string. Large negative kerning
// becomes a space.
func (s *contentScanner) array() string {
	s.pos++ // [
	var b strings.Builder
	for {
		s.skipSpace()
		if s.done() {
			return b.String()
		}
		switch c := s.peek(); {
		case c == ']':
			s.pos++
			return b.String()
		case c == '(':
			b.WriteString(s.literal())
		case c == '<':
			b.WriteString(s.hex())
		case isNumberStart(c):
			n, err := strconv.ParseFloat(s.word(), 64)
			if err == nil && n < -kernSpace && !strings.HasSuffix(b.String(), " ") {
				b.WriteByte(' ')
			}
		default:
			s.pos++
		}
	}
}

// skipInlineImage moves past inline image data up to and including EI.
func (s *contentScanner) skipInlineImage() {
	if i := strings.Index(s.src[s.pos:], "ID"); i >= 0 {
		s.pos += i + 2
	}
	for !s.done() {
		i := strings.Index(s.src[s.pos:], "EI")
		if i < 0 {
			s.pos = len(s.src)
			return
		}
		at := s.pos + i
		s.pos = at + 2
		if at > 0 && isSpace(s.src[at-1]) && (s.done() || isDelimiter(s.peek())) {
			return
		}
	}
}
