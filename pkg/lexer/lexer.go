// Package lexer implements the lexing stream: a thin, stateful cursor
// over source text with the peek/consume vocabulary the parser is built
// on. Whitespace is never part of a token and is skipped implicitly
// before every peek or consume.
package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/nevakrien/small-lang/pkg/token"
)

// Stream is a byte-oriented, ASCII-aware cursor over one source buffer.
// It holds a single token of lookahead so peek* calls never advance the
// cursor.
type Stream struct {
	src    []byte
	pos    int
	line   int
	column int

	hasLookahead bool
	lookahead    token.Token
}

// New constructs a Stream over src. src is retained, not copied; slices
// handed back by tokens remain valid for the Stream's lifetime.
func New(src []byte) *Stream {
	return &Stream{src: src, pos: 0, line: 1, column: 1}
}

// Pos returns the current byte offset, for callers that need to record a
// source slice's start before parsing a construct.
func (s *Stream) Pos() int {
	if s.hasLookahead {
		return s.lookahead.Begin
	}
	return s.pos
}

// Empty reports whether the stream has nothing left but whitespace.
func (s *Stream) Empty() bool {
	return s.Peek().Type == token.EOF
}

func (s *Stream) byteAt(i int) byte {
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func (s *Stream) advanceByte() byte {
	b := s.src[s.pos]
	s.pos++
	if b == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return b
}

func (s *Stream) skipWhitespace() {
	for s.pos < len(s.src) {
		b := s.src[s.pos]
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' {
			s.advanceByte()
			continue
		}
		if b == '/' && s.byteAt(s.pos+1) == '/' {
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.advanceByte()
			}
			continue
		}
		break
	}
}

// lex produces the next token, not consulting or touching the lookahead
// slot; callers go through peek()/consume() instead.
func (s *Stream) lex() token.Token {
	s.skipWhitespace()
	begin, line, col := s.pos, s.line, s.column

	if s.pos >= len(s.src) {
		return token.Token{Type: token.EOF, Begin: begin, End: begin, Line: line, Column: col}
	}

	b := s.src[s.pos]

	if isIdentStart(b) {
		for s.pos < len(s.src) && isIdentCont(s.src[s.pos]) {
			s.advanceByte()
		}
		text := string(s.src[begin:s.pos])
		typ := token.Ident
		if kw, ok := token.KeywordMap[text]; ok {
			typ = kw
		}
		return token.Token{Type: typ, Text: text, Begin: begin, End: s.pos, Line: line, Column: col}
	}

	if b >= '0' && b <= '9' {
		for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
			s.advanceByte()
		}
		text := string(s.src[begin:s.pos])
		return token.Token{Type: token.Number, Text: text, Begin: begin, End: s.pos, Line: line, Column: col}
	}

	switch b {
	case '(':
		s.advanceByte()
		return s.fixed(token.LParen, begin, line, col)
	case ')':
		s.advanceByte()
		return s.fixed(token.RParen, begin, line, col)
	case '{':
		s.advanceByte()
		return s.fixed(token.LBrace, begin, line, col)
	case '}':
		s.advanceByte()
		return s.fixed(token.RBrace, begin, line, col)
	case '[':
		s.advanceByte()
		return s.fixed(token.LBracket, begin, line, col)
	case ']':
		s.advanceByte()
		return s.fixed(token.RBracket, begin, line, col)
	case ';':
		s.advanceByte()
		return s.fixed(token.Semi, begin, line, col)
	case ',':
		s.advanceByte()
		return s.fixed(token.Comma, begin, line, col)
	case '@':
		s.advanceByte()
		return s.fixed(token.At, begin, line, col)
	}

	for _, op := range token.Operators {
		if s.matchAt(s.pos, op.Text) {
			for range op.Text {
				s.advanceByte()
			}
			return token.Token{Type: op.Type, Text: op.Text, Begin: begin, End: s.pos, Line: line, Column: col}
		}
	}

	r, size := utf8.DecodeRune(s.src[s.pos:])
	if r == utf8.RuneError {
		r = rune(b)
		size = 1
	}
	s.pos += size
	s.column++
	return token.Token{Type: token.Invalid, Text: fmt.Sprintf("%c", r), Begin: begin, End: s.pos, Line: line, Column: col}
}

func (s *Stream) fixed(typ token.Type, begin, line, col int) token.Token {
	return token.Token{Type: typ, Text: token.TypeStrings[typ], Begin: begin, End: s.pos, Line: line, Column: col}
}

func (s *Stream) matchAt(pos int, text string) bool {
	if pos+len(text) > len(s.src) {
		return false
	}
	return string(s.src[pos:pos+len(text)]) == text
}

func isIdentStart(b byte) bool {
	return b == '_' || unicode.IsLetter(rune(b))
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

// fill makes sure the lookahead slot holds the next token.
func (s *Stream) fill() {
	if !s.hasLookahead {
		s.lookahead = s.lex()
		s.hasLookahead = true
	}
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() token.Token {
	s.fill()
	return s.lookahead
}

// advance consumes and returns the lookahead token.
func (s *Stream) advance() token.Token {
	s.fill()
	t := s.lookahead
	s.hasLookahead = false
	return t
}

// TryOperator consumes the next token and returns it if it is one of the
// given operator token types; otherwise it leaves the stream untouched
// and returns ok=false.
func (s *Stream) TryOperator(types ...token.Type) (token.Token, bool) {
	next := s.Peek()
	for _, t := range types {
		if next.Type == t {
			return s.advance(), true
		}
	}
	return token.Token{}, false
}

// PeekOperator reports the type of the next token without consuming it;
// a non-operator token is still returned so callers can branch on it.
func (s *Stream) PeekOperator() token.Type {
	return s.Peek().Type
}

// TryConsume consumes the next token if it matches typ, returning ok.
func (s *Stream) TryConsume(typ token.Type) (token.Token, bool) {
	if s.Peek().Type == typ {
		return s.advance(), true
	}
	return token.Token{}, false
}

// Consume requires the next token to be typ, returning a structured
// parse error naming the expected literal and the actual token found
// when it is not.
func (s *Stream) Consume(typ token.Type) (token.Token, error) {
	if tok, ok := s.TryConsume(typ); ok {
		return tok, nil
	}
	return token.Token{}, &ParseError{
		Pos:     s.Peek().Begin,
		Message: fmt.Sprintf("expected '%s', found %s", token.TypeStrings[typ], s.FoundToken()),
	}
}

// TryName consumes an identifier if present.
func (s *Stream) TryName() (token.Token, bool) {
	return s.TryConsume(token.Ident)
}

// ConsumeName requires an identifier next.
func (s *Stream) ConsumeName() (token.Token, error) {
	return s.Consume(token.Ident)
}

// TryNumber consumes a number literal if present, already parsed to its
// 64-bit unsigned value.
func (s *Stream) TryNumber() (uint64, token.Token, bool) {
	tok, ok := s.TryConsume(token.Number)
	if !ok {
		return 0, token.Token{}, false
	}
	var v uint64
	for _, c := range tok.Text {
		v = v*10 + uint64(c-'0')
	}
	return v, tok, true
}

// FoundToken renders the current lookahead token the way error messages
// want it: the keyword/operator spelling, the literal text for
// identifiers/numbers, or "EOF".
func (s *Stream) FoundToken() string {
	return s.Peek().String()
}

// ParseError is the structured {message, source-position} pair the
// parser raises. The first one raised terminates parsing of the
// current global; there is no recovery.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}
