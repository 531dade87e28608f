package compiler

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// Lexer: tokenizer for imp source
// ---------------------------------------------------------------------------

// Lexer tokenizes imp source code.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current character
	line    int  // current line (1-based)
	col     int  // current column (1-based)
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
		col:   0,
	}
	l.readChar()
	return l
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size

	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

// peekChar returns the next character without consuming it.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{Offset: l.pos, Line: l.line, Column: l.col}
}

// skipWhitespaceAndComments advances past whitespace and // line comments.
func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for unicode.IsSpace(l.ch) {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

// NextToken returns the next token. Lexical errors are returned rather than
// accumulated; a lexer error abandons the scan.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespaceAndComments()

	pos := l.position()

	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Pos: pos}, nil

	case l.ch == '(':
		l.readChar()
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}, nil

	case l.ch == ')':
		l.readChar()
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}, nil

	case l.ch == '{':
		l.readChar()
		return Token{Type: TokenLBrace, Literal: "{", Pos: pos}, nil

	case l.ch == '}':
		l.readChar()
		return Token{Type: TokenRBrace, Literal: "}", Pos: pos}, nil

	case l.ch == ':':
		l.readChar()
		return Token{Type: TokenColon, Literal: ":", Pos: pos}, nil

	case l.ch == ';':
		l.readChar()
		return Token{Type: TokenSemi, Literal: ";", Pos: pos}, nil

	case l.ch == '=':
		l.readChar()
		return Token{Type: TokenEqual, Literal: "=", Pos: pos}, nil

	case l.ch == ',':
		l.readChar()
		return Token{Type: TokenComma, Literal: ",", Pos: pos}, nil

	case l.ch == '+':
		l.readChar()
		return Token{Type: TokenPlus, Literal: "+", Pos: pos}, nil

	case l.ch == '"':
		return l.readString(pos)

	case isDigit(l.ch):
		return l.readInt(pos)

	case isIdentStart(l.ch):
		return l.readIdent(pos), nil

	default:
		return Token{}, fmt.Errorf("[%s] unknown character %q", pos, l.ch)
	}
}

// readString scans a double-quoted string (used for primitive names).
func (l *Lexer) readString(pos Position) (Token, error) {
	l.readChar() // consume opening quote
	start := l.pos
	for l.ch != '"' {
		if l.ch == 0 {
			return Token{}, fmt.Errorf("[%s] string not terminated", pos)
		}
		l.readChar()
	}
	lit := l.input[start:l.pos]
	l.readChar() // consume closing quote
	return Token{Type: TokenString, Literal: lit, Pos: pos}, nil
}

// readInt scans a decimal integer literal.
func (l *Lexer) readInt(pos Position) (Token, error) {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	lit := l.input[start:l.pos]
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("[%s] integer literal %q out of range", pos, lit)
	}
	return Token{Type: TokenInt, Literal: lit, IntVal: n, Pos: pos}, nil
}

// readIdent scans an identifier or keyword.
func (l *Lexer) readIdent(pos Position) Token {
	start := l.pos
	for isIdentLetter(l.ch) {
		l.readChar()
	}
	word := l.input[start:l.pos]
	switch word {
	case "func":
		return Token{Type: TokenFunc, Literal: word, Pos: pos}
	case "return":
		return Token{Type: TokenReturn, Literal: word, Pos: pos}
	case "while":
		return Token{Type: TokenWhile, Literal: word, Pos: pos}
	default:
		return Token{Type: TokenIdent, Literal: word, Pos: pos}
	}
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentLetter(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch)
}
