package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the imp lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Keywords
	TokenFunc   // func
	TokenReturn // return
	TokenWhile  // while

	// Symbols
	TokenLParen // (
	TokenRParen // )
	TokenLBrace // {
	TokenRBrace // }
	TokenColon  // :
	TokenSemi   // ;
	TokenEqual  // =
	TokenComma  // ,
	TokenPlus   // +

	// Complex tokens
	TokenInt    // 42
	TokenString // "print_int"
	TokenIdent  // foo
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "EOF",
	TokenFunc:   "func",
	TokenReturn: "return",
	TokenWhile:  "while",
	TokenLParen: "(",
	TokenRParen: ")",
	TokenLBrace: "{",
	TokenRBrace: "}",
	TokenColon:  ":",
	TokenSemi:   ";",
	TokenEqual:  "=",
	TokenComma:  ",",
	TokenPlus:   "+",
	TokenInt:    "INT",
	TokenString: "STRING",
	TokenIdent:  "IDENT",
}

// String returns the name of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", int(t))
}

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

// String renders the position for diagnostics.
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is a single lexeme with its source position. Integer tokens carry
// their parsed value; string and identifier tokens carry their text.
type Token struct {
	Type    TokenType
	Literal string
	IntVal  int64
	Pos     Position
}

// Is checks whether the token is of a specific type.
func (t Token) Is(typ TokenType) bool {
	return t.Type == typ
}

// String renders the token for diagnostics.
func (t Token) String() string {
	switch t.Type {
	case TokenInt:
		return fmt.Sprintf("INT(%d)", t.IntVal)
	case TokenString:
		return fmt.Sprintf("STRING(%q)", t.Literal)
	case TokenIdent:
		return fmt.Sprintf("IDENT(%s)", t.Literal)
	default:
		return t.Type.String()
	}
}
