package compiler

import (
	"strings"
	"testing"
)

func TestNextTokenSequence(t *testing.T) {
	source := `func add(a: int, b: int): int { return a + b }`

	want := []struct {
		typ     TokenType
		literal string
	}{
		{TokenFunc, "func"},
		{TokenIdent, "add"},
		{TokenLParen, "("},
		{TokenIdent, "a"},
		{TokenColon, ":"},
		{TokenIdent, "int"},
		{TokenComma, ","},
		{TokenIdent, "b"},
		{TokenColon, ":"},
		{TokenIdent, "int"},
		{TokenRParen, ")"},
		{TokenColon, ":"},
		{TokenIdent, "int"},
		{TokenLBrace, "{"},
		{TokenReturn, "return"},
		{TokenIdent, "a"},
		{TokenPlus, "+"},
		{TokenIdent, "b"},
		{TokenRBrace, "}"},
		{TokenEOF, ""},
	}

	l := NewLexer(source)
	for n, w := range want {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("token %d: %v", n, err)
		}
		if tok.Type != w.typ {
			t.Fatalf("token %d: type = %s, want %s", n, tok.Type, w.typ)
		}
		if tok.Literal != w.literal {
			t.Errorf("token %d: literal = %q, want %q", n, tok.Literal, w.literal)
		}
	}
}

func TestIntLiteral(t *testing.T) {
	l := NewLexer("12345")
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("NextToken: %v", err)
	}
	if tok.Type != TokenInt || tok.IntVal != 12345 {
		t.Errorf("token = %s, want INT(12345)", tok)
	}
}

func TestIntLiteralOutOfRange(t *testing.T) {
	l := NewLexer("99999999999999999999")
	if _, err := l.NextToken(); err == nil {
		t.Error("out-of-range literal did not fail")
	}
}

func TestStringLiteral(t *testing.T) {
	l := NewLexer(`"print_int"`)
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("NextToken: %v", err)
	}
	if tok.Type != TokenString || tok.Literal != "print_int" {
		t.Errorf("token = %s, want STRING(print_int)", tok)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := NewLexer(`"oops`)
	_, err := l.NextToken()
	if err == nil || !strings.Contains(err.Error(), "not terminated") {
		t.Errorf("error = %v, want unterminated string", err)
	}
}

func TestCommentsSkipped(t *testing.T) {
	source := "// header comment\nfoo // trailing\n// another\nbar"
	l := NewLexer(source)

	tok, err := l.NextToken()
	if err != nil || tok.Literal != "foo" {
		t.Fatalf("first token = %v (%v), want foo", tok, err)
	}
	tok, err = l.NextToken()
	if err != nil || tok.Literal != "bar" {
		t.Fatalf("second token = %v (%v), want bar", tok, err)
	}
	tok, _ = l.NextToken()
	if !tok.Is(TokenEOF) {
		t.Errorf("third token = %v, want EOF", tok)
	}
}

func TestUnknownCharacter(t *testing.T) {
	l := NewLexer("a $ b")
	if _, err := l.NextToken(); err != nil {
		t.Fatalf("first token: %v", err)
	}
	_, err := l.NextToken()
	if err == nil || !strings.Contains(err.Error(), "unknown character") {
		t.Errorf("error = %v, want unknown character", err)
	}
}

func TestPositions(t *testing.T) {
	l := NewLexer("a\n  b")

	tok, _ := l.NextToken()
	if tok.Pos.Line != 1 || tok.Pos.Column != 1 {
		t.Errorf("a at %s, want 1:1", tok.Pos)
	}
	tok, _ = l.NextToken()
	if tok.Pos.Line != 2 || tok.Pos.Column != 3 {
		t.Errorf("b at %s, want 2:3", tok.Pos)
	}
}

func TestUnderscoreIdent(t *testing.T) {
	l := NewLexer("_tmp1")
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("NextToken: %v", err)
	}
	if tok.Type != TokenIdent || tok.Literal != "_tmp1" {
		t.Errorf("token = %s, want IDENT(_tmp1)", tok)
	}
}
