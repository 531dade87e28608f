package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Parser: recursive descent over the token stream
// ---------------------------------------------------------------------------

// Parser builds the AST from imp source. The first lexical or syntax error
// stops the parse; the parser enforces grammar only and leaves name and
// type checking to later phases.
type Parser struct {
	lexer *Lexer
	cur   Token
	err   error
}

// NewParser creates a parser over the given source.
func NewParser(source string) *Parser {
	p := &Parser{lexer: NewLexer(source)}
	p.advance()
	return p
}

// Parse is the package entry point: source text to module AST.
func Parse(source string) (*Module, error) {
	return NewParser(source).ParseModule()
}

// advance moves to the next token. Once an error is recorded the parser
// stays put, so every loop terminates.
func (p *Parser) advance() {
	if p.err != nil {
		return
	}
	tok, err := p.lexer.NextToken()
	if err != nil {
		p.err = err
		p.cur = Token{Type: TokenEOF, Pos: p.cur.Pos}
		return
	}
	p.cur = tok
}

// expect consumes a token of the given type or records a syntax error.
func (p *Parser) expect(typ TokenType) Token {
	tok := p.cur
	if !tok.Is(typ) {
		p.errorf(tok.Pos, "unexpected %s, expecting %s", tok, typ)
		return tok
	}
	p.advance()
	return tok
}

// errorf records the first syntax error.
func (p *Parser) errorf(pos Position, format string, args ...interface{}) {
	if p.err == nil {
		p.err = fmt.Errorf("[%s] %s", pos, fmt.Sprintf(format, args...))
	}
}

// ---------------------------------------------------------------------------
// Module and declarations
// ---------------------------------------------------------------------------

// ParseModule parses a whole translation unit.
func (p *Parser) ParseModule() (*Module, error) {
	mod := &Module{}
	for !p.cur.Is(TokenEOF) && p.err == nil {
		if p.cur.Is(TokenFunc) {
			mod.Items = append(mod.Items, p.parseFuncOrProto())
		} else {
			mod.Items = append(mod.Items, &StmtItem{Stmt: p.parseStmt()})
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return mod, nil
}

// parseFuncOrProto parses a function declaration or an external prototype:
//
//	func name(a: int, b: int): int { ... }
//	func name(a: int): int = "primitive"
func (p *Parser) parseFuncOrProto() Item {
	pos := p.cur.Pos
	p.expect(TokenFunc)
	name := p.expect(TokenIdent).Literal
	p.expect(TokenLParen)

	var params []Param
	if !p.cur.Is(TokenRParen) {
		for p.err == nil {
			argName := p.expect(TokenIdent).Literal
			p.expect(TokenColon)
			argType := p.expect(TokenIdent).Literal
			params = append(params, Param{Name: argName, Type: argType})
			if !p.cur.Is(TokenComma) {
				break
			}
			p.advance()
		}
	}
	p.expect(TokenRParen)

	p.expect(TokenColon)
	retType := p.expect(TokenIdent).Literal

	if p.cur.Is(TokenEqual) {
		p.advance()
		primitive := p.expect(TokenString).Literal
		return &ProtoDecl{
			PosVal:    pos,
			Name:      name,
			Params:    params,
			RetType:   retType,
			Primitive: primitive,
		}
	}

	body := p.parseBlockStmt()
	return &FuncDecl{
		PosVal:  pos,
		Name:    name,
		Params:  params,
		RetType: retType,
		Body:    body,
	}
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseStmt() Stmt {
	switch p.cur.Type {
	case TokenReturn:
		return p.parseReturnStmt()
	case TokenWhile:
		return p.parseWhileStmt()
	case TokenLBrace:
		return p.parseBlockStmt()
	default:
		pos := p.cur.Pos
		return &ExprStmt{PosVal: pos, Expr: p.parseExpr()}
	}
}

func (p *Parser) parseBlockStmt() *BlockStmt {
	pos := p.cur.Pos
	p.expect(TokenLBrace)

	var body []Stmt
	if !p.cur.Is(TokenRBrace) {
		for p.err == nil {
			body = append(body, p.parseStmt())
			if !p.cur.Is(TokenSemi) {
				break
			}
			p.advance()
			if p.cur.Is(TokenRBrace) {
				break
			}
		}
	}
	p.expect(TokenRBrace)
	return &BlockStmt{PosVal: pos, Body: body}
}

func (p *Parser) parseReturnStmt() Stmt {
	pos := p.cur.Pos
	p.expect(TokenReturn)
	return &ReturnStmt{PosVal: pos, Value: p.parseExpr()}
}

func (p *Parser) parseWhileStmt() Stmt {
	pos := p.cur.Pos
	p.expect(TokenWhile)
	p.expect(TokenLParen)
	cond := p.parseExpr()
	p.expect(TokenRParen)
	body := p.parseStmt()
	return &WhileStmt{PosVal: pos, Cond: cond, Body: body}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (p *Parser) parseExpr() Expr {
	return p.parseAddExpr()
}

func (p *Parser) parseAddExpr() Expr {
	term := p.parseCallExpr()
	for p.cur.Is(TokenPlus) && p.err == nil {
		pos := p.cur.Pos
		p.advance()
		rhs := p.parseCallExpr()
		term = &BinaryExpr{PosVal: pos, Op: OpAdd, LHS: term, RHS: rhs}
	}
	return term
}

func (p *Parser) parseCallExpr() Expr {
	callee := p.parseTermExpr()
	for p.cur.Is(TokenLParen) && p.err == nil {
		pos := p.cur.Pos
		p.advance()

		var args []Expr
		if !p.cur.Is(TokenRParen) {
			for p.err == nil {
				args = append(args, p.parseExpr())
				if !p.cur.Is(TokenComma) {
					break
				}
				p.advance()
			}
		}
		p.expect(TokenRParen)
		callee = &CallExpr{PosVal: pos, Callee: callee, Args: args}
	}
	return callee
}

func (p *Parser) parseTermExpr() Expr {
	tok := p.cur
	switch tok.Type {
	case TokenIdent:
		p.advance()
		return &RefExpr{PosVal: tok.Pos, Name: tok.Literal}
	case TokenInt:
		p.advance()
		return &IntExpr{PosVal: tok.Pos, Value: tok.IntVal}
	default:
		p.errorf(tok.Pos, "unexpected %s, expecting term", tok)
		return &IntExpr{PosVal: tok.Pos}
	}
}
