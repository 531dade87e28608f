package compiler

// ---------------------------------------------------------------------------
// AST: abstract syntax tree for imp
// ---------------------------------------------------------------------------

// The tree is built once by the parser and read-only during lowering; every
// node owns its children exclusively.

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	node() // marker method
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// RefExpr refers to a named value: a function, a prototype, or an argument.
type RefExpr struct {
	PosVal Position
	Name   string
}

func (n *RefExpr) Pos() Position { return n.PosVal }
func (n *RefExpr) node()         {}
func (n *RefExpr) expr()         {}

// IntExpr is an integer literal.
type IntExpr struct {
	PosVal Position
	Value  int64
}

func (n *IntExpr) Pos() Position { return n.PosVal }
func (n *IntExpr) node()         {}
func (n *IntExpr) expr()         {}

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	// OpAdd is integer addition, the only binary operator in the language.
	OpAdd BinaryOp = iota
)

// BinaryExpr is a binary operation over two sub-expressions.
type BinaryExpr struct {
	PosVal Position
	Op     BinaryOp
	LHS    Expr
	RHS    Expr
}

func (n *BinaryExpr) Pos() Position { return n.PosVal }
func (n *BinaryExpr) node()         {}
func (n *BinaryExpr) expr()         {}

// CallExpr applies a callee to an argument list.
type CallExpr struct {
	PosVal Position
	Callee Expr
	Args   []Expr
}

func (n *CallExpr) Pos() Position { return n.PosVal }
func (n *CallExpr) node()         {}
func (n *CallExpr) expr()         {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// BlockStmt is a sequence of statements in a nested scope.
type BlockStmt struct {
	PosVal Position
	Body   []Stmt
}

func (n *BlockStmt) Pos() Position { return n.PosVal }
func (n *BlockStmt) node()         {}
func (n *BlockStmt) stmt()         {}

// WhileStmt loops over a body while the condition is truthy.
type WhileStmt struct {
	PosVal Position
	Cond   Expr
	Body   Stmt
}

func (n *WhileStmt) Pos() Position { return n.PosVal }
func (n *WhileStmt) node()         {}
func (n *WhileStmt) stmt()         {}

// ReturnStmt returns a value from the enclosing function.
type ReturnStmt struct {
	PosVal Position
	Value  Expr
}

func (n *ReturnStmt) Pos() Position { return n.PosVal }
func (n *ReturnStmt) node()         {}
func (n *ReturnStmt) stmt()         {}

// ExprStmt evaluates an expression and discards its value.
type ExprStmt struct {
	PosVal Position
	Expr   Expr
}

func (n *ExprStmt) Pos() Position { return n.PosVal }
func (n *ExprStmt) node()         {}
func (n *ExprStmt) stmt()         {}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// Param is a named, typed function parameter. Types are recorded but not
// checked here; verification is out of scope for this pipeline.
type Param struct {
	Name string
	Type string
}

// FuncDecl declares a function with a body.
type FuncDecl struct {
	PosVal  Position
	Name    string
	Params  []Param
	RetType string
	Body    *BlockStmt
}

func (n *FuncDecl) Pos() Position { return n.PosVal }
func (n *FuncDecl) node()         {}

// ProtoDecl declares an external function prototype bound to a named
// native primitive.
type ProtoDecl struct {
	PosVal    Position
	Name      string
	Params    []Param
	RetType   string
	Primitive string
}

func (n *ProtoDecl) Pos() Position { return n.PosVal }
func (n *ProtoDecl) node()         {}

// ---------------------------------------------------------------------------
// Module
// ---------------------------------------------------------------------------

// Item is a top-level construct: a function declaration, a prototype
// declaration, or a statement.
type Item interface {
	Node
	item() // marker method
}

func (n *FuncDecl) item()  {}
func (n *ProtoDecl) item() {}

// StmtItem wraps a top-level statement as a module item.
type StmtItem struct {
	Stmt Stmt
}

func (n *StmtItem) Pos() Position { return n.Stmt.Pos() }
func (n *StmtItem) node()         {}
func (n *StmtItem) item()         {}

// Module is the root of the AST: the ordered sequence of top-level items.
type Module struct {
	Items []Item
}
