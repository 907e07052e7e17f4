// Package ast defines the tagged node variants produced by
// internal/parser and consumed by internal/types and internal/emit.
// Node pointers are single-owner: each node owns its children, and
// spans are owned by nodes, exactly as the teacher's ast package
// shapes its expression/statement trees.
package ast

import "pyxc/internal/diag"

// Node is implemented by every statement and expression variant so
// generic tree walks (span reporting, pretty-printing) can operate
// without a type switch.
type Node interface {
	Span() diag.Span
}

// Stmt is a statement-level AST node.
type Stmt interface {
	Node
	Accept(v StmtVisitor) any
	stmtNode()
}

// Expr is an expression-level AST node.
type Expr interface {
	Node
	Accept(v ExpressionVisitor) any
	exprNode()
}

// StmtVisitor dispatches over every Stmt variant, mirroring the
// teacher's ast.StmtVisitor interface shape.
type StmtVisitor interface {
	VisitModule(n *Module) any
	VisitFunctionDef(n *FunctionDef) any
	VisitClassDef(n *ClassDef) any
	VisitIf(n *If) any
	VisitWhile(n *While) any
	VisitFor(n *For) any
	VisitReturn(n *Return) any
	VisitAssign(n *Assign) any
	VisitExprStmt(n *ExprStmt) any
	VisitImport(n *Import) any
	VisitImportFrom(n *ImportFrom) any
}

// ExpressionVisitor dispatches over every Expr variant, mirroring the
// teacher's ast.ExpressionVisitor interface shape.
type ExpressionVisitor interface {
	VisitConstant(n *Constant) any
	VisitName(n *Name) any
	VisitBinOp(n *BinOp) any
	VisitUnaryOp(n *UnaryOp) any
	VisitCall(n *Call) any
	VisitAttribute(n *Attribute) any
	VisitSubscript(n *Subscript) any
	VisitList(n *List) any
	VisitTuple(n *Tuple) any
	VisitDict(n *Dict) any
	VisitConditional(n *Conditional) any
}

// Param is a single function parameter: a name with an optional type
// hint, stored verbatim as the hint's source text per spec §4.2 (the
// analyzer may use it or ignore it).
type Param struct {
	Name     string
	TypeHint string // empty when absent
}

// ---- Statements ----------------------------------------------------

// Module is the root node: an ordered sequence of top-level statements.
type Module struct {
	Span_ diag.Span
	Body  []Stmt
}

func (n *Module) Span() diag.Span    { return n.Span_ }
func (n *Module) Accept(v StmtVisitor) any { return v.VisitModule(n) }
func (n *Module) stmtNode()          {}

// FunctionDef covers both sync and async (is_async flag) definitions;
// ReturnHint stores the text after `->`, if any.
type FunctionDef struct {
	Span_    diag.Span
	Name     string
	Params   []Param
	ReturnHint string
	Body     []Stmt
	IsAsync  bool
}

func (n *FunctionDef) Span() diag.Span    { return n.Span_ }
func (n *FunctionDef) Accept(v StmtVisitor) any { return v.VisitFunctionDef(n) }
func (n *FunctionDef) stmtNode()          {}

// ClassDef holds only FunctionDef members and bare docstrings per the
// supported subset; no inheritance.
type ClassDef struct {
	Span_ diag.Span
	Name  string
	Body  []Stmt
}

func (n *ClassDef) Span() diag.Span    { return n.Span_ }
func (n *ClassDef) Accept(v StmtVisitor) any { return v.VisitClassDef(n) }
func (n *ClassDef) stmtNode()          {}

// If's Else is nil when absent; elif chains are desugared by the
// parser into a nested If stored as the sole statement of Else.
type If struct {
	Span_ diag.Span
	Cond  Expr
	Then  []Stmt
	Else  []Stmt
}

func (n *If) Span() diag.Span    { return n.Span_ }
func (n *If) Accept(v StmtVisitor) any { return v.VisitIf(n) }
func (n *If) stmtNode()          {}

type While struct {
	Span_ diag.Span
	Cond  Expr
	Body  []Stmt
}

func (n *While) Span() diag.Span    { return n.Span_ }
func (n *While) Accept(v StmtVisitor) any { return v.VisitWhile(n) }
func (n *While) stmtNode()          {}

// For's Targets holds one name, or several for the parenthesis-less
// tuple-target form; both are lowered uniformly downstream.
type For struct {
	Span_    diag.Span
	Targets  []string
	Iterable Expr
	Body     []Stmt
}

func (n *For) Span() diag.Span    { return n.Span_ }
func (n *For) Accept(v StmtVisitor) any { return v.VisitFor(n) }
func (n *For) stmtNode()          {}

// Return's Value is nil for a bare `return`.
type Return struct {
	Span_ diag.Span
	Value Expr
}

func (n *Return) Span() diag.Span    { return n.Span_ }
func (n *Return) Accept(v StmtVisitor) any { return v.VisitReturn(n) }
func (n *Return) stmtNode()          {}

// Assign's Targets holds one entry for a plain assignment and several
// for tuple targets (`a, b = ...`); each target is a Name,
// Attribute or Subscript expression. Augmented assignment is
// desugared by the parser into an Assign wrapping a BinOp (see
// internal/parser).
type Assign struct {
	Span_   diag.Span
	Targets []Expr
	Value   Expr
}

func (n *Assign) Span() diag.Span    { return n.Span_ }
func (n *Assign) Accept(v StmtVisitor) any { return v.VisitAssign(n) }
func (n *Assign) stmtNode()          {}

// ExprStmt wraps a bare expression used for its side effect; bare
// string literals used as docstrings are dropped by the parser before
// an ExprStmt is ever constructed for them.
type ExprStmt struct {
	Span_ diag.Span
	Value Expr
}

func (n *ExprStmt) Span() diag.Span    { return n.Span_ }
func (n *ExprStmt) Accept(v StmtVisitor) any { return v.VisitExprStmt(n) }
func (n *ExprStmt) stmtNode()          {}

// Import is a plain `import <path> [as <alias>]`.
type Import struct {
	Span_ diag.Span
	Path  string
	Alias string // empty when absent
}

func (n *Import) Span() diag.Span    { return n.Span_ }
func (n *Import) Accept(v StmtVisitor) any { return v.VisitImport(n) }
func (n *Import) stmtNode()          {}

// ImportedName is one `<name> [as <alias>]` clause of a `from ... import ...`.
type ImportedName struct {
	Name  string
	Alias string
}

// ImportFrom is `from <module> import <name [as alias]>, ...`.
type ImportFrom struct {
	Span_  diag.Span
	Module string
	Names  []ImportedName
}

func (n *ImportFrom) Span() diag.Span    { return n.Span_ }
func (n *ImportFrom) Accept(v StmtVisitor) any { return v.VisitImportFrom(n) }
func (n *ImportFrom) stmtNode()          {}

// ---- Expressions -----------------------------------------------------

// ConstKind discriminates the literal kinds Constant may hold.
type ConstKind int

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstString
	ConstBool
	ConstNone
)

type Constant struct {
	Span_ diag.Span
	Kind  ConstKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
	// Raw is the exact source lexeme for a ConstString, quotes and
	// escape sequences undecoded. The JSON-literal memoisation slot
	// table (spec §4.4.7/§9) keys on this instead of Str so that two
	// differently-escaped-but-equal literals (`"A"` vs `"\x41"`) get
	// distinct slots, matching the exact-source-identity rule.
	Raw string
}

func (n *Constant) Span() diag.Span        { return n.Span_ }
func (n *Constant) Accept(v ExpressionVisitor) any { return v.VisitConstant(n) }
func (n *Constant) exprNode()              {}

type Name struct {
	Span_ diag.Span
	Ident string
}

func (n *Name) Span() diag.Span        { return n.Span_ }
func (n *Name) Accept(v ExpressionVisitor) any { return v.VisitName(n) }
func (n *Name) exprNode()              {}

// BinOpKind enumerates every operator spec §3/§4.2 requires, including
// the boolean short-circuit and comparison families which share the
// BinOp shape rather than getting their own node kinds.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpFloorDiv
	OpMod
	OpPow
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpEqual
	OpNotEqual
	OpIn
	OpIs
	OpAnd
	OpOr
)

type BinOp struct {
	Span_ diag.Span
	Op    BinOpKind
	Left  Expr
	Right Expr
}

func (n *BinOp) Span() diag.Span        { return n.Span_ }
func (n *BinOp) Accept(v ExpressionVisitor) any { return v.VisitBinOp(n) }
func (n *BinOp) exprNode()              {}

// UnaryOpKind covers the unary operators spec §4.2 lists (`+ - not ~`).
type UnaryOpKind int

const (
	UnaryPlus UnaryOpKind = iota
	UnaryMinus
	UnaryNot
	UnaryInvert
)

type UnaryOp struct {
	Span_   diag.Span
	Op      UnaryOpKind
	Operand Expr
}

func (n *UnaryOp) Span() diag.Span        { return n.Span_ }
func (n *UnaryOp) Accept(v ExpressionVisitor) any { return v.VisitUnaryOp(n) }
func (n *UnaryOp) exprNode()              {}

// Call covers plain calls and method calls alike; a method call is a
// Call whose Callee is an Attribute.
type Call struct {
	Span_  diag.Span
	Callee Expr
	Args   []Expr
}

func (n *Call) Span() diag.Span        { return n.Span_ }
func (n *Call) Accept(v ExpressionVisitor) any { return v.VisitCall(n) }
func (n *Call) exprNode()              {}

type Attribute struct {
	Span_ diag.Span
	Value Expr
	Attr  string
}

func (n *Attribute) Span() diag.Span        { return n.Span_ }
func (n *Attribute) Accept(v ExpressionVisitor) any { return v.VisitAttribute(n) }
func (n *Attribute) exprNode()              {}

// Subscript's Index is the single index expression; the supported
// subset has no stepped slicing (spec §6 Non-goals).
type Subscript struct {
	Span_ diag.Span
	Value Expr
	Index Expr
}

func (n *Subscript) Span() diag.Span        { return n.Span_ }
func (n *Subscript) Accept(v ExpressionVisitor) any { return v.VisitSubscript(n) }
func (n *Subscript) exprNode()              {}

type List struct {
	Span_    diag.Span
	Elements []Expr
}

func (n *List) Span() diag.Span        { return n.Span_ }
func (n *List) Accept(v ExpressionVisitor) any { return v.VisitList(n) }
func (n *List) exprNode()              {}

type Tuple struct {
	Span_    diag.Span
	Elements []Expr
}

func (n *Tuple) Span() diag.Span        { return n.Span_ }
func (n *Tuple) Accept(v ExpressionVisitor) any { return v.VisitTuple(n) }
func (n *Tuple) exprNode()              {}

// DictEntry is one key/value pair of a Dict literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

type Dict struct {
	Span_   diag.Span
	Entries []DictEntry
}

func (n *Dict) Span() diag.Span        { return n.Span_ }
func (n *Dict) Accept(v ExpressionVisitor) any { return v.VisitDict(n) }
func (n *Dict) exprNode()              {}

// Conditional is the `x if C else y` ternary form spec §4.2's
// precedence table lists at the bottom.
type Conditional struct {
	Span_ diag.Span
	Cond  Expr
	Then  Expr
	Else  Expr
}

func (n *Conditional) Span() diag.Span        { return n.Span_ }
func (n *Conditional) Accept(v ExpressionVisitor) any { return v.VisitConditional(n) }
func (n *Conditional) exprNode()              {}
