// Package types implements the two-sweep type/shape analyzer of spec
// §4.3: reassignment detection followed by coarse type inference, plus
// per-function parameter/return inference and a call-graph fixed point
// for allocator-need. It reuses the teacher's Visitor-dispatch idiom
// (interpreter.TreeWalkInterpreter's evaluate/executeStatements
// traversal) to walk the tree, annotating instead of evaluating.
package types

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"pyxc/internal/ast"
)

// FunctionInfo is the per-function metadata table the emitter consults
// for signature generation (spec §4.4.4/§4.4.6).
type FunctionInfo struct {
	Name           string
	Decl           *ast.FunctionDef
	Params         map[string]Tag
	ParamOrder     []string
	Return         Tag
	returnSeen     bool
	NeedsAllocator bool
	IsAsync        bool
	Scope          *SymbolTable
	calls          []string // names of plain functions called anywhere in the body
}

// ClassInfo is the per-class metadata the emitter uses to materialise
// a struct type and its methods (spec §4.4.5).
type ClassInfo struct {
	Name    string
	Fields  []string // instance fields discovered from self.<name> = ... in __init__
	Methods map[string]*FunctionInfo
}

// Result is everything downstream the Code Emitter needs.
type Result struct {
	Module    *SymbolTable
	Functions map[string]*FunctionInfo
	Classes   map[string]*ClassInfo
	ExprTags  map[ast.Expr]Tag
}

// Analyzer runs the two sweeps over a single Module.
type Analyzer struct {
	module    *SymbolTable
	functions map[string]*FunctionInfo
	classes   map[string]*ClassInfo
	exprTags  map[ast.Expr]Tag

	// current names the FunctionInfo whose body is presently being
	// walked, so inferExpr can attribute allocator-need and call-graph
	// edges to the right function. Nil while walking module-level code.
	current *FunctionInfo
}

// New creates an Analyzer ready to run over a freshly parsed Module.
func New() *Analyzer {
	return &Analyzer{
		module:    NewSymbolTable(),
		functions: make(map[string]*FunctionInfo),
		classes:   make(map[string]*ClassInfo),
		exprTags:  make(map[ast.Expr]Tag),
	}
}

// Analyze runs sweep 1 (reassignment), per-function parameter
// inference, sweep 2 (type inference, which resolves each function's
// return tag as it walks the body), and the allocator-need fixed
// point, in that order, matching the linear no-back-edges pipeline of
// spec §2. Parameter inference runs before sweep 2 so that a
// parameter's tag is already seeded into its function's scope by the
// time the body is walked.
func (a *Analyzer) Analyze(module *ast.Module) (*Result, error) {
	a.collectDeclarations(module.Body)
	a.sweepReassignment(module.Body, a.module)
	a.inferParams()
	a.sweepTypeInference(module.Body, a.module)
	if err := a.resolveAllocatorNeed(); err != nil {
		return nil, err
	}

	return &Result{
		Module:    a.module,
		Functions: a.functions,
		Classes:   a.classes,
		ExprTags:  a.exprTags,
	}, nil
}

// collectDeclarations pre-registers every top-level FunctionDef and
// ClassDef so forward references (mutual recursion, a class used
// before its textual definition) resolve during sweep 2.
func (a *Analyzer) collectDeclarations(body []ast.Stmt) {
	for _, stmt := range body {
		switch n := stmt.(type) {
		case *ast.FunctionDef:
			a.functions[n.Name] = &FunctionInfo{
				Name:    n.Name,
				Decl:    n,
				Params:  make(map[string]Tag),
				IsAsync: n.IsAsync,
				Scope:   NewNestedSymbolTable(a.module),
			}
		case *ast.ClassDef:
			info := &ClassInfo{Name: n.Name, Methods: make(map[string]*FunctionInfo)}
			for _, member := range n.Body {
				if fn, ok := member.(*ast.FunctionDef); ok {
					info.Methods[fn.Name] = &FunctionInfo{
						Name:   fn.Name,
						Decl:   fn,
						Params: make(map[string]Tag),
						Scope:  NewNestedSymbolTable(a.module),
					}
					if fn.Name == "__init__" {
						info.Fields = collectInitFields(fn)
					}
				}
			}
			a.classes[n.Name] = info
		}
	}
}

// collectInitFields scans __init__'s body for `self.<name> = <value>`
// assignments per spec §4.4.5; every discovered field is a 64-bit
// signed integer field in the emitted struct.
func collectInitFields(init *ast.FunctionDef) []string {
	var fields []string
	seen := map[string]bool{}
	var walk func(stmts []ast.Stmt)
	walk = func(stmts []ast.Stmt) {
		for _, stmt := range stmts {
			assign, ok := stmt.(*ast.Assign)
			if !ok {
				continue
			}
			for _, target := range assign.Targets {
				attr, ok := target.(*ast.Attribute)
				if !ok {
					continue
				}
				recv, ok := attr.Value.(*ast.Name)
				if !ok || recv.Ident != "self" {
					continue
				}
				if !seen[attr.Attr] {
					seen[attr.Attr] = true
					fields = append(fields, attr.Attr)
				}
			}
		}
	}
	walk(init.Body)
	return fields
}

// ---- Sweep 1: reassignment detection ---------------------------------

func (a *Analyzer) sweepReassignment(body []ast.Stmt, scope *SymbolTable) {
	for _, stmt := range body {
		a.recordStmtAssignments(stmt, scope)
	}
}

func (a *Analyzer) recordStmtAssignments(stmt ast.Stmt, scope *SymbolTable) {
	switch n := stmt.(type) {
	case *ast.Assign:
		for _, target := range n.Targets {
			if name, ok := target.(*ast.Name); ok {
				scope.RecordAssignment(name.Ident)
			}
		}
	case *ast.FunctionDef:
		fn := a.functions[n.Name]
		if fn == nil {
			fn = &FunctionInfo{Name: n.Name, Decl: n, Params: make(map[string]Tag), Scope: NewNestedSymbolTable(scope)}
		}
		for _, p := range n.Params {
			fn.Scope.RecordAssignment(p.Name)
		}
		a.sweepReassignment(n.Body, fn.Scope)
	case *ast.ClassDef:
		for _, member := range n.Body {
			if fn, ok := member.(*ast.FunctionDef); ok {
				info := a.classes[n.Name].Methods[fn.Name]
				a.sweepReassignment(fn.Body, info.Scope)
			}
		}
	case *ast.If:
		a.sweepReassignment(n.Then, scope)
		a.sweepReassignment(n.Else, scope)
	case *ast.While:
		a.sweepReassignment(n.Body, scope)
	case *ast.For:
		for _, target := range n.Targets {
			scope.RecordAssignment(target)
		}
		a.sweepReassignment(n.Body, scope)
	}
}

// ---- Sweep 2: coarse type inference -----------------------------------

func (a *Analyzer) sweepTypeInference(body []ast.Stmt, scope *SymbolTable) {
	for _, stmt := range body {
		a.inferStmt(stmt, scope)
	}
}

func (a *Analyzer) inferStmt(stmt ast.Stmt, scope *SymbolTable) {
	switch n := stmt.(type) {
	case *ast.Assign:
		valueTag := a.inferExpr(n.Value, scope)
		for _, target := range n.Targets {
			if name, ok := target.(*ast.Name); ok {
				scope.Declare(name.Ident, valueTag)
			} else {
				a.inferExpr(target, scope)
			}
		}
	case *ast.ExprStmt:
		a.inferExpr(n.Value, scope)
	case *ast.Return:
		if n.Value != nil {
			tag := a.inferExpr(n.Value, scope)
			if a.current != nil {
				if a.current.returnSeen {
					a.current.Return = Generalize(a.current.Return, tag)
				} else {
					a.current.Return = tag
					a.current.returnSeen = true
				}
			}
		}
	case *ast.FunctionDef:
		fn := a.functions[n.Name]
		if fn == nil {
			return
		}
		previous := a.current
		a.current = fn
		a.sweepTypeInference(n.Body, fn.Scope)
		a.current = previous
	case *ast.ClassDef:
		for _, member := range n.Body {
			if fn, ok := member.(*ast.FunctionDef); ok {
				info := a.classes[n.Name].Methods[fn.Name]
				info.Scope.Declare("self", TagClass(n.Name))
				previous := a.current
				a.current = info
				a.sweepTypeInference(fn.Body, info.Scope)
				a.current = previous
			}
		}
	case *ast.If:
		a.inferExpr(n.Cond, scope)
		a.sweepTypeInference(n.Then, scope)
		a.sweepTypeInference(n.Else, scope)
	case *ast.While:
		a.inferExpr(n.Cond, scope)
		a.sweepTypeInference(n.Body, scope)
	case *ast.For:
		a.inferExpr(n.Iterable, scope)
		for _, target := range n.Targets {
			scope.Declare(target, TagInt)
		}
		a.sweepTypeInference(n.Body, scope)
	case *ast.Import, *ast.ImportFrom:
		// no bindings introduced into the value namespace
	}
}

var stringMethods = map[string]bool{
	"upper": true, "lower": true, "strip": true, "lstrip": true, "rstrip": true,
	"replace": true, "capitalize": true, "title": true, "swapcase": true,
	"center": true, "join": true,
}
var listMethods = map[string]bool{"copy": true, "reversed": true, "split": true}
var intMethods = map[string]bool{"count": true, "index": true, "find": true}

// markAllocating flags the function currently being walked as needing
// an allocator (spec §4.3's allocator-need predicate list); a no-op at
// module scope, where the per-compilation allocator is always present.
func (a *Analyzer) markAllocating() {
	if a.current != nil {
		a.current.NeedsAllocator = true
	}
}

// inferExpr implements sweep 2's ordered rule list (spec §4.3, rules
// 1-7) and memoises the result per expression node.
func (a *Analyzer) inferExpr(expr ast.Expr, scope *SymbolTable) Tag {
	if expr == nil {
		return TagVoid
	}
	if tag, ok := a.exprTags[expr]; ok {
		return tag
	}

	var tag Tag
	switch n := expr.(type) {
	case *ast.Constant:
		switch n.Kind {
		case ast.ConstInt:
			tag = TagInt
		case ast.ConstFloat:
			tag = TagFloat
		case ast.ConstString:
			tag = TagString
			a.markAllocating()
		case ast.ConstBool:
			tag = TagBool
		default:
			tag = TagPyObject
		}
	case *ast.List:
		for _, el := range n.Elements {
			a.inferExpr(el, scope)
		}
		tag = TagList
		a.markAllocating()
	case *ast.Dict:
		for _, entry := range n.Entries {
			a.inferExpr(entry.Key, scope)
			a.inferExpr(entry.Value, scope)
		}
		tag = TagDict
		a.markAllocating()
	case *ast.Tuple:
		for _, el := range n.Elements {
			a.inferExpr(el, scope)
		}
		tag = TagTuple
		a.markAllocating()
	case *ast.Name:
		if found, ok := scope.Lookup(n.Ident); ok {
			tag = found
		} else {
			tag = TagPyObject
		}
	case *ast.UnaryOp:
		a.inferExpr(n.Operand, scope)
		if n.Op == ast.UnaryNot {
			tag = TagBool
		} else {
			tag = TagInt
		}
	case *ast.BinOp:
		leftTag := a.inferExpr(n.Left, scope)
		rightTag := a.inferExpr(n.Right, scope)
		tag = a.inferBinOp(n, leftTag, rightTag)
	case *ast.Call:
		tag = a.inferCall(n, scope)
	case *ast.Attribute:
		a.inferExpr(n.Value, scope)
		tag = TagPyObject
	case *ast.Subscript:
		a.inferExpr(n.Value, scope)
		a.inferExpr(n.Index, scope)
		tag = TagPyObject
		a.markAllocating()
	case *ast.Conditional:
		a.inferExpr(n.Cond, scope)
		thenTag := a.inferExpr(n.Then, scope)
		elseTag := a.inferExpr(n.Else, scope)
		tag = Generalize(thenTag, elseTag)
	default:
		tag = TagPyObject
	}

	a.exprTags[expr] = tag
	return tag
}

// isAddChain reports whether expr is itself an Add BinOp, the
// over-approximation spec §9 calls out explicitly and requires be
// preserved: `(1+2)+"x"` is flagged as string-concat because the left
// operand is a nested Add, regardless of its own operand types.
func isAddChain(expr ast.Expr) bool {
	bin, ok := expr.(*ast.BinOp)
	return ok && bin.Op == ast.OpAdd
}

func (a *Analyzer) inferBinOp(n *ast.BinOp, left, right Tag) Tag {
	switch n.Op {
	case ast.OpAdd:
		if left.Kind == KindString || right.Kind == KindString || isAddChain(n.Left) {
			a.markAllocating()
			return TagString
		}
		return TagInt
	case ast.OpAnd, ast.OpOr:
		return Generalize(left, right)
	case ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEqual,
		ast.OpEqual, ast.OpNotEqual, ast.OpIn, ast.OpIs:
		return TagBool
	default:
		return TagInt
	}
}

func (a *Analyzer) inferCall(call *ast.Call, scope *SymbolTable) Tag {
	for _, arg := range call.Args {
		a.inferExpr(arg, scope)
	}
	switch callee := call.Callee.(type) {
	case *ast.Name:
		if callee.Ident == "len" {
			a.markAllocating()
			return TagInt
		}
		if _, ok := a.classes[callee.Ident]; ok {
			return TagClass(callee.Ident)
		}
		if fn, ok := a.functions[callee.Ident]; ok {
			if a.current != nil {
				a.current.calls = append(a.current.calls, fn.Name)
			}
			return fn.Return
		}
		return TagPyObject
	case *ast.Attribute:
		a.inferExpr(callee.Value, scope)
		switch {
		case stringMethods[callee.Attr]:
			return TagString
		case listMethods[callee.Attr]:
			return TagList
		case intMethods[callee.Attr]:
			return TagInt
		default:
			return TagPyObject
		}
	default:
		return TagPyObject
	}
}

// ---- Function-level parameter inference --------------------------------

// inferParams applies spec §4.3's rule: a parameter is pyobject if it
// appears as the left of a string-producing Add, as an attribute
// receiver, as a subscripted value, or as an argument to len();
// otherwise int. Runs before sweep 2 and seeds each parameter's tag
// into fn.Scope so references to the parameter inside the body (a
// bare `return n`, an alias, a recursive call's argument) resolve
// through scope.Lookup instead of falling back to pyobject.
func (a *Analyzer) inferParams() {
	for _, fn := range a.functions {
		for _, p := range fn.Decl.Params {
			fn.ParamOrder = append(fn.ParamOrder, p.Name)
			tag := TagInt
			if paramNeedsPyObject(p.Name, fn.Decl.Body) {
				tag = TagPyObject
			}
			fn.Params[p.Name] = tag
			fn.Scope.Declare(p.Name, tag)
		}
	}
}

func paramNeedsPyObject(name string, body []ast.Stmt) bool {
	found := false
	var visitExpr func(e ast.Expr)
	var visitStmts func(stmts []ast.Stmt)

	visitExpr = func(e ast.Expr) {
		if e == nil || found {
			return
		}
		switch n := e.(type) {
		case *ast.BinOp:
			if n.Op == ast.OpAdd && exprMentionsName(n.Left, name) && exprContainsString(n) {
				found = true
			}
			visitExpr(n.Left)
			visitExpr(n.Right)
		case *ast.Attribute:
			if recv, ok := n.Value.(*ast.Name); ok && recv.Ident == name {
				found = true
			}
			visitExpr(n.Value)
		case *ast.Subscript:
			if recv, ok := n.Value.(*ast.Name); ok && recv.Ident == name {
				found = true
			}
			visitExpr(n.Value)
			visitExpr(n.Index)
		case *ast.Call:
			if callee, ok := n.Callee.(*ast.Name); ok && callee.Ident == "len" {
				for _, arg := range n.Args {
					if nameArg, ok := arg.(*ast.Name); ok && nameArg.Ident == name {
						found = true
					}
				}
			}
			visitExpr(n.Callee)
			for _, arg := range n.Args {
				visitExpr(arg)
			}
		case *ast.UnaryOp:
			visitExpr(n.Operand)
		case *ast.List:
			for _, el := range n.Elements {
				visitExpr(el)
			}
		case *ast.Tuple:
			for _, el := range n.Elements {
				visitExpr(el)
			}
		case *ast.Dict:
			for _, entry := range n.Entries {
				visitExpr(entry.Key)
				visitExpr(entry.Value)
			}
		case *ast.Conditional:
			visitExpr(n.Cond)
			visitExpr(n.Then)
			visitExpr(n.Else)
		}
	}

	visitStmts = func(stmts []ast.Stmt) {
		for _, stmt := range stmts {
			if found {
				return
			}
			switch n := stmt.(type) {
			case *ast.Assign:
				visitExpr(n.Value)
				for _, t := range n.Targets {
					visitExpr(t)
				}
			case *ast.ExprStmt:
				visitExpr(n.Value)
			case *ast.Return:
				visitExpr(n.Value)
			case *ast.If:
				visitExpr(n.Cond)
				visitStmts(n.Then)
				visitStmts(n.Else)
			case *ast.While:
				visitExpr(n.Cond)
				visitStmts(n.Body)
			case *ast.For:
				visitExpr(n.Iterable)
				visitStmts(n.Body)
			}
		}
	}

	visitStmts(body)
	return found
}

func exprMentionsName(e ast.Expr, name string) bool {
	n, ok := e.(*ast.Name)
	return ok && n.Ident == name
}

func exprContainsString(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Constant:
		return n.Kind == ast.ConstString
	case *ast.BinOp:
		return exprContainsString(n.Left) || exprContainsString(n.Right)
	default:
		return false
	}
}

// ---- Allocator-need fixed point -----------------------------------------

// resolveAllocatorNeed runs spec §4.3's fixed-point iteration over the
// call graph: a function needs an allocator if its body contains a
// heap-producing construct directly (already marked during sweep 2),
// or calls another function that needs one. Independent functions are
// checked concurrently with errgroup each round; unresolved callees
// are treated as not-needing, per spec's explicit tie-breaking rule.
func (a *Analyzer) resolveAllocatorNeed() error {
	changed := true
	for changed {
		changed = false
		g, _ := errgroup.WithContext(context.Background())
		results := make(map[string]bool, len(a.functions))
		var mu sync.Mutex

		for name, fn := range a.functions {
			name, fn := name, fn
			g.Go(func() error {
				need := fn.NeedsAllocator
				for _, callee := range fn.calls {
					if other, ok := a.functions[callee]; ok && other.NeedsAllocator {
						need = true
					}
				}
				mu.Lock()
				results[name] = need
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for name, need := range results {
			fn := a.functions[name]
			if need && !fn.NeedsAllocator {
				fn.NeedsAllocator = true
				changed = true
			}
		}
	}
	return nil
}
