// Package emit lowers an annotated AST into Zig source text. The
// Emitter is a stateful string builder carrying indentation depth, the
// binding table, a per-module preamble buffer for cached-constant
// slots, a fresh-temporary counter, and a JSON-literal dedup map,
// exactly as spec §4.4 requires. Its shape is grounded on the
// teacher's ASTCompiler (compiler/ast_compiler.go): a `locals []Local`
// stack with a scopeDepth counter becomes `bindings []binding` here,
// repurposed from "compile to bytecode" to "compile to Zig text".
package emit

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"pyxc/internal/ast"
	"pyxc/internal/types"
)

// binding is the Zig-text analogue of the teacher's compiler.Local: a
// name tracked at a given scope depth, plus whether it may be
// reassigned (mutable -> `var`) and whether it owns a heap reference
// that needs a scoped-release hook on exit.
type binding struct {
	name      string
	depth     int
	mutable   bool
	heapTyped bool
}

// Emitter is the Code Emitter of spec §4.4.
type Emitter struct {
	out      strings.Builder
	preamble strings.Builder
	indent   int

	tempCounter int
	jsonMemo    map[string]string // literal source text -> preamble slot name

	bindings   []binding
	scopeDepth int

	activeScope *types.SymbolTable // the symbol table of the function/module presently being emitted

	result *types.Result
	errs   *multierror.Error
}

// currentScope returns the symbol table reassignment decisions are
// read from; defaults to module scope outside any function body.
func (e *Emitter) currentScope() *types.SymbolTable {
	if e.activeScope != nil {
		return e.activeScope
	}
	return e.result.Module
}

// New creates an Emitter over the annotations produced by
// internal/types.Analyzer.
func New(result *types.Result) *Emitter {
	return &Emitter{result: result, jsonMemo: make(map[string]string)}
}

// Emit lowers the module to a complete Zig translation unit: runtime
// import, preamble (cached JSON slots), every top-level function and
// class, and a `main` wrapper that runs the module body and returns
// the process exit code.
func (e *Emitter) Emit(module *ast.Module) (string, error) {
	e.writeLine("const rt = @import(\"pyxc_runtime\");")
	e.writeLine("const std = @import(\"std\");")
	e.blank()

	var topLevel []ast.Stmt
	for _, stmt := range module.Body {
		switch n := stmt.(type) {
		case *ast.FunctionDef:
			e.emitFunction(n)
			e.blank()
		case *ast.ClassDef:
			e.emitClass(n)
			e.blank()
		default:
			topLevel = append(topLevel, stmt)
		}
	}

	e.emitMain(topLevel)

	body := e.out.String()
	if e.preamble.Len() == 0 {
		if e.errs.ErrorOrNil() != nil {
			return body, e.errs
		}
		return body, nil
	}
	return e.preamble.String() + "\n" + body, e.errs.ErrorOrNil()
}

func (e *Emitter) emitMain(body []ast.Stmt) {
	e.writeLine("pub fn main() u8 {")
	e.indent++
	e.writeLine("var gpa = std.heap.GeneralPurposeAllocator(.{}){};")
	e.writeLine("defer _ = gpa.deinit();")
	e.writeLine("const allocator = gpa.allocator();")
	e.pushScope()
	for _, stmt := range body {
		e.emitStmt(stmt)
	}
	e.releaseScope()
	e.popScope()
	e.writeLine("return 0;")
	e.indent--
	e.writeLine("}")
}

func (e *Emitter) fail(err error) {
	e.errs = multierror.Append(e.errs, err)
}

// ---- indentation / textual plumbing ------------------------------------

func (e *Emitter) writeLine(format string, args ...any) {
	e.out.WriteString(strings.Repeat("    ", e.indent))
	fmt.Fprintf(&e.out, format, args...)
	e.out.WriteString("\n")
}

func (e *Emitter) blank() { e.out.WriteString("\n") }

func (e *Emitter) freshTemp() string {
	e.tempCounter++
	return fmt.Sprintf("__tmp%d", e.tempCounter)
}

// ---- scope / binding management ----------------------------------------

func (e *Emitter) pushScope() { e.scopeDepth++ }

// popScope discards bindings declared at the scope being exited; the
// decrefs themselves are emitted by releaseScope before this is called.
func (e *Emitter) popScope() {
	depth := e.scopeDepth
	i := len(e.bindings)
	for i > 0 && e.bindings[i-1].depth == depth {
		i--
	}
	e.bindings = e.bindings[:i]
	e.scopeDepth--
}

// releaseScope emits the scoped-release hook of spec §4.4.1: a
// `decref` against the allocator for every heap-typed binding declared
// in the current scope, in reverse declaration order, on every exit
// path (here: the single normal fall-through path, since the supported
// subset has no exceptions to unwind through).
func (e *Emitter) releaseScope() {
	depth := e.scopeDepth
	for i := len(e.bindings) - 1; i >= 0; i-- {
		b := e.bindings[i]
		if b.depth != depth {
			break
		}
		if b.heapTyped {
			e.writeLine("rt.decref(%s, allocator);", b.name)
		}
	}
}

// declareBinding records a new name at the current scope and emits its
// `const`/`var` binding keyword per spec §4.4.1: immutable unless the
// name is reassigned later, matching sweep 1's output.
func (e *Emitter) declareBinding(name string, heapTyped, reassigned bool) {
	e.bindings = append(e.bindings, binding{name: name, depth: e.scopeDepth, mutable: reassigned, heapTyped: heapTyped})
}

func (e *Emitter) bindingKeyword(reassigned bool) string {
	if reassigned {
		return "var"
	}
	return "const"
}

// findBinding reports whether name is already bound in any open scope,
// used to decide whether a `for` loop's induction variable needs a
// fresh `var` declaration or just an assignment (spec §4.4.2: "Emit
// `var` only at first occurrence").
func (e *Emitter) findBinding(name string) (*binding, bool) {
	for i := len(e.bindings) - 1; i >= 0; i-- {
		if e.bindings[i].name == name {
			return &e.bindings[i], true
		}
	}
	return nil, false
}
