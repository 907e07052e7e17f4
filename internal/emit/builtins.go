package emit

import (
	"fmt"

	"pyxc/internal/ast"
)

// calleeName extracts a plain `name(...)` or `module.name(...)` callee
// as a single dotted string, or "" if the callee shape doesn't match
// either — used to recognise print/len/range/enumerate/zip and the
// specially-lowered json/http helpers of spec §4.4.7.
func calleeName(callee ast.Expr) string {
	switch n := callee.(type) {
	case *ast.Name:
		return n.Ident
	case *ast.Attribute:
		if recv, ok := n.Value.(*ast.Name); ok {
			return recv.Ident + "." + n.Attr
		}
	}
	return ""
}

// emitBuiltinCall recognises print/len and the json/http special-cased
// imports and lowers them directly to runtime helpers, never through a
// general foreign-function mechanism, per spec §4.4.7.
func (e *Emitter) emitBuiltinCall(n *ast.Call) (string, bool) {
	name := calleeName(n.Callee)
	switch name {
	case "print":
		return e.emitPrint(n), true
	case "len":
		if len(n.Args) == 1 {
			return fmt.Sprintf("rt.len(%s)", e.expr(n.Args[0])), true
		}
	case "loads", "json.loads":
		if len(n.Args) == 1 {
			return e.emitJSONLoads(n.Args[0]), true
		}
	case "dumps", "json.dumps":
		if len(n.Args) == 1 {
			return fmt.Sprintf("try rt.jsonDumps(%s, allocator)", e.expr(n.Args[0])), true
		}
	case "get", "http.get":
		if len(n.Args) == 1 {
			return fmt.Sprintf("try rt.httpGet(allocator, %s)", e.expr(n.Args[0])), true
		}
	}
	return "", false
}

func (e *Emitter) emitPrint(n *ast.Call) string {
	if len(n.Args) == 1 {
		return fmt.Sprintf("try rt.print(%s)", e.expr(n.Args[0]))
	}
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = e.expr(a)
	}
	return fmt.Sprintf("try rt.printAll(&.{%s})", joinArgs(args))
}

// emitJSONLoads implements the memoised-slot protocol of spec §4.4.7:
// a json.loads applied to a constant string literal registers a
// per-module nullable preamble slot keyed on the exact source lexeme
// (spec §9: two lexically different but semantically equivalent JSON
// literals each get their own slot); repeated uses of the identical
// literal reuse the slot under a check-else-parse-else-store protocol
// that increfs the cached value on a hit. Non-constant arguments parse
// fresh every call.
func (e *Emitter) emitJSONLoads(arg ast.Expr) string {
	constant, ok := arg.(*ast.Constant)
	if !ok || constant.Kind != ast.ConstString {
		return fmt.Sprintf("try rt.jsonLoads(%s, allocator)", e.expr(arg))
	}

	slot, seen := e.jsonMemo[constant.Raw]
	if !seen {
		slot = fmt.Sprintf("__json_slot_%d", len(e.jsonMemo))
		e.jsonMemo[constant.Raw] = slot
		fmt.Fprintf(&e.preamble, "var %s: ?*rt.PyObject = null;\n", slot)
	}
	return fmt.Sprintf("try rt.jsonLoadsCached(&%s, %s, allocator)", slot, e.stringLiteral(constant.Str))
}
