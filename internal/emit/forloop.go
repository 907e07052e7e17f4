package emit

import (
	"fmt"

	"pyxc/internal/ast"
)

// emitFor lowers a `for` statement structurally by iterable shape, per
// spec §4.4.2. Any other shape is a deliberate restriction of the
// supported subset and fails with UnsupportedForLoop.
func (e *Emitter) emitFor(n *ast.For) {
	call, ok := n.Iterable.(*ast.Call)
	if !ok {
		e.fail(newEmitError(n.Span(), "UnsupportedForLoop", "for loops must iterate over range/enumerate/zip"))
		return
	}

	switch calleeName(call.Callee) {
	case "range":
		e.emitForRange(n, call)
	case "enumerate":
		e.emitForEnumerate(n, call)
	case "zip":
		e.emitForZip(n, call)
	default:
		e.fail(newEmitError(n.Span(), "UnsupportedForLoop", "for loops must iterate over range/enumerate/zip"))
	}
}

// emitForRange lowers `for x in range(a[, b[, c]])` to
// `var x := start; while x < end { body; x += step }`, with defaults
// start=0, step=1 and `var` emitted only at first occurrence.
func (e *Emitter) emitForRange(n *ast.For, call *ast.Call) {
	if len(n.Targets) != 1 {
		e.fail(newEmitError(n.Span(), "InvalidRangeArgs", "range() target must be a single name"))
		return
	}
	if len(call.Args) < 1 || len(call.Args) > 3 {
		e.fail(newEmitError(n.Span(), "InvalidRangeArgs", "range() takes 1 to 3 arguments"))
		return
	}

	start, end, step := "0", "", "1"
	switch len(call.Args) {
	case 1:
		end = e.expr(call.Args[0])
	case 2:
		start = e.expr(call.Args[0])
		end = e.expr(call.Args[1])
	case 3:
		start = e.expr(call.Args[0])
		end = e.expr(call.Args[1])
		step = e.expr(call.Args[2])
	}

	varName := n.Targets[0]
	if _, ok := e.findBinding(varName); ok {
		e.writeLine("%s = %s;", varName, start)
	} else {
		e.writeLine("var %s: i64 = %s;", varName, start)
		e.declareBinding(varName, false, true)
	}
	e.writeLine("while (%s < %s) {", varName, end)
	e.indent++
	e.pushScope()
	for _, stmt := range n.Body {
		e.emitStmt(stmt)
	}
	e.writeLine("%s += %s;", varName, step)
	e.releaseScope()
	e.popScope()
	e.indent--
	e.writeLine("}")
}

// emitForEnumerate lowers `for i, v in enumerate(xs)` by casting xs to
// its list representation and iterating the element array with a
// paired integer index.
func (e *Emitter) emitForEnumerate(n *ast.For, call *ast.Call) {
	if len(n.Targets) != 2 || len(call.Args) != 1 {
		e.fail(newEmitError(n.Span(), "InvalidEnumerateTarget", "enumerate() needs exactly two loop targets"))
		return
	}
	idxName, valName := n.Targets[0], n.Targets[1]
	listTmp := e.freshTemp()
	e.writeLine("const %s = %s;", listTmp, e.expr(call.Args[0]))
	e.writeLine("var %s: i64 = 0;", idxName)
	e.declareBinding(idxName, false, true)
	e.writeLine("while (%s < rt.len(%s)) {", idxName, listTmp)
	e.indent++
	e.pushScope()
	e.writeLine("const %s = rt.listGet(%s, %s);", valName, listTmp, idxName)
	e.declareBinding(valName, true, false)
	for _, stmt := range n.Body {
		e.emitStmt(stmt)
	}
	e.writeLine("%s += 1;", idxName)
	e.releaseScope()
	e.popScope()
	e.indent--
	e.writeLine("}")
}

// emitForZip lowers `for x, y, ... in zip(a, b, ...)` to parallel
// iteration over each operand's element array, stopping at the
// shortest (the implicit minimum-length primitive spec §4.4.2 names).
func (e *Emitter) emitForZip(n *ast.For, call *ast.Call) {
	if len(n.Targets) != len(call.Args) || len(call.Args) < 2 {
		e.fail(newEmitError(n.Span(), "InvalidZipTarget", "zip() needs one loop target per operand"))
		return
	}

	tmps := make([]string, len(call.Args))
	for i, arg := range call.Args {
		tmps[i] = e.freshTemp()
		e.writeLine("const %s = %s;", tmps[i], e.expr(arg))
	}
	lens := make([]string, len(tmps))
	for i, tmp := range tmps {
		lens[i] = fmt.Sprintf("rt.len(%s)", tmp)
	}
	lenTmp := e.freshTemp()
	e.writeLine("const %s = rt.minLen(&.{%s});", lenTmp, joinArgs(lens))

	idx := e.freshTemp()
	e.writeLine("var %s: i64 = 0;", idx)
	e.declareBinding(idx, false, true)
	e.writeLine("while (%s < %s) {", idx, lenTmp)
	e.indent++
	e.pushScope()
	for i, target := range n.Targets {
		e.writeLine("const %s = rt.listGet(%s, %s);", target, tmps[i], idx)
		e.declareBinding(target, true, false)
	}
	for _, stmt := range n.Body {
		e.emitStmt(stmt)
	}
	e.writeLine("%s += 1;", idx)
	e.releaseScope()
	e.popScope()
	e.indent--
	e.writeLine("}")
}
