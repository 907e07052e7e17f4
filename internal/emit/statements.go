package emit

import (
	"fmt"

	"pyxc/internal/ast"
	"pyxc/internal/types"
)

// emitStmt lowers one statement via the Accept/Visit dispatch the ast
// package defines, the same indirection the teacher's ASTCompiler uses
// (stmt.Accept(compiler)) instead of a type switch.
func (e *Emitter) emitStmt(stmt ast.Stmt) {
	stmt.Accept(e)
}

func (e *Emitter) VisitModule(n *ast.Module) any {
	for _, stmt := range n.Body {
		e.emitStmt(stmt)
	}
	return nil
}

func (e *Emitter) VisitFunctionDef(n *ast.FunctionDef) any {
	e.emitFunction(n)
	return nil
}

func (e *Emitter) VisitClassDef(n *ast.ClassDef) any {
	e.emitClass(n)
	return nil
}

func (e *Emitter) VisitIf(n *ast.If) any {
	cond := e.expr(n.Cond)
	e.writeLine("if (%s) {", cond)
	e.indent++
	e.pushScope()
	for _, stmt := range n.Then {
		e.emitStmt(stmt)
	}
	e.releaseScope()
	e.popScope()
	e.indent--
	if len(n.Else) > 0 {
		e.writeLine("} else {")
		e.indent++
		e.pushScope()
		for _, stmt := range n.Else {
			e.emitStmt(stmt)
		}
		e.releaseScope()
		e.popScope()
		e.indent--
	}
	e.writeLine("}")
	return nil
}

func (e *Emitter) VisitWhile(n *ast.While) any {
	cond := e.expr(n.Cond)
	e.writeLine("while (%s) {", cond)
	e.indent++
	e.pushScope()
	for _, stmt := range n.Body {
		e.emitStmt(stmt)
	}
	e.releaseScope()
	e.popScope()
	e.indent--
	e.writeLine("}")
	return nil
}

func (e *Emitter) VisitFor(n *ast.For) any {
	e.emitFor(n)
	return nil
}

func (e *Emitter) VisitReturn(n *ast.Return) any {
	if n.Value == nil {
		e.writeLine("return;")
		return nil
	}
	e.writeLine("return %s;", e.expr(n.Value))
	return nil
}

func (e *Emitter) VisitAssign(n *ast.Assign) any {
	if len(n.Targets) != 1 {
		e.emitTupleAssign(n)
		return nil
	}

	value := e.expr(n.Value)
	tag := e.tagOf(n.Value)

	switch target := n.Targets[0].(type) {
	case *ast.Name:
		e.emitNameBind(target.Ident, value, tag.IsHeap(), e.classNeedsAddressableReceiver(tag))
	case *ast.Attribute:
		recv := e.expr(target.Value)
		e.writeLine("%s.%s = %s;", recv, target.Attr, value)
	case *ast.Subscript:
		recv := e.expr(target.Value)
		idx := e.expr(target.Index)
		e.writeLine("try rt.setItem(%s, %s, %s, allocator);", recv, idx, value)
	}
	return nil
}

// classNeedsAddressableReceiver reports whether tag is a class instance
// whose class declares methods, per spec §4.4.1: such a binding must be
// `var` regardless of reassignment, since a method receiver is taken by
// mutable pointer (`self: *C`) and a `const` binding is not addressable.
func (e *Emitter) classNeedsAddressableReceiver(tag types.Tag) bool {
	if tag.Kind != types.KindClass {
		return false
	}
	info, ok := e.result.Classes[tag.ClassName]
	return ok && len(info.Methods) > 0
}

// emitNameBind implements spec §4.4.1: the first assignment to a name
// emits a new `const`/`var` binding (immutable unless sweep 1 found a
// later reassignment, or the name is a class instance whose class has
// methods); every later assignment decrefs the old heap-typed value
// before rebinding.
func (e *Emitter) emitNameBind(name, value string, heapTyped, forceMutable bool) {
	if b, ok := e.findBinding(name); ok {
		if b.heapTyped {
			e.writeLine("rt.decref(%s, allocator);", name)
		}
		e.writeLine("%s = %s;", name, value)
		return
	}
	reassigned := e.currentScope().IsReassigned(name) || forceMutable
	e.writeLine("%s %s = %s;", e.bindingKeyword(reassigned), name, value)
	e.declareBinding(name, heapTyped, reassigned)
}

// emitTupleAssign lowers `a, b = value` by binding a temporary to the
// evaluated tuple and indexing it once per target.
func (e *Emitter) emitTupleAssign(n *ast.Assign) {
	tmp := e.freshTemp()
	value := e.expr(n.Value)
	e.writeLine("const %s = %s;", tmp, value)
	for i, target := range n.Targets {
		name, ok := target.(*ast.Name)
		if !ok {
			continue
		}
		element := fmt.Sprintf("rt.tupleGet(%s, %d)", tmp, i)
		e.emitNameBind(name.Ident, element, true, false)
	}
}

func (e *Emitter) VisitExprStmt(n *ast.ExprStmt) any {
	if call, ok := n.Value.(*ast.Call); ok && calleeName(call.Callee) == "print" {
		e.writeLine("%s;", e.expr(n.Value))
		return nil
	}
	e.writeLine("_ = %s;", e.expr(n.Value))
	return nil
}

func (e *Emitter) VisitImport(n *ast.Import) any {
	e.writeLine("// import %s", n.Path)
	return nil
}

func (e *Emitter) VisitImportFrom(n *ast.ImportFrom) any {
	e.writeLine("// from %s import ...", n.Module)
	return nil
}
