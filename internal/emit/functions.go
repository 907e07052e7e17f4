package emit

import (
	"fmt"

	"pyxc/internal/ast"
	"pyxc/internal/types"
)

// zigType maps a coarse static tag to its Zig representation. Every
// heap tag (string/list/dict/tuple/pyobject) shares the same opaque
// pointer representation; only the instance-field type of spec §4.4.5
// (always a 64-bit signed integer) and the primitive scalars get their
// own Zig type.
func zigType(tag types.Tag) string {
	switch tag.Kind {
	case types.KindInt:
		return "i64"
	case types.KindFloat:
		return "f64"
	case types.KindBool:
		return "bool"
	case types.KindVoid:
		return "void"
	case types.KindClass:
		return tag.ClassName
	default:
		return "*rt.PyObject"
	}
}

// isFallible reports whether a call site must carry the fallibility
// marker spec §4.4.6 requires: set when the function needs the
// allocator or returns a pyobject.
func isFallible(info *types.FunctionInfo) bool {
	return info.NeedsAllocator || info.Return.Kind == types.KindPyObject
}

func signatureFor(info *types.FunctionInfo) string {
	ret := zigType(info.Return)
	if isFallible(info) {
		return "!" + ret
	}
	return ret
}

func (e *Emitter) paramList(info *types.FunctionInfo) []string {
	params := make([]string, 0, len(info.ParamOrder)+1)
	for _, name := range info.ParamOrder {
		params = append(params, fmt.Sprintf("%s: %s", name, zigType(info.Params[name])))
	}
	if info.NeedsAllocator {
		params = append(params, "allocator: std.mem.Allocator")
	}
	return params
}

// emitFunction emits spec §4.4.4's synchronous signature directly, or
// delegates to the async frame lowering when is_async is set.
func (e *Emitter) emitFunction(n *ast.FunctionDef) {
	info := e.result.Functions[n.Name]
	if info == nil {
		return
	}
	if n.IsAsync {
		e.emitAsyncFunction(n, info)
		return
	}

	e.writeLine("fn %s(%s) %s {", n.Name, joinArgs(e.paramList(info)), signatureFor(info))
	e.indent++
	e.withFunctionScope(info, func() {
		for _, stmt := range n.Body {
			e.emitStmt(stmt)
		}
	})
	e.indent--
	e.writeLine("}")
}

// withFunctionScope runs body with the emitter's active scope and
// binding stack set up for a function: parameters pre-declared, a
// fresh block pushed, and scoped-release run on exit.
func (e *Emitter) withFunctionScope(info *types.FunctionInfo, body func()) {
	previous := e.activeScope
	e.activeScope = info.Scope
	e.pushScope()
	for _, name := range info.ParamOrder {
		e.declareBinding(name, info.Params[name].IsHeap(), info.Scope.IsReassigned(name))
	}
	body()
	e.releaseScope()
	e.popScope()
	e.activeScope = previous
}

// emitAsyncFunction lowers an `async def` to the single-shot frame
// described by spec §4.4.4/§9: a struct holding a three-state machine
// and the stored parameters, an `init` constructor, and a `doResume`
// that on first call runs the whole body inline and transitions to
// `done`. The wrapper function of the original name constructs the
// frame, resumes it once, and returns the unwrapped result. There is
// no real suspension point in the supported subset; this is the
// cooperative-without-a-scheduler shape spec §9 describes so a later
// implementation can add yield points without signature churn.
func (e *Emitter) emitAsyncFunction(n *ast.FunctionDef, info *types.FunctionInfo) {
	frameName := n.Name + "Frame"
	ret := zigType(info.Return)

	e.writeLine("const %s = struct {", frameName)
	e.indent++
	e.writeLine("state: enum { start, running, done } = .start,")
	for _, name := range info.ParamOrder {
		e.writeLine("%s: %s,", name, zigType(info.Params[name]))
	}
	e.writeLine("result: %s = undefined,", ret)
	e.blank()

	e.writeLine("fn init(%s) %s {", joinArgs(e.paramListNoAllocator(info)), frameName)
	e.indent++
	fields := make([]string, len(info.ParamOrder))
	for i, name := range info.ParamOrder {
		fields[i] = fmt.Sprintf(".%s = %s", name, name)
	}
	e.writeLine("return .{ %s };", joinArgs(fields))
	e.indent--
	e.writeLine("}")
	e.blank()

	resumeParams := []string{"self: *" + frameName}
	if info.NeedsAllocator {
		resumeParams = append(resumeParams, "allocator: std.mem.Allocator")
	}
	e.writeLine("fn doResume(%s) %s {", joinArgs(resumeParams), signatureFor(info))
	e.indent++
	e.writeLine("switch (self.state) {")
	e.indent++
	e.writeLine(".start => {")
	e.indent++
	e.writeLine("self.state = .running;")
	e.withFunctionScope(info, func() {
		for _, stmt := range n.Body {
			e.emitStmt(stmt)
		}
	})
	e.writeLine("self.state = .done;")
	e.writeLine("return self.result;")
	e.indent--
	e.writeLine("},")
	e.writeLine(".running, .done => return self.result,")
	e.indent--
	e.writeLine("}")
	e.indent--
	e.writeLine("}")
	e.indent--
	e.writeLine("};")
	e.blank()

	e.writeLine("fn %s(%s) %s {", n.Name, joinArgs(e.paramList(info)), signatureFor(info))
	e.indent++
	initArgs := make([]string, len(info.ParamOrder))
	copy(initArgs, info.ParamOrder)
	e.writeLine("var frame = %s.init(%s);", frameName, joinArgs(initArgs))
	resumeArgs := ""
	if info.NeedsAllocator {
		resumeArgs = "allocator"
	}
	if isFallible(info) {
		e.writeLine("return try frame.doResume(%s);", resumeArgs)
	} else {
		e.writeLine("return frame.doResume(%s);", resumeArgs)
	}
	e.indent--
	e.writeLine("}")
}

func (e *Emitter) paramListNoAllocator(info *types.FunctionInfo) []string {
	params := make([]string, 0, len(info.ParamOrder))
	for _, name := range info.ParamOrder {
		params = append(params, fmt.Sprintf("%s: %s", name, zigType(info.Params[name])))
	}
	return params
}

// emitClass materialises a value-type struct per spec §4.4.5: fields
// inferred from __init__'s `self.<name> = <value>` assignments, an
// `init` function taking __init__'s parameters minus self, and every
// other method as a function on a mutable pointer to the struct. Class
// methods are never fallible in the supported subset (spec §4.4.6).
func (e *Emitter) emitClass(n *ast.ClassDef) {
	info := e.result.Classes[n.Name]
	if info == nil {
		return
	}

	e.writeLine("const %s = struct {", n.Name)
	e.indent++
	for _, field := range info.Fields {
		e.writeLine("%s: i64,", field)
	}
	e.blank()

	for _, member := range n.Body {
		fn, ok := member.(*ast.FunctionDef)
		if !ok {
			continue
		}
		method := info.Methods[fn.Name]
		if fn.Name == "__init__" {
			e.emitInit(n.Name, fn, method)
		} else {
			e.emitMethod(n.Name, fn, method)
		}
		e.blank()
	}
	e.indent--
	e.writeLine("};")
}

func (e *Emitter) emitInit(className string, fn *ast.FunctionDef, info *types.FunctionInfo) {
	params := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		if p.Name == "self" {
			continue
		}
		params = append(params, fmt.Sprintf("%s: i64", p.Name))
	}
	e.writeLine("fn init(%s) %s {", joinArgs(params), className)
	e.indent++
	e.writeLine("var self: %s = undefined;", className)
	previous := e.activeScope
	e.activeScope = info.Scope
	e.pushScope()
	e.declareBinding("self", false, false)
	for _, p := range fn.Params {
		if p.Name != "self" {
			e.declareBinding(p.Name, false, false)
		}
	}
	for _, stmt := range fn.Body {
		e.emitStmt(stmt)
	}
	e.releaseScope()
	e.popScope()
	e.activeScope = previous
	e.writeLine("return self;")
	e.indent--
	e.writeLine("}")
}

func (e *Emitter) emitMethod(className string, fn *ast.FunctionDef, info *types.FunctionInfo) {
	params := []string{"self: *" + className}
	for _, p := range fn.Params {
		if p.Name == "self" {
			continue
		}
		params = append(params, fmt.Sprintf("%s: i64", p.Name))
	}
	ret := zigType(info.Return)
	e.writeLine("fn %s(%s) %s {", fn.Name, joinArgs(params), ret)
	e.indent++
	previous := e.activeScope
	e.activeScope = info.Scope
	e.pushScope()
	for _, p := range fn.Params {
		e.declareBinding(p.Name, false, false)
	}
	for _, stmt := range fn.Body {
		e.emitStmt(stmt)
	}
	e.releaseScope()
	e.popScope()
	e.activeScope = previous
	e.indent--
	e.writeLine("}")
}
