package emit

import (
	"fmt"
	"strconv"

	"pyxc/internal/ast"
	"pyxc/internal/types"
)

// zigOperator mirrors the teacher's opcode-definition table
// (compiler/code.go's map[Opcode]*OpCodeDefinition) but dispatches
// BinOpKind to a literal Zig infix operator instead of a bytecode
// instruction.
var zigOperator = map[ast.BinOpKind]string{
	ast.OpSub: "-", ast.OpMul: "*", ast.OpDiv: "/", ast.OpMod: "%",
	ast.OpBitAnd: "&", ast.OpBitOr: "|", ast.OpBitXor: "^",
	ast.OpShl: "<<", ast.OpShr: ">>",
	ast.OpLess: "<", ast.OpLessEqual: "<=", ast.OpGreater: ">", ast.OpGreaterEqual: ">=",
	ast.OpEqual: "==", ast.OpNotEqual: "!=",
	ast.OpAnd: "and", ast.OpOr: "or",
}

// expr lowers an expression to Zig source text via the visitor
// dispatch the ast package defines (Accept), mirroring the teacher's
// node.Accept(compiler) pattern.
func (e *Emitter) expr(x ast.Expr) string {
	result := x.Accept(e)
	text, _ := result.(string)
	return text
}

func (e *Emitter) tagOf(x ast.Expr) types.Tag {
	if tag, ok := e.result.ExprTags[x]; ok {
		return tag
	}
	return types.TagPyObject
}

func (e *Emitter) VisitConstant(n *ast.Constant) any {
	switch n.Kind {
	case ast.ConstInt:
		return strconv.FormatInt(n.Int, 10)
	case ast.ConstFloat:
		return strconv.FormatFloat(n.Float, 'g', -1, 64)
	case ast.ConstBool:
		return strconv.FormatBool(n.Bool)
	case ast.ConstNone:
		return "rt.none()"
	case ast.ConstString:
		return e.stringLiteral(n.Str)
	default:
		return "rt.none()"
	}
}

func (e *Emitter) stringLiteral(value string) string {
	return fmt.Sprintf("rt.newString(allocator, %q)", value)
}

func (e *Emitter) VisitName(n *ast.Name) any {
	return n.Ident
}

func (e *Emitter) VisitBinOp(n *ast.BinOp) any {
	left := e.expr(n.Left)
	right := e.expr(n.Right)
	tag := e.tagOf(n)

	switch n.Op {
	case ast.OpAdd:
		if tag.Kind == types.KindString {
			return fmt.Sprintf("try rt.stringConcat(allocator, %s, %s)", left, right)
		}
		return fmt.Sprintf("(%s + %s)", left, right)
	case ast.OpFloorDiv:
		return fmt.Sprintf("@divFloor(%s, %s)", left, right)
	case ast.OpPow:
		return fmt.Sprintf("rt.intPow(%s, %s)", left, right)
	case ast.OpIn:
		return fmt.Sprintf("rt.contains(%s, %s)", right, left)
	case ast.OpIs:
		return fmt.Sprintf("(%s == %s)", left, right)
	default:
		op, ok := zigOperator[n.Op]
		if !ok {
			op = "+"
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right)
	}
}

func (e *Emitter) VisitUnaryOp(n *ast.UnaryOp) any {
	operand := e.expr(n.Operand)
	switch n.Op {
	case ast.UnaryMinus:
		return fmt.Sprintf("(-%s)", operand)
	case ast.UnaryPlus:
		return operand
	case ast.UnaryNot:
		return fmt.Sprintf("(!%s)", operand)
	case ast.UnaryInvert:
		return fmt.Sprintf("(~%s)", operand)
	default:
		return operand
	}
}

func (e *Emitter) VisitCall(n *ast.Call) any {
	if text, handled := e.emitBuiltinCall(n); handled {
		return text
	}

	callee := n.Callee
	args := make([]string, 0, len(n.Args)+1)
	for _, a := range n.Args {
		args = append(args, e.expr(a))
	}

	switch fn := callee.(type) {
	case *ast.Name:
		if class, ok := e.result.Classes[fn.Ident]; ok {
			_ = class
			return fmt.Sprintf("%s.init(%s)", fn.Ident, joinArgs(args))
		}
		if info, ok := e.result.Functions[fn.Ident]; ok {
			if info.NeedsAllocator {
				args = append(args, "allocator")
			}
			call := fmt.Sprintf("%s(%s)", fn.Ident, joinArgs(args))
			if info.NeedsAllocator || info.Return.Kind == types.KindPyObject {
				return "try " + call
			}
			return call
		}
		return fmt.Sprintf("%s(%s)", fn.Ident, joinArgs(args))
	case *ast.Attribute:
		receiver := e.expr(fn.Value)
		if e.tagOf(fn.Value).Kind == types.KindClass {
			return fmt.Sprintf("%s.%s(%s)", receiver, fn.Attr, joinArgs(args))
		}
		return e.emitMethodCall(receiver, fn.Attr, args)
	default:
		return fmt.Sprintf("%s(%s)", e.expr(callee), joinArgs(args))
	}
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

// emitMethodCall dispatches string/list/dict method calls on a
// built-in value-type receiver through the fixed runtime helper table
// spec §4.4.3/§4.5 describes. Class-instance receivers never reach
// here (VisitCall branches to a plain struct-method call instead:
// class methods are never fallible per spec §4.4.6 and take no
// allocator).
func (e *Emitter) emitMethodCall(receiver, method string, args []string) string {
	allArgs := append([]string{receiver}, args...)
	allArgs = append(allArgs, "allocator")
	return fmt.Sprintf("try rt.%s(%s)", method, joinArgs(allArgs))
}

func (e *Emitter) VisitAttribute(n *ast.Attribute) any {
	value := e.expr(n.Value)
	return fmt.Sprintf("%s.%s", value, n.Attr)
}

func (e *Emitter) VisitSubscript(n *ast.Subscript) any {
	value := e.expr(n.Value)
	index := e.expr(n.Index)
	return fmt.Sprintf("try rt.getItem(%s, %s, allocator)", value, index)
}

func (e *Emitter) VisitList(n *ast.List) any {
	elems := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		elems[i] = e.expr(el)
	}
	return fmt.Sprintf("try rt.newList(allocator, &.{%s})", joinArgs(elems))
}

func (e *Emitter) VisitTuple(n *ast.Tuple) any {
	elems := make([]string, len(n.Elements))
	for i, el := range n.Elements {
		elems[i] = e.expr(el)
	}
	return fmt.Sprintf("try rt.newTuple(allocator, &.{%s})", joinArgs(elems))
}

func (e *Emitter) VisitDict(n *ast.Dict) any {
	pairs := make([]string, len(n.Entries))
	for i, entry := range n.Entries {
		pairs[i] = fmt.Sprintf(".{ %s, %s }", e.expr(entry.Key), e.expr(entry.Value))
	}
	return fmt.Sprintf("try rt.newDict(allocator, &.{%s})", joinArgs(pairs))
}

func (e *Emitter) VisitConditional(n *ast.Conditional) any {
	cond := e.expr(n.Cond)
	then := e.expr(n.Then)
	elseExpr := e.expr(n.Else)
	return fmt.Sprintf("(if (%s) %s else %s)", cond, then, elseExpr)
}
