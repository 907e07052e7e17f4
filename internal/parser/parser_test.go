package parser

import (
	"testing"

	"pyxc/internal/ast"
	"pyxc/internal/lexer"
)

func mustParse(t *testing.T, src string) *ast.Module {
	t.Helper()
	tokens, err := lexer.New(src).Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	module, err := New(tokens).Parse()
	if err != nil {
		t.Fatalf("parser error: %v", err)
	}
	return module
}

func TestParseFunctionDef(t *testing.T) {
	module := mustParse(t, "def f(n):\n    return n\n")
	if len(module.Body) != 1 {
		t.Fatalf("expected 1 top-level statement, got %d", len(module.Body))
	}
	fn, ok := module.Body[0].(*ast.FunctionDef)
	if !ok {
		t.Fatalf("expected *ast.FunctionDef, got %T", module.Body[0])
	}
	if fn.Name != "f" || len(fn.Params) != 1 || fn.Params[0].Name != "n" {
		t.Fatalf("unexpected function shape: %+v", fn)
	}
	if _, ok := fn.Body[0].(*ast.Return); !ok {
		t.Fatalf("expected Return as the function body, got %T", fn.Body[0])
	}
}

func TestParseClassDef(t *testing.T) {
	src := "class C:\n    def __init__(self, x):\n        self.x = x\n    def g(self):\n        return self.x\n"
	module := mustParse(t, src)
	class, ok := module.Body[0].(*ast.ClassDef)
	if !ok {
		t.Fatalf("expected *ast.ClassDef, got %T", module.Body[0])
	}
	if class.Name != "C" || len(class.Body) != 2 {
		t.Fatalf("unexpected class shape: %+v", class)
	}
	init, ok := class.Body[0].(*ast.FunctionDef)
	if !ok || init.Name != "__init__" {
		t.Fatalf("expected __init__ first, got %+v", class.Body[0])
	}
}

func TestParseUnsupportedClassMemberFails(t *testing.T) {
	tokens, err := lexer.New("class C:\n    x = 1\n").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	_, err = New(tokens).Parse()
	if err == nil {
		t.Fatal("expected UnsupportedClassMember error")
	}
}

func TestParseElifDesugarsToNestedIf(t *testing.T) {
	src := "if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n"
	module := mustParse(t, src)
	outer, ok := module.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", module.Body[0])
	}
	if len(outer.Else) != 1 {
		t.Fatalf("expected elif to desugar to a single nested If in Else, got %d stmts", len(outer.Else))
	}
	inner, ok := outer.Else[0].(*ast.If)
	if !ok {
		t.Fatalf("expected nested *ast.If for the elif clause, got %T", outer.Else[0])
	}
	if len(inner.Else) != 1 {
		t.Fatalf("expected the final else clause on the nested If, got %d stmts", len(inner.Else))
	}
}

func TestParseAugmentedAssignDesugars(t *testing.T) {
	module := mustParse(t, "x = 1\nx += 2\n")
	assign, ok := module.Body[1].(*ast.Assign)
	if !ok {
		t.Fatalf("expected *ast.Assign for '+=', got %T", module.Body[1])
	}
	binop, ok := assign.Value.(*ast.BinOp)
	if !ok || binop.Op != ast.OpAdd {
		t.Fatalf("expected Assign{Target, BinOp{Add, Target, Value}}, got %+v", assign.Value)
	}
}

func TestParseForTargetsSingleAndTuple(t *testing.T) {
	module := mustParse(t, "for i, v in enumerate(xs):\n    print(i)\n")
	forStmt, ok := module.Body[0].(*ast.For)
	if !ok {
		t.Fatalf("expected *ast.For, got %T", module.Body[0])
	}
	if len(forStmt.Targets) != 2 || forStmt.Targets[0] != "i" || forStmt.Targets[1] != "v" {
		t.Fatalf("unexpected for-targets: %v", forStmt.Targets)
	}
}

func TestParsePrecedence(t *testing.T) {
	// 1 + 2 * 3 ** 2 should parse as 1 + (2 * (3 ** 2)), right-assoc **.
	module := mustParse(t, "x = 1 + 2 * 3 ** 2\n")
	assign := module.Body[0].(*ast.Assign)
	top, ok := assign.Value.(*ast.BinOp)
	if !ok || top.Op != ast.OpAdd {
		t.Fatalf("expected outermost Add, got %+v", assign.Value)
	}
	mul, ok := top.Right.(*ast.BinOp)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("expected Mul as the right operand of Add, got %+v", top.Right)
	}
	pow, ok := mul.Right.(*ast.BinOp)
	if !ok || pow.Op != ast.OpPow {
		t.Fatalf("expected Pow nested under Mul, got %+v", mul.Right)
	}
}

func TestParseUnsupportedImportFails(t *testing.T) {
	tokens, err := lexer.New("import os\n").Scan()
	if err != nil {
		t.Fatalf("lexer error: %v", err)
	}
	_, err = New(tokens).Parse()
	if err == nil {
		t.Fatal("expected UnsupportedImport error")
	}
}

func TestParseFromImportSupported(t *testing.T) {
	module := mustParse(t, "from json import loads, dumps\n")
	imp, ok := module.Body[0].(*ast.ImportFrom)
	if !ok {
		t.Fatalf("expected *ast.ImportFrom, got %T", module.Body[0])
	}
	if imp.Module != "json" || len(imp.Names) != 2 {
		t.Fatalf("unexpected import shape: %+v", imp)
	}
}
