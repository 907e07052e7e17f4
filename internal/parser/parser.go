// Package parser is a recursive-descent, precedence-climbing parser
// over the indentation-aware token stream internal/lexer produces.
// Its cursor helpers (peek/previous/advance/isMatch/consume) are kept
// in the same shape as the teacher's parser.Parser; the grammar itself
// is generalized from Nilan's brace-delimited statements to the
// Python-subset grammar spec §4.2 describes.
package parser

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"pyxc/internal/ast"
	"pyxc/internal/diag"
	"pyxc/internal/token"
)

var comparisonTokenTypes = []token.TokenType{
	token.LESS, token.LESS_EQUAL, token.GREATER, token.GREATER_EQUAL,
	token.EQUAL_EQUAL, token.NOT_EQUAL, token.IN, token.IS,
}

var shiftTokenTypes = []token.TokenType{token.SHL, token.SHR}
var termTokenTypes = []token.TokenType{token.ADD, token.SUB}
var factorTokenTypes = []token.TokenType{token.MUL, token.DIV, token.FLOORDIV, token.MOD}
var unaryTokenTypes = []token.TokenType{token.ADD, token.SUB, token.NOT, token.BITNOT}
var augmentedAssignTypes = []token.TokenType{token.ADD_ASSIGN, token.SUB_ASSIGN, token.MUL_ASSIGN, token.DIV_ASSIGN}

// Parser consumes a fully scanned token slice and produces a Module.
// As in the teacher, the parser's position is always one unit ahead
// of the "current" token once advance has run.
type Parser struct {
	tokens   []token.Token
	position int
}

// New constructs a Parser over a complete token stream (as produced by
// lexer.Scan, already terminated with an EOF token).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

func (p *Parser) peek() token.Token     { return p.tokens[p.position] }
func (p *Parser) previous() token.Token { return p.tokens[p.position-1] }

func (p *Parser) advance() token.Token {
	if !p.isFinished() {
		p.position++
	}
	return p.previous()
}

func (p *Parser) isFinished() bool {
	return p.peek().TokenType == token.EOF
}

func (p *Parser) checkType(tt token.TokenType) bool {
	if p.isFinished() {
		return tt == token.EOF
	}
	return p.peek().TokenType == tt
}

func (p *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for _, tt := range tokenTypes {
		if p.checkType(tt) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(tt token.TokenType, kind, message string) (token.Token, error) {
	if p.checkType(tt) {
		return p.advance(), nil
	}
	cur := p.peek()
	return token.Token{}, newSyntaxError(cur.Line, cur.Column, kind, message)
}

func (p *Parser) span(tok token.Token) diag.Span {
	return diag.Span{Line: tok.Line, Column: tok.Column}
}

// skipBlankLines consumes stray NEWLINE tokens between statements;
// the lexer already swallows truly blank/comment-only lines, but a
// trailing NEWLINE after a compound statement's block can still leave
// one sitting at the module/block level.
func (p *Parser) skipBlankLines() {
	for p.checkType(token.NEWLINE) {
		p.advance()
	}
}

// Parse parses the entire token stream into a Module, collecting every
// syntax error it can recover from (resynchronising at the next
// NEWLINE) into a single *multierror.Error, mirroring the teacher's
// "collect all errors, continue" Parse contract.
func (p *Parser) Parse() (*ast.Module, error) {
	startTok := p.peek()
	body := []ast.Stmt{}
	var errs *multierror.Error

	p.skipBlankLines()
	for !p.isFinished() {
		stmt, err := p.statement()
		if err != nil {
			errs = multierror.Append(errs, err)
			p.resynchronise()
			continue
		}
		if stmt != nil {
			body = append(body, stmt)
		}
		p.skipBlankLines()
	}

	module := &ast.Module{Span_: p.span(startTok), Body: body}
	return module, errs.ErrorOrNil()
}

// resynchronise advances past tokens until the next NEWLINE or DEDENT
// so that a single syntax error does not cascade into the rest of the
// file, matching the fail-fast-but-keep-scanning posture of spec §7.
func (p *Parser) resynchronise() {
	for !p.isFinished() && !p.checkType(token.NEWLINE) && !p.checkType(token.DEDENT) {
		p.advance()
	}
	if p.checkType(token.NEWLINE) {
		p.advance()
	}
}

// ---- Statements ------------------------------------------------------

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.checkType(token.DEF):
		p.advance()
		return p.functionDef(false)
	case p.checkType(token.ASYNC):
		p.advance()
		if _, err := p.consume(token.DEF, "UnexpectedToken", "expected 'def' after 'async'"); err != nil {
			return nil, err
		}
		return p.functionDef(true)
	case p.checkType(token.CLASS):
		p.advance()
		return p.classDef()
	case p.checkType(token.IF):
		p.advance()
		return p.ifStatement()
	case p.checkType(token.WHILE):
		p.advance()
		return p.whileStatement()
	case p.checkType(token.FOR):
		p.advance()
		return p.forStatement()
	case p.checkType(token.RETURN):
		p.advance()
		return p.returnStatement()
	case p.checkType(token.IMPORT):
		p.advance()
		return p.importStatement()
	case p.checkType(token.FROM):
		p.advance()
		return p.importFromStatement()
	default:
		return p.simpleStatement()
	}
}

func (p *Parser) dottedName() (string, error) {
	tok, err := p.consume(token.IDENTIFIER, "ExpectedExpression", "expected a name")
	if err != nil {
		return "", err
	}
	name := tok.Lexeme
	for p.checkType(token.DOT) {
		p.advance()
		part, err := p.consume(token.IDENTIFIER, "ExpectedExpression", "expected a name after '.'")
		if err != nil {
			return "", err
		}
		name += "." + part.Lexeme
	}
	return name, nil
}

func (p *Parser) functionDef(isAsync bool) (ast.Stmt, error) {
	startTok := p.previous()
	nameTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected a function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "UnexpectedToken", "expected '(' after function name"); err != nil {
		return nil, err
	}

	var params []ast.Param
	if !p.checkType(token.RPAREN) {
		for {
			pNameTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected a parameter name")
			if err != nil {
				return nil, err
			}
			hint := ""
			if p.checkType(token.COLON) {
				p.advance()
				hintTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected a type hint after ':'")
				if err != nil {
					return nil, err
				}
				hint = hintTok.Lexeme
			}
			params = append(params, ast.Param{Name: pNameTok.Lexeme, TypeHint: hint})
			if !p.checkType(token.COMMA) {
				break
			}
			p.advance()
		}
	}
	if _, err := p.consume(token.RPAREN, "UnexpectedToken", "expected ')' after parameters"); err != nil {
		return nil, err
	}

	returnHint := ""
	if p.checkType(token.ARROW) {
		p.advance()
		hintTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected a return type hint after '->'")
		if err != nil {
			return nil, err
		}
		returnHint = hintTok.Lexeme
	}

	if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' to start function body"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}

	return &ast.FunctionDef{
		Span_:      p.span(startTok),
		Name:       nameTok.Lexeme,
		Params:     params,
		ReturnHint: returnHint,
		Body:       body,
		IsAsync:    isAsync,
	}, nil
}

func (p *Parser) classDef() (ast.Stmt, error) {
	startTok := p.previous()
	nameTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected a class name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' to start class body"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	for _, member := range body {
		switch member.(type) {
		case *ast.FunctionDef:
			// allowed
		default:
			span := member.Span()
			return nil, newSyntaxError(span.Line, span.Column, "UnsupportedClassMember", "a class body may only contain method definitions and a docstring")
		}
	}
	return &ast.ClassDef{Span_: p.span(startTok), Name: nameTok.Lexeme, Body: body}, nil
}

// block expects the lexer's NEWLINE INDENT ... DEDENT bracketing of a
// suite and returns its statements, dropping bare docstring
// ExprStmts (simpleStatement already returns nil for those).
func (p *Parser) block() ([]ast.Stmt, error) {
	if _, err := p.consume(token.NEWLINE, "UnexpectedToken", "expected a newline before an indented block"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.INDENT, "UnexpectedToken", "expected an indented block"); err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.checkType(token.DEDENT) && !p.isFinished() {
		p.skipBlankLines()
		if p.checkType(token.DEDENT) || p.isFinished() {
			break
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	if _, err := p.consume(token.DEDENT, "UnexpectedToken", "expected the block to end"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) ifStatement() (ast.Stmt, error) {
	startTok := p.previous()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' after if condition"); err != nil {
		return nil, err
	}
	thenBody, err := p.block()
	if err != nil {
		return nil, err
	}

	var elseBody []ast.Stmt
	if p.checkType(token.ELIF) {
		elifTok := p.advance()
		nested, err := p.ifStatementFrom(elifTok)
		if err != nil {
			return nil, err
		}
		elseBody = []ast.Stmt{nested}
	} else if p.checkType(token.ELSE) {
		p.advance()
		if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' after else"); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		elseBody = body
	}

	return &ast.If{Span_: p.span(startTok), Cond: cond, Then: thenBody, Else: elseBody}, nil
}

// ifStatementFrom parses the `elif` condition/body pair as a nested If
// node, desugaring Python's elif-chain into nested Ifs per SPEC_FULL §5.
func (p *Parser) ifStatementFrom(startTok token.Token) (ast.Stmt, error) {
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' after elif condition"); err != nil {
		return nil, err
	}
	thenBody, err := p.block()
	if err != nil {
		return nil, err
	}
	var elseBody []ast.Stmt
	if p.checkType(token.ELIF) {
		elifTok := p.advance()
		nested, err := p.ifStatementFrom(elifTok)
		if err != nil {
			return nil, err
		}
		elseBody = []ast.Stmt{nested}
	} else if p.checkType(token.ELSE) {
		p.advance()
		if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' after else"); err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		elseBody = body
	}
	return &ast.If{Span_: p.span(startTok), Cond: cond, Then: thenBody, Else: elseBody}, nil
}

func (p *Parser) whileStatement() (ast.Stmt, error) {
	startTok := p.previous()
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' after while condition"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.While{Span_: p.span(startTok), Cond: cond, Body: body}, nil
}

// forStatement accepts a single name or a parenthesis-less tuple of
// names as the loop target; the emitter decides the iterable shape
// (range/enumerate/zip) later per spec §4.4.2.
func (p *Parser) forStatement() (ast.Stmt, error) {
	startTok := p.previous()
	var targets []string
	for {
		nameTok, err := p.consume(token.IDENTIFIER, "UnsupportedTarget", "expected a loop target name")
		if err != nil {
			return nil, err
		}
		targets = append(targets, nameTok.Lexeme)
		if !p.checkType(token.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.consume(token.IN, "UnexpectedToken", "expected 'in' after for target(s)"); err != nil {
		return nil, err
	}
	iterable, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' after for clause"); err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.For{Span_: p.span(startTok), Targets: targets, Iterable: iterable, Body: body}, nil
}

func (p *Parser) returnStatement() (ast.Stmt, error) {
	startTok := p.previous()
	var value ast.Expr
	if !p.checkType(token.NEWLINE) && !p.isFinished() {
		expr, err := p.expression()
		if err != nil {
			return nil, err
		}
		value = expr
	}
	if _, err := p.consume(token.NEWLINE, "UnexpectedToken", "expected a newline after return statement"); err != nil {
		return nil, err
	}
	return &ast.Return{Span_: p.span(startTok), Value: value}, nil
}

func (p *Parser) importStatement() (ast.Stmt, error) {
	startTok := p.previous()
	path, err := p.dottedName()
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.checkType(token.AS) {
		p.advance()
		aliasTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected an alias name after 'as'")
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Lexeme
	}
	if _, err := p.consume(token.NEWLINE, "UnexpectedToken", "expected a newline after import statement"); err != nil {
		return nil, err
	}
	if !isSupportedImportPath(path) {
		return nil, newSyntaxError(startTok.Line, startTok.Column, "UnsupportedImport", fmt.Sprintf("import %q is not part of the supported subset", path))
	}
	return &ast.Import{Span_: p.span(startTok), Path: path, Alias: alias}, nil
}

func (p *Parser) importFromStatement() (ast.Stmt, error) {
	startTok := p.previous()
	module, err := p.dottedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.IMPORT, "UnexpectedToken", "expected 'import' in a from-import statement"); err != nil {
		return nil, err
	}
	var names []ast.ImportedName
	for {
		nameTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected an imported name")
		if err != nil {
			return nil, err
		}
		alias := ""
		if p.checkType(token.AS) {
			p.advance()
			aliasTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected an alias name after 'as'")
			if err != nil {
				return nil, err
			}
			alias = aliasTok.Lexeme
		}
		names = append(names, ast.ImportedName{Name: nameTok.Lexeme, Alias: alias})
		if !p.checkType(token.COMMA) {
			break
		}
		p.advance()
	}
	if _, err := p.consume(token.NEWLINE, "UnexpectedToken", "expected a newline after from-import statement"); err != nil {
		return nil, err
	}
	if !isSupportedFromModule(module) {
		return nil, newSyntaxError(startTok.Line, startTok.Column, "UnsupportedImport", fmt.Sprintf("'from %s import ...' is not part of the supported subset", module))
	}
	return &ast.ImportFrom{Span_: p.span(startTok), Module: module, Names: names}, nil
}

// isSupportedImportPath restricts bare `import x` to the two modules
// the emitter special-cases per spec §4.4.7.
func isSupportedImportPath(path string) bool {
	return path == "json" || path == "http"
}

func isSupportedFromModule(module string) bool {
	return module == "json" || module == "http"
}

func augmentedOp(tt token.TokenType) ast.BinOpKind {
	switch tt {
	case token.ADD_ASSIGN:
		return ast.OpAdd
	case token.SUB_ASSIGN:
		return ast.OpSub
	case token.MUL_ASSIGN:
		return ast.OpMul
	case token.DIV_ASSIGN:
		return ast.OpDiv
	default:
		return ast.OpAdd
	}
}

// simpleStatement parses an assignment or a bare expression statement
// and consumes the trailing NEWLINE. Bare string-literal expression
// statements (docstrings) are dropped, returning (nil, nil).
func (p *Parser) simpleStatement() (ast.Stmt, error) {
	startTok := p.peek()
	targets := []ast.Expr{}
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	targets = append(targets, first)
	for p.checkType(token.COMMA) {
		p.advance()
		next, err := p.expression()
		if err != nil {
			return nil, err
		}
		targets = append(targets, next)
	}

	switch {
	case p.checkType(token.ASSIGN):
		p.advance()
		value, err := p.assignmentValue()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.NEWLINE, "UnexpectedToken", "expected a newline after assignment"); err != nil {
			return nil, err
		}
		for _, target := range targets {
			if !isAssignable(target) {
				span := target.Span()
				return nil, newSyntaxError(span.Line, span.Column, "UnsupportedTarget", "invalid assignment target")
			}
		}
		return &ast.Assign{Span_: p.span(startTok), Targets: targets, Value: value}, nil

	case p.isMatch(augmentedAssignTypes):
		opTok := p.previous()
		if len(targets) != 1 {
			return nil, newSyntaxError(opTok.Line, opTok.Column, "UnsupportedTarget", "augmented assignment does not support tuple targets")
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.NEWLINE, "UnexpectedToken", "expected a newline after assignment"); err != nil {
			return nil, err
		}
		target := targets[0]
		if !isAssignable(target) {
			span := target.Span()
			return nil, newSyntaxError(span.Line, span.Column, "UnsupportedTarget", "invalid assignment target")
		}
		desugared := &ast.BinOp{Span_: p.span(opTok), Op: augmentedOp(opTok.TokenType), Left: target, Right: value}
		return &ast.Assign{Span_: p.span(startTok), Targets: targets, Value: desugared}, nil

	default:
		if _, err := p.consume(token.NEWLINE, "UnexpectedToken", "expected a newline after statement"); err != nil {
			return nil, err
		}
		if len(targets) == 1 {
			if c, ok := targets[0].(*ast.Constant); ok && c.Kind == ast.ConstString {
				return nil, nil // bare docstring, dropped
			}
			return &ast.ExprStmt{Span_: p.span(startTok), Value: targets[0]}, nil
		}
		// A bare comma-separated expression list with no assignment: keep
		// only the first expression's side effect, matching the general
		// "discard expression statement" rule.
		return &ast.ExprStmt{Span_: p.span(startTok), Value: targets[0]}, nil
	}
}

// assignmentValue parses the right-hand side, folding a bare
// comma-separated list into an implicit Tuple literal.
func (p *Parser) assignmentValue() (ast.Expr, error) {
	startTok := p.peek()
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.checkType(token.COMMA) {
		return first, nil
	}
	elements := []ast.Expr{first}
	for p.checkType(token.COMMA) {
		p.advance()
		next, err := p.expression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, next)
	}
	return &ast.Tuple{Span_: p.span(startTok), Elements: elements}, nil
}

func isAssignable(e ast.Expr) bool {
	switch e.(type) {
	case *ast.Name, *ast.Attribute, *ast.Subscript:
		return true
	default:
		return false
	}
}

// ---- Expressions -----------------------------------------------------

func (p *Parser) expression() (ast.Expr, error) {
	return p.conditional()
}

// conditional handles the `x if C else y` ternary, lowest precedence.
func (p *Parser) conditional() (ast.Expr, error) {
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.checkType(token.IF) {
		ifTok := p.advance()
		cond, err := p.or()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.ELSE, "UnexpectedToken", "expected 'else' in conditional expression"); err != nil {
			return nil, err
		}
		elseExpr, err := p.conditional()
		if err != nil {
			return nil, err
		}
		return &ast.Conditional{Span_: p.span(ifTok), Cond: cond, Then: expr, Else: elseExpr}, nil
	}
	return expr, nil
}

func (p *Parser) or() (ast.Expr, error) {
	expr, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.OR) {
		opTok := p.advance()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: ast.OpOr, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) and() (ast.Expr, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.AND) {
		opTok := p.advance()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: ast.OpAnd, Left: expr, Right: right}
	}
	return expr, nil
}

var comparisonOpKind = map[token.TokenType]ast.BinOpKind{
	token.LESS: ast.OpLess, token.LESS_EQUAL: ast.OpLessEqual,
	token.GREATER: ast.OpGreater, token.GREATER_EQUAL: ast.OpGreaterEqual,
	token.EQUAL_EQUAL: ast.OpEqual, token.NOT_EQUAL: ast.OpNotEqual,
	token.IN: ast.OpIn, token.IS: ast.OpIs,
}

func (p *Parser) comparison() (ast.Expr, error) {
	expr, err := p.bitor()
	if err != nil {
		return nil, err
	}
	for p.isMatch(comparisonTokenTypes) {
		opTok := p.previous()
		right, err := p.bitor()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: comparisonOpKind[opTok.TokenType], Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) bitor() (ast.Expr, error) {
	expr, err := p.bitxor()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.BITOR) {
		opTok := p.advance()
		right, err := p.bitxor()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: ast.OpBitOr, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) bitxor() (ast.Expr, error) {
	expr, err := p.bitand()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.BITXOR) {
		opTok := p.advance()
		right, err := p.bitand()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: ast.OpBitXor, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) bitand() (ast.Expr, error) {
	expr, err := p.shift()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.BITAND) {
		opTok := p.advance()
		right, err := p.shift()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: ast.OpBitAnd, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) shift() (ast.Expr, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isMatch(shiftTokenTypes) {
		opTok := p.previous()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		kind := ast.OpShl
		if opTok.TokenType == token.SHR {
			kind = ast.OpShr
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: kind, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) term() (ast.Expr, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.isMatch(termTokenTypes) {
		opTok := p.previous()
		right, err := p.factor()
		if err != nil {
			return nil, err
		}
		kind := ast.OpAdd
		if opTok.TokenType == token.SUB {
			kind = ast.OpSub
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: kind, Left: expr, Right: right}
	}
	return expr, nil
}

var factorOpKind = map[token.TokenType]ast.BinOpKind{
	token.MUL: ast.OpMul, token.DIV: ast.OpDiv, token.FLOORDIV: ast.OpFloorDiv, token.MOD: ast.OpMod,
}

func (p *Parser) factor() (ast.Expr, error) {
	expr, err := p.power()
	if err != nil {
		return nil, err
	}
	for p.isMatch(factorTokenTypes) {
		opTok := p.previous()
		right, err := p.power()
		if err != nil {
			return nil, err
		}
		expr = &ast.BinOp{Span_: p.span(opTok), Op: factorOpKind[opTok.TokenType], Left: expr, Right: right}
	}
	return expr, nil
}

// power binds `**` right-associatively, tighter than the arithmetic
// operators above it but looser than unary, per spec §4.2's table.
func (p *Parser) power() (ast.Expr, error) {
	base, err := p.unary()
	if err != nil {
		return nil, err
	}
	if p.checkType(token.POW) {
		opTok := p.advance()
		exponent, err := p.power()
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Span_: p.span(opTok), Op: ast.OpPow, Left: base, Right: exponent}, nil
	}
	return base, nil
}

func (p *Parser) unary() (ast.Expr, error) {
	if p.isMatch(unaryTokenTypes) {
		opTok := p.previous()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		var kind ast.UnaryOpKind
		switch opTok.TokenType {
		case token.ADD:
			kind = ast.UnaryPlus
		case token.SUB:
			kind = ast.UnaryMinus
		case token.NOT:
			kind = ast.UnaryNot
		case token.BITNOT:
			kind = ast.UnaryInvert
		}
		return &ast.UnaryOp{Span_: p.span(opTok), Op: kind, Operand: operand}, nil
	}
	return p.postfix()
}

// postfix parses call/attribute/subscript chains after a primary atom.
func (p *Parser) postfix() (ast.Expr, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.checkType(token.LPAREN):
			tok := p.advance()
			var args []ast.Expr
			if !p.checkType(token.RPAREN) {
				for {
					arg, err := p.expression()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.checkType(token.COMMA) {
						break
					}
					p.advance()
				}
			}
			if _, err := p.consume(token.RPAREN, "UnexpectedToken", "expected ')' after call arguments"); err != nil {
				return nil, err
			}
			expr = &ast.Call{Span_: p.span(tok), Callee: expr, Args: args}
		case p.checkType(token.DOT):
			p.advance()
			nameTok, err := p.consume(token.IDENTIFIER, "UnexpectedToken", "expected an attribute name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.Attribute{Span_: p.span(nameTok), Value: expr, Attr: nameTok.Lexeme}
		case p.checkType(token.LBRACKET):
			tok := p.advance()
			index, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.RBRACKET, "UnexpectedToken", "expected ']' after subscript"); err != nil {
				return nil, err
			}
			expr = &ast.Subscript{Span_: p.span(tok), Value: expr, Index: index}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) primary() (ast.Expr, error) {
	switch {
	case p.checkType(token.TRUE):
		tok := p.advance()
		return &ast.Constant{Span_: p.span(tok), Kind: ast.ConstBool, Bool: true}, nil
	case p.checkType(token.FALSE):
		tok := p.advance()
		return &ast.Constant{Span_: p.span(tok), Kind: ast.ConstBool, Bool: false}, nil
	case p.checkType(token.NONE):
		tok := p.advance()
		return &ast.Constant{Span_: p.span(tok), Kind: ast.ConstNone}, nil
	case p.checkType(token.INT):
		tok := p.advance()
		return &ast.Constant{Span_: p.span(tok), Kind: ast.ConstInt, Int: tok.Literal.(int64)}, nil
	case p.checkType(token.FLOAT):
		tok := p.advance()
		return &ast.Constant{Span_: p.span(tok), Kind: ast.ConstFloat, Float: tok.Literal.(float64)}, nil
	case p.checkType(token.STRING):
		tok := p.advance()
		return &ast.Constant{Span_: p.span(tok), Kind: ast.ConstString, Str: tok.Literal.(string), Raw: tok.Lexeme}, nil
	case p.checkType(token.IDENTIFIER):
		tok := p.advance()
		return &ast.Name{Span_: p.span(tok), Ident: tok.Lexeme}, nil
	case p.checkType(token.LPAREN):
		tok := p.advance()
		if p.checkType(token.RPAREN) {
			p.advance()
			return &ast.Tuple{Span_: p.span(tok)}, nil
		}
		first, err := p.expression()
		if err != nil {
			return nil, err
		}
		if p.checkType(token.COMMA) {
			elements := []ast.Expr{first}
			for p.checkType(token.COMMA) {
				p.advance()
				if p.checkType(token.RPAREN) {
					break
				}
				next, err := p.expression()
				if err != nil {
					return nil, err
				}
				elements = append(elements, next)
			}
			if _, err := p.consume(token.RPAREN, "UnexpectedToken", "expected ')' after tuple elements"); err != nil {
				return nil, err
			}
			return &ast.Tuple{Span_: p.span(tok), Elements: elements}, nil
		}
		if _, err := p.consume(token.RPAREN, "UnexpectedToken", "expected ')' to close expression"); err != nil {
			return nil, err
		}
		return first, nil
	case p.checkType(token.LBRACKET):
		tok := p.advance()
		var elements []ast.Expr
		if !p.checkType(token.RBRACKET) {
			for {
				el, err := p.expression()
				if err != nil {
					return nil, err
				}
				elements = append(elements, el)
				if !p.checkType(token.COMMA) {
					break
				}
				p.advance()
			}
		}
		if _, err := p.consume(token.RBRACKET, "UnexpectedToken", "expected ']' after list elements"); err != nil {
			return nil, err
		}
		return &ast.List{Span_: p.span(tok), Elements: elements}, nil
	case p.checkType(token.LBRACE):
		tok := p.advance()
		var entries []ast.DictEntry
		if !p.checkType(token.RBRACE) {
			for {
				key, err := p.expression()
				if err != nil {
					return nil, err
				}
				if _, err := p.consume(token.COLON, "UnexpectedToken", "expected ':' in dict literal"); err != nil {
					return nil, err
				}
				value, err := p.expression()
				if err != nil {
					return nil, err
				}
				entries = append(entries, ast.DictEntry{Key: key, Value: value})
				if !p.checkType(token.COMMA) {
					break
				}
				p.advance()
			}
		}
		if _, err := p.consume(token.RBRACE, "UnexpectedToken", "expected '}' after dict entries"); err != nil {
			return nil, err
		}
		return &ast.Dict{Span_: p.span(tok), Entries: entries}, nil
	default:
		cur := p.peek()
		return nil, newSyntaxError(cur.Line, cur.Column, "ExpectedExpression", fmt.Sprintf("unexpected token %q", cur.Lexeme))
	}
}
