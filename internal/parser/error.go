package parser

import (
	"fmt"

	"pyxc/internal/diag"
)

// SyntaxError is raised for lexical-token-stream shapes the grammar
// rejects: unexpected tokens, missing expressions, and the restriction
// errors of spec §7 tier 1 (UnsupportedForLoop, UnsupportedClassMember,
// UnsupportedImport, ...).
type SyntaxError struct {
	Span    diag.Span
	Kind    string
	Message string
}

func newSyntaxError(line int32, column int, kind, message string) SyntaxError {
	return SyntaxError{Span: diag.Span{Line: line, Column: column}, Kind: kind, Message: message}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 %s error:\nline:%d, column:%d - %s", e.Kind, e.Span.Line, e.Span.Column, e.Message)
}
