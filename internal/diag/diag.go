// Package diag defines the source-span and error types shared by every
// compiler stage. The parser's SyntaxError and the emitter's EmitError
// each embed a Span and format the same way; the lexer reports plain errors.
package diag

import "fmt"

// Span marks a region of source text by line/column and byte length,
// mirroring the position fields nilan's token.Token carries.
type Span struct {
	Line   int32
	Column int
	Length int
}

// Format renders a stage-tagged diagnostic the way the teacher's error
// types do: "💥 <kind> error:\nline:%d, column:%d - %s".
func Format(kind string, span Span, message string) string {
	return fmt.Sprintf("💥 %s error:\nline:%d, column:%d - %s", kind, span.Line, span.Column, message)
}
