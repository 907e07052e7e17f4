package emit

import (
	"fmt"

	"pyxc/internal/diag"
)

// EmitError covers the emitter-level restriction diagnostics spec §7
// tier 1 lists for for-loop shapes: UnsupportedForLoop, InvalidRangeArgs,
// InvalidEnumerateTarget, InvalidZipTarget. UnsupportedClassMember and
// UnsupportedImport are raised by the parser, not here.
type EmitError struct {
	Span    diag.Span
	Kind    string
	Message string
}

func newEmitError(span diag.Span, kind, message string) EmitError {
	return EmitError{Span: span, Kind: kind, Message: message}
}

func (e EmitError) Error() string {
	return fmt.Sprintf("💥 %s error:\nline:%d, column:%d - %s", e.Kind, e.Span.Line, e.Span.Column, e.Message)
}
