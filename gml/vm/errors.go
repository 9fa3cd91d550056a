package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/gm-archive/dejavu/gml/diag"
)

// RuntimeError is returned by Thread.Run/Call for a fault the bytecode
// itself cannot recover from (division by zero, a type mismatch, an
// unbound scope), grounded on db47h/ngaro's vm/core.go, whose Run
// recovers a panic only when it can be type-asserted back to its own
// error type and re-panics anything else.
type RuntimeError struct {
	Span    diag.Span
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at %d: %s", e.Span.Low, e.Message)
}

func fault(span diag.Span, format string, args ...interface{}) error {
	return errors.WithStack(&RuntimeError{Span: span, Message: fmt.Sprintf(format, args...)})
}
