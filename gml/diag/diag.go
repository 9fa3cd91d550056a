// Package diag holds the diagnostic types shared by the lexer, parser and
// front-end codegen: a byte-offset Span, a single Diagnostic, and a capped
// aggregate List, modeled directly on db47h/ngaro's asm.ErrAsm.
package diag

import (
	"fmt"
	"strings"
)

// Span is a half-open byte offset range [Low, High) into the source text
// that produced it.
type Span struct {
	Low, High int
}

// Diagnostic is a single lex, parse or codegen error.
type Diagnostic struct {
	Span    Span
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Span.Low, d.Span.High, d.Message)
}

// maxDiagnostics bounds how many errors a single compile reports, the same
// way asm.parser caps at 10 before giving up (asm/parser.go: maxErrors).
const maxDiagnostics = 20

// List is an aggregate error accumulated during a single compile. It
// implements error so a List can be returned wherever a single error is
// expected.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic unless the list has already reached its cap.
func (l *List) Add(span Span, format string, args ...interface{}) {
	if len(l.items) >= maxDiagnostics {
		return
	}
	l.items = append(l.items, Diagnostic{Span: span, Message: fmt.Sprintf(format, args...)})
}

// Full reports whether the list has reached maxDiagnostics and further
// errors from the same compile should be suppressed, mirroring
// asm.parser.abort.
func (l *List) Full() bool {
	return len(l.items) >= maxDiagnostics
}

// Len returns the number of diagnostics collected.
func (l *List) Len() int { return len(l.items) }

// Items returns the collected diagnostics in report order.
func (l *List) Items() []Diagnostic { return l.items }

// Err returns l as an error, or nil if no diagnostics were collected.
func (l *List) Err() error {
	if len(l.items) == 0 {
		return nil
	}
	return l
}

func (l *List) Error() string {
	parts := make([]string, len(l.items))
	for i, d := range l.items {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

// Handler receives one diagnostic at a time, decoupling the compiler from
// any particular error list or host logging setup (spec.md §6: "Every
// parser and codegen error is delivered to a host-supplied error handler").
type Handler func(span Span, message string)

// ListHandler returns a Handler that records into list.
func ListHandler(list *List) Handler {
	return func(span Span, message string) {
		list.Add(span, "%s", message)
	}
}
