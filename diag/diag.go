// Package diag holds the diagnostic value types produced by every stage of
// the translation pipeline: lexer, parser, converter, and emitter.
//
// Each diagnostic carries enough information — a byte span and a message —
// for a host application to render a caret-style underline; this package
// also provides a default renderer (Render) for callers that have no
// display layer of their own, such as the CLI and tests.
package diag

import (
	"fmt"
	"strings"

	"github.com/singlestore-labs/okql/span"
)

// Source pairs a file/query name with its full text, shared by reference
// across every diagnostic produced while translating it.
type Source struct {
	Name string
	Text string
}

// LexError reports one run of input that did not match any token rule.
// The lexer collects every LexError in a single pass rather than stopping
// at the first one.
type LexError struct {
	Source Source
	Span   span.Span
}

func (e LexError) Error() string {
	return fmt.Sprintf("%s: unrecognized input at %s", e.Source.Name, e.Span)
}

// ParseErrorKind distinguishes the shapes a ParseError can take.
type ParseErrorKind int

const (
	// EndOfInput: the parser needed another token but the tape was
	// exhausted.
	EndOfInput ParseErrorKind = iota + 1
	// Simple: a span-only failure with no further detail.
	Simple
	// General: a span plus a free-form message.
	General
	// UnexpectedToken: a span, a description of what was expected, and
	// the token that was found instead.
	UnexpectedToken
	// NotYetSupported: the parser recognised the shape of a feature it
	// does not implement.
	NotYetSupported
)

// ParseError is returned by the parser; it always short-circuits the parse
// (no error recovery / resynchronisation is attempted).
type ParseError struct {
	Kind        ParseErrorKind
	Source      Source
	Span        span.Span
	Message     string // General
	Description string // UnexpectedToken: what was expected
	Found       string // UnexpectedToken: what was found
	Feature     string // NotYetSupported
}

func (e ParseError) Error() string {
	switch e.Kind {
	case EndOfInput:
		return fmt.Sprintf("%s: unexpected end of input", e.Source.Name)
	case Simple:
		return fmt.Sprintf("%s: parse error at %s", e.Source.Name, e.Span)
	case General:
		return fmt.Sprintf("%s: %s at %s", e.Source.Name, e.Message, e.Span)
	case UnexpectedToken:
		return fmt.Sprintf("%s: expected %s but found %s at %s", e.Source.Name, e.Description, e.Found, e.Span)
	case NotYetSupported:
		return fmt.Sprintf("%s: %s is not yet supported at %s", e.Source.Name, e.Feature, e.Span)
	default:
		return fmt.Sprintf("%s: unknown parse error at %s", e.Source.Name, e.Span)
	}
}

// ConverterErrorKind distinguishes the shapes a ConverterError can take.
type ConverterErrorKind int

const (
	// ExpressionNotCondition: an expression was used where the merger
	// needed a boolean search condition.
	ExpressionNotCondition ConverterErrorKind = iota + 1
	// NotImplemented: a recognised tabular operator, or an operator or
	// expression shape inside a value expression, that the merger does not
	// translate.
	NotImplemented
)

// ConverterError is returned by the merger.
type ConverterError struct {
	Kind    ConverterErrorKind
	Source  Source
	Span    span.Span
	Feature string // NotImplemented
}

func (e ConverterError) Error() string {
	switch e.Kind {
	case ExpressionNotCondition:
		return fmt.Sprintf("%s: expression is not a boolean condition at %s", e.Source.Name, e.Span)
	case NotImplemented:
		return fmt.Sprintf("%s: %s is not implemented at %s", e.Source.Name, e.Feature, e.Span)
	default:
		return fmt.Sprintf("%s: unknown converter error at %s", e.Source.Name, e.Span)
	}
}

// EmitError reports a pretty-printer failure. The emitter's only possible
// failure is an underlying write failure, so this is always generic.
type EmitError struct {
	Message string
}

func (e EmitError) Error() string {
	if e.Message == "" {
		return "failed to format SQL output"
	}
	return e.Message
}

// Render produces a three-line caret-style rendering of src at the given
// span: a header "<name>:<offset>..<end>: <message>", the source line on
// which the span starts, then a line of spaces and carets pointing at the
// offending range.
//
// This is not a stable machine-readable format (spec: "no stable
// machine-readable format is defined") — it exists purely as a reasonable
// default for callers (the CLI, tests) that have no display layer of
// their own.
func Render(src Source, s span.Span, message string) string {
	lineStart := strings.LastIndexByte(src.Text[:clamp(s.Offset, len(src.Text))], '\n') + 1
	lineEnd := strings.IndexByte(src.Text[clamp(s.Offset, len(src.Text)):], '\n')
	if lineEnd == -1 {
		lineEnd = len(src.Text)
	} else {
		lineEnd += s.Offset
	}
	line := src.Text[lineStart:lineEnd]

	caretLen := s.Len
	if caretLen < 1 {
		caretLen = 1
	}
	col := s.Offset - lineStart
	if col < 0 {
		col = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s:%s: %s\n", src.Name, s, message)
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", col))
	b.WriteString(strings.Repeat("^", caretLen))
	return b.String()
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	if n < 0 {
		return 0
	}
	return n
}
