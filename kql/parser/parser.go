// Package parser implements the recursive-descent, checkpoint/restore KQL
// parser, including the Pratt expression parser.
package parser

import (
	"github.com/sirupsen/logrus"

	"github.com/singlestore-labs/okql/diag"
	"github.com/singlestore-labs/okql/kql/ast"
	"github.com/singlestore-labs/okql/span"
	"github.com/singlestore-labs/okql/token"
)

// Parse turns a token stream into a Query. It short-circuits on the first
// error -- there is no error-recovery or resynchronisation mode.
func Parse(src diag.Source, tokens []token.Token) (ast.Query, error) {
	input := newInput(src, tokens)
	return parseQuery(input)
}

// Input is a read cursor over a token tape supporting O(1)
// checkpoint/restore, for the backtracking the recursive-descent grammar
// needs (e.g. distinguishing a kebab-term boundary, or an optional
// "asc"/"desc" in a sort clause).
type Input struct {
	src    diag.Source
	tokens []token.Token
	index  int

	// Log, if set, receives one debug line per operator dispatched. Parse
	// creates its Input with Log unset, so parsing through Parse emits no
	// trace.
	Log logrus.FieldLogger
}

// Checkpoint is an opaque cursor position captured by (*Input).Checkpoint.
type Checkpoint struct {
	index int
}

func newInput(src diag.Source, tokens []token.Token) *Input {
	return &Input{src: src, tokens: tokens}
}

func (in *Input) Checkpoint() Checkpoint {
	return Checkpoint{index: in.index}
}

func (in *Input) Restore(c Checkpoint) {
	in.index = c.index
}

func (in *Input) Done() bool {
	return in.index >= len(in.tokens)
}

func (in *Input) Has(n int) bool {
	return in.index+n <= len(in.tokens)
}

func (in *Input) Peek() (token.Token, error) {
	if in.index >= len(in.tokens) {
		return token.Token{}, diag.ParseError{Kind: diag.EndOfInput, Source: in.src}
	}
	return in.tokens[in.index], nil
}

func (in *Input) Next() (token.Token, error) {
	if in.index >= len(in.tokens) {
		in.index++
		return token.Token{}, diag.ParseError{Kind: diag.EndOfInput, Source: in.src}
	}
	t := in.tokens[in.index]
	in.index++
	return t, nil
}

// AssertNext consumes the next token, requiring it to have the given kind,
// and returns its span.
func (in *Input) AssertNext(kind token.Kind, description string) (span.Span, error) {
	next, err := in.Next()
	if err != nil {
		return span.Span{}, err
	}
	if next.Kind != kind {
		return span.Span{}, in.unexpectedToken(description)
	}
	return next.Span, nil
}

// NextIf consumes and returns the next token's span if it has kind; it
// consumes nothing and returns ok=false otherwise.
func (in *Input) NextIf(kind token.Kind) (span.Span, bool) {
	next, err := in.Peek()
	if err != nil || next.Kind != kind {
		return span.Span{}, false
	}
	_, _ = in.Next()
	return next.Span, true
}

// NextIfTermText consumes and returns the next token's span if it is a
// Term whose text equals text; it consumes nothing otherwise. Used for
// contextual keywords like "by", "asc", "first".
func (in *Input) NextIfTermText(text string) (span.Span, bool) {
	next, err := in.Peek()
	if err != nil || next.Kind != token.Term || next.Text() != text {
		return span.Span{}, false
	}
	_, _ = in.Next()
	return next.Span, true
}

func (in *Input) generalError(message string) error {
	return diag.ParseError{Kind: diag.General, Source: in.src, Span: in.lastSpan(), Message: message}
}

func (in *Input) unsupportedError(feature string) error {
	return diag.ParseError{Kind: diag.NotYetSupported, Source: in.src, Span: in.lastSpan(), Feature: feature}
}

func (in *Input) unexpectedToken(description string) error {
	t := in.lastToken()
	return diag.ParseError{
		Kind:        diag.UnexpectedToken,
		Source:      in.src,
		Span:        in.lastSpan(),
		Description: description,
		Found:       t.Kind.String(),
	}
}

func (in *Input) lastSpan() span.Span {
	if in.index == 0 || in.index-1 >= len(in.tokens) {
		return span.Span{}
	}
	return in.tokens[in.index-1].Span
}

func (in *Input) lastToken() token.Token {
	if in.index == 0 || in.index-1 >= len(in.tokens) {
		return token.Token{}
	}
	return in.tokens[in.index-1]
}

// parseTerm consumes a single Term token.
func parseTerm(in *Input) (span.M[string], error) {
	t, err := in.Next()
	if err != nil {
		return span.M[string]{}, err
	}
	if t.Kind != token.Term {
		return span.M[string]{}, in.unexpectedToken("Term expected")
	}
	return span.NewM(t.Text(), t.Span), nil
}
