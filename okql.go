// Package okql translates KQL (Kusto-style pipe query) text into SQL.
//
// The pipeline is lex -> parse -> convert -> emit, each stage a pure
// function of the previous stage's output plus a shared diag.Source for
// error reporting. KqlToSql is the one-call convenience entry point; the
// individual stages are exported for callers that want to inspect or
// reuse an intermediate representation.
package okql

import (
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/singlestore-labs/okql/converter"
	"github.com/singlestore-labs/okql/diag"
	"github.com/singlestore-labs/okql/kql/ast"
	"github.com/singlestore-labs/okql/kql/parser"
	"github.com/singlestore-labs/okql/lexer"
	"github.com/singlestore-labs/okql/sqlast"
	"github.com/singlestore-labs/okql/sqlemit"
)

// Log, if non-nil, receives a Debug entry at the start of each KqlToSql
// call, tagged with a correlation id unique to that call, and (through
// Convert) one Debug entry per merged operator, which carries the operator
// name but not the correlation id.
var Log logrus.FieldLogger

// KqlToSql is the one-call convenience pipeline: lex, parse, convert,
// emit. On any failure it renders every diagnostic produced (the lexer
// may report more than one; every other stage reports exactly one) into a
// single human-readable error string, per spec.md's caret-style
// rendering contract.
func KqlToSql(sourceName, sourceText string) (string, error) {
	callID, err := uuid.NewV4()
	if err != nil {
		callID = uuid.Nil
	}
	if Log != nil {
		Log.WithField("call_id", callID.String()).WithField("source", sourceName).Debug("translating KQL to SQL")
	}

	query, err := Parse(sourceName, sourceText)
	if err != nil {
		return "", renderError(diag.Source{Name: sourceName, Text: sourceText}, err)
	}

	stmt, err := Convert(diag.Source{Name: sourceName, Text: sourceText}, query)
	if err != nil {
		return "", renderError(diag.Source{Name: sourceName, Text: sourceText}, err)
	}

	sql, err := Emit(&stmt)
	if err != nil {
		return "", renderError(diag.Source{Name: sourceName, Text: sourceText}, err)
	}

	return sql, nil
}

// Parse lexes and parses sourceText into a Query. A lex failure returns
// every collected diag.LexError as one LexErrors value (the lexer never
// stops at the first bad run); any other failure returns a single
// diag.ParseError.
func Parse(sourceName, sourceText string) (ast.Query, error) {
	src := diag.Source{Name: sourceName, Text: sourceText}

	tokens, lexErrs := lexer.Tokenize(src, sourceText)
	if len(lexErrs) > 0 {
		return ast.Query{}, LexErrors(lexErrs)
	}

	return parser.Parse(src, tokens)
}

// LexErrors is returned by Parse when the lexer collects one or more
// unrecognised runs of input; unlike every other stage, the lexer never
// stops at the first failure.
type LexErrors []diag.LexError

func (b LexErrors) Error() string {
	lines := make([]string, len(b))
	for i, e := range b {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// ConvertOptions configures the optional parts of the pipeline that have
// no effect on spec.md-level behaviour. Its zero value reproduces
// today's default behaviour exactly: unquoted identifiers, chosen by
// Emit rather than Convert (the merge-or-wrap decisions Convert makes
// never depend on the target dialect).
type ConvertOptions struct {
	Dialect sqlemit.Dialect
}

// Convert runs the merge-or-wrap translator over query, producing one SQL
// SelectStatement. opts is accepted for symmetry with Emit and future
// dialect-sensitive merge rules; today Convert's output does not depend
// on it.
func Convert(src diag.Source, query ast.Query, opts ...ConvertOptions) (sqlast.SelectStatement, error) {
	return converter.ConvertWithLog(src, query, Log)
}

// Emit pretty-prints stmt as SQL text. With no options this uses
// DialectNone, the dialect the reference CLI always uses since it
// exposes no flag to select one; library callers that know their
// downstream engine may pass a ConvertOptions to opt into dialect-aware
// identifier quoting.
func Emit(stmt *sqlast.SelectStatement, opts ...ConvertOptions) (string, error) {
	dialect := sqlemit.DialectNone
	if len(opts) > 0 {
		dialect = opts[0].Dialect
	}
	return sqlemit.Emit(stmt, dialect)
}

func renderError(src diag.Source, err error) error {
	if batch, ok := err.(LexErrors); ok {
		rendered := make([]string, len(batch))
		for i, e := range batch {
			rendered[i] = diag.Render(src, e.Span, e.Error())
		}
		return fmt.Errorf("%s", strings.Join(rendered, "\n\n"))
	}

	switch e := err.(type) {
	case diag.ParseError:
		return fmt.Errorf("%s", diag.Render(src, e.Span, e.Error()))
	case diag.ConverterError:
		return fmt.Errorf("%s", diag.Render(src, e.Span, e.Error()))
	default:
		return err
	}
}
