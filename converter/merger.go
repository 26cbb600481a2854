// Package converter implements the merge-or-wrap translation from a KQL
// query's operator pipeline to a single SQL SelectStatement.
package converter

import (
	"github.com/sirupsen/logrus"

	"github.com/singlestore-labs/okql/diag"
	kast "github.com/singlestore-labs/okql/kql/ast"
	"github.com/singlestore-labs/okql/span"
	"github.com/singlestore-labs/okql/sqlast"
)

// Convert walks query's operators in order, producing one SQL
// SelectStatement. Each operator either mutates the current head in place
// or wraps it in an outer SELECT whose FROM is the old head -- whichever
// is needed to preserve the operator's semantics. The starting head is
// "SELECT * FROM <table>".
func Convert(src diag.Source, query kast.Query) (sqlast.SelectStatement, error) {
	return ConvertWithLog(src, query, nil)
}

// ConvertWithLog is Convert with an optional logrus logger for per-operator
// merge tracing, mirroring the parser's Input.Log hook.
func ConvertWithLog(src diag.Source, query kast.Query, log logrus.FieldLogger) (sqlast.SelectStatement, error) {
	m := &Merger{src: src, log: log}
	head := sqlast.Simple(query.Table.Value)

	for _, entry := range query.Operators {
		if m.log != nil {
			m.log.WithField("operator", entry.Name.Value).Debug("merging tabular operator")
		}
		next, err := m.mergeOperator(head, entry.Name, entry.Operator)
		if err != nil {
			return sqlast.SelectStatement{}, err
		}
		head = next
	}

	return head, nil
}

// Merger carries the state needed to decide, for each incoming operator,
// whether the current head can absorb it or must be wrapped.
type Merger struct {
	src     diag.Source
	columns columnsState
	log     logrus.FieldLogger
}

// columnsState describes what the current head's SELECT list looks like.
// The zero value is stateUnmodified: the head still exposes the original
// table's columns (wildcard).
type columnsState struct {
	kind     columnsKind
	limited  []string // stateLimited
	retained []string // stateModified: passthrough columns
	modified []string // stateModified: newly aliased computed columns
}

type columnsKind int

const (
	stateUnmodified columnsKind = iota
	stateLimited
	stateModified
)

func (m *Merger) mergeOperator(head sqlast.SelectStatement, name span.M[string], operator kast.TabularOperator) (sqlast.SelectStatement, error) {
	switch op := operator.(type) {
	case kast.ProjectOperator:
		return m.mergeProject(head, op)
	case kast.WhereOperator:
		return m.mergeWhere(head, op)
	case kast.LimitOperator:
		return m.mergeLimit(head, op)
	case kast.CountOperator, kast.DistinctOperator, kast.ExtendOperator,
		kast.JoinOperator, kast.SortOperator, kast.SummarizeOperator, kast.TopOperator:
		return sqlast.SelectStatement{}, m.notImplemented(name)
	default:
		return sqlast.SelectStatement{}, m.notImplemented(name)
	}
}

func (m *Merger) notImplemented(name span.M[string]) error {
	return diag.ConverterError{Kind: diag.NotImplemented, Source: m.src, Span: name.Span, Feature: name.Value}
}

func (m *Merger) mergeProject(head sqlast.SelectStatement, op kast.ProjectOperator) (sqlast.SelectStatement, error) {
	var retained, modified []string
	for _, col := range op.Columns {
		if col.Expr == nil {
			retained = append(retained, col.Column.Value)
		} else {
			modified = append(modified, col.Column.Value)
		}
	}
	newState := columnsState{kind: stateModified, retained: retained, modified: modified}

	newColumns := make([]sqlast.SelectColumn, len(op.Columns))
	for i, col := range op.Columns {
		sc, err := m.toSelectColumn(col)
		if err != nil {
			return sqlast.SelectStatement{}, err
		}
		newColumns[i] = sc
	}

	if m.columns.kind == stateUnmodified {
		head.Select.Wildcard = false
		head.Select.Columns = append(head.Select.Columns, newColumns...)
		m.columns = newState
		return head, nil
	}

	m.columns = newState
	newHead := sqlast.SelectStatement{
		Select: sqlast.SelectList{Wildcard: false, Columns: newColumns},
		From:   sqlast.InnerStatement{Value: &head},
	}
	return newHead, nil
}

func (m *Merger) mergeWhere(head sqlast.SelectStatement, op kast.WhereOperator) (sqlast.SelectStatement, error) {
	cond, err := m.toSearchCondition(op.Expr)
	if err != nil {
		return sqlast.SelectStatement{}, err
	}

	needsWrap := head.Where != nil
	if !needsWrap && m.columns.kind == stateModified {
		needsWrap = sqlast.ConditionDependsOnAny(cond, m.columns.modified)
	}

	if needsWrap {
		m.columns = columnsState{}
		head = sqlast.SimpleWrapping(head)
	}

	head.Where = &cond
	return head, nil
}

func (m *Merger) mergeLimit(head sqlast.SelectStatement, op kast.LimitOperator) (sqlast.SelectStatement, error) {
	if head.Limit != nil {
		m.columns = columnsState{}
		head = sqlast.SimpleWrapping(head)
	}
	limit := op.Limit.Value
	head.Limit = &limit
	return head, nil
}

func (m *Merger) toSelectColumn(col kast.ColumnDefinition) (sqlast.SelectColumn, error) {
	if col.Expr == nil {
		return sqlast.SelectColumn{Value: sqlast.Column{Name: col.Column.Value}}, nil
	}
	value, err := m.ToValueExpression(*col.Expr)
	if err != nil {
		return sqlast.SelectColumn{}, err
	}
	alias := col.Column.Value
	return sqlast.SelectColumn{Value: value, Alias: &alias}, nil
}

// ToValueExpression translates a KQL scalar expression into a SQL value
// expression. Logical and comparison operators have no meaning as a value
// (only as a condition), so they are rejected here as NotImplemented; "%"
// has no SQL arithmetic mapping defined yet and is rejected the same way.
func (m *Merger) ToValueExpression(expr span.MBox[kast.Expression]) (sqlast.ValueExpression, error) {
	switch e := (*expr.Value).(type) {
	case kast.IdentifierExpr:
		return sqlast.Column{Name: e.Name.Value}, nil

	case kast.FuncCallExpr:
		args := make([]sqlast.ValueExpression, len(e.Args))
		for i, arg := range e.Args {
			v, err := m.ToValueExpression(arg)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return sqlast.FuncCall{Name: e.Name.Value, Args: args}, nil

	case kast.BinaryOpExpr:
		switch e.Op.Value {
		case kast.OpAdd, kast.OpSub, kast.OpMul, kast.OpDiv:
			left, err := m.ToValueExpression(e.Left)
			if err != nil {
				return nil, err
			}
			right, err := m.ToValueExpression(e.Right)
			if err != nil {
				return nil, err
			}
			return sqlast.ArithmeticExpr{Left: left, Op: arithOp(e.Op.Value), Right: right}, nil
		default:
			return nil, diag.ConverterError{Kind: diag.NotImplemented, Source: m.src, Span: expr.Span, Feature: "this operator in a value expression"}
		}

	case kast.LiteralExpr:
		return sqlast.Literal{Value: toLiteralValue(e.Value)}, nil

	default:
		return nil, diag.ConverterError{Kind: diag.NotImplemented, Source: m.src, Span: expr.Span, Feature: "this expression shape"}
	}
}

func arithOp(op kast.BinaryOp) sqlast.ArithmeticOperator {
	switch op {
	case kast.OpAdd:
		return sqlast.ArithAdd
	case kast.OpSub:
		return sqlast.ArithSub
	case kast.OpMul:
		return sqlast.ArithMul
	case kast.OpDiv:
		return sqlast.ArithDiv
	default:
		panic("converter: arithOp: not an arithmetic operator")
	}
}

func toLiteralValue(lit kast.Literal) sqlast.Value {
	switch l := lit.(type) {
	case kast.BoolLiteral:
		return sqlast.BoolValue{Value: l.Value, Null: l.Null}
	case kast.IntLiteral:
		return sqlast.IntegerValue{Value: int64(l.Value), Null: l.Null}
	case kast.LongLiteral:
		return sqlast.IntegerValue{Value: l.Value, Null: l.Null}
	case kast.RealLiteral:
		return sqlast.RealValue{Value: l.Value, Null: l.Null}
	case kast.StringLiteral:
		return sqlast.StringValue{Value: l.Value}
	default:
		panic("converter: toLiteralValue: unhandled literal kind")
	}
}

// toSearchCondition translates a KQL scalar expression into a SQL boolean
// condition. Only "and"/"or" and the six comparison operators produce a
// condition; anything else is a value expression used where a condition
// was required.
func (m *Merger) toSearchCondition(expr span.MBox[kast.Expression]) (sqlast.SearchCondition, error) {
	switch e := (*expr.Value).(type) {
	case kast.IdentifierExpr, kast.FuncCallExpr, kast.LiteralExpr:
		return nil, diag.ConverterError{Kind: diag.ExpressionNotCondition, Source: m.src, Span: expr.Span}

	case kast.BinaryOpExpr:
		switch e.Op.Value {
		case kast.OpAdd, kast.OpSub, kast.OpMul, kast.OpDiv, kast.OpMod:
			return nil, diag.ConverterError{Kind: diag.ExpressionNotCondition, Source: m.src, Span: expr.Span}

		case kast.OpLogicalAnd, kast.OpLogicalOr:
			left, err := m.toSearchCondition(e.Left)
			if err != nil {
				return nil, err
			}
			right, err := m.toSearchCondition(e.Right)
			if err != nil {
				return nil, err
			}
			boolOp := sqlast.And
			if e.Op.Value == kast.OpLogicalOr {
				boolOp = sqlast.Or
			}
			return sqlast.BoolExpr{Left: left, Op: boolOp, Right: right}, nil

		case kast.OpLT, kast.OpGT, kast.OpEQ, kast.OpNEQ, kast.OpLTE, kast.OpGTE:
			left, err := m.ToValueExpression(e.Left)
			if err != nil {
				return nil, err
			}
			right, err := m.ToValueExpression(e.Right)
			if err != nil {
				return nil, err
			}
			return sqlast.ComparisonExpr{Left: left, Op: cmpOp(e.Op.Value), Right: right}, nil

		default:
			return nil, diag.ConverterError{Kind: diag.ExpressionNotCondition, Source: m.src, Span: expr.Span}
		}

	default:
		return nil, diag.ConverterError{Kind: diag.ExpressionNotCondition, Source: m.src, Span: expr.Span}
	}
}

func cmpOp(op kast.BinaryOp) sqlast.ComparisonOperator {
	switch op {
	case kast.OpLT:
		return sqlast.CmpLT
	case kast.OpGT:
		return sqlast.CmpGT
	case kast.OpEQ:
		return sqlast.CmpEQ
	case kast.OpNEQ:
		return sqlast.CmpNEQ
	case kast.OpLTE:
		return sqlast.CmpLTE
	case kast.OpGTE:
		return sqlast.CmpGTE
	default:
		panic("converter: cmpOp: not a comparison operator")
	}
}
