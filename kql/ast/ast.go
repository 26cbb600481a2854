// Package ast defines the KQL abstract syntax tree produced by the parser.
//
// Each tagged union from the source grammar (TabularOperator, Expression,
// Literal, Columns, JoinAttribute) is represented as a marker interface
// with one concrete struct per variant, dispatched with a type switch --
// the idiomatic Go analogue of a Rust enum.
package ast

import (
	"github.com/singlestore-labs/okql/span"
)

// Query is a base table name followed by a pipeline of tabular operators.
type Query struct {
	// Table is the base table value to start with.
	Table span.M[string]
	// Operators applies, in order. Each entry pairs the surface operator
	// name (which may be an alias, e.g. "take" for Limit) with its parsed
	// form.
	Operators []OperatorEntry
}

// OperatorEntry pairs a tabular operator's surface name with its parsed
// node.
type OperatorEntry struct {
	Name     span.M[string]
	Operator TabularOperator
}

// TabularOperator is implemented by every tabular-operator AST node.
type TabularOperator interface {
	kqlTabularOperator()
}

type CountOperator struct{}

func (CountOperator) kqlTabularOperator() {}

type DistinctOperator struct {
	Columns Columns
}

func (DistinctOperator) kqlTabularOperator() {}

type ExtendOperator struct {
	Columns []ColumnAssignment
}

func (ExtendOperator) kqlTabularOperator() {}

// ColumnAssignment is a "name = expr" pair, used by Extend.
type ColumnAssignment struct {
	Column span.M[string]
	Expr   span.MBox[Expression]
}

type JoinOperator struct {
	Params     JoinParams
	RightTable *Query
	Attributes []JoinAttribute
}

func (JoinOperator) kqlTabularOperator() {}

// JoinParams holds the optional join kind term.
type JoinParams struct {
	Kind   JoinKind
	HasKind bool
}

// JoinKind enumerates the Kusto join kinds.
type JoinKind int

const (
	InnerUnique JoinKind = iota + 1
	Inner
	LeftOuter
	RightOuter
	FullOuter
	LeftAnti
	RightAnti
	LeftSemi
	RightSemi
)

// JoinAttribute is implemented by Matching and NonMatching.
type JoinAttribute interface {
	kqlJoinAttribute()
}

type MatchingAttribute struct {
	Name span.M[string]
}

func (MatchingAttribute) kqlJoinAttribute() {}

type NonMatchingAttribute struct {
	LeftKwd   span.Span
	LeftName  span.M[string]
	RightKwd  span.Span
	RightName span.M[string]
}

func (NonMatchingAttribute) kqlJoinAttribute() {}

type LimitOperator struct {
	Limit span.M[int64]
}

func (LimitOperator) kqlTabularOperator() {}

type ProjectOperator struct {
	Columns []ColumnDefinition
}

func (ProjectOperator) kqlTabularOperator() {}

// ColumnDefinition is "name" or "name = expr", used by Project and by both
// of Summarize's column lists.
type ColumnDefinition struct {
	Column span.M[string]
	Expr   *span.MBox[Expression] // nil when the column has no expression
}

type SortOrder int

const (
	Ascending SortOrder = iota + 1
	Descending
)

type NullsPosition int

const (
	NullsFirst NullsPosition = iota + 1
	NullsLast
)

// Sorting is one column of a sort/order by clause.
type Sorting struct {
	Expr       span.MBox[Expression]
	Order      *span.M[SortOrder]
	NullsKwd   *span.Span
	Nulls      *span.M[NullsPosition]
}

type SortOperator struct {
	ByKwd    span.Span
	Sortings []Sorting
}

func (SortOperator) kqlTabularOperator() {}

type SummarizeOperator struct {
	ResultColumns    []ColumnDefinition
	ByKwd            span.Span
	GroupingColumns  []ColumnDefinition
}

func (SummarizeOperator) kqlTabularOperator() {}

type TopOperator struct {
	Limit    span.M[int64]
	ByKwd    span.Span
	Sortings []Sorting
}

func (TopOperator) kqlTabularOperator() {}

type WhereOperator struct {
	Expr span.MBox[Expression]
}

func (WhereOperator) kqlTabularOperator() {}

// Columns is either a wildcard or an explicit column-name list, used by
// Distinct.
type Columns interface {
	kqlColumns()
}

type WildcardColumns struct {
	Span span.Span
}

func (WildcardColumns) kqlColumns() {}

type ExplicitColumns struct {
	Names []span.M[string]
}

func (ExplicitColumns) kqlColumns() {}

// Expression is implemented by every scalar-expression AST node.
type Expression interface {
	kqlExpression()
}

type IdentifierExpr struct {
	Name span.M[string]
}

func (IdentifierExpr) kqlExpression() {}

type FuncCallExpr struct {
	Name          span.M[string]
	OpenParenSym  span.Span
	Args          []span.MBox[Expression]
	CloseParenSym span.Span
}

func (FuncCallExpr) kqlExpression() {}

type BinaryOp int

const (
	OpAdd BinaryOp = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLT
	OpGT
	OpEQ
	OpNEQ
	OpLTE
	OpGTE
	OpLogicalAnd
	OpLogicalOr
)

type BinaryOpExpr struct {
	Left  span.MBox[Expression]
	Op    span.M[BinaryOp]
	Right span.MBox[Expression]
}

func (BinaryOpExpr) kqlExpression() {}

// LiteralExpr wraps a Literal value.
type LiteralExpr struct {
	Value Literal
}

func (LiteralExpr) kqlExpression() {}

// Literal is implemented by each of the KQL literal kinds; every variant
// but String carries a nullable payload (Null==true means the literal was
// an explicit typed null like "int(null)").
type Literal interface {
	kqlLiteral()
}

type BoolLiteral struct {
	Value bool
	Null  bool
}

func (BoolLiteral) kqlLiteral() {}

type IntLiteral struct {
	Value int32
	Null  bool
}

func (IntLiteral) kqlLiteral() {}

type LongLiteral struct {
	Value int64
	Null  bool
}

func (LongLiteral) kqlLiteral() {}

type RealLiteral struct {
	Value float64
	Null  bool
}

func (RealLiteral) kqlLiteral() {}

type StringLiteral struct {
	Value string
}

func (StringLiteral) kqlLiteral() {}
