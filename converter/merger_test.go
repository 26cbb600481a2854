package converter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singlestore-labs/okql/converter"
	"github.com/singlestore-labs/okql/diag"
	kast "github.com/singlestore-labs/okql/kql/ast"
	"github.com/singlestore-labs/okql/sqlast"
	"github.com/singlestore-labs/okql/sqlemit"
	"github.com/singlestore-labs/okql/span"
)

func testSrc() diag.Source {
	return diag.Source{Name: "test", Text: "n/a"}
}

func m(s string) span.M[string] {
	return span.NewM(s, span.New(0, len(s)))
}

func ident(name string) span.MBox[kast.Expression] {
	return span.NewMBox[kast.Expression](kast.IdentifierExpr{Name: m(name)}, span.New(0, len(name)))
}

func intLit(n int32) span.MBox[kast.Expression] {
	return span.NewMBox[kast.Expression](kast.LiteralExpr{Value: kast.IntLiteral{Value: n}}, span.New(0, 1))
}

func binOp(left span.MBox[kast.Expression], op kast.BinaryOp, right span.MBox[kast.Expression]) span.MBox[kast.Expression] {
	return span.NewMBox[kast.Expression](kast.BinaryOpExpr{
		Left:  left,
		Op:    span.NewM(op, span.New(0, 1)),
		Right: right,
	}, span.New(0, 1))
}

func query(table string, ops ...kast.OperatorEntry) kast.Query {
	return kast.Query{Table: m(table), Operators: ops}
}

func op(name string, operator kast.TabularOperator) kast.OperatorEntry {
	return kast.OperatorEntry{Name: m(name), Operator: operator}
}

// Scenario 1: Users -> SELECT * FROM Users
func TestConvertEmptyPipeline(t *testing.T) {
	stmt, err := converter.Convert(testSrc(), query("Users"))
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM Users\n", out)
}

// Scenario 2: Users | project Name, Age
func TestConvertProjectRetainedColumns(t *testing.T) {
	q := query("Users", op("project", kast.ProjectOperator{Columns: []kast.ColumnDefinition{
		{Column: m("Name")},
		{Column: m("Age")},
	}}))
	stmt, err := converter.Convert(testSrc(), q)
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT Name, Age\nFROM Users\n", out)
}

// Scenario 3: Users | project Full = concat(First, Last)
func TestConvertProjectComputedColumn(t *testing.T) {
	expr := span.NewMBox[kast.Expression](kast.FuncCallExpr{
		Name: m("concat"),
		Args: []span.MBox[kast.Expression]{ident("First"), ident("Last")},
	}, span.New(0, 1))
	q := query("Users", op("project", kast.ProjectOperator{Columns: []kast.ColumnDefinition{
		{Column: m("Full"), Expr: &expr},
	}}))
	stmt, err := converter.Convert(testSrc(), q)
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT concat(First, Last) as Full\nFROM Users\n", out)
}

// Scenario 4: Users | where Age > 18
func TestConvertWhere(t *testing.T) {
	cond := binOp(ident("Age"), kast.OpGT, intLit(18))
	q := query("Users", op("where", kast.WhereOperator{Expr: cond}))
	stmt, err := converter.Convert(testSrc(), q)
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM Users\nWHERE Age > 18\n", out)
}

// Scenario 5: Users | project D = A + B | where D > 0 -- where references
// a newly modified column, so the head must wrap.
func TestConvertWhereWrapsWhenDependingOnModifiedColumn(t *testing.T) {
	dExpr := binOp(ident("A"), kast.OpAdd, ident("B"))
	projectOp := op("project", kast.ProjectOperator{Columns: []kast.ColumnDefinition{
		{Column: m("D"), Expr: &dExpr},
	}})
	whereOp := op("where", kast.WhereOperator{Expr: binOp(ident("D"), kast.OpGT, intLit(0))})
	q := query("Users", projectOp, whereOp)

	stmt, err := converter.Convert(testSrc(), q)
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM (\n    SELECT A + B as D\n    FROM Users\n)\nWHERE D > 0\n", out)
}

// Boundary: where references an original column untouched by project's
// modified set -- no wrap is needed.
func TestConvertWhereDoesNotWrapWhenIndependentOfModifiedColumn(t *testing.T) {
	dExpr := binOp(ident("A"), kast.OpAdd, ident("B"))
	projectOp := op("project", kast.ProjectOperator{Columns: []kast.ColumnDefinition{
		{Column: m("D"), Expr: &dExpr},
		{Column: m("Y")},
	}})
	whereOp := op("where", kast.WhereOperator{Expr: binOp(ident("Y"), kast.OpGT, intLit(0))})
	q := query("Users", projectOp, whereOp)

	stmt, err := converter.Convert(testSrc(), q)
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT A + B as D, Y\nFROM Users\nWHERE Y > 0\n", out)
}

// Scenario 6: Users | take 5 | take 3
func TestConvertNestedLimit(t *testing.T) {
	q := query("Users",
		op("take", kast.LimitOperator{Limit: span.NewM(int64(5), span.New(0, 1))}),
		op("take", kast.LimitOperator{Limit: span.NewM(int64(3), span.New(0, 1))}),
	)
	stmt, err := converter.Convert(testSrc(), q)
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM (\n    SELECT *\n    FROM Users\n    LIMIT 5\n)\nLIMIT 3\n", out)
}

func TestConvertSecondWhereWrapsOverExistingFilter(t *testing.T) {
	q := query("Users",
		op("where", kast.WhereOperator{Expr: binOp(ident("Age"), kast.OpGT, intLit(18))}),
		op("where", kast.WhereOperator{Expr: binOp(ident("Age"), kast.OpLT, intLit(65))}),
	)
	stmt, err := converter.Convert(testSrc(), q)
	require.NoError(t, err)
	out, err := sqlemit.Emit(&stmt, sqlemit.DialectNone)
	require.NoError(t, err)
	assert.Equal(t, "SELECT *\nFROM (\n    SELECT *\n    FROM Users\n    WHERE Age > 18\n)\nWHERE Age < 65\n", out)
}

func TestConvertNotImplementedOperatorsReturnConverterError(t *testing.T) {
	cases := []kast.OperatorEntry{
		op("count", kast.CountOperator{}),
		op("distinct", kast.DistinctOperator{Columns: kast.WildcardColumns{}}),
		op("extend", kast.ExtendOperator{}),
		op("sort", kast.SortOperator{}),
		op("summarize", kast.SummarizeOperator{}),
		op("top", kast.TopOperator{}),
		op("join", kast.JoinOperator{RightTable: &kast.Query{Table: m("Other")}}),
	}
	for _, entry := range cases {
		q := query("Users", entry)
		_, err := converter.Convert(testSrc(), q)
		var ce diag.ConverterError
		require.ErrorAsf(t, err, &ce, "operator %q", entry.Name.Value)
		assert.Equal(t, diag.NotImplemented, ce.Kind)
		assert.Equal(t, entry.Name.Value, ce.Feature)
	}
}

func TestConvertWhereOnNonBooleanExpressionIsExpressionNotCondition(t *testing.T) {
	q := query("Users", op("where", kast.WhereOperator{Expr: ident("Age")}))
	_, err := converter.Convert(testSrc(), q)
	var ce diag.ConverterError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, diag.ExpressionNotCondition, ce.Kind)
}

func TestToValueExpressionTranslatesArithmetic(t *testing.T) {
	mg := &converter.Merger{}
	expr := binOp(ident("A"), kast.OpAdd, ident("B"))
	val, err := mg.ToValueExpression(expr)
	require.NoError(t, err)
	arith, ok := val.(sqlast.ArithmeticExpr)
	require.True(t, ok)
	assert.Equal(t, sqlast.ArithAdd, arith.Op)
}

func TestToValueExpressionRejectsModulo(t *testing.T) {
	mg := &converter.Merger{}
	expr := binOp(ident("A"), kast.OpMod, ident("B"))
	_, err := mg.ToValueExpression(expr)
	require.Error(t, err)
}
