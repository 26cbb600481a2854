package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singlestore-labs/okql/diag"
	"github.com/singlestore-labs/okql/kql/ast"
	"github.com/singlestore-labs/okql/kql/parser"
	"github.com/singlestore-labs/okql/lexer"
)

func mustParse(t *testing.T, text string) ast.Query {
	t.Helper()
	src := diag.Source{Name: "test", Text: text}
	tokens, errs := lexer.Tokenize(src, text)
	require.Empty(t, errs)
	q, err := parser.Parse(src, tokens)
	require.NoError(t, err)
	return q
}

func parseExprText(t *testing.T, text string) ast.Expression {
	t.Helper()
	q := mustParse(t, "Users | where "+text)
	require.Len(t, q.Operators, 1)
	where, ok := q.Operators[0].Operator.(ast.WhereOperator)
	require.True(t, ok)
	return *where.Expr.Value
}

func TestParseQueryTableOnly(t *testing.T) {
	q := mustParse(t, "Users")
	assert.Equal(t, "Users", q.Table.Value)
	assert.Empty(t, q.Operators)
}

func TestParsePrecedenceMulBindsTighterThanAdd(t *testing.T) {
	expr := parseExprText(t, "0 + 1 * 2")
	bin, ok := expr.(ast.BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op.Value)

	rightBin, ok := (*bin.Right.Value).(ast.BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, rightBin.Op.Value)
}

func TestParsePrecedenceMulThenAdd(t *testing.T) {
	expr := parseExprText(t, "0 * 1 + 2")
	bin, ok := expr.(ast.BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op.Value)

	leftBin, ok := (*bin.Left.Value).(ast.BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, leftBin.Op.Value)
}

func TestParseAssociativityAddIsLeftLeaning(t *testing.T) {
	expr := parseExprText(t, "0 + 1 + 2")
	bin, ok := expr.(ast.BinaryOpExpr)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, bin.Op.Value)

	// Left-associative: the left child is itself "0 + 1", not the right.
	_, leftIsBinary := (*bin.Left.Value).(ast.BinaryOpExpr)
	assert.True(t, leftIsBinary)
	_, rightIsLiteral := (*bin.Right.Value).(ast.LiteralExpr)
	assert.True(t, rightIsLiteral)
}

func TestParseIdentifierAndFuncCall(t *testing.T) {
	expr := parseExprText(t, "concat(First, Last)")
	call, ok := expr.(ast.FuncCallExpr)
	require.True(t, ok)
	assert.Equal(t, "concat", call.Name.Value)
	assert.Len(t, call.Args, 2)
}

func TestParseProjectWithoutExpr(t *testing.T) {
	q := mustParse(t, "Users | project Name, Age")
	require.Len(t, q.Operators, 1)
	proj, ok := q.Operators[0].Operator.(ast.ProjectOperator)
	require.True(t, ok)
	require.Len(t, proj.Columns, 2)
	assert.Equal(t, "Name", proj.Columns[0].Column.Value)
	assert.Nil(t, proj.Columns[0].Expr)
}

func TestParseProjectWithComputedColumn(t *testing.T) {
	q := mustParse(t, "Users | project Full = concat(First, Last)")
	proj := q.Operators[0].Operator.(ast.ProjectOperator)
	require.Len(t, proj.Columns, 1)
	assert.Equal(t, "Full", proj.Columns[0].Column.Value)
	require.NotNil(t, proj.Columns[0].Expr)
	_, isCall := (*proj.Columns[0].Expr.Value).(ast.FuncCallExpr)
	assert.True(t, isCall)
}

func TestParseEmptyProject(t *testing.T) {
	q := mustParse(t, "Users | project")
	proj := q.Operators[0].Operator.(ast.ProjectOperator)
	assert.Empty(t, proj.Columns)
}

func TestParseWhereThenLimit(t *testing.T) {
	q := mustParse(t, "Users | where Age > 18 | take 5")
	require.Len(t, q.Operators, 2)
	where := q.Operators[0].Operator.(ast.WhereOperator)
	cmp := (*where.Expr.Value).(ast.BinaryOpExpr)
	assert.Equal(t, ast.OpGT, cmp.Op.Value)

	limit := q.Operators[1].Operator.(ast.LimitOperator)
	assert.Equal(t, int64(5), limit.Limit.Value)
	assert.Equal(t, "take", q.Operators[1].Name.Value)
}

func TestParseDistinctWildcard(t *testing.T) {
	q := mustParse(t, "Users | distinct *")
	d := q.Operators[0].Operator.(ast.DistinctOperator)
	_, ok := d.Columns.(ast.WildcardColumns)
	assert.True(t, ok)
}

func TestParseDistinctExplicit(t *testing.T) {
	q := mustParse(t, "Users | distinct Name, Age")
	d := q.Operators[0].Operator.(ast.DistinctOperator)
	cols, ok := d.Columns.(ast.ExplicitColumns)
	require.True(t, ok)
	assert.Len(t, cols.Names, 2)
}

func TestParseSortWithAscDescAndNulls(t *testing.T) {
	q := mustParse(t, "Users | sort by Age desc nulls last, Name asc")
	sort := q.Operators[0].Operator.(ast.SortOperator)
	require.Len(t, sort.Sortings, 2)
	require.NotNil(t, sort.Sortings[0].Order)
	assert.Equal(t, ast.Descending, sort.Sortings[0].Order.Value)
	require.NotNil(t, sort.Sortings[0].Nulls)
	assert.Equal(t, ast.NullsLast, sort.Sortings[0].Nulls.Value)
	require.NotNil(t, sort.Sortings[1].Order)
	assert.Equal(t, ast.Ascending, sort.Sortings[1].Order.Value)
	assert.Nil(t, sort.Sortings[1].Nulls)
}

func TestParseOrderAliasKeepsSurfaceName(t *testing.T) {
	q := mustParse(t, "Users | order by Age")
	assert.Equal(t, "order", q.Operators[0].Name.Value)
}

func TestParseSummarize(t *testing.T) {
	q := mustParse(t, "Users | summarize Total = count() by Country")
	s := q.Operators[0].Operator.(ast.SummarizeOperator)
	require.Len(t, s.ResultColumns, 1)
	assert.Equal(t, "Total", s.ResultColumns[0].Column.Value)
	require.Len(t, s.GroupingColumns, 1)
	assert.Equal(t, "Country", s.GroupingColumns[0].Column.Value)
}

func TestParseTop(t *testing.T) {
	q := mustParse(t, "Users | top 5 by Age desc")
	top := q.Operators[0].Operator.(ast.TopOperator)
	assert.Equal(t, int64(5), top.Limit.Value)
	require.Len(t, top.Sortings, 1)
	require.NotNil(t, top.Sortings[0].Order)
	assert.Equal(t, ast.Descending, top.Sortings[0].Order.Value)
}

func TestParseJoinMatchingAttribute(t *testing.T) {
	q := mustParse(t, "Users | join (Orders) UserId")
	j := q.Operators[0].Operator.(ast.JoinOperator)
	require.Len(t, j.Attributes, 1)
	m, ok := j.Attributes[0].(ast.MatchingAttribute)
	require.True(t, ok)
	assert.Equal(t, "UserId", m.Name.Value)
	assert.Equal(t, "Orders", j.RightTable.Table.Value)
}

func TestParseJoinWithKindAndNonMatchingAttribute(t *testing.T) {
	q := mustParse(t, "Users | join leftouter (Orders) $left.Id == $right.UserId")
	j := q.Operators[0].Operator.(ast.JoinOperator)
	assert.True(t, j.Params.HasKind)
	assert.Equal(t, ast.LeftOuter, j.Params.Kind)
	require.Len(t, j.Attributes, 1)
	nm, ok := j.Attributes[0].(ast.NonMatchingAttribute)
	require.True(t, ok)
	assert.Equal(t, "Id", nm.LeftName.Value)
	assert.Equal(t, "UserId", nm.RightName.Value)
}

func TestParseMissingOperatorNameAfterPipeIsError(t *testing.T) {
	src := diag.Source{Name: "test", Text: "Users | "}
	tokens, errs := lexer.Tokenize(src, src.Text)
	require.Empty(t, errs)
	_, err := parser.Parse(src, tokens)
	assert.Error(t, err)
}

func TestParseUnknownOperatorNameIsError(t *testing.T) {
	src := diag.Source{Name: "test", Text: "Users | frobnicate"}
	tokens, errs := lexer.Tokenize(src, src.Text)
	require.Empty(t, errs)
	_, err := parser.Parse(src, tokens)
	assert.Error(t, err)
	var pe diag.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, diag.General, pe.Kind)
}
