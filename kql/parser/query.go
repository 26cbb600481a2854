package parser

import (
	"github.com/singlestore-labs/okql/kql/ast"
	"github.com/singlestore-labs/okql/span"
	"github.com/singlestore-labs/okql/token"
)

func parseQuery(in *Input) (ast.Query, error) {
	table, err := parseTerm(in)
	if err != nil {
		return ast.Query{}, err
	}
	operators, err := parseOperators(in)
	if err != nil {
		return ast.Query{}, err
	}
	return ast.Query{Table: table, Operators: operators}, nil
}

func parseOperators(in *Input) ([]ast.OperatorEntry, error) {
	var operators []ast.OperatorEntry
	for !in.Done() {
		if _, err := in.AssertNext(token.Pipe, "'|' expected before tabular operator"); err != nil {
			return nil, err
		}
		entry, err := parseOperator(in)
		if err != nil {
			return nil, err
		}
		operators = append(operators, entry)
	}
	return operators, nil
}

func parseOperator(in *Input) (ast.OperatorEntry, error) {
	name, err := parseKebabTerm(in)
	if err != nil {
		return ast.OperatorEntry{}, err
	}

	if in.Log != nil {
		in.Log.WithField("operator", name.Value).Debug("dispatching tabular operator")
	}

	var op ast.TabularOperator
	switch name.Value {
	case "count":
		op = ast.CountOperator{}
	case "distinct":
		op, err = parseDistinct(in)
	case "extend":
		op, err = parseExtend(in)
	case "join":
		op, err = parseJoin(in)
	case "limit", "take":
		op, err = parseLimit(in)
	case "project":
		op, err = parseProject(in)
	case "sort", "order":
		op, err = parseSort(in)
	case "summarize":
		op, err = parseSummarize(in)
	case "top":
		op, err = parseTop(in)
	case "where":
		op, err = parseWhere(in)
	default:
		return ast.OperatorEntry{}, in.generalError("No tabular operator with this name")
	}
	if err != nil {
		return ast.OperatorEntry{}, err
	}

	return ast.OperatorEntry{Name: name, Operator: op}, nil
}

// parseKebabTerm assembles an operator name out of one Term followed by
// any number of "-"+Term pairs whose spans are strictly adjacent (no
// whitespace), so e.g. "left-outer" is one name but "left - outer" is not.
func parseKebabTerm(in *Input) (span.M[string], error) {
	first, err := parseTerm(in)
	if err != nil {
		return span.M[string]{}, err
	}
	name := first.Value
	sp := first.Span

	for !in.Done() {
		checkpoint := in.Checkpoint()
		hyphen, ok := in.NextIf(token.Sub)
		if !ok {
			break
		}
		term, err := parseTerm(in)
		if err != nil {
			return span.M[string]{}, err
		}
		if span.Precedes(sp, hyphen) && span.Precedes(hyphen, term.Span) {
			sp = span.Join(sp, term.Span)
			name = name + "-" + term.Value
		} else {
			in.Restore(checkpoint)
			break
		}
	}

	return span.NewM(name, sp), nil
}

func parseDistinct(in *Input) (ast.TabularOperator, error) {
	columns, err := parseColumns(in)
	if err != nil {
		return nil, err
	}
	return ast.DistinctOperator{Columns: columns}, nil
}

func parseColumns(in *Input) (ast.Columns, error) {
	if starSpan, ok := in.NextIf(token.Star); ok {
		return ast.WildcardColumns{Span: starSpan}, nil
	}

	first, err := parseTerm(in)
	if err != nil {
		return nil, err
	}
	names := []span.M[string]{first}
	for {
		if _, ok := in.NextIf(token.Comma); !ok {
			break
		}
		next, err := parseTerm(in)
		if err != nil {
			return nil, err
		}
		names = append(names, next)
	}
	return ast.ExplicitColumns{Names: names}, nil
}

// parseColumnDefinitions parses a comma-separated list of "name" or
// "name = expr" definitions. An empty list is permitted when the operator
// is immediately followed by the next pipe or end of input.
func parseColumnDefinitions(in *Input) ([]ast.ColumnDefinition, error) {
	if in.Done() {
		return nil, nil
	}
	if next, err := in.Peek(); err == nil && next.Kind == token.Pipe {
		return nil, nil
	}

	var defs []ast.ColumnDefinition
	for {
		def, err := parseColumnDefinition(in)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
		if _, ok := in.NextIf(token.Comma); !ok {
			break
		}
	}
	return defs, nil
}

func parseColumnDefinition(in *Input) (ast.ColumnDefinition, error) {
	name, err := parseTerm(in)
	if err != nil {
		return ast.ColumnDefinition{}, err
	}
	if _, ok := in.NextIf(token.Assign); ok {
		expr, err := parseExpression(in)
		if err != nil {
			return ast.ColumnDefinition{}, err
		}
		return ast.ColumnDefinition{Column: name, Expr: &expr}, nil
	}
	return ast.ColumnDefinition{Column: name}, nil
}

func parseExtend(in *Input) (ast.TabularOperator, error) {
	var cols []ast.ColumnAssignment
	for {
		name, err := parseTerm(in)
		if err != nil {
			return nil, err
		}
		if _, err := in.AssertNext(token.Assign, "'=' expected in extend column assignment"); err != nil {
			return nil, err
		}
		expr, err := parseExpression(in)
		if err != nil {
			return nil, err
		}
		cols = append(cols, ast.ColumnAssignment{Column: name, Expr: expr})
		if _, ok := in.NextIf(token.Comma); !ok {
			break
		}
	}
	return ast.ExtendOperator{Columns: cols}, nil
}

var joinKinds = map[string]ast.JoinKind{
	"innerunique": ast.InnerUnique,
	"inner":       ast.Inner,
	"leftouter":   ast.LeftOuter,
	"rightouter":  ast.RightOuter,
	"fullouter":   ast.FullOuter,
	"leftanti":    ast.LeftAnti,
	"leftantisemi": ast.LeftAnti,
	"anti":        ast.LeftAnti,
	"rightanti":   ast.RightAnti,
	"rightantisemi": ast.RightAnti,
	"leftsemi":    ast.LeftSemi,
	"rightsemi":   ast.RightSemi,
}

func parseJoin(in *Input) (ast.TabularOperator, error) {
	params := ast.JoinParams{}

	checkpoint := in.Checkpoint()
	if kindTerm, err := parseKebabTerm(in); err == nil {
		if kind, ok := joinKinds[kindTerm.Value]; ok {
			params.Kind, params.HasKind = kind, true
		} else {
			in.Restore(checkpoint)
		}
	} else {
		in.Restore(checkpoint)
	}

	if _, err := in.AssertNext(token.LParen, "'(' expected to start joined table"); err != nil {
		return nil, err
	}
	// The joined query ends at ")", so its operators are read only while a
	// "|" follows.
	table, err := parseTerm(in)
	if err != nil {
		return nil, err
	}
	rightTable := ast.Query{Table: table}
	for _, ok := in.NextIf(token.Pipe); ok; _, ok = in.NextIf(token.Pipe) {
		entry, err := parseOperator(in)
		if err != nil {
			return nil, err
		}
		rightTable.Operators = append(rightTable.Operators, entry)
	}
	if _, err := in.AssertNext(token.RParen, "')' expected to close joined table"); err != nil {
		return nil, err
	}

	var attrs []ast.JoinAttribute
	for {
		attr, err := parseJoinAttribute(in)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
		if _, ok := in.NextIf(token.Comma); !ok {
			break
		}
	}

	return ast.JoinOperator{Params: params, RightTable: &rightTable, Attributes: attrs}, nil
}

func parseJoinAttribute(in *Input) (ast.JoinAttribute, error) {
	checkpoint := in.Checkpoint()

	leftTok, err := in.Next()
	if err == nil && leftTok.Kind == token.DollarTerm {
		leftKwd := leftTok.Span
		if _, err := in.AssertNext(token.Dot, "'.' expected after '$left'/'$right'"); err == nil {
			leftName, err := parseTerm(in)
			if err == nil {
				if _, err := in.AssertNext(token.EQ, "'==' expected in join attribute"); err == nil {
					rightTok, err := in.Next()
					if err == nil && rightTok.Kind == token.DollarTerm {
						rightKwd := rightTok.Span
						if _, err := in.AssertNext(token.Dot, "'.' expected after '$left'/'$right'"); err == nil {
							rightName, err := parseTerm(in)
							if err == nil {
								return ast.NonMatchingAttribute{
									LeftKwd: leftKwd, LeftName: leftName,
									RightKwd: rightKwd, RightName: rightName,
								}, nil
							}
						}
					}
				}
			}
		}
	}

	in.Restore(checkpoint)
	name, err := parseTerm(in)
	if err != nil {
		return nil, err
	}
	return ast.MatchingAttribute{Name: name}, nil
}

func parseLimit(in *Input) (ast.TabularOperator, error) {
	t, err := in.Next()
	if err != nil {
		return nil, err
	}
	var amount int64
	switch t.Kind {
	case token.IntLiteral:
		amount = int64(t.Value.(int32))
	case token.LongLiteral:
		amount = t.Value.(int64)
	default:
		return nil, in.unexpectedToken("Expected number literal for limit argument")
	}
	return ast.LimitOperator{Limit: span.NewM(amount, t.Span)}, nil
}

func parseProject(in *Input) (ast.TabularOperator, error) {
	cols, err := parseColumnDefinitions(in)
	if err != nil {
		return nil, err
	}
	return ast.ProjectOperator{Columns: cols}, nil
}

// parseSortings parses a comma-separated list of sort specifications:
// expr, optional asc/desc, optional "nulls first"/"nulls last". The
// optional clauses use checkpoints so an operator boundary (the next "|")
// is never consumed speculatively.
func parseSortings(in *Input) ([]ast.Sorting, error) {
	var sortings []ast.Sorting
	for {
		expr, err := parseExpression(in)
		if err != nil {
			return nil, err
		}
		sorting := ast.Sorting{Expr: expr}

		checkpoint := in.Checkpoint()
		if sp, ok := in.NextIfTermText("asc"); ok {
			order := span.NewM(ast.Ascending, sp)
			sorting.Order = &order
		} else if sp, ok := in.NextIfTermText("desc"); ok {
			order := span.NewM(ast.Descending, sp)
			sorting.Order = &order
		} else {
			in.Restore(checkpoint)
		}

		checkpoint = in.Checkpoint()
		if nullsKwd, ok := in.NextIfTermText("nulls"); ok {
			if sp, ok := in.NextIfTermText("first"); ok {
				nulls := span.NewM(ast.NullsFirst, sp)
				sorting.NullsKwd, sorting.Nulls = &nullsKwd, &nulls
			} else if sp, ok := in.NextIfTermText("last"); ok {
				nulls := span.NewM(ast.NullsLast, sp)
				sorting.NullsKwd, sorting.Nulls = &nullsKwd, &nulls
			} else {
				in.Restore(checkpoint)
			}
		} else {
			in.Restore(checkpoint)
		}

		sortings = append(sortings, sorting)
		if _, ok := in.NextIf(token.Comma); !ok {
			break
		}
	}
	return sortings, nil
}

func parseSort(in *Input) (ast.TabularOperator, error) {
	byKwd, ok := in.NextIfTermText("by")
	if !ok {
		return nil, in.unexpectedToken("Expected 'by' keyword")
	}
	sortings, err := parseSortings(in)
	if err != nil {
		return nil, err
	}
	return ast.SortOperator{ByKwd: byKwd, Sortings: sortings}, nil
}

func parseSummarize(in *Input) (ast.TabularOperator, error) {
	var resultCols []ast.ColumnDefinition
	for {
		def, err := parseColumnDefinition(in)
		if err != nil {
			return nil, err
		}
		resultCols = append(resultCols, def)
		if _, ok := in.NextIf(token.Comma); !ok {
			break
		}
	}

	byKwd, ok := in.NextIfTermText("by")
	if !ok {
		return nil, in.unexpectedToken("Expected 'by' keyword")
	}

	var groupingCols []ast.ColumnDefinition
	for {
		def, err := parseColumnDefinition(in)
		if err != nil {
			return nil, err
		}
		groupingCols = append(groupingCols, def)
		if _, ok := in.NextIf(token.Comma); !ok {
			break
		}
	}

	return ast.SummarizeOperator{ResultColumns: resultCols, ByKwd: byKwd, GroupingColumns: groupingCols}, nil
}

func parseTop(in *Input) (ast.TabularOperator, error) {
	limitOp, err := parseLimit(in)
	if err != nil {
		return nil, err
	}
	byKwd, ok := in.NextIfTermText("by")
	if !ok {
		return nil, in.unexpectedToken("Expected 'by' keyword")
	}
	sortings, err := parseSortings(in)
	if err != nil {
		return nil, err
	}
	return ast.TopOperator{Limit: limitOp.(ast.LimitOperator).Limit, ByKwd: byKwd, Sortings: sortings}, nil
}

func parseWhere(in *Input) (ast.TabularOperator, error) {
	expr, err := parseExpression(in)
	if err != nil {
		return nil, err
	}
	return ast.WhereOperator{Expr: expr}, nil
}
