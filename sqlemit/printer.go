// Package sqlemit pretty-prints a sqlast.SelectStatement to SQL text.
package sqlemit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/singlestore-labs/okql/diag"
	"github.com/singlestore-labs/okql/sqlast"
)

// Emit pretty-prints stmt under dialect d. Its only possible failure is an
// underlying write failure, so errors are always the generic EmitError.
func Emit(stmt *sqlast.SelectStatement, d Dialect) (string, error) {
	p := &printer{dialect: d}
	if err := p.printQuery(stmt); err != nil {
		return "", diag.EmitError{}
	}
	return p.output.String(), nil
}

// printer holds the accumulated output and current indent depth. Each
// top-level clause is one line; a nested subquery's FROM (...) indents its
// body by four spaces.
type printer struct {
	output  strings.Builder
	indent  int
	dialect Dialect
}

func (p *printer) pushIndent() {
	p.indent++
}

func (p *printer) popIndent() {
	if p.indent == 0 {
		panic("sqlemit: popIndent with indent already zero")
	}
	p.indent--
}

func (p *printer) endLine() {
	p.output.WriteByte('\n')
}

func (p *printer) startLine() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("    ")
	}
}

func (p *printer) printQuery(stmt *sqlast.SelectStatement) error {
	p.printSelect(stmt.Modifier, stmt.Select)
	p.printFrom(stmt.From)
	if stmt.Where != nil {
		p.printWhere(stmt.Where)
	}
	if stmt.OrderBy != nil {
		p.printOrderBy(stmt.OrderBy)
	}
	if stmt.Limit != nil {
		p.printLimit(*stmt.Limit)
	}
	return nil
}

func (p *printer) printSelect(modifier sqlast.Modifier, list sqlast.SelectList) {
	p.startLine()
	switch modifier {
	case sqlast.ModifierDistinct:
		p.output.WriteString("SELECT DISTINCT ")
	case sqlast.ModifierAll:
		p.output.WriteString("SELECT ALL ")
	default:
		p.output.WriteString("SELECT ")
	}

	wroteAny := false
	if list.Wildcard {
		p.output.WriteByte('*')
		wroteAny = true
	}
	for _, col := range list.Columns {
		if wroteAny {
			p.output.WriteString(", ")
		}
		p.printValExpr(col.Value)
		if col.Alias != nil {
			fmt.Fprintf(&p.output, " as %s", QuoteIdentifier(p.dialect, *col.Alias))
		}
		wroteAny = true
	}
	p.endLine()
}

func (p *printer) printFrom(ref sqlast.TableReference) {
	switch t := ref.(type) {
	case sqlast.TableName:
		p.startLine()
		fmt.Fprintf(&p.output, "FROM %s", QuoteIdentifier(p.dialect, t.Name))
		p.endLine()
	case sqlast.InnerStatement:
		p.startLine()
		p.output.WriteString("FROM (")
		p.endLine()

		p.pushIndent()
		_ = p.printQuery(t.Value)
		p.popIndent()

		p.startLine()
		p.output.WriteByte(')')
		p.endLine()
	}
}

func (p *printer) printWhere(cond sqlast.SearchCondition) {
	p.startLine()
	p.output.WriteString("WHERE ")
	p.printSearchCondition(cond)
	p.endLine()
}

func (p *printer) printSearchCondition(cond sqlast.SearchCondition) {
	switch c := cond.(type) {
	case sqlast.BoolExpr:
		p.printSearchCondition(c.Left)
		switch c.Op {
		case sqlast.And:
			p.output.WriteString(" AND ")
		case sqlast.Or:
			p.output.WriteString(" OR ")
		}
		p.printSearchCondition(c.Right)
	case sqlast.ComparisonExpr:
		p.printValExpr(c.Left)
		p.output.WriteString(" " + comparisonOperatorText(c.Op) + " ")
		p.printValExpr(c.Right)
	}
}

func comparisonOperatorText(op sqlast.ComparisonOperator) string {
	switch op {
	case sqlast.CmpLT:
		return "<"
	case sqlast.CmpGT:
		return ">"
	case sqlast.CmpLTE:
		return "<="
	case sqlast.CmpGTE:
		return ">="
	case sqlast.CmpEQ:
		return "="
	case sqlast.CmpNEQ:
		return "<>"
	default:
		return "?"
	}
}

func (p *printer) printOrderBy(clause *sqlast.OrderByClause) {
	p.startLine()
	p.output.WriteString("ORDER BY ")
	for i, spec := range clause.Specs {
		if i > 0 {
			p.output.WriteString(", ")
		}
		p.output.WriteString(QuoteIdentifier(p.dialect, spec.ColumnName))
		if spec.Order == sqlast.Descending {
			p.output.WriteString(" DESC")
		} else {
			p.output.WriteString(" ASC")
		}
	}
	p.endLine()
}

func (p *printer) printLimit(n int64) {
	p.startLine()
	fmt.Fprintf(&p.output, "LIMIT %d", n)
	p.endLine()
}

func (p *printer) printValExpr(expr sqlast.ValueExpression) {
	switch v := expr.(type) {
	case sqlast.Column:
		p.output.WriteString(QuoteIdentifier(p.dialect, v.Name))
	case sqlast.FuncCall:
		fmt.Fprintf(&p.output, "%s(", v.Name)
		for i, arg := range v.Args {
			if i > 0 {
				p.output.WriteString(", ")
			}
			p.printValExpr(arg)
		}
		p.output.WriteByte(')')
	case sqlast.ArithmeticExpr:
		p.printValExpr(v.Left)
		fmt.Fprintf(&p.output, " %s ", v.Op)
		p.printValExpr(v.Right)
	case sqlast.Literal:
		p.printLiteral(v.Value)
	}
}

// printLiteral renders a literal's decimal representation. Strings render
// without quoting: the emitter trusts upstream sanitisation (see the
// design notes on this open question).
func (p *printer) printLiteral(v sqlast.Value) {
	switch lit := v.(type) {
	case sqlast.BoolValue:
		if lit.Null {
			p.output.WriteString("NULL")
		} else if lit.Value {
			p.output.WriteString("TRUE")
		} else {
			p.output.WriteString("FALSE")
		}
	case sqlast.IntegerValue:
		if lit.Null {
			p.output.WriteString("NULL")
		} else {
			p.output.WriteString(strconv.FormatInt(lit.Value, 10))
		}
	case sqlast.RealValue:
		if lit.Null {
			p.output.WriteString("NULL")
		} else {
			p.output.WriteString(strconv.FormatFloat(lit.Value, 'g', -1, 64))
		}
	case sqlast.StringValue:
		p.output.WriteString(lit.Value)
	}
}
