package parser

import (
	"github.com/singlestore-labs/okql/kql/ast"
	"github.com/singlestore-labs/okql/span"
	"github.com/singlestore-labs/okql/token"
)

// parseExpression parses one expression via Pratt parsing, starting with
// the lowest possible binding power.
func parseExpression(in *Input) (span.MBox[ast.Expression], error) {
	return prattParse(in, 0)
}

// prattParse is the Pratt (operator-precedence) loop. See
// https://matklad.github.io/2020/04/13/simple-but-powerful-pratt-parsing.html
// for the algorithm this follows. The binding-power table is the single
// source of truth for precedence and associativity; it is not derived
// from any other grammar rule.
func prattParse(in *Input, minBP uint8) (span.MBox[ast.Expression], error) {
	lhs, err := parseLeaf(in)
	if err != nil {
		return span.MBox[ast.Expression]{}, err
	}

	for {
		checkpoint := in.Checkpoint()
		op, ok := tryParseBinOp(in)
		if !ok {
			break
		}

		lBP, rBP := infixBindingPower(op.Value)
		if lBP < minBP {
			in.Restore(checkpoint)
			break
		}

		rhs, err := prattParse(in, rBP)
		if err != nil {
			return span.MBox[ast.Expression]{}, err
		}

		newRoot := ast.BinaryOpExpr{Left: lhs, Op: op, Right: rhs}
		lhs = span.NewMBoxRange[ast.Expression](newRoot, lhs.Span, rhs.Span)
	}

	return lhs, nil
}

func parseLeaf(in *Input) (span.MBox[ast.Expression], error) {
	checkpoint := in.Checkpoint()

	if value, err := parseParenthetical(in); err == nil {
		return value, nil
	}
	in.Restore(checkpoint)

	if lit, err := parseLiteral(in); err == nil {
		return span.NewMBox[ast.Expression](ast.LiteralExpr{Value: lit.Value}, lit.Span), nil
	}
	in.Restore(checkpoint)

	if term, err := parseTerm(in); err == nil {
		if openParen, ok := in.NextIf(token.LParen); ok {
			var args []span.MBox[ast.Expression]
			// "count()" and similar zero-arg aggregate calls are common
			// enough in practice to special-case here, unlike a strict
			// reading of the reference grammar.
			if _, isClose := in.NextIf(token.RParen); isClose {
				closeParen := in.lastSpan()
				return span.NewMBoxRange[ast.Expression](
					ast.FuncCallExpr{Name: term, OpenParenSym: openParen, Args: args, CloseParenSym: closeParen},
					term.Span, closeParen,
				), nil
			}
			arg, err := parseExpression(in)
			if err != nil {
				return span.MBox[ast.Expression]{}, err
			}
			args = append(args, arg)
			for {
				if _, ok := in.NextIf(token.Comma); !ok {
					break
				}
				arg, err := parseExpression(in)
				if err != nil {
					return span.MBox[ast.Expression]{}, err
				}
				args = append(args, arg)
			}
			closeParen, err := in.AssertNext(token.RParen, "No closing parenthesis for function call")
			if err != nil {
				return span.MBox[ast.Expression]{}, err
			}
			return span.NewMBoxRange[ast.Expression](
				ast.FuncCallExpr{Name: term, OpenParenSym: openParen, Args: args, CloseParenSym: closeParen},
				term.Span, closeParen,
			), nil
		}
		return span.NewMBox[ast.Expression](ast.IdentifierExpr{Name: term}, term.Span), nil
	}
	in.Restore(checkpoint)

	// Advance so the error is generated on the offending token.
	_, _ = in.Next()
	return span.MBox[ast.Expression]{}, in.unexpectedToken("Parse Leaf")
}

func parseParenthetical(in *Input) (span.MBox[ast.Expression], error) {
	if _, err := in.AssertNext(token.LParen, "Left parenthesis '('"); err != nil {
		return span.MBox[ast.Expression]{}, err
	}
	inner, err := parseExpression(in)
	if err != nil {
		return span.MBox[ast.Expression]{}, err
	}
	if _, err := in.AssertNext(token.RParen, "Right parenthesis ')'"); err != nil {
		return span.MBox[ast.Expression]{}, err
	}
	return inner, nil
}

func parseLiteral(in *Input) (span.M[ast.Literal], error) {
	next, err := in.Next()
	if err != nil {
		return span.M[ast.Literal]{}, err
	}

	var value ast.Literal
	switch next.Kind {
	case token.BoolLiteral:
		value = ast.BoolLiteral{Value: next.Value.(bool)}
	case token.BoolNullLiteral:
		value = ast.BoolLiteral{Null: true}
	case token.IntLiteral:
		value = ast.IntLiteral{Value: next.Value.(int32)}
	case token.IntNullLiteral:
		value = ast.IntLiteral{Null: true}
	case token.LongLiteral:
		value = ast.LongLiteral{Value: next.Value.(int64)}
	case token.LongNullLiteral:
		value = ast.LongLiteral{Null: true}
	case token.RealLiteral:
		value = ast.RealLiteral{Value: next.Value.(float64)}
	case token.RealNullLiteral:
		value = ast.RealLiteral{Null: true}
	case token.StringLiteral:
		value = ast.StringLiteral{Value: next.Value.(string)}
	default:
		return span.M[ast.Literal]{}, in.unexpectedToken("Parse Literal")
	}

	return span.NewM(value, next.Span), nil
}

func tryParseBinOp(in *Input) (span.M[ast.BinaryOp], bool) {
	next, err := in.Peek()
	if err != nil {
		return span.M[ast.BinaryOp]{}, false
	}

	var op ast.BinaryOp
	switch next.Kind {
	case token.LogicalOr:
		op = ast.OpLogicalOr
	case token.LogicalAnd:
		op = ast.OpLogicalAnd
	case token.EQ:
		op = ast.OpEQ
	case token.NEQ:
		op = ast.OpNEQ
	case token.LT:
		op = ast.OpLT
	case token.LTE:
		op = ast.OpLTE
	case token.GT:
		op = ast.OpGT
	case token.GTE:
		op = ast.OpGTE
	case token.Add:
		op = ast.OpAdd
	case token.Sub:
		op = ast.OpSub
	case token.Star:
		op = ast.OpMul
	case token.Div:
		op = ast.OpDiv
	case token.Mod:
		op = ast.OpMod
	default:
		return span.M[ast.BinaryOp]{}, false
	}

	_, _ = in.Next()
	return span.NewM(op, next.Span), true
}

// infixBindingPower is the single source of truth for precedence and
// associativity; every operator but "or" is left-associative (l < r by
// exactly 1). "or" is given a small left binding power so a run of "or"s
// folds into a right-leaning tree instead.
func infixBindingPower(op ast.BinaryOp) (uint8, uint8) {
	switch op {
	case ast.OpLogicalOr:
		return 10, 1
	case ast.OpLogicalAnd:
		return 20, 21
	case ast.OpEQ, ast.OpNEQ:
		return 30, 31
	case ast.OpLT, ast.OpLTE, ast.OpGT, ast.OpGTE:
		return 40, 41
	case ast.OpAdd, ast.OpSub:
		return 50, 51
	case ast.OpMul, ast.OpDiv, ast.OpMod:
		return 60, 61
	default:
		panic("parser: infixBindingPower: unhandled operator")
	}
}
