// Package token defines the lexical token kinds produced by the lexer.
package token

import "github.com/singlestore-labs/okql/span"

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// Error marks a span of input that did not match any token rule. The
	// lexer does not stop at the first Error token: it scans the whole
	// input and reports every Error span together as a batch.
	Error Kind = iota + 1

	// Term is an identifier-shaped word: a table, column, function or
	// keyword name (e.g. "summarize", "OrderNumber", "count").
	Term
	// BangTerm is a Term prefixed with "!" (e.g. "!between"), with the "!"
	// stripped from Value.
	BangTerm
	// DollarTerm is a Term prefixed with "$" (e.g. "$left"), with the "$"
	// stripped from Value. Used in join attributes: "$left.col == $right.col".
	DollarTerm

	BoolLiteral
	BoolNullLiteral

	IntLiteral
	IntNullLiteral

	LongLiteral
	LongNullLiteral

	RealLiteral
	RealNullLiteral

	StringLiteral

	// Pipe separates tabular operators: "|".
	Pipe
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Comma
	Dot
	// Assign is "=", used for column assignment in project/extend/summarize.
	Assign

	Add
	Sub
	Star
	Div
	Mod

	LogicalAnd
	LogicalOr

	LT
	LTE
	GT
	GTE
	EQ
	NEQ
)

var kindToDescription = map[Kind]string{
	Error: "Error",

	Term:       "Term",
	BangTerm:   "BangTerm",
	DollarTerm: "DollarTerm",

	BoolLiteral:     "BoolLiteral",
	BoolNullLiteral: "BoolNullLiteral",

	IntLiteral:     "IntLiteral",
	IntNullLiteral: "IntNullLiteral",

	LongLiteral:     "LongLiteral",
	LongNullLiteral: "LongNullLiteral",

	RealLiteral:     "RealLiteral",
	RealNullLiteral: "RealNullLiteral",

	StringLiteral: "StringLiteral",

	Pipe:     "Pipe",
	LParen:   "LParen",
	RParen:   "RParen",
	LBrace:   "LBrace",
	RBrace:   "RBrace",
	LBracket: "LBracket",
	RBracket: "RBracket",
	Comma:    "Comma",
	Dot:      "Dot",
	Assign:   "Assign",

	Add: "Add",
	Sub: "Sub",
	Star: "Star",
	Div:  "Div",
	Mod:  "Mod",

	LogicalAnd: "LogicalAnd",
	LogicalOr:  "LogicalOr",

	LT:  "LT",
	LTE: "LTE",
	GT:  "GT",
	GTE: "GTE",
	EQ:  "EQ",
	NEQ: "NEQ",
}

func init() {
	for k := Kind(1); k <= NEQ; k++ {
		if kindToDescription[k] == "" {
			panic("token: missing description for kind")
		}
	}
}

func (k Kind) String() string {
	if s, ok := kindToDescription[k]; ok {
		return s
	}
	return "Unknown"
}

// Token is one lexed unit of input: a kind, its source span, and (for
// kinds that carry one) a literal value.
//
// Value holds:
//   - string for Term, BangTerm, DollarTerm, StringLiteral
//   - bool for BoolLiteral
//   - int32 for IntLiteral
//   - int64 for LongLiteral
//   - float64 for RealLiteral
//   - nil for everything else, including the *NullLiteral kinds (the
//     null-ness is the entire payload)
type Token struct {
	Kind  Kind
	Span  span.Span
	Value any
}

// Text returns Value as a string, for Term/BangTerm/DollarTerm/StringLiteral
// tokens.
func (t Token) Text() string {
	s, _ := t.Value.(string)
	return s
}

func (t Token) String() string {
	return t.Kind.String()
}
