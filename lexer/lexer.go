// Package lexer tokenizes KQL source text.
package lexer

import (
	"math"
	"strconv"
	"strings"

	"github.com/singlestore-labs/okql/diag"
	"github.com/singlestore-labs/okql/span"
	"github.com/singlestore-labs/okql/token"
)

type lexer struct {
	src  diag.Source
	text string
	pos  int
}

// Tokenize scans text into a token list. It never stops at the first bad
// byte run: every unrecognized span is collected and, if any exist, they
// are all returned together as the error slice (the token slice returned
// alongside them should be discarded by the caller).
func Tokenize(src diag.Source, text string) ([]token.Token, []diag.LexError) {
	l := &lexer{src: src, text: text}

	var tokens []token.Token
	var errors []diag.LexError

	for {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.text) {
			break
		}

		tok := l.next()
		tokens = append(tokens, tok)
		if tok.Kind == token.Error {
			errors = append(errors, diag.LexError{Source: src, Span: tok.Span})
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return tokens, nil
}

func (l *lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.text) {
		c := l.text[l.pos]
		switch {
		case c == ' ' || c == '\n' || c == '\t' || c == '\f':
			l.pos++
		case c == '/' && l.pos+1 < len(l.text) && l.text[l.pos+1] == '/':
			for l.pos < len(l.text) && l.text[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) next() token.Token {
	start := l.pos
	c := l.text[l.pos]

	switch {
	case isIdentStart(c):
		return l.scanIdentOrKeywordLiteral(start)
	case c == '!':
		if l.pos+1 < len(l.text) && isIdentStart(l.text[l.pos+1]) {
			l.pos++
			name := l.scanIdentText()
			return token.Token{Kind: token.BangTerm, Span: l.spanFrom(start), Value: name}
		}
		if l.pos+1 < len(l.text) && l.text[l.pos+1] == '=' {
			l.pos += 2
			return token.Token{Kind: token.NEQ, Span: l.spanFrom(start)}
		}
		l.pos++
		return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
	case c == '$':
		if l.pos+1 < len(l.text) && isIdentStart(l.text[l.pos+1]) {
			l.pos++
			name := l.scanIdentText()
			return token.Token{Kind: token.DollarTerm, Span: l.spanFrom(start), Value: name}
		}
		l.pos++
		return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.text) && isDigit(l.text[l.pos+1])):
		return l.scanNumber(start)
	case c == '"' || c == '\'':
		return l.scanStringLiteral(start, c, false)
	case c == '@' && l.pos+1 < len(l.text) && (l.text[l.pos+1] == '"' || l.text[l.pos+1] == '\''):
		quote := l.text[l.pos+1]
		l.pos++
		return l.scanStringLiteral(start, quote, true)
	case c == '`' && strings.HasPrefix(l.text[l.pos:], "```"):
		return l.scanMultilineStringLiteral(start)
	default:
		return l.scanPunctuation(start)
	}
}

func (l *lexer) spanFrom(start int) span.Span {
	return span.New(start, l.pos-start)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// scanIdentText consumes [_A-Za-z][_A-Za-z0-9]* and returns it, assuming
// the cursor already sits on the first character.
func (l *lexer) scanIdentText() string {
	start := l.pos
	l.pos++
	for l.pos < len(l.text) && isIdentCont(l.text[l.pos]) {
		l.pos++
	}
	return l.text[start:l.pos]
}

// scanIdentOrKeywordLiteral scans a bare identifier, then checks whether it
// is one of the fixed-text literal keywords ("true", "false", "and", "or")
// or the head of a parenthesized typed literal ("bool(null)", "int(null)",
// "int(0x1A)", "long(null)", "real(nan)", ...). The parenthesized forms
// require no whitespace between the name and the parenthesis; if the
// lookahead does not match one of the known shapes exactly, the name is
// left as a plain Term and the "(" is lexed separately on the next call.
func (l *lexer) scanIdentOrKeywordLiteral(start int) token.Token {
	name := l.scanIdentText()

	switch name {
	case "true":
		return token.Token{Kind: token.BoolLiteral, Span: l.spanFrom(start), Value: true}
	case "false":
		return token.Token{Kind: token.BoolLiteral, Span: l.spanFrom(start), Value: false}
	case "and":
		return token.Token{Kind: token.LogicalAnd, Span: l.spanFrom(start)}
	case "or":
		return token.Token{Kind: token.LogicalOr, Span: l.spanFrom(start)}
	}

	if l.pos < len(l.text) && l.text[l.pos] == '(' {
		if tok, ok := l.tryScanTypedLiteral(start, name); ok {
			return tok
		}
	}

	return token.Token{Kind: token.Term, Span: l.spanFrom(start), Value: name}
}

func (l *lexer) tryScanTypedLiteral(start int, name string) (token.Token, bool) {
	rest := l.text[l.pos:]

	switch name {
	case "bool":
		if strings.HasPrefix(rest, "(null)") {
			l.pos += len("(null)")
			return token.Token{Kind: token.BoolNullLiteral, Span: l.spanFrom(start)}, true
		}
	case "int":
		if strings.HasPrefix(rest, "(null)") {
			l.pos += len("(null)")
			return token.Token{Kind: token.IntNullLiteral, Span: l.spanFrom(start)}, true
		}
		if v, n, ok := scanParenDecimal(rest); ok {
			l.pos += n
			i, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}, true
			}
			return token.Token{Kind: token.IntLiteral, Span: l.spanFrom(start), Value: int32(i)}, true
		}
		if v, n, ok := scanParenHex(rest); ok {
			l.pos += n
			i, err := strconv.ParseInt(v, 16, 32)
			if err != nil {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}, true
			}
			return token.Token{Kind: token.IntLiteral, Span: l.spanFrom(start), Value: int32(i)}, true
		}
	case "long":
		if strings.HasPrefix(rest, "(null)") {
			l.pos += len("(null)")
			return token.Token{Kind: token.LongNullLiteral, Span: l.spanFrom(start)}, true
		}
		if v, n, ok := scanParenDecimal(rest); ok {
			l.pos += n
			i, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}, true
			}
			return token.Token{Kind: token.LongLiteral, Span: l.spanFrom(start), Value: i}, true
		}
		if v, n, ok := scanParenHex(rest); ok {
			l.pos += n
			i, err := strconv.ParseInt(v, 16, 64)
			if err != nil {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}, true
			}
			return token.Token{Kind: token.LongLiteral, Span: l.spanFrom(start), Value: i}, true
		}
	case "real":
		switch {
		case strings.HasPrefix(rest, "(null)"):
			l.pos += len("(null)")
			return token.Token{Kind: token.RealNullLiteral, Span: l.spanFrom(start)}, true
		case strings.HasPrefix(rest, "(nan)"):
			l.pos += len("(nan)")
			return token.Token{Kind: token.RealLiteral, Span: l.spanFrom(start), Value: math.NaN()}, true
		case strings.HasPrefix(rest, "(+inf)"):
			l.pos += len("(+inf)")
			return token.Token{Kind: token.RealLiteral, Span: l.spanFrom(start), Value: math.Inf(1)}, true
		case strings.HasPrefix(rest, "(-inf)"):
			l.pos += len("(-inf)")
			return token.Token{Kind: token.RealLiteral, Span: l.spanFrom(start), Value: math.Inf(-1)}, true
		}
	}

	return token.Token{}, false
}

// scanParenDecimal matches "(-?[0-9]+)" at the start of rest, returning the
// signed decimal text (without parens) and the number of bytes consumed.
func scanParenDecimal(rest string) (string, int, bool) {
	if len(rest) < 3 || rest[0] != '(' {
		return "", 0, false
	}
	i := 1
	if i < len(rest) && rest[i] == '-' {
		i++
	}
	digitsStart := i
	for i < len(rest) && isDigit(rest[i]) {
		i++
	}
	if i == digitsStart || i >= len(rest) || rest[i] != ')' {
		return "", 0, false
	}
	return rest[1:i], i + 1, true
}

// scanParenHex matches "(0x[0-9a-fA-F]+)" at the start of rest.
func scanParenHex(rest string) (string, int, bool) {
	if !strings.HasPrefix(rest, "(0x") {
		return "", 0, false
	}
	i := 3
	digitsStart := i
	for i < len(rest) && isHexDigit(rest[i]) {
		i++
	}
	if i == digitsStart || i >= len(rest) || rest[i] != ')' {
		return "", 0, false
	}
	return rest[digitsStart:i], i + 1, true
}

// scanNumber scans a bare (unparenthesized) numeric literal: hex long,
// decimal long (optionally signed), or real (requires a decimal point, no
// sign). This mirrors the source grammar exactly, including its quirk that
// a "-" only joins a following number into a signed long literal when no
// whitespace separates them; a "-" elsewhere is the subtraction operator.
func (l *lexer) scanNumber(start int) token.Token {
	if strings.HasPrefix(l.text[l.pos:], "0x") {
		j := l.pos + 2
		for j < len(l.text) && isHexDigit(l.text[j]) {
			j++
		}
		if j > l.pos+2 {
			text := l.text[l.pos+2 : j]
			l.pos = j
			v, err := strconv.ParseInt(text, 16, 64)
			if err != nil {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
			}
			return token.Token{Kind: token.LongLiteral, Span: l.spanFrom(start), Value: v}
		}
	}

	j := l.pos
	if l.text[j] == '-' {
		j++
	}
	digitsStart := j
	for j < len(l.text) && isDigit(l.text[j]) {
		j++
	}

	// Real literal: requires an immediately following ".digits", and (per
	// the grammar) no leading sign.
	if l.text[l.pos] != '-' && j < len(l.text) && l.text[j] == '.' {
		k := j + 1
		fracStart := k
		for k < len(l.text) && isDigit(l.text[k]) {
			k++
		}
		if k > fracStart {
			text := l.text[l.pos:k]
			l.pos = k
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
			}
			return token.Token{Kind: token.RealLiteral, Span: l.spanFrom(start), Value: v}
		}
	}

	if j == digitsStart {
		// Lone "-" with no digits after all (shouldn't happen given the
		// caller's lookahead, but stay defensive).
		l.pos++
		return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
	}

	text := l.text[l.pos:j]
	l.pos = j
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
	}
	return token.Token{Kind: token.LongLiteral, Span: l.spanFrom(start), Value: v}
}

// scanStringLiteral scans a standard or verbatim (@-prefixed) string
// literal. quote is the delimiter ('"' or '\''); verbatim disables escape
// processing. A raw CR or LF, or an unterminated literal, is a lex error
// covering the bytes scanned so far.
func (l *lexer) scanStringLiteral(start int, quote byte, verbatim bool) token.Token {
	l.pos++ // consume opening quote
	var buf strings.Builder

	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if c == quote {
			l.pos++
			return token.Token{Kind: token.StringLiteral, Span: l.spanFrom(start), Value: buf.String()}
		}
		if c == '\n' || c == '\r' {
			return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
		}
		if !verbatim && c == '\\' {
			l.pos++
			if l.pos >= len(l.text) {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
			}
			esc, ok := escapedChar(l.text[l.pos])
			if !ok {
				return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
			}
			buf.WriteByte(esc)
			l.pos++
			continue
		}
		buf.WriteByte(c)
		l.pos++
	}

	return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
}

func escapedChar(c byte) (byte, bool) {
	switch c {
	case '"':
		return '"', true
	case '\'':
		return '\'', true
	case '\\':
		return '\\', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	default:
		return 0, false
	}
}

// scanMultilineStringLiteral scans a ```...``` literal: it closes on three
// consecutive backticks, and one or two embedded backticks not followed by
// a third are literal content.
func (l *lexer) scanMultilineStringLiteral(start int) token.Token {
	l.pos += 3 // consume opening ```
	var buf strings.Builder
	backtickRun := 0

	for l.pos < len(l.text) {
		c := l.text[l.pos]
		if c == '`' {
			backtickRun++
			l.pos++
			if backtickRun == 3 {
				return token.Token{Kind: token.StringLiteral, Span: l.spanFrom(start), Value: buf.String()}
			}
			continue
		}
		for i := 0; i < backtickRun; i++ {
			buf.WriteByte('`')
		}
		backtickRun = 0

		if c == '\n' || c == '\r' {
			return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
		}
		buf.WriteByte(c)
		l.pos++
	}

	return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
}

func (l *lexer) scanPunctuation(start int) token.Token {
	c := l.text[l.pos]

	two := func(next byte, kind token.Kind) (token.Token, bool) {
		if l.pos+1 < len(l.text) && l.text[l.pos+1] == next {
			l.pos += 2
			return token.Token{Kind: kind, Span: l.spanFrom(start)}, true
		}
		return token.Token{}, false
	}

	switch c {
	case '|':
		l.pos++
		return token.Token{Kind: token.Pipe, Span: l.spanFrom(start)}
	case '(':
		l.pos++
		return token.Token{Kind: token.LParen, Span: l.spanFrom(start)}
	case ')':
		l.pos++
		return token.Token{Kind: token.RParen, Span: l.spanFrom(start)}
	case '{':
		l.pos++
		return token.Token{Kind: token.LBrace, Span: l.spanFrom(start)}
	case '}':
		l.pos++
		return token.Token{Kind: token.RBrace, Span: l.spanFrom(start)}
	case '[':
		l.pos++
		return token.Token{Kind: token.LBracket, Span: l.spanFrom(start)}
	case ']':
		l.pos++
		return token.Token{Kind: token.RBracket, Span: l.spanFrom(start)}
	case ',':
		l.pos++
		return token.Token{Kind: token.Comma, Span: l.spanFrom(start)}
	case '.':
		l.pos++
		return token.Token{Kind: token.Dot, Span: l.spanFrom(start)}
	case '+':
		l.pos++
		return token.Token{Kind: token.Add, Span: l.spanFrom(start)}
	case '-':
		l.pos++
		return token.Token{Kind: token.Sub, Span: l.spanFrom(start)}
	case '*':
		l.pos++
		return token.Token{Kind: token.Star, Span: l.spanFrom(start)}
	case '/':
		l.pos++
		return token.Token{Kind: token.Div, Span: l.spanFrom(start)}
	case '%':
		l.pos++
		return token.Token{Kind: token.Mod, Span: l.spanFrom(start)}
	case '=':
		if t, ok := two('=', token.EQ); ok {
			return t
		}
		l.pos++
		return token.Token{Kind: token.Assign, Span: l.spanFrom(start)}
	case '<':
		if t, ok := two('=', token.LTE); ok {
			return t
		}
		l.pos++
		return token.Token{Kind: token.LT, Span: l.spanFrom(start)}
	case '>':
		if t, ok := two('=', token.GTE); ok {
			return t
		}
		l.pos++
		return token.Token{Kind: token.GT, Span: l.spanFrom(start)}
	default:
		l.pos++
		return token.Token{Kind: token.Error, Span: l.spanFrom(start)}
	}
}
