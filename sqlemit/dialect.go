package sqlemit

import (
	"strings"

	"github.com/smasher164/xid"
)

// Dialect selects how emitted identifiers are quoted. The zero value,
// DialectNone, never quotes -- this is what the reference CLI always uses
// (it has no flag for dialect selection); library callers that know their
// downstream engine can opt into dialect-aware quoting.
type Dialect int

const (
	DialectNone Dialect = iota
	DialectPostgres
	DialectSQLServer
)

// QuoteIdentifier renders name as a SQL identifier under d. An identifier
// that is already a valid bare (unquoted) SQL name is emitted as-is;
// anything else (one of the SQL keywords the emitter itself writes, such as
// ORDER, or text with punctuation or a leading digit) is bracket- or
// double-quote-delimited per dialect.
func QuoteIdentifier(d Dialect, name string) string {
	if d == DialectNone || isBareIdentifier(name) {
		return name
	}
	switch d {
	case DialectSQLServer:
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	case DialectPostgres:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	default:
		return name
	}
}

func isBareIdentifier(name string) bool {
	if name == "" {
		return false
	}
	switch strings.ToUpper(name) {
	case "SELECT", "DISTINCT", "ALL", "FROM", "WHERE", "AND", "OR", "ORDER",
		"BY", "ASC", "DESC", "LIMIT", "AS", "NULL", "TRUE", "FALSE":
		// Keywords the emitter itself writes are never bare names.
		return false
	}
	for i, r := range name {
		if i == 0 {
			if !xid.Start(r) && r != '_' {
				return false
			}
			continue
		}
		if !xid.Continue(r) && r != '_' {
			return false
		}
	}
	return true
}
