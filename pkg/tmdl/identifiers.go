// Package tmdl renders classified tables and inferred relationships into a
// TMDL semantic model definition: the tab-indented .tmdl files plus the
// JSON metadata files Fabric expects alongside them.
package tmdl

import (
	"fmt"
	"strings"
)

// needsQuoting reports whether a TMDL identifier must be wrapped in single
// quotes: any whitespace, dot, equals, colon, or single quote triggers it.
func needsQuoting(identifier string) bool {
	return strings.ContainsFunc(identifier, func(r rune) bool {
		switch r {
		case '.', '=', ':', '\'', ' ', '\t', '\n', '\r', '\v', '\f':
			return true
		}
		return false
	})
}

// QuoteIdentifier quotes a TMDL identifier when it contains special
// characters. Internal single quotes are escaped by doubling.
func QuoteIdentifier(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}
	if !needsQuoting(identifier) {
		return identifier, nil
	}
	return "'" + strings.ReplaceAll(identifier, "'", "''") + "'", nil
}

// UnquoteIdentifier reverses QuoteIdentifier. Identifiers without outer
// quotes are returned unchanged.
func UnquoteIdentifier(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("identifier cannot be empty")
	}
	if !strings.HasPrefix(identifier, "'") || !strings.HasSuffix(identifier, "'") || len(identifier) < 2 {
		return identifier, nil
	}
	inner := identifier[1 : len(identifier)-1]
	return strings.ReplaceAll(inner, "''", "'"), nil
}
