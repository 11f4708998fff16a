// Package security provides query-safety utilities for Talentd
package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidIdentifierRegex matches valid PostgreSQL identifiers.
// Only allows lowercase letters, digits, and underscores, starting with a
// letter or underscore.
var ValidIdentifierRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateIdentifier checks if a string is a valid SQL identifier
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > 63 {
		return fmt.Errorf("identifier too long (max 63 characters)")
	}
	if !ValidIdentifierRegex.MatchString(name) {
		return fmt.Errorf("invalid identifier: must contain only lowercase letters, numbers, and underscores, starting with a letter or underscore")
	}
	if isReservedWord(name) {
		return fmt.Errorf("'%s' is a reserved SQL keyword", name)
	}
	return nil
}

// QuoteIdentifier safely quotes a PostgreSQL identifier.
// This should only be used AFTER validation.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, `"`, `""`)
	return `"` + escaped + `"`
}

// EscapeLikePattern escapes special characters in LIKE patterns
func EscapeLikePattern(pattern string) string {
	pattern = strings.ReplaceAll(pattern, `\`, `\\`)
	pattern = strings.ReplaceAll(pattern, `%`, `\%`)
	pattern = strings.ReplaceAll(pattern, `_`, `\_`)
	return pattern
}

// SearchCondition builds a safe multi-column ILIKE condition for list
// queries. Returns the condition string and the single bind parameter
// repeated per column.
func SearchCondition(columns []string, searchTerm string) (string, []interface{}) {
	if len(columns) == 0 || searchTerm == "" {
		return "", nil
	}

	escaped := EscapeLikePattern(searchTerm)
	param := "%" + escaped + "%"

	conditions := make([]string, 0, len(columns))
	params := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		if err := ValidateIdentifier(col); err == nil {
			conditions = append(conditions, fmt.Sprintf(`%s ILIKE ? ESCAPE '\'`, QuoteIdentifier(col)))
			params = append(params, param)
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}

	return "(" + strings.Join(conditions, " OR ") + ")", params
}

// SortClause validates a caller-supplied sort column against an allow-list
// and returns an ORDER BY expression. Unknown columns fall back to the
// default clause.
func SortClause(column, direction string, allowed []string, fallback string) string {
	ok := false
	for _, a := range allowed {
		if a == column {
			ok = true
			break
		}
	}
	if !ok || ValidateIdentifier(column) != nil {
		return fallback
	}
	dir := "ASC"
	if strings.EqualFold(direction, "desc") {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s", QuoteIdentifier(column), dir)
}

// isReservedWord checks if a word is a PostgreSQL reserved word
func isReservedWord(word string) bool {
	reserved := map[string]bool{
		"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
		"array": true, "as": true, "asc": true, "asymmetric": true, "both": true,
		"case": true, "cast": true, "check": true, "collate": true, "column": true,
		"constraint": true, "create": true, "current_catalog": true, "current_date": true,
		"current_role": true, "current_time": true, "current_timestamp": true,
		"current_user": true, "default": true, "deferrable": true, "desc": true,
		"distinct": true, "do": true, "else": true, "end": true, "except": true,
		"false": true, "fetch": true, "for": true, "foreign": true, "from": true,
		"grant": true, "group": true, "having": true, "in": true, "initially": true,
		"intersect": true, "into": true, "lateral": true, "leading": true, "limit": true,
		"localtime": true, "localtimestamp": true, "not": true, "null": true, "offset": true,
		"on": true, "only": true, "or": true, "order": true, "placing": true,
		"primary": true, "references": true, "returning": true, "select": true,
		"session_user": true, "some": true, "symmetric": true, "table": true,
		"then": true, "to": true, "trailing": true, "true": true, "union": true,
		"unique": true, "user": true, "using": true, "variadic": true, "when": true,
		"where": true, "window": true, "with": true,
	}
	return reserved[strings.ToLower(word)]
}
