package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pagesync-labs/pagesync-cli/internal/core/domain"
	"github.com/pagesync-labs/pagesync-cli/internal/logger"
)

// QueryNormaliser guarantees that a query constrains results to page
// content. It never fails: syntactic validity is checked by the source
// service, not here.
type QueryNormaliser struct{}

// NewQueryNormaliser creates a query normaliser.
func NewQueryNormaliser() *QueryNormaliser {
	return &QueryNormaliser{}
}

// Normalise ensures the query carries a page-kind clause.
//
// A query with no kind clause gets one appended conjunctively, the raw
// query wrapped in parentheses when non-empty. A query constraining the
// kind to something other than page keeps its clause and gets the
// page-kind clause added as well; both constraints then apply, so zero
// results are a valid outcome. Normalising an already-normalised query
// returns it unchanged.
func (n *QueryNormaliser) Normalise(raw string, limit int) domain.Query {
	q := domain.Query{Raw: raw, Limit: limit}
	trimmed := strings.TrimSpace(raw)

	clauses := scanKindClauses(trimmed)
	switch {
	case len(clauses) == 0:
		if trimmed == "" {
			q.Normalised = domain.PageKindClause
		} else {
			q.Normalised = fmt.Sprintf("(%s) AND %s", trimmed, domain.PageKindClause)
		}
	case kindIncludesPage(clauses):
		q.Normalised = trimmed
	default:
		q.Warning = "query constrains content kind to something other than 'page'; page-kind clause added, both constraints apply"
		logger.Warn("%s", q.Warning)
		q.Normalised = fmt.Sprintf("(%s) AND %s", trimmed, domain.PageKindClause)
	}

	return q
}

// kindClause is one "type <op> <values>" clause found in a query.
type kindClause struct {
	op     string
	values []string
}

// kindIncludesPage reports whether any kind clause admits pages.
func kindIncludesPage(clauses []kindClause) bool {
	for _, c := range clauses {
		switch c.op {
		case "=", "in":
			for _, v := range c.values {
				if strings.EqualFold(v, "page") {
					return true
				}
			}
		}
	}
	return false
}

// scanKindClauses tokenizes the query just enough to find clauses of the
// shape "type <op> <literal>". The field token must sit outside quoted
// strings, so a query like `title ~ "type"` is not misclassified as
// already carrying a kind constraint.
func scanKindClauses(query string) []kindClause {
	var clauses []kindClause
	runes := []rune(query)
	i := 0

	for i < len(runes) {
		r := runes[i]

		// Skip quoted strings entirely.
		if r == '"' || r == '\'' {
			i = skipQuoted(runes, i)
			continue
		}

		if !isWordRune(r) {
			i++
			continue
		}

		start := i
		for i < len(runes) && isWordRune(runes[i]) {
			i++
		}
		word := string(runes[start:i])
		if !strings.EqualFold(word, "type") {
			continue
		}

		// A kind clause needs a comparison operator right after the
		// field token.
		j := skipSpace(runes, i)
		op, j := scanOperator(runes, j)
		if op == "" {
			continue
		}

		values, j := scanValues(runes, j, op)
		if len(values) == 0 {
			continue
		}
		clauses = append(clauses, kindClause{op: op, values: values})
		i = j
	}

	return clauses
}

func skipQuoted(runes []rune, i int) int {
	quote := runes[i]
	i++
	for i < len(runes) {
		if runes[i] == '\\' {
			i += 2
			continue
		}
		if runes[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

func skipSpace(runes []rune, i int) int {
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	return i
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// scanOperator recognises =, !=, "in" and "not in" after the field token.
func scanOperator(runes []rune, i int) (string, int) {
	if i >= len(runes) {
		return "", i
	}
	switch {
	case runes[i] == '=':
		return "=", i + 1
	case runes[i] == '!' && i+1 < len(runes) && runes[i+1] == '=':
		return "!=", i + 2
	}

	start := i
	for i < len(runes) && unicode.IsLetter(runes[i]) {
		i++
	}
	word := strings.ToLower(string(runes[start:i]))
	switch word {
	case "in":
		return "in", i
	case "not":
		j := skipSpace(runes, i)
		k := j
		for k < len(runes) && unicode.IsLetter(runes[k]) {
			k++
		}
		if strings.ToLower(string(runes[j:k])) == "in" {
			return "not in", k
		}
	}
	return "", start
}

// scanValues reads one literal for =/!= or a parenthesised list for in.
func scanValues(runes []rune, i int, op string) ([]string, int) {
	i = skipSpace(runes, i)
	if i >= len(runes) {
		return nil, i
	}

	if op == "=" || op == "!=" {
		v, j := scanLiteral(runes, i)
		if v == "" {
			return nil, j
		}
		return []string{v}, j
	}

	// in / not in: "(v1, v2, ...)"
	if runes[i] != '(' {
		return nil, i
	}
	i++
	var values []string
	for i < len(runes) && runes[i] != ')' {
		i = skipSpace(runes, i)
		if i < len(runes) && runes[i] == ',' {
			i++
			continue
		}
		v, j := scanLiteral(runes, i)
		if v == "" {
			i = j + 1
			continue
		}
		values = append(values, v)
		i = j
	}
	if i < len(runes) {
		i++ // closing paren
	}
	return values, i
}

// scanLiteral reads a quoted or bare value.
func scanLiteral(runes []rune, i int) (string, int) {
	if i >= len(runes) {
		return "", i
	}
	if runes[i] == '"' || runes[i] == '\'' {
		quote := runes[i]
		j := i + 1
		start := j
		for j < len(runes) && runes[j] != quote {
			j++
		}
		v := string(runes[start:j])
		if j < len(runes) {
			j++
		}
		return v, j
	}
	start := i
	for i < len(runes) && isWordRune(runes[i]) {
		i++
	}
	return string(runes[start:i]), i
}
