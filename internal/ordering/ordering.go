// Package ordering turns the caller's list of sort keys into the ORDER BY
// clause of a listing query.
//
// Keys are public names, optionally prefixed with "-" for descending order.
// Every column sorts NULLS LAST in both directions. Composite keys such as
// "relevance" short-circuit the list: the first composite key found wins and
// the remaining keys are ignored.
package ordering

import (
	"fmt"
	"strings"

	"github.com/sushihentaime/socialnet/internal/common"
)

// Column is one ORDER BY term.
type Column struct {
	Expr string
	Desc bool
}

func (c Column) String() string {
	if c.Desc {
		return c.Expr + " DESC NULLS LAST"
	}
	return c.Expr + " ASC NULLS LAST"
}

// Composite expands a derived key into its columns for one direction.
type Composite func(desc bool) []Column

// Terms builds a Composite that sorts every expression in the requested
// direction.
func Terms(exprs ...string) Composite {
	return func(desc bool) []Column {
		cols := make([]Column, len(exprs))
		for i, expr := range exprs {
			cols[i] = Column{Expr: expr, Desc: desc}
		}
		return cols
	}
}

// Spec describes the keys one listing accepts.
type Spec struct {
	// Fields maps a public key to a column expression.
	Fields map[string]string
	// Composites maps a public key to a derived multi-column order.
	Composites map[string]Composite
	// Default is used when no key is requested.
	Default []Column
	// Tiebreak is appended last, descending, so paginated results are
	// stable. Rows that tie on every requested key have no other defined
	// order.
	Tiebreak string
}

// Plan is a resolved ordering.
type Plan struct {
	Columns  []Column
	Tiebreak string
}

// ParseKey splits a raw key into its name and direction.
func ParseKey(raw string) (name string, desc bool) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "-") {
		return raw[1:], true
	}
	return raw, false
}

// Plan resolves keys against the spec.
func (s Spec) Plan(keys []string) (Plan, error) {
	for _, raw := range keys {
		name, desc := ParseKey(raw)
		if composite, ok := s.Composites[name]; ok {
			return Plan{Columns: composite(desc), Tiebreak: s.Tiebreak}, nil
		}
	}

	var cols []Column
	for _, raw := range keys {
		name, desc := ParseKey(raw)
		if name == "" {
			continue
		}

		expr, ok := s.Fields[name]
		if !ok {
			return Plan{}, common.FieldError(common.ErrInvalidInput, "ordering", fmt.Sprintf("unknown ordering key %q", name))
		}
		cols = append(cols, Column{Expr: expr, Desc: desc})
	}

	if len(cols) == 0 {
		cols = s.Default
	}

	return Plan{Columns: cols, Tiebreak: s.Tiebreak}, nil
}

// OrderBy renders the plan as an ORDER BY clause.
func (p Plan) OrderBy() string {
	terms := make([]string, 0, len(p.Columns)+1)
	for _, c := range p.Columns {
		terms = append(terms, c.String())
	}
	if p.Tiebreak != "" {
		terms = append(terms, p.Tiebreak+" DESC")
	}
	if len(terms) == 0 {
		return ""
	}

	return "ORDER BY " + strings.Join(terms, ", ")
}
