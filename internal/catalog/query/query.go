// Package query builds SQL predicates for medicine listings from
// request parameters. Builders are pure: same inputs, same clause.
//
// All fragments reference the medicines relation under its query alias
// "m" and use positional placeholders starting at the given index, so
// the store can append them to its own projections.
package query

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PriceRange is an inclusive [Min, Max] price restriction.
// Min > Max is not an error; it simply matches nothing.
type PriceRange struct {
	Min int64
	Max int64
}

// Filter restricts a listing to a category set and/or a price range.
// Absent parts impose no restriction; present parts combine with AND.
type Filter struct {
	Categories []uuid.UUID
	Price      *PriceRange
}

// Where renders the filter as a SQL condition. An empty filter renders
// TRUE, i.e. the full collection.
func (f Filter) Where(startIdx int) (string, []any) {
	var conds []string
	var args []any

	if len(f.Categories) > 0 {
		conds = append(conds, fmt.Sprintf("m.category_id = ANY($%d)", startIdx))
		args = append(args, f.Categories)
		startIdx++
	}
	if f.Price != nil {
		conds = append(conds, fmt.Sprintf("m.price BETWEEN $%d AND $%d", startIdx, startIdx+1))
		args = append(args, f.Price.Min, f.Price.Max)
	}
	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

// SearchWhere renders the free-text predicate: case-insensitive
// substring match on name or description. An empty keyword matches
// every medicine.
func SearchWhere(keyword string, startIdx int) (string, []any) {
	pattern := "%" + escapeLike(keyword) + "%"
	cond := fmt.Sprintf("(m.name ILIKE $%d OR m.description ILIKE $%d)", startIdx, startIdx)
	return cond, []any{pattern}
}

// escapeLike neutralizes LIKE metacharacters so the keyword is matched
// literally, substring semantics only.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
