package catalog

import (
	"fmt"
	"strings"
)

// Column names an image column that may appear in a Filter.
type Column string

const (
	ColumnID          Column = "id"
	ColumnPath        Column = "path"
	ColumnFingerprint Column = "fingerprint"
	ColumnStatus      Column = "status"
	ColumnName        Column = "name"
	ColumnExt         Column = "ext"
)

var filterableColumns = map[Column]struct{}{
	ColumnID:          {},
	ColumnPath:        {},
	ColumnFingerprint: {},
	ColumnStatus:      {},
	ColumnName:        {},
	ColumnExt:         {},
}

// Op is a comparison operator.
type Op string

const (
	OpEq    Op = "="
	OpNotEq Op = "!="
	OpGt    Op = ">"
	OpGte   Op = ">="
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpIn    Op = "IN"
)

var filterOps = map[Op]struct{}{
	OpEq: {}, OpNotEq: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {}, OpIn: {},
}

// Predicate compares one column against a value. OpIn uses Values.
type Predicate struct {
	Column Column
	Op     Op
	Value  any
	Values []any
}

// Filter is a conjunction of predicates. An empty filter matches every image.
type Filter []Predicate

// Eq builds an equality predicate.
func Eq(col Column, value any) Predicate { return Predicate{Column: col, Op: OpEq, Value: value} }

// NotEq builds an inequality predicate.
func NotEq(col Column, value any) Predicate { return Predicate{Column: col, Op: OpNotEq, Value: value} }

// Gt builds a greater-than predicate.
func Gt(col Column, value any) Predicate { return Predicate{Column: col, Op: OpGt, Value: value} }

// Gte builds a greater-or-equal predicate.
func Gte(col Column, value any) Predicate { return Predicate{Column: col, Op: OpGte, Value: value} }

// Lt builds a less-than predicate.
func Lt(col Column, value any) Predicate { return Predicate{Column: col, Op: OpLt, Value: value} }

// Lte builds a less-or-equal predicate.
func Lte(col Column, value any) Predicate { return Predicate{Column: col, Op: OpLte, Value: value} }

// In builds a membership predicate. An empty list matches nothing.
func In(col Column, values ...any) Predicate { return Predicate{Column: col, Op: OpIn, Values: values} }

// StatusIn is In over image statuses.
func StatusIn(statuses ...ImageStatus) Predicate {
	values := make([]any, len(statuses))
	for i, status := range statuses {
		values[i] = int(status)
	}
	return In(ColumnStatus, values...)
}

// whereClause renders the filter into a SQL fragment and its bound arguments.
func (f Filter) whereClause() (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	for _, p := range f {
		if _, ok := filterableColumns[p.Column]; !ok {
			return "", nil, fmt.Errorf("unsupported filter column %q", p.Column)
		}
		if _, ok := filterOps[p.Op]; !ok {
			return "", nil, fmt.Errorf("unsupported filter operator %q", p.Op)
		}
		if p.Op == OpIn {
			if len(p.Values) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", p.Column, makePlaceholders(len(p.Values))))
			for _, v := range p.Values {
				args = append(args, normalizeArg(v))
			}
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s %s ?", p.Column, p.Op))
		args = append(args, normalizeArg(p.Value))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func normalizeArg(v any) any {
	switch val := v.(type) {
	case ImageStatus:
		return int(val)
	case MatchStatus:
		return int(val)
	default:
		return v
	}
}
