// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package entity

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"
)

// Operator is a comparison used in a Filter.
type Operator string

const (
	// Eq matches equal values.  This is the default operator.
	Eq Operator = "="

	// NotEq matches values that are not equal.
	NotEq Operator = "!="

	// Lt matches values less than the filter value.
	Lt Operator = "<"

	// LtEq matches values less than or equal to the filter value.
	LtEq Operator = "<="

	// Gt matches values greater than the filter value.
	Gt Operator = ">"

	// GtEq matches values greater than or equal to the filter value.
	GtEq Operator = ">="

	// Like matches text values against a SQL LIKE pattern, with %
	// matching any run of characters and _ any single character.
	Like Operator = "like"
)

// Filter restricts a query to members whose column compares to a
// value.
type Filter struct {
	Column string      `mapstructure:"column"`
	Op     Operator    `mapstructure:"op"`
	Value  interface{} `mapstructure:"value"`
}

// Order sorts query results on a column.
type Order struct {
	Column     string
	Descending bool
}

// Query selects some members of a kind.
type Query struct {
	// Filters are ANDed together.
	Filters []Filter

	// Offset skips this many results.
	Offset int

	// Limit, if non-nil, returns at most this many results.  A
	// limit of zero is valid and returns nothing.
	Limit *int

	// OrderBy sorts the results.  Without it, results come back in
	// primary key order.
	OrderBy []Order

	// Distinct removes duplicate rows.
	Distinct bool
}

// SetLimit sets q.Limit to a copy of limit.
func (q *Query) SetLimit(limit int) {
	q.Limit = &limit
}

// ParseOrder parses an order_by parameter: a comma separated list of
// column names, each optionally prefixed with "-" or followed by
// " desc" (or " asc") to choose the direction.
func ParseOrder(s string) []Order {
	var orders []Order
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		order := Order{}
		if strings.HasPrefix(part, "-") {
			order.Descending = true
			part = part[1:]
		}
		fields := strings.Fields(part)
		if len(fields) == 2 {
			switch strings.ToLower(fields[1]) {
			case "desc":
				order.Descending = true
				part = fields[0]
			case "asc":
				part = fields[0]
			}
		}
		order.Column = part
		orders = append(orders, order)
	}
	return orders
}

// Normalize validates a query against a kind and converts its filter
// values to their column types.  The returned query is a copy.
func (q Query) Normalize(k *Kind) (Query, error) {
	filters := make([]Filter, len(q.Filters))
	for i, f := range q.Filters {
		column, present := k.Column(f.Column)
		if !present {
			return q, ErrNoSuchAttribute{Kind: k.Name, Name: f.Column}
		}
		if f.Op == "" {
			f.Op = Eq
		}
		switch f.Op {
		case Eq, NotEq, Lt, LtEq, Gt, GtEq:
			value, err := column.Convert(f.Value)
			if err != nil {
				return q, err
			}
			f.Value = value
		case Like:
			f.Value = fmt.Sprint(f.Value)
		default:
			return q, fmt.Errorf("unknown filter operator %q", f.Op)
		}
		filters[i] = f
	}
	q.Filters = filters
	for _, order := range q.OrderBy {
		if _, present := k.Column(order.Column); !present {
			return q, ErrNoSuchAttribute{Kind: k.Name, Name: order.Column}
		}
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q, nil
}

// Matches returns true if a member passes all of a normalized query's
// filters.  A nil column value only matches Eq nil and NotEq non-nil.
func (q Query) Matches(m *Member) bool {
	for _, f := range q.Filters {
		value := m.values[f.Column]
		if f.Op == Like {
			s, isString := value.(string)
			if !isString || !likeMatch(f.Value.(string), s) {
				return false
			}
			continue
		}
		if value == nil || f.Value == nil {
			both := value == nil && f.Value == nil
			switch f.Op {
			case Eq:
				if !both {
					return false
				}
			case NotEq:
				if both {
					return false
				}
			default:
				return false
			}
			continue
		}
		c := CompareValues(value, f.Value)
		var ok bool
		switch f.Op {
		case Eq:
			ok = c == 0
		case NotEq:
			ok = c != 0
		case Lt:
			ok = c < 0
		case LtEq:
			ok = c <= 0
		case Gt:
			ok = c > 0
		case GtEq:
			ok = c >= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

// Sort orders members by a normalized query's OrderBy, falling back to
// primary key order.  The sort is stable.
func (q Query) Sort(members []*Member) {
	if len(members) == 0 {
		return
	}
	orders := append([]Order{}, q.OrderBy...)
	for _, name := range members[0].Kind.PrimaryKey {
		orders = append(orders, Order{Column: name})
	}
	sort.SliceStable(members, func(i, j int) bool {
		for _, order := range orders {
			c := CompareValues(members[i].values[order.Column], members[j].values[order.Column])
			if c == 0 {
				continue
			}
			if order.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// Page applies a query's offset and limit to a sorted list.
func (q Query) Page(members []*Member) []*Member {
	if q.Offset >= len(members) {
		return members[:0]
	}
	members = members[q.Offset:]
	if q.Limit != nil && *q.Limit >= 0 && *q.Limit < len(members) {
		members = members[:*q.Limit]
	}
	return members
}

// CompareValues compares two column values of the same type,
// returning -1, 0, or 1.  nil sorts before everything else.  Values of
// mismatched types compare by their string forms.
func CompareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return compareOrdered(av < bv, av > bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return compareOrdered(av < bv, av > bv)
		}
	case *big.Rat:
		if bv, ok := b.(*big.Rat); ok {
			return av.Cmp(bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return compareOrdered(!av && bv, av && !bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return compareOrdered(av.Before(bv), av.After(bv))
		}
	case Date:
		if bv, ok := b.(Date); ok {
			return strings.Compare(av.String(), bv.String())
		}
	}
	return strings.Compare(FormatValue(a), FormatValue(b))
}

func compareOrdered(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// likeMatch implements SQL LIKE matching with % and _ wildcards.
func likeMatch(pattern, s string) bool {
	p := []rune(pattern)
	r := []rune(s)
	var match func(pi, si int) bool
	match = func(pi, si int) bool {
		for pi < len(p) {
			switch p[pi] {
			case '%':
				for k := si; k <= len(r); k++ {
					if match(pi+1, k) {
						return true
					}
				}
				return false
			case '_':
				if si >= len(r) {
					return false
				}
			default:
				if si >= len(r) || r[si] != p[pi] {
					return false
				}
			}
			pi++
			si++
		}
		return si == len(r)
	}
	return match(0, 0)
}
