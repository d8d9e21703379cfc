package filter

// And returns the conjunction of a and b. All is the identity and None
// absorbs, so combining with a sentinel never grows the tree. Operands that
// are already AND filters are flattened into the result.
func And(a, b Filter) Filter {
	switch {
	case a == None || b == None:
		return None
	case a == All:
		return b
	case b == All:
		return a
	}
	return &LogicFilter{op: FilterLogicAnd, children: flatten(FilterLogicAnd, a, b)}
}

// Or returns the disjunction of a and b. None is the identity and All
// absorbs. Operands that are already OR filters are flattened.
func Or(a, b Filter) Filter {
	switch {
	case a == All || b == All:
		return All
	case a == None:
		return b
	case b == None:
		return a
	}
	return &LogicFilter{op: FilterLogicOr, children: flatten(FilterLogicOr, a, b)}
}

// Not returns the negation of f. Sentinels swap and a double negation
// collapses to the inner filter.
func Not(f Filter) Filter {
	switch f {
	case All:
		return None
	case None:
		return All
	}
	if l, ok := f.(*LogicFilter); ok && l.op == FilterLogicNot {
		return l.children[0]
	}
	return &LogicFilter{op: FilterLogicNot, children: []Filter{f}}
}

func flatten(op FilterType, filters ...Filter) []Filter {
	out := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if l, ok := f.(*LogicFilter); ok && l.op == op {
			out = append(out, l.children...)
			continue
		}
		out = append(out, f)
	}
	return out
}
