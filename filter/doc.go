// Package filter evaluates typed filter and expression trees against
// feature records.
//
// This package enables applications to:
//   - Build validated filters through a Factory or explicit builders
//   - Decide whether a record matches a filter
//   - Compute scalar and geometry values from expressions
//   - Traverse trees with visitors (attribute extraction, text, SQL)
//   - Filter record slices, mutable iterators and Arrow record batches
//
// # Basic Usage
//
// Build a filter and match records:
//
//	fac := filter.DefaultFactory()
//	pop, _ := fac.CreateAttribute(feature.Schema{"pop": feature.KindInteger}, "pop")
//	limit, _ := fac.CreateLiteral(1000)
//	f, err := fac.CreateCompare(filter.FilterCompareGreaterThanOrEqual, pop, limit)
//	if err != nil {
//	    return err // errors.Is(err, filter.ErrIllegalConstruction)
//	}
//
//	ok, err := f.Matches(rec)
//
// # Sentinels
//
// All and None are the identity and absorbing elements of And and Or.
// Combining with them rewrites the tree instead of growing it:
//
//	filter.And(filter.All, f) == f
//	filter.Or(filter.All, f)  == filter.All
//	filter.Not(filter.None)   == filter.All
//
// # Null Handling
//
// A null operand makes comparisons, BETWEEN, LIKE and spatial predicates
// false and makes arithmetic null. Unknown attributes are errors, never
// nulls.
//
// # Visitors
//
// Accept dispatches to the Visitor method of the concrete variant and does
// not recurse. Visitors descend by calling Accept on children themselves,
// or use Walk for a plain pre-order traversal.
//
// # SQL Encoding
//
//	enc := filter.NewDuckDBEncoder(&filter.EncoderOptions{
//	    ColumnMapping: map[string]string{"pop": "population"},
//	    IDColumn:      "fid",
//	})
//	where := enc.Encode(f)
//
// Unsupported sub-trees are dropped where that widens the result:
//   - For AND: Skips unsupported children, keeps others
//   - For OR: If any child is unsupported, skips entire OR expression
//   - Under NOT the two rules swap
//   - Returns empty string if nothing can be encoded
//
// The encoded condition may select more rows than the filter matches;
// apply Matches to the query result when exact results are needed.
package filter
