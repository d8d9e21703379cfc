package filter

import (
	"context"
	"fmt"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/geofilter/feature"
)

// checkEvery is how many rows are matched between context checks.
const checkEvery = 1024

// Retain returns the records matching f, in input order, in a new slice.
// The first evaluation error stops the pass.
func Retain(records []feature.Feature, f Filter) ([]feature.Feature, error) {
	if f == All {
		return slices.Clone(records), nil
	}
	var out []feature.Feature
	if f == None {
		return out, nil
	}
	for _, r := range records {
		ok, err := f.Matches(r)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID(), err)
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Prune removes every record for which f does not match from the
// collection behind it and returns the number removed. On error the records
// visited so far have already been pruned.
func Prune(it feature.MutableIterator, f Filter) (int, error) {
	removed := 0
	for it.Next() {
		r := it.Feature()
		ok, err := f.Matches(r)
		if err != nil {
			return removed, fmt.Errorf("record %s: %w", r.ID(), err)
		}
		if !ok {
			it.Remove()
			removed++
		}
	}
	return removed, nil
}

// FilterRecordBatch returns a record batch holding the rows of rec that
// match f. Rows are viewed through feature.ArrowFeature with ids read from
// idColumn. Consecutive matching rows are sliced out of rec and the slices
// concatenated, so every column type arrow can concatenate is supported.
//
// The caller owns the returned batch and must release it.
func FilterRecordBatch(ctx context.Context, mem memory.Allocator, rec arrow.RecordBatch, f Filter, idColumn string) (arrow.RecordBatch, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	n := int(rec.NumRows())
	mask := make([]bool, n)
	kept := 0
	for i, r := range feature.ArrowFeatures(rec, idColumn) {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ok, err := f.Matches(r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		mask[i] = ok
		if ok {
			kept++
		}
	}

	if kept == n {
		rec.Retain()
		return rec, nil
	}

	cols := make([]arrow.Array, rec.NumCols())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	runs := maskRuns(mask)
	for j := range cols {
		col, err := takeRuns(mem, rec.Column(j), runs)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", rec.Schema().Field(j).Name, err)
		}
		cols[j] = col
	}

	return array.NewRecord(rec.Schema(), cols, int64(kept)), nil
}

// maskRuns returns the [start, end) ranges of consecutive true values.
func maskRuns(mask []bool) [][2]int {
	var runs [][2]int
	start := -1
	for i, keep := range mask {
		switch {
		case keep && start < 0:
			start = i
		case !keep && start >= 0:
			runs = append(runs, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, len(mask)})
	}
	return runs
}

func takeRuns(mem memory.Allocator, col arrow.Array, runs [][2]int) (arrow.Array, error) {
	switch len(runs) {
	case 0:
		return array.NewSlice(col, 0, 0), nil
	case 1:
		return array.NewSlice(col, int64(runs[0][0]), int64(runs[0][1])), nil
	}

	parts := make([]arrow.Array, len(runs))
	for i, r := range runs {
		parts[i] = array.NewSlice(col, int64(r[0]), int64(r[1]))
	}
	defer func() {
		for _, p := range parts {
			p.Release()
		}
	}()
	return array.Concatenate(parts, mem)
}
