package feature

// MutableIterator walks a record collection and can drop the record it is
// positioned on.
type MutableIterator interface {
	// Next advances to the next record and reports whether one exists.
	Next() bool

	// Feature returns the current record.
	Feature() Feature

	// Remove drops the current record from the underlying collection.
	Remove()
}

// SliceIterator is a MutableIterator over a slice. Removal compacts the
// slice in place; once iteration is complete Features returns the retained
// records.
type SliceIterator struct {
	items []Feature
	read  int
	write int
	cur   Feature
	keep  bool
}

// NewSliceIterator iterates over items. The slice is reused for the result.
func NewSliceIterator(items []Feature) *SliceIterator {
	return &SliceIterator{items: items}
}

// Next advances to the next record.
func (it *SliceIterator) Next() bool {
	it.flush()
	if it.read >= len(it.items) {
		return false
	}
	it.cur = it.items[it.read]
	it.read++
	it.keep = true
	return true
}

// Feature returns the current record.
func (it *SliceIterator) Feature() Feature {
	return it.cur
}

// Remove drops the current record.
func (it *SliceIterator) Remove() {
	it.keep = false
}

// Features returns the records that were not removed. When iteration
// stopped early the records not yet visited follow the retained ones, and
// further calls to Next return false.
func (it *SliceIterator) Features() []Feature {
	it.flush()
	n := it.write + copy(it.items[it.write:], it.items[it.read:])
	clear(it.items[n:])
	it.items = it.items[:n]
	it.read, it.write = n, n
	return it.items
}

func (it *SliceIterator) flush() {
	if it.cur == nil {
		return
	}
	if it.keep {
		it.items[it.write] = it.cur
		it.write++
	}
	it.cur = nil
}
