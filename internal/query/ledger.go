package query

import "slices"

// Ledger tracks, for one dispatcher call, which raw arguments have been
// answered and by which records. In first-match mode a record already held
// is refused, and answered arguments are struck from the outstanding list so
// later sources skip them. Otherwise it accepts everything and keeps nothing.
type Ledger[T any] struct {
	firstMatch bool
	same       func(a, b T) bool
	own        func(T) T
	args       []string
	items      []T
}

// NewLedger creates a ledger. same decides whether two records are the same
// result; own, when not nil, makes the private copy that is kept.
func NewLedger[T any](firstMatch bool, same func(a, b T) bool, own func(T) T) *Ledger[T] {
	return &Ledger[T]{firstMatch: firstMatch, same: same, own: own}
}

// Add records that rec answers arg. It returns false when rec was already
// accepted, in which case nothing changes and the caller must not render it.
func (l *Ledger[T]) Add(arg string, rec T) bool {
	if !l.firstMatch {
		return true
	}
	for _, item := range l.items {
		if l.same(item, rec) {
			return false
		}
	}
	if l.own != nil {
		rec = l.own(rec)
	}
	l.items = append(l.items, rec)
	l.args = append(l.args, arg)
	return true
}

// Clear returns outstanding without the arguments answered so far.
func (l *Ledger[T]) Clear(outstanding []string) []string {
	if !l.firstMatch || len(l.args) == 0 {
		return outstanding
	}
	return slices.DeleteFunc(slices.Clone(outstanding), func(arg string) bool {
		return slices.Contains(l.args, arg)
	})
}

// Close clears outstanding and releases the ledger.
func (l *Ledger[T]) Close(outstanding []string) []string {
	rest := l.Clear(outstanding)
	l.args = nil
	l.items = nil
	return rest
}
