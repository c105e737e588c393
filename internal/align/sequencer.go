package align

import (
	"cmp"
	"slices"

	"github.com/roman-kulish/mbes-survey/internal/navigation"
)

const (
	// BracketLeading means the ping is older than the first fix
	BracketLeading BracketKind = "leading"

	// BracketInterior means the ping lies between two fixes
	BracketInterior BracketKind = "interior"

	// BracketTrailing means the cursor ran past the last fix
	BracketTrailing BracketKind = "trailing"
)

// BracketKind tells which of the fixes around a ping are available.
type BracketKind string

func (k BracketKind) String() string {
	return string(k)
}

// Bracket holds the fixes surrounding a ping timestamp. Leading brackets only
// carry Next (the first fix), trailing brackets only carry Previous (the last
// fix).
type Bracket struct {
	Kind     BracketKind
	Previous navigation.Fix
	Next     navigation.Fix
}

// sortFixes returns a copy of fixes ordered by timestamp. Fixes sharing a
// timestamp keep their input order.
func sortFixes(fixes []navigation.Fix) []navigation.Fix {
	sorted := slices.Clone(fixes)
	slices.SortStableFunc(sorted, func(a, b navigation.Fix) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return sorted
}

// Cursor walks a timestamp-ordered fix sequence forward only. It is not safe
// for concurrent use; each alignment run owns its own cursor.
type Cursor struct {
	fixes []navigation.Fix
	pos   int
	last  int64
	seen  bool
}

// NewCursor creates a cursor positioned at the first of the sorted fixes.
func NewCursor(sorted []navigation.Fix) (*Cursor, error) {
	if len(sorted) == 0 {
		return nil, ErrInsufficientReferenceData
	}
	return &Cursor{fixes: sorted}, nil
}

// Position returns the index of the first fix newer than the last sought
// timestamp, or the number of fixes when there is none.
func (c *Cursor) Position() int {
	return c.pos
}

// Seek advances the cursor to the first fix whose timestamp strictly exceeds
// ts and returns the bracket around ts. Timestamps must be sought in
// non-decreasing order, otherwise ErrPingOrder is returned and the cursor is
// left untouched.
func (c *Cursor) Seek(ts int64) (Bracket, error) {
	if c.seen && ts < c.last {
		return Bracket{}, ErrPingOrder
	}
	c.seen = true
	c.last = ts

	for c.pos < len(c.fixes) && c.fixes[c.pos].Timestamp <= ts {
		c.pos++
	}

	switch c.pos {
	case len(c.fixes):
		return Bracket{Kind: BracketTrailing, Previous: c.fixes[c.pos-1]}, nil
	case 0:
		return Bracket{Kind: BracketLeading, Next: c.fixes[0]}, nil
	default:
		return Bracket{Kind: BracketInterior, Previous: c.fixes[c.pos-1], Next: c.fixes[c.pos]}, nil
	}
}
