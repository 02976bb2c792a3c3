// Package slots provides the time slot identifier and the multiset used
// for requests and allocations.
package slots

import "slices"

// TimeSlot identifies one discrete slot of the day, numbered from 1.
type TimeSlot int

// Bag is an ordered multiset of time slots. Duplicates are significant:
// removing a slot removes a single occurrence only. Iteration order is
// insertion order, which keeps every scan over a bag reproducible.
type Bag []TimeSlot

// Clone returns an independent copy of the bag.
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	return slices.Clone(b)
}

// Len returns the number of slots in the bag, counting duplicates.
func (b Bag) Len() int { return len(b) }

// Contains reports whether at least one occurrence of s is present.
func (b Bag) Contains(s TimeSlot) bool {
	return slices.Contains(b, s)
}

// Count returns the number of occurrences of s.
func (b Bag) Count(s TimeSlot) int {
	n := 0
	for _, x := range b {
		if x == s {
			n++
		}
	}
	return n
}

// Add appends one occurrence of s.
func (b *Bag) Add(s TimeSlot) {
	*b = append(*b, s)
}

// RemoveOne removes the first occurrence of s, preserving the order of the
// remaining slots. It reports whether an occurrence was found.
func (b *Bag) RemoveOne(s TimeSlot) bool {
	i := slices.Index(*b, s)
	if i < 0 {
		return false
	}
	*b = slices.Delete(*b, i, i+1)
	return true
}

// Difference returns b − other: every slot of b, with one occurrence struck
// out per matching occurrence in other.
func (b Bag) Difference(other Bag) Bag {
	avoid := other.Clone()
	out := make(Bag, 0, len(b))
	for _, s := range b {
		if avoid.RemoveOne(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// IntersectionSize returns the size of the multiset intersection of b and
// other, matching occurrences one to one.
func (b Bag) IntersectionSize(other Bag) int {
	pool := other.Clone()
	n := 0
	for _, s := range b {
		if pool.RemoveOne(s) {
			n++
		}
	}
	return n
}

// Swap returns a copy of the bag with one occurrence of give replaced by
// take. The second result is false, and the bag unchanged, when give is
// not held.
func (b Bag) Swap(give, take TimeSlot) (Bag, bool) {
	out := b.Clone()
	if !out.RemoveOne(give) {
		return b, false
	}
	out.Add(take)
	return out, true
}

// SameElements reports whether b and other hold the same multiset of slots,
// ignoring order.
func (b Bag) SameElements(other Bag) bool {
	if len(b) != len(other) {
		return false
	}
	return b.IntersectionSize(other) == len(b)
}

// Union returns the concatenation of the given bags.
func Union(bags ...Bag) Bag {
	var out Bag
	for _, b := range bags {
		out = append(out, b...)
	}
	return out
}
