package models

// ReservedTripSet is the ordered set of trip ids a session is holding for
// purchase. Order is insertion order; membership is unique.
type ReservedTripSet []int64

// Contains reports whether id is in the set.
func (s ReservedTripSet) Contains(id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Toggle flips membership of id and reports whether id is now present.
// Removing preserves the relative order of the remaining ids.
func (s *ReservedTripSet) Toggle(id int64) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return false
		}
	}
	*s = append(*s, id)
	return true
}

// Equal reports whether both sets hold the same ids in the same order.
func (s ReservedTripSet) Equal(other ReservedTripSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// IDs returns a defensive copy of the underlying slice.
func (s ReservedTripSet) IDs() []int64 {
	out := make([]int64, len(s))
	copy(out, s)
	return out
}
