package domain

// Product is a catalog item. PriceCents is kept in minor currency units.
type Product struct {
	ID          int64
	Name        string
	Category    string
	PriceCents  int64
	Description string
	// Special marks a featured product on the storefront.
	Special bool
}

// ProductSet is a set of product ids.
type ProductSet map[int64]struct{}

func NewProductSet(ids ...int64) ProductSet {
	set := make(ProductSet, len(ids))
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

func (s ProductSet) Add(id int64) { s[id] = struct{}{} }

func (s ProductSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Covers reports whether s is a superset of other. Every set covers the
// empty set, including a nil one.
func (s ProductSet) Covers(other ProductSet) bool {
	if len(other) > len(s) {
		return false
	}
	for id := range other {
		if !s.Has(id) {
			return false
		}
	}
	return true
}
