package domain

// Restaurant is a kitchen that can be assigned orders. Menu maps product id
// to its current availability flag; products absent from the map are not
// on the restaurant's menu at all.
type Restaurant struct {
	ID           int64
	Name         string
	Address      string
	ContactPhone string
	Menu         map[int64]bool
}

// AvailableProducts returns the set of product ids flagged available.
func (r *Restaurant) AvailableProducts() ProductSet {
	set := make(ProductSet, len(r.Menu))
	for id, available := range r.Menu {
		if available {
			set.Add(id)
		}
	}
	return set
}
