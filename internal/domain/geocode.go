package domain

import "time"

// GeocodeEntry is one persisted address resolution. Coords is nil when the
// geocoder found nothing or failed; the entry is still written so the
// address is not sent upstream again.
type GeocodeEntry struct {
	Address    string
	Coords     *Coordinates
	ResolvedAt time.Time
}

// Resolved reports whether the entry carries a coordinate.
func (e GeocodeEntry) Resolved() bool { return e.Coords != nil }
