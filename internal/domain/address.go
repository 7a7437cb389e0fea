package domain

import "strings"

// NormalizeAddress produces the cache key for an address by trimming and
// collapsing whitespace. Case is preserved.
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
