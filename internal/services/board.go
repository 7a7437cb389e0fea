package services

import (
	"context"
	"time"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/logger"
	"order-board-service/internal/platform/metrics"
	"order-board-service/internal/platform/obs"
	"order-board-service/internal/ports"

	"go.uber.org/zap"
)

// BoardEntry is the manager-facing view of one order. An assigned order
// carries only AssignedRestaurantID; an unassigned one carries its ranked
// candidates.
type BoardEntry struct {
	OrderID              int64
	AssignedRestaurantID *int64
	Candidates           []domain.Candidate
	Unmeasured           []domain.Candidate
	// OriginKnown is false when the delivery address could not be geocoded.
	OriginKnown  bool
	StatusLabel  string
	PaymentLabel string
	TotalCents   int64
}

// Board holds one entry per distinct order id, in input order. A repeated
// id keeps only its first occurrence.
type Board struct {
	Entries []BoardEntry
	index   map[int64]int
}

// ByOrderID returns the entry for the order with the given id.
func (b Board) ByOrderID(id int64) (BoardEntry, bool) {
	i, ok := b.index[id]
	if !ok {
		return BoardEntry{}, false
	}
	return b.Entries[i], true
}

type BoardAssembler struct {
	cache   *GeocodeCache
	metrics *metrics.Metrics
}

func NewBoardAssembler(cache *GeocodeCache, m *metrics.Metrics) *BoardAssembler {
	if cache == nil {
		cache = NewGeocodeCache(WithMetrics(m))
	}
	return &BoardAssembler{cache: cache, metrics: m}
}

// BuildBoard computes candidates for every unassigned order.
//
// All addresses of the batch are resolved up front, so an address shared by
// several orders or a restaurant address reaches the resolver at most once.
// Failures degrade single orders or restaurants to unknown distances; the
// board itself is always returned.
func (a *BoardAssembler) BuildBoard(
	ctx context.Context,
	orders []*domain.Order,
	restaurants []*domain.Restaurant,
	resolver ports.Resolver,
) Board {
	defer obs.Time(ctx, "board.build")(nil)
	start := time.Now()

	universe := uniqueRestaurants(restaurants)

	menus := make([]RestaurantMenu, 0, len(universe))
	for _, r := range universe {
		menus = append(menus, RestaurantMenu{RestaurantID: r.ID, Available: r.AvailableProducts()})
	}

	var pending []*domain.Order
	for _, o := range orders {
		if o != nil && !o.Assigned() {
			pending = append(pending, o)
		}
	}

	if len(pending) > 0 {
		addresses := make([]string, 0, len(pending)+len(universe))
		for _, o := range pending {
			addresses = append(addresses, o.Address)
		}
		for _, r := range universe {
			addresses = append(addresses, r.Address)
		}
		a.cache.EnsureBatch(ctx, addresses, resolver)
	}

	restaurantCoords := make(map[int64]*domain.Coordinates, len(universe))
	for _, r := range universe {
		c, _ := a.cache.Lookup(r.Address)
		restaurantCoords[r.ID] = c
	}

	board := Board{
		Entries: make([]BoardEntry, 0, len(orders)),
		index:   make(map[int64]int, len(orders)),
	}
	for _, o := range orders {
		if o == nil {
			continue
		}
		if _, dup := board.index[o.ID]; dup {
			logger.WarnContext(ctx, "duplicate order on board; keeping the first", zap.Int64("order_id", o.ID))
			continue
		}

		entry := BoardEntry{
			OrderID:      o.ID,
			StatusLabel:  o.Status.Label(),
			PaymentLabel: o.Payment.Label(),
			TotalCents:   o.Total(),
		}

		if o.Assigned() {
			id := *o.AssignedRestaurantID
			entry.AssignedRestaurantID = &id
		} else {
			origin, _ := a.cache.Lookup(o.Address)
			entry.OriginKnown = origin != nil

			matched := Matchable(o.Products(), menus)
			inputs := make([]RankInput, 0, len(matched))
			for _, id := range matched {
				inputs = append(inputs, RankInput{RestaurantID: id, Coords: restaurantCoords[id]})
			}

			ranking := Rank(origin, inputs)
			entry.Candidates = ranking.Candidates
			entry.Unmeasured = ranking.Unmeasured
		}

		board.index[o.ID] = len(board.Entries)
		board.Entries = append(board.Entries, entry)
	}

	a.metrics.BoardBuilt(len(board.Entries), time.Since(start))
	return board
}

// uniqueRestaurants drops nil records and repeated ids, keeping the first
// occurrence so every restaurant is considered exactly once.
func uniqueRestaurants(restaurants []*domain.Restaurant) []*domain.Restaurant {
	seen := make(map[int64]struct{}, len(restaurants))
	out := make([]*domain.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		if r == nil {
			continue
		}
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
