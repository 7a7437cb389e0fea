package domain

import (
	"math"
	"testing"
)

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"Moscow, Tverskaya 1":         "Moscow, Tverskaya 1",
		"  Moscow,\tTverskaya   1 \n": "Moscow, Tverskaya 1",
		"   ":                         "",
		"moscow, tverskaya 1":         "moscow, tverskaya 1",
	}

	for in, want := range cases {
		if got := NormalizeAddress(in); got != want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoordinatesValid(t *testing.T) {
	cases := []struct {
		c    Coordinates
		want bool
	}{
		{Coordinates{Lat: 55.75, Lon: 37.61}, true},
		{Coordinates{Lat: 90, Lon: -180}, true},
		{Coordinates{Lat: 90.1, Lon: 0}, false},
		{Coordinates{Lat: 0, Lon: 181}, false},
		{Coordinates{Lat: math.NaN(), Lon: 0}, false},
		{Coordinates{Lat: 0, Lon: math.Inf(1)}, false},
	}

	for _, tc := range cases {
		if got := tc.c.Valid(); got != tc.want {
			t.Errorf("%+v.Valid() = %v, want %v", tc.c, got, tc.want)
		}
	}
}

func TestProductSetCovers(t *testing.T) {
	menu := NewProductSet(1, 2, 3)

	if !menu.Covers(NewProductSet(1, 2)) {
		t.Fatalf("expected {1,2,3} to cover {1,2}")
	}
	if menu.Covers(NewProductSet(1, 4)) {
		t.Fatalf("expected {1,2,3} not to cover {1,4}")
	}
	if !menu.Covers(nil) || !ProductSet(nil).Covers(NewProductSet()) {
		t.Fatalf("every set must cover the empty set")
	}
	if ProductSet(nil).Covers(NewProductSet(1)) {
		t.Fatalf("nil set must not cover a non-empty set")
	}
}

func TestRestaurantAvailableProducts(t *testing.T) {
	r := &Restaurant{ID: 1, Menu: map[int64]bool{1: true, 2: false, 3: true}}

	got := r.AvailableProducts()
	if len(got) != 2 || !got.Has(1) || !got.Has(3) || got.Has(2) {
		t.Fatalf("unexpected available set: %v", got)
	}

	empty := &Restaurant{ID: 2}
	if len(empty.AvailableProducts()) != 0 {
		t.Fatalf("restaurant without a menu must have no available products")
	}
}

func TestOrderTotalAndProducts(t *testing.T) {
	o := &Order{
		Lines: []OrderLine{
			{ProductID: 1, Quantity: 2, PriceCents: 350},
			{ProductID: 2, Quantity: 1, PriceCents: 1000},
			{ProductID: 1, Quantity: 1, PriceCents: 350},
		},
	}

	if got := o.Total(); got != 2050 {
		t.Fatalf("Total() = %d, want 2050", got)
	}

	products := o.Products()
	if len(products) != 2 || !products.Has(1) || !products.Has(2) {
		t.Fatalf("Products() = %v, want {1,2}", products)
	}
}

func TestLabels(t *testing.T) {
	if StatusUnprocessed.Label() != "Unprocessed" {
		t.Errorf("unexpected status label %q", StatusUnprocessed.Label())
	}
	if OrderStatus("WEIRD").Label() != "WEIRD" {
		t.Errorf("unknown status must fall back to its raw value")
	}
	if PaymentCash.Label() != "Cash" || !PaymentEpay.Valid() || PaymentMethod("BTC").Valid() {
		t.Errorf("unexpected payment label handling")
	}
}
