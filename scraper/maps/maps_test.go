package maps

import (
	"testing"

	"github.com/aoztanir/email-agent/models"
)

// growthCounter simulates a results feed whose visible count follows a fixed
// schedule, repeating the last value once exhausted.
type growthCounter struct {
	schedule []int
	calls    int
}

func (g *growthCounter) next() (int, error) {
	idx := g.calls
	if idx >= len(g.schedule) {
		idx = len(g.schedule) - 1
	}
	g.calls++
	return g.schedule[idx], nil
}

func TestDiscoverStopsOnStall(t *testing.T) {
	// Growth stops at 7 even though 50 were requested.
	counter := &growthCounter{schedule: []int{3, 5, 7, 7, 7}}
	scrolls := 0

	visible, err := discover(
		func() error { scrolls++; return nil },
		counter.next,
		func() {},
		50, 100,
	)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if visible != 7 {
		t.Errorf("visible: got %d, want 7", visible)
	}
	// One scroll past the last growth, never more.
	if scrolls != 3 {
		t.Errorf("scrolls: got %d, want 3", scrolls)
	}
}

func TestDiscoverStopsWhenTotalReached(t *testing.T) {
	counter := &growthCounter{schedule: []int{4, 8, 12, 16}}

	visible, err := discover(
		func() error { return nil },
		counter.next,
		func() {},
		10, 100,
	)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if visible < 10 {
		t.Errorf("visible: got %d, want >= 10", visible)
	}
}

func TestDiscoverIterationCeiling(t *testing.T) {
	// A pathological feed that grows by one forever must still terminate.
	n := 0
	scrolls := 0

	_, err := discover(
		func() error { scrolls++; return nil },
		func() (int, error) { n++; return n, nil },
		func() {},
		1_000_000, 25,
	)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if scrolls != 25 {
		t.Errorf("scrolls: got %d, want ceiling of 25", scrolls)
	}
}

func TestApplyServices(t *testing.T) {
	tests := []struct {
		services []string
		delivery string
		pickup   string
		shopping string
	}{
		{[]string{"Delivery"}, "Yes", "No", "No"},
		{[]string{"In-store pickup"}, "No", "Yes", "No"},
		{[]string{"In-store shopping"}, "No", "No", "Yes"},
		{[]string{"Has DELIVERY", "Curbside Pickup"}, "Yes", "Yes", "No"},
		{[]string{"Dine-in"}, "No", "No", "No"},
		{nil, "No", "No", "No"},
	}

	for _, tt := range tests {
		place := models.NewExtractedPlace()
		applyServices(place, tt.services)
		if place.StoreDelivery != tt.delivery {
			t.Errorf("services %v: delivery = %q, want %q", tt.services, place.StoreDelivery, tt.delivery)
		}
		if place.InStorePickup != tt.pickup {
			t.Errorf("services %v: pickup = %q, want %q", tt.services, place.InStorePickup, tt.pickup)
		}
		if place.StoreShopping != tt.shopping {
			t.Errorf("services %v: shopping = %q, want %q", tt.services, place.StoreShopping, tt.shopping)
		}
	}
}

func TestParseReviewsCount(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"1,234 reviews", intPtr(1234)},
		{"1 review", intPtr(1)},
		{"(852 Reviews)", intPtr(852)},
		{"no numbers here", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := parseReviewsCount(tt.in)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("parseReviewsCount(%q) = %v; want %v", tt.in, got, tt.want)
			continue
		}
		if got != nil && *got != *tt.want {
			t.Errorf("parseReviewsCount(%q) = %d; want %d", tt.in, *got, *tt.want)
		}
	}
}

func TestParseReviewsAverage(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"4.6 stars", floatPtr(4.6)},
		{"5 stars", floatPtr(5)},
		{"1,234 reviews", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := parseReviewsAverage(tt.in)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("parseReviewsAverage(%q) = %v; want %v", tt.in, got, tt.want)
			continue
		}
		if got != nil && *got != *tt.want {
			t.Errorf("parseReviewsAverage(%q) = %v; want %v", tt.in, *got, *tt.want)
		}
	}
}

func TestPlaceIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.google.com/maps/place/Cafe/data=!4m2!3m1!1s0xabc", "data=!4m2!3m1!1s0xabc"},
		{"https://example.com/a/b/", "b"},
		{"no-slashes", "no-slashes"},
	}

	for _, tt := range tests {
		if got := placeIDFromURL(tt.in); got != tt.want {
			t.Errorf("placeIDFromURL(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }
