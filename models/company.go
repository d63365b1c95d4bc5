package models

import "time"

// ExtractedPlace holds the raw fields read from one listing's detail view.
// Every field is best-effort: a missing element leaves the zero default,
// it never drops the place. This is written to CSV before any filtering.
type ExtractedPlace struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Website        string   `json:"website"`
	PhoneNumber    string   `json:"phone_number"`
	PlaceID        string   `json:"place_id"`
	ReviewsCount   *int     `json:"reviews_count"`
	ReviewsAverage *float64 `json:"reviews_average"`
	StoreShopping  string   `json:"store_shopping"`
	InStorePickup  string   `json:"in_store_pickup"`
	StoreDelivery  string   `json:"store_delivery"`
	PlaceType      string   `json:"place_type"`
	OpensAt        string   `json:"opens_at"`
	Introduction   string   `json:"introduction"`

	ScrapedAt time.Time `json:"-"`
}

// NewExtractedPlace returns a place with the documented defaults applied.
func NewExtractedPlace() *ExtractedPlace {
	return &ExtractedPlace{
		StoreShopping: "No",
		InStorePickup: "No",
		StoreDelivery: "No",
		ScrapedAt:     time.Now(),
	}
}

// Company is an extracted place with a website, keyed by its normalized
// domain. This is the record persisted to PostgreSQL and returned to clients.
type Company struct {
	ID               int64     `json:"id,omitempty"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Website          string    `json:"website"`
	NormalizedDomain string    `json:"normalized_domain"`
	PhoneNumber      string    `json:"phone_number"`
	ReviewsCount     *int      `json:"reviews_count"`
	ReviewsAverage   *float64  `json:"reviews_average"`
	StoreShopping    string    `json:"store_shopping"`
	InStorePickup    string    `json:"in_store_pickup"`
	StoreDelivery    string    `json:"store_delivery"`
	PlaceType        string    `json:"place_type"`
	OpensAt          string    `json:"opens_at"`
	Introduction     string    `json:"introduction"`
	CreatedAt        time.Time `json:"created_at,omitempty"`
	UpdatedAt        time.Time `json:"updated_at,omitempty"`
}

// InsightReport holds the computed analytics over the stored company set.
type InsightReport struct {
	TotalCompanies  int            `json:"total_companies"`
	WithPhone       int            `json:"with_phone"`
	WithReviews     int            `json:"with_reviews"`
	AverageRating   float64        `json:"average_rating"`
	TopRated        []*Company     `json:"top_rated"`
	CompaniesByType map[string]int `json:"companies_by_type"`
}

// Prompt records one search run: what was asked for and what came back.
type Prompt struct {
	ID             string
	QueryText      string
	TotalRequested int
	TotalFound     int
	CreatedAt      time.Time
}
