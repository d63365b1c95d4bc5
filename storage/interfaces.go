package storage

import "github.com/aoztanir/email-agent/models"

// CompanyStore is the persistence boundary for scrape runs. The unique index
// on normalized_domain is the authoritative cross-run deduplication point.
type CompanyStore interface {
	CreatePrompt(query string, totalRequested, totalFound int) (*models.Prompt, error)
	UpsertCompanies(companies []*models.Company) ([]*models.Company, error)
	LinkPrompt(promptID string, companyIDs []int64) error
	FetchCompanies(promptID string) ([]*models.Company, error)
	Close() error
}

// RawPlaceWriter persists unfiltered extraction output.
type RawPlaceWriter interface {
	WriteRaw(places []*models.ExtractedPlace) error
	Close() error
}
