package services

import (
	"testing"

	"github.com/aoztanir/email-agent/models"
	"github.com/aoztanir/email-agent/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLogger() }

func intPtr(n int) *int { return &n }

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.example.com/path", "example.com"},
		{"http://www.example.com", "example.com"},
		{"example.com", "example.com"},
		{"www.example.com", "example.com"},
		{"https://Example.COM/About", "example.com"},
		{"example.com/contact?ref=maps", "example.com"},
		{"", ""},
		{" Example.COM ", "example.com"},
	}

	for _, tt := range tests {
		got := NormalizeDomain(tt.in)
		if got != tt.want {
			t.Errorf("NormalizeDomain(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeDomainSchemeInference(t *testing.T) {
	if NormalizeDomain("example.com") != NormalizeDomain("https://example.com") {
		t.Error("bare domain and https domain should normalize identically")
	}
}

func TestNormalizeDomainTotalAndIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"example.com",
		"https://www.example.com",
		"not a url at all",
		"http://[::1",
		"https://",
		"ht!tp://weird",
		"   ",
		"UPPER.CASE.TLD",
	}

	for _, in := range inputs {
		once := NormalizeDomain(in)
		twice := NormalizeDomain(once)
		if once != twice {
			t.Errorf("NormalizeDomain not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestCompaniesFiltersMissingWebsites(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	places := []*models.ExtractedPlace{
		{Name: "Has Site", Website: "https://a.com"},
		{Name: "No Site", Website: ""},
		{Name: "Blank Site", Website: "   "},
	}

	companies := n.Companies(places)
	if len(companies) != 1 {
		t.Fatalf("expected 1 company, got %d", len(companies))
	}
	if companies[0].Name != "Has Site" {
		t.Errorf("wrong company kept: %q", companies[0].Name)
	}
	if companies[0].NormalizedDomain != "a.com" {
		t.Errorf("normalized domain: got %q, want %q", companies[0].NormalizedDomain, "a.com")
	}
}

func TestCompaniesKeepsIncompletePlaces(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	// A missing address must not drop a place that has a website.
	places := []*models.ExtractedPlace{
		{Name: "Sparse", Website: "sparse.com", Address: ""},
	}

	companies := n.Companies(places)
	if len(companies) != 1 {
		t.Fatalf("expected sparse place to survive, got %d companies", len(companies))
	}
}

func TestDedupeByDomainKeepsMostComplete(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	companies := []*models.Company{
		{Name: "Sparse", NormalizedDomain: "dup.com"},
		{Name: "Rich", NormalizedDomain: "dup.com", PhoneNumber: "555-0100", Address: "1 Main St", ReviewsCount: intPtr(12)},
		{Name: "Other", NormalizedDomain: "other.com"},
	}

	deduped := n.DedupeByDomain(companies)
	if len(deduped) != 2 {
		t.Fatalf("expected 2 companies, got %d", len(deduped))
	}
	if deduped[0].Name != "Rich" {
		t.Errorf("expected most complete entry kept, got %q", deduped[0].Name)
	}
	if deduped[1].Name != "Other" {
		t.Errorf("expected first-seen order preserved, got %q second", deduped[1].Name)
	}
}

func TestDedupeByDomainTieKeepsFirstSeen(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	companies := []*models.Company{
		{Name: "First", NormalizedDomain: "tie.com", PhoneNumber: "555-0101"},
		{Name: "Second", NormalizedDomain: "tie.com", Address: "2 Side St"},
	}

	deduped := n.DedupeByDomain(companies)
	if len(deduped) != 1 {
		t.Fatalf("expected 1 company, got %d", len(deduped))
	}
	if deduped[0].Name != "First" {
		t.Errorf("tie should keep first-seen entry, got %q", deduped[0].Name)
	}
}

func TestDedupeByDomainDropsEmptyDomains(t *testing.T) {
	n := NewNormalizer(newTestLogger())

	companies := []*models.Company{
		{Name: "Keyless", NormalizedDomain: ""},
		{Name: "Keyed", NormalizedDomain: "keyed.com"},
	}

	deduped := n.DedupeByDomain(companies)
	if len(deduped) != 1 {
		t.Fatalf("expected 1 company, got %d", len(deduped))
	}
	if deduped[0].Name != "Keyed" {
		t.Errorf("expected keyless entry dropped, got %q", deduped[0].Name)
	}
}

func TestCompletenessScore(t *testing.T) {
	tests := []struct {
		name string
		c    *models.Company
		want int
	}{
		{"empty", &models.Company{}, 0},
		{"phone only", &models.Company{PhoneNumber: "555"}, 1},
		{"phone and address", &models.Company{PhoneNumber: "555", Address: "x"}, 2},
		{"all three", &models.Company{PhoneNumber: "555", Address: "x", ReviewsCount: intPtr(1)}, 3},
	}

	for _, tt := range tests {
		if got := completenessScore(tt.c); got != tt.want {
			t.Errorf("%s: completenessScore = %d; want %d", tt.name, got, tt.want)
		}
	}
}
