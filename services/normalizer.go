package services

import (
	"net/url"
	"strings"

	"github.com/aoztanir/email-agent/models"
	"github.com/aoztanir/email-agent/utils"
)

// Normalizer turns extracted places into companies keyed by normalized
// domain and collapses duplicates within a run.
type Normalizer struct {
	logger *utils.Logger
}

// NewNormalizer creates a Normalizer with the given logger.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeDomain canonicalizes a website string into a comparable domain
// key: scheme inferred when missing, hostname lowercased, leading "www."
// stripped. It is total over strings — malformed input falls back to the
// lowercased, trimmed raw value, and empty input yields empty output.
func NormalizeDomain(website string) string {
	if website == "" {
		return ""
	}

	raw := website
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return strings.ToLower(strings.TrimSpace(website))
	}

	domain := strings.ToLower(parsed.Hostname())
	domain = strings.TrimPrefix(domain, "www.")
	return domain
}

// Companies filters places down to those with a website and attaches the
// normalized domain. Places without a website cannot be deduplicated or
// persisted and are excluded here.
func (n *Normalizer) Companies(places []*models.ExtractedPlace) []*models.Company {
	companies := make([]*models.Company, 0, len(places))

	for _, p := range places {
		if strings.TrimSpace(p.Website) == "" {
			n.logger.Debug("[normalizer] Skipping %q — no website", p.Name)
			continue
		}

		companies = append(companies, &models.Company{
			Name:             p.Name,
			Address:          p.Address,
			Website:          p.Website,
			NormalizedDomain: NormalizeDomain(p.Website),
			PhoneNumber:      p.PhoneNumber,
			ReviewsCount:     p.ReviewsCount,
			ReviewsAverage:   p.ReviewsAverage,
			StoreShopping:    p.StoreShopping,
			InStorePickup:    p.InStorePickup,
			StoreDelivery:    p.StoreDelivery,
			PlaceType:        p.PlaceType,
			OpensAt:          p.OpensAt,
			Introduction:     p.Introduction,
		})
	}

	n.logger.Info("[normalizer] %d of %d places carry a website", len(companies), len(places))
	return companies
}

// DedupeByDomain collapses companies sharing a normalized domain to the one
// with the most complete record; ties keep the first-seen entry. Entries
// with an empty domain are dropped — they cannot be keyed. Output preserves
// first-seen order.
func (n *Normalizer) DedupeByDomain(companies []*models.Company) []*models.Company {
	best := make(map[string]*models.Company)
	order := make([]string, 0, len(companies))

	for _, c := range companies {
		if c.NormalizedDomain == "" {
			n.logger.Debug("[normalizer] Dropping %q — empty normalized domain", c.Name)
			continue
		}

		existing, seen := best[c.NormalizedDomain]
		if !seen {
			best[c.NormalizedDomain] = c
			order = append(order, c.NormalizedDomain)
			continue
		}
		if completenessScore(c) > completenessScore(existing) {
			best[c.NormalizedDomain] = c
		}
	}

	result := make([]*models.Company, 0, len(order))
	for _, domain := range order {
		result = append(result, best[domain])
	}

	if len(result) < len(companies) {
		n.logger.Info("[normalizer] Deduplicated %d → %d companies", len(companies), len(result))
	}
	return result
}

// completenessScore counts the populated fields used to arbitrate between
// duplicate domains: phone, address, reviews count.
func completenessScore(c *models.Company) int {
	score := 0
	if c.PhoneNumber != "" {
		score++
	}
	if c.Address != "" {
		score++
	}
	if c.ReviewsCount != nil {
		score++
	}
	return score
}
