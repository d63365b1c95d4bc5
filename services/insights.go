package services

import (
	"math"
	"sort"

	"github.com/aoztanir/email-agent/models"
	"github.com/aoztanir/email-agent/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes aggregate stats over the stored company set.
func (s *InsightService) Generate(companies []*models.Company) *models.InsightReport {
	report := &models.InsightReport{
		CompaniesByType: make(map[string]int),
	}

	if len(companies) == 0 {
		return report
	}

	report.TotalCompanies = len(companies)

	var rated []*models.Company
	var ratingTotal float64

	for _, c := range companies {
		if c.PhoneNumber != "" {
			report.WithPhone++
		}
		if c.ReviewsCount != nil {
			report.WithReviews++
		}
		if c.ReviewsAverage != nil {
			rated = append(rated, c)
			ratingTotal += *c.ReviewsAverage
		}
		if c.PlaceType != "" {
			report.CompaniesByType[c.PlaceType]++
		}
	}

	if len(rated) > 0 {
		report.AverageRating = round2(ratingTotal / float64(len(rated)))
	}

	// Top 5 by rating
	sort.Slice(rated, func(i, j int) bool {
		return *rated[i].ReviewsAverage > *rated[j].ReviewsAverage
	})
	if len(rated) > 5 {
		report.TopRated = rated[:5]
	} else {
		report.TopRated = rated
	}

	return report
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
