package services

import (
	"context"
	"fmt"

	"github.com/aoztanir/email-agent/models"
	"github.com/aoztanir/email-agent/utils"
)

// PlaceScraper produces extracted places for one query.
type PlaceScraper interface {
	Scrape(ctx context.Context, query string, total int) ([]*models.ExtractedPlace, error)
}

// CompanyStore is the slice of the persistence boundary the pipeline needs.
type CompanyStore interface {
	CreatePrompt(query string, totalRequested, totalFound int) (*models.Prompt, error)
	UpsertCompanies(companies []*models.Company) ([]*models.Company, error)
	LinkPrompt(promptID string, companyIDs []int64) error
}

// RawPlaceWriter receives every extracted place before filtering.
type RawPlaceWriter interface {
	WriteRaw(places []*models.ExtractedPlace) error
}

// Pipeline wraps one scrape run in an event stream: scrape, filter,
// normalize, deduplicate, persist, reporting each stage as it happens.
type Pipeline struct {
	scraper    PlaceScraper
	store      CompanyStore
	normalizer *Normalizer
	raw        RawPlaceWriter
	logger     *utils.Logger
}

// NewPipeline creates a Pipeline. raw may be nil to skip the raw CSV dump.
func NewPipeline(scraper PlaceScraper, store CompanyStore, raw RawPlaceWriter, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		scraper:    scraper,
		store:      store,
		normalizer: NewNormalizer(logger),
		raw:        raw,
		logger:     logger,
	}
}

// Run executes the pipeline for one query and streams progress events on the
// returned channel. Events arrive in emission order; exactly one terminal
// event (complete or error) is emitted, then the channel closes — on every
// path, including panics anywhere in the run.
func (p *Pipeline) Run(ctx context.Context, query string, total int) <-chan *models.Event {
	events := make(chan *models.Event, 8)

	go func() {
		defer close(events)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("[pipeline] Run panicked: %v", r)
				select {
				case events <- &models.Event{Type: models.EventError, Message: fmt.Sprintf("internal error: %v", r)}:
				case <-ctx.Done():
				}
			}
		}()

		p.run(ctx, query, total, events)
	}()

	return events
}

func (p *Pipeline) run(ctx context.Context, query string, total int, events chan<- *models.Event) {
	// emit reports false when the consumer is gone; the run stops quietly
	// in that case since nobody can observe further events.
	emit := func(e *models.Event) bool {
		select {
		case events <- e:
			return true
		case <-ctx.Done():
			p.logger.Warn("[pipeline] Consumer gone, dropping %s event for %q", e.Type, query)
			return false
		}
	}
	fail := func(err error) {
		p.logger.Error("[pipeline] Run failed for %q: %v", query, err)
		emit(&models.Event{Type: models.EventError, Message: fmt.Sprintf("An error occurred: %v", err)})
	}

	if !emit(&models.Event{Type: models.EventStatus, Message: "Discovering new companies...", Stage: "scraping"}) {
		return
	}

	places, err := p.scraper.Scrape(ctx, query, total)
	if err != nil {
		fail(err)
		return
	}

	if p.raw != nil {
		// Raw dump is observability, not pipeline output; failure here
		// must not take down the run.
		if err := p.raw.WriteRaw(places); err != nil {
			p.logger.Warn("[pipeline] Raw CSV write failed: %v", err)
		}
	}

	companies := p.normalizer.Companies(places)
	if len(companies) == 0 {
		// A valid empty outcome, not a failure.
		emit(&models.Event{Type: models.EventWarning, Message: "No companies with websites found."})
		emit(&models.Event{Type: models.EventComplete, Message: "Process completed with no results."})
		return
	}

	deduped := p.normalizer.DedupeByDomain(companies)

	if !emit(&models.Event{Type: models.EventStatus, Message: "Storing discovered companies...", Stage: "storing"}) {
		return
	}

	prompt, err := p.store.CreatePrompt(query, total, len(companies))
	if err != nil {
		fail(err)
		return
	}

	stored, err := p.store.UpsertCompanies(deduped)
	if err != nil {
		fail(err)
		return
	}

	if !emit(&models.Event{Type: models.EventCompaniesFound, Companies: stored}) {
		return
	}

	if len(stored) == 0 {
		emit(&models.Event{Type: models.EventWarning, Message: "Companies were processed but no data returned from database."})
	} else {
		ids := make([]int64, 0, len(stored))
		for _, c := range stored {
			ids = append(ids, c.ID)
		}
		if err := p.store.LinkPrompt(prompt.ID, ids); err != nil {
			fail(err)
			return
		}
	}

	emit(&models.Event{
		Type:    models.EventComplete,
		Message: "Process completed successfully.",
		Data: &models.RunSummary{
			PromptID:        prompt.ID,
			CompaniesFound:  len(companies),
			CompaniesStored: len(stored),
		},
	})
}
