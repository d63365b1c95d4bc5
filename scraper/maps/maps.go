package maps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/aoztanir/email-agent/config"
	"github.com/aoztanir/email-agent/models"
	"github.com/aoztanir/email-agent/utils"
)

const (
	startURL = "https://www.google.com/maps"

	// listingSelector matches one rendered search-result anchor.
	listingSelector   = `a[href*="/maps/place"]`
	searchBoxSelector = `input#searchboxinput`
)

var (
	// reviewsCountRegexp captures "1,234 reviews"
	reviewsCountRegexp = regexp.MustCompile(`(?i)([\d,]+)\s*reviews?`)
	// reviewsAvgRegexp captures "4.6 stars"
	reviewsAvgRegexp = regexp.MustCompile(`(?i)([\d.]+)\s*stars?`)
)

// Scraper owns one headless browser session per Scrape call and drives
// discovery and per-listing extraction against the dynamic results page.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
}

// New creates a ready-to-use maps Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{cfg: cfg, logger: logger}
}

// Scrape runs one full discovery-and-extraction pass for query. The browser
// and its single tab live exactly as long as this call; both are released on
// every exit path. Launch or initial-results failures are fatal, individual
// listing failures are logged and skipped.
func (s *Scraper) Scrape(ctx context.Context, query string, total int) ([]*models.ExtractedPlace, error) {
	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[maps] Starting scrape — query: %q, target: %d, browser: %s", query, total, chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise. This context owns the single tab used
	// for the whole run; no other goroutine may touch it.
	pageCtx, cancelPage := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelPage()

	if err := s.openResults(pageCtx, query); err != nil {
		return nil, fmt.Errorf("maps: open results for %q: %w", query, err)
	}

	visible, err := s.discoverListings(pageCtx, total)
	if err != nil {
		return nil, fmt.Errorf("maps: discover listings: %w", err)
	}
	s.logger.Info("[maps] Discovery done — %d listings visible", visible)

	places := s.extractListings(pageCtx, min(total, visible))
	s.logger.Info("[maps] Scrape complete — extracted %d of %d listings", len(places), min(total, visible))
	return places, nil
}

// openResults navigates to the search surface, submits the query, and waits
// for the first result anchor to render. Failing this wait fails the run.
func (s *Scraper) openResults(ctx context.Context, query string) error {
	err := chromedp.Run(ctx,
		chromedp.Navigate(startURL),
		chromedp.WaitVisible(searchBoxSelector, chromedp.ByQuery),
		chromedp.SendKeys(searchBoxSelector, query+kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("submit query: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ResultsWaitSec)*time.Second)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(listingSelector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for first result: %w", err)
	}
	return nil
}

// discoverListings scrolls the results feed until at least total anchors are
// visible, growth stalls, or the iteration ceiling is hit. Returns the final
// visible count.
func (s *Scraper) discoverListings(ctx context.Context, total int) (int, error) {
	delay := time.Duration(s.cfg.ScrollDelayMs) * time.Millisecond

	return discover(
		func() error { return s.scrollResults(ctx) },
		func() (int, error) { return s.countVisible(ctx) },
		func() { _ = chromedp.Run(ctx, chromedp.Sleep(delay)) },
		total,
		s.cfg.MaxScrollIters,
	)
}

// discover is the pagination core, factored out so stall and ceiling
// behavior can be exercised without a browser. It stops when the visible
// count reaches total, when a scroll produces no new anchors (the provider
// has nothing more to lazily load), or after maxIters scrolls.
func discover(scroll func() error, count func() (int, error), pause func(), total, maxIters int) (int, error) {
	visible, err := count()
	if err != nil {
		return 0, err
	}

	for iter := 0; visible < total && iter < maxIters; iter++ {
		if err := scroll(); err != nil {
			return visible, err
		}
		pause()

		n, err := count()
		if err != nil {
			return visible, err
		}
		if n == visible {
			// Stall: nothing new rendered since the last scroll.
			return n, nil
		}
		visible = n
	}
	return visible, nil
}

func (s *Scraper) scrollResults(ctx context.Context) error {
	return chromedp.Run(ctx, chromedp.Evaluate(`
		(function() {
			var feed = document.querySelector('div[role="feed"]');
			if (feed) {
				feed.scrollTop = feed.scrollHeight;
			} else {
				window.scrollBy(0, 10000);
			}
		})()
	`, nil))
}

func (s *Scraper) countVisible(ctx context.Context) (int, error) {
	var n int
	err := chromedp.Run(ctx, chromedp.Evaluate(
		`document.querySelectorAll('a[href*="/maps/place"]').length`, &n))
	return n, err
}

// extractListings walks the first limit candidates in discovery order, one
// at a time. Clicking a candidate replaces the shared detail panel, so this
// is strictly sequential. A listing whose detail view never loads is dropped
// with a warning; the batch continues.
func (s *Scraper) extractListings(ctx context.Context, limit int) []*models.ExtractedPlace {
	places := make([]*models.ExtractedPlace, 0, limit)

	for i := 0; i < limit; i++ {
		place, err := s.extractListing(ctx, i)
		if err != nil {
			s.logger.Warn("[maps] Listing %d/%d failed: %v — skipping", i+1, limit, err)
			continue
		}
		places = append(places, place)
		s.logger.Debug("[maps] Extracted %d/%d: %q", i+1, limit, place.Name)
	}
	return places
}

// detailData mirrors the per-field guarded reads done in-page. Every field
// defaults to empty when its element is absent.
type detailData struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Website      string   `json:"website"`
	Phone        string   `json:"phone"`
	ReviewsText  string   `json:"reviews_text"`
	RatingText   string   `json:"rating_text"`
	PlaceType    string   `json:"place_type"`
	OpensAt      string   `json:"opens_at"`
	Introduction string   `json:"introduction"`
	Services     []string `json:"services"`
}

func (s *Scraper) extractListing(ctx context.Context, idx int) (*models.ExtractedPlace, error) {
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`
		(function() {
			var anchors = document.querySelectorAll('a[href*="/maps/place"]');
			if (anchors[%d]) anchors[%d].click();
		})()
	`, idx, idx), nil)); err != nil {
		return nil, fmt.Errorf("click listing: %w", err)
	}

	// The detail heading is the only gate: if it never appears the listing
	// is abandoned. Everything after it is best-effort.
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.DetailWaitSec)*time.Second)
	defer cancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible("h1", chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("wait for detail heading: %w", err)
	}

	place := models.NewExtractedPlace()

	var details detailData
	var detailURL string
	err := chromedp.Run(ctx,
		// Let the secondary detail panels hydrate after the heading lands.
		chromedp.Sleep(time.Second),
		chromedp.Location(&detailURL),
		chromedp.Evaluate(`
			(function() {
				var r = {
					name: '', address: '', website: '', phone: '',
					reviews_text: '', rating_text: '',
					place_type: '', opens_at: '', introduction: '',
					services: []
				};
				var pick = function(sel) {
					var el = document.querySelector(sel);
					return el ? (el.innerText || el.textContent || '').trim() : '';
				};

				r.name = pick('h1');
				r.address = pick('button[data-item-id="address"] div');
				r.website = pick('a[data-item-id="authority"] div');
				r.phone = pick('button[data-item-id*="phone"] div');

				var revEl = document.querySelector('[data-value="Reviews"] span');
				if (revEl) {
					r.reviews_text = revEl.innerText || revEl.textContent || '';
					if (revEl.parentElement) {
						r.rating_text = revEl.parentElement.textContent || '';
					}
				}

				r.place_type = pick('[data-value="Category"] .Io6YTe');
				r.opens_at = pick('[data-value="Open hours"] .ZDu9vd span');
				r.introduction = pick('[data-value="About"] .PYvSYb');

				var svc = document.querySelectorAll('[data-value*="service"] .Io6YTe');
				for (var i = 0; i < svc.length; i++) {
					var t = (svc[i].textContent || '').trim();
					if (t) r.services.push(t);
				}
				return r;
			})()
		`, &details),
	)
	if err != nil {
		// Heading appeared but the batched reads failed; keep the place
		// with defaults rather than dropping it.
		s.logger.Warn("[maps] Detail reads failed for listing %d: %v", idx+1, err)
		return place, nil
	}

	place.Name = details.Name
	place.Address = details.Address
	place.Website = details.Website
	place.PhoneNumber = details.Phone
	place.PlaceType = details.PlaceType
	place.OpensAt = details.OpensAt
	place.Introduction = details.Introduction
	place.PlaceID = placeIDFromURL(detailURL)
	place.ReviewsCount = parseReviewsCount(details.ReviewsText)
	place.ReviewsAverage = parseReviewsAverage(details.RatingText)
	applyServices(place, details.Services)

	return place, nil
}

// placeIDFromURL derives the place identifier from the detail view's URL
// path segment.
func placeIDFromURL(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// parseReviewsCount pulls an integer out of text like "1,234 reviews".
// Returns nil when no count is present or parseable.
func parseReviewsCount(text string) *int {
	m := reviewsCountRegexp.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

// parseReviewsAverage pulls a float out of text like "4.6 stars".
func parseReviewsAverage(text string) *float64 {
	m := reviewsAvgRegexp.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &f
}

// applyServices flips the Yes/No service flags by case-insensitive substring
// match over the detail view's service tags.
func applyServices(place *models.ExtractedPlace, services []string) {
	for _, svc := range services {
		lower := strings.ToLower(svc)
		if strings.Contains(lower, "delivery") {
			place.StoreDelivery = "Yes"
		}
		if strings.Contains(lower, "pickup") {
			place.InStorePickup = "Yes"
		}
		if strings.Contains(lower, "shopping") {
			place.StoreShopping = "Yes"
		}
	}
}

// findChromeBinary locates the Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
