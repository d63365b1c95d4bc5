package utils

import "sync"

// RunLimiter caps the number of scrape runs executing at once. Each run owns
// its own browser session; the limiter only bounds how many Chrome instances
// exist, it never shares one between runs.
type RunLimiter struct {
	sem chan struct{}
}

// NewRunLimiter creates a limiter allowing maxRuns concurrent runs.
func NewRunLimiter(maxRuns int) *RunLimiter {
	return &RunLimiter{sem: make(chan struct{}, maxRuns)}
}

// TryAcquire claims a run slot without blocking. Returns false when the
// limiter is saturated.
func (l *RunLimiter) TryAcquire() bool {
	select {
	case l.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Release returns a previously acquired slot.
func (l *RunLimiter) Release() {
	<-l.sem
}

// RecentSearches is a bounded, thread-safe history of submitted queries,
// most recent first, without duplicates. It is injected where needed rather
// than held as process-global state.
type RecentSearches struct {
	mu      sync.RWMutex
	limit   int
	queries []string
}

// NewRecentSearches creates an empty history keeping at most limit entries.
func NewRecentSearches(limit int) *RecentSearches {
	return &RecentSearches{limit: limit}
}

// Add records a query, moving it to the front if already present and
// evicting the oldest entry beyond the limit.
func (r *RecentSearches) Add(query string) {
	if query == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, q := range r.queries {
		if q == query {
			r.queries = append(r.queries[:i], r.queries[i+1:]...)
			break
		}
	}

	r.queries = append([]string{query}, r.queries...)
	if len(r.queries) > r.limit {
		r.queries = r.queries[:r.limit]
	}
}

// List returns a copy of the history, most recent first.
func (r *RecentSearches) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.queries))
	copy(out, r.queries)
	return out
}
