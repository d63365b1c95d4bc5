package models

// Event types emitted by the pipeline, in causal order. Later kinds may be
// skipped on early termination but are never reordered. Exactly one of
// EventComplete or EventError terminates a run.
const (
	EventStatus         = "status"
	EventWarning        = "warning"
	EventCompaniesFound = "companies_found"
	EventComplete       = "complete"
	EventError          = "error"
)

// RunSummary is the payload of the terminal complete event.
type RunSummary struct {
	PromptID        string `json:"promptId"`
	CompaniesFound  int    `json:"companiesFound"`
	CompaniesStored int    `json:"companiesStored"`
}

// Event is one progress message streamed to the caller of a scrape run.
type Event struct {
	Type      string      `json:"type"`
	Message   string      `json:"message,omitempty"`
	Stage     string      `json:"stage,omitempty"`
	Companies []*Company  `json:"companies,omitempty"`
	Data      *RunSummary `json:"data,omitempty"`
}

// Terminal reports whether the event closes the stream.
func (e *Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
