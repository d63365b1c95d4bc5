package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/aoztanir/email-agent/models"
)

// CSVWriter dumps raw (unfiltered) extracted places to a CSV file.
// It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write([]string{
		"name", "address", "website", "phone_number", "place_id",
		"reviews_count", "reviews_average", "store_shopping", "in_store_pickup",
		"store_delivery", "place_type", "opens_at", "introduction", "scraped_at",
	}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteRaw appends every extracted place of a run, before filtering.
func (c *CSVWriter) WriteRaw(places []*models.ExtractedPlace) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range places {
		row := []string{
			p.Name,
			p.Address,
			p.Website,
			p.PhoneNumber,
			p.PlaceID,
			formatIntPtr(p.ReviewsCount),
			formatFloatPtr(p.ReviewsAverage),
			p.StoreShopping,
			p.InStorePickup,
			p.StoreDelivery,
			p.PlaceType,
			p.OpensAt,
			p.Introduction,
			p.ScrapedAt.Format(time.RFC3339),
		}
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
