package utils

import (
	"reflect"
	"sync"
	"testing"
)

func TestRunLimiterBounds(t *testing.T) {
	l := NewRunLimiter(2)

	if !l.TryAcquire() {
		t.Fatal("first acquire should succeed")
	}
	if !l.TryAcquire() {
		t.Fatal("second acquire should succeed")
	}
	if l.TryAcquire() {
		t.Fatal("third acquire should fail at capacity 2")
	}

	l.Release()
	if !l.TryAcquire() {
		t.Fatal("acquire after release should succeed")
	}
}

func TestRecentSearchesOrderAndDedup(t *testing.T) {
	r := NewRecentSearches(5)
	r.Add("coffee shops")
	r.Add("plumbers")
	r.Add("coffee shops")

	want := []string{"coffee shops", "plumbers"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v; want %v", got, want)
	}
}

func TestRecentSearchesEvictsOldest(t *testing.T) {
	r := NewRecentSearches(2)
	r.Add("a")
	r.Add("b")
	r.Add("c")

	want := []string{"c", "b"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v; want %v", got, want)
	}
}

func TestRecentSearchesIgnoresEmpty(t *testing.T) {
	r := NewRecentSearches(5)
	r.Add("")
	if got := r.List(); len(got) != 0 {
		t.Errorf("empty query recorded: %v", got)
	}
}

func TestRecentSearchesConcurrentAdds(t *testing.T) {
	r := NewRecentSearches(10)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add("same query")
		}()
	}
	wg.Wait()

	if got := r.List(); len(got) != 1 {
		t.Errorf("expected 1 distinct entry, got %v", got)
	}
}
