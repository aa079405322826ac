package scraper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Results collects completed records across workers. Save seals the
// collector so a late worker cannot mutate the report after it is written.
type Results struct {
	mu     sync.Mutex
	sealed bool
	recs   []Record
}

// NewResults returns an empty collector.
func NewResults() *Results {
	return &Results{recs: make([]Record, 0, 256)}
}

// Append stores rec and reports whether it was accepted. It returns false
// once the collector has been sealed by Save.
func (r *Results) Append(rec Record) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return false
	}
	r.recs = append(r.recs, rec)
	return true
}

// Len reports the number of records collected so far.
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recs)
}

// Snapshot returns a copy of the collected records.
func (r *Results) Snapshot() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.recs))
	copy(out, r.recs)
	return out
}

// Save seals the collector and writes the records to path as an indented
// JSON array, overwriting any previous file. An empty collector writes "[]".
func (r *Results) Save(path string) error {
	r.mu.Lock()
	r.sealed = true
	recs := make([]Record, len(r.recs))
	copy(recs, r.recs)
	r.mu.Unlock()

	payload, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write results %s: %w", path, err)
	}
	return nil
}
