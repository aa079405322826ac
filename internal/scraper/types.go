package scraper

import "context"

// Record is one resolved item for the final report.
type Record struct {
	Item  string `json:"item"`
	Stack int    `json:"stack"`
}

// RecordSink receives each record as it completes, in addition to the JSON
// file written at the end of the run. Implementations must be safe for
// concurrent use; store failures are logged by the pool and never abort the
// run.
type RecordSink interface {
	StoreRecord(ctx context.Context, runID string, rec Record) error
}
