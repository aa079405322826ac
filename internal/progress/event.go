package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageRunStart Stage = "RUN_START"
	StageItemDone Stage = "ITEM_DONE"
	StageRunDone  Stage = "RUN_DONE"
)

// Result labels for RUN_DONE events.
const (
	ResultCompleted   = "completed"
	ResultInterrupted = "interrupted"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Supported HTTP status classes tracked for item fetches.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single milestone of a scrape run.
type Event struct {
	// RunID identifies the run the event belongs to.
	RunID string
	// TS is the timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Item is the item name for ITEM_DONE events.
	Item string
	// URL is the detail page URL for ITEM_DONE events.
	URL string
	// StatusClass groups the HTTP status of the item fetch.
	StatusClass StatusClass
	// Stack is the stack size recorded for the item.
	Stack int
	// Items carries the completed-item count so far; final for RUN_DONE.
	Items int64
	// Dur captures item latency, or the run's elapsed time on RUN_DONE.
	Dur time.Duration
	// Result labels RUN_DONE events as completed or interrupted.
	Result string
	// Note lets emitters attach low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart:
	case StageItemDone:
		if e.Item == "" {
			return errors.New("item done requires an item name")
		}
		if e.StatusClass == "" {
			return errors.New("item done requires a status class")
		}
	case StageRunDone:
		if e.Result == "" {
			return errors.New("run done requires a result")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// Classify groups HTTP status codes for item events.
func Classify(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
