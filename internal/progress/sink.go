package progress

import "context"

// Sink consumes progress events. Implementations must honor ctx deadlines;
// the hub invokes them from its background goroutine only.
type Sink interface {
	Consume(ctx context.Context, evt Event) error
	Close(ctx context.Context) error
}

// Emitter publishes individual events; Hub satisfies this interface so the
// worker pool stays agnostic about how events are buffered or exported.
type Emitter interface {
	Emit(evt Event)
}
