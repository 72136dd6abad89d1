package audit

import "errors"

// ErrQueueFull is returned when a QueueSink cannot accept more events. The
// journal append has already succeeded by then, so callers only log it.
var ErrQueueFull = errors.New("audit queue full")
