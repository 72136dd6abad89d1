package audit

import "context"

// QueueSink decouples slow downstream sinks from the emitting transaction by
// buffering events on a channel drained by a Worker.
type QueueSink struct {
	inbox chan Event
}

func NewQueueSink(size int) *QueueSink {
	if size <= 0 {
		size = 256
	}
	return &QueueSink{inbox: make(chan Event, size)}
}

// Publish enqueues the event. A full queue drops the event rather than
// blocking the transaction; the journal remains the source of truth.
func (q *QueueSink) Publish(_ context.Context, event Event) error {
	select {
	case q.inbox <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Worker drains a QueueSink into a downstream sink. Run it under the process
// run group; it returns when the context is cancelled.
type Worker struct {
	queue *QueueSink
	sink  Sink
}

func NewWorker(queue *QueueSink, sink Sink) *Worker {
	return &Worker{queue: queue, sink: sink}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.queue.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				return err
			}
		}
	}
}
