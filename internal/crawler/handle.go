package crawler

import (
	"context"
	"sync/atomic"

	"github.com/nao1215/altscan/internal/model"
)

// Handle controls one running crawl.
type Handle struct {
	id      string
	events  chan model.Event
	cancel  context.CancelFunc
	done    chan struct{}
	status  atomic.Int32
	summary *model.Summary
	err     error
}

func newHandle(id string, cancel context.CancelFunc, buffer int) *Handle {
	h := &Handle{
		id:     id,
		events: make(chan model.Event, buffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	h.status.Store(int32(model.StatusIdle))
	return h
}

// ID returns the crawl identifier.
func (h *Handle) ID() string {
	return h.id
}

// Events returns the per-page event stream. The channel is closed after the
// summary is available.
func (h *Handle) Events() <-chan model.Event {
	return h.events
}

// Cancel stops the crawl. Results gathered so far are kept.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the crawl has terminated.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Status returns the current crawl status. It is safe to call from any
// goroutine.
func (h *Handle) Status() model.Status {
	return model.Status(h.status.Load())
}

// Wait blocks until the crawl terminates and returns its summary.
// Events must be drained concurrently, or the crawl cancelled, for Wait
// to return.
func (h *Handle) Wait() *model.Summary {
	<-h.done
	return h.summary
}

// Err returns the setup error of a Failed crawl, nil otherwise. It is only
// meaningful after Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

func (h *Handle) setStatus(s model.Status) {
	h.status.Store(int32(s))
}

// finish publishes the summary and closes the handle's channels.
func (h *Handle) finish(summary *model.Summary, err error) {
	h.summary = summary
	h.err = err
	h.setStatus(summary.Status)
	close(h.events)
	close(h.done)
	h.cancel()
}
