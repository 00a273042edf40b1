package store

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/go-multierror"
)

const DefaultFlushLimit = 10_000

// Handler is a dirty-handler callback queued on a Scheduler.
type Handler struct {
	id   uint64
	name string
	fn   func() error
}

func (h *Handler) Name() string {
	return h.name
}

// Scheduler is an insertion-ordered set of pending handlers. Mutations only
// enqueue; nothing runs until Flush.
type Scheduler struct {
	rt      *Runtime
	queue   []*Handler
	pending mapset.Set[*Handler]
	limit   int
	running bool
}

func newScheduler(rt *Runtime, limit int) *Scheduler {
	return &Scheduler{
		rt:      rt,
		pending: mapset.NewThreadUnsafeSet[*Handler](),
		limit:   limit,
	}
}

// Enqueue adds h unless it is already pending.
func (s *Scheduler) Enqueue(h *Handler) {
	if !s.pending.Add(h) {
		return
	}
	s.queue = append(s.queue, h)
	s.rt.metrics.pending(s.pending.Cardinality())
}

func (s *Scheduler) remove(h *Handler) {
	if !s.pending.Contains(h) {
		return
	}
	s.pending.Remove(h)
	for i, q := range s.queue {
		if q == h {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.rt.metrics.pending(s.pending.Cardinality())
}

func (s *Scheduler) Pending() int {
	return s.pending.Cardinality()
}

func (s *Scheduler) Reset() {
	s.queue = nil
	s.pending.Clear()
	s.running = false
	s.rt.metrics.pending(0)
}

// Flush runs every pending handler once, in the order they were queued.
// A handler is removed before it runs, so one that queues itself again is
// run again in the same flush. Failing handlers do not stop the others;
// their errors are returned together.
func (s *Scheduler) Flush() error {
	if s.running || len(s.queue) == 0 {
		return nil
	}
	s.running = true
	defer func() {
		s.running = false
	}()

	log := s.rt.logger
	log.Trace("flush start", "pending", len(s.queue))
	s.rt.metrics.flush()

	var result *multierror.Error
	runs := 0
	for len(s.queue) > 0 {
		if s.limit > 0 && runs >= s.limit {
			log.Warn("flush limit reached, dropping pending handlers", "limit", s.limit, "dropped", len(s.queue))
			result = multierror.Append(result, fmt.Errorf("%w: %d runs, %d still pending", ErrFlushLimit, runs, len(s.queue)))
			s.queue = nil
			s.pending.Clear()
			break
		}

		h := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.pending.Remove(h)
		runs++

		if err := s.run(h); err != nil {
			log.Debug("handler failed", "handler", h.name, "error", err)
			s.rt.metrics.handlerError()
			result = multierror.Append(result, err)
		}
	}
	s.queue = nil
	s.rt.metrics.handlerRuns(runs)
	s.rt.metrics.pending(0)

	log.Trace("flush done", "runs", runs)
	return result.ErrorOrNil()
}

func (s *Scheduler) run(h *Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerPanicError{Handler: h.name, Value: r}
		}
	}()
	return h.fn()
}
