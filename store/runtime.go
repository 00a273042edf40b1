package store

import (
	"fmt"
	"slices"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/petermattis/goid"
	"github.com/prometheus/client_golang/prometheus"
)

// Runtime owns the evaluation context stack and the flush scheduler shared
// by every store, getter and watcher created on it. A Runtime is not safe
// for concurrent use.
type Runtime struct {
	stack     []*Dep
	scheduler *Scheduler

	logger  hclog.Logger
	metrics *metrics
	equal   EqualFunc

	ids      uint64
	watchers uint64

	guard bool
	owner int64
}

type runtimeConfig struct {
	logger     hclog.Logger
	equal      EqualFunc
	flushLimit int
	guard      bool
	registry   prometheus.Registerer
	metricOpts []MetricsOption
}

type Option func(*runtimeConfig)

// WithLogger sets the logger used for flush tracing. Defaults to a null logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *runtimeConfig) {
		c.logger = logger
	}
}

// WithEqual replaces StrictEqual as the change check used by State.Set.
func WithEqual(fn EqualFunc) Option {
	return func(c *runtimeConfig) {
		c.equal = fn
	}
}

// WithFlushLimit caps the number of handler runs in a single Flush.
// Zero or less disables the cap.
func WithFlushLimit(limit int) Option {
	return func(c *runtimeConfig) {
		c.flushLimit = limit
	}
}

// WithGoroutineGuard makes the runtime panic when it is entered from a
// goroutine other than the one that created it.
func WithGoroutineGuard() Option {
	return func(c *runtimeConfig) {
		c.guard = true
	}
}

// WithMetrics registers the runtime's collectors on reg.
func WithMetrics(reg prometheus.Registerer, opts ...MetricsOption) Option {
	return func(c *runtimeConfig) {
		c.registry = reg
		c.metricOpts = opts
	}
}

func NewRuntime(opts ...Option) *Runtime {
	cfg := runtimeConfig{
		flushLimit: DefaultFlushLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = hclog.NewNullLogger()
	}
	if cfg.equal == nil {
		cfg.equal = StrictEqual
	}

	rt := &Runtime{
		logger:  cfg.logger,
		equal:   cfg.equal,
		metrics: newMetrics(cfg.registry, cfg.metricOpts...),
		guard:   cfg.guard,
	}
	if rt.guard {
		rt.owner = goid.Get()
	}
	rt.scheduler = newScheduler(rt, cfg.flushLimit)
	return rt
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// DefaultRuntime is the process-wide runtime used by New, Watch and Flush.
// Everything built on it shares one pending set.
func DefaultRuntime() *Runtime {
	defaultRuntimeOnce.Do(func() {
		defaultRuntime = NewRuntime()
	})
	return defaultRuntime
}

func (rt *Runtime) nextID() uint64 {
	rt.ids++
	return rt.ids
}

func (rt *Runtime) checkOwner() {
	if !rt.guard {
		return
	}
	if gid := goid.Get(); gid != rt.owner {
		panic(fmt.Errorf("%w: owner %d, caller %d", ErrWrongGoroutine, rt.owner, gid))
	}
}

// Logger returns the logger the runtime was built with, so packages layered
// on a runtime can log under the same root.
func (rt *Runtime) Logger() hclog.Logger {
	return rt.logger
}

// Current returns the node being evaluated, or nil outside any evaluation.
func (rt *Runtime) Current() *Dep {
	if len(rt.stack) == 0 {
		return nil
	}
	return rt.stack[len(rt.stack)-1]
}

// Depth is the current evaluation nesting.
func (rt *Runtime) Depth() int {
	return len(rt.stack)
}

// enter pushes d as the current evaluation target. Re-entering a node that
// is already being evaluated is a dependency cycle; the edges recorded by the
// nodes on the cycle are dropped before panicking so that later writes do
// not go round it.
func (rt *Runtime) enter(d *Dep) {
	rt.checkOwner()
	if i := slices.Index(rt.stack, d); i != -1 {
		path := make([]string, 0, len(rt.stack)-i+1)
		for _, s := range rt.stack[i:] {
			s.untrack()
			path = append(path, s.name)
		}
		path = append(path, d.name)
		panic(&CycleError{Path: path})
	}
	rt.stack = append(rt.stack, d)
}

func (rt *Runtime) leave() {
	rt.stack[len(rt.stack)-1] = nil
	rt.stack = rt.stack[:len(rt.stack)-1]
}

// Flush drains the pending handler set. See Scheduler.Flush.
func (rt *Runtime) Flush() error {
	rt.checkOwner()
	return rt.scheduler.Flush()
}

func (rt *Runtime) Pending() int {
	return rt.scheduler.Pending()
}

// Reset clears the context stack and drops every pending handler. Stores and
// watchers keep working afterwards; only queued work is lost.
func (rt *Runtime) Reset() {
	clear(rt.stack)
	rt.stack = rt.stack[:0]
	rt.scheduler.Reset()
}

// Flush drains the default runtime.
func Flush() error {
	return DefaultRuntime().Flush()
}
