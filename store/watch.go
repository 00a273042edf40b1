package store

import "fmt"

// Watcher binds a side effect to the values it reads. The body runs once
// when the watcher is created and once per flush after any of its
// dependencies changed.
type Watcher struct {
	rt      *Runtime
	dep     *Dep
	fn      func() error
	handler *Handler
	runs    int
	stopped bool
}

// Watch runs fn immediately to discover its dependencies and re-runs it on
// the flush following any change to them. The error of the first run is
// returned; the watcher stays registered either way.
func (rt *Runtime) Watch(fn func() error) (*Watcher, error) {
	rt.watchers++
	name := fmt.Sprintf("watch#%d", rt.watchers)
	w := &Watcher{
		rt:  rt,
		dep: newDep(rt, name),
		fn:  fn,
	}
	w.handler = w.dep.OnDirty(name, w.run)
	return w, w.run()
}

// Watch registers fn on the default runtime.
func Watch(fn func() error) (*Watcher, error) {
	return DefaultRuntime().Watch(fn)
}

func (w *Watcher) run() error {
	if w.stopped {
		return nil
	}
	w.rt.enter(w.dep)
	defer w.rt.leave()

	w.dep.untrack()
	w.runs++
	w.rt.metrics.watchRun()

	err := w.fn()
	w.dep.isDirty = false
	if w.stopped {
		// stopped from inside its own body
		w.dep.untrack()
	}
	return err
}

// Stop detaches the watcher from everything it read and drops any run
// already queued for the next flush.
func (w *Watcher) Stop() {
	if w.stopped {
		return
	}
	w.stopped = true
	w.dep.untrack()
	w.rt.scheduler.remove(w.handler)
}

// Runs reports how many times the body has been invoked.
func (w *Watcher) Runs() int {
	return w.runs
}

func (w *Watcher) Node() *Dep {
	return w.dep
}
