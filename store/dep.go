package store

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Dep is a node in the dependency graph. Every state field, getter and
// watcher owns exactly one.
type Dep struct {
	rt   *Runtime
	id   uint64
	name string

	isDirty bool

	// nodes that read this one while they were being evaluated
	subscribers []*Dep
	// inverse of subscribers, used to drop edges before re-evaluation
	providers mapset.Set[*Dep]

	dirtyHandlers []*Handler
}

func newDep(rt *Runtime, name string) *Dep {
	return &Dep{
		rt:        rt,
		id:        rt.nextID(),
		name:      name,
		providers: mapset.NewThreadUnsafeSet[*Dep](),
	}
}

func (d *Dep) ID() uint64 {
	return d.id
}

func (d *Dep) Name() string {
	return d.name
}

func (d *Dep) IsDirty() bool {
	return d.isDirty
}

// Depend registers the node currently being evaluated, if any, as a
// subscriber of d.
func (d *Dep) Depend() {
	target := d.rt.Current()
	if target == nil || target == d {
		return
	}
	if slices.Contains(d.subscribers, target) {
		return
	}
	d.subscribers = append(d.subscribers, target)
	target.providers.Add(d)
}

// Notify invalidates every subscriber. d itself is left untouched.
func (d *Dep) Notify() {
	// subscribers may re-wire while we walk them
	subs := slices.Clone(d.subscribers)
	for _, sub := range subs {
		sub.TriggerUpdate()
	}
}

// TriggerUpdate marks d dirty, queues its dirty handlers for the next flush
// and propagates the invalidation downstream. A node that is already dirty
// has already invalidated its subscribers, so propagation stops there.
func (d *Dep) TriggerUpdate() {
	wasDirty := d.isDirty
	d.isDirty = true
	for _, h := range d.dirtyHandlers {
		d.rt.scheduler.Enqueue(h)
	}
	if wasDirty {
		return
	}
	d.Notify()
}

// OnDirty registers fn to be queued every time d becomes dirty.
func (d *Dep) OnDirty(name string, fn func() error) *Handler {
	h := &Handler{
		id:   d.rt.nextID(),
		name: name,
		fn:   fn,
	}
	d.dirtyHandlers = append(d.dirtyHandlers, h)
	return h
}

func (d *Dep) Subscribers() []*Dep {
	return slices.Clone(d.subscribers)
}

func (d *Dep) Providers() []*Dep {
	providers := d.providers.ToSlice()
	slices.SortFunc(providers, func(a, b *Dep) int {
		return cmp.Compare(a.id, b.id)
	})
	return providers
}

// untrack removes every edge recorded from d's previous evaluation.
func (d *Dep) untrack() {
	d.providers.Each(func(p *Dep) bool {
		if i := slices.Index(p.subscribers, d); i != -1 {
			p.subscribers = slices.Delete(p.subscribers, i, i+1)
		}
		return false
	})
	d.providers.Clear()
}
