package viewport

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/tablestore/store"
	"github.com/hashicorp/go-hclog"
)

// Key addresses a cell by column and row.
type Key struct {
	X, Y int
}

func compareKeys(a, b Key) int {
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.X, b.X)
}

// Cell is a materialized cell. Slots are reused: when a cell scrolls out of
// the window its slot goes back to the pool and is handed to the next cell
// that scrolls in.
type Cell struct {
	Key
	Slot int
	Rect Rect
}

type CellStats struct {
	Visible  int
	Slots    int
	Reserved int
	Released int
	Skipped  int
}

// Cells keeps the set of materialized cells in step with a table's window.
type Cells struct {
	table *Table
	log   hclog.Logger
	limit int

	slots     map[Key]int
	taken     mapset.Set[Key]
	available []int
	created   int

	reserved, released, skipped int

	watcher *store.Watcher
}

// TrackCells starts a watch that reserves a slot for every cell entering the
// window and releases the slot of every cell leaving it. A window larger than
// limit cells is ignored until it shrinks again; zero means no limit.
func (t *Table) TrackCells(limit int) (*Cells, error) {
	c := &Cells{
		table: t,
		log:   t.log.Named("cells"),
		limit: limit,
		slots: map[Key]int{},
		taken: mapset.NewThreadUnsafeSet[Key](),
	}
	w, err := t.OnWindow(c.sync)
	c.watcher = w
	return c, err
}

func (c *Cells) sync(w Window) error {
	if c.limit > 0 && w.Len() > c.limit {
		c.skipped++
		// cells past a shrunken table go regardless
		rows, cols := c.table.Rows(), c.table.Cols()
		gone := c.releaseWhere(func(k Key) bool {
			return k.X >= cols || k.Y >= rows
		})
		c.log.Warn("window too large, keeping previous cells", "window", w.String(), "cells", w.Len(), "limit", c.limit, "released", gone)
		return nil
	}

	released := c.releaseWhere(func(k Key) bool {
		return !w.Contains(k.X, k.Y)
	})

	added := 0
	for y := w.YMin; y <= w.YMax; y++ {
		for x := w.XMin; x <= w.XMax; x++ {
			k := Key{X: x, Y: y}
			if c.taken.Contains(k) {
				continue
			}
			c.reserve(k)
			added++
		}
	}

	c.log.Trace("cells synced", "window", w.String(), "released", released, "reserved", added, "slots", c.created)
	return nil
}

// releaseWhere frees the slots of every taken key matching drop, in row-major
// order, and reports how many were freed.
func (c *Cells) releaseWhere(drop func(Key) bool) int {
	stale := c.taken.ToSlice()
	stale = slices.DeleteFunc(stale, func(k Key) bool {
		return !drop(k)
	})
	slices.SortFunc(stale, compareKeys)
	for _, k := range stale {
		c.release(k)
	}
	return len(stale)
}

func (c *Cells) reserve(k Key) {
	var slot int
	if len(c.available) > 0 {
		slot = c.available[0]
		c.available = c.available[1:]
	} else {
		slot = c.created
		c.created++
	}
	c.slots[k] = slot
	c.taken.Add(k)
	c.reserved++
}

func (c *Cells) release(k Key) {
	c.available = append(c.available, c.slots[k])
	delete(c.slots, k)
	c.taken.Remove(k)
	c.released++
}

func (c *Cells) Len() int {
	return c.taken.Cardinality()
}

func (c *Cells) Get(x, y int) (Cell, bool) {
	k := Key{X: x, Y: y}
	slot, ok := c.slots[k]
	if !ok {
		return Cell{}, false
	}
	return Cell{Key: k, Slot: slot, Rect: c.table.CellRect(x, y)}, true
}

// All returns the materialized cells ordered by row, then column.
func (c *Cells) All() []Cell {
	keys := c.taken.ToSlice()
	slices.SortFunc(keys, compareKeys)
	cells := make([]Cell, 0, len(keys))
	for _, k := range keys {
		cells = append(cells, Cell{Key: k, Slot: c.slots[k], Rect: c.table.CellRect(k.X, k.Y)})
	}
	return cells
}

func (c *Cells) Stats() CellStats {
	return CellStats{
		Visible:  c.taken.Cardinality(),
		Slots:    c.created,
		Reserved: c.reserved,
		Released: c.released,
		Skipped:  c.skipped,
	}
}

// Stop detaches the tracker from the table. The current cells stay readable.
func (c *Cells) Stop() {
	if c.watcher != nil {
		c.watcher.Stop()
	}
}
