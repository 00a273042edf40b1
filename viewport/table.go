package viewport

import (
	"errors"
	"fmt"
	"sort"

	"github.com/delaneyj/tablestore/store"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

const (
	DefaultBuffer    = 20
	DefaultRowHeight = 50
	DefaultColWidth  = 100
)

var ErrInvalidConfig = errors.New("viewport: invalid config")

// Config sizes a table. All values are in pixels except Rows and Cols.
type Config struct {
	Rows, Cols       int
	RowHeight        int
	ColWidth         int
	Width, Height    int
	VBuffer, HBuffer int
}

// DefaultConfig is an empty table with the standard cell size and scroll
// buffers.
func DefaultConfig() Config {
	return Config{
		RowHeight: DefaultRowHeight,
		ColWidth:  DefaultColWidth,
		VBuffer:   DefaultBuffer,
		HBuffer:   DefaultBuffer,
	}
}

func (c Config) validate() error {
	var result *multierror.Error
	check := func(name string, v, least int) {
		if v < least {
			result = multierror.Append(result, fmt.Errorf("%w: %s must be >= %d, got %d", ErrInvalidConfig, name, least, v))
		}
	}
	check("rows", c.Rows, 0)
	check("cols", c.Cols, 0)
	check("row height", c.RowHeight, 1)
	check("col width", c.ColWidth, 1)
	check("width", c.Width, 0)
	check("height", c.Height, 0)
	check("vertical buffer", c.VBuffer, 0)
	check("horizontal buffer", c.HBuffer, 0)
	return result.ErrorOrNil()
}

// Window is the inclusive range of row (Y) and column (X) indexes that
// should be materialized for the current scroll position.
type Window struct {
	YMin, YMax int
	XMin, XMax int
}

func (w Window) Empty() bool {
	return w.YMax < w.YMin || w.XMax < w.XMin
}

func (w Window) Rows() int {
	if w.Empty() {
		return 0
	}
	return w.YMax - w.YMin + 1
}

func (w Window) Cols() int {
	if w.Empty() {
		return 0
	}
	return w.XMax - w.XMin + 1
}

// Len is the number of cells in the window.
func (w Window) Len() int {
	return w.Rows() * w.Cols()
}

func (w Window) Contains(x, y int) bool {
	return x >= w.XMin && x <= w.XMax && y >= w.YMin && y <= w.YMax
}

func (w Window) String() string {
	return fmt.Sprintf("rows %d..%d cols %d..%d", w.YMin, w.YMax, w.XMin, w.XMax)
}

// Rect is the pixel box of one cell inside the scrollable area.
type Rect struct {
	Left, Top     int
	Width, Height int
}

// Table is the layout model of a virtual table. Writes go through Update
// (or Scroll/Resize) and become visible to watchers on the next flush,
// which Update performs itself.
type Table struct {
	store *store.Store
	log   hclog.Logger
}

func New(rt *store.Runtime, cfg Config) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s, err := rt.NewStore(map[string]any{
		"vBuffer":    cfg.VBuffer,
		"hBuffer":    cfg.HBuffer,
		"scrollTop":  0,
		"scrollLeft": 0,
		"width":      cfg.Width,
		"height":     cfg.Height,
		"rows":       cfg.Rows,
		"cols":       cfg.Cols,
		"rowHeight":  cfg.RowHeight,
		"colWidth":   cfg.ColWidth,
	}, layout)
	if err != nil {
		return nil, fmt.Errorf("viewport: %w", err)
	}

	return &Table{
		store: s,
		log:   rt.Logger().Named("viewport"),
	}, nil
}

var layout = map[string]store.GetterFunc{
	"heights": func(s *store.State, _ *store.Getters) any {
		return repeat(store.As[int](s, "rows"), store.As[int](s, "rowHeight"))
	},
	"widths": func(s *store.State, _ *store.Getters) any {
		return repeat(store.As[int](s, "cols"), store.As[int](s, "colWidth"))
	},
	"vOffsets": func(_ *store.State, g *store.Getters) any {
		return offsets(store.As[[]int](g, "heights"))
	},
	"hOffsets": func(_ *store.State, g *store.Getters) any {
		return offsets(store.As[[]int](g, "widths"))
	},
	"totalHeight": func(_ *store.State, g *store.Getters) any {
		return sum(store.As[[]int](g, "heights"))
	},
	"totalWidth": func(_ *store.State, g *store.Getters) any {
		return sum(store.As[[]int](g, "widths"))
	},
	"yMinIdx": func(s *store.State, g *store.Getters) any {
		minPx := max(0, store.As[int](s, "scrollTop")-store.As[int](s, "vBuffer"))
		return firstIndex(store.As[[]int](g, "vOffsets"), minPx)
	},
	"yMaxIdx": func(s *store.State, g *store.Getters) any {
		maxPx := min(
			store.As[int](g, "totalHeight"),
			store.As[int](s, "height")+store.As[int](s, "scrollTop")+store.As[int](s, "vBuffer"),
		)
		return lastIndex(store.As[[]int](g, "vOffsets"), maxPx)
	},
	"xMinIdx": func(s *store.State, g *store.Getters) any {
		minPx := max(0, store.As[int](s, "scrollLeft")-store.As[int](s, "hBuffer"))
		return firstIndex(store.As[[]int](g, "hOffsets"), minPx)
	},
	"xMaxIdx": func(s *store.State, g *store.Getters) any {
		maxPx := min(
			store.As[int](g, "totalWidth"),
			store.As[int](s, "width")+store.As[int](s, "scrollLeft")+store.As[int](s, "hBuffer"),
		)
		return lastIndex(store.As[[]int](g, "hOffsets"), maxPx)
	},
	"window": func(_ *store.State, g *store.Getters) any {
		return Window{
			YMin: store.As[int](g, "yMinIdx"),
			YMax: store.As[int](g, "yMaxIdx"),
			XMin: store.As[int](g, "xMinIdx"),
			XMax: store.As[int](g, "xMaxIdx"),
		}
	},
}

func repeat(n, v int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// offsets returns the start position of each size.
func offsets(sizes []int) []int {
	out := make([]int, len(sizes))
	at := 0
	for i, s := range sizes {
		out[i] = at
		at += s
	}
	return out
}

func sum(sizes []int) int {
	total := 0
	for _, s := range sizes {
		total += s
	}
	return total
}

// firstIndex is the index of the span containing px. Positions past the last
// offset land on the last span.
func firstIndex(offs []int, px int) int {
	i := sort.Search(len(offs), func(i int) bool { return offs[i] > px })
	return max(i-1, 0)
}

// lastIndex is the index of the last span starting at or before px, or -1
// when there are no spans.
func lastIndex(offs []int, px int) int {
	return sort.Search(len(offs), func(i int) bool { return offs[i] > px }) - 1
}

func (t *Table) Store() *store.Store {
	return t.store
}

// Update is a partial change; nil fields are left alone.
type Update struct {
	Rows, Cols            *int
	Width, Height         *int
	ScrollTop, ScrollLeft *int
	RowHeight, ColWidth   *int
	VBuffer, HBuffer      *int
}

// Int is a convenience for building an Update.
func Int(v int) *int {
	return &v
}

// Update applies u and flushes the runtime.
func (t *Table) Update(u Update) error {
	var result *multierror.Error
	set := func(name string, v *int, least int) {
		if v == nil {
			return
		}
		if *v < least {
			result = multierror.Append(result, fmt.Errorf("%w: %s must be >= %d, got %d", ErrInvalidConfig, name, least, *v))
			return
		}
		if err := t.store.Set(name, *v); err != nil {
			result = multierror.Append(result, err)
		}
	}
	set("rows", u.Rows, 0)
	set("cols", u.Cols, 0)
	set("width", u.Width, 0)
	set("height", u.Height, 0)
	set("scrollTop", u.ScrollTop, 0)
	set("scrollLeft", u.ScrollLeft, 0)
	set("rowHeight", u.RowHeight, 1)
	set("colWidth", u.ColWidth, 1)
	set("vBuffer", u.VBuffer, 0)
	set("hBuffer", u.HBuffer, 0)

	if err := t.store.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		t.log.Error("update failed", "error", err)
		return err
	}
	return nil
}

// Scroll moves the scroll position, clamping negative values to zero.
func (t *Table) Scroll(top, left int) error {
	t.log.Trace("scroll", "top", top, "left", left)
	return t.Update(Update{ScrollTop: Int(max(top, 0)), ScrollLeft: Int(max(left, 0))})
}

func (t *Table) Resize(width, height int) error {
	t.log.Debug("resize", "width", width, "height", height)
	return t.Update(Update{Width: Int(width), Height: Int(height)})
}

// Window reads the visible index range. Inside a watch the read is tracked.
func (t *Table) Window() Window {
	return store.As[Window](t.store, "window")
}

func (t *Table) Rows() int {
	return store.As[int](t.store, "rows")
}

func (t *Table) Cols() int {
	return store.As[int](t.store, "cols")
}

func (t *Table) TotalHeight() int {
	return store.As[int](t.store, "totalHeight")
}

func (t *Table) TotalWidth() int {
	return store.As[int](t.store, "totalWidth")
}

// CellRect is the pixel box of the cell in column x, row y.
func (t *Table) CellRect(x, y int) Rect {
	return Rect{
		Left:   store.As[[]int](t.store, "hOffsets")[x],
		Top:    store.As[[]int](t.store, "vOffsets")[y],
		Width:  store.As[[]int](t.store, "widths")[x],
		Height: store.As[[]int](t.store, "heights")[y],
	}
}

// OnWindow calls fn now and after every flush in which the window changed
// or any of its inputs were invalidated.
func (t *Table) OnWindow(fn func(Window) error) (*store.Watcher, error) {
	return t.store.Watch(func() error {
		return fn(t.Window())
	})
}
