package viewport_test

import (
	"testing"

	"github.com/delaneyj/tablestore/store"
	"github.com/delaneyj/tablestore/viewport"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellsRecycleSlots(t *testing.T) {
	tbl := newTable(t, store.NewRuntime())
	cells, err := tbl.TrackCells(0)
	require.NoError(t, err)

	// rows 0..6, cols 0..4
	assert.Equal(t, viewport.CellStats{Visible: 35, Slots: 35, Reserved: 35}, cells.Stats())
	c, ok := cells.Get(4, 6)
	require.True(t, ok)
	assert.Equal(t, 34, c.Slot)
	assert.Equal(t, viewport.Rect{Left: 400, Top: 300, Width: 100, Height: 50}, c.Rect)

	// row 7 scrolls in, nothing leaves
	require.NoError(t, tbl.Scroll(50, 0))
	assert.Equal(t, viewport.CellStats{Visible: 40, Slots: 40, Reserved: 40}, cells.Stats())

	// rows 0..2 leave, rows 8..10 take over their slots in order
	require.NoError(t, tbl.Scroll(200, 0))
	assert.Equal(t, viewport.CellStats{Visible: 40, Slots: 40, Reserved: 55, Released: 15}, cells.Stats())

	_, ok = cells.Get(0, 0)
	assert.False(t, ok)
	c, ok = cells.Get(0, 8)
	require.True(t, ok)
	assert.Equal(t, 0, c.Slot)
	assert.Equal(t, 400, c.Rect.Top)
	c, ok = cells.Get(4, 10)
	require.True(t, ok)
	assert.Equal(t, 14, c.Slot)
}

func TestCellsAllIsRowMajor(t *testing.T) {
	tbl := newTable(t, store.NewRuntime())
	require.NoError(t, tbl.Resize(150, 60))
	cells, err := tbl.TrackCells(0)
	require.NoError(t, err)

	// y: 0..80px -> rows 0..1, x: 0..170px -> cols 0..1
	var keys []viewport.Key
	for _, c := range cells.All() {
		keys = append(keys, c.Key)
	}
	want := []viewport.Key{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, cells.Len())
}

func TestCellsLimit(t *testing.T) {
	tbl := newTable(t, store.NewRuntime())
	cells, err := tbl.TrackCells(20)
	require.NoError(t, err)
	assert.Equal(t, 0, cells.Len())
	assert.Equal(t, 1, cells.Stats().Skipped)

	// y: 0..120px -> rows 0..2, x: 0..120px -> cols 0..1
	require.NoError(t, tbl.Resize(100, 100))
	assert.Equal(t, 6, cells.Len())
	assert.Equal(t, 1, cells.Stats().Skipped)
}

func TestCellsLimitStillDropsCellsPastTheTable(t *testing.T) {
	tbl := newTable(t, store.NewRuntime())
	cells, err := tbl.TrackCells(20)
	require.NoError(t, err)
	require.NoError(t, tbl.Resize(100, 100))
	require.Equal(t, 6, cells.Len())

	// one column, 41 rows tall: over the limit, but column 1 no longer exists
	require.NoError(t, tbl.Update(viewport.Update{Cols: viewport.Int(1), Height: viewport.Int(2000)}))
	assert.Equal(t, viewport.CellStats{Visible: 3, Slots: 6, Reserved: 6, Released: 3, Skipped: 2}, cells.Stats())

	_, ok := cells.Get(1, 0)
	assert.False(t, ok)
	var keys []viewport.Key
	require.NotPanics(t, func() {
		for _, c := range cells.All() {
			keys = append(keys, c.Key)
		}
	})
	want := []viewport.Key{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestCellsStop(t *testing.T) {
	tbl := newTable(t, store.NewRuntime())
	cells, err := tbl.TrackCells(0)
	require.NoError(t, err)
	cells.Stop()

	require.NoError(t, tbl.Scroll(2000, 0))
	assert.Equal(t, 35, cells.Len())
	_, ok := cells.Get(0, 0)
	assert.True(t, ok)
}

func TestCellsFollowRowCount(t *testing.T) {
	tbl := newTable(t, store.NewRuntime())
	cells, err := tbl.TrackCells(0)
	require.NoError(t, err)

	require.NoError(t, tbl.Update(viewport.Update{Rows: viewport.Int(2)}))
	assert.Equal(t, 10, cells.Len())
	assert.Equal(t, 25, cells.Stats().Released)

	require.NoError(t, tbl.Update(viewport.Update{Rows: viewport.Int(0)}))
	assert.Equal(t, 0, cells.Len())
	assert.Empty(t, cells.All())
}
