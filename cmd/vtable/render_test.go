package main

import (
	"bytes"
	"testing"

	"github.com/delaneyj/tablestore/store"
	"github.com/delaneyj/tablestore/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvName(t *testing.T) {
	assert.Equal(t, "VTABLE_ROW_HEIGHT", envName(rowHeightKey))
	assert.Equal(t, "VTABLE_ROWS", envName(rowsKey))
}

func TestRendererStep(t *testing.T) {
	cfg := viewport.DefaultConfig()
	cfg.Rows, cfg.Cols = 1000, 20
	cfg.Width, cfg.Height = 200, 100
	tbl, err := viewport.New(store.NewRuntime(), cfg)
	require.NoError(t, err)
	cells, err := tbl.TrackCells(0)
	require.NoError(t, err)

	var out bytes.Buffer
	r := newRenderer(&out, tbl, cells)
	r.step(0)
	first := out.String()
	assert.Contains(t, first, "step 0: rows 0..2 cols 0..2")
	assert.Contains(t, first, "cells 9, slots 9, reserved +9, released +0, area 2,000 x 50,000 px")

	out.Reset()
	require.NoError(t, tbl.Scroll(100, 0))
	r.step(1)
	assert.Contains(t, out.String(), "step 1: rows 1..4 cols 0..2")
	assert.Contains(t, out.String(), "cells 12, slots 12, reserved +6, released +3")
}

func TestDigestDependsOnPlacement(t *testing.T) {
	a := []viewport.Cell{{Key: viewport.Key{X: 0, Y: 0}, Slot: 0}, {Key: viewport.Key{X: 1, Y: 0}, Slot: 1}}
	b := []viewport.Cell{{Key: viewport.Key{X: 0, Y: 0}, Slot: 1}, {Key: viewport.Key{X: 1, Y: 0}, Slot: 0}}
	assert.Equal(t, digest(a), digest(a))
	assert.NotEqual(t, digest(a), digest(b))
}
