package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/tablestore/viewport"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

func envName(flag string) string {
	return "VTABLE_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

type renderer struct {
	out   io.Writer
	tbl   *viewport.Table
	cells *viewport.Cells
	last  viewport.CellStats
}

func newRenderer(out io.Writer, tbl *viewport.Table, cells *viewport.Cells) *renderer {
	return &renderer{out: out, tbl: tbl, cells: cells}
}

// step prints the materialized cells as a grid of slot numbers followed by
// a one-line summary.
func (r *renderer) step(n int) {
	w := r.tbl.Window()
	stats := r.cells.Stats()

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(fmt.Sprintf("step %d: %s", n, w))

	header := table.Row{"row"}
	for x := w.XMin; x <= w.XMax; x++ {
		header = append(header, fmt.Sprintf("col %d", x))
	}
	t.AppendHeader(header)

	for y := w.YMin; y <= w.YMax; y++ {
		row := table.Row{y}
		for x := w.XMin; x <= w.XMax; x++ {
			if c, ok := r.cells.Get(x, y); ok {
				row = append(row, fmt.Sprintf("#%d @%d,%d", c.Slot, c.Rect.Left, c.Rect.Top))
			} else {
				row = append(row, "-")
			}
		}
		t.AppendRow(row)
	}
	t.Render()

	fmt.Fprintf(r.out, "cells %d, slots %d, reserved +%d, released +%d, area %s x %s px, digest %016x\n",
		stats.Visible,
		stats.Slots,
		stats.Reserved-r.last.Reserved,
		stats.Released-r.last.Released,
		humanize.Comma(int64(r.tbl.TotalWidth())),
		humanize.Comma(int64(r.tbl.TotalHeight())),
		digest(r.cells.All()),
	)
	r.last = stats
}

// digest fingerprints cell placement so runs can be compared.
func digest(cells []viewport.Cell) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, c := range cells {
		for _, v := range []int{c.X, c.Y, c.Slot} {
			binary.LittleEndian.PutUint64(buf[:], uint64(v))
			h.Write(buf[:])
		}
	}
	return h.Sum64()
}
