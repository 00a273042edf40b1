package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/delaneyj/tablestore/store"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

var sizes = []int{1, 10, 100, 1_000}

func propagate(ctx context.Context, cmd *cli.Command) error {
	logger := newLogger(cmd)
	iters := int(cmd.Uint(itersKey))
	maxSize := int(cmd.Uint(maxSizeKey))

	tbl := table.NewWriter()
	tbl.SetTitle("Store propagation")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "evaluations"})

	for _, w := range sizes {
		for _, h := range sizes {
			if w > maxSize || h > maxSize {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			logger.Debug("building chains", "width", w, "height", h)
			s, err := chains(w, h)
			if err != nil {
				return err
			}
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			for i := 0; i < iters; i++ {
				start := time.Now()
				if err := s.Set("src", store.As[int](s.State(), "src")+1); err != nil {
					return err
				}
				if err := s.Flush(); err != nil {
					return err
				}
				tach.AddTime(time.Since(start))
			}

			evaluations := 0
			for _, name := range s.Getters().Names() {
				evaluations += s.Getters().Evaluations(name)
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					humanize.Comma(int64(evaluations)),
				},
			})
		}
	}

	tbl.Render()
	return nil
}

// chains builds w chains of h getters, each link adding one to the previous,
// all rooted at the field "src", with a watch reading the end of each chain.
func chains(w, h int) (*store.Store, error) {
	rt := store.NewRuntime()
	getters := make(map[string]store.GetterFunc, w*h)
	leaves := make([]string, 0, w)

	for i := 0; i < w; i++ {
		read := func(s *store.State, _ *store.Getters) int {
			return store.As[int](s, "src")
		}
		var last string
		for j := 0; j < h; j++ {
			prev := read
			last = fmt.Sprintf("c%d_%d", i, j)
			getters[last] = func(s *store.State, g *store.Getters) any {
				return prev(s, g) + 1
			}
			name := last
			read = func(_ *store.State, g *store.Getters) int {
				return store.As[int](g, name)
			}
		}
		leaves = append(leaves, last)
	}

	s, err := rt.NewStore(map[string]any{"src": 1}, getters)
	if err != nil {
		return nil, err
	}
	for _, leaf := range leaves {
		if _, err := rt.Watch(func() error {
			s.Get(leaf)
			return nil
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}
