package main

import (
	"context"
	"log"
	"os"

	"github.com/delaneyj/tablestore/store"
	"github.com/delaneyj/tablestore/viewport"
	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v3"
)

const (
	rowsKey      = "rows"
	colsKey      = "cols"
	widthKey     = "width"
	heightKey    = "height"
	rowHeightKey = "row-height"
	colWidthKey  = "col-width"
	bufferKey    = "buffer"
	stepsKey     = "steps"
	scrollYKey   = "scroll-y"
	scrollXKey   = "scroll-x"
	cellLimitKey = "cell-limit"
	logLevelKey  = "log-level"
)

func main() {
	cmd := &cli.Command{
		Name:  "vtable",
		Usage: "Scroll a virtual table and print the cells it materializes",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:    rowsKey,
				Usage:   "Number of rows",
				Value:   100_000,
				Sources: cli.EnvVars(envName(rowsKey)),
			},
			&cli.UintFlag{
				Name:    colsKey,
				Usage:   "Number of columns",
				Value:   100,
				Sources: cli.EnvVars(envName(colsKey)),
			},
			&cli.UintFlag{
				Name:    widthKey,
				Usage:   "Viewport width in pixels",
				Value:   400,
				Sources: cli.EnvVars(envName(widthKey)),
			},
			&cli.UintFlag{
				Name:    heightKey,
				Usage:   "Viewport height in pixels",
				Value:   300,
				Sources: cli.EnvVars(envName(heightKey)),
			},
			&cli.UintFlag{
				Name:    rowHeightKey,
				Usage:   "Row height in pixels",
				Value:   viewport.DefaultRowHeight,
				Sources: cli.EnvVars(envName(rowHeightKey)),
			},
			&cli.UintFlag{
				Name:    colWidthKey,
				Usage:   "Column width in pixels",
				Value:   viewport.DefaultColWidth,
				Sources: cli.EnvVars(envName(colWidthKey)),
			},
			&cli.UintFlag{
				Name:    bufferKey,
				Usage:   "Pixels rendered beyond each edge of the viewport",
				Value:   viewport.DefaultBuffer,
				Sources: cli.EnvVars(envName(bufferKey)),
			},
			&cli.UintFlag{
				Name:    stepsKey,
				Usage:   "Scroll steps to take",
				Value:   5,
				Sources: cli.EnvVars(envName(stepsKey)),
			},
			&cli.UintFlag{
				Name:    scrollYKey,
				Usage:   "Pixels scrolled down per step",
				Value:   120,
				Sources: cli.EnvVars(envName(scrollYKey)),
			},
			&cli.UintFlag{
				Name:    scrollXKey,
				Usage:   "Pixels scrolled right per step",
				Value:   60,
				Sources: cli.EnvVars(envName(scrollXKey)),
			},
			&cli.UintFlag{
				Name:    cellLimitKey,
				Usage:   "Ignore windows with more cells than this, 0 for no limit",
				Value:   0,
				Sources: cli.EnvVars(envName(cellLimitKey)),
			},
			&cli.StringFlag{
				Name:    logLevelKey,
				Usage:   "trace, debug, info, warn or error",
				Value:   "info",
				Sources: cli.EnvVars("VTABLE_LOG_LEVEL"),
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "vtable",
		Level:  hclog.LevelFromString(cmd.String(logLevelKey)),
		Output: os.Stderr,
	})

	rt := store.NewRuntime(store.WithLogger(logger.Named("store")))
	tbl, err := viewport.New(rt, viewport.Config{
		Rows:      int(cmd.Uint(rowsKey)),
		Cols:      int(cmd.Uint(colsKey)),
		RowHeight: int(cmd.Uint(rowHeightKey)),
		ColWidth:  int(cmd.Uint(colWidthKey)),
		Width:     int(cmd.Uint(widthKey)),
		Height:    int(cmd.Uint(heightKey)),
		VBuffer:   int(cmd.Uint(bufferKey)),
		HBuffer:   int(cmd.Uint(bufferKey)),
	})
	if err != nil {
		return err
	}

	cells, err := tbl.TrackCells(int(cmd.Uint(cellLimitKey)))
	if err != nil {
		return err
	}
	defer cells.Stop()

	r := newRenderer(os.Stdout, tbl, cells)
	r.step(0)

	steps := int(cmd.Uint(stepsKey))
	dy, dx := int(cmd.Uint(scrollYKey)), int(cmd.Uint(scrollXKey))
	for i := 1; i <= steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger.Debug("scrolling", "step", i, "top", i*dy, "left", i*dx)
		if err := tbl.Scroll(i*dy, i*dx); err != nil {
			return err
		}
		r.step(i)
	}
	return nil
}
