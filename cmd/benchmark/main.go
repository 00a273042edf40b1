package main

import (
	"context"
	"log"
	"os"
	"runtime/pprof"

	"github.com/hashicorp/go-hclog"
	"github.com/urfave/cli/v3"
)

const (
	logLevelKey   = "log-level"
	cpuProfileKey = "cpuprofile"
	itersKey      = "iters"
	maxSizeKey    = "max-size"
	repeatsKey    = "repeats"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Benchmark change propagation through stores",
		Commands: []*cli.Command{
			{
				Name:  "propagate",
				Usage: "Chains of getters under one field, one watch per chain",
				Flags: []cli.Flag{
					logLevelFlag(),
					&cli.UintFlag{
						Name:    itersKey,
						Usage:   "Writes per graph",
						Value:   100,
						Sources: cli.EnvVars("BENCH_ITERS"),
					},
					&cli.UintFlag{
						Name:    maxSizeKey,
						Usage:   "Largest chain count and chain length to run",
						Value:   100,
						Sources: cli.EnvVars("BENCH_MAX_SIZE"),
					},
				},
				Action: propagate,
			},
			{
				Name:  "graph",
				Usage: "Layered graphs of static and dynamic getters",
				Flags: []cli.Flag{
					logLevelFlag(),
					&cli.UintFlag{
						Name:    repeatsKey,
						Usage:   "Timed runs per configuration, the best one is reported",
						Value:   5,
						Sources: cli.EnvVars("BENCH_REPEATS"),
					},
					&cli.StringFlag{
						Name:    cpuProfileKey,
						Usage:   "Write a CPU profile to this file",
						Sources: cli.EnvVars("BENCH_CPUPROFILE"),
					},
				},
				Action: graph,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func logLevelFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    logLevelKey,
		Usage:   "trace, debug, info, warn or error",
		Value:   "info",
		Sources: cli.EnvVars("BENCH_LOG_LEVEL"),
	}
}

func newLogger(cmd *cli.Command) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "benchmark",
		Level:  hclog.LevelFromString(cmd.String(logLevelKey)),
		Output: os.Stderr,
	})
}

// profile starts a CPU profile when path is set. The returned func stops it.
func profile(path string, logger hclog.Logger) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	logger.Info("cpu profile started", "path", path)
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}
