// Command tspsolve solves a Euclidean TSP from a coordinate file and prints
// the tour as CSV (seq,node,cost,agg_cost).
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/urfave/cli"

	"routekit/internal/buildinfo"
	"routekit/internal/config"
	"routekit/internal/coordfile"
	"routekit/internal/model"
	"routekit/internal/opt"
	"routekit/internal/solver"
)

func main() {
	app := cli.NewApp()
	app.Name = "tspsolve"
	app.Usage = "simulated-annealing Euclidean TSP over a coordinate file"
	app.Version = buildinfo.Get().String()
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "input, i", Usage: "coordinate file (id,x,y CSV or JSON array)"},
		cli.StringFlag{Name: "format, f", Usage: "csv or json; inferred from the file extension when empty"},
		cli.StringFlag{Name: "config, c", Usage: "YAML file with solver defaults"},
		cli.Int64Flag{Name: "start-id", Usage: "node that opens the tour (0 = any)"},
		cli.Int64Flag{Name: "end-id", Usage: "node visited last before returning (0 = any)"},
		cli.Int64Flag{Name: "seed", Usage: "random seed (0 = time based when randomizing)"},
		cli.IntFlag{Name: "tries", Usage: "tries per temperature"},
		cli.IntFlag{Name: "max-changes", Usage: "accepted changes per temperature"},
		cli.IntFlag{Name: "max-non-changes", Usage: "consecutive non-improving tries before stopping"},
		cli.Float64Flag{Name: "initial-temp", Usage: "starting temperature"},
		cli.Float64Flag{Name: "final-temp", Usage: "stopping temperature"},
		cli.Float64Flag{Name: "cooling", Usage: "cooling factor in (0,1)"},
		cli.DurationFlag{Name: "time-limit", Usage: "wall-clock budget (0 = unbounded)"},
		cli.BoolTFlag{Name: "randomize", Usage: "shuffle the initial tour"},
		cli.IntFlag{Name: "starts", Value: 1, Usage: "independent annealing runs"},
		cli.IntFlag{Name: "parallelism", Usage: "concurrent runs (0 = GOMAXPROCS)"},
		cli.StringFlag{Name: "log-level", Value: "warn", Usage: "debug, info, warn or error"},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "tspsolve:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logger := config.NewLogger(os.Stderr, c.String("log-level"))
	input := c.String("input")
	if input == "" {
		return cli.NewExitError("--input is required", 2)
	}
	format := coordfile.Format(c.String("format"))
	if format == "" {
		format = coordfile.FormatFor(input)
	}
	pts, err := coordfile.ReadFile(input, format)
	if err != nil {
		return err
	}

	defaults := config.DefaultSolver()
	if path := c.String("config"); path != "" {
		if defaults, err = config.LoadSolverFile(path, defaults); err != nil {
			return err
		}
	}
	o := solver.AnnealOptions(defaults, requestFrom(c))
	if err := o.Validate(); err != nil {
		return err
	}

	seed := solver.SeedFor(c.Int64("seed"), o.Randomize, time.Now)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var res opt.TourResult
	if starts := c.Int("starts"); starts > 1 {
		ms, err := opt.SolveMultiStart(ctx, pts, o, seed, starts, c.Int("parallelism"))
		if err != nil {
			return err
		}
		res = ms.TourResult
		logger.Info("best start", "start", ms.Start, "costs", ms.Costs)
	} else {
		a, err := opt.NewAnnealer(o, rand.New(rand.NewSource(seed)))
		if err != nil {
			return err
		}
		if res, err = a.Solve(ctx, pts); err != nil {
			return err
		}
	}
	logger.Info("solved", "points", len(pts), "cost", res.Cost, "seed", seed,
		"levels", res.Metrics.Levels, "stop", res.Metrics.StopReason)
	return writeTour(os.Stdout, res.Stops)
}

// requestFrom maps only the flags the user set, so unset ones keep the defaults.
func requestFrom(c *cli.Context) model.TSPRequest {
	req := model.TSPRequest{StartID: c.Int64("start-id"), EndID: c.Int64("end-id")}
	if c.IsSet("tries") {
		v := c.Int("tries")
		req.TriesPerTemperature = &v
	}
	if c.IsSet("max-changes") {
		v := c.Int("max-changes")
		req.MaxChangesPerTemperature = &v
	}
	if c.IsSet("max-non-changes") {
		v := c.Int("max-non-changes")
		req.MaxConsecutiveNonChanges = &v
	}
	if c.IsSet("initial-temp") {
		v := c.Float64("initial-temp")
		req.InitialTemperature = &v
	}
	if c.IsSet("final-temp") {
		v := c.Float64("final-temp")
		req.FinalTemperature = &v
	}
	if c.IsSet("cooling") {
		v := c.Float64("cooling")
		req.CoolingFactor = &v
	}
	if c.IsSet("time-limit") {
		v := c.Duration("time-limit").Seconds()
		req.MaxProcessingTime = &v
	}
	if c.IsSet("randomize") {
		v := c.BoolT("randomize")
		req.Randomize = &v
	}
	return req
}

func writeTour(w io.Writer, stops []opt.TourStop) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"seq", "node", "cost", "agg_cost"})
	for _, s := range stops {
		_ = cw.Write([]string{
			strconv.Itoa(s.Sequence),
			strconv.FormatInt(s.NodeID, 10),
			strconv.FormatFloat(s.Cost, 'f', -1, 64),
			strconv.FormatFloat(s.AggCost, 'f', -1, 64),
		})
	}
	cw.Flush()
	return cw.Error()
}
