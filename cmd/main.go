package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	app "github.com/okian/ergofit/internal/app"
	"github.com/okian/ergofit/internal/config"
	"github.com/okian/ergofit/pkg/logger"
	"github.com/okian/ergofit/pkg/metrics"
)

const (
	defaultTop              = 10
	defaultSensitivityStep  = 0.5
	defaultSensitivityCount = 3
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		// Use fmt for errors since the logger may not be initialized
		fmt.Fprintln(os.Stderr, "ergofit: "+err.Error())
		os.Exit(1)
	}
}

type options struct {
	input       string
	discipline  string
	elbowDeg    float64
	top         int
	metrics     bool
	sensitivity string
	step        float64
	points      int
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("ergofit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "input", "", "YAML file with the rider body and the bikes or frames to evaluate")
	fs.StringVar(&o.discipline, "discipline", "", "use case to score against (overrides input and config)")
	fs.Float64Var(&o.elbowDeg, "elbow", 0, "elbow bend in degrees (overrides input and config)")
	fs.IntVar(&o.top, "top", defaultTop, "number of ranked frames to print, 0 for all")
	fs.BoolVar(&o.metrics, "metrics", false, "print Prometheus metrics after the run")
	fs.StringVar(&o.sensitivity, "sensitivity", "", "parameter to perturb around the first bike, e.g. seat_y")
	fs.Float64Var(&o.step, "step", defaultSensitivityStep, "sensitivity step in the parameter's unit")
	fs.IntVar(&o.points, "points", defaultSensitivityCount, "sensitivity points on each side, including the baseline")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.input == "" {
		fs.Usage()
		return o, errors.New("-input is required")
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.WithWriter(stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	metrics.SetEnabled(cfg.MetricsEnabled || opts.metrics)

	table, err := cfg.Table()
	if err != nil {
		return err
	}
	in, err := config.LoadInput(ctx, opts.input)
	if err != nil {
		return fmt.Errorf("load input: %w", err)
	}

	discipline := firstString(opts.discipline, in.Discipline, cfg.Discipline)
	elbowDeg := firstPositive(opts.elbowDeg, in.ElbowAngleDeg, cfg.ElbowAngleDeg)

	svc := app.New(
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithCacheSize(cfg.CacheSize),
		app.WithSweepStep(cfg.SweepStepDeg),
		app.WithTable(table),
		app.WithDiscipline(discipline),
		app.WithElbowAngle(elbowDeg),
	)
	log.Info(ctx, "evaluating input",
		logger.String("input", opts.input),
		logger.String("discipline", discipline),
		logger.Float64("elbow_deg", elbowDeg),
		logger.Int("bikes", len(in.Bikes)),
		logger.Int("frames", len(in.Frames)),
	)

	if nh, ok := in.Body.NeckHead(); ok {
		if _, err := fmt.Fprintf(stdout, "NECK_HEAD %.2f\n\n", nh); err != nil {
			return err
		}
	}
	if len(in.Bikes) > 0 {
		if err := printBikes(ctx, stdout, svc, in, elbowDeg, discipline); err != nil {
			return err
		}
		if opts.sensitivity != "" {
			if err := printSensitivity(ctx, stdout, svc, in, opts); err != nil {
				return err
			}
		}
	}
	if len(in.Frames) > 0 {
		if err := printRanking(ctx, stdout, svc, in, elbowDeg, discipline, opts.top); err != nil {
			return err
		}
	}

	hits, misses, size := svc.CacheStats()
	log.Debug(ctx, "cache",
		logger.Int("hits", int(hits)),
		logger.Int("misses", int(misses)),
		logger.Int("size", int(size)),
	)

	if opts.metrics {
		if _, err := fmt.Fprintln(stdout); err != nil {
			return err
		}
		return metrics.WriteText(stdout, metrics.GetRegistry())
	}
	return nil
}

func printBikes(ctx context.Context, w io.Writer, svc *app.Service, in *config.Input, elbowDeg float64, discipline string) error {
	reqs := make([]app.Request, len(in.Bikes))
	for i := range in.Bikes {
		reqs[i] = app.Request{
			Label:      in.BikeLabel(i),
			Bike:       in.Bike(i),
			Body:       in.Body,
			ElbowDeg:   elbowDeg,
			Discipline: discipline,
		}
	}
	reports, err := svc.EvaluateBatch(ctx, reqs)
	if err != nil {
		return fmt.Errorf("evaluate bikes: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BIKE\tKNEE_EXTENSION\tBACK_ANGLE\tARMPIT_WRIST_ANGLE\tFIT_PROBABILITY\tKOPS")
	for _, rep := range reports {
		kops := "undefined"
		if v, err := svc.KneeOverPedal(ctx, rep.Bike, in.Body); err == nil {
			kops = fmt.Sprintf("%.2f", v)
		}
		fmt.Fprintf(tw, "%s\t%s (%s)\t%s (%s)\t%s (%s)\t%s\t%s\n",
			rep.Label,
			rep.Angles.KneeExtension, rep.Scores.Knee,
			rep.Angles.BackAngle, rep.Scores.Back,
			rep.Angles.ArmpitWrist, rep.Scores.ArmpitWrist,
			rep.Scores.Overall(),
			kops,
		)
	}
	return tw.Flush()
}

func printRanking(ctx context.Context, w io.Writer, svc *app.Service, in *config.Input, elbowDeg float64, discipline string, top int) error {
	frames := make([]app.FrameCandidate, len(in.Frames))
	for i, f := range in.Frames {
		frames[i] = app.FrameCandidate{Label: in.FrameLabel(i), Frame: f.FrameGeometry}
	}
	ranking, err := svc.RankFrames(ctx, frames, in.Body, elbowDeg, discipline, top)
	if err != nil {
		return fmt.Errorf("rank frames: %w", err)
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tFRAME\tFIT_PROBABILITY\tKNEE_EXTENSION\tBACK_ANGLE\tARMPIT_WRIST_ANGLE")
	for _, e := range ranking.Entries {
		rep := ranking.Reports[e.Row]
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%s\t%s\t%s\n",
			e.Rank, e.Label, e.Score,
			rep.Angles.KneeExtension, rep.Angles.BackAngle, rep.Angles.ArmpitWrist,
		)
	}
	for _, rep := range ranking.Reports {
		if !rep.Scores.Overall().Defined() {
			fmt.Fprintf(tw, "-\t%s\tundefined\t%s\t%s\t%s\n",
				rep.Label, rep.Angles.KneeExtension, rep.Angles.BackAngle, rep.Angles.ArmpitWrist)
		}
	}
	return tw.Flush()
}

func printSensitivity(ctx context.Context, w io.Writer, svc *app.Service, in *config.Input, opts options) error {
	req := app.Request{Label: in.BikeLabel(0), Bike: in.Bike(0), Body: in.Body}
	rows, err := svc.Sensitivity(ctx, req, opts.sensitivity, opts.step, opts.points)
	if err != nil {
		return fmt.Errorf("sensitivity: %w", err)
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "DELTA %s\tKNEE_EXTENSION\tBACK_ANGLE\tARMPIT_WRIST_ANGLE\n", opts.sensitivity)
	for _, r := range rows {
		fmt.Fprintf(tw, "%+.2f\t%s (%s)\t%s (%s)\t%s (%s)\n", r.Delta,
			r.Angles.KneeExtension, r.Change.KneeExtension,
			r.Angles.BackAngle, r.Change.BackAngle,
			r.Angles.ArmpitWrist, r.Change.ArmpitWrist,
		)
	}
	return tw.Flush()
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
