// Package service wires the solver, scorer, result cache, worker pool and
// ranking store behind the evaluation API used by the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/okian/ergofit/internal/adapters/pool/queue"
	"github.com/okian/ergofit/internal/adapters/pool/worker"
	"github.com/okian/ergofit/internal/adapters/repository"
	"github.com/okian/ergofit/internal/domain/frame"
	"github.com/okian/ergofit/internal/domain/kinematics"
	"github.com/okian/ergofit/internal/domain/memo"
	"github.com/okian/ergofit/internal/domain/model"
	"github.com/okian/ergofit/internal/domain/scoring"
	"github.com/okian/ergofit/pkg/logger"
	"github.com/okian/ergofit/pkg/metrics"
)

const (
	defaultQueueSize  = 1024
	defaultCacheSize  = 4096
	defaultElbowAngle = 160.0
)

// Request is one rider on one bike. Zero ElbowDeg and empty Discipline fall
// back to the service defaults.
type Request struct {
	Label      string
	Bike       model.BikeVector
	Body       model.BodyVector
	ElbowDeg   float64
	Discipline string
}

// FrameCandidate is a labelled frame offered to EvaluateFrames and RankFrames.
type FrameCandidate struct {
	Label string
	Frame model.FrameGeometry
}

// Report is the evaluation of one request.
type Report struct {
	ID         uuid.UUID
	Row        int
	Label      string
	Discipline string
	Bike       model.BikeVector
	ElbowDeg   float64
	Angles     model.AngleResult
	Scores     scoring.FitScores
}

// Ranking is the outcome of RankFrames. Entries are best first; Reports
// hold every candidate in input order.
type Ranking struct {
	Entries []repository.Entry
	Reports []Report
}

// MatrixResult is the outcome of EvaluateMatrix, row for row.
type MatrixResult struct {
	Reports []Report
	// Angles is n×3 in degrees: knee extension, back, armpit to wrist.
	// Undefined angles are NaN.
	Angles *mat.Dense
	// Valid reports the rows that solved to three defined angles.
	Valid []bool
}

// solveAdapter adapts the service solve path to worker.Evaluator.
type solveAdapter struct {
	s *Service
}

func (a *solveAdapter) Evaluate(ctx context.Context, job queue.Job) (model.AngleResult, error) {
	return a.s.solve(ctx, job.Bike, job.Body, job.ElbowDeg), nil
}

// Service evaluates rider and bike combinations. It is safe for concurrent use.
type Service struct {
	// Core components
	solver *kinematics.Solver
	scorer *scoring.Scorer
	cache  memo.Cache

	// Configuration
	workerCount  int
	queueSize    int
	cacheSize    int
	sweepStepDeg float64
	table        *scoring.Table
	discipline   string
	elbowDeg     float64

	logger logger.Logger
}

// New constructs a Service. Unset options take their defaults.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    defaultQueueSize,
		cacheSize:    defaultCacheSize,
		sweepStepDeg: kinematics.DefaultSweepStepDeg,
		table:        scoring.DefaultTable(),
		discipline:   scoring.Road,
		elbowDeg:     defaultElbowAngle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.solver = kinematics.NewSolver(kinematics.WithSweepStep(s.sweepStepDeg))
	s.scorer = scoring.NewScorer(scoring.WithTable(s.table))
	if s.cacheSize > 0 {
		s.cache = memo.NewInMemoryCache(memo.WithMaxSize(s.cacheSize))
	}
	return s
}

// Disciplines lists the disciplines the service can score.
func (s *Service) Disciplines() []string { return s.table.Disciplines() }

// CacheStats returns the result cache counters.
func (s *Service) CacheStats() (hits, misses, size int64) {
	if s.cache == nil {
		return 0, 0, 0
	}
	hits, misses = s.cache.Stats()
	return hits, misses, s.cache.Size()
}

func (s *Service) solve(ctx context.Context, bike model.BikeVector, body model.BodyVector, elbowDeg float64) model.AngleResult {
	if s.cache == nil {
		metrics.RecordSweepSamples(s.solver.Samples())
		return s.solver.Solve(bike, body, elbowDeg)
	}

	key := memo.KeyOf(bike, body, elbowDeg, s.solver.StepDeg())
	if r, ok := s.cache.Get(ctx, key); ok {
		metrics.RecordCacheHit()
		return r
	}
	metrics.RecordCacheMiss()
	r := s.solver.Solve(bike, body, elbowDeg)
	metrics.RecordSweepSamples(s.solver.Samples())
	s.cache.Put(ctx, key, r)
	metrics.UpdateCacheSize(s.cache.Size())
	return r
}

// normalize fills request defaults and rejects unusable input.
func (s *Service) normalize(req Request) (Request, error) {
	if req.ElbowDeg == 0 {
		req.ElbowDeg = s.elbowDeg
	}
	if req.Discipline == "" {
		req.Discipline = s.discipline
	}
	if err := req.Bike.Validate(); err != nil {
		return req, fmt.Errorf("bike: %w", err)
	}
	if err := req.Body.Validate(); err != nil {
		return req, fmt.Errorf("body: %w", err)
	}
	if !(req.ElbowDeg > 0 && req.ElbowDeg <= 180) {
		return req, fmt.Errorf("elbow angle %g: %w", req.ElbowDeg, ErrInvalidRequest)
	}
	if _, err := s.table.Lookup(req.Discipline); err != nil {
		return req, err
	}
	return req, nil
}

// report scores a solved result and records its metrics.
func (s *Service) report(ctx context.Context, row int, req Request, r model.AngleResult) (Report, error) {
	scores, err := s.scorer.ScoreAngles(req.Discipline, r, req.ElbowDeg, req.Body.AnkleDeg)
	if err != nil {
		return Report{}, err
	}
	rep := Report{
		ID:         uuid.New(),
		Row:        row,
		Label:      req.Label,
		Discipline: scores.Discipline,
		Bike:       req.Bike,
		ElbowDeg:   req.ElbowDeg,
		Angles:     r,
		Scores:     scores,
	}

	metrics.RecordEvaluation(rep.Discipline)
	recordInfeasible("knee_extension", r.KneeExtension)
	recordInfeasible("back_angle", r.BackAngle)
	recordInfeasible("armpit_wrist_angle", r.ArmpitWrist)

	s.logger.Debug(ctx, "evaluated",
		logger.String("id", rep.ID.String()),
		logger.Int("row", row),
		logger.String("label", req.Label),
		logger.String("discipline", rep.Discipline),
		logger.String("knee_extension", r.KneeExtension.String()),
		logger.String("back_angle", r.BackAngle.String()),
		logger.String("armpit_wrist_angle", r.ArmpitWrist.String()),
		logger.String("fit_probability", scores.Overall().String()),
	)
	return rep, nil
}

// Evaluate solves and scores a single request.
func (s *Service) Evaluate(ctx context.Context, req Request) (Report, error) {
	start := time.Now()
	req, err := s.normalize(req)
	if err != nil {
		metrics.RecordErrorByComponent("service", "invalid_request")
		return Report{}, err
	}
	r := s.solve(ctx, req.Bike, req.Body, req.ElbowDeg)
	rep, err := s.report(ctx, 0, req, r)
	if err != nil {
		return Report{}, err
	}
	metrics.RecordEvaluationLatency(float64(time.Since(start).Microseconds()) / 1000)
	return rep, nil
}

// EvaluateBatch solves every request on the worker pool and returns reports
// in input order. Rows are queued in chunks of the configured queue size.
func (s *Service) EvaluateBatch(ctx context.Context, reqs []Request) ([]Report, error) {
	if len(reqs) == 0 {
		return nil, nil
	}
	start := time.Now()

	normalized := make([]Request, len(reqs))
	jobs := make([]queue.Job, len(reqs))
	for i := range reqs {
		req, err := s.normalize(reqs[i])
		if err != nil {
			metrics.RecordErrorByComponent("service", "invalid_request")
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		normalized[i] = req
		jobs[i] = queue.Job{Row: i, Bike: req.Bike, Body: req.Body, ElbowDeg: req.ElbowDeg}
	}

	s.logger.Info(ctx, "evaluating batch",
		logger.Int("rows", len(reqs)),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)

	eval := &solveAdapter{s: s}
	reports := make([]Report, len(reqs))
	for lo := 0; lo < len(jobs); lo += s.queueSize {
		hi := min(lo+s.queueSize, len(jobs))
		outcomes, err := worker.RunBatch(ctx, jobs[lo:hi], eval, s.workerCount,
			worker.WithLogger(s.logger))
		if err != nil {
			metrics.RecordErrorByComponent("service", "batch")
			return nil, err
		}
		for i, o := range outcomes {
			row := lo + i
			if o.Err != nil {
				return nil, fmt.Errorf("row %d: %w", row, o.Err)
			}
			rep, err := s.report(ctx, row, normalized[row], o.Result)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", row, err)
			}
			reports[row] = rep
		}
	}

	elapsed := time.Since(start)
	metrics.RecordEvaluationLatency(float64(elapsed.Microseconds()) / 1000)
	s.logger.Info(ctx, "batch evaluated",
		logger.Int("rows", len(reqs)),
		logger.Duration("elapsed", elapsed),
	)
	return reports, nil
}

// EvaluateMatrix solves n bikes (n×5) against n bodies (n×6 or n×8) and n
// elbow angles. A single body row applies to every bike and an empty elbow
// slice uses the service default. Shapes are checked before any row is solved.
func (s *Service) EvaluateMatrix(ctx context.Context, bikes, bodies mat.Matrix, elbowsDeg []float64, discipline string) (MatrixResult, error) {
	if bikes == nil || bodies == nil {
		return MatrixResult{}, fmt.Errorf("nil matrix: %w", ErrInvalidRequest)
	}
	n, _ := bikes.Dims()
	bodyRows, _ := bodies.Dims()
	if (bodyRows != n && bodyRows != 1) || (len(elbowsDeg) != 0 && len(elbowsDeg) != n) {
		metrics.RecordErrorByComponent("service", "shape_mismatch")
		return MatrixResult{}, fmt.Errorf("%d bikes, %d bodies, %d elbows: %w",
			n, bodyRows, len(elbowsDeg), model.ErrShapeMismatch)
	}
	bikeVecs, err := model.BikesFromMatrix(bikes)
	if err != nil {
		return MatrixResult{}, fmt.Errorf("bikes: %w", err)
	}
	bodyVecs, err := model.BodiesFromMatrix(bodies)
	if err != nil {
		return MatrixResult{}, fmt.Errorf("bodies: %w", err)
	}
	if len(bodyVecs) == 1 {
		bodyVecs = model.BroadcastBody(bodyVecs[0], n)
	}

	reqs := make([]Request, n)
	for i := range reqs {
		reqs[i] = Request{Bike: bikeVecs[i], Body: bodyVecs[i], Discipline: discipline}
		if len(elbowsDeg) != 0 {
			reqs[i].ElbowDeg = elbowsDeg[i]
		}
	}
	reports, err := s.EvaluateBatch(ctx, reqs)
	if err != nil {
		return MatrixResult{}, err
	}

	elbows := make([]float64, n)
	results := make([]model.AngleResult, n)
	for i, rep := range reports {
		elbows[i] = rep.ElbowDeg
		results[i] = rep.Angles
	}
	valid, err := kinematics.Mask(bikeVecs, bodyVecs, elbows)
	if err != nil {
		return MatrixResult{}, err
	}
	return MatrixResult{Reports: reports, Angles: model.AnglesToMatrix(results), Valid: valid}, nil
}

// EvaluateFrames converts each frame to interface points and evaluates it
// for one rider.
func (s *Service) EvaluateFrames(ctx context.Context, frames []FrameCandidate, body model.BodyVector, elbowDeg float64, discipline string) ([]Report, error) {
	reqs := make([]Request, len(frames))
	for i, fc := range frames {
		bike, err := frame.InterfacePoints(fc.Frame)
		if err != nil {
			metrics.RecordFrameDegenerate()
			s.logger.Warn(ctx, "frame rejected",
				logger.Int("row", i),
				logger.String("label", fc.Label),
				logger.Error(err),
			)
			return nil, fmt.Errorf("frame %d (%s): %w", i, fc.Label, err)
		}
		metrics.RecordFrameConverted()
		reqs[i] = Request{
			Label:      fc.Label,
			Bike:       bike,
			Body:       body,
			ElbowDeg:   elbowDeg,
			Discipline: discipline,
		}
	}
	return s.EvaluateBatch(ctx, reqs)
}

// RankFrames evaluates the frames and ranks them by overall fit probability,
// best first. top limits the entries returned; top < 1 returns all of them.
// Frames without a defined overall probability are reported but not ranked.
func (s *Service) RankFrames(ctx context.Context, frames []FrameCandidate, body model.BodyVector, elbowDeg float64, discipline string, top int) (Ranking, error) {
	if len(frames) == 0 {
		return Ranking{}, ErrNoCandidates
	}
	reports, err := s.EvaluateFrames(ctx, frames, body, elbowDeg, discipline)
	if err != nil {
		return Ranking{}, err
	}

	store := repository.NewTreapStore()
	for _, rep := range reports {
		p, ok := rep.Scores.Overall().Value()
		if !ok {
			continue
		}
		_, err := store.UpdateBest(ctx, repository.Candidate{
			ID:         strconv.Itoa(rep.Row),
			Label:      rep.Label,
			Discipline: rep.Discipline,
			Row:        rep.Row,
			Score:      p,
		})
		if err != nil {
			metrics.RecordErrorByComponent("repository", "update")
			return Ranking{}, fmt.Errorf("rank frame %d: %w", rep.Row, err)
		}
	}

	count := store.Count(ctx)
	if count == 0 {
		s.logger.Warn(ctx, "no frame fits the rider", logger.Int("frames", len(frames)))
		return Ranking{Reports: reports}, nil
	}
	if top < 1 || top > count {
		top = count
	}
	entries, err := store.TopN(ctx, top)
	if err != nil {
		return Ranking{}, err
	}
	return Ranking{Entries: entries, Reports: reports}, nil
}

// KneeOverPedal returns the horizontal knee to pedal-spindle offset with the
// crank forward. Negative values put the knee behind the spindle.
func (s *Service) KneeOverPedal(_ context.Context, bike model.BikeVector, body model.BodyVector) (float64, error) {
	if err := bike.Validate(); err != nil {
		return 0, fmt.Errorf("bike: %w", err)
	}
	if err := body.Validate(); err != nil {
		return 0, fmt.Errorf("body: %w", err)
	}
	return kinematics.KneeOverPedal(bike, body)
}

// Sensitivity perturbs the named parameter around the request and solves
// every point. See kinematics.Solver.Sensitivity.
func (s *Service) Sensitivity(ctx context.Context, req Request, param string, step float64, n int) ([]kinematics.SensitivityRow, error) {
	p, err := kinematics.ParseParam(param)
	if err != nil {
		return nil, err
	}
	req, err = s.normalize(req)
	if err != nil {
		return nil, err
	}
	rows, err := s.solver.Sensitivity(req.Bike, req.Body, req.ElbowDeg, p, step, n)
	if err != nil {
		return nil, err
	}
	metrics.RecordSweepSamples(len(rows) * s.solver.Samples())
	s.logger.Debug(ctx, "sensitivity solved",
		logger.String("param", p.String()),
		logger.Float64("step", step),
		logger.Int("points", len(rows)),
	)
	return rows, nil
}

func recordInfeasible(angle string, a model.Angle) {
	if a.Feasible() {
		return
	}
	metrics.RecordInfeasibleAngle(angle, ReasonLabel(a.Reason()))
}

// ReasonLabel maps an infeasibility reason to a short metric label.
func ReasonLabel(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, model.ErrNonPositiveSegment):
		return "non_positive_segment"
	case errors.Is(err, model.ErrFootTriangle):
		return "foot_triangle"
	case errors.Is(err, model.ErrLegUnreachable):
		return "leg_unreachable"
	case errors.Is(err, model.ErrLegFolded):
		return "leg_folded"
	case errors.Is(err, model.ErrArmUnreachable):
		return "arm_unreachable"
	case errors.Is(err, model.ErrArmFolded):
		return "arm_folded"
	default:
		return "infeasible"
	}
}
