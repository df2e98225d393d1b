// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package collect runs collector adapters and routes their drafts through
// the dedup gate, the optional oracle, the normalizer and the store.
package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/internal/normalize"
	"github.com/pdiddy/intel-engine/internal/oracle"
	"github.com/pdiddy/intel-engine/pkg/types"
)

// ErrStore marks a store failure. It aborts the run; every other per-item
// error is counted and the batch continues.
var ErrStore = errors.New("store failure")

// Gate is the part of the store collectors see.
type Gate interface {
	Admit(ctx context.Context, sourceID string) (bool, error)
	Insert(ctx context.Context, r types.Record) (bool, error)
}

// Sink receives a collector's drafts.
type Sink interface {
	// Admit reports whether sourceID is new. Collectors call it before
	// expensive per-item work. A false answer is counted as skipped.
	Admit(ctx context.Context, sourceID string) (bool, error)

	// Submit admits, classifies, normalizes and stores one draft. The
	// returned error is non-nil only for ErrStore failures.
	Submit(ctx context.Context, d normalize.Draft) error

	// Fail records a unit of work (a keyword, a feed, a location) that
	// produced no records because of err.
	Fail(unit string, err error)
}

// Collector pulls items from one kind of source.
type Collector interface {
	Name() string
	Category() types.Category
	Collect(ctx context.Context, sink Sink) error
}

// Recorder receives per-item outcomes and collector durations.
type Recorder interface {
	Item(collector, outcome string)
	Duration(collector string, d time.Duration)
}

// Outcome labels used with Recorder.
const (
	OutcomeAdmitted = "admitted"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeDegraded = "degraded"
)

// Summary reports one collector's results.
type Summary struct {
	Collector string
	Category  types.Category
	Admitted  int
	Skipped   int
	Failed    int

	// Degraded counts admitted records that carry the fallback label
	// because classification failed.
	Degraded int

	Duration time.Duration
}

// Total returns the number of items processed.
func (s Summary) Total() int {
	return s.Admitted + s.Skipped + s.Failed
}

// HasFailures reports whether any item or unit failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0
}

// RunSummary is the result of RunAll.
type RunSummary struct {
	RunID      string
	Collectors []Summary
}

// Totals sums all collector summaries.
func (r RunSummary) Totals() Summary {
	t := Summary{Collector: "total"}
	for _, s := range r.Collectors {
		t.Admitted += s.Admitted
		t.Skipped += s.Skipped
		t.Failed += s.Failed
		t.Degraded += s.Degraded
		t.Duration += s.Duration
	}
	return t
}

// Pipeline is the standard Sink: Dedup Gate, then Oracle, then Normalizer,
// then Store.
type Pipeline struct {
	Gate       Gate
	Oracle     oracle.Oracle
	Normalizer normalize.Normalizer
	Logger     *zap.Logger
	Metrics    Recorder

	// Out receives one progress line per item. Nil discards them.
	Out io.Writer
}

// Run executes one collector and returns its summary. The error is the
// collector's own failure; it wraps ErrStore when the run must stop.
func (p *Pipeline) Run(ctx context.Context, c Collector) (Summary, error) {
	log := p.logger().With(zap.String("collector", c.Name()))
	sink := &runSink{p: p, log: log, sum: Summary{Collector: c.Name(), Category: c.Category()}}

	start := time.Now()
	err := c.Collect(ctx, sink)
	sink.sum.Duration = time.Since(start)
	if p.Metrics != nil {
		p.Metrics.Duration(c.Name(), sink.sum.Duration)
	}

	if err != nil && !errors.Is(err, ErrStore) {
		sink.Fail(c.Name(), err)
	}
	log.Info("collector finished",
		zap.Int("admitted", sink.sum.Admitted),
		zap.Int("skipped", sink.sum.Skipped),
		zap.Int("failed", sink.sum.Failed),
		zap.Int("degraded", sink.sum.Degraded),
		zap.Duration("took", sink.sum.Duration))
	return sink.sum, err
}

// RunAll invokes collectors in order under one run id. A collector error is
// logged and the next collector still runs; a store failure aborts.
func RunAll(ctx context.Context, collectors []Collector, p *Pipeline) (RunSummary, error) {
	run := RunSummary{RunID: uuid.NewString()}
	scoped := *p
	scoped.Logger = p.logger().With(zap.String("run_id", run.RunID))

	for _, c := range collectors {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		s, err := scoped.Run(ctx, c)
		run.Collectors = append(run.Collectors, s)
		if errors.Is(err, ErrStore) {
			return run, err
		}
	}
	return run, nil
}

// isFatal reports whether err must stop the collector rather than be
// counted against one unit of work.
func isFatal(ctx context.Context, err error) bool {
	return errors.Is(err, ErrStore) || ctx.Err() != nil
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) progress(format string, args ...any) {
	if p.Out != nil {
		fmt.Fprintf(p.Out, format, args...)
	}
}

// runSink tallies one collector's outcomes.
type runSink struct {
	p   *Pipeline
	log *zap.Logger
	sum Summary
}

func (s *runSink) record(outcome string) {
	switch outcome {
	case OutcomeAdmitted:
		s.sum.Admitted++
	case OutcomeSkipped:
		s.sum.Skipped++
	case OutcomeFailed:
		s.sum.Failed++
	case OutcomeDegraded:
		s.sum.Degraded++
	}
	if s.p.Metrics != nil {
		s.p.Metrics.Item(s.sum.Collector, outcome)
	}
}

// Admit implements Sink.
func (s *runSink) Admit(ctx context.Context, sourceID string) (bool, error) {
	ok, err := s.p.Gate.Admit(ctx, sourceID)
	if err != nil {
		return false, fmt.Errorf("%w: admit %s: %v", ErrStore, sourceID, err)
	}
	if !ok {
		s.record(OutcomeSkipped)
		s.p.progress("skipped %s\n", sourceID)
	}
	return ok, nil
}

// Submit implements Sink.
func (s *runSink) Submit(ctx context.Context, d normalize.Draft) error {
	if d.SourceID == "" {
		s.Fail("draft", errors.New("empty source identifier"))
		return nil
	}
	ok, err := s.Admit(ctx, d.SourceID)
	if err != nil || !ok {
		return err
	}

	degraded := false
	if d.Classify && s.p.Oracle != nil {
		text := d.OracleText
		if text == "" {
			text = d.RawText
		}
		c := s.p.Oracle.Classify(ctx, text)
		d.Summary = c.Summary
		d.Country = c.Country
		d.ThreatLevel = c.ThreatLevel
		d.ThreatScore = c.ThreatScore
		d.Confidence = c.Confidence
		degraded = c.Degraded
	}

	r, err := s.p.Normalizer.Normalize(d)
	if err != nil {
		s.Fail(d.SourceID, err)
		return nil
	}

	inserted, err := s.p.Gate.Insert(ctx, r)
	if err != nil {
		return fmt.Errorf("%w: insert %s: %v", ErrStore, r.SourceID, err)
	}
	if !inserted {
		s.record(OutcomeSkipped)
		s.p.progress("skipped %s\n", r.SourceID)
		return nil
	}
	s.record(OutcomeAdmitted)
	if degraded {
		s.record(OutcomeDegraded)
	}
	s.p.progress("new     %s [%s %d]\n", r.SourceID, r.ThreatLevel, r.ThreatScore)
	return nil
}

// Fail implements Sink.
func (s *runSink) Fail(unit string, err error) {
	s.record(OutcomeFailed)
	s.log.Warn("unit failed", zap.String("unit", unit), zap.Error(err))
	s.p.progress("failed  %s: %v\n", unit, err)
}
