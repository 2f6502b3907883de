// Package pipeline orchestrates a curation run: profile, queries, discovery,
// categorization.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/resource-curator/internal/logging"
	"github.com/jonathan/resource-curator/internal/profile"
	"github.com/jonathan/resource-curator/internal/types"
)

// Stage names used in progress events and errors.
const (
	StageProfile    = "profile"
	StageQueries    = "queries"
	StageDiscover   = "discover"
	StageCategorize = "categorize"
	StageSave       = "save"
)

// Defaults applied when Options leave a field zero.
const (
	DefaultMaxResultsPerQuery = 3
	DefaultPacing             = 500 * time.Millisecond
	DefaultStageTimeout       = 2 * time.Minute
)

// StageError reports a run that could not complete. No partial result
// accompanies it.
type StageError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *StageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pipeline %s stage: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("pipeline %s stage: %s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

// ProgressEvent represents a progress update during a run.
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs.
type ProgressCallback func(event ProgressEvent)

// QueryGenerator produces search queries for a profile.
type QueryGenerator interface {
	Generate(ctx context.Context, p types.Profile) []string
}

// ResourceDiscoverer finds resources for one query.
type ResourceDiscoverer interface {
	Discover(ctx context.Context, query string, maxResults int) []types.Resource
}

// Categorizer partitions resources into the report categories.
type Categorizer interface {
	Categorize(ctx context.Context, resources []types.Resource, p types.Profile) types.CategorizedReport
}

// Saver persists a finished result and returns its record ID.
type Saver interface {
	SaveHome(ctx context.Context, userID string, result *types.PipelineResult) (string, error)
}

// Options tunes a run.
type Options struct {
	MaxResultsPerQuery int
	// Pacing is the pause between consecutive discovery calls.
	Pacing time.Duration
	// StageTimeout bounds each stage call; an expired stage takes its own fallback.
	StageTimeout time.Duration
	OnProgress   ProgressCallback
}

// Orchestrator runs the stages strictly in sequence.
type Orchestrator struct {
	queries    QueryGenerator
	discoverer ResourceDiscoverer
	categorize Categorizer
	opts       Options
	log        *logging.Logger
	now        func() time.Time
}

// New creates an Orchestrator.
func New(q QueryGenerator, d ResourceDiscoverer, c Categorizer, opts Options, log *logging.Logger) *Orchestrator {
	if opts.MaxResultsPerQuery <= 0 {
		opts.MaxResultsPerQuery = DefaultMaxResultsPerQuery
	}
	if opts.Pacing < 0 {
		opts.Pacing = 0
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = DefaultStageTimeout
	}
	return &Orchestrator{
		queries:    q,
		discoverer: d,
		categorize: c,
		opts:       opts,
		log:        logging.OrNop(log),
		now:        time.Now,
	}
}

// Run executes one curation run. The result always carries all six
// categories; an error means nothing usable was produced.
func (o *Orchestrator) Run(ctx context.Context, answers []types.Answer) (*types.PipelineResult, error) {
	start := o.now()

	p := profile.Extract(answers)
	o.emit(ctx, StageProfile, "extracted profile", p)

	queries, err := o.generateQueries(ctx, p)
	if err != nil {
		return nil, err
	}
	o.log.Info("[PIPELINE] queries ready", "count", len(queries))
	o.emit(ctx, StageQueries, fmt.Sprintf("generated %d queries", len(queries)), queries)

	resources := make([]types.Resource, 0, len(queries)*o.opts.MaxResultsPerQuery)
	for i, q := range queries {
		if i > 0 {
			if err := o.pause(ctx); err != nil {
				return nil, &StageError{Stage: StageDiscover, Message: "run canceled", Cause: err}
			}
		}

		found, err := o.discover(ctx, q)
		if err != nil {
			return nil, err
		}
		resources = append(resources, found...)
		o.emit(ctx, StageDiscover, fmt.Sprintf("query %d/%d: %d resources", i+1, len(queries), len(found)), q)
	}

	report, err := o.categorizeAll(ctx, resources, p)
	if err != nil {
		return nil, err
	}
	o.emit(ctx, StageCategorize, "categorized resources", report.Total())

	result := &types.PipelineResult{
		UserProfile:    p,
		SearchQueries:  queries,
		TotalResources: len(resources),
		Resources:      report,
		GeneratedAt:    o.now().UTC().Format(types.TimestampFormat),
	}

	o.log.Info("[PIPELINE] run complete",
		"queries", len(queries),
		"resources", result.TotalResources,
		"duration", o.now().Sub(start).String(),
	)
	return result, nil
}

// RunAndSave runs the pipeline and hands the result to saver, returning the
// saved record's ID.
func (o *Orchestrator) RunAndSave(ctx context.Context, userID string, answers []types.Answer, saver Saver) (string, *types.PipelineResult, error) {
	result, err := o.Run(ctx, answers)
	if err != nil {
		return "", nil, err
	}

	id, err := saver.SaveHome(ctx, userID, result)
	if err != nil {
		return "", nil, &StageError{Stage: StageSave, Message: "failed to persist result", Cause: err}
	}
	o.emit(ctx, StageSave, "saved result", id)
	return id, result, nil
}

func (o *Orchestrator) generateQueries(ctx context.Context, p types.Profile) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageQueries, Message: "run canceled", Cause: err}
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	queries := o.queries.Generate(stageCtx, p)
	if queries == nil {
		queries = []string{}
	}
	return queries, nil
}

func (o *Orchestrator) discover(ctx context.Context, query string) ([]types.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageDiscover, Message: "run canceled", Cause: err}
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	return o.discoverer.Discover(stageCtx, query, o.opts.MaxResultsPerQuery), nil
}

func (o *Orchestrator) categorizeAll(ctx context.Context, resources []types.Resource, p types.Profile) (types.CategorizedReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageCategorize, Message: "run canceled", Cause: err}
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()

	report := o.categorize.Categorize(stageCtx, resources, p)
	if report == nil {
		report = types.NewReport()
	}
	return report, nil
}

// pause waits for the pacing interval or until ctx is done.
func (o *Orchestrator) pause(ctx context.Context) error {
	if o.opts.Pacing == 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(o.opts.Pacing)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (o *Orchestrator) emit(ctx context.Context, stage, message string, content any) {
	event := ProgressEvent{Stage: stage, Message: message, Content: content}
	if o.opts.OnProgress != nil {
		o.opts.OnProgress(event)
	}
	if cb, ok := ctx.Value(progressKey{}).(ProgressCallback); ok && cb != nil {
		cb(event)
	}
}

type progressKey struct{}

// WithProgress attaches a callback that receives this run's progress events,
// in addition to Options.OnProgress.
func WithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}
