// package tasks implements taxonomy maintenance: diagnosis, bulk repair, and import.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pitchlog/internal/models"
	"github.com/desertthunder/pitchlog/internal/shared"
	"github.com/desertthunder/pitchlog/internal/taxonomy"
	"golang.org/x/time/rate"
)

// DefaultRepairRate is the number of row writes per second when none is configured.
const DefaultRepairRate = 10.0

// Report is the result of diagnosing every stored taxonomy row.
type Report struct {
	TotalLabels int
	TotalFlags  int
	Issues      []taxonomy.Issue
	Counts      map[taxonomy.Severity]int
	Labels      []string // ids of label rows with at least one issue
	Flags       []string // ids of flag rows with at least one issue
}

// Clean reports whether no issue was found.
func (r *Report) Clean() bool {
	return len(r.Issues) == 0
}

// RowResult is the outcome of rewriting one row.
type RowResult struct {
	Collection taxonomy.Collection
	ID         string
	Error      error
}

// RepairResult summarizes a repair run.
type RepairResult struct {
	Repaired []RowResult
	Failed   []RowResult
	Skipped  []RowResult // rows normalization cannot make usable; they need a manual fix
}

// RepairOpts configures [Engine.Repair].
type RepairOpts struct {
	DryRun    bool
	RateLimit float64 // writes per second
}

// Engine runs maintenance operations against a taxonomy backend.
type Engine struct {
	backend  taxonomy.Backend
	logger   *log.Logger
	onRepair func(ok bool)
	reserved []string
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithEngineLogger sets the logger failed rows are reported to.
func WithEngineLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRepairHook registers fn to be called after every attempted row write.
func WithRepairHook(fn func(ok bool)) EngineOption {
	return func(e *Engine) {
		e.onRepair = fn
	}
}

// WithReservedKeys sets the wizard keys imported hotkeys must not use.
func WithReservedKeys(keys ...string) EngineOption {
	return func(e *Engine) {
		e.reserved = append(e.reserved, keys...)
	}
}

// NewEngine creates an [Engine] over backend.
func NewEngine(backend taxonomy.Backend, opts ...EngineOption) *Engine {
	e := &Engine{backend: backend, logger: log.Default(), onRepair: func(bool) {}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// rows holds the raw and normalized form of every stored row.
type rows struct {
	rawLabels []models.RawLabel
	rawFlags  []models.RawFlag
	flags     map[string]models.Flag
	flagIssue map[string][]taxonomy.Issue
}

func (e *Engine) fetch(ctx context.Context, progress chan<- ProgressUpdate) (*rows, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: taxonomy backend not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchUpdate(1, 2, taxonomy.CollectionFlags))
	rawFlags, err := e.backend.FetchFlags(ctx)
	if err != nil {
		return nil, &taxonomy.FetchError{Collection: taxonomy.CollectionFlags, Err: err}
	}

	e.sendProgress(progress, fetchUpdate(2, 2, taxonomy.CollectionLabels))
	rawLabels, err := e.backend.FetchLabels(ctx)
	if err != nil {
		return nil, &taxonomy.FetchError{Collection: taxonomy.CollectionLabels, Err: err}
	}

	r := &rows{
		rawLabels: rawLabels,
		rawFlags:  rawFlags,
		flags:     make(map[string]models.Flag, len(rawFlags)),
		flagIssue: make(map[string][]taxonomy.Issue),
	}
	for _, raw := range rawFlags {
		flag, issues := taxonomy.NormalizeFlag(raw)
		r.flags[flag.ID] = flag
		if len(issues) > 0 {
			r.flagIssue[flag.ID] = issues
		}
	}
	return r, nil
}

// Diagnose classifies every problem in the stored taxonomy by severity without changing anything.
func (e *Engine) Diagnose(ctx context.Context, progress chan<- ProgressUpdate) (*Report, error) {
	r, err := e.fetch(ctx, progress)
	if err != nil {
		return nil, err
	}

	report := &Report{TotalLabels: len(r.rawLabels), TotalFlags: len(r.rawFlags)}
	total := len(r.rawFlags) + len(r.rawLabels)

	for i, raw := range r.rawFlags {
		if issues := r.flagIssue[raw.ID]; len(issues) > 0 {
			report.Issues = append(report.Issues, issues...)
			report.Flags = append(report.Flags, raw.ID)
		}
		e.sendProgress(progress, diagnoseUpdate(i+1, total, taxonomy.CollectionFlags, raw.ID))
	}

	for i, raw := range r.rawLabels {
		if _, issues := taxonomy.NormalizeLabel(raw, r.flags); len(issues) > 0 {
			report.Issues = append(report.Issues, issues...)
			report.Labels = append(report.Labels, raw.ID)
		}
		e.sendProgress(progress, diagnoseUpdate(len(r.rawFlags)+i+1, total, taxonomy.CollectionLabels, raw.ID))
	}

	report.Counts = taxonomy.CountBySeverity(report.Issues)
	return report, nil
}

// Repair rewrites every row with an issue into its normalized form through the backend's upsert.
//
// Writes are rate limited and not transactional: a row that fails is logged and skipped, never retried.
// Flags are written before labels so repaired labels reference repaired flags.
func (e *Engine) Repair(ctx context.Context, progress chan<- ProgressUpdate, opts RepairOpts) (*RepairResult, error) {
	r, err := e.fetch(ctx, progress)
	if err != nil {
		return nil, err
	}

	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRepairRate
	}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	type job struct {
		collection taxonomy.Collection
		id         string
		write      func() error
	}

	result := &RepairResult{}
	var jobs []job

	for _, raw := range r.rawFlags {
		if len(r.flagIssue[raw.ID]) == 0 {
			continue
		}
		flag := r.flags[raw.ID]
		if !flag.Usable() {
			result.Skipped = append(result.Skipped, RowResult{
				Collection: taxonomy.CollectionFlags,
				ID:         raw.ID,
				Error:      fmt.Errorf("%w: flag %s has no usable values", shared.ErrInvalidInput, raw.ID),
			})
			continue
		}
		jobs = append(jobs, job{taxonomy.CollectionFlags, raw.ID, func() error {
			row, err := flag.ToRaw()
			if err != nil {
				return err
			}
			return e.backend.UpsertFlag(ctx, row)
		}})
	}

	for _, raw := range r.rawLabels {
		label, issues := taxonomy.NormalizeLabel(raw, r.flags)
		if len(issues) == 0 {
			continue
		}
		jobs = append(jobs, job{taxonomy.CollectionLabels, raw.ID, func() error {
			row, err := label.ToRaw()
			if err != nil {
				return err
			}
			return e.backend.UpsertLabel(ctx, row)
		}})
	}

	for i, j := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			return result, err
		}

		res := RowResult{Collection: j.collection, ID: j.id}
		if !opts.DryRun {
			res.Error = j.write()
		}

		if res.Error != nil {
			e.logger.Warn("repair failed; skipping row", "collection", j.collection, "id", j.id, "error", res.Error)
			result.Failed = append(result.Failed, res)
		} else {
			result.Repaired = append(result.Repaired, res)
		}
		if !opts.DryRun {
			e.onRepair(res.Error == nil)
		}
		e.sendProgress(progress, repairUpdate(i+1, len(jobs), res, opts.DryRun))
	}

	return result, nil
}
