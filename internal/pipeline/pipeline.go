// Package pipeline wires discovery, inspection, caching and inference into
// one analysis run over a project root.
package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/devamjariwala24/pycodeadvisor/internal/advice"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/config"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
	"github.com/devamjariwala24/pycodeadvisor/internal/data/cache"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/selector"
	"github.com/devamjariwala24/pycodeadvisor/internal/shared/observability"
	"github.com/devamjariwala24/pycodeadvisor/internal/shared/util"
)

// Finding pairs one detected fault with the recommendation produced for it.
type Finding struct {
	Event          inspector.ErrorEvent  `json:"event"`
	Recommendation advice.Recommendation `json:"recommendation"`
}

// SkippedFile records a file the run could not analyze.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Summary aggregates one run's counters.
type Summary struct {
	FilesScanned int           `json:"files_scanned"`
	Faults       int           `json:"faults"`
	Cached       int           `json:"cached"`
	Fresh        int           `json:"fresh"`
	Local        int           `json:"local"`
	BudgetDenied int           `json:"budget_denied"`
	Truncated    int           `json:"truncated"`
	Skipped      []SkippedFile `json:"skipped,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}

// Report is the full result of one analysis run. Findings keep discovery
// order: files in dependency order, faults in line order within a file.
type Report struct {
	RunID    string    `json:"run_id"`
	Root     string    `json:"root"`
	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
}

// Options configures a Pipeline. Client may be nil to force local-only
// analysis; Store may be nil to keep the cache purely in memory.
type Options struct {
	Root   string
	Config *config.Config
	Client ports.InferenceClient
	Store  ports.RecommendationStore
	Jobs   int
}

type Pipeline struct {
	root      string
	cfg       *config.Config
	inspector *inspector.Inspector
	cache     *cache.ResponseCache
	budget    *util.Budget
	client    ports.InferenceClient
	jobs      int

	warmOnce sync.Once
}

func New(opts Options) (*Pipeline, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	client := opts.Client
	if !cfg.Inference.IsEnabled() {
		client = nil
	}

	return &Pipeline{
		root:      opts.Root,
		cfg:       cfg,
		inspector: inspector.New(),
		cache: cache.New(cache.Config{
			TTL:      cfg.Cache.TTL(),
			Capacity: cfg.Cache.Capacity,
		}, opts.Store),
		budget: util.NewBudget(cfg.Inference.MaxCalls, cfg.Inference.Window()),
		client: client,
		jobs:   jobs,
	}, nil
}

// Run executes one full analysis pass. Cancellation mid-run returns the
// findings completed so far together with the context error.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:    uuid.NewString(),
		Root:     p.root,
		Findings: []Finding{},
	}
	log := slog.With("run_id", report.RunID)

	p.warmOnce.Do(func() {
		if err := p.cache.WarmFromStore(ctx); err != nil {
			log.Warn("cache warm-up failed, starting cold", "error", err)
		}
	})

	sel, err := selector.New(p.root, selector.Config{
		ExcludeDirs:  p.cfg.Analysis.ExcludeDirs,
		ExcludeFiles: p.cfg.Analysis.ExcludeFiles,
		MaxFiles:     p.cfg.Analysis.MaxFiles,
	})
	if err != nil {
		return nil, err
	}
	selection, err := sel.Select()
	if err != nil {
		return nil, err
	}
	report.Root = sel.Root()
	report.Summary.Truncated = selection.Truncated
	log.Info("file selection complete",
		"files", len(selection.Files), "truncated", selection.Truncated)

	events, skipped, inspectErr := p.inspectAll(ctx, selection.Files)
	report.Summary.FilesScanned = len(selection.Files) - len(skipped)
	report.Summary.Skipped = skipped

	for _, fileEvents := range events {
		for _, event := range fileEvents {
			if ctx.Err() != nil {
				break
			}
			finding := Finding{
				Event:          event,
				Recommendation: p.advise(ctx, event, report),
			}
			report.Findings = append(report.Findings, finding)
		}
	}
	report.Summary.Faults = len(report.Findings)
	report.Summary.Duration = time.Since(started)
	observability.PipelineDuration.Observe(report.Summary.Duration.Seconds())

	log.Info("run complete",
		"faults", report.Summary.Faults,
		"cached", report.Summary.Cached,
		"fresh", report.Summary.Fresh,
		"local", report.Summary.Local,
		"duration", report.Summary.Duration)

	if inspectErr != nil {
		return report, inspectErr
	}
	return report, ctx.Err()
}

// inspectAll parses every selected file concurrently. Result slots are
// indexed by file position so output order matches selection order no matter
// which worker finishes first. Unreadable files are reported, not fatal.
func (p *Pipeline) inspectAll(ctx context.Context, files []string) ([][]inspector.ErrorEvent, []SkippedFile, error) {
	results := make([][]inspector.ErrorEvent, len(files))
	unreadable := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(p.jobs, max(len(files), 1)))

	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			inspectStart := time.Now()
			events, err := p.inspector.InspectFile(path)
			observability.InspectionDuration.Observe(time.Since(inspectStart).Seconds())
			if err != nil {
				if errors.IsCode(err, errors.CodeUnreadableFile) {
					unreadable[i] = err
					return nil
				}
				return err
			}

			observability.FilesScannedTotal.Inc()
			for _, e := range events {
				observability.FaultsFoundTotal.WithLabelValues(string(e.Kind)).Inc()
			}
			results[i] = events
			return nil
		})
	}

	err := g.Wait()
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		// Keep whatever finished; the caller surfaces the cancellation.
		err = nil
	}

	var skipped []SkippedFile
	for i, readErr := range unreadable {
		if readErr != nil {
			slog.Warn("skipping unreadable file", "path", files[i], "error", readErr)
			skipped = append(skipped, SkippedFile{Path: files[i], Reason: readErr.Error()})
		}
	}
	return results, skipped, err
}

// advise resolves one fault to a recommendation: cache first, then backend
// inference within the rate budget, local heuristics as the floor. A backend
// failure never fails the run.
func (p *Pipeline) advise(ctx context.Context, event inspector.ErrorEvent, report *Report) advice.Recommendation {
	fingerprint := inspector.Fingerprint(event)

	if p.client == nil {
		report.Summary.Local++
		return advice.BuildLocal(event)
	}

	rec, cached, err := p.resolve(ctx, fingerprint, event)
	if err != nil {
		if errors.IsCode(err, errors.CodeRateLimited) {
			report.Summary.BudgetDenied++
			observability.BudgetDeniedTotal.Inc()
		} else {
			slog.Warn("inference failed, falling back to local analysis",
				"file", event.File, "line", event.Line, "error", err)
		}
		report.Summary.Local++
		return advice.BuildLocal(event)
	}

	if cached {
		observability.CacheLookupsTotal.WithLabelValues("hit").Inc()
		report.Summary.Cached++
		rec.Source = advice.SourceCachedInference
		return rec
	}
	observability.CacheLookupsTotal.WithLabelValues("miss").Inc()
	report.Summary.Fresh++
	return rec
}

// resolve looks the fingerprint up in the cache, computing through the
// backend on a miss. Backend errors carry the fingerprint so log lines can
// be correlated with cache entries.
func (p *Pipeline) resolve(ctx context.Context, fingerprint string, event inspector.ErrorEvent) (advice.Recommendation, bool, error) {
	return p.cache.GetOrCompute(ctx, fingerprint,
		func(ctx context.Context) (advice.Recommendation, error) {
			rec, err := p.infer(ctx, event)
			if err != nil {
				return rec, errors.AddContext(err, errors.CtxFingerprint, fingerprint)
			}
			return rec, nil
		})
}

// infer performs one budgeted backend call and shapes the raw suggestion
// into a Recommendation.
func (p *Pipeline) infer(ctx context.Context, event inspector.ErrorEvent) (advice.Recommendation, error) {
	if !p.budget.TryAcquire() {
		return advice.Recommendation{}, errors.New(errors.CodeRateLimited, "inference budget exhausted")
	}

	inferStart := time.Now()
	raw, err := p.client.Infer(ctx, event)
	observability.InferenceDuration.WithLabelValues(p.cfg.Inference.Backend).Observe(time.Since(inferStart).Seconds())
	if err != nil {
		observability.InferenceCallsTotal.WithLabelValues("failure").Inc()
		return advice.Recommendation{}, err
	}
	observability.InferenceCallsTotal.WithLabelValues("success").Inc()

	builder := advice.NewBuilder().
		WithExplanation(raw.Explanation).
		WithFix(raw.SuggestedFix).
		WithSource(advice.SourceFreshInference)
	if raw.ConfidenceReported {
		builder = builder.WithConfidence(raw.Confidence)
	}
	return builder.Build()
}
