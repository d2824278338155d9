package pipeline

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/devamjariwala24/pycodeadvisor/internal/advice"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/config"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/inspector"
)

const goodAnswer = "EXPLANATION:\nThe bracket on this line is never closed.\n\nSUGGESTED FIX:\nClose the bracket.\n\nCONFIDENCE:\n0.9"

// stubClient counts invocations and answers from a fixed script.
type stubClient struct {
	calls atomic.Int32
	err   error
}

func (s *stubClient) Infer(context.Context, inspector.ErrorEvent) (*ports.RawSuggestion, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &ports.RawSuggestion{
		Explanation:        "The bracket on this line is never closed.",
		SuggestedFix:       "Close the bracket.",
		Confidence:         0.9,
		ConfidenceReported: true,
	}, nil
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Inference.MaxCalls = 100
	cfg.Inference.WindowSeconds = 3600
	return cfg
}

func newTestPipeline(t *testing.T, root string, cfg *config.Config, client ports.InferenceClient) *Pipeline {
	t.Helper()
	p, err := New(Options{Root: root, Config: cfg, Client: client, Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunFindsFaultAmongCleanFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"alpha.py":  "x = 1\n",
		"beta.py":   "import os\n\n\ndef main():\n    values = [1, 2\n",
		"gamma.py":  "def ok():\n    return 2\n",
		"README.md": "not python\n",
	})

	client := &stubClient{}
	p := newTestPipeline(t, root, testConfig(), client)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.RunID == "" {
		t.Error("expected a run id")
	}
	if report.Summary.FilesScanned != 3 {
		t.Errorf("files scanned = %d, want 3", report.Summary.FilesScanned)
	}
	if len(report.Findings) != 1 {
		t.Fatalf("findings = %d, want 1: %+v", len(report.Findings), report.Findings)
	}

	f := report.Findings[0]
	if filepath.Base(f.Event.File) != "beta.py" {
		t.Errorf("fault attributed to %s", f.Event.File)
	}
	if f.Event.Line != 5 {
		t.Errorf("fault line = %d, want 5", f.Event.Line)
	}
	if f.Recommendation.Source != advice.SourceFreshInference {
		t.Errorf("source = %s, want fresh inference", f.Recommendation.Source)
	}
	if f.Recommendation.Confidence != 0.9 {
		t.Errorf("confidence = %v", f.Recommendation.Confidence)
	}
	if report.Summary.Fresh != 1 || report.Summary.Cached != 0 || report.Summary.Local != 0 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestRunHonorsMaxFiles(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.py": "x = 1\n",
		"b.py": "x = 2\n",
		"c.py": "x = 3\n",
		"d.py": "x = 4\n",
		"e.py": "x = 5\n",
	})

	cfg := testConfig()
	cfg.Analysis.MaxFiles = 2
	p := newTestPipeline(t, root, cfg, &stubClient{})

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.FilesScanned != 2 {
		t.Errorf("files scanned = %d, want 2", report.Summary.FilesScanned)
	}
	if report.Summary.Truncated != 3 {
		t.Errorf("truncated = %d, want 3", report.Summary.Truncated)
	}
}

func TestRunDegradesToLocalWhenBackendDown(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"broken.py": "def f()\n    return 1\n",
	})

	client := &stubClient{err: errors.New(errors.CodeBackendUnavailable, "connection refused")}
	p := newTestPipeline(t, root, testConfig(), client)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Findings) == 0 {
		t.Fatal("expected at least one finding")
	}
	for _, f := range report.Findings {
		if f.Recommendation.Source != advice.SourceLocalAnalysis {
			t.Errorf("source = %s, want local analysis", f.Recommendation.Source)
		}
		if f.Recommendation.Explanation == "" {
			t.Error("local recommendation must still explain the fault")
		}
	}
	if report.Summary.Local != len(report.Findings) {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestRunEmptyRoot(t *testing.T) {
	client := &stubClient{}
	p := newTestPipeline(t, t.TempDir(), testConfig(), client)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Findings) != 0 {
		t.Errorf("findings = %d, want 0", len(report.Findings))
	}
	if report.Summary.FilesScanned != 0 {
		t.Errorf("files scanned = %d, want 0", report.Summary.FilesScanned)
	}
	if n := client.calls.Load(); n != 0 {
		t.Errorf("no faults must mean no inference calls, got %d", n)
	}
}

func TestRunInvalidRoot(t *testing.T) {
	p := newTestPipeline(t, filepath.Join(t.TempDir(), "missing"), testConfig(), &stubClient{})
	_, err := p.Run(context.Background())
	if !errors.IsCode(err, errors.CodeInvalidRoot) {
		t.Errorf("expected invalid root, got %v", err)
	}
}

func TestSecondRunServedFromCache(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"broken.py": "import os\n\n\ndef main():\n    values = [1, 2\n",
	})

	client := &stubClient{}
	p := newTestPipeline(t, root, testConfig(), client)

	first, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if first.Summary.Fresh != 1 {
		t.Fatalf("first run summary = %+v", first.Summary)
	}

	second, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.Summary.Cached != 1 || second.Summary.Fresh != 0 {
		t.Errorf("second run summary = %+v", second.Summary)
	}
	if len(second.Findings) != 1 {
		t.Fatalf("second run findings = %d", len(second.Findings))
	}
	if second.Findings[0].Recommendation.Source != advice.SourceCachedInference {
		t.Errorf("source = %s, want cached inference", second.Findings[0].Recommendation.Source)
	}
	if n := client.calls.Load(); n != 1 {
		t.Errorf("identical fault must hit the backend once, got %d calls", n)
	}
}

func TestBudgetExhaustionFallsBackToLocal(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"colon.py":   "def f()\n    return 1\n",
		"bracket.py": "values = [1, 2\n",
	})

	cfg := testConfig()
	cfg.Inference.MaxCalls = 1
	client := &stubClient{}
	p := newTestPipeline(t, root, cfg, client)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Findings) < 2 {
		t.Fatalf("expected faults in both files, got %d", len(report.Findings))
	}
	if n := client.calls.Load(); n != 1 {
		t.Errorf("budget of 1 must allow exactly one backend call, got %d", n)
	}
	if report.Summary.Fresh != 1 {
		t.Errorf("fresh = %d, want 1", report.Summary.Fresh)
	}
	if report.Summary.Local == 0 || report.Summary.BudgetDenied == 0 {
		t.Errorf("expected local fallbacks after budget exhaustion: %+v", report.Summary)
	}
}

func TestInferenceDisabledStaysLocal(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"broken.py": "values = [1, 2\n",
	})

	cfg := testConfig()
	disabled := false
	cfg.Inference.Enabled = &disabled
	client := &stubClient{}
	p := newTestPipeline(t, root, cfg, client)

	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n := client.calls.Load(); n != 0 {
		t.Errorf("disabled inference must not call the backend, got %d", n)
	}
	for _, f := range report.Findings {
		if f.Recommendation.Source != advice.SourceLocalAnalysis {
			t.Errorf("source = %s, want local analysis", f.Recommendation.Source)
		}
	}
}

func TestRunExcludesConfiguredDirs(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"app.py":               "x = 1\n",
		"venv/lib.py":          "values = [1, 2\n",
		"__pycache__/cache.py": "values = [1, 2\n",
	})

	p := newTestPipeline(t, root, testConfig(), &stubClient{})
	report, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.FilesScanned != 1 {
		t.Errorf("files scanned = %d, want 1", report.Summary.FilesScanned)
	}
	if len(report.Findings) != 0 {
		t.Errorf("faults inside excluded dirs must be invisible: %+v", report.Findings)
	}
}

func TestBackendErrorsCarryFingerprint(t *testing.T) {
	client := &stubClient{err: errors.New(errors.CodeBackendUnavailable, "down")}
	p := newTestPipeline(t, t.TempDir(), testConfig(), client)

	event := inspector.ErrorEvent{
		File: "app.py", Line: 3, Column: 1,
		Kind: inspector.KindSyntaxError, Message: "expected ':'",
	}
	_, _, err := p.resolve(context.Background(), "fp123", event)
	if !errors.IsCode(err, errors.CodeBackendUnavailable) {
		t.Fatalf("expected backend error, got %v", err)
	}

	var de *errors.DomainError
	if !stderrors.As(err, &de) {
		t.Fatalf("expected a domain error, got %T", err)
	}
	if de.Context[errors.CtxFingerprint] != "fp123" {
		t.Errorf("fingerprint context = %v", de.Context[errors.CtxFingerprint])
	}
}

func TestRunCancelledContext(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"a.py": "x = 1\n",
	})

	p := newTestPipeline(t, root, testConfig(), &stubClient{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx)
	if err == nil {
		t.Error("expected the context error to surface")
	}
	if report == nil {
		t.Fatal("cancellation must still return the partial report")
	}
}
