package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
	notify  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 16)}
}

func (r *recorder) onChange(paths []string) {
	r.mu.Lock()
	r.batches = append(r.batches, paths)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *recorder) lastBatch() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return nil
	}
	return r.batches[len(r.batches)-1]
}

func waitForBatch(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.notify:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change batch")
	}
}

func startWatcher(t *testing.T, root string, rec *recorder) *Watcher {
	t.Helper()
	w, err := New(50*time.Millisecond, []string{"venv", "__pycache__"}, nil, rec.onChange)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Watch(root); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWatcherReportsPythonChanges(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, root, rec)

	path := filepath.Join(root, "app.py")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	waitForBatch(t, rec)
	batch := rec.lastBatch()
	if len(batch) != 1 || filepath.Base(batch[0]) != "app.py" {
		t.Errorf("unexpected batch: %v", batch)
	}
}

func TestWatcherIgnoresNonPythonFiles(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, root, rec)

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := rec.batchCount(); n != 0 {
		t.Errorf("non-python change must not trigger, got %d batches", n)
	}
}

func TestWatcherIgnoresExcludedDirs(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "venv"), 0o755); err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	startWatcher(t, root, rec)

	if err := os.WriteFile(filepath.Join(root, "venv", "lib.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := rec.batchCount(); n != 0 {
		t.Errorf("excluded dir change must not trigger, got %d batches", n)
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()
	rec := newRecorder()
	startWatcher(t, root, rec)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(filepath.Join(root, "app.py"), []byte("x = 1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	waitForBatch(t, rec)
	// Allow any straggler flush to land before counting.
	time.Sleep(200 * time.Millisecond)
	if n := rec.batchCount(); n > 2 {
		t.Errorf("expected the burst to collapse into at most 2 batches, got %d", n)
	}
}
