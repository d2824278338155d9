package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devamjariwala24/pycodeadvisor/internal/advice"
	"github.com/devamjariwala24/pycodeadvisor/internal/data/cachestore"
)

// Recommendations persisted by one process must survive into the next: a
// second pipeline over the same store serves the identical fault from cache
// without touching the backend.
func TestRecommendationsSurviveRestart(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"broken.py": "import os\n\n\ndef main():\n    values = [1, 2\n",
	})
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store, err := cachestore.Open(dbPath)
	require.NoError(t, err)

	client := &stubClient{}
	first, err := New(Options{Root: root, Config: testConfig(), Client: client, Store: store})
	require.NoError(t, err)

	report, err := first.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, 1, report.Summary.Fresh)
	require.NoError(t, store.Close())

	// Fresh process: new store handle, new pipeline, same fault.
	reopened, err := cachestore.Open(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	second, err := New(Options{Root: root, Config: testConfig(), Client: client, Store: reopened})
	require.NoError(t, err)

	report2, err := second.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report2.Findings, 1)

	assert.Equal(t, 1, report2.Summary.Cached, "restart must reuse the persisted recommendation")
	assert.Equal(t, 0, report2.Summary.Fresh)
	assert.Equal(t, advice.SourceCachedInference, report2.Findings[0].Recommendation.Source)
	assert.EqualValues(t, 1, client.calls.Load(), "backend must be called once across restarts")
}

// Editing the fault changes its fingerprint, so the stale persisted
// recommendation is not reused for the new fault.
func TestEditedFaultGetsFreshRecommendation(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"broken.py": "def f()\n    return 1\n",
	})
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store, err := cachestore.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	client := &stubClient{}
	p, err := New(Options{Root: root, Config: testConfig(), Client: client, Store: store})
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.Findings)
	firstCalls := client.calls.Load()

	// Replace the missing colon with an unclosed bracket.
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.py"), []byte("values = [1, 2\n"), 0o644))

	report2, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report2.Findings)

	assert.Greater(t, client.calls.Load(), firstCalls, "a different fault must reach the backend")
	assert.Equal(t, 0, report2.Summary.Cached)
}
