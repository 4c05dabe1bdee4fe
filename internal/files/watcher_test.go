package files_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lsr/internal/files"
	"github.com/standardbeagle/lsr/testhelpers"
)

type batchRecorder struct {
	mu      sync.Mutex
	changed map[string]bool
	removed map[string]bool
}

func newBatchRecorder() *batchRecorder {
	return &batchRecorder{changed: map[string]bool{}, removed: map[string]bool{}}
}

func (r *batchRecorder) record(b files.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range b.Changed {
		r.changed[filepath.Base(p)] = true
	}
	for _, p := range b.Removed {
		r.removed[filepath.Base(p)] = true
	}
}

func (r *batchRecorder) sawChanged(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changed[name]
}

func (r *batchRecorder) sawRemoved(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removed[name]
}

func TestWatcher_DeliversFilteredBatches(t *testing.T) {
	testhelpers.VerifyNoLeaks(t)
	testhelpers.SkipIfShort(t, "uses real file system notifications")

	root := testhelpers.WriteProject(t, map[string]string{
		".gitignore": "*.log\n",
		"a.go":       "package a",
	})
	w, err := files.NewWalker(root, files.Options{Gitignore: true})
	require.NoError(t, err)
	_, err = w.Walk(context.Background())
	require.NoError(t, err)

	rec := newBatchRecorder()
	watcher := files.NewWatcher(w, 20*time.Millisecond, rec.record)
	require.NoError(t, watcher.Start(context.Background()))
	defer func() { assert.NoError(t, watcher.Stop()) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "app.log"), []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a // edited"), 0o644))

	testhelpers.WaitFor(t, func() bool {
		return rec.sawChanged("a.go") && rec.sawChanged("b.go")
	}, 5*time.Second)
	assert.False(t, rec.sawChanged("app.log"))

	require.NoError(t, os.Remove(filepath.Join(root, "b.go")))
	testhelpers.WaitFor(t, func() bool { return rec.sawRemoved("b.go") }, 5*time.Second)

	stats := watcher.Stats()
	assert.GreaterOrEqual(t, stats.Batches, int64(1))
	assert.GreaterOrEqual(t, stats.EventsProcessed, int64(3))
	assert.Equal(t, 1, stats.Watches)
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := files.NewWalker(t.TempDir(), files.Options{})
	require.NoError(t, err)
	watcher := files.NewWatcher(w, 0, nil)
	assert.NoError(t, watcher.Stop())
}

func TestWatcher_StopsWithContext(t *testing.T) {
	testhelpers.VerifyNoLeaks(t)

	w, err := files.NewWalker(t.TempDir(), files.Options{})
	require.NoError(t, err)
	watcher := files.NewWatcher(w, 10*time.Millisecond, func(files.Batch) {})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, watcher.Start(ctx))
	cancel()
	assert.NoError(t, watcher.Stop())
}
