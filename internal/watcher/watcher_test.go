package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncedReextraction(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n"), 0o644))

	var runs atomic.Int32
	started := make(chan []string, 8)
	done := make(chan struct{}, 8)

	w, err := New(root,
		func(ctx context.Context) (int, int, error) {
			runs.Add(1)
			return 3, 2, nil
		},
		WithDebounceDelay(50*time.Millisecond),
		WithOnStart(func(changed []string) { started <- changed }),
		WithOnDone(func(nodes, rels int, d time.Duration) {
			assert.Equal(t, 3, nodes)
			assert.Equal(t, 2, rels)
			done <- struct{}{}
		}),
	)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	// Two quick writes inside one debounce window.
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a\n\nfunc A() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.go"), []byte("package a\n"), 0o644))

	select {
	case changed := <-started:
		assert.NotEmpty(t, changed)
	case <-time.After(3 * time.Second):
		t.Fatal("re-extraction never started")
	}
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("re-extraction never completed")
	}

	assert.Equal(t, int32(1), runs.Load(), "coalesced into a single run")
}

func TestIgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()

	w, err := New(root,
		func(ctx context.Context) (int, int, error) {
			t.Error("re-extraction must not run for unwatched file types")
			return 0, 0, nil
		},
		WithDebounceDelay(30*time.Millisecond),
	)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "image.png"), []byte{1, 2, 3}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "code_test.go"), []byte("package a\n"), 0o644))

	time.Sleep(200 * time.Millisecond)
}

func TestErrorCallback(t *testing.T) {
	root := t.TempDir()
	errs := make(chan error, 1)

	w, err := New(root,
		func(ctx context.Context) (int, int, error) {
			return 0, 0, assert.AnError
		},
		WithDebounceDelay(20*time.Millisecond),
		WithOnError(func(err error) { errs <- err }),
	)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(root, "x.md"), []byte("# hi\n"), 0o644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(3 * time.Second):
		t.Fatal("error callback never fired")
	}
}
