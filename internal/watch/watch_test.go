package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batches struct {
	mu  sync.Mutex
	all [][]string
	ch  chan struct{}
}

func newBatches() *batches { return &batches{ch: make(chan struct{}, 16)} }

func (b *batches) add(paths []string) {
	b.mu.Lock()
	b.all = append(b.all, paths)
	b.mu.Unlock()
	select {
	case b.ch <- struct{}{}:
	default:
	}
}

func (b *batches) flat() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, batch := range b.all {
		out = append(out, batch...)
	}
	return out
}

func (b *batches) wait(t *testing.T) {
	t.Helper()
	select {
	case <-b.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a change batch")
	}
}

func startWatch(t *testing.T, root string, opts Options, onChange func([]string)) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	opts.Ready = ready
	done := make(chan error, 1)
	go func() { done <- Run(ctx, root, opts, onChange) }()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("watch exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never became ready")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("watcher did not stop")
		}
	})
}

func resolved(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}

func TestRun_DebouncesWrites(t *testing.T) {
	root := resolved(t, t.TempDir())
	b := newBatches()
	startWatch(t, root, Options{Debounce: 100 * time.Millisecond}, b.add)

	a := filepath.Join(root, "a.py")
	c := filepath.Join(root, "c.py")
	require.NoError(t, os.WriteFile(a, []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("y = 2\n"), 0o644))

	b.wait(t)
	// Later batches may still arrive for the same files
	time.Sleep(300 * time.Millisecond)

	assert.Contains(t, b.flat(), a)
	assert.Contains(t, b.flat(), c)
}

func TestRun_WatchesNewDirectories(t *testing.T) {
	root := resolved(t, t.TempDir())
	b := newBatches()
	startWatch(t, root, Options{Debounce: 50 * time.Millisecond}, b.add)

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	b.wait(t)

	// Give the watcher a moment to register the new directory
	time.Sleep(200 * time.Millisecond)
	mod := filepath.Join(sub, "mod.py")
	require.NoError(t, os.WriteFile(mod, []byte("z = 3\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		for _, p := range b.flat() {
			if p == mod {
				return
			}
		}
		select {
		case <-b.ch:
		case <-deadline:
			t.Fatalf("no event for %s, got %v", mod, b.flat())
		}
	}
}

func TestRun_Ignore(t *testing.T) {
	root := resolved(t, t.TempDir())
	b := newBatches()
	opts := Options{
		Debounce: 50 * time.Millisecond,
		Ignore: func(path string, isDir bool) bool {
			return strings.HasSuffix(path, ".png")
		},
	}
	startWatch(t, root, opts, b.add)

	require.NoError(t, os.WriteFile(filepath.Join(root, "tree.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "keep.py"), []byte("x = 1\n"), 0o644))
	b.wait(t)
	time.Sleep(200 * time.Millisecond)

	for _, p := range b.flat() {
		assert.False(t, strings.HasSuffix(p, ".png"), "ignored path reported: %s", p)
	}
	assert.Contains(t, b.flat(), filepath.Join(root, "keep.py"))
}

func TestRun_MissingRoot(t *testing.T) {
	err := Run(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{}, func([]string) {})
	assert.Error(t, err)
}

func TestIgnored(t *testing.T) {
	root := "/repo"
	assert.True(t, ignored(nil, root, "/repo/.git", true))
	assert.True(t, ignored(nil, root, "/repo/pkg/__pycache__", true))
	assert.False(t, ignored(nil, root, "/repo/pkg", true))
	assert.True(t, ignored(nil, root, "/repo/.a.py.swp", false))
	assert.False(t, ignored(nil, root, "/repo/a.py", false))
	assert.True(t, ignored(func(string, bool) bool { return true }, root, "/repo/a.py", false))
}
