package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

// startWatch runs Watch in the background and returns a counter of onChange calls.
func startWatch(t *testing.T, root string, opts Options) *atomic.Int32 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var calls atomic.Int32
	go func() {
		defer close(done)
		_ = Watch(ctx, root, opts, quietLogger(), func(context.Context) { calls.Add(1) })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return &calls
}

func write(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatch_MarkdownBurstTriggersOnce(t *testing.T) {
	root := t.TempDir()
	calls := startWatch(t, root, Options{Debounce: 100 * time.Millisecond})

	write(t, filepath.Join(root, "a.md"), "# A")
	write(t, filepath.Join(root, "b.md"), "# B")
	write(t, filepath.Join(root, "a.md"), "# A2")

	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() == 1 },
		"onChange not called after markdown writes")
	time.Sleep(250 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("onChange calls = %d, want 1 (burst coalesced)", n)
	}
}

func TestWatch_IgnoresNonMarkdown(t *testing.T) {
	root := t.TempDir()
	calls := startWatch(t, root, Options{Debounce: 50 * time.Millisecond})

	write(t, filepath.Join(root, "notes.txt"), "x")
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("onChange calls = %d, want 0", n)
	}
}

func TestWatch_RemoveTriggers(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "gone.md"), "# Gone")
	calls := startWatch(t, root, Options{Debounce: 50 * time.Millisecond})

	if err := os.Remove(filepath.Join(root, "gone.md")); err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() >= 1 },
		"onChange not called after remove")
}

func TestWatch_NewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	calls := startWatch(t, root, Options{Debounce: 50 * time.Millisecond})

	if err := os.Mkdir(filepath.Join(root, "02-decisions"), 0o755); err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() >= 1 },
		"onChange not called for new directory")
	before := calls.Load()

	time.Sleep(100 * time.Millisecond)
	write(t, filepath.Join(root, "02-decisions", "001-go.md"), "# Go")
	eventually(t, 3*time.Second, 20*time.Millisecond, func() bool { return calls.Load() > before },
		"file in new directory not watched")
}

func TestWatch_SkippedPathsIgnored(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "drafts"), 0o755); err != nil {
		t.Fatal(err)
	}
	calls := startWatch(t, root, Options{
		Debounce: 50 * time.Millisecond,
		Skip:     func(rel string) bool { return rel == "drafts" || strings.HasPrefix(rel, "drafts/") },
	})

	write(t, filepath.Join(root, "drafts", "wip.md"), "# WIP")
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("onChange calls = %d, want 0 for skipped dir", n)
	}
}

func TestWatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Watch(ctx, t.TempDir(), Options{}, quietLogger(), func(context.Context) {}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Watch returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{}, quietLogger(), func(context.Context) {})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}
