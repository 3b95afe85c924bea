package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startPoller runs p.Start in the background and waits out the baseline
// scan.
func startPoller(t *testing.T, p *Poller) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = p.Start(ctx)
	}()
	time.Sleep(100 * time.Millisecond)
}

// waitForRaw drains poller events until one for rel with the given op
// arrives, returning everything seen along the way.
func waitForRaw(t *testing.T, p *Poller, rel string, op Op) []Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	var seen []Event
	for {
		select {
		case e, ok := <-p.Events():
			if !ok {
				t.Fatalf("events channel closed while waiting for %s %s", op, rel)
			}
			seen = append(seen, e)
			if e.Rel == rel && e.Op == op {
				return seen
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s %s, saw %v", op, rel, seen)
		}
	}
}

func TestPoller_DetectsCreate(t *testing.T) {
	dir := t.TempDir()
	p := NewPoller(mustSet(t, dir, "**/*.txt"), 20*time.Millisecond)
	defer func() { _ = p.Stop() }()

	startPoller(t, p)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o644))

	waitForRaw(t, p, "new.txt", OpCreate)
}

func TestPoller_DetectsModify(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v1"), 0o644))

	p := NewPoller(mustSet(t, dir, "**/*.txt"), 20*time.Millisecond)
	defer func() { _ = p.Stop() }()

	startPoller(t, p)

	// Size change guarantees detection regardless of mtime granularity.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("v1 and more"), 0o644))

	waitForRaw(t, p, "a.txt", OpModify)
}

func TestPoller_DetectsDelete(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gone.txt"), []byte("x"), 0o644))

	p := NewPoller(mustSet(t, dir, "**/*.txt"), 20*time.Millisecond)
	defer func() { _ = p.Stop() }()

	startPoller(t, p)

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.txt")))

	seen := waitForRaw(t, p, "gone.txt", OpDelete)
	for _, e := range seen {
		if e.Rel == "gone.txt" {
			assert.False(t, e.IsDir)
		}
	}
}

func TestPoller_PrunedSubtreeInvisible(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "vendor"), 0o755))

	p := NewPoller(mustSet(t, dir, "**/*.txt", "!vendor"), 20*time.Millisecond)
	defer func() { _ = p.Stop() }()

	startPoller(t, p)

	// The pruned subtree is never scanned, so this file is invisible.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "v.txt"), []byte("x"), 0o644))
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seen.txt"), []byte("y"), 0o644))

	seen := waitForRaw(t, p, "seen.txt", OpCreate)
	for _, e := range seen {
		assert.NotContains(t, e.Rel, "vendor")
	}
}

func TestPoller_Stop_ClosesChannels(t *testing.T) {
	dir := t.TempDir()
	p := NewPoller(mustSet(t, dir, "**/*.txt"), 20*time.Millisecond)

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop()) // idempotent

	_, ok := <-p.Events()
	assert.False(t, ok)
}
