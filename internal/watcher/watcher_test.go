package watcher_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/dmxcheck/internal/testutil"
	"github.com/zjrosen/dmxcheck/internal/watcher"
)

func startWatcher(t *testing.T, registryPath string) <-chan struct{} {
	t.Helper()

	cfg := watcher.DefaultConfig(registryPath)
	cfg.DebounceDur = 50 * time.Millisecond

	w, err := watcher.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	changes, err := w.Start()
	require.NoError(t, err)
	return changes
}

func TestWatcherSignalsOnRegistryWrite(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"registry.yaml":   testutil.CleanRegistryYAML,
		"packs/film.yaml": testutil.CleanPackYAML,
	})
	registryPath := filepath.Join(dir, "registry.yaml")

	changes := startWatcher(t, registryPath)

	require.NoError(t, os.WriteFile(registryPath, []byte(testutil.CleanRegistryYAML), 0o600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change signal after registry write")
	}
}

func TestWatcherSignalsOnPackWrite(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"registry.yaml":   testutil.CleanRegistryYAML,
		"packs/film.yaml": testutil.CleanPackYAML,
	})

	changes := startWatcher(t, filepath.Join(dir, "registry.yaml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "packs", "film.yaml"),
		[]byte(testutil.CleanPackYAML), 0o600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change signal after pack write")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"registry.yaml": testutil.CleanRegistryYAML,
	})

	changes := startWatcher(t, filepath.Join(dir, "registry.yaml"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	select {
	case <-changes:
		t.Fatal("unexpected signal for a non-YAML file")
	case <-time.After(300 * time.Millisecond):
	}
}
