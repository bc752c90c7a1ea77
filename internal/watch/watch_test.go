package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collectBatch(t *testing.T, w *Watcher, timeout time.Duration) Batch {
	t.Helper()
	select {
	case batch := <-w.Batches:
		return batch
	case <-time.After(timeout):
		return nil
	}
}

func TestWatcherEmitsBatchForChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 50 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	file := filepath.Join(src, "lib.rs")
	if err := os.WriteFile(file, []byte("pub fn main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	batch := collectBatch(t, w, 3*time.Second)
	if batch == nil {
		t.Fatal("no batch emitted for a source change")
	}
	found := false
	for _, path := range batch {
		if path == file {
			found = true
		}
	}
	if !found {
		t.Errorf("batch %v does not contain %s", batch, file)
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 100 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// A burst of writes to the same file within the debounce window must
	// fold into batches that never repeat the path back-to-back instantly.
	file := filepath.Join(dir, "shader.rs")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	batch := collectBatch(t, w, 3*time.Second)
	if batch == nil {
		t.Fatal("burst produced no batch")
	}
	seen := map[string]int{}
	for _, path := range batch {
		seen[path]++
	}
	if seen[file] != 1 {
		t.Errorf("path repeated %d times within one batch", seen[file])
	}
}

func TestWatcherIgnoresTargetDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target", "debug")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 50 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(target, "junk.o"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if batch := collectBatch(t, w, 500*time.Millisecond); batch != nil {
		t.Errorf("change under target/ produced batch %v", batch)
	}
}

func TestStopReturnsWithUnconsumedBatches(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 20 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	// Accumulate more batches than the channel buffers, with nothing
	// reading them, the way a consumer that already exited would leave
	// things.
	for i := 0; i < 8; i++ {
		file := filepath.Join(dir, fmt.Sprintf("f%d.rs", i))
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(80 * time.Millisecond)
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop blocked while batches were left unconsumed")
	}
}

func TestWatcherPicksUpNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	w.Debounce = 50 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	sub := filepath.Join(dir, "src")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	// Drain the batch for the directory creation itself.
	collectBatch(t, w, 2*time.Second)

	file := filepath.Join(sub, "new.rs")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case batch := <-w.Batches:
			for _, path := range batch {
				if path == file {
					return
				}
			}
		case <-deadline:
			t.Fatal("file in new subdirectory never reported")
		}
	}
}
