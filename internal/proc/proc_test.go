//go:build !windows

package proc

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOutputCapturesStdout(t *testing.T) {
	out, err := Output(context.Background(), Exec{}, "", "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Errorf("stdout = %q", out)
	}
}

func TestOutputFoldsStderrIntoError(t *testing.T) {
	_, err := Output(context.Background(), Exec{}, "", "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("want error for nonzero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("stderr not in error: %v", err)
	}
}

func TestOutputRunsInDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sentinel.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := Output(context.Background(), Exec{}, dir, "ls")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "sentinel.txt") {
		t.Errorf("command did not run in %s, ls = %q", dir, out)
	}
}

func TestRunCancellationKillsProcess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		_, err := Output(ctx, Exec{}, "", "sh", "-c", "sleep 30")
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("want context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled process did not terminate")
	}
}
