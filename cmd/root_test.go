//go:build !windows

package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/prismforge/gpubuild/internal/proc"
)

// An interrupt must cancel the command context and take the running child
// process group down with it, the same wiring Execute installs.
func TestInterruptKillsChildProcess(t *testing.T) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		_, err := proc.Output(ctx, proc.Exec{}, "", "sh", "-c", "sleep 30")
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("want context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("child process survived the interrupt")
	}
}
