// Package proc runs external tools (cargo, rustup, rustc) as child processes
// with captured output. Commands are placed in their own session so that a
// cancellation can take down the whole process group, not just the immediate
// child.
package proc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Runner executes a prepared command. The production implementation is Exec;
// tests substitute fakes that script tool behaviour.
type Runner interface {
	Run(ctx context.Context, cmd *exec.Cmd) error
}

// Exec is the real Runner. When Verbose is set, each invocation is echoed to
// stderr before it runs.
type Exec struct {
	Verbose bool
}

func (e Exec) Run(ctx context.Context, cmd *exec.Cmd) error {
	cmd.SysProcAttr = sessionAttr()

	if e.Verbose {
		fmt.Fprintf(os.Stderr, "[proc] running: %s\n", strings.Join(cmd.Args, " "))
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		return err
	case <-ctx.Done():
		killGroup(cmd)
		<-waitErr
		return ctx.Err()
	}
}

// Output runs name with args in dir and returns captured stdout. Stderr is
// folded into the returned error on failure.
func Output(ctx context.Context, r Runner, dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := r.Run(ctx, cmd); err != nil {
		return stdout.String(), fmt.Errorf("%s failed: %w\nstderr: %s", name, err, stderr.String())
	}
	return stdout.String(), nil
}
