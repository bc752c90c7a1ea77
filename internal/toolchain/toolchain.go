// Package toolchain ensures the pinned nightly toolchain the codegen backend
// was written against is installed, driving rustup as an external process.
// The backend links against rustc internals, so it must be built with the
// exact channel its sources pin; anything else fails at dlopen time.
package toolchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/prismforge/gpubuild/internal/proc"
)

// requiredComponents are the rustup components the backend build needs on
// top of the bare toolchain.
var requiredComponents = []string{"rust-src", "rustc-dev", "llvm-tools"}

// State tracks where the installer is in its check/prompt/install progression.
type State int

const (
	StateNotChecked State = iota
	StatePresent
	StateMissing
	StatePromptPending
	StateAccepted
	StateDeclined
	StateInstalling
	StateInstalled
	StateFailed
)

// Installer checks for and installs the required toolchain. The consent
// prompt itself is rendered by the caller; the installer only signals that a
// decision is needed and consumes the boolean answer.
type Installer struct {
	Runner proc.Runner
	// Consent is called when a missing toolchain or component set needs
	// user approval. A nil Consent declines.
	Consent func(prompt string) bool
	// AutoInstall answers every consent question with yes.
	AutoInstall bool

	state State
}

// State reports the installer's last observed state.
func (in *Installer) State() State { return in.state }

// Ensure makes the given channel and its required components present,
// prompting for consent where installation is needed. A decline or a failed
// install aborts the pipeline.
func (in *Installer) Ensure(ctx context.Context, channel string) error {
	in.state = StateNotChecked

	installed, err := in.listedToolchains(ctx)
	if err != nil {
		in.state = StateFailed
		return fmt.Errorf("%w: %v", ErrInstall, err)
	}

	if hasChannel(installed, channel) {
		in.state = StatePresent
	} else {
		in.state = StateMissing
		if err := in.consent(fmt.Sprintf("Install Rust %s with rustup", channel)); err != nil {
			return err
		}
		in.state = StateInstalling
		if _, err := proc.Output(ctx, in.Runner, "", "rustup", "toolchain", "add", channel); err != nil {
			in.state = StateFailed
			return fmt.Errorf("%w: adding toolchain %s: %v", ErrInstall, channel, err)
		}
		installed, err = in.listedToolchains(ctx)
		if err != nil || !hasChannel(installed, channel) {
			in.state = StateFailed
			return fmt.Errorf("%w: toolchain %s still missing after install", ErrInstall, channel)
		}
		in.state = StateInstalled
	}

	return in.ensureComponents(ctx, channel)
}

func (in *Installer) ensureComponents(ctx context.Context, channel string) error {
	out, err := proc.Output(ctx, in.Runner, "", "rustup", "component", "list", "--toolchain", channel)
	if err != nil {
		in.state = StateFailed
		return fmt.Errorf("%w: listing components: %v", ErrInstall, err)
	}

	lines := strings.Split(out, "\n")
	missing := false
	for _, component := range requiredComponents {
		if !componentInstalled(lines, component) {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	prompt := fmt.Sprintf("Install toolchain components [%s] with rustup", strings.Join(requiredComponents, ", "))
	if err := in.consent(prompt); err != nil {
		return err
	}

	args := append([]string{"component", "add", "--toolchain", channel}, requiredComponents...)
	if _, err := proc.Output(ctx, in.Runner, "", "rustup", args...); err != nil {
		in.state = StateFailed
		return fmt.Errorf("%w: adding components: %v", ErrInstall, err)
	}
	return nil
}

func (in *Installer) consent(prompt string) error {
	if in.AutoInstall {
		in.state = StateAccepted
		return nil
	}
	in.state = StatePromptPending
	if in.Consent != nil && in.Consent(prompt) {
		in.state = StateAccepted
		return nil
	}
	in.state = StateDeclined
	return fmt.Errorf("%w: %s", ErrDeclined, prompt)
}

func (in *Installer) listedToolchains(ctx context.Context) ([]string, error) {
	out, err := proc.Output(ctx, in.Runner, "", "rustup", "toolchain", "list")
	if err != nil {
		return nil, err
	}
	return strings.Fields(out), nil
}

func hasChannel(toolchains []string, channel string) bool {
	for _, tc := range toolchains {
		if strings.HasPrefix(tc, channel) {
			return true
		}
	}
	return false
}

// componentInstalled reports whether a `rustup component list` line marks the
// component as installed.
func componentInstalled(lines []string, component string) bool {
	for _, line := range lines {
		if strings.HasPrefix(line, component) && strings.HasSuffix(strings.TrimSpace(line), "(installed)") {
			return true
		}
	}
	return false
}
