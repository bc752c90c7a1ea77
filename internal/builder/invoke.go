package builder

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/config"
)

// compileCommand translates the resolved BuildConfig into the cargo
// invocation that drives the pinned toolchain with the codegen backend
// loaded. Every BuildConfig field that affects code generation must be
// represented here; nothing else reads the config during the compile.
func compileCommand(cfg config.BuildConfig, artifact backend.Artifact, channel, specDir string) *exec.Cmd {
	args := []string{"+" + channel, "build"}
	if cfg.Release {
		args = append(args, "--release")
	}
	args = append(args, "--target", backend.TargetSpecPath(specDir, cfg.Target))
	if len(cfg.Features) > 0 {
		args = append(args, "--features", strings.Join(cfg.Features, ","))
	}
	args = append(args, "--message-format=json-render-diagnostics")

	cmd := exec.Command("cargo", args...)
	cmd.Dir = cfg.ShaderCrate
	cmd.Env = append(os.Environ(),
		"RUSTFLAGS=-Zcodegen-backend="+artifact.Path+" -Zbinary-dep-depinfo",
		"RUSTGPU_CODEGEN_ARGS="+strings.Join(codegenArgs(cfg), " "),
	)
	return cmd
}

// codegenArgs are the flags handed to the backend itself, via the
// environment because they must pass through cargo and rustc untouched.
func codegenArgs(cfg config.BuildConfig) []string {
	var args []string
	if cfg.MultiModule {
		args = append(args, "--module-output=multiple")
	}
	if cfg.SpirvMetadata != "none" {
		args = append(args, "--spirv-metadata="+cfg.SpirvMetadata)
	}
	for _, cap := range cfg.Capabilities {
		args = append(args, "--capability="+cap)
	}
	for _, ext := range cfg.Extensions {
		args = append(args, "--extension="+ext)
	}
	if cfg.RelaxStructStore {
		args = append(args, "--relax-struct-store")
	}
	if cfg.RelaxLogicalPointer {
		args = append(args, "--relax-logical-pointer")
	}
	if cfg.RelaxBlockLayout {
		args = append(args, "--relax-block-layout")
	}
	if cfg.UniformBufferStandardLayout {
		args = append(args, "--uniform-buffer-standard-layout")
	}
	if cfg.DenyWarnings {
		args = append(args, "--deny-warnings")
	}
	return args
}

// compileOutput is what the orchestrator extracts from the compiler's JSON
// message stream.
type compileOutput struct {
	// ModulePath is the emitted .spv artifact (the last one wins; cargo
	// reports dependency artifacts first).
	ModulePath string
	// Warnings counts compiler-reported warnings.
	Warnings int
	// Diagnostics holds rendered compiler messages, passed through
	// verbatim.
	Diagnostics []string
}

// parseMessages scans cargo's json-render-diagnostics stream.
func parseMessages(stdout string) compileOutput {
	var out compileOutput
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}
		var msg struct {
			Reason    string   `json:"reason"`
			Filenames []string `json:"filenames"`
			Message   *struct {
				Level    string `json:"level"`
				Rendered string `json:"rendered"`
			} `json:"message"`
		}
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}
		switch msg.Reason {
		case "compiler-artifact":
			for _, name := range msg.Filenames {
				if strings.HasSuffix(name, ".spv") {
					out.ModulePath = name
				}
			}
		case "compiler-message":
			if msg.Message == nil {
				continue
			}
			if msg.Message.Rendered != "" {
				out.Diagnostics = append(out.Diagnostics, msg.Message.Rendered)
			}
			if msg.Message.Level == "warning" {
				out.Warnings++
			}
		}
	}
	return out
}

// entrySidecar is the JSON file the backend writes next to a single-module
// artifact, listing the entry points the module exports.
type entrySidecar struct {
	EntryPoints []string `json:"entry_points"`
}

func readEntrySidecar(modulePath string) ([]string, error) {
	data, err := os.ReadFile(modulePath + ".json")
	if err != nil {
		return nil, fmt.Errorf("reading entry-point sidecar for %s: %w", modulePath, err)
	}
	var sc entrySidecar
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing entry-point sidecar for %s: %w", modulePath, err)
	}
	return sc.EntryPoints, nil
}
