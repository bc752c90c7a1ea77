package builder

import (
	"strings"
	"testing"

	"github.com/prismforge/gpubuild/internal/backend"
	"github.com/prismforge/gpubuild/internal/config"
)

func TestCompileCommand(t *testing.T) {
	cfg := config.Defaults()
	cfg.ShaderCrate = "/work/shader"
	cfg.Features = []string{"bindless", "debug-printf"}
	artifact := backend.Artifact{Path: "/cache/artifacts/abc/librustc_codegen_spirv.so"}

	cmd := compileCommand(cfg, artifact, "nightly-2024-04-24", "/cache/target-specs")

	args := strings.Join(cmd.Args, " ")
	for _, want := range []string{
		"cargo +nightly-2024-04-24 build --release",
		"--target /cache/target-specs/spirv-unknown-vulkan1.2.json",
		"--features bindless,debug-printf",
		"--message-format=json-render-diagnostics",
	} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
	if cmd.Dir != "/work/shader" {
		t.Errorf("Dir = %q", cmd.Dir)
	}

	env := strings.Join(cmd.Env, "\n")
	if !strings.Contains(env, "RUSTFLAGS=-Zcodegen-backend=/cache/artifacts/abc/librustc_codegen_spirv.so -Zbinary-dep-depinfo") {
		t.Errorf("RUSTFLAGS missing or wrong:\n%s", env)
	}
	if !strings.Contains(env, "RUSTGPU_CODEGEN_ARGS=") {
		t.Error("RUSTGPU_CODEGEN_ARGS not set")
	}
}

func TestCompileCommandDebugBuild(t *testing.T) {
	cfg := config.Defaults()
	cfg.Release = false
	cmd := compileCommand(cfg, backend.Artifact{}, "nightly-2024-04-24", "/specs")
	for _, arg := range cmd.Args {
		if arg == "--release" {
			t.Fatal("--release passed for a debug build")
		}
	}
}

func TestCodegenArgs(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*config.BuildConfig)
		want []string
	}{
		{"defaults", func(*config.BuildConfig) {}, nil},
		{"multimodule", func(c *config.BuildConfig) { c.MultiModule = true }, []string{"--module-output=multiple"}},
		{"metadata", func(c *config.BuildConfig) { c.SpirvMetadata = "full" }, []string{"--spirv-metadata=full"}},
		{
			"capabilities and extensions",
			func(c *config.BuildConfig) {
				c.Capabilities = []string{"Int8", "RayTracingKHR"}
				c.Extensions = []string{"SPV_KHR_ray_tracing"}
			},
			[]string{"--capability=Int8", "--capability=RayTracingKHR", "--extension=SPV_KHR_ray_tracing"},
		},
		{
			"relaxations and deny-warnings",
			func(c *config.BuildConfig) {
				c.RelaxStructStore = true
				c.RelaxBlockLayout = true
				c.DenyWarnings = true
			},
			[]string{"--relax-struct-store", "--relax-block-layout", "--deny-warnings"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mut(&cfg)
			got := codegenArgs(cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("codegenArgs = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("arg %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseMessages(t *testing.T) {
	stdout := `{"reason":"compiler-artifact","filenames":["/t/deps/libspirv_std.rlib"]}
{"reason":"compiler-artifact","filenames":["/t/deps/dep.spv"]}
{"reason":"compiler-message","message":{"level":"warning","rendered":"warning: unused variable\n"}}
{"reason":"compiler-message","message":{"level":"error","rendered":"error: type mismatch\n"}}
{"reason":"compiler-artifact","filenames":["/t/release/shader.spv"]}
not json at all
{"reason":"build-finished","success":true}
`
	out := parseMessages(stdout)
	if out.ModulePath != "/t/release/shader.spv" {
		t.Errorf("ModulePath = %q, want the last .spv artifact", out.ModulePath)
	}
	if out.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", out.Warnings)
	}
	if len(out.Diagnostics) != 2 {
		t.Errorf("Diagnostics = %v", out.Diagnostics)
	}
}
