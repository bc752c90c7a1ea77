package backend

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("0.9.0", "0.9.0", "nightly-2024-04-24", "spirv-unknown-vulkan1.2")
	b := Fingerprint("0.9.0", "0.9.0", "nightly-2024-04-24", "spirv-unknown-vulkan1.2")
	if a != b {
		t.Fatalf("equal inputs produced %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint("0.9.0", "0.9.0", "nightly-2024-04-24", "spirv-unknown-vulkan1.2")
	variants := []string{
		Fingerprint("0.9.1", "0.9.0", "nightly-2024-04-24", "spirv-unknown-vulkan1.2"),
		Fingerprint("0.9.0", "0.9.1", "nightly-2024-04-24", "spirv-unknown-vulkan1.2"),
		Fingerprint("0.9.0", "0.9.0", "nightly-2024-05-01", "spirv-unknown-vulkan1.2"),
		Fingerprint("0.9.0", "0.9.0", "nightly-2024-04-24", "spirv-unknown-vulkan1.1"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// Concatenation across field boundaries must not collide.
	a := Fingerprint("ab", "", "c", "d")
	b := Fingerprint("a", "b", "c", "d")
	if a == b {
		t.Fatal("shifting bytes across fields collided")
	}
}
