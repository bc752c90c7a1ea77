package toolchain

import "testing"

func TestParseRustcVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr bool
	}{
		{"rustc 1.83.0 (90b35a623 2024-11-26)", Version{1, 83, 0}, false},
		{"rustc 1.88.0-nightly (abc123 2025-04-01)", Version{1, 88, 0}, false},
		{"rustc 1.77.2", Version{1, 77, 2}, false},
		{"cargo 1.83.0", Version{}, true},
		{"rustc nightly", Version{}, true},
		{"", Version{}, true},
	}
	for _, tt := range tests {
		got, err := ParseRustcVersion(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRustcVersion(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRustcVersion(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVersionAtLeast(t *testing.T) {
	tests := []struct {
		v, other Version
		want     bool
	}{
		{Version{1, 83, 0}, Version{1, 83, 0}, true},
		{Version{1, 84, 0}, Version{1, 83, 0}, true},
		{Version{1, 82, 9}, Version{1, 83, 0}, false},
		{Version{2, 0, 0}, Version{1, 99, 99}, true},
		{Version{1, 83, 1}, Version{1, 83, 0}, true},
		{Version{1, 83, 0}, Version{1, 83, 1}, false},
	}
	for _, tt := range tests {
		if got := tt.v.AtLeast(tt.other); got != tt.want {
			t.Errorf("%v.AtLeast(%v) = %v, want %v", tt.v, tt.other, got, tt.want)
		}
	}
}
