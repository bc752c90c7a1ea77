package toolchain

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prismforge/gpubuild/internal/proc"
)

// Version is a rustc release version.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v >= other.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch >= other.Patch
}

// RustcVersion queries the version of rustc for the given channel. An empty
// channel queries the default (workspace) rustc.
func RustcVersion(ctx context.Context, r proc.Runner, channel string) (Version, error) {
	var out string
	var err error
	if channel == "" {
		out, err = proc.Output(ctx, r, "", "rustc", "--version")
	} else {
		out, err = proc.Output(ctx, r, "", "rustup", "run", channel, "rustc", "--version")
	}
	if err != nil {
		return Version{}, err
	}
	return ParseRustcVersion(out)
}

// ParseRustcVersion parses output like "rustc 1.83.0 (90b35a623 2024-11-26)".
// Nightly suffixes ("1.88.0-nightly") are accepted and stripped.
func ParseRustcVersion(s string) (Version, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 || fields[0] != "rustc" {
		return Version{}, fmt.Errorf("unrecognized rustc version output %q", s)
	}
	raw, _, _ := strings.Cut(fields[1], "-")
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("unrecognized rustc version %q", fields[1])
	}
	var v Version
	var err error
	if v.Major, err = strconv.Atoi(parts[0]); err != nil {
		return Version{}, fmt.Errorf("unrecognized rustc version %q", fields[1])
	}
	if v.Minor, err = strconv.Atoi(parts[1]); err != nil {
		return Version{}, fmt.Errorf("unrecognized rustc version %q", fields[1])
	}
	if v.Patch, err = strconv.Atoi(parts[2]); err != nil {
		return Version{}, fmt.Errorf("unrecognized rustc version %q", fields[1])
	}
	return v, nil
}
