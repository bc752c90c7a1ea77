package backend

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Fingerprint hashes everything that determines the backend binary's
// identity: where the source comes from, which version or commit, the
// toolchain it is compiled with, and the target triple it will serve. Equal
// inputs always produce equal fingerprints; any differing input produces a
// different one.
func Fingerprint(sourceLocator, version, toolchain, target string) string {
	h := blake3.New(32, nil)
	for _, part := range []string{sourceLocator, version, toolchain, target} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
