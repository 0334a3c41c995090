package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stackprobe/stackprobe/frame"
)

// parseVMVersion parses "major.minor.patch", the format --version-override
// and STACKPROBE_VERSION_OVERRIDE both take.
func parseVMVersion(s string) (frame.VMVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return frame.VMVersion{}, fmt.Errorf("version override %q: want major.minor.patch", s)
	}

	nums := make([]int, 3)

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return frame.VMVersion{}, fmt.Errorf("version override %q: %w", s, err)
		}

		nums[i] = n
	}

	return frame.VMVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// parseAddress parses a hex address, with or without a leading "0x", the
// format --anchor-override and STACKPROBE_ANCHOR_OVERRIDE both take.
func parseAddress(s string) (frame.Address, error) {
	s = strings.TrimPrefix(s, "0x")

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("anchor override %q: %w", s, err)
	}

	return frame.Address(v), nil
}
