package main

import (
	"errors"

	"github.com/stackprobe/stackprobe/anchor"
	"github.com/stackprobe/stackprobe/remotemem"
	"github.com/stackprobe/stackprobe/target"
	"github.com/stackprobe/stackprobe/version"
)

// Exit codes. The core packages only ever return errors; mapping a
// terminal error to a process exit status is this command's job alone.
const (
	exitOK                 = 0
	exitTargetGone         = 1
	exitUnsupportedVersion = 2
	exitAnchorNotFound     = 3
	exitPermissionDenied   = 4
	exitUsage              = 64 // EX_USAGE
)

// exitCodeFor classifies a terminal Attach/Snapshot error into an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, remotemem.ErrPermission):
		return exitPermissionDenied
	case errors.Is(err, remotemem.ErrGone):
		return exitTargetGone
	case errors.Is(err, version.ErrVersionUnknown), errors.Is(err, target.ErrUnsupportedVersion):
		return exitUnsupportedVersion
	case errors.Is(err, anchor.ErrAnchorNotFound):
		return exitAnchorNotFound
	default:
		return exitTargetGone
	}
}
