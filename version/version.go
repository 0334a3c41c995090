// Package version identifies a VM release: given a target's loaded objects,
// decide which frame.VMVersion it is running so target.Attach can pick a
// layout.Entry before anchor.Locate ever needs one.
package version

import (
	"errors"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/remotemem"
)

// ErrVersionUnknown is returned when every strategy fails and no override
// was supplied.
var ErrVersionUnknown = errors.New("version: could not identify VM release")

// Identify runs three strategies in order, stopping at the first that
// succeeds: a loaded-object soname/path match, an in-binary version string
// read straight out of the ELF file, then an unchecked caller-supplied
// override.
//
// Identify takes the loaded-object list rather than a *target.Target: target
// depends on version (to pick a layout.Entry during Attach), so version must
// not depend back on target, the same import-cycle avoidance anchor.Locate
// uses.
func Identify(objs []remotemem.LoadedObject, override *frame.VMVersion) (frame.VMVersion, error) {
	for _, obj := range objs {
		if v, ok := sonameMatch(obj.Path); ok {
			return v, nil
		}
	}

	for _, obj := range objs {
		if v, ok := versionStringMatch(obj.Path); ok {
			return v, nil
		}
	}

	if override != nil {
		return *override, nil
	}

	return frame.VMVersion{}, ErrVersionUnknown
}
