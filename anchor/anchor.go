// Package anchor finds the address of the VM's current-thread /
// execution-context root in a freshly attached target.
package anchor

import (
	"errors"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/layout"
	"github.com/stackprobe/stackprobe/remotemem"
)

// ErrAnchorNotFound is returned when every strategy fails. Locate never
// guesses past this point - an unvalidated strategy is never allowed to
// stand in for a confirmed one.
var ErrAnchorNotFound = errors.New("anchor: root address not locatable")

// rootSymbolNames are the canonical exported root-pointer names, used
// across the VM's supported releases depending on version.
var rootSymbolNames = []string{
	"ruby_current_thread",
	"ruby_current_execution_context_ptr",
}

// Locate runs three strategies in order, stopping at the first that
// succeeds: symbol lookup, then a validated data-segment scan, then an
// unchecked caller-supplied override.
func Locate(
	r remotemem.Reader,
	mappings []remotemem.Mapping,
	objs []remotemem.LoadedObject,
	entry layout.Entry,
	override *frame.Address,
) (frame.Address, error) {
	if addr, ok := bySymbol(r, objs); ok {
		return addr, nil
	}

	if addr, ok := byDataSegmentScan(r, mappings, entry); ok {
		return addr, nil
	}

	if override != nil {
		return *override, nil
	}

	return 0, ErrAnchorNotFound
}

// bySymbol implements strategy 1: look for a known root-pointer symbol in
// every loaded object, and if found, dereference the pointer cell through
// RMR to get the root itself.
func bySymbol(r remotemem.Reader, objs []remotemem.LoadedObject) (frame.Address, bool) {
	for _, obj := range objs {
		off, ok := lookupSymbolOffset(obj.Path, rootSymbolNames)
		if !ok {
			continue
		}

		cell := obj.Base.Add(int64(off))

		root, err := r.ReadPointer(cell)
		if err != nil || root == 0 {
			continue
		}

		return root, true
	}

	return 0, false
}
