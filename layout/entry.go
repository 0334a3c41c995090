// Package layout is a family of typed "views" over raw bytes, one member
// per supported VM release, all exposing the same capability set so walker
// never branches on version.
//
// A LayoutEntry is stateless and immutable and never writes to the buffers
// it is given; every method is a pure function of its byte-slice input plus,
// where chasing a further pointer is unavoidable, a remotemem.Reader.
package layout

import (
	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/remotemem"
)

// Entry is the capability set every supported VM release implements.
type Entry interface {
	// ThreadListHead returns the address of the first thread record (or the
	// currently running execution context) given the VM root's bytes.
	ThreadListHead(root []byte) frame.Address

	// NextThread returns the address of the next thread in the list, or
	// ok==false at the end of the list.
	NextThread(thread []byte) (addr frame.Address, ok bool)

	// ThreadStatus classifies a thread record's run state.
	ThreadStatus(thread []byte) frame.RunState

	// CurrentFramePtr returns the address of the topmost control frame.
	CurrentFramePtr(thread []byte) frame.Address

	// FrameAdvance returns the caller frame's address, or ok==false at the
	// bottom of the stack.
	FrameAdvance(fr []byte) (addr frame.Address, ok bool)

	// FrameISeqPtr returns the frame's instruction-sequence address, or
	// ok==false for a C frame (no associated iseq).
	FrameISeqPtr(fr []byte) (addr frame.Address, ok bool)

	// FramePC returns the frame's program counter (may be the zero Address).
	FramePC(fr []byte) frame.Address

	// ISeqLabel decodes the method label of an iseq.
	ISeqLabel(iseq []byte, r remotemem.Reader) (string, error)

	// ISeqPath decodes the source path of an iseq.
	ISeqPath(iseq []byte, r remotemem.Reader) (string, error)

	// ISeqLineForPC maps a program counter to a source line, or 0 if pc
	// falls outside every entry in the iseq's PC→line table.
	ISeqLineForPC(iseq []byte, pc frame.Address, r remotemem.Reader) (uint32, error)

	// DecodeVMString decodes the VM's tagged small-string/heap-string
	// representation at addr.
	DecodeVMString(addr frame.Address, r remotemem.Reader) (string, error)
}
