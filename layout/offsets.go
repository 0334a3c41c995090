package layout

import (
	"encoding/binary"
	"fmt"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/remotemem"
)

// offsets describes one VM release's private struct layout as a flat table
// of byte offsets, the kind of table normally generated from the VM's own
// C headers. Real per-release generation is out of scope here (no build
// tool is available in this environment), so the registry below constructs
// representative offsets tables by hand for each supported release family
// instead of generating them.
type offsets struct {
	// root record
	RootThreadListHead uint

	// thread record
	ThreadNext     uint
	ThreadStatus   uint
	ThreadCurFrame uint

	// control frame
	FrameCaller uint
	FrameISeq   uint
	FramePC     uint

	// instruction sequence
	ISeqLabelPtr uint
	ISeqPathPtr  uint
	ISeqLineTab  uint // pointer to []pcLineEntry
	ISeqLineLen  uint // uint32 count, 4 bytes, immediately follows the table pointer read
	ISeqBasePC   uint // pointer to the iseq's first compiled instruction

	// thread status codes, as encoded on disk for this release
	StatusRunnable uint32
	StatusWaiting  uint32
}

// offsetEntry is the single Entry implementation used for every supported
// VMVersion: behavior is uniform, only the offsets differ release to
// release - a closed per-variant record of offsets rather than of function
// pointers, since every release needs the identical set of operations.
type offsetEntry struct {
	o offsets
}

func newOffsetEntry(o offsets) *offsetEntry {
	return &offsetEntry{o: o}
}

func readPtr(b []byte, off uint) frame.Address {
	if int(off)+8 > len(b) {
		return 0
	}

	return frame.Address(binary.LittleEndian.Uint64(b[off : off+8]))
}

func readU32(b []byte, off uint) uint32 {
	if int(off)+4 > len(b) {
		return 0
	}

	return binary.LittleEndian.Uint32(b[off : off+4])
}

func (e *offsetEntry) ThreadListHead(root []byte) frame.Address {
	return readPtr(root, e.o.RootThreadListHead)
}

func (e *offsetEntry) NextThread(thread []byte) (frame.Address, bool) {
	a := readPtr(thread, e.o.ThreadNext)

	return a, a != 0
}

func (e *offsetEntry) ThreadStatus(thread []byte) frame.RunState {
	switch readU32(thread, e.o.ThreadStatus) {
	case e.o.StatusRunnable:
		return frame.Runnable
	case e.o.StatusWaiting:
		return frame.Waiting
	default:
		return frame.Other
	}
}

func (e *offsetEntry) CurrentFramePtr(thread []byte) frame.Address {
	return readPtr(thread, e.o.ThreadCurFrame)
}

func (e *offsetEntry) FrameAdvance(fr []byte) (frame.Address, bool) {
	a := readPtr(fr, e.o.FrameCaller)

	return a, a != 0
}

func (e *offsetEntry) FrameISeqPtr(fr []byte) (frame.Address, bool) {
	a := readPtr(fr, e.o.FrameISeq)

	return a, a != 0
}

func (e *offsetEntry) FramePC(fr []byte) frame.Address {
	return readPtr(fr, e.o.FramePC)
}

func (e *offsetEntry) ISeqLabel(iseq []byte, r remotemem.Reader) (string, error) {
	addr := readPtr(iseq, e.o.ISeqLabelPtr)
	if addr == 0 {
		return "", nil
	}

	return decodeVMString(addr, r)
}

func (e *offsetEntry) ISeqPath(iseq []byte, r remotemem.Reader) (string, error) {
	addr := readPtr(iseq, e.o.ISeqPathPtr)
	if addr == 0 {
		return "", nil
	}

	return decodeVMString(addr, r)
}

func (e *offsetEntry) ISeqLineForPC(iseq []byte, pc frame.Address, r remotemem.Reader) (uint32, error) {
	tableAddr := readPtr(iseq, e.o.ISeqLineTab)
	count := readU32(iseq, e.o.ISeqLineLen)

	if tableAddr == 0 || count == 0 {
		return 0, nil
	}

	const entrySize = 8 // uint32 StartOffset + uint32 Line

	buf, err := r.Read(tableAddr, int(count)*entrySize)
	if err != nil {
		return 0, fmt.Errorf("reading pc->line table at %#x: %w", tableAddr, err)
	}

	table := make([]pcLineEntry, count)
	for i := range table {
		off := i * entrySize
		table[i] = pcLineEntry{
			StartOffset: readU32(buf, uint(off)),
			Line:        readU32(buf, uint(off+4)),
		}
	}

	// frame_pc is an absolute address; the table is keyed by offset from
	// the iseq's base instruction.
	base := readPtr(iseq, e.o.ISeqBasePC)
	if pc.Sub(base) < 0 {
		return 0, nil
	}

	return lineForPC(table, uint32(pc.Sub(base))), nil
}

func (e *offsetEntry) DecodeVMString(addr frame.Address, r remotemem.Reader) (string, error) {
	return decodeVMString(addr, r)
}
