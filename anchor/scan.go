package anchor

import (
	"golang.org/x/arch/x86/x86asm"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/layout"
	"github.com/stackprobe/stackprobe/remotemem"
)

const (
	// maxScanSegmentSize bounds how much of one writable mapping the
	// data-segment scan will walk word by word - a sanity cap in the same
	// spirit as remotemem.MaxReadLength, so a huge anonymous mapping
	// (a large heap arena mapped rw) doesn't turn attach into an O(heap)
	// scan.
	maxScanSegmentSize = 16 << 20

	trialBufSize    = 64
	maxTrialThreads = 8
	maxTrialFrames  = 64
	pcProbeLen      = 16
)

// candidate is one word-aligned value found during the scan that produced
// at least one validated frame.
type candidate struct {
	addr   frame.Address
	frames int
}

// byDataSegmentScan is the data-segment scan strategy: it ranks every
// candidate that decodes at least one valid frame and picks the one with
// the deepest validated trial walk (ties broken by lowest address), instead
// of stopping at the first candidate that decodes a single frame. See
// DESIGN.md for why ranking beats first-match.
func byDataSegmentScan(r remotemem.Reader, mappings []remotemem.Mapping, entry layout.Entry) (frame.Address, bool) {
	var best *candidate

	for _, m := range mappings {
		if !m.Writable() || !m.Readable() {
			continue
		}

		size := m.End.Sub(m.Start)
		if size <= 0 || size > maxScanSegmentSize {
			continue
		}

		for p := m.Start; p < m.End; p = p.Add(8) {
			v, err := r.ReadPointer(p)
			if err != nil || v == 0 {
				continue
			}

			frames, ok := trialWalk(r, entry, v)
			if !ok {
				continue
			}

			if best == nil || frames > best.frames || (frames == best.frames && v < best.addr) {
				best = &candidate{addr: v, frames: frames}
			}
		}
	}

	if best == nil {
		return 0, false
	}

	return best.addr, true
}

// trialWalk attempts a bounded stack walk starting from a presumed root
// address, returning how many frames across all of its threads decoded a
// non-empty path whose PC region disassembles as plausible code. A zero
// count means root is rejected as a candidate.
func trialWalk(r remotemem.Reader, entry layout.Entry, root frame.Address) (int, bool) {
	rootBytes, err := r.Read(root, trialBufSize)
	if err != nil {
		return 0, false
	}

	threadAddr := entry.ThreadListHead(rootBytes)
	if threadAddr == 0 {
		return 0, false
	}

	total := 0

	for visited := 0; threadAddr != 0 && visited < maxTrialThreads; visited++ {
		tb, err := r.Read(threadAddr, trialBufSize)
		if err != nil {
			break
		}

		total += trialWalkFrames(r, entry, entry.CurrentFramePtr(tb))

		next, ok := entry.NextThread(tb)
		if !ok {
			break
		}

		threadAddr = next
	}

	return total, total > 0
}

func trialWalkFrames(r remotemem.Reader, entry layout.Entry, cur frame.Address) int {
	count := 0

	for depth := 0; cur != 0 && depth < maxTrialFrames; depth++ {
		fb, err := r.Read(cur, trialBufSize)
		if err != nil {
			break
		}

		if iseqAddr, ok := entry.FrameISeqPtr(fb); ok {
			if validatedFrame(r, entry, fb, iseqAddr) {
				count++
			}
		}

		next, ok := entry.FrameAdvance(fb)
		if !ok {
			break
		}

		cur = next
	}

	return count
}

func validatedFrame(r remotemem.Reader, entry layout.Entry, frameBytes []byte, iseqAddr frame.Address) bool {
	ib, err := r.Read(iseqAddr, trialBufSize)
	if err != nil {
		return false
	}

	path, err := entry.ISeqPath(ib, r)
	if err != nil || path == "" {
		return false
	}

	return looksLikeCode(r, entry.FramePC(frameBytes))
}

// looksLikeCode decodes a single x86 instruction at pc via x86asm,
// tightening strategy 2's acceptance test beyond "the path string decoded"
// per the ranking decision recorded in DESIGN.md.
func looksLikeCode(r remotemem.Reader, pc frame.Address) bool {
	if pc == 0 {
		return false
	}

	code, err := r.Read(pc, pcProbeLen)
	if err != nil {
		return false
	}

	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return false
	}

	return inst.Len > 0
}
