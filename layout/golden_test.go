package layout_test

import (
	"testing"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/layout"
)

// buildEmbeddedString writes a VM string header with its bytes inlined
// (flags byte 0, length byte, then the characters), matching the embedded
// branch decodeVMString handles.
func buildEmbeddedString(s string) []byte {
	b := make([]byte, 24)
	b[0] = 0 // embedded
	b[1] = byte(len(s))
	copy(b[2:], s)

	return b
}

// TestGoldenStackTrace replays an end-to-end scenario against the 3.2.0
// layout.Entry: four Ruby-level frames (<main>, aaa, bbb, ccc) plus a C frame
// for `sleep`, reading
// everything from a synthetic buffer standing in for a captured core dump -
// no real per-version core dumps are available in this environment, so this
// is the documented substitute golden corpus.
func TestGoldenStackTrace(t *testing.T) {
	entry, ok := layout.For(frame.VMVersion{Major: 3, Minor: 2, Patch: 0})
	if !ok {
		t.Fatal("expected a registered 3.2.0 layout entry")
	}

	r := newFakeReader()

	const (
		rootAddr   frame.Address = 0x1000
		threadAddr frame.Address = 0x2000

		labelAAA frame.Address = 0x3000
		pathAddr frame.Address = 0x3100
		labelBBB frame.Address = 0x3200
		labelCCC frame.Address = 0x3300
		labelMain frame.Address = 0x3400

		iseqMain frame.Address = 0x4000
		iseqAAA  frame.Address = 0x4100
		iseqBBB  frame.Address = 0x4200
		iseqCCC  frame.Address = 0x4300

		frameMain frame.Address = 0x5000
		frameAAA  frame.Address = 0x5100
		frameBBB  frame.Address = 0x5200
		frameCCC  frame.Address = 0x5300
		frameC    frame.Address = 0x5400 // <c function: sleep>, no iseq
	)

	r.put(labelMain, buildEmbeddedString("<main>"))
	r.put(labelAAA, buildEmbeddedString("aaa"))
	r.put(labelBBB, buildEmbeddedString("bbb"))
	r.put(labelCCC, buildEmbeddedString("ccc"))
	r.put(pathAddr, buildEmbeddedString("/tmp/script.rb"))

	mkISeq := func(base frame.Address, label frame.Address, lines []uint32) []byte {
		b := make([]byte, 64)
		putU64(b, 0, uint64(label))    // ISeqLabelPtr
		putU64(b, 8, uint64(pathAddr)) // ISeqPathPtr
		lineTableAddr := base.Add(1000)
		putU64(b, 32, uint64(lineTableAddr)) // ISeqLineTab
		putU32(b, 40, uint32(len(lines)))    // ISeqLineLen
		putU64(b, 44, uint64(base))           // ISeqBasePC

		tbl := make([]byte, len(lines)*8)
		for i, line := range lines {
			putU32(tbl, i*8, uint32(i*4)) // start offset, 4 bytes apart
			putU32(tbl, i*8+4, line)
		}
		r.put(lineTableAddr, tbl)

		return b
	}

	r.put(iseqMain, mkISeq(iseqMain, labelMain, []uint32{1}))
	r.put(iseqAAA, mkISeq(iseqAAA, labelAAA, []uint32{10}))
	r.put(iseqBBB, mkISeq(iseqBBB, labelBBB, []uint32{20}))
	r.put(iseqCCC, mkISeq(iseqCCC, labelCCC, []uint32{30}))

	mkFrame := func(caller frame.Address, iseq frame.Address, pc frame.Address) []byte {
		b := make([]byte, 40)
		putU64(b, 0, uint64(caller))
		putU64(b, 8, uint64(iseq))
		putU64(b, 32, uint64(pc))

		return b
	}

	// Innermost (C frame, sleep) calls up through ccc, bbb, aaa, <main>.
	r.put(frameC, mkFrame(frameCCC, 0, 0))
	r.put(frameCCC, mkFrame(frameBBB, iseqCCC, iseqCCC.Add(0)))
	r.put(frameBBB, mkFrame(frameAAA, iseqBBB, iseqBBB.Add(0)))
	r.put(frameAAA, mkFrame(frameMain, iseqAAA, iseqAAA.Add(0)))
	r.put(frameMain, mkFrame(0, iseqMain, iseqMain.Add(0)))

	threadBuf := make([]byte, 48)
	putU64(threadBuf, 16, 0)                  // ThreadNext: end of list
	putU32(threadBuf, 32, 2 /* waiting */)     // ThreadStatus (era4 waiting=2)
	putU64(threadBuf, 40, uint64(frameC))      // ThreadCurFrame
	r.put(threadAddr, threadBuf)

	rootBuf := make([]byte, 16)
	putU64(rootBuf, 0, uint64(threadAddr))
	r.put(rootAddr, rootBuf)

	// Walk it by hand, the same way walker.Snapshot will.
	rootBytes, _ := r.Read(rootAddr, 16)
	threadHead := entry.ThreadListHead(rootBytes)

	if threadHead != threadAddr {
		t.Fatalf("ThreadListHead: got %#x, want %#x", threadHead, threadAddr)
	}

	tBytes, _ := r.Read(threadHead, 48)

	if got := entry.ThreadStatus(tBytes); got != frame.Waiting {
		t.Fatalf("ThreadStatus: got %v, want Waiting", got)
	}

	cur := entry.CurrentFramePtr(tBytes)
	if cur != frameC {
		t.Fatalf("CurrentFramePtr: got %#x, want %#x", cur, frameC)
	}

	var innerFirst []string

	addr := cur
	for {
		fb, err := r.Read(addr, 40)
		if err != nil {
			t.Fatalf("reading frame %#x: %v", addr, err)
		}

		iseqAddr, hasISeq := entry.FrameISeqPtr(fb)
		if !hasISeq {
			innerFirst = append(innerFirst, frame.CFunctionLabel)
		} else {
			ib, err := r.Read(iseqAddr, 64)
			if err != nil {
				t.Fatalf("reading iseq %#x: %v", iseqAddr, err)
			}

			label, err := entry.ISeqLabel(ib, r)
			if err != nil {
				t.Fatalf("ISeqLabel: %v", err)
			}

			innerFirst = append(innerFirst, label)
		}

		next, ok := entry.FrameAdvance(fb)
		if !ok {
			break
		}

		addr = next
	}

	want := []string{frame.CFunctionLabel, "ccc", "bbb", "aaa", "<main>"}
	if len(innerFirst) != len(want) {
		t.Fatalf("frame count: got %d, want %d (%v)", len(innerFirst), len(want), innerFirst)
	}

	for i := range want {
		if innerFirst[i] != want[i] {
			t.Fatalf("frame %d: got %q, want %q", i, innerFirst[i], want[i])
		}
	}

	// Path and line for the "ccc" frame.
	ib, _ := r.Read(iseqCCC, 64)

	path, err := entry.ISeqPath(ib, r)
	if err != nil {
		t.Fatalf("ISeqPath: %v", err)
	}

	if path != "/tmp/script.rb" {
		t.Fatalf("ISeqPath: got %q", path)
	}

	line, err := entry.ISeqLineForPC(ib, iseqCCC.Add(0), r)
	if err != nil {
		t.Fatalf("ISeqLineForPC: %v", err)
	}

	if line != 30 {
		t.Fatalf("ISeqLineForPC: got %d, want 30", line)
	}
}

// TestVersionIsolation checks that a release from each layout era (1.9.3,
// 2.1.0, 2.5.0, 3.4.0) has its own registered entry. It does not replay the
// golden trace against those entries.
func TestVersionIsolation(t *testing.T) {
	for _, v := range []frame.VMVersion{
		{Major: 1, Minor: 9, Patch: 3},
		{Major: 2, Minor: 1, Patch: 0},
		{Major: 2, Minor: 5, Patch: 0},
		{Major: 3, Minor: 4, Patch: 0},
	} {
		if _, ok := layout.For(v); !ok {
			t.Errorf("expected a registered entry for %s", v)
		}
	}
}
