// Package walker reads a target's thread list and, for every thread, its
// chain of control frames, producing one frame.Sample per call. It never
// caches anything between calls - every Snapshot starts over from the
// anchor root.
package walker

import (
	"errors"
	"fmt"
	"time"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/layout"
	"github.com/stackprobe/stackprobe/remotemem"
)

const (
	// recordBufSize is read for every root/thread/frame/iseq record. Layout
	// eras never place a field this registry cares about past this offset
	// (see layout.offsets); it is not derived from any one release's struct
	// size, the same way anchor's trialBufSize isn't.
	recordBufSize = 64

	// MaxThreads bounds thread-list enumeration.
	MaxThreads = 10000

	// MaxFrameDepth bounds one thread's frame walk.
	MaxFrameDepth = 10000
)

// Snapshot walks every thread reachable from root and returns one
// frame.Sample. A remotemem error reading the root itself fails the whole
// call; a remotemem error decoding one thread discards only that thread's
// trace (ThreadState.Err records it) and enumeration continues if the next
// thread's address is already known.
func Snapshot(r remotemem.Reader, entry layout.Entry, root frame.Address) (frame.Sample, error) {
	rootBytes, err := r.Read(root, recordBufSize)
	if err != nil {
		return frame.Sample{}, fmt.Errorf("reading anchor root %#x: %w", root, err)
	}

	threadAddr := entry.ThreadListHead(rootBytes)

	var threads []frame.ThreadState

	for visited := 0; threadAddr != 0; visited++ {
		if visited >= MaxThreads {
			return frame.Sample{}, ErrCorruptedThreadList
		}

		tb, err := r.Read(threadAddr, recordBufSize)
		if err != nil {
			// Can't determine the next thread's address without this
			// record, so this failure ends enumeration rather than just
			// dropping one thread.
			threads = append(threads, frame.ThreadState{
				ThreadID: uint64(threadAddr),
				Err:      fmt.Errorf("reading thread record %#x: %w", threadAddr, err),
			})

			break
		}

		threads = append(threads, decodeThread(r, entry, threadAddr, tb))

		next, ok := entry.NextThread(tb)
		if !ok {
			break
		}

		threadAddr = next
	}

	return frame.Sample{Threads: threads, Timestamp: time.Now()}, nil
}

func decodeThread(r remotemem.Reader, entry layout.Entry, addr frame.Address, tb []byte) frame.ThreadState {
	status := entry.ThreadStatus(tb)
	cur := entry.CurrentFramePtr(tb)

	trace, truncated, err := walkFrames(r, entry, cur)
	if err != nil {
		return frame.ThreadState{ThreadID: uint64(addr), RunState: status, Err: err}
	}

	return frame.ThreadState{
		ThreadID:  uint64(addr),
		RunState:  status,
		Stack:     trace,
		Truncated: truncated,
	}
}

// walkFrames walks the VM's innermost-first frame chain starting at cur and
// returns it reversed into outermost-first order.
func walkFrames(r remotemem.Reader, entry layout.Entry, cur frame.Address) (frame.StackTrace, bool, error) {
	var innerFirst frame.StackTrace

	addr := cur

	for depth := 0; addr != 0; depth++ {
		if depth >= MaxFrameDepth {
			return reversed(innerFirst), true, nil
		}

		fb, err := r.Read(addr, recordBufSize)
		if err != nil {
			return nil, false, frameErr("reading frame", addr, err)
		}

		f, err := decodeFrame(r, entry, fb)
		if err != nil {
			return nil, false, err
		}

		innerFirst = append(innerFirst, f)

		next, ok := entry.FrameAdvance(fb)
		if !ok {
			break
		}

		addr = next
	}

	return reversed(innerFirst), false, nil
}

func decodeFrame(r remotemem.Reader, entry layout.Entry, fb []byte) (frame.Frame, error) {
	iseqAddr, ok := entry.FrameISeqPtr(fb)
	if !ok {
		return frame.CFunctionFrame(), nil
	}

	ib, err := r.Read(iseqAddr, recordBufSize)
	if err != nil {
		return frame.Frame{}, frameErr("reading iseq", iseqAddr, err)
	}

	label, err := entry.ISeqLabel(ib, r)
	if err != nil {
		return frame.Frame{}, frameErr("decoding label for iseq", iseqAddr, err)
	}

	path, err := entry.ISeqPath(ib, r)
	if err != nil {
		return frame.Frame{}, frameErr("decoding path for iseq", iseqAddr, err)
	}

	if path == "" {
		path = frame.UnknownPath
	}

	line, err := entry.ISeqLineForPC(ib, entry.FramePC(fb), r)
	if err != nil {
		return frame.Frame{}, frameErr("mapping pc to line for iseq", iseqAddr, err)
	}

	return frame.Frame{MethodName: label, Path: path, Line: line}, nil
}

// frameErr wraps a frame/iseq read or decode failure, attaching
// ErrCorruptedFrame when the underlying cause is itself an impossible-value
// condition (a pointer outside any mapping, a length past layout's sanity
// cap) rather than a merely transient one.
func frameErr(action string, addr frame.Address, err error) error {
	if errors.Is(err, remotemem.ErrUnmapped) || errors.Is(err, layout.ErrStringTooLong) {
		return fmt.Errorf("%s %#x: %w: %v", action, addr, ErrCorruptedFrame, err)
	}

	return fmt.Errorf("%s %#x: %w", action, addr, err)
}

func reversed(s frame.StackTrace) frame.StackTrace {
	out := make(frame.StackTrace, len(s))
	for i, f := range s {
		out[len(s)-1-i] = f
	}

	return out
}
