package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/stackprobe/stackprobe/frame"
)

// writeFolded writes one folded-stack line per thread: "thread_id:
// outer;...;inner count", the one output format named explicitly for this
// command. A thread whose trace was dropped (ThreadState.Err set) is
// skipped - the caller's error aggregator already counted it.
func writeFolded(w *bufio.Writer, s frame.Sample) {
	for _, th := range s.Threads {
		if th.Err != nil {
			continue
		}

		fmt.Fprintf(w, "%d: %s 1\n", th.ThreadID, foldStack(th.Stack))
	}

	w.Flush()
}

func foldStack(st frame.StackTrace) string {
	parts := make([]string, len(st))
	for i, f := range st {
		parts[i] = foldFrame(f)
	}

	return strings.Join(parts, ";")
}

func foldFrame(f frame.Frame) string {
	if f.Line == 0 {
		return fmt.Sprintf("%s (%s)", f.MethodName, f.Path)
	}

	return fmt.Sprintf("%s (%s:%d)", f.MethodName, f.Path, f.Line)
}
