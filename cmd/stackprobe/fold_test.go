package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stackprobe/stackprobe/frame"
)

func TestWriteFoldedOrdersOuterToInner(t *testing.T) {
	sample := frame.Sample{
		Timestamp: time.Unix(0, 0),
		Threads: []frame.ThreadState{
			{
				ThreadID: 7,
				RunState: frame.Runnable,
				Stack: frame.StackTrace{
					{MethodName: "<main>", Path: "/tmp/a.rb", Line: 1},
					{MethodName: "work", Path: "/tmp/a.rb", Line: 10},
				},
			},
			{
				ThreadID: 8,
				Err:      errSentinel,
			},
		},
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	writeFolded(w, sample)

	out := buf.String()

	if !strings.HasPrefix(out, "7: ") {
		t.Fatalf("expected thread 7's line first, got %q", out)
	}

	if strings.Contains(out, "8:") {
		t.Fatalf("expected the errored thread 8 to be skipped, got %q", out)
	}

	if !strings.Contains(out, "<main> (/tmp/a.rb:1);work (/tmp/a.rb:10)") {
		t.Fatalf("unexpected folded stack: %q", out)
	}
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errSentinel = sentinelErr("fold_test: dropped thread")
