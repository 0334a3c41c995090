package main

import (
	"fmt"
	"testing"

	"github.com/stackprobe/stackprobe/anchor"
	"github.com/stackprobe/stackprobe/remotemem"
	"github.com/stackprobe/stackprobe/version"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("wrap: %w", remotemem.ErrGone), exitTargetGone},
		{fmt.Errorf("wrap: %w", remotemem.ErrPermission), exitPermissionDenied},
		{fmt.Errorf("wrap: %w", version.ErrVersionUnknown), exitUnsupportedVersion},
		{fmt.Errorf("wrap: %w", anchor.ErrAnchorNotFound), exitAnchorNotFound},
		{fmt.Errorf("some other failure"), exitTargetGone},
	}

	for _, c := range cases {
		if got := exitCodeFor(c.err); got != c.want {
			t.Fatalf("exitCodeFor(%v): got %d, want %d", c.err, got, c.want)
		}
	}
}
