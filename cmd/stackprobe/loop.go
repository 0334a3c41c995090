package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/target"
)

// aggregator counts dropped stack traces across a run, for the exit-time
// summary line.
type aggregator struct {
	sampled          int
	droppedThreads   int
	droppedSnapshots int
}

func (a *aggregator) recordSample(s frame.Sample) {
	a.sampled++

	for _, th := range s.Threads {
		if th.Err != nil {
			a.droppedThreads++
		}
	}
}

func (a *aggregator) recordSnapshotError() {
	a.sampled++
	a.droppedSnapshots++
}

func (a *aggregator) dropped() int { return a.droppedThreads + a.droppedSnapshots }

func (a *aggregator) summary() string {
	return fmt.Sprintf("dropped %d/%d stack traces because of errors", a.dropped(), a.sampled)
}

// runLoop drives one Target at rateHz until the done channel closes,
// writing folded-stack records to w. A time.Ticker only ever holds one
// pending tick in its channel, so a tick that arrives while the previous
// Snapshot call is still running is silently coalesced rather than queued -
// the cadence-skip behavior this command needs comes for free from that.
//
// A whole-snapshot error is logged and counted but does not stop the loop;
// only the target going away (t.Alive reports false) ends it early,
// returned so the caller can map it to an exit code.
func runLoop(t *target.Target, rateHz int, out io.Writer, done <-chan struct{}) error {
	interval := time.Second / time.Duration(rateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w := bufio.NewWriter(out)
	agg := &aggregator{}

	for {
		select {
		case <-done:
			log.Print(agg.summary())

			return nil
		case <-ticker.C:
			sample, err := t.Snapshot()
			if err != nil {
				agg.recordSnapshotError()
				log.Printf("snapshot failed: %v", err)

				if !t.Alive() {
					log.Print(agg.summary())

					return err
				}

				continue
			}

			agg.recordSample(sample)
			writeFolded(w, sample)
		}
	}
}
