package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/stackprobe/stackprobe/frame"
	"github.com/stackprobe/stackprobe/target"
)

// CLI is the root command, parsed by kong in main.go. Attach is the only
// subcommand this module implements - there is nothing else to do with a
// stack-trace extractor from the command line.
type CLI struct {
	Attach AttachCmd `cmd:"" default:"1" help:"Attach to a running process and stream folded stack samples."`
}

// AttachCmd is the attach subcommand's flags, with defaults resolved by
// config.go's env-var layer before kong ever sees them.
type AttachCmd struct {
	PID             int    `short:"p" default:"${env_pid}" help:"Process id to attach to."`
	RateHz          int    `name:"rate-hz" default:"${env_rate_hz}" help:"Sampling rate in Hz."`
	VersionOverride string `name:"version-override" default:"${env_version_override}" help:"Force a VM version (major.minor.patch) instead of auto-identifying it."`
	AnchorOverride  string `name:"anchor-override" default:"${env_anchor_override}" help:"Force the anchor address (hex) instead of locating it."`
	SelfProfile     bool   `name:"self-profile" default:"${env_self_profile}" help:"Profile this command's own sampling loop."`
	SelfProfileDir  string `name:"self-profile-dir" default:"." help:"Directory to write self-profile output to."`
}

// Run attaches to PID and streams folded-stack samples until interrupted.
func (c *AttachCmd) Run() error {
	if c.PID <= 0 {
		return fmt.Errorf("pid must be set (-p/--pid or STACKPROBE_PID), got %d", c.PID)
	}

	var overrideVersion *frame.VMVersion
	if c.VersionOverride != "" {
		v, err := parseVMVersion(c.VersionOverride)
		if err != nil {
			return err
		}

		overrideVersion = &v
	}

	var overrideAnchor *frame.Address
	if c.AnchorOverride != "" {
		a, err := parseAddress(c.AnchorOverride)
		if err != nil {
			return err
		}

		overrideAnchor = &a
	}

	if c.RateHz <= 0 {
		return fmt.Errorf("rate-hz must be > 0, got %d", c.RateHz)
	}

	tg, err := target.Attach(c.PID, overrideVersion, overrideAnchor)
	if err != nil {
		return err
	}
	defer tg.Detach()

	if c.SelfProfile {
		stop := startSelfProfile(c.SelfProfileDir)
		defer stop()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})

	go func() {
		<-sig
		close(done)
	}()

	return runLoop(tg, c.RateHz, os.Stdout, done)
}
