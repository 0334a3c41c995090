package main

import (
	"strconv"

	"github.com/xyproto/env/v2"
)

// defaultRateHz is the built-in fallback sampling rate, used when neither an
// environment variable nor a flag sets one.
const defaultRateHz = 100

// envDefaults reads the environment-variable config layer (the middle tier
// of a defaults -> env vars -> flags stack) and returns them as kong.Vars so
// the CLI's struct tags can reference them as `default:"${...}"` - flags
// parsed afterward still win over whatever lands here.
func envDefaults() map[string]string {
	return map[string]string{
		"env_pid":              env.StrOr("STACKPROBE_PID", "0"),
		"env_rate_hz":          strconv.Itoa(env.IntOr("STACKPROBE_RATE_HZ", defaultRateHz)),
		"env_version_override": env.StrOr("STACKPROBE_VERSION_OVERRIDE", ""),
		"env_anchor_override":  env.StrOr("STACKPROBE_ANCHOR_OVERRIDE", ""),
		"env_self_profile":     strconv.FormatBool(env.BoolOr("STACKPROBE_SELF_PROFILE", false)),
	}
}
