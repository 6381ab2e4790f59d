package driver

import (
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// Event is a typed notification a plugin sends back to the daemon. Plugins
// may emit from monitor goroutines; the daemon serializes delivery onto its
// event loop.
type Event interface{ eventDriver() string }

// ProfileChanged reports a profile switch that happened outside the
// daemon's control, e.g. a firmware hotkey.
type ProfileChanged struct {
	Driver  string
	Profile profile.Profile
}

// DegradedChanged reports that the driver's performance-degraded reason
// changed.
type DegradedChanged struct {
	Driver string
}

// ProbeRequest asks for a full re-probe; fired by a deferred driver once
// the kernel support it was waiting for has appeared.
type ProbeRequest struct {
	Driver string
}

func (e ProfileChanged) eventDriver() string  { return e.Driver }
func (e DegradedChanged) eventDriver() string { return e.Driver }
func (e ProbeRequest) eventDriver() string    { return e.Driver }

// Emitter delivers plugin events to the daemon.
type Emitter func(Event)
