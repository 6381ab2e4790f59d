// Package driver defines the capability contracts the probe orchestrator
// dispatches on: profile drivers (CPU or platform kind) that materially
// change hardware state, and actions that ride along with a transition.
package driver

import (
	"errors"

	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// ErrInhibited marks an activation refused because the driver reports the
// profile should not run right now, e.g. lap detection blocking
// performance.
var ErrInhibited = errors.New("profile is inhibited")

// Kind tags a profile driver by the hardware domain it controls. The daemon
// registers at most one driver of each kind.
type Kind int

const (
	Cpu Kind = iota
	Platform
)

func (k Kind) String() string {
	if k == Cpu {
		return "cpu"
	}
	return "platform"
}

// Driver is a profile driver plugin. Probe runs once per orchestrator cycle;
// Activate is only called with profiles the driver advertises. Stop releases
// any monitors the driver started during a successful or deferred probe.
type Driver interface {
	Name() string
	Kind() Kind
	Profiles() profile.Profile
	Probe() profile.ProbeResult
	Activate(p profile.Profile, reason profile.ActivationReason) error
	PerformanceDegraded() string
	Stop()
}

// Action is a plugin with a secondary side effect tied to the active
// profile. Activation failures are logged by the engine, never propagated.
type Action interface {
	Name() string
	Probe() bool
	Activate(p profile.Profile) error
}
