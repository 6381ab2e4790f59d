package driver

import (
	"sync"

	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// Base carries the static identity of a profile driver plus the emitter
// back into the daemon. Concrete drivers embed it and implement Probe,
// Activate and Stop. The degraded reason may be set from a monitor
// goroutine while the daemon reads it, hence the lock.
type Base struct {
	DriverName     string
	DriverKind     Kind
	DriverProfiles profile.Profile
	Emit           Emitter

	mu       sync.Mutex
	degraded string
}

func (b *Base) Name() string              { return b.DriverName }
func (b *Base) Kind() Kind                { return b.DriverKind }
func (b *Base) Profiles() profile.Profile { return b.DriverProfiles }

func (b *Base) PerformanceDegraded() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.degraded
}

// SetDegraded updates the degraded reason and notifies the daemon when it
// actually changed. An empty reason clears the condition.
func (b *Base) SetDegraded(reason string) {
	b.mu.Lock()
	changed := b.degraded != reason
	b.degraded = reason
	b.mu.Unlock()
	if changed && b.Emit != nil {
		b.Emit(DegradedChanged{Driver: b.DriverName})
	}
}

// EmitProfileChanged reports an externally triggered profile switch.
func (b *Base) EmitProfileChanged(p profile.Profile) {
	if b.Emit != nil {
		b.Emit(ProfileChanged{Driver: b.DriverName, Profile: p})
	}
}

// EmitProbeRequest asks the orchestrator for a re-probe.
func (b *Base) EmitProbeRequest() {
	if b.Emit != nil {
		b.Emit(ProbeRequest{Driver: b.DriverName})
	}
}
