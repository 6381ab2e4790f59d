// Package drivers contains the profile driver plugins. Each drives one
// hardware or firmware mechanism and is probed by the daemon core in a
// fixed priority order.
package drivers

import (
	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// Placeholder is the generic fallback driver: it changes nothing but keeps
// the daemon operational on hardware with no supported backend.
type Placeholder struct {
	driver.Base
}

func NewPlaceholder(emit driver.Emitter) *Placeholder {
	return &Placeholder{
		Base: driver.Base{
			DriverName:     "placeholder",
			DriverKind:     driver.Platform,
			DriverProfiles: profile.PowerSaver | profile.Balanced,
			Emit:           emit,
		},
	}
}

func (d *Placeholder) Probe() profile.ProbeResult { return profile.ProbeSuccess }

func (d *Placeholder) Activate(p profile.Profile, reason profile.ActivationReason) error {
	return nil
}

func (d *Placeholder) Stop() {}
