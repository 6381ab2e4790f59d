package drivers

import (
	"os"

	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

const fakeDriverEnv = "POWER_PROFILES_DAEMON_FAKE_DRIVER"

// FakeEnabled reports whether the development driver was requested.
func FakeEnabled() bool {
	return os.Getenv(fakeDriverEnv) == "1"
}

// Fake is a development driver supporting every profile without touching
// hardware. Enable with POWER_PROFILES_DAEMON_FAKE_DRIVER=1.
type Fake struct {
	driver.Base

	activated profile.Profile
}

func NewFake(emit driver.Emitter) *Fake {
	return &Fake{
		Base: driver.Base{
			DriverName:     "fake",
			DriverKind:     driver.Cpu,
			DriverProfiles: profile.All,
			Emit:           emit,
		},
	}
}

func (d *Fake) Probe() profile.ProbeResult { return profile.ProbeSuccess }

func (d *Fake) Activate(p profile.Profile, reason profile.ActivationReason) error {
	d.activated = p
	return nil
}

func (d *Fake) Stop() {}

// Activated returns the last profile this driver was asked to apply.
func (d *Fake) Activated() profile.Profile { return d.activated }
