package daemon

import (
	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// Start probes the plugin constructors in priority order and applies the
// initial profile. It fails with ErrInsufficientDrivers when no usable
// driver covers Balanced and PowerSaver; that is the caller's cue to exit.
// Runs on the event loop.
func (c *Core) Start() error {
	for _, ctor := range c.plugins {
		obj := ctor(c.fs, c.postEvent)
		if obj == nil {
			continue
		}
		switch p := obj.(type) {
		case driver.Driver:
			c.probeDriver(p)
		case driver.Action:
			c.log.Debug().Str("action", p.Name()).Msg("handling action")
			if !p.Probe() {
				c.log.Debug().Str("action", p.Name()).Msg("probe failed for action, skipping")
				continue
			}
			c.actions = append(c.actions, p)
		default:
			c.log.Error().Msgf("plugin constructor returned unknown type %T", obj)
		}
	}

	if c.driverFor(profile.Balanced) == nil || c.driverFor(profile.PowerSaver) == nil {
		return ErrInsufficientDrivers
	}

	// Initial state comes from the persisted configuration when it still
	// matches the probed drivers, Balanced otherwise.
	initial := profile.Balanced
	if saved, ok := c.savedProfile(); ok {
		initial = saved
	}
	c.active = initial
	c.selected = initial
	if err := c.activateProfile(initial, profile.ReasonReset, true); err != nil {
		c.log.Warn().Err(err).Msg("could not apply initial profile")
	}

	c.markDirty(maskAll)
	c.flush()
	return nil
}

func (c *Core) probeDriver(d driver.Driver) {
	c.log.Debug().Str("driver", d.Name()).Str("kind", d.Kind().String()).Msg("handling driver")

	registered := c.cpu
	if d.Kind() == driver.Platform {
		registered = c.platform
	}
	if registered != nil {
		c.log.Debug().
			Str("driver", registered.Name()).
			Str("skipped", d.Name()).
			Msg("driver of this kind already probed, skipping")
		return
	}

	if d.Profiles()&profile.All == 0 {
		c.log.Warn().Str("driver", d.Name()).Msg("driver advertises no valid profiles")
		return
	}

	switch d.Probe() {
	case profile.ProbeFail:
		c.log.Debug().Str("driver", d.Name()).Msg("probe failed for driver, skipping")
	case profile.ProbeDefer:
		c.log.Debug().Str("driver", d.Name()).Msg("driver deferred, waiting for a probe request")
		c.deferred = append(c.deferred, d)
	case profile.ProbeSuccess:
		if d.Kind() == driver.Cpu {
			c.cpu = d
		} else {
			c.platform = d
		}
	}
}

// StopDrivers tears the active driver and action set down, releasing all
// holds first since holds reference drivers. Runs on the event loop.
func (c *Core) StopDrivers() {
	c.releaseAllHolds()
	for _, d := range c.deferred {
		d.Stop()
	}
	c.deferred = nil
	if c.cpu != nil {
		c.cpu.Stop()
		c.cpu = nil
	}
	if c.platform != nil {
		c.platform.Stop()
		c.platform = nil
	}
	c.actions = nil
}

// Restart re-runs the probe cycle; triggered when a deferred plugin
// announces readiness.
func (c *Core) Restart() error {
	c.StopDrivers()
	return c.Start()
}

// savedProfile resolves the persisted profile, honoring it only when the
// persisted driver names match what was just probed (an absent name matches
// having no driver of that kind) and the profile is still supported.
func (c *Core) savedProfile() (profile.Profile, bool) {
	cpuName, platformName, profileName := c.store.Saved()
	if cpuName != driverName(c.cpu) || platformName != driverName(c.platform) {
		c.log.Debug().
			Str("cpu", cpuName).
			Str("platform", platformName).
			Msg("persisted driver names do not match probed drivers, ignoring saved state")
		return profile.Unset, false
	}
	p := profile.FromString(profileName)
	if p == profile.Unset || !c.profileAvailable(p) {
		return profile.Unset, false
	}
	c.log.Debug().Str("profile", profileName).Msg("applying profile from persisted state")
	return p, true
}
