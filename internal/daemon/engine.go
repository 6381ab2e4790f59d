package daemon

import (
	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// activateProfile applies target across the registered drivers and actions.
// The CPU driver goes first; a platform-driver failure reverts the CPU
// driver to the previous profile and surfaces the platform error. Action
// failures are logged and never block the transition. force reapplies even
// when target is already active (startup reset).
func (c *Core) activateProfile(target profile.Profile, reason profile.ActivationReason, force bool) error {
	if target == c.active && !force {
		return nil
	}

	c.log.Debug().
		Str("target", target.String()).
		Str("reason", reason.String()).
		Str("current", c.active.String()).
		Msg("setting active profile")

	previous := c.active
	cpuActivated := false

	if c.cpu != nil && c.cpu.Profiles()&target != 0 {
		if err := c.cpu.Activate(target, reason); err != nil {
			c.log.Warn().Err(err).Str("driver", c.cpu.Name()).Msg("cpu driver activation failed")
			return errDriverActivation(c.cpu.Name(), err)
		}
		cpuActivated = true
	}

	if c.platform != nil && c.platform.Profiles()&target != 0 {
		if err := c.platform.Activate(target, reason); err != nil {
			c.log.Warn().Err(err).Str("driver", c.platform.Name()).Msg("platform driver activation failed")
			if cpuActivated && c.cpu.Profiles()&previous != 0 {
				if rerr := c.cpu.Activate(previous, profile.ReasonInternal); rerr != nil {
					c.log.Warn().Err(rerr).Str("driver", c.cpu.Name()).Msg("could not revert cpu driver")
				}
			}
			return errDriverActivation(c.platform.Name(), err)
		}
	}

	for _, action := range c.actions {
		if err := action.Activate(target); err != nil {
			c.log.Warn().Err(err).
				Str("action", action.Name()).
				Str("profile", target.String()).
				Msg("action activation failed")
		}
	}

	c.active = target

	if reason == profile.ReasonUser || reason == profile.ReasonInternal {
		c.store.Save(driverName(c.cpu), driverName(c.platform), c.active.String())
	}

	return nil
}

// SetActiveProfile is the end-user profile switch. It releases every hold
// first (notifying each requester), then records the selection and applies
// it. Runs on the event loop.
func (c *Core) SetActiveProfile(name string) error {
	target := profile.FromString(name)
	if target == profile.Unset {
		return errInvalidProfile(name)
	}
	if !c.profileAvailable(target) {
		return errProfileUnavailable(name)
	}

	if len(c.holds) > 0 {
		c.log.Debug().Msg("releasing active profile holds for user switch")
		c.releaseAllHolds()
	}

	if target != c.active {
		if err := c.activateProfile(target, profile.ReasonUser, false); err != nil {
			c.flush()
			return err
		}
		c.markDirty(maskActiveProfile)
	}
	c.selected = target
	c.flush()
	return nil
}

// handleExternalProfileChange reacts to a driver reporting a switch that
// happened outside the daemon, e.g. a firmware hotkey. The user's selection
// is untouched.
func (c *Core) handleExternalProfileChange(ev driver.ProfileChanged) {
	if !c.isRegisteredDriver(ev.Driver) {
		c.log.Warn().Str("driver", ev.Driver).Msg("ignoring profile change from unregistered driver")
		return
	}
	c.log.Debug().
		Str("driver", ev.Driver).
		Str("profile", ev.Profile.String()).
		Msg("driver switched profile internally")
	if ev.Profile == c.active {
		return
	}
	if err := c.activateProfile(ev.Profile, profile.ReasonInternal, false); err != nil {
		c.log.Warn().Err(err).Msg("could not follow external profile change")
	}
	c.markDirty(maskActiveProfile)
	c.flush()
}

// handleDegradedChange forwards a degraded-reason change from the
// performance-capable driver to observers.
func (c *Core) handleDegradedChange(ev driver.DegradedChanged) {
	if !c.isRegisteredDriver(ev.Driver) {
		c.log.Warn().Str("driver", ev.Driver).Msg("ignoring degraded change from unregistered driver")
		return
	}
	d := c.driverFor(profile.Performance)
	if d == nil || d.Name() != ev.Driver {
		c.log.Warn().Str("driver", ev.Driver).Msg("ignoring degraded change from non-performance driver")
		return
	}
	c.markDirty(maskDegraded)
	c.flush()
}
