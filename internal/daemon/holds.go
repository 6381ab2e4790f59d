package daemon

import (
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// HoldProfile registers a temporary override on behalf of requester and
// returns its cookie. Runs on the event loop.
func (c *Core) HoldProfile(profileName, reason, applicationID, requester string) (uint32, error) {
	p := profile.FromString(profileName)
	if p != profile.Performance && p != profile.PowerSaver {
		return 0, errHoldInvalidProfile(profileName)
	}
	if !c.profileAvailable(p) {
		return 0, errHoldProfileUnavailable(profileName)
	}

	cookie := c.nextCookie
	c.nextCookie++

	hold := &profileHold{
		profile:       p,
		reason:        reason,
		applicationID: applicationID,
		requester:     requester,
	}

	c.log.Debug().
		Str("application", applicationID).
		Str("requester", requester).
		Str("profile", profileName).
		Str("reason", reason).
		Uint32("cookie", cookie).
		Msg("holding profile")

	cancel, err := c.bus.WatchName(requester, func() {
		c.loop.Post(func() { c.requesterDisconnected(requester) })
	})
	if err != nil {
		c.log.Warn().Err(err).Str("requester", requester).Msg("could not watch hold requester")
	} else {
		hold.cancelWatch = cancel
	}

	c.holds[cookie] = hold
	c.holdOrder = append(c.holdOrder, cookie)
	c.markDirty(maskHolds)

	if p != c.active {
		if target := c.effectiveHoldProfile(); target != profile.Unset && target != c.active {
			if err := c.activateProfile(target, profile.ReasonProgramHold, false); err != nil {
				c.log.Warn().Err(err).Msg("could not apply held profile")
			} else {
				c.markDirty(maskActiveProfile)
			}
		}
	}

	c.flush()
	return cookie, nil
}

// ReleaseProfile removes the hold with the given cookie. Runs on the event
// loop.
func (c *Core) ReleaseProfile(cookie uint32) error {
	if _, ok := c.holds[cookie]; !ok {
		return errUnknownCookie(cookie)
	}
	c.releaseHold(cookie)
	c.flush()
	return nil
}

// releaseHold is the single removal primitive shared by explicit releases,
// requester disconnects and user profile switches. It marks dirty flags but
// leaves flushing to the caller.
func (c *Core) releaseHold(cookie uint32) {
	hold, ok := c.holds[cookie]
	if !ok {
		return
	}

	if hold.cancelWatch != nil {
		hold.cancelWatch()
	}
	delete(c.holds, cookie)
	for i, other := range c.holdOrder {
		if other == cookie {
			c.holdOrder = append(c.holdOrder[:i], c.holdOrder[i+1:]...)
			break
		}
	}
	c.markDirty(maskHolds)

	for _, id := range identities {
		if err := c.bus.EmitProfileReleased(hold.requester, id, cookie); err != nil {
			c.log.Warn().Err(err).Uint32("cookie", cookie).Msg("could not notify hold requester")
		}
	}

	if len(c.holds) == 0 && c.active != c.selected {
		c.log.Debug().Msg("no profile holds left, going back to the selected profile")
		if err := c.activateProfile(c.selected, profile.ReasonProgramHold, false); err != nil {
			c.log.Warn().Err(err).Msg("could not restore selected profile")
		} else {
			c.markDirty(maskActiveProfile)
		}
	} else if hold.profile == c.active {
		next := c.effectiveHoldProfile()
		if next != profile.Unset && next != c.active {
			c.log.Debug().Str("profile", next.String()).Msg("applying next held profile")
			if err := c.activateProfile(next, profile.ReasonProgramHold, false); err != nil {
				c.log.Warn().Err(err).Msg("could not apply next held profile")
			} else {
				c.markDirty(maskActiveProfile)
			}
		}
	}
}

// requesterDisconnected releases every hold owned by a bus peer that went
// away, with the same effects as an explicit release.
func (c *Core) requesterDisconnected(requester string) {
	var cookies []uint32
	for _, cookie := range c.holdOrder {
		if c.holds[cookie].requester == requester {
			cookies = append(cookies, cookie)
		}
	}
	if len(cookies) == 0 {
		return
	}
	c.log.Debug().Str("requester", requester).Int("holds", len(cookies)).Msg("hold requester disconnected")
	for _, cookie := range cookies {
		c.releaseHold(cookie)
	}
	c.flush()
}

// releaseAllHolds drops every hold at once, notifying each requester. The
// per-hold reactivation logic is skipped: callers either activate a new
// profile right after (user switch) or tear the drivers down entirely.
func (c *Core) releaseAllHolds() {
	if len(c.holdOrder) == 0 {
		return
	}
	for _, cookie := range c.holdOrder {
		hold := c.holds[cookie]
		if hold.cancelWatch != nil {
			hold.cancelWatch()
		}
		for _, id := range identities {
			if err := c.bus.EmitProfileReleased(hold.requester, id, cookie); err != nil {
				c.log.Warn().Err(err).Uint32("cookie", cookie).Msg("could not notify hold requester")
			}
		}
		delete(c.holds, cookie)
	}
	c.holdOrder = nil
	c.markDirty(maskHolds)
}

// effectiveHoldProfile resolves the override the holds ask for: any
// PowerSaver hold wins outright, otherwise the most recently created hold.
func (c *Core) effectiveHoldProfile() profile.Profile {
	result := profile.Unset
	for _, cookie := range c.holdOrder {
		hold := c.holds[cookie]
		if hold.profile == profile.PowerSaver {
			return profile.PowerSaver
		}
		result = hold.profile
	}
	return result
}
