package daemon

import (
	"github.com/godbus/dbus/v5"

	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// propMask tracks which property groups changed since the last flush, so a
// cascade of internal transitions caused by one bus call still yields a
// single PropertiesChanged per interface identity.
type propMask uint32

const (
	maskActiveProfile propMask = 1 << iota
	maskInhibited
	maskProfiles
	maskActions
	maskDegraded
	maskHolds
	maskVersion

	maskAll = maskActiveProfile | maskInhibited | maskProfiles |
		maskActions | maskDegraded | maskHolds | maskVersion
)

func (c *Core) markDirty(mask propMask) {
	c.dirty |= mask
}

// flush emits one coalesced PropertiesChanged per identity and clears the
// dirty mask. A no-op when nothing changed.
func (c *Core) flush() {
	if c.dirty == 0 {
		return
	}
	props := make(map[string]dbus.Variant)
	if c.dirty&maskActiveProfile != 0 {
		props["ActiveProfile"] = dbus.MakeVariant(c.active.String())
	}
	if c.dirty&maskInhibited != 0 {
		props["PerformanceInhibited"] = dbus.MakeVariant("")
	}
	if c.dirty&maskDegraded != 0 {
		props["PerformanceDegraded"] = dbus.MakeVariant(c.performanceDegraded())
	}
	if c.dirty&maskProfiles != 0 {
		props["Profiles"] = dbus.MakeVariant(c.profilesVariant())
	}
	if c.dirty&maskActions != 0 {
		props["Actions"] = dbus.MakeVariant(c.actionsVariant())
	}
	if c.dirty&maskHolds != 0 {
		props["ActiveProfileHolds"] = dbus.MakeVariant(c.holdsVariant())
	}
	if c.dirty&maskVersion != 0 {
		props["Version"] = dbus.MakeVariant(Version)
	}
	c.dirty = 0

	for _, id := range identities {
		if err := c.bus.EmitPropertiesChanged(id, props); err != nil {
			c.log.Warn().Err(err).Str("interface", id.Interface).Msg("could not emit properties-changed")
		}
	}
}

// performanceDegraded returns the degraded reason of the performance-capable
// driver, empty when none is registered or nothing is degraded.
func (c *Core) performanceDegraded() string {
	d := c.driverFor(profile.Performance)
	if d == nil {
		return ""
	}
	return d.PerformanceDegraded()
}

// profilesVariant lists every profile supported by at least one active
// driver, with the drivers that realize it. The compat "Driver" key mirrors
// what single-driver clients used to read.
func (c *Core) profilesVariant() []map[string]dbus.Variant {
	var out []map[string]dbus.Variant
	profile.Each(func(p profile.Profile) {
		entry := make(map[string]dbus.Variant)
		compat := ""
		if c.cpu != nil && c.cpu.Profiles()&p != 0 {
			entry["CpuDriver"] = dbus.MakeVariant(c.cpu.Name())
			compat = c.cpu.Name()
		}
		if c.platform != nil && c.platform.Profiles()&p != 0 {
			entry["PlatformDriver"] = dbus.MakeVariant(c.platform.Name())
			compat = c.platform.Name()
		}
		if len(entry) == 0 {
			return
		}
		entry["Profile"] = dbus.MakeVariant(p.String())
		entry["Driver"] = dbus.MakeVariant(compat)
		out = append(out, entry)
	})
	return out
}

func (c *Core) actionsVariant() []string {
	names := make([]string, 0, len(c.actions))
	for _, a := range c.actions {
		names = append(names, a.Name())
	}
	return names
}

// holdsVariant lists current holds in creation order. The requester's bus
// name is deliberately not exposed.
func (c *Core) holdsVariant() []map[string]dbus.Variant {
	out := make([]map[string]dbus.Variant, 0, len(c.holdOrder))
	for _, cookie := range c.holdOrder {
		hold := c.holds[cookie]
		out = append(out, map[string]dbus.Variant{
			"ApplicationId": dbus.MakeVariant(hold.applicationID),
			"Profile":       dbus.MakeVariant(hold.profile.String()),
			"Reason":        dbus.MakeVariant(hold.reason),
		})
	}
	return out
}
