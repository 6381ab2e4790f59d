package daemon

import (
	"github.com/Rongronggg9/power-profiles-daemon/internal/actions"
	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/drivers"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

// PluginCtor builds a plugin instance for one probe cycle. It returns a
// driver.Driver, a driver.Action, or nil when the plugin is not applicable
// to this host at all.
type PluginCtor func(fs sysfs.FS, emit driver.Emitter) any

// DefaultPlugins is the fixed priority order: hardware-specific CPU drivers,
// the ACPI platform driver, the generic fallback, then the actions.
func DefaultPlugins() []PluginCtor {
	return []PluginCtor{
		func(fs sysfs.FS, emit driver.Emitter) any {
			if !drivers.FakeEnabled() {
				return nil
			}
			return drivers.NewFake(emit)
		},
		func(fs sysfs.FS, emit driver.Emitter) any { return drivers.NewAmdPstate(fs, emit) },
		func(fs sysfs.FS, emit driver.Emitter) any { return drivers.NewIntelPstate(fs, emit) },
		func(fs sysfs.FS, emit driver.Emitter) any { return drivers.NewPlatformProfile(fs, emit) },
		func(fs sysfs.FS, emit driver.Emitter) any { return drivers.NewPlaceholder(emit) },
		func(fs sysfs.FS, emit driver.Emitter) any { return actions.NewTrickleCharge(fs) },
		func(fs sysfs.FS, emit driver.Emitter) any { return actions.NewAmdgpuPanelPower(fs) },
	}
}
