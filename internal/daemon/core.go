// Package daemon implements the orchestration core: driver probing, the
// profile activation state machine, profile holds and the coalesced
// property-change notifications, all serialized on a single event loop.
package daemon

import (
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/config"
	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

// Version is the daemon version reported over the bus.
const Version = "0.30"

// Identity is one of the bus identities the daemon state is mirrored on.
type Identity struct {
	BusName   string
	Interface string
	Path      dbus.ObjectPath
}

var (
	// PrimaryIdentity is the interface current clients talk to.
	PrimaryIdentity = Identity{
		BusName:   "org.freedesktop.UPower.PowerProfiles",
		Interface: "org.freedesktop.UPower.PowerProfiles",
		Path:      "/org/freedesktop/UPower/PowerProfiles",
	}
	// LegacyIdentity is the pre-rename alias kept for older clients.
	LegacyIdentity = Identity{
		BusName:   "net.hadess.PowerProfiles",
		Interface: "net.hadess.PowerProfiles",
		Path:      "/net/hadess/PowerProfiles",
	}

	identities = []Identity{PrimaryIdentity, LegacyIdentity}
)

// Bus is the slice of the IPC connection the core needs: emitting change
// notifications, addressing a hold's requester, and tracking requester
// liveness. The real implementation wraps the system bus connection.
type Bus interface {
	EmitPropertiesChanged(id Identity, props map[string]dbus.Variant) error
	EmitProfileReleased(requester string, id Identity, cookie uint32) error
	// WatchName invokes lost once when the named bus peer disconnects.
	// The returned cancel stops the watch.
	WatchName(name string, lost func()) (cancel func(), err error)
}

type profileHold struct {
	profile       profile.Profile
	reason        string
	applicationID string
	requester     string
	cancelWatch   func()
}

// Core owns all daemon state. Every method that mutates state must run on
// the event loop; the bus service layer is responsible for posting into it.
type Core struct {
	log  zerolog.Logger
	loop *loop

	store   *config.Store
	bus     Bus
	fs      sysfs.FS
	plugins []PluginCtor

	active   profile.Profile
	selected profile.Profile
	cpu      driver.Driver
	platform driver.Driver
	deferred []driver.Driver
	actions  []driver.Action

	holds      map[uint32]*profileHold
	holdOrder  []uint32
	nextCookie uint32

	dirty propMask

	// onFatal is invoked when a driver-requested re-probe leaves the
	// daemon without its required drivers.
	onFatal func(error)
}

// CoreConfig wires the core's collaborators.
type CoreConfig struct {
	Store   *config.Store
	Bus     Bus
	FS      sysfs.FS
	Plugins []PluginCtor
	OnFatal func(error)
}

// NewCore builds an idle core; call Start on the event loop to probe
// drivers and apply the initial profile.
func NewCore(cfg CoreConfig) *Core {
	c := &Core{
		log:        logging.GetLogger("core"),
		loop:       newLoop(),
		store:      cfg.Store,
		bus:        cfg.Bus,
		fs:         cfg.FS,
		plugins:    cfg.Plugins,
		active:     profile.Balanced,
		selected:   profile.Balanced,
		holds:      make(map[uint32]*profileHold),
		nextCookie: 1,
		onFatal:    cfg.OnFatal,
	}
	if c.onFatal == nil {
		c.onFatal = func(err error) {
			c.log.Error().Err(err).Msg("unrecoverable error after re-probe")
		}
	}
	return c
}

// driverFor returns the active driver that supports p, preferring the CPU
// driver, or nil when the profile is unavailable.
func (c *Core) driverFor(p profile.Profile) driver.Driver {
	if c.cpu != nil && c.cpu.Profiles()&p != 0 {
		return c.cpu
	}
	if c.platform != nil && c.platform.Profiles()&p != 0 {
		return c.platform
	}
	return nil
}

func (c *Core) profileAvailable(p profile.Profile) bool {
	return c.driverFor(p) != nil
}

// isRegisteredDriver reports whether name is the active CPU or platform
// driver; events from anything else (a deferred or torn-down plugin) are
// ignored.
func (c *Core) isRegisteredDriver(name string) bool {
	if c.cpu != nil && c.cpu.Name() == name {
		return true
	}
	return c.platform != nil && c.platform.Name() == name
}

func driverName(d driver.Driver) string {
	if d == nil {
		return ""
	}
	return d.Name()
}

// handleEvent reacts to a plugin event on the loop.
func (c *Core) handleEvent(ev driver.Event) {
	switch e := ev.(type) {
	case driver.ProfileChanged:
		c.handleExternalProfileChange(e)
	case driver.DegradedChanged:
		c.handleDegradedChange(e)
	case driver.ProbeRequest:
		c.log.Debug().Str("driver", e.Driver).Msg("probe requested, restarting drivers")
		if err := c.Restart(); err != nil {
			c.onFatal(err)
		}
	}
}

// postEvent is the emitter handed to plugins; safe from any goroutine.
func (c *Core) postEvent(ev driver.Event) {
	c.loop.Post(func() { c.handleEvent(ev) })
}
