package daemon

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/require"

	"github.com/Rongronggg9/power-profiles-daemon/internal/config"
	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

type propChange struct {
	id    Identity
	props map[string]dbus.Variant
}

type releaseNotice struct {
	requester string
	id        Identity
	cookie    uint32
}

// stubBus records emissions and lets tests simulate peer disconnects.
type stubBus struct {
	mu       sync.Mutex
	changes  []propChange
	released []releaseNotice
	watches  map[string][]func()
}

func newStubBus() *stubBus {
	return &stubBus{watches: make(map[string][]func())}
}

func (b *stubBus) EmitPropertiesChanged(id Identity, props map[string]dbus.Variant) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, propChange{id: id, props: props})
	return nil
}

func (b *stubBus) EmitProfileReleased(requester string, id Identity, cookie uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = append(b.released, releaseNotice{requester: requester, id: id, cookie: cookie})
	return nil
}

func (b *stubBus) WatchName(name string, lost func()) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.watches[name] = append(b.watches[name], lost)
	return func() {}, nil
}

// disconnect fires the liveness callbacks registered for a peer.
func (b *stubBus) disconnect(name string) {
	b.mu.Lock()
	callbacks := b.watches[name]
	delete(b.watches, name)
	b.mu.Unlock()
	for _, lost := range callbacks {
		lost()
	}
}

func (b *stubBus) changeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}

func (b *stubBus) lastChangeFor(id Identity) (map[string]dbus.Variant, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.changes) - 1; i >= 0; i-- {
		if b.changes[i].id == id {
			return b.changes[i].props, true
		}
	}
	return nil, false
}

type testActivation struct {
	profile profile.Profile
	reason  profile.ActivationReason
}

// testDriver is a scriptable profile driver. Successive probes consume
// probeResults, the last entry repeating.
type testDriver struct {
	driver.Base

	probeResults []profile.ProbeResult
	probeCalls   int
	activations  []testActivation
	failOn       map[profile.Profile]error
	stopped      bool
}

func newTestDriver(name string, kind driver.Kind, profiles profile.Profile) *testDriver {
	return &testDriver{
		Base: driver.Base{
			DriverName:     name,
			DriverKind:     kind,
			DriverProfiles: profiles,
		},
		probeResults: []profile.ProbeResult{profile.ProbeSuccess},
	}
}

func (d *testDriver) Probe() profile.ProbeResult {
	i := d.probeCalls
	if i >= len(d.probeResults) {
		i = len(d.probeResults) - 1
	}
	d.probeCalls++
	return d.probeResults[i]
}

func (d *testDriver) Activate(p profile.Profile, reason profile.ActivationReason) error {
	if err := d.failOn[p]; err != nil {
		return err
	}
	d.activations = append(d.activations, testActivation{profile: p, reason: reason})
	return nil
}

func (d *testDriver) Stop() { d.stopped = true }

func (d *testDriver) lastActivation() testActivation {
	return d.activations[len(d.activations)-1]
}

type testAction struct {
	name        string
	probeOK     bool
	activations []profile.Profile
	failErr     error
}

func (a *testAction) Name() string { return a.name }
func (a *testAction) Probe() bool  { return a.probeOK }

func (a *testAction) Activate(p profile.Profile) error {
	if a.failErr != nil {
		return a.failErr
	}
	a.activations = append(a.activations, p)
	return nil
}

func driverPlugin(d *testDriver) PluginCtor {
	return func(fs sysfs.FS, emit driver.Emitter) any {
		d.Emit = emit
		return d
	}
}

func actionPlugin(a *testAction) PluginCtor {
	return func(fs sysfs.FS, emit driver.Emitter) any { return a }
}

// allProfilesDriver is the usual test fixture: one CPU driver covering
// everything.
func allProfilesDriver(name string) *testDriver {
	return newTestDriver(name, driver.Cpu, profile.All)
}

func newTestCoreWithStore(t *testing.T, store *config.Store, plugins ...PluginCtor) (*Core, *stubBus) {
	t.Helper()
	bus := newStubBus()
	c := NewCore(CoreConfig{
		Store:   store,
		Bus:     bus,
		Plugins: plugins,
	})
	go c.loop.run()
	t.Cleanup(c.loop.Stop)
	return c, bus
}

func newTestCore(t *testing.T, plugins ...PluginCtor) (*Core, *stubBus) {
	t.Helper()
	store := config.New(filepath.Join(t.TempDir(), "state.yaml"))
	return newTestCoreWithStore(t, store, plugins...)
}

func startCore(t *testing.T, c *Core) {
	t.Helper()
	var err error
	c.loop.Do(func() { err = c.Start() })
	require.NoError(t, err)
}

// do runs f on the core's loop and waits, keeping tests ordered with
// posted events.
func do(c *Core, f func()) {
	c.loop.Do(f)
}

// sync waits until every previously posted event has been handled.
func (c *Core) sync() {
	c.loop.Do(func() {})
}
