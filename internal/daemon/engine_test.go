package daemon

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

func TestSetActiveProfile(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	c, bus := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	var err error
	do(c, func() { err = c.SetActiveProfile("performance") })
	require.NoError(t, err)

	do(c, func() {
		assert.Equal(t, profile.Performance, c.active)
		assert.Equal(t, profile.Performance, c.selected)
	})
	assert.Equal(t, testActivation{profile.Performance, profile.ReasonUser}, cpu.lastActivation())

	props, ok := bus.lastChangeFor(PrimaryIdentity)
	require.True(t, ok)
	assert.Equal(t, "performance", props["ActiveProfile"].Value())
}

func TestSetActiveProfileInvalidName(t *testing.T) {
	c, _ := newTestCore(t, driverPlugin(allProfilesDriver("test_cpu")))
	startCore(t, c)

	var err error
	do(c, func() { err = c.SetActiveProfile("turbo") })

	var busErr *BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, errNameFailed, busErr.Name)
}

func TestSetActiveProfileUnavailable(t *testing.T) {
	cpu := newTestDriver("test_cpu", driver.Cpu, profile.PowerSaver|profile.Balanced)
	c, _ := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	var err error
	do(c, func() { err = c.SetActiveProfile("performance") })

	var busErr *BusError
	require.ErrorAs(t, err, &busErr)
	do(c, func() {
		assert.Equal(t, profile.Balanced, c.active)
		assert.Equal(t, profile.Balanced, c.selected)
	})
}

func TestSetActiveProfileRepeatIsQuiet(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	c, bus := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	activations := len(cpu.activations)
	changes := bus.changeCount()

	var err error
	do(c, func() { err = c.SetActiveProfile("balanced") })
	require.NoError(t, err)

	assert.Len(t, cpu.activations, activations)
	assert.Equal(t, changes, bus.changeCount())
}

func TestPlatformFailureRevertsCpuDriver(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	platform := newTestDriver("test_platform", driver.Platform, profile.All)
	platform.failOn = map[profile.Profile]error{
		profile.Performance: errors.New("firmware said no"),
	}
	c, _ := newTestCore(t, driverPlugin(cpu), driverPlugin(platform))
	startCore(t, c)

	var err error
	do(c, func() { err = c.SetActiveProfile("performance") })

	var busErr *BusError
	require.ErrorAs(t, err, &busErr)

	// The CPU driver briefly went to performance and was brought back.
	require.NotEmpty(t, cpu.activations)
	assert.Equal(t, testActivation{profile.Balanced, profile.ReasonInternal}, cpu.lastActivation())
	do(c, func() {
		assert.Equal(t, profile.Balanced, c.active)
	})
}

func TestActionFailureDoesNotBlockTransition(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	action := &testAction{name: "broken_action", probeOK: true, failErr: errors.New("sysfs write failed")}
	c, _ := newTestCore(t, driverPlugin(cpu), actionPlugin(action))
	startCore(t, c)

	var err error
	do(c, func() { err = c.SetActiveProfile("performance") })
	require.NoError(t, err)
	do(c, func() {
		assert.Equal(t, profile.Performance, c.active)
	})
}

func TestExternalProfileChangeKeepsSelection(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	c, bus := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	cpu.EmitProfileChanged(profile.PowerSaver)
	c.sync()

	do(c, func() {
		assert.Equal(t, profile.PowerSaver, c.active)
		assert.Equal(t, profile.Balanced, c.selected, "a firmware switch must not overwrite the user's choice")
	})

	// Internal transitions are persisted like user ones.
	_, _, saved := c.store.Saved()
	assert.Equal(t, "power-saver", saved)

	props, ok := bus.lastChangeFor(LegacyIdentity)
	require.True(t, ok)
	assert.Equal(t, "power-saver", props["ActiveProfile"].Value())
}

func TestExternalProfileChangeRepeatIsQuiet(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	c, bus := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	cpu.EmitProfileChanged(profile.PowerSaver)
	c.sync()

	activations := len(cpu.activations)
	changes := bus.changeCount()

	// The driver re-reporting the profile the daemon already applied must
	// not re-activate, re-persist or re-notify.
	cpu.EmitProfileChanged(profile.PowerSaver)
	c.sync()

	assert.Len(t, cpu.activations, activations)
	assert.Equal(t, changes, bus.changeCount())
}

func TestExternalProfileChangeFromUnknownDriverIgnored(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	c, _ := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	do(c, func() {
		c.handleExternalProfileChange(driver.ProfileChanged{Driver: "ghost", Profile: profile.PowerSaver})
		assert.Equal(t, profile.Balanced, c.active)
	})
}

func TestDegradedChangeNotifies(t *testing.T) {
	cpu := newTestDriver("test_cpu", driver.Cpu, profile.PowerSaver|profile.Balanced)
	platform := newTestDriver("test_platform", driver.Platform, profile.All)
	c, bus := newTestCore(t, driverPlugin(cpu), driverPlugin(platform))
	startCore(t, c)

	platform.SetDegraded("lap-detected")
	c.sync()

	props, ok := bus.lastChangeFor(PrimaryIdentity)
	require.True(t, ok)
	assert.Equal(t, "lap-detected", props["PerformanceDegraded"].Value())
}
