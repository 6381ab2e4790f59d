package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
)

// A single bus call may flip several property groups; clients still see one
// PropertiesChanged per interface.
func TestNotificationsAreCoalesced(t *testing.T) {
	cpu := allProfilesDriver("test_cpu")
	c, bus := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	before := bus.changeCount()
	holdProfile(t, c, "performance", ":1.10")

	assert.Equal(t, before+len(identities), bus.changeCount())

	props, ok := bus.lastChangeFor(PrimaryIdentity)
	require.True(t, ok)
	assert.Contains(t, props, "ActiveProfile")
	assert.Contains(t, props, "ActiveProfileHolds")
	assert.NotContains(t, props, "Profiles")
}

func TestFlushWithoutChangesIsSilent(t *testing.T) {
	c, bus := newTestCore(t, driverPlugin(allProfilesDriver("test_cpu")))
	startCore(t, c)

	before := bus.changeCount()
	do(c, func() { c.flush() })
	assert.Equal(t, before, bus.changeCount())
}

func TestHoldsVariantPreservesCreationOrder(t *testing.T) {
	c, _ := newTestCore(t, driverPlugin(allProfilesDriver("test_cpu")))
	startCore(t, c)

	do(c, func() {
		_, err := c.HoldProfile("performance", "compiling", "org.example.Builder", ":1.10")
		require.NoError(t, err)
		_, err = c.HoldProfile("power-saver", "low battery", "org.example.Monitor", ":1.11")
		require.NoError(t, err)

		holds := c.holdsVariant()
		require.Len(t, holds, 2)
		assert.Equal(t, "org.example.Builder", holds[0]["ApplicationId"].Value())
		assert.Equal(t, "compiling", holds[0]["Reason"].Value())
		assert.Equal(t, "power-saver", holds[1]["Profile"].Value())
		for _, h := range holds {
			assert.NotContains(t, h, "Requester")
		}
	})
}

func TestPerformanceDegradedEmptyWithoutPerformanceDriver(t *testing.T) {
	cpu := newTestDriver("test_cpu", driver.Cpu, profile.PowerSaver|profile.Balanced)
	c, _ := newTestCore(t, driverPlugin(cpu))
	startCore(t, c)

	do(c, func() {
		assert.Empty(t, c.performanceDegraded())
	})
}
