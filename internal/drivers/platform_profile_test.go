package drivers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

func seedPlatformProfile(t *testing.T, fs sysfs.FS) {
	seed(t, fs, acpiPlatformProfile, "balanced\n")
	seed(t, fs, acpiPlatformProfileChoices, "low-power balanced performance\n")
}

func TestPlatformProfileProbeDefersWhenNodeMissing(t *testing.T) {
	fs := sysfs.FS{Root: t.TempDir()}
	seedDir(t, fs, "/sys/firmware/acpi")

	rec := &eventRecorder{}
	d := NewPlatformProfile(fs, rec.emit)
	assert.Equal(t, profile.ProbeDefer, d.Probe())
	d.Stop()
}

func TestPlatformProfileProbeRejectsPartialChoices(t *testing.T) {
	fs := sysfs.FS{Root: t.TempDir()}
	seed(t, fs, acpiPlatformProfile, "balanced\n")
	seed(t, fs, acpiPlatformProfileChoices, "balanced performance\n")

	d := NewPlatformProfile(fs, nil)
	assert.Equal(t, profile.ProbeFail, d.Probe())
}

func TestPlatformProfileActivate(t *testing.T) {
	fs := sysfs.FS{Root: t.TempDir()}
	seedPlatformProfile(t, fs)

	d := NewPlatformProfile(fs, nil)
	require.Equal(t, profile.ProbeSuccess, d.Probe())
	defer d.Stop()

	require.NoError(t, d.Activate(profile.Performance, profile.ReasonUser))
	assert.Equal(t, "performance", readAttr(t, fs, acpiPlatformProfile))

	require.NoError(t, d.Activate(profile.PowerSaver, profile.ReasonUser))
	assert.Equal(t, "low-power", readAttr(t, fs, acpiPlatformProfile))
}

func TestPlatformProfileInhibitsPerformanceOnLap(t *testing.T) {
	fs := sysfs.FS{Root: t.TempDir()}
	seedPlatformProfile(t, fs)
	seed(t, fs, dytcLapmodePath, "1\n")

	rec := &eventRecorder{}
	d := NewPlatformProfile(fs, rec.emit)
	require.Equal(t, profile.ProbeSuccess, d.Probe())
	defer d.Stop()

	err := d.Activate(profile.Performance, profile.ReasonUser)
	assert.True(t, errors.Is(err, driver.ErrInhibited))
	assert.Equal(t, degradedLapDetected, d.PerformanceDegraded())

	// Off the lap, performance works again.
	seed(t, fs, dytcLapmodePath, "0\n")
	d.updateLapmode()
	assert.Empty(t, d.PerformanceDegraded())
	assert.NoError(t, d.Activate(profile.Performance, profile.ReasonUser))
}

func TestPlatformProfileFollowsFirmwareSwitch(t *testing.T) {
	fs := sysfs.FS{Root: t.TempDir()}
	seedPlatformProfile(t, fs)

	rec := &eventRecorder{}
	d := NewPlatformProfile(fs, rec.emit)
	require.Equal(t, profile.ProbeSuccess, d.Probe())

	// Detach the fsnotify watcher so the simulated firmware write below is
	// observed exactly once, through the direct callback.
	d.Stop()

	seed(t, fs, acpiPlatformProfile, "performance\n")
	d.profileChanged()

	events := rec.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, driver.ProfileChanged{
		Driver:  "platform_profile",
		Profile: profile.Performance,
	}, events[0])

	// Re-reading the same value does not emit again.
	d.profileChanged()
	assert.Len(t, rec.recorded(), 1)
}

func TestProfileFromAcpiValue(t *testing.T) {
	tests := []struct {
		value string
		want  profile.Profile
	}{
		{"low-power", profile.PowerSaver},
		{"cool", profile.PowerSaver},
		{"quiet", profile.PowerSaver},
		{"balanced", profile.Balanced},
		{"performance", profile.Performance},
		{"", profile.Unset},
		{"mystery", profile.Unset},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, profileFromAcpiValue(tt.value), tt.value)
	}
}
