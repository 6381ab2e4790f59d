package drivers

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

const (
	acpiPlatformProfile        = "/sys/firmware/acpi/platform_profile"
	acpiPlatformProfileChoices = "/sys/firmware/acpi/platform_profile_choices"
	dytcLapmodePath            = "/sys/devices/platform/thinkpad_acpi/dytc_lapmode"

	degradedLapDetected = "lap-detected"
)

// PlatformProfile drives the ACPI platform profile. When the sysfs node is
// missing the probe defers, watching for the kernel interface to appear;
// once present, firmware-initiated switches are followed and the Lenovo
// lap-detection sensor is surfaced as a degraded condition.
type PlatformProfile struct {
	driver.Base

	fs  sysfs.FS
	log zerolog.Logger

	mu      sync.Mutex
	current profile.Profile
	writing bool
	lapmode bool

	profileMon *sysfs.Monitor
	lapmodeMon *sysfs.Monitor
	deferMon   *sysfs.Monitor
}

func NewPlatformProfile(fs sysfs.FS, emit driver.Emitter) *PlatformProfile {
	return &PlatformProfile{
		Base: driver.Base{
			DriverName:     "platform_profile",
			DriverKind:     driver.Platform,
			DriverProfiles: profile.All,
			Emit:           emit,
		},
		fs:  fs,
		log: logging.GetLogger("platform_profile"),
	}
}

func acpiValueFor(p profile.Profile) string {
	switch p {
	case profile.PowerSaver:
		return "low-power"
	case profile.Performance:
		return "performance"
	default:
		return "balanced"
	}
}

func profileFromAcpiValue(value string) profile.Profile {
	if value == "" {
		return profile.Unset
	}
	switch value[0] {
	case 'l', 'c', 'q': // low-power, cool, quiet
		return profile.PowerSaver
	case 'b':
		return profile.Balanced
	case 'p':
		return profile.Performance
	}
	return profile.Unset
}

func (d *PlatformProfile) Probe() profile.ProbeResult {
	if !d.fs.Exists(acpiPlatformProfile) {
		d.log.Debug().Msg("no platform_profile sysfs file, deferring")
		mon, err := d.fs.MonitorAttr(acpiPlatformProfile, d.EmitProbeRequest)
		if err != nil {
			d.log.Debug().Err(err).Msg("could not watch for platform_profile to appear")
			return profile.ProbeFail
		}
		d.deferMon = mon
		return profile.ProbeDefer
	}

	if !d.verifyChoices() {
		d.log.Debug().Msg("no supported platform_profile choices")
		return profile.ProbeFail
	}

	mon, err := d.fs.MonitorAttr(acpiPlatformProfile, d.profileChanged)
	if err != nil {
		d.log.Debug().Err(err).Msg("could not monitor platform_profile")
		return profile.ProbeFail
	}
	d.profileMon = mon

	// Lenovo-specific proximity sensor.
	if d.fs.Exists(dytcLapmodePath) {
		if mon, err := d.fs.MonitorAttr(dytcLapmodePath, d.updateLapmode); err == nil {
			d.lapmodeMon = mon
		}
		d.updateLapmode()
	}

	if value, err := d.fs.ReadString(acpiPlatformProfile); err == nil {
		d.mu.Lock()
		d.current = profileFromAcpiValue(value)
		d.mu.Unlock()
	}
	return profile.ProbeSuccess
}

func (d *PlatformProfile) verifyChoices() bool {
	choicesStr, err := d.fs.ReadString(acpiPlatformProfileChoices)
	if err != nil {
		return false
	}
	choices := strings.Fields(choicesStr)
	has := func(want string) bool {
		for _, c := range choices {
			if c == want {
				return true
			}
		}
		return false
	}
	return has("low-power") && has("balanced") && has("performance")
}

// profileChanged follows firmware-initiated switches, ignoring the echoes
// of the daemon's own writes. Runs on the monitor goroutine.
func (d *PlatformProfile) profileChanged() {
	value, err := d.fs.ReadString(acpiPlatformProfile)
	if err != nil {
		return
	}
	newProfile := profileFromAcpiValue(value)

	d.mu.Lock()
	if d.writing || newProfile == profile.Unset || newProfile == d.current {
		d.mu.Unlock()
		return
	}
	d.current = newProfile
	d.mu.Unlock()

	d.log.Debug().Str("profile", newProfile.String()).Msg("ACPI platform profile changed externally")
	d.EmitProfileChanged(newProfile)
}

func (d *PlatformProfile) updateLapmode() {
	value, err := d.fs.ReadString(dytcLapmodePath)
	if err != nil {
		return
	}
	lapmode := value == "1"

	d.mu.Lock()
	changed := lapmode != d.lapmode
	d.lapmode = lapmode
	d.mu.Unlock()
	if !changed {
		return
	}

	d.log.Debug().Bool("lapmode", lapmode).Msg("dytc_lapmode changed")
	if lapmode {
		d.SetDegraded(degradedLapDetected)
	} else {
		d.SetDegraded("")
	}
}

func (d *PlatformProfile) Activate(p profile.Profile, reason profile.ActivationReason) error {
	d.mu.Lock()
	if d.current == p {
		d.mu.Unlock()
		return nil
	}
	if p == profile.Performance && d.lapmode {
		d.mu.Unlock()
		return fmt.Errorf("performance: %w", driver.ErrInhibited)
	}
	d.writing = true
	d.mu.Unlock()

	err := d.fs.WriteString(acpiPlatformProfile, acpiValueFor(p))

	d.mu.Lock()
	d.writing = false
	if err == nil {
		d.current = p
	}
	d.mu.Unlock()
	return err
}

func (d *PlatformProfile) Stop() {
	d.profileMon.Close()
	d.lapmodeMon.Close()
	d.deferMon.Close()
	d.profileMon, d.lapmodeMon, d.deferMon = nil, nil, nil
}
