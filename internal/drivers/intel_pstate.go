package drivers

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

const (
	intelPstateStatus = "/sys/devices/system/cpu/intel_pstate/status"
	intelNoTurboPath  = "/sys/devices/system/cpu/intel_pstate/no_turbo"

	degradedNoTurbo = "high-operating-temperature"
)

// IntelPstate drives the Intel P-State energy performance preference.
// While Performance is active, a kernel-imposed turbo disable is surfaced
// as a degraded condition.
type IntelPstate struct {
	driver.Base

	fs  sysfs.FS
	log zerolog.Logger

	policies   []string
	activated  profile.Profile
	noTurboMon *sysfs.Monitor
}

func NewIntelPstate(fs sysfs.FS, emit driver.Emitter) *IntelPstate {
	return &IntelPstate{
		Base: driver.Base{
			DriverName:     "intel_pstate",
			DriverKind:     driver.Cpu,
			DriverProfiles: profile.All,
			Emit:           emit,
		},
		fs:  fs,
		log: logging.GetLogger("intel_pstate"),
	}
}

func (d *IntelPstate) Probe() profile.ProbeResult {
	status, err := d.fs.ReadString(intelPstateStatus)
	if err != nil {
		return profile.ProbeFail
	}
	if status != "active" {
		d.log.Debug().Str("status", status).Msg("Intel P-State is not running in active mode")
		return profile.ProbeFail
	}

	d.policies = eppPolicies(d.fs)
	if len(d.policies) == 0 {
		d.log.Debug().Msg("didn't find p-state settings")
		return profile.ProbeFail
	}

	if d.fs.Exists(intelNoTurboPath) {
		mon, err := d.fs.MonitorAttr(intelNoTurboPath, d.updateNoTurbo)
		if err != nil {
			d.log.Debug().Err(err).Msg("not monitoring no_turbo")
		} else {
			d.noTurboMon = mon
		}
		d.updateNoTurbo()
	}

	d.log.Debug().Int("policies", len(d.policies)).Msg("found p-state settings")
	return profile.ProbeSuccess
}

// updateNoTurbo maps the kernel's turbo disable, usually thermally driven,
// to the degraded reason. May run on the monitor goroutine.
func (d *IntelPstate) updateNoTurbo() {
	value, err := d.fs.ReadString(intelNoTurboPath)
	if err != nil {
		return
	}
	if value == "1" {
		d.SetDegraded(degradedNoTurbo)
	} else {
		d.SetDegraded("")
	}
}

func (d *IntelPstate) Activate(p profile.Profile, reason profile.ActivationReason) error {
	if len(d.policies) == 0 {
		return errors.New("intel_pstate: no probed policies")
	}
	if err := applyEppToPolicies(d.fs, d.policies, p); err != nil {
		if d.activated != profile.Unset {
			if rerr := applyEppToPolicies(d.fs, d.policies, d.activated); rerr != nil {
				d.log.Warn().Err(rerr).Msg("failed to restore previous profile")
			}
		}
		return err
	}
	d.activated = p
	return nil
}

func (d *IntelPstate) Stop() {
	d.noTurboMon.Close()
	d.noTurboMon = nil
}
