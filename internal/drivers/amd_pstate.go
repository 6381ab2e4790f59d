package drivers

import (
	"errors"
	"path"

	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/driver"
	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

const (
	cpufreqPolicyDir = "/sys/devices/system/cpu/cpufreq"
	amdPstateStatus  = "/sys/devices/system/cpu/amd_pstate/status"
	acpiPmProfile    = "/sys/firmware/acpi/pm_profile"
)

// ACPI preferred PM profiles that identify servers, where EPP-based
// switching is not wanted.
var serverPmProfiles = map[string]bool{
	"0": true, // unspecified
	"4": true, // enterprise server
	"5": true, // SOHO server
	"7": true, // performance server
}

// AmdPstate drives the AMD P-State energy performance preference of every
// cpufreq policy.
type AmdPstate struct {
	driver.Base

	fs  sysfs.FS
	log zerolog.Logger

	policies  []string
	activated profile.Profile
}

func NewAmdPstate(fs sysfs.FS, emit driver.Emitter) *AmdPstate {
	return &AmdPstate{
		Base: driver.Base{
			DriverName:     "amd_pstate",
			DriverKind:     driver.Cpu,
			DriverProfiles: profile.All,
			Emit:           emit,
		},
		fs:  fs,
		log: logging.GetLogger("amd_pstate"),
	}
}

func (d *AmdPstate) Probe() profile.ProbeResult {
	status, err := d.fs.ReadString(amdPstateStatus)
	if err != nil {
		return profile.ProbeFail
	}
	if status != "active" {
		d.log.Debug().Str("status", status).Msg("AMD P-State is not running in active mode")
		return profile.ProbeFail
	}

	// Only run on things that we know aren't servers.
	pmProfile, err := d.fs.ReadString(acpiPmProfile)
	if err != nil {
		return profile.ProbeFail
	}
	if serverPmProfiles[pmProfile] {
		d.log.Debug().Str("pm_profile", pmProfile).Msg("AMD P-State not supported on this PM profile")
		return profile.ProbeFail
	}

	d.policies = eppPolicies(d.fs)
	if len(d.policies) == 0 {
		d.log.Debug().Msg("didn't find p-state settings")
		return profile.ProbeFail
	}

	d.log.Debug().Int("policies", len(d.policies)).Msg("found p-state settings")
	return profile.ProbeSuccess
}

// eppPolicies lists the cpufreq policy directories exposing an energy
// performance preference.
func eppPolicies(fs sysfs.FS) []string {
	names, err := fs.ReadDir(cpufreqPolicyDir)
	if err != nil {
		return nil
	}
	var policies []string
	for _, name := range names {
		base := path.Join(cpufreqPolicyDir, name)
		if fs.Exists(path.Join(base, "energy_performance_preference")) {
			policies = append(policies, base)
		}
	}
	return policies
}

func governorFor(p profile.Profile) string {
	if p == profile.Performance {
		return "performance"
	}
	return "powersave"
}

func eppFor(p profile.Profile) string {
	switch p {
	case profile.PowerSaver:
		return "power"
	case profile.Performance:
		return "performance"
	default:
		return "balance_performance"
	}
}

func applyEppToPolicies(fs sysfs.FS, policies []string, p profile.Profile) error {
	for _, base := range policies {
		if err := fs.WriteString(path.Join(base, "scaling_governor"), governorFor(p)); err != nil {
			return err
		}
		if err := fs.WriteString(path.Join(base, "energy_performance_preference"), eppFor(p)); err != nil {
			return err
		}
	}
	return nil
}

func (d *AmdPstate) Activate(p profile.Profile, reason profile.ActivationReason) error {
	if len(d.policies) == 0 {
		return errors.New("amd_pstate: no probed policies")
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

func (d *AmdPstate) Stop() {}
