// Package actions contains the side-effect plugins that ride along with a
// profile transition without defining it.
package actions

import (
	"path"

	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

const powerSupplyDir = "/sys/class/power_supply"

// TrickleCharge throttles the charge rate of device batteries (styluses,
// wireless peripherals) while on power-saver.
type TrickleCharge struct {
	fs  sysfs.FS
	log zerolog.Logger
}

func NewTrickleCharge(fs sysfs.FS) *TrickleCharge {
	return &TrickleCharge{
		fs:  fs,
		log: logging.GetLogger("trickle_charge"),
	}
}

func (a *TrickleCharge) Name() string { return "trickle_charge" }

// Probe always succeeds; matching power supplies can appear at any time.
func (a *TrickleCharge) Probe() bool { return true }

func (a *TrickleCharge) Activate(p profile.Profile) error {
	chargeType := "Fast"
	if p == profile.PowerSaver {
		chargeType = "Trickle"
	}

	names, err := a.fs.ReadDir(powerSupplyDir)
	if err != nil {
		return nil
	}
	for _, name := range names {
		base := path.Join(powerSupplyDir, name)
		if scope, err := a.fs.ReadString(path.Join(base, "scope")); err != nil || scope != "Device" {
			continue
		}
		attr := path.Join(base, "charge_type")
		current, err := a.fs.ReadString(attr)
		if err != nil || current == chargeType {
			continue
		}
		if err := a.fs.WriteString(attr, chargeType); err != nil {
			return err
		}
		a.log.Debug().Str("device", name).Str("charge_type", chargeType).Msg("set charge type")
		break
	}
	return nil
}
