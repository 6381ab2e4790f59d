package actions

import (
	"path"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
	"github.com/Rongronggg9/power-profiles-daemon/internal/profile"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

const drmClassDir = "/sys/class/drm"

// AmdgpuPanelPower adjusts the panel power-savings level of amdgpu eDP
// panels: aggressive on power-saver, off otherwise.
type AmdgpuPanelPower struct {
	fs  sysfs.FS
	log zerolog.Logger

	panels []string
}

func NewAmdgpuPanelPower(fs sysfs.FS) *AmdgpuPanelPower {
	return &AmdgpuPanelPower{
		fs:  fs,
		log: logging.GetLogger("amdgpu_panel_power"),
	}
}

func (a *AmdgpuPanelPower) Name() string { return "amdgpu_panel_power" }

// Probe looks for internal panels exposing the power-savings knob.
func (a *AmdgpuPanelPower) Probe() bool {
	names, err := a.fs.ReadDir(drmClassDir)
	if err != nil {
		return false
	}
	for _, name := range names {
		if !strings.Contains(name, "-eDP-") {
			continue
		}
		attr := path.Join(drmClassDir, name, "amdgpu", "panel_power_savings")
		if a.fs.Exists(attr) {
			a.panels = append(a.panels, attr)
		}
	}
	return len(a.panels) > 0
}

func (a *AmdgpuPanelPower) Activate(p profile.Profile) error {
	level := "0"
	if p == profile.PowerSaver {
		level = "3"
	}
	for _, attr := range a.panels {
		if err := a.fs.WriteString(attr, level); err != nil {
			return err
		}
		a.log.Debug().Str("panel", attr).Str("level", level).Msg("set panel power savings")
	}
	return nil
}
