package daemon

import (
	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
)

// Polkit action IDs gating the mutating surface.
const (
	ActionSwitchProfile = "org.freedesktop.UPower.PowerProfiles.switch-profile"
	ActionHoldProfile   = "org.freedesktop.UPower.PowerProfiles.hold-profile"
)

// Authorizer is the yes/no oracle consulted before ActiveProfile writes and
// HoldProfile calls.
type Authorizer interface {
	CheckAuthorized(sender, actionID string) bool
}

// polkitAuthorizer asks the polkit authority over the bus, treating any
// failure to get an answer as a denial.
type polkitAuthorizer struct {
	authority dbus.BusObject
	log       zerolog.Logger
}

// NewPolkitAuthorizer returns an Authorizer backed by the system polkit
// authority.
func NewPolkitAuthorizer(conn *dbus.Conn) Authorizer {
	return &polkitAuthorizer{
		authority: conn.Object("org.freedesktop.PolicyKit1",
			"/org/freedesktop/PolicyKit1/Authority"),
		log: logging.GetLogger("polkit"),
	}
}

type polkitSubject struct {
	Kind    string
	Details map[string]dbus.Variant
}

type polkitResult struct {
	IsAuthorized bool
	IsChallenge  bool
	Details      map[string]string
}

func (a *polkitAuthorizer) CheckAuthorized(sender, actionID string) bool {
	subject := polkitSubject{
		Kind: "system-bus-name",
		Details: map[string]dbus.Variant{
			"name": dbus.MakeVariant(sender),
		},
	}

	var result polkitResult
	err := a.authority.Call(
		"org.freedesktop.PolicyKit1.Authority.CheckAuthorization", 0,
		subject, actionID, map[string]string{}, uint32(0), "",
	).Store(&result)
	if err != nil {
		a.log.Warn().Err(err).Str("action", actionID).Msg("authorization check failed")
		return false
	}
	return result.IsAuthorized
}
