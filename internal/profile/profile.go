// Package profile defines the power profiles the daemon arbitrates and the
// enumerations shared between the core and the hardware plugins.
package profile

// Profile is a bitmask so a driver can advertise the set of profiles it
// supports. Daemon state always holds a single flag.
type Profile uint32

const (
	Unset       Profile = 0
	PowerSaver  Profile = 1 << 0
	Balanced    Profile = 1 << 1
	Performance Profile = 1 << 2

	All = PowerSaver | Balanced | Performance
)

func (p Profile) String() string {
	switch p {
	case PowerSaver:
		return "power-saver"
	case Balanced:
		return "balanced"
	case Performance:
		return "performance"
	}
	return ""
}

// FromString parses a user-visible profile name, returning Unset for
// anything unknown.
func FromString(s string) Profile {
	switch s {
	case "power-saver":
		return PowerSaver
	case "balanced":
		return Balanced
	case "performance":
		return Performance
	}
	return Unset
}

// HasSingleFlag reports whether p names exactly one profile.
func (p Profile) HasSingleFlag() bool {
	return p != Unset && p&(p-1) == 0
}

// Each calls fn for every profile flag, lowest first.
func Each(fn func(Profile)) {
	for _, p := range []Profile{PowerSaver, Balanced, Performance} {
		fn(p)
	}
}

// ActivationReason states why a profile transition is happening. Drivers may
// interpret it (an Internal activation can be an echo of the driver's own
// state) and the engine uses it to decide whether the transition is
// persisted.
type ActivationReason int

const (
	ReasonInternal ActivationReason = iota
	ReasonReset
	ReasonUser
	ReasonProgramHold
)

func (r ActivationReason) String() string {
	switch r {
	case ReasonInternal:
		return "internal"
	case ReasonReset:
		return "reset"
	case ReasonUser:
		return "user"
	case ReasonProgramHold:
		return "program-hold"
	}
	return "unknown"
}

// ProbeResult is the outcome of a plugin's one-time usability check.
type ProbeResult int

const (
	ProbeFail ProbeResult = iota
	ProbeSuccess
	// ProbeDefer means the plugin cannot run yet but may become usable
	// later, at which point it fires a probe request.
	ProbeDefer
)

func (r ProbeResult) String() string {
	switch r {
	case ProbeFail:
		return "fail"
	case ProbeSuccess:
		return "success"
	case ProbeDefer:
		return "defer"
	}
	return "unknown"
}
