package daemon

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
)

// service exposes the core on one bus identity. All bus handlers run on
// godbus goroutines and post into the event loop, so every call observes
// either the pre- or post-transition state of any other call.
type service struct {
	core *Core
	auth Authorizer
	id   Identity
	log  zerolog.Logger
}

// ExportService registers method, property and introspection handlers for
// both identities and claims their bus names. Call before Start so the
// initial property flush reaches early subscribers.
func ExportService(conn *dbus.Conn, core *Core, auth Authorizer, replace bool) error {
	for _, id := range identities {
		s := &service{
			core: core,
			auth: auth,
			id:   id,
			log:  logging.GetLogger("service").With().Str("interface", id.Interface).Logger(),
		}
		if err := conn.Export(s, id.Path, id.Interface); err != nil {
			return err
		}
		if err := conn.Export((*propsService)(s), id.Path, "org.freedesktop.DBus.Properties"); err != nil {
			return err
		}
		node := introspectNode(id)
		if err := conn.Export(introspect.NewIntrospectable(node), id.Path,
			"org.freedesktop.DBus.Introspectable"); err != nil {
			return err
		}
	}

	flags := dbus.NameFlagAllowReplacement
	if replace {
		flags |= dbus.NameFlagReplaceExisting
	}
	for _, id := range identities {
		reply, err := conn.RequestName(id.BusName, flags)
		if err != nil {
			return err
		}
		if reply != dbus.RequestNameReplyPrimaryOwner {
			return &BusError{
				Name:    errNameFailed,
				Message: "name " + id.BusName + " already taken, is the daemon already running?",
			}
		}
	}
	return nil
}

// HoldProfile handles the bus method of the same name.
func (s *service) HoldProfile(sender dbus.Sender, profileName, reason, applicationID string) (uint32, *dbus.Error) {
	if !s.auth.CheckAuthorized(string(sender), ActionHoldProfile) {
		return 0, asDBusError(errNotAuthorized(ActionHoldProfile))
	}

	var cookie uint32
	var err error
	s.core.loop.Do(func() {
		cookie, err = s.core.HoldProfile(profileName, reason, applicationID, string(sender))
	})
	if err != nil {
		return 0, asDBusError(err)
	}
	return cookie, nil
}

// ReleaseProfile handles the bus method of the same name.
func (s *service) ReleaseProfile(cookie uint32) *dbus.Error {
	var err error
	s.core.loop.Do(func() {
		err = s.core.ReleaseProfile(cookie)
	})
	if err != nil {
		return asDBusError(err)
	}
	return nil
}

// propsService implements org.freedesktop.DBus.Properties for one identity.
// Property access is hand-dispatched rather than delegated to godbus's prop
// helper so PropertiesChanged emission stays under the aggregator's
// coalescing control.
type propsService service

func (p *propsService) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	if iface != p.id.Interface {
		return dbus.Variant{}, asDBusError(errUnknownProperty(iface + "." + property))
	}
	var v dbus.Variant
	var err error
	p.core.loop.Do(func() {
		v, err = p.core.propertyVariant(property)
	})
	if err != nil {
		return dbus.Variant{}, asDBusError(err)
	}
	return v, nil
}

func (p *propsService) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != p.id.Interface {
		return nil, asDBusError(errUnknownProperty(iface))
	}
	props := make(map[string]dbus.Variant)
	p.core.loop.Do(func() {
		for _, name := range propertyNames {
			v, err := p.core.propertyVariant(name)
			if err == nil {
				props[name] = v
			}
		}
	})
	return props, nil
}

func (p *propsService) Set(sender dbus.Sender, iface, property string, value dbus.Variant) *dbus.Error {
	if iface != p.id.Interface || property != "ActiveProfile" {
		return asDBusError(errUnknownProperty(iface + "." + property))
	}
	if !p.auth.CheckAuthorized(string(sender), ActionSwitchProfile) {
		return asDBusError(errNotAuthorized(ActionSwitchProfile))
	}
	name, ok := value.Value().(string)
	if !ok {
		return asDBusError(errInvalidProfile(value.String()))
	}

	var err error
	p.core.loop.Do(func() {
		err = p.core.SetActiveProfile(name)
	})
	if err != nil {
		return asDBusError(err)
	}
	return nil
}

var propertyNames = []string{
	"ActiveProfile",
	"PerformanceInhibited",
	"PerformanceDegraded",
	"Profiles",
	"Actions",
	"ActiveProfileHolds",
	"Version",
}

// propertyVariant snapshots one property. Runs on the event loop.
func (c *Core) propertyVariant(name string) (dbus.Variant, error) {
	switch name {
	case "ActiveProfile":
		return dbus.MakeVariant(c.active.String()), nil
	case "PerformanceInhibited":
		return dbus.MakeVariant(""), nil
	case "PerformanceDegraded":
		return dbus.MakeVariant(c.performanceDegraded()), nil
	case "Profiles":
		return dbus.MakeVariant(c.profilesVariant()), nil
	case "Actions":
		return dbus.MakeVariant(c.actionsVariant()), nil
	case "ActiveProfileHolds":
		return dbus.MakeVariant(c.holdsVariant()), nil
	case "Version":
		return dbus.MakeVariant(Version), nil
	}
	return dbus.Variant{}, errUnknownProperty(name)
}

func asDBusError(err error) *dbus.Error {
	if be, ok := err.(*BusError); ok {
		return dbus.NewError(be.Name, []interface{}{be.Message})
	}
	return dbus.MakeFailedError(err)
}

func introspectNode(id Identity) *introspect.Node {
	return &introspect.Node{
		Name: string(id.Path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: "org.freedesktop.DBus.Properties",
				Methods: []introspect.Method{
					{Name: "Get", Args: []introspect.Arg{
						{Name: "interface_name", Type: "s", Direction: "in"},
						{Name: "property_name", Type: "s", Direction: "in"},
						{Name: "value", Type: "v", Direction: "out"},
					}},
					{Name: "GetAll", Args: []introspect.Arg{
						{Name: "interface_name", Type: "s", Direction: "in"},
						{Name: "properties", Type: "a{sv}", Direction: "out"},
					}},
					{Name: "Set", Args: []introspect.Arg{
						{Name: "interface_name", Type: "s", Direction: "in"},
						{Name: "property_name", Type: "s", Direction: "in"},
						{Name: "value", Type: "v", Direction: "in"},
					}},
				},
				Signals: []introspect.Signal{
					{Name: "PropertiesChanged", Args: []introspect.Arg{
						{Name: "interface_name", Type: "s"},
						{Name: "changed_properties", Type: "a{sv}"},
						{Name: "invalidated_properties", Type: "as"},
					}},
				},
			},
			{
				Name: id.Interface,
				Methods: []introspect.Method{
					{Name: "HoldProfile", Args: []introspect.Arg{
						{Name: "profile", Type: "s", Direction: "in"},
						{Name: "reason", Type: "s", Direction: "in"},
						{Name: "application_id", Type: "s", Direction: "in"},
						{Name: "cookie", Type: "u", Direction: "out"},
					}},
					{Name: "ReleaseProfile", Args: []introspect.Arg{
						{Name: "cookie", Type: "u", Direction: "in"},
					}},
				},
				Signals: []introspect.Signal{
					{Name: "ProfileReleased", Args: []introspect.Arg{
						{Name: "cookie", Type: "u"},
					}},
				},
				Properties: []introspect.Property{
					{Name: "ActiveProfile", Type: "s", Access: "readwrite"},
					{Name: "PerformanceInhibited", Type: "s", Access: "read"},
					{Name: "PerformanceDegraded", Type: "s", Access: "read"},
					{Name: "Profiles", Type: "aa{sv}", Access: "read"},
					{Name: "Actions", Type: "as", Access: "read"},
					{Name: "ActiveProfileHolds", Type: "aa{sv}", Access: "read"},
					{Name: "Version", Type: "s", Access: "read"},
				},
			},
		},
	}
}
