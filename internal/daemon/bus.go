package daemon

import (
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
)

const nameOwnerChanged = "org.freedesktop.DBus.NameOwnerChanged"

// dbusBus adapts a system bus connection to the Bus interface the core
// consumes.
type dbusBus struct {
	conn *dbus.Conn
	log  zerolog.Logger

	mu      sync.Mutex
	watches map[string][]*nameWatch
	signals chan *dbus.Signal
}

type nameWatch struct {
	name string
	lost func()
	done bool
}

// NewBus wraps an established bus connection. The connection must use a
// sequential signal handler so watch callbacks keep their ordering.
func NewBus(conn *dbus.Conn) Bus {
	b := &dbusBus{
		conn:    conn,
		log:     logging.GetLogger("bus"),
		watches: make(map[string][]*nameWatch),
		signals: make(chan *dbus.Signal, 64),
	}
	conn.Signal(b.signals)
	go b.dispatch()
	return b
}

func (b *dbusBus) EmitPropertiesChanged(id Identity, props map[string]dbus.Variant) error {
	return b.conn.Emit(id.Path,
		"org.freedesktop.DBus.Properties.PropertiesChanged",
		id.Interface, props, []string{})
}

// EmitProfileReleased sends a unicast signal to the hold's requester.
// Conn.Emit only broadcasts, so the message is built by hand.
func (b *dbusBus) EmitProfileReleased(requester string, id Identity, cookie uint32) error {
	msg := &dbus.Message{
		Type: dbus.TypeSignal,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldPath:        dbus.MakeVariant(id.Path),
			dbus.FieldInterface:   dbus.MakeVariant(id.Interface),
			dbus.FieldMember:      dbus.MakeVariant("ProfileReleased"),
			dbus.FieldDestination: dbus.MakeVariant(requester),
			dbus.FieldSignature:   dbus.MakeVariant(dbus.SignatureOf(cookie)),
		},
		Body: []interface{}{cookie},
	}
	return b.conn.Send(msg, nil).Err
}

func (b *dbusBus) WatchName(name string, lost func()) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.watches[name]) == 0 {
		if err := b.addMatch(name); err != nil {
			return nil, err
		}
	}

	w := &nameWatch{name: name, lost: lost}
	b.watches[name] = append(b.watches[name], w)

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.removeWatchLocked(w)
	}
	return cancel, nil
}

func (b *dbusBus) addMatch(name string) error {
	return b.conn.AddMatchSignal(
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, name),
	)
}

func (b *dbusBus) removeWatchLocked(w *nameWatch) {
	if w.done {
		return
	}
	w.done = true

	list := b.watches[w.name]
	for i, other := range list {
		if other == w {
			b.watches[w.name] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.watches[w.name]) > 0 {
		return
	}
	delete(b.watches, w.name)
	b.removeMatch(w.name)
}

func (b *dbusBus) removeMatch(name string) {
	err := b.conn.RemoveMatchSignal(
		dbus.WithMatchSender("org.freedesktop.DBus"),
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, name),
	)
	if err != nil {
		b.log.Warn().Err(err).Str("name", name).Msg("could not remove name match")
	}
}

// dispatch fires liveness callbacks when a watched peer loses its name.
func (b *dbusBus) dispatch() {
	for sig := range b.signals {
		if sig.Name != nameOwnerChanged || len(sig.Body) != 3 {
			continue
		}
		name, _ := sig.Body[0].(string)
		newOwner, _ := sig.Body[2].(string)
		if newOwner != "" {
			continue
		}

		b.mu.Lock()
		list := b.watches[name]
		var fired []func()
		for _, w := range list {
			w.done = true
			fired = append(fired, w.lost)
		}
		if len(list) > 0 {
			delete(b.watches, name)
			b.removeMatch(name)
		}
		b.mu.Unlock()

		for _, lost := range fired {
			lost()
		}
	}
}
