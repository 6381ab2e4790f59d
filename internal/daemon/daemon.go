package daemon

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"

	"github.com/Rongronggg9/power-profiles-daemon/internal/config"
	"github.com/Rongronggg9/power-profiles-daemon/internal/logging"
	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
)

// Options configures a daemon run.
type Options struct {
	// StatePath is the persisted state file.
	StatePath string
	// SysfsRoot relocates all sysfs access, for development and tests.
	SysfsRoot string
	// Replace takes over the bus names from a running instance.
	Replace bool
}

// Run connects to the system bus, probes the drivers and serves until
// SIGINT/SIGTERM. The returned error is fatal; the process should exit
// non-zero.
func Run(opts Options) error {
	log := logging.GetLogger("daemon")
	log.Debug().Str("version", Version).Msg("starting power-profiles-daemon")

	conn, err := dbus.ConnectSystemBus(dbus.WithSignalHandler(dbus.NewSequentialSignalHandler()))
	if err != nil {
		return fmt.Errorf("could not connect to the system bus: %w", err)
	}
	defer conn.Close()

	fatal := make(chan error, 1)
	core := NewCore(CoreConfig{
		Store:   config.New(opts.StatePath),
		Bus:     NewBus(conn),
		FS:      sysfs.FS{Root: opts.SysfsRoot},
		Plugins: DefaultPlugins(),
		OnFatal: func(err error) {
			select {
			case fatal <- err:
			default:
			}
		},
	})

	if err := ExportService(conn, core, NewPolkitAuthorizer(conn), opts.Replace); err != nil {
		return err
	}

	go core.loop.run()
	defer core.loop.Stop()

	var startErr error
	core.loop.Do(func() { startErr = core.Start() })
	if startErr != nil {
		return startErr
	}
	log.Info().Str("profile", core.ActiveProfile()).Msg("daemon started")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-fatal:
		core.loop.Do(core.StopDrivers)
		return err
	}

	core.loop.Do(core.StopDrivers)
	return nil
}

// ActiveProfile snapshots the applied profile name; safe from any
// goroutine.
func (c *Core) ActiveProfile() string {
	var name string
	c.loop.Do(func() { name = c.active.String() })
	return name
}
