package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/Rongronggg9/power-profiles-daemon/internal/daemon"
)

// connect opens a system bus connection and returns the daemon's object.
func connect() (*dbus.Conn, dbus.BusObject, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot connect to the system bus: %w", err)
	}
	obj := conn.Object(daemon.PrimaryIdentity.BusName, daemon.PrimaryIdentity.Path)
	return conn, obj, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	fmt.Fprintln(os.Stderr, "Hint: is power-profiles-daemon running?")
	os.Exit(1)
}

func getStringProperty(obj dbus.BusObject, name string) (string, error) {
	v, err := obj.GetProperty(daemon.PrimaryIdentity.Interface + "." + name)
	if err != nil {
		return "", err
	}
	s, _ := v.Value().(string)
	return s, nil
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the currently active power profile",
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := connect()
		if err != nil {
			fail(err)
		}
		defer conn.Close()

		active, err := getStringProperty(obj, "ActiveProfile")
		if err != nil {
			fail(err)
		}
		fmt.Println(active)
	},
}

var setCmd = &cobra.Command{
	Use:   "set [profile]",
	Short: "Switch the active power profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := connect()
		if err != nil {
			fail(err)
		}
		defer conn.Close()

		call := obj.Call("org.freedesktop.DBus.Properties.Set", 0,
			daemon.PrimaryIdentity.Interface, "ActiveProfile",
			dbus.MakeVariant(args[0]))
		if call.Err != nil {
			fail(call.Err)
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active profile, available profiles and holds",
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := connect()
		if err != nil {
			fail(err)
		}
		defer conn.Close()

		var props map[string]dbus.Variant
		err = obj.Call("org.freedesktop.DBus.Properties.GetAll", 0,
			daemon.PrimaryIdentity.Interface).Store(&props)
		if err != nil {
			fail(err)
		}

		active, _ := props["ActiveProfile"].Value().(string)
		degraded, _ := props["PerformanceDegraded"].Value().(string)
		profiles, _ := props["Profiles"].Value().([]map[string]dbus.Variant)
		holds, _ := props["ActiveProfileHolds"].Value().([]map[string]dbus.Variant)

		for _, entry := range profiles {
			name, _ := entry["Profile"].Value().(string)
			marker := " "
			if name == active {
				marker = "*"
			}
			fmt.Printf("%s %s:\n", marker, name)
			keys := make([]string, 0, len(entry))
			for k := range entry {
				if k != "Profile" {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("    %s: %v\n", k, entry[k].Value())
			}
		}
		if degraded != "" {
			fmt.Printf("\nPerformance degraded: %s\n", degraded)
		}
		if len(holds) > 0 {
			fmt.Println()
			printHolds(holds)
		}
	},
}

var listHoldsCmd = &cobra.Command{
	Use:   "list-holds",
	Short: "List the current profile holds",
	Run: func(cmd *cobra.Command, args []string) {
		conn, obj, err := connect()
		if err != nil {
			fail(err)
		}
		defer conn.Close()

		v, err := obj.GetProperty(daemon.PrimaryIdentity.Interface + ".ActiveProfileHolds")
		if err != nil {
			fail(err)
		}
		holds, _ := v.Value().([]map[string]dbus.Variant)
		if len(holds) == 0 {
			fmt.Println("No profile holds")
			return
		}
		printHolds(holds)
	},
}

func printHolds(holds []map[string]dbus.Variant) {
	for i, hold := range holds {
		app, _ := hold["ApplicationId"].Value().(string)
		prof, _ := hold["Profile"].Value().(string)
		reason, _ := hold["Reason"].Value().(string)
		fmt.Printf("Hold %d:\n  Profile: %s\n  Application: %s\n  Reason: %s\n", i, prof, app, reason)
	}
}
