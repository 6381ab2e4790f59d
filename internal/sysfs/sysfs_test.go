package sysfs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rongronggg9/power-profiles-daemon/internal/sysfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathWithRoot(t *testing.T) {
	fs := sysfs.FS{Root: "/tmp/fake"}
	assert.Equal(t, "/tmp/fake/sys/firmware/acpi/pm_profile", fs.Path("/sys/firmware/acpi/pm_profile"))

	real := sysfs.FS{}
	assert.Equal(t, "/sys/firmware/acpi/pm_profile", real.Path("/sys/firmware/acpi/pm_profile"))
}

func TestReadWriteString(t *testing.T) {
	fs := sysfs.FS{Root: t.TempDir()}
	dir := fs.Path("/sys/devices/system/cpu")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	attr := "/sys/devices/system/cpu/attr"
	require.NoError(t, fs.WriteString(attr, "active"))

	got, err := fs.ReadString(attr)
	require.NoError(t, err)
	assert.Equal(t, "active", got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "attr"), []byte("active\n"), 0o644))
	got, err = fs.ReadString(attr)
	require.NoError(t, err)
	assert.Equal(t, "active", got, "trailing newline is trimmed")

	assert.True(t, fs.Exists(attr))
	assert.False(t, fs.Exists("/sys/devices/system/cpu/missing"))
}

func TestMonitorAttr(t *testing.T) {
	fs := sysfs.FS{Root: t.TempDir()}
	dir := fs.Path("/sys/firmware/acpi")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	attr := "/sys/firmware/acpi/platform_profile"
	require.NoError(t, fs.WriteString(attr, "balanced"))

	changed := make(chan struct{}, 4)
	mon, err := fs.MonitorAttr(attr, func() { changed <- struct{}{} })
	require.NoError(t, err)
	defer mon.Close()

	require.NoError(t, fs.WriteString(attr, "performance"))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("no change event for attribute write")
	}
}
