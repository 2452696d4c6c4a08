//go:build fakersmi
// +build fakersmi

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeSysfs(t *testing.T, root, address, vendor, device string) {
	t.Helper()
	dir := filepath.Join(root, "sys", "bus", "pci", "devices", address)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor"), []byte(vendor+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "device"), []byte(device+"\n"), 0o644))
}

func TestFakeInitializeDefaults(t *testing.T) {
	f := &FakeSMI{}
	require.NoError(t, f.Initialize())
	defer f.Shutdown()

	count, err := f.DeviceCount()
	require.NoError(t, err)
	assert.EqualValues(t, 8, count)

	dev, err := f.DeviceHandleByIndex(3)
	require.NoError(t, err)

	serial, err := dev.SerialNumber()
	require.NoError(t, err)
	assert.Equal(t, "fake-serial-0003", serial)

	uuid, err := dev.UUID()
	require.NoError(t, err)
	assert.Contains(t, uuid, "GPU-")

	minor, err := dev.DRMRenderMinor()
	require.NoError(t, err)
	assert.EqualValues(t, 131, minor)

	node, err := dev.NumaNode()
	require.NoError(t, err)
	require.NotNil(t, node)
	assert.EqualValues(t, 1, *node)

	bySerial, err := f.DeviceHandleBySerial("fake-serial-0003")
	require.NoError(t, err)
	assert.Equal(t, dev, bySerial)
}

func TestFakeInitializeFromConfig(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte("DeviceCount: 2\nNumaNodes: 1\nDeviceType: navi21\n"), 0o644))

	f := &FakeSMI{configPath: config}
	require.NoError(t, f.Initialize())
	defer f.Shutdown()

	count, err := f.DeviceCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	devType, err := f.DeviceTypeName()
	require.NoError(t, err)
	assert.Equal(t, "navi21", devType)

	_, err = f.DeviceHandleByIndex(2)
	assert.Error(t, err)
}

func TestFakeDeviceTypeNameScansSysfs(t *testing.T) {
	root := t.TempDir()
	// An Intel device the scan must skip, then an AMD Aldebaran part.
	writeFakeSysfs(t, root, "0000:00:1f.0", "0x8086", "0x1234")
	writeFakeSysfs(t, root, "0000:03:00.0", "0x1002", "0x740f")

	f := &FakeSMI{}
	require.NoError(t, f.Initialize())
	defer f.Shutdown()
	f.cfg.Path = root

	devType, err := f.DeviceTypeName()
	require.NoError(t, err)
	assert.Equal(t, "aldebaran", devType)
}

func TestFakeDeviceTypeNameNoAMDDevices(t *testing.T) {
	root := t.TempDir()
	writeFakeSysfs(t, root, "0000:00:1f.0", "0x8086", "0x1234")

	f := &FakeSMI{}
	require.NoError(t, f.Initialize())
	defer f.Shutdown()
	f.cfg.Path = root

	_, err := f.DeviceTypeName()
	assert.Error(t, err)
}

func TestFakeFaultInjection(t *testing.T) {
	f := &FakeSMI{}
	require.NoError(t, f.Initialize())
	defer f.Shutdown()

	f.InjectFault(FaultEvent{DeviceIndex: 2, Type: 1, Message: "vm fault"})

	events, err := f.NextEvents(100)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.EqualValues(t, 2, events[0].DeviceIndex)

	events, err = f.NextEvents(10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDeviceFamily(t *testing.T) {
	cases := map[string]string{
		"66a1": "vega20",
		"738c": "arcturus",
		"740f": "aldebaran",
		"73bf": "navi21",
	}
	for id, family := range cases {
		got, err := deviceFamily(id)
		require.NoError(t, err)
		assert.Equal(t, family, got)
	}

	_, err := deviceFamily("ffff")
	assert.Error(t, err)
}
