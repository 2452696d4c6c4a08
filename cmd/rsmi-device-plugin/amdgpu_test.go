package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pluginapi "k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"
)

// ---------------------------------------------------------------------------
// stub backend
// ---------------------------------------------------------------------------

type stubDevice struct {
	index     uint
	serial    string
	uuid      string
	pciID     uint64
	busID     string
	minor     uint
	numa      *uint
	serialErr error
}

func (d *stubDevice) Index() uint { return d.index }

func (d *stubDevice) SerialNumber() (string, error) { return d.serial, d.serialErr }

func (d *stubDevice) UUID() (string, error) { return d.uuid, nil }

func (d *stubDevice) PCIID() (uint64, error) { return d.pciID, nil }

func (d *stubDevice) PCIBusID() (string, error) { return d.busID, nil }

func (d *stubDevice) DRMRenderMinor() (uint, error) { return d.minor, nil }

func (d *stubDevice) NumaNode() (*uint, error) { return d.numa, nil }

type stubSMI struct {
	devices  []*stubDevice
	events   chan FaultEvent
	watchErr error
}

func newStubSMI(devices ...*stubDevice) *stubSMI {
	return &stubSMI{devices: devices, events: make(chan FaultEvent, 8)}
}

func (s *stubSMI) Initialize() error { return nil }

func (s *stubSMI) Shutdown() error { return nil }

func (s *stubSMI) DeviceTypeName() (string, error) { return "aldebaran", nil }

func (s *stubSMI) DeviceCount() (uint, error) { return uint(len(s.devices)), nil }

func (s *stubSMI) DeviceHandleByIndex(index uint) (Device, error) {
	if index >= uint(len(s.devices)) {
		return nil, errors.New("no such device")
	}
	return s.devices[index], nil
}

func (s *stubSMI) DeviceHandleBySerial(serial string) (Device, error) {
	for _, d := range s.devices {
		if d.serial == serial {
			return d, nil
		}
	}
	return nil, errors.New("no such device")
}

func (s *stubSMI) WatchCriticalEvents(devs []Device) error { return s.watchErr }

func (s *stubSMI) NextEvents(timeoutMS int) ([]FaultEvent, error) {
	select {
	case ev := <-s.events:
		return []FaultEvent{ev}, nil
	case <-time.After(time.Duration(timeoutMS) * time.Millisecond):
		return nil, nil
	}
}

func (s *stubSMI) StopCriticalEvents(devs []Device) {}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestDevicesListsEveryGPU(t *testing.T) {
	node := uint(1)
	smi := newStubSMI(
		&stubDevice{index: 0, serial: "serial-0", uuid: "GPU-0", pciID: 0x0300, busID: "0000:03:00.0", numa: &node},
		&stubDevice{index: 1, serial: "serial-1", uuid: "GPU-1", pciID: 0x0400, busID: "0000:04:00.0"},
	)

	devs, err := NewDeviceManager(testLogger(), smi, "aldebaran").Devices()
	require.NoError(t, err)
	require.Len(t, devs, 2)

	assert.Equal(t, "serial-0", devs[0].ID)
	assert.Equal(t, pluginapi.Healthy, devs[0].Health)
	require.NotNil(t, devs[0].Topology)
	require.Len(t, devs[0].Topology.Nodes, 1)
	assert.EqualValues(t, 1, devs[0].Topology.Nodes[0].ID)

	assert.Equal(t, "serial-1", devs[1].ID)
	assert.Nil(t, devs[1].Topology)
}

func TestDevicesPropagatesBackendError(t *testing.T) {
	smi := newStubSMI(
		&stubDevice{index: 0, serialErr: errors.New("gpu is lost")},
	)

	_, err := NewDeviceManager(testLogger(), smi, "aldebaran").Devices()
	assert.EqualError(t, err, "gpu is lost")
}

func TestGetDevice(t *testing.T) {
	devs := []*pluginapi.Device{{ID: "a"}, {ID: "b"}}
	assert.Equal(t, devs[1], getDevice(devs, "b"))
	assert.Nil(t, getDevice(devs, "c"))
}

func TestWatchFaultsMarksMatchingDeviceUnhealthy(t *testing.T) {
	smi := newStubSMI(
		&stubDevice{index: 0, serial: "serial-0"},
		&stubDevice{index: 1, serial: "serial-1"},
	)
	devs := []*pluginapi.Device{
		{ID: "serial-0", Health: pluginapi.Healthy},
		{ID: "serial-1", Health: pluginapi.Healthy},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	faults := make(chan *pluginapi.Device, 4)
	go watchFaults(ctx, smi, devs, faults)

	smi.events <- FaultEvent{DeviceIndex: 1, Type: 3, Message: "gpu pre reset"}

	select {
	case d := <-faults:
		assert.Equal(t, "serial-1", d.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no fault reported")
	}
}

func TestWatchFaultsUnknownDeviceMarksAllUnhealthy(t *testing.T) {
	smi := newStubSMI(
		&stubDevice{index: 0, serial: "serial-0"},
		&stubDevice{index: 1, serial: "serial-1"},
	)
	devs := []*pluginapi.Device{
		{ID: "serial-0", Health: pluginapi.Healthy},
		{ID: "serial-1", Health: pluginapi.Healthy},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	faults := make(chan *pluginapi.Device, 4)
	go watchFaults(ctx, smi, devs, faults)

	smi.events <- FaultEvent{DeviceIndex: 42, Type: 1, Message: "vm fault"}

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case d := <-faults:
			got[d.ID] = true
		case <-time.After(5 * time.Second):
			t.Fatal("expected every device to be reported")
		}
	}
	assert.True(t, got["serial-0"])
	assert.True(t, got["serial-1"])
}

func TestWatchFaultsArmFailureMarksAllUnhealthy(t *testing.T) {
	smi := newStubSMI(&stubDevice{index: 0, serial: "serial-0"})
	smi.watchErr = errors.New("not supported")
	devs := []*pluginapi.Device{{ID: "serial-0", Health: pluginapi.Healthy}}

	faults := make(chan *pluginapi.Device, 1)
	watchFaults(context.Background(), smi, devs, faults)

	select {
	case d := <-faults:
		assert.Equal(t, "serial-0", d.ID)
	default:
		t.Fatal("expected the device to be reported")
	}
}
