//go:build !fakersmi
// +build !fakersmi

package main

import (
	"errors"

	"github.com/hsyrjaos/gorsmi/pkg/rsmi"
)

// criticalEventMask selects the notifications that mark a device
// unhealthy. Thermal throttling is noisy and recoverable, so it is left
// out.
var criticalEventMask = rsmi.EventMask(
	rsmi.EventVMFault,
	rsmi.EventGPUPreReset,
	rsmi.EventGPUPostReset,
)

// realSMI backs the plugin with the ROCm SMI shared library.
type realSMI struct {
	libraryPath string
}

// getSMI returns the real backend when the `fakersmi` build tag is not
// set.
func getSMI(o Options) SMI {
	path := o.LibraryPath
	if path == "" {
		path = rsmi.DefaultLibraryPath
	}
	return &realSMI{libraryPath: path}
}

// realDevice adapts rsmi.Device to the plugin's Device interface.
type realDevice struct {
	rsmi.Device
}

// NumaNode translates "not supported" into no affinity, matching how the
// scheduler treats missing topology.
func (d realDevice) NumaNode() (*uint, error) {
	node, err := d.Device.NumaNode()
	if err != nil {
		if errors.Is(err, rsmi.ErrNotSupported) {
			return nil, nil
		}
		return nil, err
	}
	return &node, nil
}

func (r *realSMI) Initialize() error {
	return rsmi.InitWithPath(r.libraryPath, rsmi.InitFlagAllGPUs)
}

func (r *realSMI) Shutdown() error {
	return rsmi.Shutdown()
}

func (r *realSMI) DeviceTypeName() (string, error) {
	return rsmi.DeviceByIndex(0).Name()
}

func (r *realSMI) DeviceCount() (uint, error) {
	return rsmi.NumMonitorDevices()
}

func (r *realSMI) DeviceHandleByIndex(index uint) (Device, error) {
	count, err := rsmi.NumMonitorDevices()
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, rsmi.ErrNotFound
	}
	return realDevice{rsmi.DeviceByIndex(index)}, nil
}

func (r *realSMI) DeviceHandleBySerial(serial string) (Device, error) {
	d, err := rsmi.DeviceHandleBySerial(serial)
	if err != nil {
		return nil, err
	}
	return realDevice{d}, nil
}

func (r *realSMI) WatchCriticalEvents(devs []Device) error {
	for _, d := range devs {
		dev := rsmi.DeviceByIndex(d.Index())
		if err := dev.EventNotificationInit(); err != nil {
			return err
		}
		if err := dev.EventNotificationMaskSet(criticalEventMask); err != nil {
			return err
		}
	}
	return nil
}

func (r *realSMI) NextEvents(timeoutMS int) ([]FaultEvent, error) {
	events, err := rsmi.EventNotificationGet(timeoutMS, 64)
	if err != nil {
		// A quiet interval is not a failure.
		if errors.Is(err, rsmi.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]FaultEvent, 0, len(events))
	for _, e := range events {
		out = append(out, FaultEvent{
			DeviceIndex: e.DeviceIndex,
			Type:        uint32(e.Type),
			Message:     e.Message,
		})
	}
	return out, nil
}

func (r *realSMI) StopCriticalEvents(devs []Device) {
	for _, d := range devs {
		rsmi.DeviceByIndex(d.Index()).EventNotificationStop()
	}
}
