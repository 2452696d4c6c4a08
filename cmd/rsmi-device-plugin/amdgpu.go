package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	pluginapi "k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"
)

// ResourceManager interface
type ResourceManager interface {
	Devices() ([]*pluginapi.Device, error)
}

// DeviceManager discovers AMD GPUs through the SMI backend.
type DeviceManager struct {
	log     *slog.Logger
	smi     SMI
	devType string
}

// NewDeviceManager Init Manager
func NewDeviceManager(log *slog.Logger, smi SMI, devType string) *DeviceManager {
	return &DeviceManager{log: log, smi: smi, devType: devType}
}

// Devices lists every monitored GPU as a kubelet plugin device. The serial
// number is the device id the kubelet sees.
func (dm *DeviceManager) Devices() ([]*pluginapi.Device, error) {
	numOfDevices, err := dm.smi.DeviceCount()
	if err != nil {
		return nil, err
	}

	var devs []*pluginapi.Device

	dm.log.Info("Discovering devices...")
	for i := uint(0); i < numOfDevices; i++ {
		newDevice, err := dm.smi.DeviceHandleByIndex(i)
		if err != nil {
			return nil, err
		}

		pciID, err := newDevice.PCIID()
		if err != nil {
			return nil, err
		}

		serial, err := newDevice.SerialNumber()
		if err != nil {
			return nil, err
		}

		uuid, err := newDevice.UUID()
		if err != nil {
			return nil, err
		}

		pciBusID, _ := newDevice.PCIBusID()
		dID := fmt.Sprintf("%x", pciID)
		dm.log.Info(
			"Device found",
			"device", strings.ToUpper(dm.devType),
			"serial", serial,
			"uuid", uuid,
			"id", dID,
			"pci_bus_id", pciBusID,
		)

		dev := pluginapi.Device{
			ID:     serial,
			Health: pluginapi.Healthy,
		}

		cpuAffinity, err := newDevice.NumaNode()
		if err != nil {
			return nil, err
		}

		if cpuAffinity != nil {
			dm.log.Info("Device cpu affinity", "id", dID, "cpu_affinity", *cpuAffinity)
			dev.Topology = &pluginapi.TopologyInfo{
				Nodes: []*pluginapi.NUMANode{{ID: int64(*cpuAffinity)}},
			}
		}
		devs = append(devs, &dev)
	}

	return devs, nil
}

func getDevice(devs []*pluginapi.Device, id string) *pluginapi.Device {
	for _, d := range devs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// watchFaults arms critical-event notifications on every listed device and
// pushes the matching plugin device onto faults whenever one fires. An
// event that cannot be attributed to a device marks all of them unhealthy.
func watchFaults(ctx context.Context, smi SMI, devs []*pluginapi.Device, faults chan<- *pluginapi.Device) {
	handles := make([]Device, 0, len(devs))
	serialByIndex := make(map[uint32]string, len(devs))
	for _, d := range devs {
		handle, err := smi.DeviceHandleBySerial(d.ID)
		if err != nil {
			slog.Error("Failed resolving device for fault watching. Marking it unhealthy", "device_id", d.ID, "error", err)
			faults <- d
			continue
		}
		handles = append(handles, handle)
		serialByIndex[uint32(handle.Index())] = d.ID
	}

	if err := smi.WatchCriticalEvents(handles); err != nil {
		slog.Error("Failed arming critical events. All devices will go unhealthy", "error", err)
		for _, d := range devs {
			faults <- d
		}
		return
	}
	defer smi.StopCriticalEvents(handles)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		events, err := smi.NextEvents(1000)
		if err != nil {
			slog.Error("smi NextEvents failed", "error", err.Error())
			time.Sleep(2 * time.Second)
			continue
		}

		for _, e := range events {
			serial, ok := serialByIndex[e.DeviceIndex]
			if !ok {
				slog.Error("CriticalEvent: All devices will go unhealthy", "event", e.Type, "message", e.Message)
				for _, d := range devs {
					faults <- d
				}
				continue
			}

			if d := getDevice(devs, serial); d != nil {
				slog.Error("CriticalEvent: the device will go unhealthy", "event", e.Type, "device_id", d.ID, "message", e.Message)
				faults <- d
			}
		}
	}
}
