//go:build fakersmi
// +build fakersmi

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v2"
)

// fakeConfig shapes the simulated fleet. Path may point at a fake sysfs
// tree (as laid out by the test fixtures); when it is empty the configured
// DeviceType is reported directly.
type fakeConfig struct {
	Path        string `yaml:"Path"`
	DeviceCount uint   `yaml:"DeviceCount"`
	NumaNodes   uint   `yaml:"NumaNodes"`
	DeviceID    string `yaml:"DeviceID"`
	DeviceType  string `yaml:"DeviceType"`
}

func defaultFakeConfig() fakeConfig {
	return fakeConfig{
		DeviceCount: 8,
		NumaNodes:   2,
		DeviceID:    "740f",
		DeviceType:  "aldebaran",
	}
}

// fakeDevice is a simulated GPU.
type fakeDevice struct {
	index       uint
	serial      string
	uuid        string
	pciID       uint64
	busID       string
	renderMinor uint
	numaNode    *uint
}

func (d *fakeDevice) Index() uint { return d.index }

func (d *fakeDevice) SerialNumber() (string, error) {
	if d.serial == "" {
		return "", errors.New("serial number not available")
	}
	return d.serial, nil
}

func (d *fakeDevice) UUID() (string, error) {
	if d.uuid == "" {
		return "", errors.New("uuid not available")
	}
	return d.uuid, nil
}

func (d *fakeDevice) PCIID() (uint64, error) { return d.pciID, nil }

func (d *fakeDevice) PCIBusID() (string, error) { return d.busID, nil }

func (d *fakeDevice) DRMRenderMinor() (uint, error) { return d.renderMinor, nil }

func (d *fakeDevice) NumaNode() (*uint, error) { return d.numaNode, nil }

// FakeSMI simulates the management library for development and CI hosts
// without AMD hardware.
type FakeSMI struct {
	configPath string
	cfg        fakeConfig
	devices    []*fakeDevice
	faults     chan FaultEvent
}

// getSMI returns the fake backend under the `fakersmi` build tag.
func getSMI(o Options) SMI {
	return &FakeSMI{configPath: o.FakeConfigPath}
}

func (f *FakeSMI) Initialize() error {
	f.cfg = defaultFakeConfig()
	if f.configPath != "" {
		raw, err := os.ReadFile(f.configPath)
		if err != nil {
			return fmt.Errorf("read fake config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &f.cfg); err != nil {
			return fmt.Errorf("parse fake config: %w", err)
		}
	}
	if f.cfg.DeviceCount == 0 {
		return errors.New("fake config declares zero devices")
	}

	f.devices = make([]*fakeDevice, 0, f.cfg.DeviceCount)
	for i := uint(0); i < f.cfg.DeviceCount; i++ {
		bus := uint64(0x03 + i)
		dev := &fakeDevice{
			index:       i,
			serial:      fmt.Sprintf("fake-serial-%04d", i),
			uuid:        "GPU-" + uuid.New().String(),
			pciID:       bus << 8,
			busID:       fmt.Sprintf("0000:%02x:00.0", bus),
			renderMinor: 128 + i,
		}
		if f.cfg.NumaNodes > 0 {
			node := i % f.cfg.NumaNodes
			dev.numaNode = &node
		}
		f.devices = append(f.devices, dev)
	}
	f.faults = make(chan FaultEvent, 16)
	return nil
}

func (f *FakeSMI) Shutdown() error {
	f.devices = nil
	return nil
}

// DeviceTypeName scans the configured sysfs tree for an AMD device and
// maps its id to an ASIC family, falling back to the configured type.
func (f *FakeSMI) DeviceTypeName() (string, error) {
	if f.cfg.Path == "" {
		return f.cfg.DeviceType, nil
	}

	pciBasePath := filepath.Join(f.cfg.Path, "sys", "bus", "pci", "devices")
	var deviceType string
	err := filepath.Walk(pciBasePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing file path %q", path)
		}
		if !info.IsDir() || path == pciBasePath {
			return nil
		}

		vendorID, err := readIDFromFile(pciBasePath, info.Name(), "vendor")
		if err != nil {
			return filepath.SkipDir
		}
		// AMD vendor id is "1002".
		if vendorID != "1002" {
			return filepath.SkipDir
		}

		deviceID, err := readIDFromFile(pciBasePath, info.Name(), "device")
		if err != nil {
			return fmt.Errorf("get device info: %w", err)
		}
		deviceType, err = deviceFamily(deviceID)
		if err != nil {
			return fmt.Errorf("get device family: %w", err)
		}
		return filepath.SkipDir
	})
	if err != nil {
		return "", err
	}
	if deviceType == "" {
		return "", errors.New("no amd devices on the system")
	}
	return deviceType, nil
}

func (f *FakeSMI) DeviceCount() (uint, error) {
	return uint(len(f.devices)), nil
}

func (f *FakeSMI) DeviceHandleByIndex(index uint) (Device, error) {
	if index >= uint(len(f.devices)) {
		return nil, errors.New("could not find device with index")
	}
	return f.devices[index], nil
}

func (f *FakeSMI) DeviceHandleBySerial(serial string) (Device, error) {
	for _, d := range f.devices {
		if d.serial == serial {
			return d, nil
		}
	}
	return nil, errors.New("could not find device with serial number")
}

func (f *FakeSMI) WatchCriticalEvents(devs []Device) error {
	return nil
}

// NextEvents reports faults injected with InjectFault, or nothing after
// the timeout.
func (f *FakeSMI) NextEvents(timeoutMS int) ([]FaultEvent, error) {
	select {
	case ev := <-f.faults:
		return []FaultEvent{ev}, nil
	case <-time.After(time.Duration(timeoutMS) * time.Millisecond):
		return nil, nil
	}
}

func (f *FakeSMI) StopCriticalEvents(devs []Device) {}

// InjectFault queues a fault for the next NextEvents call.
func (f *FakeSMI) InjectFault(ev FaultEvent) {
	f.faults <- ev
}

// deviceFamily maps a PCI device id to its ASIC family name.
func deviceFamily(deviceID string) (string, error) {
	vega10 := []string{"6860", "6861", "6862", "6863", "687f"}
	vega20 := []string{"66a0", "66a1", "66a2", "66a3", "66a7"}
	arcturus := []string{"738c", "738e"}
	aldebaran := []string{"7408", "740c", "740f", "7410"}
	navi21 := []string{"73a3", "73bf"}

	switch {
	case checkFamily(vega10, deviceID):
		return "vega10", nil
	case checkFamily(vega20, deviceID):
		return "vega20", nil
	case checkFamily(arcturus, deviceID):
		return "arcturus", nil
	case checkFamily(aldebaran, deviceID):
		return "aldebaran", nil
	case checkFamily(navi21, deviceID):
		return "navi21", nil
	default:
		return "", fmt.Errorf("unrecognized device id %q", deviceID)
	}
}

func checkFamily(family []string, id string) bool {
	for _, m := range family {
		if strings.HasSuffix(id, m) {
			return true
		}
	}
	return false
}

func readIDFromFile(basePath string, deviceAddress string, property string) (string, error) {
	data, err := os.ReadFile(filepath.Join(basePath, deviceAddress, property))
	if err != nil {
		return "", fmt.Errorf("could not read %s for device %s: %w", property, deviceAddress, err)
	}
	return strings.TrimPrefix(strings.TrimSpace(string(data)), "0x"), nil
}
