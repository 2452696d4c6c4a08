package main

// Options select and configure the SMI backend.
type Options struct {
	// LibraryPath overrides the soname the real backend loads.
	LibraryPath string
	// FakeConfigPath points at the yaml config of the fake backend.
	FakeConfigPath string
}

// Device is one managed GPU as the plugin sees it, real or fake.
type Device interface {
	Index() uint
	SerialNumber() (string, error)
	UUID() (string, error)
	PCIID() (uint64, error)
	PCIBusID() (string, error)
	DRMRenderMinor() (uint, error)
	// NumaNode reports the node the device is attached to, nil when the
	// platform has no affinity information.
	NumaNode() (*uint, error)
}

// FaultEvent is one hardware fault notification.
type FaultEvent struct {
	DeviceIndex uint32
	Type        uint32
	Message     string
}

// SMI defines the management-library surface the plugin consumes. getSMI
// returns the real or fake implementation depending on the `fakersmi`
// build tag.
type SMI interface {
	Initialize() error
	Shutdown() error
	DeviceTypeName() (string, error)
	DeviceCount() (uint, error)
	DeviceHandleByIndex(index uint) (Device, error)
	DeviceHandleBySerial(serial string) (Device, error)
	// WatchCriticalEvents arms fault notifications on the given devices.
	WatchCriticalEvents(devs []Device) error
	// NextEvents blocks up to timeoutMS for fault notifications. A quiet
	// timeout returns an empty slice and no error.
	NextEvents(timeoutMS int) ([]FaultEvent, error)
	StopCriticalEvents(devs []Device)
}

// wrapSMI decorates the selected backend; the verbose build tag replaces
// it with a logging decorator.
var wrapSMI = func(s SMI) SMI { return s }
