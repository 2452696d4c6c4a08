// Package rsmi exposes the ROCm System Management Interface library
// (librocm_smi64.so) to Go. All cgo lives in this package; the shared
// library is opened at runtime with dlopen rather than linked statically,
// so a missing or version-skewed library surfaces as an error instead of a
// link failure.
//
// Init and Shutdown must be serialized by the caller against each other and
// against in-flight calls. Between the two, the resolved surface is
// read-only and safe to use from any goroutine; whatever per-device
// serialization the underlying library requires is inherited unchanged.
//
// Calls forward their arguments to the library as-is. There is no bounds
// checking, no pointer-lifetime tracking and no interpretation of values
// beyond mapping rsmi_status_t to a Go error.
package rsmi

// #cgo LDFLAGS: -ldl -Wl,--unresolved-symbols=ignore-in-object-files
// #include "rsmi.h"
import "C"

import (
	"github.com/hsyrjaos/gorsmi/pkg/dl"
)

// DefaultLibraryPath is the soname the platform loader resolves when no
// explicit path is given.
const DefaultLibraryPath = "librocm_smi64.so"

// requiredSymbols lists every symbol the binding surface calls. Init
// verifies all of them eagerly so that version skew fails up front with the
// offending symbol named, and no partially resolved surface is ever
// callable.
var requiredSymbols = []string{
	"rsmi_init",
	"rsmi_shut_down",
	"rsmi_num_monitor_devices",
	"rsmi_dev_id_get",
	"rsmi_dev_revision_get",
	"rsmi_dev_sku_get",
	"rsmi_dev_vendor_id_get",
	"rsmi_dev_subsystem_id_get",
	"rsmi_dev_unique_id_get",
	"rsmi_dev_name_get",
	"rsmi_dev_brand_get",
	"rsmi_dev_vendor_name_get",
	"rsmi_dev_vram_vendor_get",
	"rsmi_dev_serial_number_get",
	"rsmi_dev_subsystem_name_get",
	"rsmi_dev_pci_id_get",
	"rsmi_dev_pci_bandwidth_get",
	"rsmi_dev_pci_throughput_get",
	"rsmi_dev_temp_metric_get",
	"rsmi_dev_power_ave_get",
	"rsmi_dev_power_cap_get",
	"rsmi_dev_fan_speed_get",
	"rsmi_dev_fan_speed_max_get",
	"rsmi_dev_memory_total_get",
	"rsmi_dev_memory_usage_get",
	"rsmi_dev_memory_busy_percent_get",
	"rsmi_dev_busy_percent_get",
	"rsmi_dev_gpu_clk_freq_get",
	"rsmi_dev_perf_level_get",
	"rsmi_dev_overdrive_level_get",
	"rsmi_dev_ecc_count_get",
	"rsmi_dev_drm_render_minor_get",
	"rsmi_topo_get_numa_node_number",
	"rsmi_version_get",
	"rsmi_version_str_get",
	"rsmi_status_string",
	"rsmi_event_notification_init",
	"rsmi_event_notification_mask_set",
	"rsmi_event_notification_get",
	"rsmi_event_notification_stop",
}

// library is the handle for the currently loaded library, nil before Init
// and after Shutdown. It is deliberately not guarded by a lock; see the
// package comment.
var library *dl.DynamicLibrary

// Init loads the ROCm SMI shared library from the default soname, resolves
// every bound symbol and initializes the library with the given flags.
func Init(flags InitFlags) error {
	return InitWithPath(DefaultLibraryPath, flags)
}

// InitWithPath is Init with an explicit library name or path, resolved by
// the platform loader's dlopen rules.
func InitWithPath(path string, flags InitFlags) error {
	lib := dl.New(path, dl.RTLD_NOW|dl.RTLD_GLOBAL)
	if err := lib.Open(); err != nil {
		return err
	}
	for _, sym := range requiredSymbols {
		if err := lib.Lookup(sym); err != nil {
			lib.Close()
			return err
		}
	}
	if err := errorString(Status(C.rsmi_init(C.uint64_t(flags)))); err != nil {
		lib.Close()
		return err
	}
	library = lib
	return nil
}

// Shutdown tears the library down and releases the handle. Every address
// resolved at Init is invalid afterwards.
func Shutdown() error {
	if library == nil {
		return ErrUninitialized
	}
	if err := errorString(Status(C.rsmi_shut_down())); err != nil {
		return err
	}
	err := library.Close()
	library = nil
	return err
}

// NumMonitorDevices returns the number of devices with monitor
// information. Devices are addressed by index in [0, count).
func NumMonitorDevices() (uint, error) {
	var count C.uint32_t
	rc := C.rsmi_num_monitor_devices(&count)
	return uint(count), errorString(Status(rc))
}

// DeviceHandleBySerial scans the monitored devices for one whose serial
// number matches.
func DeviceHandleBySerial(serial string) (Device, error) {
	count, err := NumMonitorDevices()
	if err != nil {
		return Device{}, err
	}
	for i := uint(0); i < count; i++ {
		d := DeviceByIndex(i)
		s, err := d.SerialNumber()
		if err != nil {
			continue
		}
		if s == serial {
			return d, nil
		}
	}
	return Device{}, ErrNotFound
}

// LibVersion reports the version of the loaded library build.
func LibVersion() (Version, error) {
	var v C.rsmi_version_t
	rc := C.rsmi_version_get(&v)
	if err := errorString(Status(rc)); err != nil {
		return Version{}, err
	}
	out := Version{
		Major: uint32(v.major),
		Minor: uint32(v.minor),
		Patch: uint32(v.patch),
	}
	if v.build != nil {
		out.Build = C.GoString(v.build)
	}
	return out, nil
}

// DriverVersion reports the version string of the kernel driver.
func DriverVersion() (string, error) {
	var buf [szBuffer]C.char
	rc := C.rsmi_version_str_get(C.RSMI_SW_COMP_DRIVER, &buf[0], szBuffer)
	return C.GoString(&buf[0]), errorString(Status(rc))
}

// StatusString returns the library's own description of a status code.
func StatusString(st Status) (string, error) {
	var s *C.char
	rc := C.rsmi_status_string(C.rsmi_status_t(st), &s)
	if err := errorString(Status(rc)); err != nil {
		return "", err
	}
	return C.GoString(s), nil
}

// EventNotificationGet drains up to capacity pending notifications,
// blocking at most timeoutMS milliseconds. A timeout with nothing pending
// surfaces as ErrNoData, exactly as the library reports it.
func EventNotificationGet(timeoutMS int, capacity uint) ([]Event, error) {
	if capacity == 0 {
		capacity = 64
	}
	buf := make([]C.rsmi_evt_notification_data_t, capacity)
	n := C.uint32_t(capacity)
	rc := C.rsmi_event_notification_get(C.int(timeoutMS), &n, &buf[0])
	if err := errorString(Status(rc)); err != nil {
		return nil, err
	}
	events := make([]Event, 0, n)
	for i := C.uint32_t(0); i < n; i++ {
		events = append(events, Event{
			DeviceIndex: uint32(buf[i].dv_ind),
			Type:        EventType(buf[i].event),
			Message:     C.GoString(&buf[i].message[0]),
		})
	}
	return events, nil
}
