package rsmi

// #include "rsmi.h"
import "C"

import (
	"fmt"
)

// szBuffer is the buffer length used for every string-returning call, the
// same length the library's own tools pass.
const szBuffer = 256

// Device addresses one monitored device by index. The index is the only
// state; ownership of the underlying hardware resource stays with the
// library.
type Device struct {
	index uint32
}

// DeviceByIndex returns a handle for the device at the given monitor
// index. Indexes are valid in [0, NumMonitorDevices()); the library
// reports ErrInvalidArgs on first use of an index out of range.
func DeviceByIndex(index uint) Device {
	return Device{index: uint32(index)}
}

// Index returns the monitor index this handle addresses.
func (d Device) Index() uint {
	return uint(d.index)
}

// DeviceID returns the device's PCI device id.
func (d Device) DeviceID() (uint16, error) {
	var id C.uint16_t
	rc := C.rsmi_dev_id_get(C.uint32_t(d.index), &id)
	return uint16(id), errorString(Status(rc))
}

// RevisionID returns the device's PCI revision id.
func (d Device) RevisionID() (uint16, error) {
	var rev C.uint16_t
	rc := C.rsmi_dev_revision_get(C.uint32_t(d.index), &rev)
	return uint16(rev), errorString(Status(rc))
}

// SKU returns the device's SKU identifier byte.
func (d Device) SKU() (byte, error) {
	var sku C.char
	rc := C.rsmi_dev_sku_get(C.uint32_t(d.index), &sku)
	return byte(sku), errorString(Status(rc))
}

// VendorID returns the device's PCI vendor id (0x1002 for AMD).
func (d Device) VendorID() (uint16, error) {
	var id C.uint16_t
	rc := C.rsmi_dev_vendor_id_get(C.uint32_t(d.index), &id)
	return uint16(id), errorString(Status(rc))
}

// SubsystemID returns the device's PCI subsystem id.
func (d Device) SubsystemID() (uint16, error) {
	var id C.uint16_t
	rc := C.rsmi_dev_subsystem_id_get(C.uint32_t(d.index), &id)
	return uint16(id), errorString(Status(rc))
}

// UniqueID returns the device's unique 64-bit identifier. Not supported on
// every ASIC.
func (d Device) UniqueID() (uint64, error) {
	var id C.uint64_t
	rc := C.rsmi_dev_unique_id_get(C.uint32_t(d.index), &id)
	return uint64(id), errorString(Status(rc))
}

// UUID renders the unique identifier the way the ROCm tools print it.
func (d Device) UUID() (string, error) {
	id, err := d.UniqueID()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("GPU-%016x", id), nil
}

// Name returns the device's marketing name.
func (d Device) Name() (string, error) {
	var buf [szBuffer]C.char
	rc := C.rsmi_dev_name_get(C.uint32_t(d.index), &buf[0], szBuffer)
	return C.GoString(&buf[0]), errorString(Status(rc))
}

// Brand returns the device's brand string.
func (d Device) Brand() (string, error) {
	var buf [szBuffer]C.char
	rc := C.rsmi_dev_brand_get(C.uint32_t(d.index), &buf[0], szBuffer)
	return C.GoString(&buf[0]), errorString(Status(rc))
}

// VendorName returns the name of the device vendor.
func (d Device) VendorName() (string, error) {
	var buf [szBuffer]C.char
	rc := C.rsmi_dev_vendor_name_get(C.uint32_t(d.index), &buf[0], szBuffer)
	return C.GoString(&buf[0]), errorString(Status(rc))
}

// VRAMVendor returns the name of the VRAM vendor.
func (d Device) VRAMVendor() (string, error) {
	var buf [szBuffer]C.char
	rc := C.rsmi_dev_vram_vendor_get(C.uint32_t(d.index), &buf[0], szBuffer)
	return C.GoString(&buf[0]), errorString(Status(rc))
}

// SerialNumber returns the device's serial number.
func (d Device) SerialNumber() (string, error) {
	var buf [szBuffer]C.char
	rc := C.rsmi_dev_serial_number_get(C.uint32_t(d.index), &buf[0], szBuffer)
	return C.GoString(&buf[0]), errorString(Status(rc))
}

// SubsystemName returns the name of the device subsystem.
func (d Device) SubsystemName() (string, error) {
	var buf [szBuffer]C.char
	rc := C.rsmi_dev_subsystem_name_get(C.uint32_t(d.index), &buf[0], szBuffer)
	return C.GoString(&buf[0]), errorString(Status(rc))
}

// PCIID returns the device's BDF id packed as
// ((domain&0xffffffff)<<32)|((bus&0xff)<<8)|((device&0x1f)<<3)|(function&0x7).
func (d Device) PCIID() (uint64, error) {
	var bdfid C.uint64_t
	rc := C.rsmi_dev_pci_id_get(C.uint32_t(d.index), &bdfid)
	return uint64(bdfid), errorString(Status(rc))
}

// PCIBusID renders the BDF id in the usual domain:bus:device.function
// form.
func (d Device) PCIBusID() (string, error) {
	bdfid, err := d.PCIID()
	if err != nil {
		return "", err
	}
	return FormatPCIBusID(bdfid), nil
}

// FormatPCIBusID renders a packed BDF id as domain:bus:device.function.
func FormatPCIBusID(bdfid uint64) string {
	return fmt.Sprintf("%04x:%02x:%02x.%x",
		(bdfid>>32)&0xffffffff, (bdfid>>8)&0xff, (bdfid>>3)&0x1f, bdfid&0x7)
}

// PCIBandwidth returns the supported PCIe transfer rates and the lane
// counts usable at each rate.
func (d Device) PCIBandwidth() (PCIeBandwidth, error) {
	var bw C.rsmi_pcie_bandwidth_t
	rc := C.rsmi_dev_pci_bandwidth_get(C.uint32_t(d.index), &bw)
	if err := errorString(Status(rc)); err != nil {
		return PCIeBandwidth{}, err
	}
	n := int(bw.transfer_rate.num_supported)
	if n > MaxNumFrequencies {
		n = MaxNumFrequencies
	}
	out := PCIeBandwidth{
		TransferRate: Frequencies{
			Current:   uint32(bw.transfer_rate.current),
			Supported: make([]uint64, n),
		},
		Lanes: make([]uint32, n),
	}
	for i := 0; i < n; i++ {
		out.TransferRate.Supported[i] = uint64(bw.transfer_rate.frequency[i])
		out.Lanes[i] = uint32(bw.lanes[i])
	}
	return out, nil
}

// PCIThroughput samples about one second of traffic over the device PCIe
// bus, so the call blocks for about that long.
func (d Device) PCIThroughput() (PCIeThroughput, error) {
	var sent, received, maxPktSz C.uint64_t
	rc := C.rsmi_dev_pci_throughput_get(C.uint32_t(d.index), &sent, &received, &maxPktSz)
	return PCIeThroughput{
		SentBytesPerSecond:     uint64(sent),
		ReceivedBytesPerSecond: uint64(received),
		MaxPacketSize:          uint64(maxPktSz),
	}, errorString(Status(rc))
}

// Temperature returns the given metric of the given sensor in
// millidegrees Celsius.
func (d Device) Temperature(sensor TempSensor, metric TempMetric) (int64, error) {
	var temp C.int64_t
	rc := C.rsmi_dev_temp_metric_get(C.uint32_t(d.index), C.uint32_t(sensor),
		C.rsmi_temperature_metric_t(metric), &temp)
	return int64(temp), errorString(Status(rc))
}

// AveragePower returns the sensor's average power consumption in
// microwatts.
func (d Device) AveragePower(sensor uint) (uint64, error) {
	var power C.uint64_t
	rc := C.rsmi_dev_power_ave_get(C.uint32_t(d.index), C.uint32_t(sensor), &power)
	return uint64(power), errorString(Status(rc))
}

// PowerCap returns the sensor's power cap in microwatts.
func (d Device) PowerCap(sensor uint) (uint64, error) {
	var limit C.uint64_t
	rc := C.rsmi_dev_power_cap_get(C.uint32_t(d.index), C.uint32_t(sensor), &limit)
	return uint64(limit), errorString(Status(rc))
}

// FanSpeed returns the fan speed relative to MAX_FAN_SPEED (255).
func (d Device) FanSpeed(sensor uint) (int64, error) {
	var speed C.int64_t
	rc := C.rsmi_dev_fan_speed_get(C.uint32_t(d.index), C.uint32_t(sensor), &speed)
	return int64(speed), errorString(Status(rc))
}

// FanSpeedMax returns the maximum possible fan speed.
func (d Device) FanSpeedMax(sensor uint) (uint64, error) {
	var speed C.uint64_t
	rc := C.rsmi_dev_fan_speed_max_get(C.uint32_t(d.index), C.uint32_t(sensor), &speed)
	return uint64(speed), errorString(Status(rc))
}

// MemoryTotal returns the total bytes of the given memory type.
func (d Device) MemoryTotal(mem MemoryType) (uint64, error) {
	var total C.uint64_t
	rc := C.rsmi_dev_memory_total_get(C.uint32_t(d.index), C.rsmi_memory_type_t(mem), &total)
	return uint64(total), errorString(Status(rc))
}

// MemoryUsage returns the bytes currently in use of the given memory type.
func (d Device) MemoryUsage(mem MemoryType) (uint64, error) {
	var used C.uint64_t
	rc := C.rsmi_dev_memory_usage_get(C.uint32_t(d.index), C.rsmi_memory_type_t(mem), &used)
	return uint64(used), errorString(Status(rc))
}

// MemoryBusyPercent returns the percentage of time memory was being
// accessed.
func (d Device) MemoryBusyPercent() (uint32, error) {
	var busy C.uint32_t
	rc := C.rsmi_dev_memory_busy_percent_get(C.uint32_t(d.index), &busy)
	return uint32(busy), errorString(Status(rc))
}

// BusyPercent returns the percentage of time the device was doing any
// processing.
func (d Device) BusyPercent() (uint32, error) {
	var busy C.uint32_t
	rc := C.rsmi_dev_busy_percent_get(C.uint32_t(d.index), &busy)
	return uint32(busy), errorString(Status(rc))
}

// ClockFrequencies returns the frequency table of the given clock and
// which entry is active.
func (d Device) ClockFrequencies(clock ClockType) (Frequencies, error) {
	var f C.rsmi_frequencies_t
	rc := C.rsmi_dev_gpu_clk_freq_get(C.uint32_t(d.index), C.rsmi_clk_type_t(clock), &f)
	if err := errorString(Status(rc)); err != nil {
		return Frequencies{}, err
	}
	n := int(f.num_supported)
	if n > MaxNumFrequencies {
		n = MaxNumFrequencies
	}
	out := Frequencies{
		Current:   uint32(f.current),
		Supported: make([]uint64, n),
	}
	for i := 0; i < n; i++ {
		out.Supported[i] = uint64(f.frequency[i])
	}
	return out, nil
}

// PerfLevel returns the current performance level.
func (d Device) PerfLevel() (PerfLevel, error) {
	var perf C.rsmi_dev_perf_level_t
	rc := C.rsmi_dev_perf_level_get(C.uint32_t(d.index), &perf)
	return PerfLevel(perf), errorString(Status(rc))
}

// OverdriveLevel returns the overdrive percentage.
func (d Device) OverdriveLevel() (uint32, error) {
	var od C.uint32_t
	rc := C.rsmi_dev_overdrive_level_get(C.uint32_t(d.index), &od)
	return uint32(od), errorString(Status(rc))
}

// ECCCount returns the error counts of the given RAS block.
func (d Device) ECCCount(block GPUBlock) (ErrorCount, error) {
	var ec C.rsmi_error_count_t
	rc := C.rsmi_dev_ecc_count_get(C.uint32_t(d.index), C.rsmi_gpu_block_t(block), &ec)
	return ErrorCount{
		Correctable:   uint64(ec.correctable_err),
		Uncorrectable: uint64(ec.uncorrectable_err),
	}, errorString(Status(rc))
}

// DRMRenderMinor returns the device's DRM render minor number
// (/dev/dri/renderD<minor>).
func (d Device) DRMRenderMinor() (uint, error) {
	var minor C.uint32_t
	rc := C.rsmi_dev_drm_render_minor_get(C.uint32_t(d.index), &minor)
	return uint(minor), errorString(Status(rc))
}

// NumaNode returns the NUMA node closest to the device.
func (d Device) NumaNode() (uint, error) {
	var node C.uint32_t
	rc := C.rsmi_topo_get_numa_node_number(C.uint32_t(d.index), &node)
	return uint(node), errorString(Status(rc))
}

// EventNotificationInit prepares the device to collect event
// notifications. Call before EventNotificationMaskSet.
func (d Device) EventNotificationInit() error {
	return errorString(Status(C.rsmi_event_notification_init(C.uint32_t(d.index))))
}

// EventNotificationMaskSet selects which events the device reports; build
// the mask with EventMask.
func (d Device) EventNotificationMaskSet(mask uint64) error {
	return errorString(Status(C.rsmi_event_notification_mask_set(C.uint32_t(d.index), C.uint64_t(mask))))
}

// EventNotificationStop closes the device's notification collection.
func (d Device) EventNotificationStop() error {
	return errorString(Status(C.rsmi_event_notification_stop(C.uint32_t(d.index))))
}
