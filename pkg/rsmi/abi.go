package rsmi

// #include <string.h>
// #include "rsmi.h"
//
// static void gorsmi_echo(void *dst, const void *src, size_t n) {
//   memcpy(dst, src, n);
// }
import "C"

import (
	"unsafe"
)

// Compiled layout facts of the struct mirrors. Test files cannot use cgo,
// so the ABI tests read these instead of sizeof expressions.
const (
	sizeofFrequencies          = C.sizeof_rsmi_frequencies_t
	sizeofPCIeBandwidth        = C.sizeof_rsmi_pcie_bandwidth_t
	sizeofVersion              = C.sizeof_rsmi_version_t
	sizeofRange                = C.sizeof_rsmi_range_t
	sizeofErrorCount           = C.sizeof_rsmi_error_count_t
	sizeofEvtNotificationData  = C.sizeof_rsmi_evt_notification_data_t
	maxEventNotificationMsgLen = C.MAX_EVENT_NOTIFICATION_MSG_SIZE
)

// structOffsets records the byte offset of every mirrored field.
var structOffsets = func() map[string]uintptr {
	var (
		f  C.rsmi_frequencies_t
		bw C.rsmi_pcie_bandwidth_t
		v  C.rsmi_version_t
		r  C.rsmi_range_t
		ec C.rsmi_error_count_t
		ev C.rsmi_evt_notification_data_t
	)
	return map[string]uintptr{
		"rsmi_frequencies_t.num_supported":        unsafe.Offsetof(f.num_supported),
		"rsmi_frequencies_t.current":              unsafe.Offsetof(f.current),
		"rsmi_frequencies_t.frequency":            unsafe.Offsetof(f.frequency),
		"rsmi_pcie_bandwidth_t.transfer_rate":     unsafe.Offsetof(bw.transfer_rate),
		"rsmi_pcie_bandwidth_t.lanes":             unsafe.Offsetof(bw.lanes),
		"rsmi_version_t.major":                    unsafe.Offsetof(v.major),
		"rsmi_version_t.minor":                    unsafe.Offsetof(v.minor),
		"rsmi_version_t.patch":                    unsafe.Offsetof(v.patch),
		"rsmi_version_t.build":                    unsafe.Offsetof(v.build),
		"rsmi_range_t.lower_bound":                unsafe.Offsetof(r.lower_bound),
		"rsmi_range_t.upper_bound":                unsafe.Offsetof(r.upper_bound),
		"rsmi_error_count_t.correctable_err":      unsafe.Offsetof(ec.correctable_err),
		"rsmi_error_count_t.uncorrectable_err":    unsafe.Offsetof(ec.uncorrectable_err),
		"rsmi_evt_notification_data_t.dv_ind":     unsafe.Offsetof(ev.dv_ind),
		"rsmi_evt_notification_data_t.event":      unsafe.Offsetof(ev.event),
		"rsmi_evt_notification_data_t.message":    unsafe.Offsetof(ev.message),
	}
}()

// echoFrequencies passes the raw bytes of a frequency-table mirror through
// a C function shaped like the foreign calls and returns what comes back.
// Exists for the marshaling round-trip test.
func echoFrequencies(src []byte) []byte {
	var in, out C.rsmi_frequencies_t
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&in)), sizeofFrequencies), src)
	C.gorsmi_echo(unsafe.Pointer(&out), unsafe.Pointer(&in), C.size_t(sizeofFrequencies))
	return append([]byte(nil), unsafe.Slice((*byte)(unsafe.Pointer(&out)), sizeofFrequencies)...)
}
