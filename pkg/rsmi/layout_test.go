package rsmi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Reference values from compiling the bound header for x86-64 SysV, the
// only ABI librocm_smi64.so ships for.
func TestStructSizes(t *testing.T) {
	assert.EqualValues(t, 264, sizeofFrequencies)
	assert.EqualValues(t, 392, sizeofPCIeBandwidth)
	assert.EqualValues(t, 24, sizeofVersion)
	assert.EqualValues(t, 16, sizeofRange)
	assert.EqualValues(t, 16, sizeofErrorCount)
	assert.EqualValues(t, 104, sizeofEvtNotificationData)
	assert.EqualValues(t, 96, maxEventNotificationMsgLen)
}

func TestFieldOffsets(t *testing.T) {
	expected := map[string]uintptr{
		"rsmi_frequencies_t.num_supported":     0,
		"rsmi_frequencies_t.current":           4,
		"rsmi_frequencies_t.frequency":         8,
		"rsmi_pcie_bandwidth_t.transfer_rate":  0,
		"rsmi_pcie_bandwidth_t.lanes":          264,
		"rsmi_version_t.major":                 0,
		"rsmi_version_t.minor":                 4,
		"rsmi_version_t.patch":                 8,
		"rsmi_version_t.build":                 16,
		"rsmi_range_t.lower_bound":             0,
		"rsmi_range_t.upper_bound":             8,
		"rsmi_error_count_t.correctable_err":   0,
		"rsmi_error_count_t.uncorrectable_err": 8,
		"rsmi_evt_notification_data_t.dv_ind":  0,
		"rsmi_evt_notification_data_t.event":   4,
		"rsmi_evt_notification_data_t.message": 8,
	}
	assert.Equal(t, expected, structOffsets)
}

// A known bit pattern written into a struct mirror must come back
// unchanged from a pass across the C boundary.
func TestFrequenciesRoundTrip(t *testing.T) {
	pattern := make([]byte, sizeofFrequencies)
	for i := range pattern {
		pattern[i] = byte(i*7 + 13)
	}
	assert.Equal(t, pattern, echoFrequencies(pattern))
}
