package rsmi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorStringMapsEveryKnownStatus(t *testing.T) {
	cases := []struct {
		status Status
		err    error
	}{
		{StatusSuccess, nil},
		{StatusInvalidArgs, ErrInvalidArgs},
		{StatusNotSupported, ErrNotSupported},
		{StatusFileError, ErrFileError},
		{StatusPermission, ErrPermission},
		{StatusOutOfResources, ErrOutOfResources},
		{StatusInternalException, ErrInternalException},
		{StatusInputOutOfBounds, ErrInputOutOfBounds},
		{StatusInitError, ErrInitError},
		{StatusNotYetImplemented, ErrNotYetImplemented},
		{StatusNotFound, ErrNotFound},
		{StatusInsufficientSize, ErrInsufficientSize},
		{StatusInterrupt, ErrInterrupt},
		{StatusUnexpectedSize, ErrUnexpectedSize},
		{StatusNoData, ErrNoData},
		{StatusUnexpectedData, ErrUnexpectedData},
		{StatusBusy, ErrBusy},
		{StatusRefcountOverflow, ErrRefcountOverflow},
		{StatusSettingUnavailable, ErrSettingUnavailable},
		{StatusAmdgpuRestartErr, ErrAmdgpuRestart},
		{StatusUnknownError, ErrUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.err, errorString(tc.status), "status 0x%x", uint32(tc.status))
	}
}

func TestErrorStringPreservesUnexpectedCode(t *testing.T) {
	err := errorString(Status(0xBEEF))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "0xbeef")
}

func TestEventMask(t *testing.T) {
	assert.EqualValues(t, 0x1, EventMask(EventVMFault))
	assert.EqualValues(t, 0x2, EventMask(EventThermalThrottle))
	assert.EqualValues(t, 0xD, EventMask(EventVMFault, EventGPUPreReset, EventGPUPostReset))
	assert.EqualValues(t, 0, EventMask())
}

func TestFormatPCIBusID(t *testing.T) {
	assert.Equal(t, "0000:03:00.0", FormatPCIBusID(0x0300))
	assert.Equal(t, "0001:c1:05.3", FormatPCIBusID(0x1_0000_c12b))
}
