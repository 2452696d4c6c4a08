package rsmi

import (
	"errors"
	"fmt"
)

// Status mirrors rsmi_status_t. Codes travel through the boundary verbatim;
// errorString is the only interpretation applied to them.
type Status uint32

const (
	StatusSuccess            Status = 0x0
	StatusInvalidArgs        Status = 0x1
	StatusNotSupported       Status = 0x2
	StatusFileError          Status = 0x3
	StatusPermission         Status = 0x4
	StatusOutOfResources     Status = 0x5
	StatusInternalException  Status = 0x6
	StatusInputOutOfBounds   Status = 0x7
	StatusInitError          Status = 0x8
	StatusNotYetImplemented  Status = 0x9
	StatusNotFound           Status = 0xA
	StatusInsufficientSize   Status = 0xB
	StatusInterrupt          Status = 0xC
	StatusUnexpectedSize     Status = 0xD
	StatusNoData             Status = 0xE
	StatusUnexpectedData     Status = 0xF
	StatusBusy               Status = 0x10
	StatusRefcountOverflow   Status = 0x11
	StatusSettingUnavailable Status = 0x12
	StatusAmdgpuRestartErr   Status = 0x13
	StatusUnknownError       Status = 0xFFFFFFFF
)

var (
	ErrInvalidArgs        = errors.New("rsmi: invalid arguments")
	ErrNotSupported       = errors.New("rsmi: not supported on the given system")
	ErrFileError          = errors.New("rsmi: problem accessing a file")
	ErrPermission         = errors.New("rsmi: permission denied")
	ErrOutOfResources     = errors.New("rsmi: unable to acquire memory or other resource")
	ErrInternalException  = errors.New("rsmi: internal library exception")
	ErrInputOutOfBounds   = errors.New("rsmi: provided input is out of allowable range")
	ErrInitError          = errors.New("rsmi: initialization error")
	ErrNotYetImplemented  = errors.New("rsmi: not yet implemented")
	ErrNotFound           = errors.New("rsmi: item not found")
	ErrInsufficientSize   = errors.New("rsmi: insufficient buffer size")
	ErrInterrupt          = errors.New("rsmi: interrupt occurred during execution")
	ErrUnexpectedSize     = errors.New("rsmi: unexpected amount of data read")
	ErrNoData             = errors.New("rsmi: no data found for the given input")
	ErrUnexpectedData     = errors.New("rsmi: data read or provided was unexpected")
	ErrBusy               = errors.New("rsmi: device busy")
	ErrRefcountOverflow   = errors.New("rsmi: reference count overflow")
	ErrSettingUnavailable = errors.New("rsmi: setting not available on the given system")
	ErrAmdgpuRestart      = errors.New("rsmi: amdgpu driver restart failed")
	ErrUnknown            = errors.New("rsmi: unknown error")

	ErrUninitialized = errors.New("rsmi: library not initialized")
)

// errorString translates a status code into a Go error, nil on success.
func errorString(st Status) error {
	switch st {
	case StatusSuccess:
		return nil
	case StatusInvalidArgs:
		return ErrInvalidArgs
	case StatusNotSupported:
		return ErrNotSupported
	case StatusFileError:
		return ErrFileError
	case StatusPermission:
		return ErrPermission
	case StatusOutOfResources:
		return ErrOutOfResources
	case StatusInternalException:
		return ErrInternalException
	case StatusInputOutOfBounds:
		return ErrInputOutOfBounds
	case StatusInitError:
		return ErrInitError
	case StatusNotYetImplemented:
		return ErrNotYetImplemented
	case StatusNotFound:
		return ErrNotFound
	case StatusInsufficientSize:
		return ErrInsufficientSize
	case StatusInterrupt:
		return ErrInterrupt
	case StatusUnexpectedSize:
		return ErrUnexpectedSize
	case StatusNoData:
		return ErrNoData
	case StatusUnexpectedData:
		return ErrUnexpectedData
	case StatusBusy:
		return ErrBusy
	case StatusRefcountOverflow:
		return ErrRefcountOverflow
	case StatusSettingUnavailable:
		return ErrSettingUnavailable
	case StatusAmdgpuRestartErr:
		return ErrAmdgpuRestart
	case StatusUnknownError:
		return ErrUnknown
	}
	return fmt.Errorf("rsmi: unexpected status code 0x%x", uint32(st))
}
