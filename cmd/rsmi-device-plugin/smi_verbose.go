//go:build verbose
// +build verbose

package main

import (
	"log/slog"
	"time"
)

func init() {
	wrapSMI = func(s SMI) SMI { return &verboseSMI{impl: s} }
}

// verboseSMI logs every call into the backend it decorates.
type verboseSMI struct {
	impl SMI
}

func (v *verboseSMI) Initialize() error {
	slog.Debug("smi: initializing")
	err := v.impl.Initialize()
	slog.Debug("smi: initialize done", "error", err)
	return err
}

func (v *verboseSMI) Shutdown() error {
	slog.Debug("smi: shutting down")
	err := v.impl.Shutdown()
	slog.Debug("smi: shutdown done", "error", err)
	return err
}

func (v *verboseSMI) DeviceTypeName() (string, error) {
	name, err := v.impl.DeviceTypeName()
	slog.Debug("smi: device type name", "name", name, "error", err)
	return name, err
}

func (v *verboseSMI) DeviceCount() (uint, error) {
	count, err := v.impl.DeviceCount()
	slog.Debug("smi: device count", "count", count, "error", err)
	return count, err
}

func (v *verboseSMI) DeviceHandleByIndex(index uint) (Device, error) {
	dev, err := v.impl.DeviceHandleByIndex(index)
	slog.Debug("smi: device handle by index", "index", index, "error", err)
	return dev, err
}

func (v *verboseSMI) DeviceHandleBySerial(serial string) (Device, error) {
	dev, err := v.impl.DeviceHandleBySerial(serial)
	slog.Debug("smi: device handle by serial", "serial", serial, "error", err)
	return dev, err
}

func (v *verboseSMI) WatchCriticalEvents(devs []Device) error {
	err := v.impl.WatchCriticalEvents(devs)
	slog.Debug("smi: watch critical events", "devices", len(devs), "error", err)
	return err
}

func (v *verboseSMI) NextEvents(timeoutMS int) ([]FaultEvent, error) {
	start := time.Now()
	events, err := v.impl.NextEvents(timeoutMS)
	slog.Debug("smi: next events",
		"timeout_ms", timeoutMS,
		"elapsed", time.Since(start),
		"events", len(events),
		"error", err,
	)
	return events, err
}

func (v *verboseSMI) StopCriticalEvents(devs []Device) {
	slog.Debug("smi: stop critical events", "devices", len(devs))
	v.impl.StopCriticalEvents(devs)
}
