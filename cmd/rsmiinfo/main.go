// rsmiinfo prints an inventory and telemetry snapshot of every AMD GPU the
// ROCm SMI library can see. It exists to exercise the binding surface
// end-to-end outside Kubernetes.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/hsyrjaos/gorsmi/pkg/rsmi"
)

func main() {
	libraryPath := flag.String("library", rsmi.DefaultLibraryPath, "ROCm SMI library soname or path")
	allGPUs := flag.Bool("all-gpus", false, "initialize with RSMI_INIT_FLAG_ALL_GPUS")
	flag.Parse()

	var flags rsmi.InitFlags
	if *allGPUs {
		flags |= rsmi.InitFlagAllGPUs
	}

	if err := rsmi.InitWithPath(*libraryPath, flags); err != nil {
		fmt.Fprintf(os.Stderr, "rsmiinfo: %v\n", err)
		os.Exit(1)
	}
	defer rsmi.Shutdown()

	if v, err := rsmi.LibVersion(); err == nil {
		fmt.Printf("ROCm SMI library %d.%d.%d (%s)\n", v.Major, v.Minor, v.Patch, v.Build)
	}
	if driver, err := rsmi.DriverVersion(); err == nil {
		fmt.Printf("Kernel driver %s\n", driver)
	}

	count, err := rsmi.NumMonitorDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rsmiinfo: device count: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%d device(s)\n\n", count)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i := uint(0); i < count; i++ {
		printDevice(w, rsmi.DeviceByIndex(i))
	}
	w.Flush()
}

func printDevice(w *tabwriter.Writer, d rsmi.Device) {
	fmt.Fprintf(w, "GPU %d\n", d.Index())
	row(w, "name", text(d.Name()))
	row(w, "serial", text(d.SerialNumber()))
	row(w, "uuid", text(d.UUID()))
	row(w, "pci bus", text(d.PCIBusID()))
	row(w, "vram vendor", text(d.VRAMVendor()))

	if total, err := d.MemoryTotal(rsmi.MemoryVRAM); err == nil {
		used, _ := d.MemoryUsage(rsmi.MemoryVRAM)
		row(w, "vram", fmt.Sprintf("%d / %d MiB", used>>20, total>>20))
	} else {
		row(w, "vram", "n/a")
	}

	if temp, err := d.Temperature(rsmi.TempSensorEdge, rsmi.TempCurrent); err == nil {
		row(w, "edge temp", fmt.Sprintf("%.1f C", float64(temp)/1000))
	} else {
		row(w, "edge temp", "n/a")
	}

	if power, err := d.AveragePower(0); err == nil {
		row(w, "avg power", fmt.Sprintf("%.1f W", float64(power)/1e6))
	} else {
		row(w, "avg power", "n/a")
	}

	if busy, err := d.BusyPercent(); err == nil {
		row(w, "busy", fmt.Sprintf("%d%%", busy))
	} else {
		row(w, "busy", "n/a")
	}

	for _, clock := range []struct {
		name string
		typ  rsmi.ClockType
	}{
		{"sclk", rsmi.ClockSystem},
		{"mclk", rsmi.ClockMemory},
	} {
		f, err := d.ClockFrequencies(clock.typ)
		if err != nil || int(f.Current) >= len(f.Supported) {
			row(w, clock.name, "n/a")
			continue
		}
		row(w, clock.name, fmt.Sprintf("%d MHz", f.Supported[f.Current]/1_000_000))
	}

	fmt.Fprintln(w)
}

func row(w *tabwriter.Writer, name, value string) {
	fmt.Fprintf(w, "  %s\t%s\n", name, value)
}

func text(s string, err error) string {
	if err != nil {
		return "n/a"
	}
	return s
}
