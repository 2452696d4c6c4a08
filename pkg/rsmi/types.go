package rsmi

// #include "rsmi.h"
import "C"

// InitFlags select the device set rsmi_init exposes.
type InitFlags uint64

const (
	InitFlagAllGPUs   InitFlags = C.RSMI_INIT_FLAG_ALL_GPUS
	InitFlagResrvTest InitFlags = C.RSMI_INIT_FLAG_RESRV_TEST1
)

// ClockType mirrors rsmi_clk_type_t.
type ClockType uint32

const (
	ClockSystem ClockType = C.RSMI_CLK_TYPE_SYS
	ClockFabric ClockType = C.RSMI_CLK_TYPE_DF
	ClockDCEF   ClockType = C.RSMI_CLK_TYPE_DCEF
	ClockSOC    ClockType = C.RSMI_CLK_TYPE_SOC
	ClockMemory ClockType = C.RSMI_CLK_TYPE_MEM
	ClockPCIe   ClockType = C.RSMI_CLK_TYPE_PCIE
)

// TempSensor mirrors rsmi_temperature_type_t.
type TempSensor uint32

const (
	TempSensorEdge     TempSensor = C.RSMI_TEMP_TYPE_EDGE
	TempSensorJunction TempSensor = C.RSMI_TEMP_TYPE_JUNCTION
	TempSensorMemory   TempSensor = C.RSMI_TEMP_TYPE_MEMORY
	TempSensorHBM0     TempSensor = C.RSMI_TEMP_TYPE_HBM_0
	TempSensorHBM1     TempSensor = C.RSMI_TEMP_TYPE_HBM_1
	TempSensorHBM2     TempSensor = C.RSMI_TEMP_TYPE_HBM_2
	TempSensorHBM3     TempSensor = C.RSMI_TEMP_TYPE_HBM_3
)

// TempMetric mirrors rsmi_temperature_metric_t. Readings are in
// millidegrees Celsius, as reported by the library.
type TempMetric uint32

const (
	TempCurrent       TempMetric = C.RSMI_TEMP_CURRENT
	TempMax           TempMetric = C.RSMI_TEMP_MAX
	TempMin           TempMetric = C.RSMI_TEMP_MIN
	TempMaxHyst       TempMetric = C.RSMI_TEMP_MAX_HYST
	TempMinHyst       TempMetric = C.RSMI_TEMP_MIN_HYST
	TempCritical      TempMetric = C.RSMI_TEMP_CRITICAL
	TempCriticalHyst  TempMetric = C.RSMI_TEMP_CRITICAL_HYST
	TempEmergency     TempMetric = C.RSMI_TEMP_EMERGENCY
	TempEmergencyHyst TempMetric = C.RSMI_TEMP_EMERGENCY_HYST
	TempCritMin       TempMetric = C.RSMI_TEMP_CRIT_MIN
	TempCritMinHyst   TempMetric = C.RSMI_TEMP_CRIT_MIN_HYST
	TempOffset        TempMetric = C.RSMI_TEMP_OFFSET
	TempLowest        TempMetric = C.RSMI_TEMP_LOWEST
	TempHighest       TempMetric = C.RSMI_TEMP_HIGHEST
)

// MemoryType mirrors rsmi_memory_type_t.
type MemoryType uint32

const (
	MemoryVRAM        MemoryType = C.RSMI_MEM_TYPE_VRAM
	MemoryVisibleVRAM MemoryType = C.RSMI_MEM_TYPE_VIS_VRAM
	MemoryGTT         MemoryType = C.RSMI_MEM_TYPE_GTT
)

// PerfLevel mirrors rsmi_dev_perf_level_t.
type PerfLevel uint32

const (
	PerfAuto           PerfLevel = C.RSMI_DEV_PERF_LEVEL_AUTO
	PerfLow            PerfLevel = C.RSMI_DEV_PERF_LEVEL_LOW
	PerfHigh           PerfLevel = C.RSMI_DEV_PERF_LEVEL_HIGH
	PerfManual         PerfLevel = C.RSMI_DEV_PERF_LEVEL_MANUAL
	PerfStableStd      PerfLevel = C.RSMI_DEV_PERF_LEVEL_STABLE_STD
	PerfStablePeak     PerfLevel = C.RSMI_DEV_PERF_LEVEL_STABLE_PEAK
	PerfStableMinMclk  PerfLevel = C.RSMI_DEV_PERF_LEVEL_STABLE_MIN_MCLK
	PerfStableMinSclk  PerfLevel = C.RSMI_DEV_PERF_LEVEL_STABLE_MIN_SCLK
	PerfDeterminism    PerfLevel = C.RSMI_DEV_PERF_LEVEL_DETERMINISM
	PerfLevelUnknown   PerfLevel = C.RSMI_DEV_PERF_LEVEL_UNKNOWN
)

// GPUBlock mirrors rsmi_gpu_block_t (a bitmask of RAS-capable blocks).
type GPUBlock uint64

const (
	BlockUMC      GPUBlock = C.RSMI_GPU_BLOCK_UMC
	BlockSDMA     GPUBlock = C.RSMI_GPU_BLOCK_SDMA
	BlockGFX      GPUBlock = C.RSMI_GPU_BLOCK_GFX
	BlockMMHub    GPUBlock = C.RSMI_GPU_BLOCK_MMHUB
	BlockATHub    GPUBlock = C.RSMI_GPU_BLOCK_ATHUB
	BlockPCIeBIF  GPUBlock = C.RSMI_GPU_BLOCK_PCIE_BIF
	BlockHDP      GPUBlock = C.RSMI_GPU_BLOCK_HDP
	BlockXGMIWAFL GPUBlock = C.RSMI_GPU_BLOCK_XGMI_WAFL
	BlockDF       GPUBlock = C.RSMI_GPU_BLOCK_DF
	BlockSMN      GPUBlock = C.RSMI_GPU_BLOCK_SMN
	BlockSEM      GPUBlock = C.RSMI_GPU_BLOCK_SEM
	BlockMP0      GPUBlock = C.RSMI_GPU_BLOCK_MP0
	BlockMP1      GPUBlock = C.RSMI_GPU_BLOCK_MP1
	BlockFuse     GPUBlock = C.RSMI_GPU_BLOCK_FUSE
)

// EventType mirrors rsmi_evt_notification_type_t.
type EventType uint32

const (
	EventVMFault         EventType = C.RSMI_EVT_NOTIF_VMFAULT
	EventThermalThrottle EventType = C.RSMI_EVT_NOTIF_THERMAL_THROTTLE
	EventGPUPreReset     EventType = C.RSMI_EVT_NOTIF_GPU_PRE_RESET
	EventGPUPostReset    EventType = C.RSMI_EVT_NOTIF_GPU_POST_RESET
)

// EventMask builds the notification mask bit for one event type,
// mirroring RSMI_EVENT_MASK_FROM_INDEX.
func EventMask(types ...EventType) uint64 {
	var mask uint64
	for _, t := range types {
		mask |= 1 << (uint64(t) - 1)
	}
	return mask
}

// MaxNumFrequencies is the fixed capacity of a frequency table.
const MaxNumFrequencies = C.RSMI_MAX_NUM_FREQUENCIES

// Frequencies is the Go-side view of rsmi_frequencies_t: the supported
// frequency values in Hz and the index of the one currently active.
type Frequencies struct {
	Current   uint32
	Supported []uint64
}

// PCIeBandwidth is the Go-side view of rsmi_pcie_bandwidth_t: possible
// transfer rates in T/s with the lane count usable at each rate.
type PCIeBandwidth struct {
	TransferRate Frequencies
	Lanes        []uint32
}

// PCIeThroughput is a single sample of traffic over the device's PCIe bus.
type PCIeThroughput struct {
	SentBytesPerSecond     uint64
	ReceivedBytesPerSecond uint64
	MaxPacketSize          uint64
}

// Version identifies the loaded library build.
type Version struct {
	Major uint32
	Minor uint32
	Patch uint32
	Build string
}

// ErrorCount is the Go-side view of rsmi_error_count_t.
type ErrorCount struct {
	Correctable   uint64
	Uncorrectable uint64
}

// Event is one entry from the event-notification queue.
type Event struct {
	DeviceIndex uint32
	Type        EventType
	Message     string
}
