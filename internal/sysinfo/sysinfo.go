// Package sysinfo surfaces host process/machine metrics for cmd/stagectl's
// live dashboard — an optional diagnostic, never consulted by the runtime's
// own scheduling decisions.
package sysinfo

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/signalstage/core/errors"
)

// Snapshot is one point-in-time reading of host resource usage, grounded on
// the teacher's SystemMetrics (pulse/async/system_metrics.go) but scoped to
// this runtime's host-diagnostics need rather than a worker-pool's.
type Snapshot struct {
	CPUPercent    float64
	MemoryUsedGB  float64
	MemoryTotalGB float64
	MemoryPercent float64
	Goroutines    int
}

// cpuSampleWindow is how long cpu.Percent blocks measuring utilization; kept
// short since cmd/stagectl samples this on a dashboard refresh tick, not
// once at startup.
const cpuSampleWindow = 200 * time.Millisecond

// Capture reads current CPU and memory utilization via gopsutil, the same
// library the teacher uses for per-platform memory stats (pulse/async/
// system_metrics_linux.go), generalized here to gopsutil's own
// cross-platform API instead of the teacher's per-GOOS build-tagged files —
// gopsutil already abstracts the OS difference the teacher's linux/windows/
// darwin variants existed to paper over.
func Capture() (Snapshot, error) {
	percents, err := cpu.Percent(cpuSampleWindow, false)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "failed to sample CPU utilization")
	}
	var cpuPercent float64
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "failed to read memory stats")
	}

	const gib = 1024 * 1024 * 1024
	return Snapshot{
		CPUPercent:    cpuPercent,
		MemoryUsedGB:  float64(vm.Used) / gib,
		MemoryTotalGB: float64(vm.Total) / gib,
		MemoryPercent: vm.UsedPercent,
		Goroutines:    runtime.NumGoroutine(),
	}, nil
}
