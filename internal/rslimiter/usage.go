package rslimiter

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

// Usage is a snapshot of process and system memory.
type Usage struct {
	HeapAllocMB          int64
	SysMB                int64
	Goroutines           int
	NumGC                uint32
	SystemMemUsedMB      int64
	SystemMemTotalMB     int64
	SystemMemUsedPercent float64
}

// UsageProbe reads the current usage.
type UsageProbe func() (Usage, error)

// ReadUsage combines runtime.MemStats with the host's virtual memory stats.
func ReadUsage() (Usage, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	usage := Usage{
		HeapAllocMB: int64(m.HeapAlloc / 1024 / 1024),
		SysMB:       int64(m.Sys / 1024 / 1024),
		Goroutines:  runtime.NumGoroutine(),
		NumGC:       m.NumGC,
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return usage, err
	}
	usage.SystemMemUsedMB = int64(vm.Used / 1024 / 1024)
	usage.SystemMemTotalMB = int64(vm.Total / 1024 / 1024)
	usage.SystemMemUsedPercent = vm.UsedPercent
	return usage, nil
}
