package harness

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// peakRSS samples the current resident set size of this process. Sampling
// after each pass approximates the pass's peak well enough for comparing
// strategies; reports omit the field when the probe fails.
func peakRSS() uint64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mem, err := proc.MemoryInfo()
	if err != nil || mem == nil {
		return 0
	}
	return mem.RSS
}
