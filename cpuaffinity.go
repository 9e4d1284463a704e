//go:build linux

package facedetect

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// maxCPUs is the number of cores a unix.CPUSet can hold
const maxCPUs = 1024

// SetCPUAffinity pins the calling thread, and threads it later creates, to
// the given CPU core numbers, eg: []int{4,5,6,7}.  Cascade detection is CPU
// bound so on big.LITTLE boards pinning to the fast cores gives steadier
// frame times.
func SetCPUAffinity(cores []int) error {

	if len(cores) == 0 {
		return fmt.Errorf("no CPU cores given")
	}

	var set unix.CPUSet
	set.Zero()

	for _, core := range cores {
		if core < 0 || core >= maxCPUs {
			return fmt.Errorf("invalid CPU core %d", core)
		}

		set.Set(core)
	}

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("failed to set CPU affinity: %w", err)
	}

	return nil
}

// CPUAffinity returns the CPU core numbers the program may run on
func CPUAffinity() ([]int, error) {

	var set unix.CPUSet

	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("failed to get CPU affinity: %w", err)
	}

	cores := make([]int, 0, set.Count())

	for i := 0; i < maxCPUs; i++ {
		if set.IsSet(i) {
			cores = append(cores, i)
		}
	}

	return cores, nil
}
