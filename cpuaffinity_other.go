//go:build !linux

package facedetect

import "errors"

var errAffinityUnsupported = errors.New("CPU affinity is only supported on linux")

// SetCPUAffinity is not supported on this platform
func SetCPUAffinity(cores []int) error {
	return errAffinityUnsupported
}

// CPUAffinity is not supported on this platform
func CPUAffinity() ([]int, error) {
	return nil, errAffinityUnsupported
}
