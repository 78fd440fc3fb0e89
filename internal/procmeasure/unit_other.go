//go:build unix && !linux

package procmeasure

// BSD-derived systems report ru_maxrss in bytes.
const maxRSSUnit = 1
