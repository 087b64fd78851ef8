package models

// HardwareProfile is a point-in-time snapshot of local compute capability.
// It is recomputed on demand for every routing decision and never cached, so
// a driver or hardware change takes effect on the next request.
type HardwareProfile struct {
	AcceleratorMemoryGB float64 `json:"accelerator_memory_gb"`
	SystemMemoryGB      float64 `json:"system_memory_gb"`
}

// Satisfies reports whether the profile meets a model's minimum accelerator
// memory requirement. A zero requirement always passes; machines with unified
// memory report it as accelerator memory.
func (p HardwareProfile) Satisfies(minAcceleratorGB float64) bool {
	if minAcceleratorGB <= 0 {
		return true
	}

	return p.AcceleratorMemoryGB >= minAcceleratorGB
}
