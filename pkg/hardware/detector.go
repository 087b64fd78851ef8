// Package hardware detects local compute capability. Profiles are computed
// fresh on every call; callers must not cache them across routing decisions.
package hardware

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

const bytesPerGB = 1 << 30

// Detector produces a point-in-time hardware profile.
type Detector interface {
	Profile(ctx context.Context) (models.HardwareProfile, error)
}

// SystemDetector reads the actual machine: system memory from the OS,
// accelerator memory from vendor tooling when present.
type SystemDetector struct {
	logger *slog.Logger
}

func NewSystemDetector(logger *slog.Logger) *SystemDetector {
	return &SystemDetector{logger: logger.With("module", "hardware")}
}

func (d *SystemDetector) Profile(ctx context.Context) (models.HardwareProfile, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return models.HardwareProfile{}, fmt.Errorf("failed to read system memory: %w", err)
	}

	profile := models.HardwareProfile{
		SystemMemoryGB:      float64(vm.Total) / bytesPerGB,
		AcceleratorMemoryGB: d.acceleratorMemoryGB(ctx),
	}

	// Apple silicon exposes unified memory to the accelerator.
	if profile.AcceleratorMemoryGB == 0 && runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		profile.AcceleratorMemoryGB = profile.SystemMemoryGB
	}

	d.logger.DebugContext(ctx, "Hardware profile detected",
		"system_memory_gb", profile.SystemMemoryGB,
		"accelerator_memory_gb", profile.AcceleratorMemoryGB)

	return profile, nil
}

// acceleratorMemoryGB probes nvidia-smi, then rocm-smi. A missing tool or a
// probe failure means no dedicated accelerator, not an error.
func (d *SystemDetector) acceleratorMemoryGB(ctx context.Context) float64 {
	out, err := exec.CommandContext(ctx, "nvidia-smi",
		"--query-gpu=memory.total", "--format=csv,noheader,nounits").Output()
	if err == nil {
		if gb := parseSMIMemoryMiB(string(out)); gb > 0 {
			return gb
		}
	}

	out, err = exec.CommandContext(ctx, "rocm-smi", "--showmeminfo", "vram", "--csv").Output()
	if err == nil {
		if gb := parseROCmMemoryBytes(string(out)); gb > 0 {
			return gb
		}
	}

	return 0
}

// parseSMIMemoryMiB parses nvidia-smi memory.total output: one MiB value per
// GPU line. Returns the largest device in GB.
func parseSMIMemoryMiB(out string) float64 {
	var maxGB float64

	for _, line := range strings.Split(out, "\n") {
		mib, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			continue
		}

		if gb := mib / 1024; gb > maxGB {
			maxGB = gb
		}
	}

	return maxGB
}

// parseROCmMemoryBytes parses rocm-smi CSV vram output: rows of
// "device,VRAM Total Memory (B),VRAM Total Used Memory (B)".
func parseROCmMemoryBytes(out string) float64 {
	var maxGB float64

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			continue
		}

		total, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			continue
		}

		if gb := total / bytesPerGB; gb > maxGB {
			maxGB = gb
		}
	}

	return maxGB
}

// StaticDetector returns a fixed profile. Used in tests and for deployments
// that pin capability explicitly.
type StaticDetector struct {
	profile models.HardwareProfile
}

func NewStaticDetector(profile models.HardwareProfile) *StaticDetector {
	return &StaticDetector{profile: profile}
}

func (d *StaticDetector) Profile(_ context.Context) (models.HardwareProfile, error) {
	return d.profile, nil
}
