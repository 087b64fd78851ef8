package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSMIMemoryMiB(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  string
		want float64
	}{
		{"single gpu", "24576\n", 24},
		{"multi gpu takes largest", "8192\n24576\n", 24},
		{"whitespace", "  12288  \n", 12},
		{"empty", "", 0},
		{"garbage", "N/A\n", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tc.want, parseSMIMemoryMiB(tc.out), 0.001)
		})
	}
}

func TestParseROCmMemoryBytes(t *testing.T) {
	t.Parallel()

	out := "device,VRAM Total Memory (B),VRAM Total Used Memory (B)\n" +
		"card0,17163091968,1048576\n"

	assert.InDelta(t, 15.98, parseROCmMemoryBytes(out), 0.01)
	assert.Zero(t, parseROCmMemoryBytes("no,data"))
}
