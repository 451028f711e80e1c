package mathutil

import "testing"

func TestAlign(t *testing.T) {
	tests := []struct {
		value     uint64
		alignment uint64
		expected  uint64
	}{
		{25, 5, 25},
		{30, 7, 35},
		{0, 8, 0},
		{1, 1, 1},
	}

	for _, tc := range tests {
		result := Align(tc.value, tc.alignment)
		if result != tc.expected {
			t.Errorf("Align(%d, %d) = %d, want %d", tc.value, tc.alignment, result, tc.expected)
		}
	}
}

func TestLog2OfPowerOfTwo(t *testing.T) {
	for i := uint8(0); i < 64; i++ {
		value := uint64(1) << i
		if got := Log2OfPowerOfTwo(value); got != i {
			t.Errorf("Log2OfPowerOfTwo(%d) = %d, want %d", value, got, i)
		}
	}

	if got := Log2OfPowerOfTwo(0); got != 0 {
		t.Errorf("Log2OfPowerOfTwo(0) = %d, want 0", got)
	}
}

func TestRoundToPowerOfTwo(t *testing.T) {
	tests := []struct {
		value    uint64
		expected uint64
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{6, 8},
		{8589934597, 17179869184},
	}

	for _, tc := range tests {
		if got := RoundToPowerOfTwo(tc.value); got != tc.expected {
			t.Errorf("RoundToPowerOfTwo(%d) = %d, want %d", tc.value, got, tc.expected)
		}
	}
}
