package wire

import "testing"

func TestNormalizeTs(t *testing.T) {
	tests := []struct {
		name string
		raw  int64
		want int64
	}{
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"seconds", 1_705_320_000, 1_705_320_000_000_000},
		{"milliseconds", 1_705_320_000_000, 1_705_320_000_000_000},
		{"microseconds", 1_705_320_000_000_000, 1_705_320_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTs(tt.raw)
			if got != tt.want {
				t.Errorf("NormalizeTs(%d) = %d, want %d", tt.raw, got, tt.want)
			}
		})
	}
}
