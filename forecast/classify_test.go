package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPressure(t *testing.T) {
	tests := []struct {
		name                 string
		base, h12, h18, h24  int
		wantLevel            int
		wantLabel            string
		wantRange, wantDelta int
	}{
		{"flat day", 1013, 1013, 1012, 1013, 0, "穏やか", 1, 0},
		{"mild by range", 1013, 1010, 1008, 1012, 1, "やや変化", 5, -1},
		{"mild by delta", 1013, 1012, 1011, 1009, 1, "やや変化", 4, -4},
		{"large by range", 1013, 1008, 1005, 1010, 2, "変化大", 8, -3},
		{"large by drop", 1013, 1010, 1008, 1006, 2, "変化大", 7, -7},
		{"large by rise", 1005, 1008, 1010, 1013, 2, "変化大", 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyPressure(tt.base, tt.h12, tt.h18, tt.h24)
			assert.Equal(t, tt.wantLevel, got.Level)
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantRange, got.DayRange)
			assert.Equal(t, tt.wantDelta, got.Delta)
		})
	}
}

func TestAmplifierScore(t *testing.T) {
	assert.Equal(t, 0, AmplifierScore(6, 15))
	assert.Equal(t, 1, AmplifierScore(7, 15))
	assert.Equal(t, 1, AmplifierScore(3, 16))
	assert.Equal(t, 2, AmplifierScore(10, 20))
}

func TestClosingStyle(t *testing.T) {
	assert.Equal(t, "安心", ClosingStyle(0))
	assert.Equal(t, "安心", ClosingStyle(1))
	assert.Equal(t, "軽い注意", ClosingStyle(2))
	assert.Equal(t, "軽い注意", ClosingStyle(3))
	assert.Equal(t, "注意喚起", ClosingStyle(4))
}
