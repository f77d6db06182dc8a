package indicators

import (
	"math"
	"testing"
)

func TestRSI(t *testing.T) {
	tests := []struct {
		name          string
		closes        []float64
		period        int
		expectedValue float64
	}{
		{
			name:          "mixed gains and losses",
			closes:        []float64{100, 102, 101, 103, 102, 104}, // window 101,103,102,104: +2 -1 +2
			period:        3,
			expectedValue: 80.0,
		},
		{
			name:          "insufficient data returns neutral",
			closes:        []float64{100, 102, 101, 103, 102, 104},
			period:        7,
			expectedValue: NeutralRSI,
		},
		{
			name:          "all gains",
			closes:        []float64{100, 102, 104, 106},
			period:        3,
			expectedValue: 100.0,
		},
		{
			name:          "all losses",
			closes:        []float64{106, 104, 102, 100},
			period:        3,
			expectedValue: 0.0,
		},
		{
			name:          "flat series has zero average loss",
			closes:        []float64{100, 100, 100, 100},
			period:        3,
			expectedValue: 100.0,
		},
		{
			name:          "only the trailing window counts",
			closes:        []float64{500, 50, 400, 101, 103, 102, 104},
			period:        3,
			expectedValue: 80.0,
		},
		{
			name:          "empty series",
			closes:        nil,
			period:        DefaultRSIPeriod,
			expectedValue: NeutralRSI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := RSI(tt.closes, tt.period)
			// Allow for small floating point differences
			if math.Abs(value-tt.expectedValue) > 0.0001 {
				t.Errorf("Expected value %f, got %f", tt.expectedValue, value)
			}
		})
	}
}

func TestRSI_StaysWithinBounds(t *testing.T) {
	for n := 1; n <= 120; n++ {
		closes := make([]float64, n)
		for i := range closes {
			closes[i] = 100 + 30*math.Sin(float64(i*n)/7) + float64(i%5)
		}
		for _, period := range []int{2, 5, DefaultRSIPeriod, 30} {
			value := RSI(closes, period)
			if value < 0 || value > 100 || math.IsNaN(value) {
				t.Fatalf("RSI out of bounds for n=%d period=%d: %f", n, period, value)
			}
		}
	}
}
