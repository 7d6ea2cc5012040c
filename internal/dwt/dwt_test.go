package dwt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientPlane(w, h int) []float64 {
	data := make([]float64, w*h)
	for y := range h {
		for x := range w {
			data[y*w+x] = float64((x*7+y*13)%256) + 0.25
		}
	}
	return data
}

func TestPyramidRoundTrip(t *testing.T) {
	test := []struct {
		name   string
		w, h   int
		levels int
	}{
		{"even_1level", 64, 48, 1},
		{"even_2level", 64, 64, 2},
		{"even_3level", 128, 96, 3},
		{"odd_width", 63, 48, 2},
		{"odd_height", 64, 47, 2},
		{"odd_both", 101, 77, 3},
		{"tiny", 9, 9, 1},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			data := gradientPlane(tt.w, tt.h)
			p := Decompose(data, tt.w, tt.levels)
			got := p.Reconstruct()
			require.Len(t, got, tt.w*tt.h)
			for i := range data {
				if math.Abs(data[i]-got[i]) > 1e-8 {
					t.Fatalf("plane[%d]: expected %f, got %f", i, data[i], got[i])
				}
			}
		})
	}
}

func TestPyramidRoundTripAfterBandEdit(t *testing.T) {
	// Editing deepest detail coefficients must survive a reconstruct and
	// re-decompose cycle exactly (no image quantization involved here).
	data := gradientPlane(96, 96)
	p := Decompose(data, 96, 2)
	cH, cV := p.DetailBands()
	require.Len(t, cH, 24*24)
	cH[0] = 123.5
	cV[10] = -77.25
	rebuilt := p.Reconstruct()

	p2 := Decompose(rebuilt, 96, 2)
	cH2, cV2 := p2.DetailBands()
	assert.InDelta(t, 123.5, cH2[0], 1e-8)
	assert.InDelta(t, -77.25, cV2[10], 1e-8)
}

func TestPyramidDeterministicPadding(t *testing.T) {
	data := gradientPlane(50, 34)
	a := Decompose(data, 50, 3)
	b := Decompose(data, 50, 3)
	aH, aV := a.DetailBands()
	bH, bV := b.DetailBands()
	assert.Equal(t, aH, bH)
	assert.Equal(t, aV, bV)
}
