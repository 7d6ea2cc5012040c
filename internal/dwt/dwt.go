package dwt

import "math"

// cacd computes one orthonormal Haar pair: the scaled average and the
// scaled difference of two samples.
func cacd(v1, v2 float64) (float64, float64) {
	avr := (v1 + v2) / 2.0
	return avr * math.Sqrt2, (v1 - avr) * math.Sqrt2
}

func icacd(a, d float64) (float64, float64) {
	avr := a / math.Sqrt2
	return avr + d/math.Sqrt2, avr - d/math.Sqrt2
}

// forward performs one 2D Haar decomposition of data (w x h, both even)
// into quarter-size cA, cH, cV, cD bands.
func forward(data []float64, w, h int) (cA, cH, cV, cD []float64) {
	hw, hh := w/2, h/2
	l := hw * hh
	cA = make([]float64, l)
	cH = make([]float64, l)
	cV = make([]float64, l)
	cD = make([]float64, l)

	for y0 := 0; y0 < h; y0 += 2 {
		y1 := y0 + 1
		for x0 := 0; x0 < w; x0 += 2 {
			x1 := x0 + 1
			a1, d1 := cacd(data[y0*w+x0], data[y1*w+x0])
			a2, d2 := cacd(data[y0*w+x1], data[y1*w+x1])

			idx := (y0/2)*hw + (x0 / 2)
			cA[idx], cV[idx] = cacd(a1, a2)
			cH[idx], cD[idx] = cacd(d1, d2)
		}
	}
	return
}

// inverse reconstructs a w x h plane from quarter-size bands.
func inverse(cA, cH, cV, cD []float64, w, h int) []float64 {
	data := make([]float64, w*h)
	hw := w / 2
	for y0 := 0; y0 < h; y0 += 2 {
		for x0 := 0; x0 < w; x0 += 2 {
			idx := (y0/2)*hw + (x0 / 2)

			a1, a2 := icacd(cA[idx], cV[idx])
			d1, d2 := icacd(cH[idx], cD[idx])

			v1, v2 := icacd(a1, d1)
			v3, v4 := icacd(a2, d2)

			data[y0*w+x0] = v1
			data[(y0+1)*w+x0] = v2
			data[y0*w+(x0+1)] = v3
			data[(y0+1)*w+(x0+1)] = v4
		}
	}
	return data
}
