package dwt

// Pyramid is a multi-level Haar decomposition of one channel plane.
//
// The input is padded by edge replication on the right and bottom so that
// both dimensions are multiples of 2^levels. The padding is deterministic:
// the same plane always produces the same pyramid, so embed and extract
// paths agree on coefficient positions. Inverse reconstruction crops the
// padding away again.
type Pyramid struct {
	levels        int
	width, height int // original dimensions
	padW, padH    int // padded dimensions, multiples of 2^levels

	// details[l] holds the cH, cV, cD bands of decomposition level l+1,
	// each of size (padW>>(l+1)) * (padH>>(l+1)).
	details [][3][]float64
	// approx is the lowest-frequency band after the deepest decomposition.
	approx []float64
}

// Decompose builds a levels-deep Haar pyramid of a row-major plane.
// levels must be >= 1.
func Decompose(data []float64, width, levels int) *Pyramid {
	height := len(data) / width
	step := 1 << levels
	p := &Pyramid{
		levels: levels,
		width:  width,
		height: height,
		padW:   ceilMultiple(width, step),
		padH:   ceilMultiple(height, step),
	}

	cur := pad(data, width, height, p.padW, p.padH)
	w, h := p.padW, p.padH
	for range levels {
		cA, cH, cV, cD := forward(cur, w, h)
		p.details = append(p.details, [3][]float64{cH, cV, cD})
		cur = cA
		w, h = w/2, h/2
	}
	p.approx = cur
	return p
}

// DetailBands returns the cH and cV bands of the deepest level. These are
// the mid-frequency coefficients used as the embedding carrier; callers may
// mutate them in place before Reconstruct.
func (p *Pyramid) DetailBands() (cH, cV []float64) {
	deepest := p.details[p.levels-1]
	return deepest[0], deepest[1]
}

// Reconstruct inverts the pyramid and returns the plane cropped back to the
// original dimensions.
func (p *Pyramid) Reconstruct() []float64 {
	cur := p.approx
	for l := p.levels - 1; l >= 0; l-- {
		w := p.padW >> l
		h := p.padH >> l
		d := p.details[l]
		cur = inverse(cur, d[0], d[1], d[2], w, h)
	}
	return crop(cur, p.padW, p.width, p.height)
}

func ceilMultiple(v, m int) int {
	return (v + m - 1) / m * m
}

// pad copies data into a padW x padH plane, replicating the last column and
// row into the padding area.
func pad(data []float64, w, h, padW, padH int) []float64 {
	if w == padW && h == padH {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}
	out := make([]float64, padW*padH)
	for y := range padH {
		sy := y
		if sy >= h {
			sy = h - 1
		}
		for x := range padW {
			sx := x
			if sx >= w {
				sx = w - 1
			}
			out[y*padW+x] = data[sy*w+sx]
		}
	}
	return out
}

func crop(data []float64, stride, w, h int) []float64 {
	if stride == w && len(data) == w*h {
		return data
	}
	out := make([]float64, w*h)
	for y := range h {
		copy(out[y*w:(y+1)*w], data[y*stride:y*stride+w])
	}
	return out
}
