// Package yuv converts between RGB and YUV channel values using the same
// coefficients OpenCV applies for its YUV color conversion:
// https://github.com/opencv/opencv/blob/0e88b49a53842f0f7cdc4c61b98c283be7e5057c/modules/imgproc/src/opencl/color_yuv.cl#L148-L234
package yuv

const delta = 127.5

const (
	yr = 0.299
	yg = 0.587
	yb = 0.114
	uf = 0.492
	vf = 0.877
)

// FromRGB converts 8-bit channel values (0..255 as float64) to YUV.
// U and V are centered on delta so that the neutral chroma value is
// mid-range, as in the 8-bit OpenCV convention.
func FromRGB(r, g, b float64) (y, u, v float64) {
	y = yr*r + yg*g + yb*b
	u = uf*(b-y) + delta
	v = vf*(r-y) + delta
	return
}

const (
	vr = 1.140
	ug = -0.395
	vg = -0.581
	ub = 2.032
)

// ToRGB converts YUV values back to 8-bit RGB channel values.
func ToRGB(y, u, v float64) (r, g, b float64) {
	uDelta := u - delta
	vDelta := v - delta
	r = y + vr*vDelta
	g = y + ug*uDelta + vg*vDelta
	b = y + ub*uDelta
	return
}

// Clip8 clamps a channel value into the 8-bit range.
func Clip8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
