package isolate

import "math"

// sRGB(D65) 与 8 位 Lab 的互转。L 缩放到 0..255，a/b 偏移 +128，
// 与 OpenCV 的 8 位约定一致，阈值常量才能直接沿用。

func srgbToLinear(c uint8) float64 {
	v := float64(c) / 255.0
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	var c float64
	if v <= 0.0031308 {
		c = v * 12.92
	} else {
		c = 1.055*math.Pow(v, 1/2.4) - 0.055
	}
	if c >= 1 {
		return 255
	}
	return uint8(c*255 + 0.5)
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

func labFInv(t float64) float64 {
	if t3 := t * t * t; t3 > 0.008856 {
		return t3
	}
	return (t - 16.0/116.0) / 7.787
}

const (
	xn = 0.950456
	zn = 1.088754
)

func bgrToLab(b, g, r uint8) (uint8, uint8, uint8) {
	rl := srgbToLinear(r)
	gl := srgbToLinear(g)
	bl := srgbToLinear(b)

	x := (0.412453*rl + 0.357580*gl + 0.180423*bl) / xn
	y := 0.212671*rl + 0.715160*gl + 0.072169*bl
	z := (0.019334*rl + 0.119193*gl + 0.950227*bl) / zn

	fx, fy, fz := labF(x), labF(y), labF(z)
	l := 116*fy - 16
	a := 500 * (fx - fy)
	bb := 200 * (fy - fz)

	return clampByte(l * 255 / 100), clampByte(a + 128), clampByte(bb + 128)
}

func labToBGR(l, a, bb uint8) (uint8, uint8, uint8) {
	lf := float64(l) * 100 / 255
	af := float64(a) - 128
	bf := float64(bb) - 128

	fy := (lf + 16) / 116
	fx := fy + af/500
	fz := fy - bf/200

	x := labFInv(fx) * xn
	y := labFInv(fy)
	z := labFInv(fz) * zn

	rl := 3.240479*x - 1.537150*y - 0.498535*z
	gl := -0.969256*x + 1.875992*y + 0.041556*z
	bl := 0.055648*x - 0.204043*y + 1.057311*z

	return linearToSRGB(bl), linearToSRGB(gl), linearToSRGB(rl)
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
