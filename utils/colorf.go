package utils

import "math"

// ColorFloat is a straight (not premultiplied) RGBA color in [0, 1].
type ColorFloat [4]float64

var White = ColorFloat{1, 1, 1, 1}

// Hex packs the rgb channels as 0xRRGGBB, truncating each channel to 0..255.
func (c ColorFloat) Hex() int {
	r := int(clamp01(c[0]) * 255)
	g := int(clamp01(c[1]) * 255)
	b := int(clamp01(c[2]) * 255)
	return r<<16 | g<<8 | b
}

func (c ColorFloat) Alpha() float64 {
	return c[3]
}

func (c ColorFloat) Opaque() bool {
	return c[3] == 1.0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// ColorFloatFromHex unpacks a 0xRRGGBB color.
func ColorFloatFromHex(hex int, alpha float64) ColorFloat {
	return ColorFloat{
		float64((hex>>16)&0xff) / 255,
		float64((hex>>8)&0xff) / 255,
		float64(hex&0xff) / 255,
		alpha,
	}
}
