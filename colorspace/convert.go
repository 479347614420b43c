package colorspace

// Coefficients for the YUV<->RGB matrices, indexed by Matrix, expressed
// as luma weights rather than fixed-point tables since the blending core
// works on normalized [0,1] float planes.
type matrixCoeffs struct {
	kr, kb float64 // luma weights for R and B (G weight is 1-kr-kb)
}

var coeffsFor = map[Matrix]matrixCoeffs{
	MatrixBT601:     {kr: 0.299, kb: 0.114},
	MatrixBT709:     {kr: 0.2126, kb: 0.0722},
	MatrixBT2020NCL: {kr: 0.2627, kb: 0.0593},
}

// lumaRange and chromaRange return the normalized footroom/span used to
// map a full-range [0,1] luma or chroma sample into limited range encoding.
// For 8 bit limited range, luma uses [16,235]/255 and chroma uses
// [16,240]/255, i.e. footroom 16/255 and span 219/255 or 224/255.
func lumaRange(levels Levels) (footroom, span float64) {
	if levels == LevelsLimited {
		return 16.0 / 255.0, 219.0 / 255.0
	}
	return 0, 1
}

func chromaRange(levels Levels) (footroom, span float64) {
	if levels == LevelsLimited {
		return 16.0 / 255.0, 224.0 / 255.0
	}
	return 0, 1
}

// RGBToYUV converts a normalized (straight, non-premultiplied) RGB triple
// in [0,1] into normalized Y/U/V samples in [0,1], already encoded for the
// requested matrix and range. For MatrixRGB it is the identity.
func RGBToYUV(r, g, b float64, m Matrix, levels Levels) (y, u, v float64) {
	if m == MatrixRGB {
		return r, g, b
	}

	c := coeffsFor[m]
	kg := 1 - c.kr - c.kb

	luma := c.kr*r + kg*g + c.kb*b
	cb := (b - luma) / (2 * (1 - c.kb))
	cr := (r - luma) / (2 * (1 - c.kr))

	lf, ls := lumaRange(levels)
	cf, cs := chromaRange(levels)

	y = lf + luma*ls
	u = cf + (cb+0.5)*cs
	v = cf + (cr+0.5)*cs
	return
}

// YUVToRGB is the inverse of RGBToYUV: given normalized Y/U/V samples in
// [0,1] encoded for matrix m and the given range, it returns normalized
// straight RGB in [0,1].
func YUVToRGB(y, u, v float64, m Matrix, levels Levels) (r, g, b float64) {
	if m == MatrixRGB {
		return y, u, v
	}

	c := coeffsFor[m]
	kg := 1 - c.kr - c.kb

	lf, ls := lumaRange(levels)
	cf, cs := chromaRange(levels)

	luma := (y - lf) / ls
	cb := (u-cf)/cs - 0.5
	cr := (v-cf)/cs - 0.5

	r = luma + 2*(1-c.kr)*cr
	b = luma + 2*(1-c.kb)*cb
	g = (luma - c.kr*r - c.kb*b) / kg
	return
}

// NeutralChroma returns the normalized chroma sample value that encodes
// "no color" (gray) for the given matrix/range: 0.5 for RGB (unused), and
// the footroom-centered value for YUV.
func NeutralChroma(m Matrix, levels Levels) float64 {
	if m == MatrixRGB {
		return 0.5
	}
	cf, cs := chromaRange(levels)
	return cf + 0.5*cs
}
