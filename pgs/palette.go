package pgs

import "github.com/ristryder/gosd/colorspace"

// Entries with an alpha below this are snapped to black so scaling
// artifacts can't bleed palette colors into transparent regions.
const alphaCrop = 14

// palette maps 8-bit pixel codes to premultiplied BGRA. Entries are
// stored as the stream's limited-range YCbCr plus alpha and converted
// through the colorspace matrices on assignment; every unset entry is
// fully transparent. Index 0xFF gets no special treatment.
type palette struct {
	bgra   [256][4]byte
	alpha  [256]byte
	matrix colorspace.Matrix
}

// newPalette returns an all-transparent palette. HD streams (>= 720
// lines) use BT.709, SD streams BT.601.
func newPalette(videoHeight int) *palette {
	m := colorspace.MatrixBT601
	if videoHeight >= 720 {
		m = colorspace.MatrixBT709
	}
	return &palette{matrix: m}
}

// apply folds one palette definition's entries into p. Each entry is 5
// bytes: index, Y, Cr, Cb, alpha. A fading-out entry (alpha below the
// current one) keeps its previous alpha, matching players that suppress
// palette-driven fade-outs.
func (p *palette) apply(pu paletteUpdate) {
	for i := 0; i+5 <= len(pu.Entries); i += 5 {
		idx := pu.Entries[i]
		y := pu.Entries[i+1]
		cr := pu.Entries[i+2]
		cb := pu.Entries[i+3]
		a := pu.Entries[i+4]

		if a >= p.alpha[idx] {
			if a < alphaCrop {
				y, cr, cb = 16, 128, 128
			}
			p.alpha[idx] = a
		} else {
			a = p.alpha[idx]
		}

		p.set(idx, y, cb, cr, a)
	}
}

func (p *palette) set(idx, y, cb, cr, a byte) {
	rf, gf, bf := colorspace.YUVToRGB(
		float64(y)/255, float64(cb)/255, float64(cr)/255,
		p.matrix, colorspace.LevelsLimited)

	af := float64(a) / 255
	p.bgra[idx] = [4]byte{
		quant8(bf * af),
		quant8(gf * af),
		quant8(rf * af),
		a,
	}
	p.alpha[idx] = a
}

func quant8(v float64) byte {
	v = v*255 + 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
