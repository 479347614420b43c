// Package repack moves row bands between a byte-layout pixel format and
// its fully planar float32 companion. Packed components are split into
// one plane each, 8-bit samples are normalized to [0,1], and subsampled
// chroma planes move at their own resolution. One Line call transforms a
// band of AlignY luma rows, which is the granularity the blender works
// at.
package repack

import (
	"github.com/cockroachdb/errors"

	"github.com/ristryder/gosd/frame"
	"github.com/ristryder/gosd/imgfmt"
)

// Repack converts between one external format and its float32 companion.
// Direction is fixed at creation: forward unpacks bytes into float, a
// reverse context packs float back into bytes.
type Repack struct {
	ext     imgfmt.Desc
	flt     imgfmt.Desc
	reverse bool

	dst, src *frame.Image
}

// CreatePlanar builds a context for the named byte format. reverse=false
// converts format -> float planes, reverse=true converts float planes ->
// format.
func CreatePlanar(formatName string, reverse bool) (*Repack, error) {
	ext, ok := imgfmt.Get(formatName)
	if !ok {
		return nil, errors.Newf("repack: unknown format %q", formatName)
	}
	if ext.ComponentType != imgfmt.ComponentUInt || ext.ComponentSize != 1 {
		return nil, errors.Newf("repack: format %q not 8-bit integer", formatName)
	}
	return &Repack{
		ext:     ext,
		flt:     imgfmt.FloatCompanion(ext),
		reverse: reverse,
	}, nil
}

// SrcFormat returns the format name Line reads from.
func (r *Repack) SrcFormat() string {
	if r.reverse {
		return r.flt.Name
	}
	return r.ext.Name
}

// DstFormat returns the format name Line writes to.
func (r *Repack) DstFormat() string {
	if r.reverse {
		return r.ext.Name
	}
	return r.flt.Name
}

// AlignX returns the horizontal pixel alignment Line requires.
func (r *Repack) AlignX() int {
	return 1 << r.ext.ChromaXS
}

// AlignY returns the band height Line operates on.
func (r *Repack) AlignY() int {
	return 1 << r.ext.ChromaYS
}

// ConfigBuffers wires the images subsequent Line calls operate on. The
// image formats must match the context's direction.
func (r *Repack) ConfigBuffers(dst, src *frame.Image) error {
	if dst.Format.Name != r.DstFormat() || src.Format.Name != r.SrcFormat() {
		return errors.Newf("repack: buffer formats %q -> %q, want %q -> %q",
			src.Format.Name, dst.Format.Name, r.SrcFormat(), r.DstFormat())
	}
	r.dst, r.src = dst, src
	return nil
}

// Line transforms one band of up to AlignY rows, w pixels wide, reading
// at (srcX, srcY) and writing at (dstX, dstY). Coordinates are in
// full-resolution (luma) pixels and must be aligned to AlignX/AlignY; w
// may be unaligned and is rounded up per subsampled plane. The band is
// clipped against the byte-side image's height.
func (r *Repack) Line(dstX, dstY, srcX, srcY, w int) {
	extImg, fltImg := r.dst, r.src
	extX, extY := dstX, dstY
	fltX, fltY := srcX, srcY
	if !r.reverse {
		extImg, fltImg = r.src, r.dst
		extX, extY = srcX, srcY
		fltX, fltY = dstX, dstY
	}

	// The band is clipped against the byte-side image, whose logical size
	// may be less than the alignment-rounded overlay size.
	h := r.AlignY()
	if rem := extImg.H - extY; rem < h {
		h = rem
	}
	if rem := extImg.W - extX; rem < w {
		w = rem
	}
	if h <= 0 || w <= 0 {
		return
	}

	fi := 0
	for p := 0; p < int(r.ext.NumPlanes); p++ {
		xs, ys := r.ext.PlaneShift(p)
		bpp := r.ext.BytesPerPixel(p)
		comps := int(r.ext.Planes[p].NumComponents)
		rows := (h + (1 << ys) - 1) >> ys
		pw := (w + (1 << xs) - 1) >> xs

		for c := 0; c < comps; c++ {
			for ry := 0; ry < rows; ry++ {
				// ry<<ys lands on plane row (y>>ys)+ry after PixelPtr's
				// shift; the float companion keeps the same shifts.
				eb := extImg.PixelPtr(p, extX, extY+(ry<<ys))
				fr := fltImg.Float32Row(fi, fltX, fltY+(ry<<ys), pw)

				if r.reverse {
					for i := 0; i < pw; i++ {
						eb[i*bpp+c] = quantize(fr[i])
					}
				} else {
					for i := 0; i < pw; i++ {
						fr[i] = float32(eb[i*bpp+c]) / 255
					}
				}
			}
			fi++
		}
	}
}

func quantize(f float32) byte {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return byte(f*255 + 0.5)
}
