package overlay

import (
	"github.com/cockroachdb/errors"

	"github.com/ristryder/gosd/frame"
	"github.com/ristryder/gosd/slicemap"
)

// blendLineF32 is the per-line blend contract: premultiplied source over
// destination, all samples normalized floats.
func blendLineF32(dst, src, srcA []float32) {
	for x := range dst {
		dst[x] = src[x] + dst[x]*(1-srcA[x])
	}
}

// blendOverlayWithVideo repacks every dirty slice of target and the
// overlay into float, blends per plane, and repacks the result back.
func (c *Cache) blendOverlayWithVideo(target *frame.Image) error {
	if err := c.videoToF32.ConfigBuffers(c.videoTmp, target); err != nil {
		return err
	}
	if err := c.videoFromF32.ConfigBuffers(target, c.videoTmp); err != nil {
		return err
	}

	xs := int(target.Format.ChromaXS)
	ys := int(target.Format.ChromaYS)

	for y := 0; y < target.H; y += c.alignY {
		for sx := 0; sx < c.smap.SW; sx++ {
			s := c.smap.At(y, sx)

			w := int(s.X1) - int(s.X0)
			if w <= 0 {
				continue
			}
			x := sx*slicemap.SliceW + int(s.X0)

			if x%c.alignX != 0 || w%c.alignX != 0 || x+w > c.w {
				panic(errors.Newf("overlay: misaligned slice x=%d w=%d align=%d",
					x, w, c.alignX))
			}

			c.overlayToF32.Line(0, 0, x, y, w)
			c.videoToF32.Line(0, 0, x, y, w)
			if c.calphaToF32 != nil {
				c.calphaToF32.Line(0, 0, x>>xs, y>>ys, w>>xs)
			}

			c.blendSlice(w)

			c.videoFromF32.Line(x, y, 0, 0, w)
		}
	}

	return nil
}

// blendSlice blends w pixels of the float slice buffers, plane by plane.
// A band covers alignY luma rows, which is one row for each fully
// subsampled chroma plane. Subsampled planes take their alpha from the
// chroma-sized alpha slice, full-size planes from the overlay's own alpha
// plane.
func (c *Cache) blendSlice(w int) {
	vid := c.videoTmp
	ov := c.overlayTmp

	chromaYS := int(vid.Format.ChromaYS)
	ovAlpha := int(ov.Format.NumPlanes) - 1

	for plane := 0; plane < int(vid.Format.NumPlanes); plane++ {
		pxs, pys := vid.Format.PlaneShift(plane)
		h := (1 << chromaYS) - (1 << pys) + 1
		cw := (w + (1 << pxs) - 1) >> pxs

		for y := 0; y < h; y++ {
			var srcA []float32
			if pxs != 0 || pys != 0 {
				srcA = c.calphaTmp.Float32Row(0, 0, y, cw)
			} else {
				srcA = ov.Float32Row(ovAlpha, 0, y, cw)
			}

			c.blendLine(vid.Float32Row(plane, 0, y, cw),
				ov.Float32Row(plane, 0, y, cw), srcA)
		}
	}
}
