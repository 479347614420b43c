package overlay

import (
	"github.com/cockroachdb/errors"

	"github.com/ristryder/gosd/frame"
	"github.com/ristryder/gosd/imgfmt"
	"github.com/ristryder/gosd/subbitmap"
)

func (c *Cache) renderItem(item *subbitmap.Item) error {
	if item.RenderIndex < 0 || item.RenderIndex >= subbitmap.MaxOSDParts {
		panic(errors.Newf("overlay: render index %d out of range", item.RenderIndex))
	}

	switch item.Format {
	case subbitmap.FormatLibASS:
		c.renderASS(item)
		return nil
	case subbitmap.FormatRGBA:
		return c.renderRGBA(&c.parts[item.RenderIndex], item)
	}
	return errors.Newf("overlay: unsupported bitmap format %d", item.Format)
}

// renderASS blends monochrome coverage bitmaps, tinted by the part color,
// into the BGRA overlay. Parts must be pre-clipped by the producer.
func (c *Cache) renderASS(item *subbitmap.Item) {
	for i := range item.Parts {
		s := &item.Parts[i]

		drawASSRGBA(c.rgbaOverlay.PixelPtr(0, s.X, s.Y), c.rgbaOverlay.Stride[0],
			s.Bitmap, s.Stride, s.W, s.H, s.Color)

		c.smap.MarkRect(s.X, s.Y, s.X+s.W, s.Y+s.H)
	}
}

// drawASSRGBA blends one coverage bitmap. color is 0xRRGGBBAA with the
// low byte holding inverse alpha; the overlay is premultiplied BGRA.
func drawASSRGBA(dst []byte, dstStride int, src []byte, srcStride, w, h int, color uint32) {
	r := (color >> 24) & 0xff
	g := (color >> 16) & 0xff
	b := (color >> 8) & 0xff
	a := 0xff - color&0xff

	for y := 0; y < h; y++ {
		drow := dst[y*dstStride:]
		srow := src[y*srcStride:]
		for x := 0; x < w; x++ {
			v := uint32(srow[x])
			aa := a * v
			px := x * 4
			db := uint32(drow[px])
			dg := uint32(drow[px+1])
			dr := uint32(drow[px+2])
			da := uint32(drow[px+3])
			drow[px] = byte((v*b*a + db*(65025-aa)) / 65025)
			drow[px+1] = byte((v*g*a + dg*(65025-aa)) / 65025)
			drow[px+2] = byte((v*r*a + dr*(65025-aa)) / 65025)
			drow[px+3] = byte((aa*255 + da*(65025-aa)) / 65025)
		}
	}
}

// renderRGBA clips, scales (through the part cache) and blends
// premultiplied BGRA bitmaps into the overlay.
func (c *Cache) renderRGBA(part *part, item *subbitmap.Item) error {
	if part.changeID != item.ChangeID || len(part.imgs) != len(item.Parts) {
		part.imgs = make([]*frame.Image, len(item.Parts))
		part.changeID = item.ChangeID
	}

	for i := range item.Parts {
		s := &item.Parts[i]

		// Clipping is rare but necessary.
		sx0 := s.X
		sy0 := s.Y
		sx1 := s.X + s.DW
		sy1 := s.Y + s.DH

		x0 := clampInt(sx0, 0, c.w)
		y0 := clampInt(sy0, 0, c.h)
		x1 := clampInt(sx1, 0, c.w)
		y1 := clampInt(sy1, 0, c.h)

		dw := x1 - x0
		dh := y1 - y0
		if dw <= 0 || dh <= 0 {
			continue
		}

		// Clip the source rather than the scaled image, so an extreme
		// scale factor can't force a huge scaled allocation.
		sx, sy := 0, 0
		sw, sh := s.W, s.H
		if x0 != sx0 || y0 != sy0 || x1 != sx1 || y1 != sy1 {
			fx := float64(s.DW) / float64(s.W)
			fy := float64(s.DH) / float64(s.H)
			sx = clampInt(int(float64(x0-sx0)/fx), 0, s.W)
			sy = clampInt(int(float64(y0-sy0)/fy), 0, s.H)
			sw = clampInt(int(float64(dw)/fx), 1, s.W)
			sh = clampInt(int(float64(dh)/fy), 1, s.H)
		}

		if sx+sw > s.W || sy+sh > s.H {
			panic(errors.Newf("overlay: source clip (%d,%d)+%dx%d exceeds %dx%d",
				sx, sy, sw, sh, s.W, s.H))
		}

		sStride := s.Stride
		sBuf := s.Bitmap[sy*sStride+sx*4:]

		if dw != sw || dh != sh {
			scaled := part.imgs[i]

			if scaled == nil {
				srcImg := &frame.Image{
					Format: imgfmt.MustGet("bgra8"),
					W:      sw,
					H:      sh,
				}
				srcImg.Planes[0] = sBuf
				srcImg.Stride[0] = sStride
				srcImg.Color = c.rgbaOverlay.Color

				var err error
				if scaled, err = frame.Alloc("bgra8", dw, dh); err != nil {
					return err
				}
				scaled.CopyAttributes(srcImg)
				part.imgs[i] = scaled

				if err = c.subScale.Scale(scaled, srcImg); err != nil {
					return err
				}
			}

			sStride = scaled.Stride[0]
			sBuf = scaled.Planes[0]
		}

		drawRGBA(c.rgbaOverlay.PixelPtr(0, x0, y0), c.rgbaOverlay.Stride[0],
			sBuf, sStride, dw, dh)

		c.smap.MarkRect(x0, y0, x1, y1)
	}

	return nil
}

// drawRGBA blends a premultiplied BGRA bitmap over the premultiplied
// overlay: D = S + D*(1 - Sa), per channel in 8-bit fixed point.
func drawRGBA(dst []byte, dstStride int, src []byte, srcStride, w, h int) {
	for y := 0; y < h; y++ {
		drow := dst[y*dstStride:]
		srow := src[y*srcStride:]
		for x := 0; x < w; x++ {
			px := x * 4
			sa := uint32(srow[px+3])
			inv := 65025 - sa*255
			for i := 0; i < 4; i++ {
				drow[px+i] = byte(uint32(srow[px+i]) + uint32(drow[px+i])*inv/65025)
			}
		}
	}
}

// clearRGBAOverlay zeroes every dirty run of the overlay and resets the
// dirty map.
func (c *Cache) clearRGBAOverlay() {
	stride := c.rgbaOverlay.Stride[0]
	plane := c.rgbaOverlay.Planes[0]

	c.smap.Clear(func(y, x0, x1 int) {
		row := plane[y*stride:]
		clear(row[x0*4 : x1*4])
	})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
