// Package scale is the converter backend behind the compositor: geometric
// resampling of BGRA and gray images, conversion of the premultiplied
// BGRA overlay into a planar video-colorspace format, and the alpha-mode
// (premultiply/unpremultiply) conversions the premul wrap needs.
// Resampling is delegated to golang.org/x/image/draw, whose RGBA fast
// paths interpolate raw alpha-premultiplied bytes, which is exactly the
// encoding of all bitmaps passing through here.
package scale

import (
	"image"

	"github.com/cockroachdb/errors"
	xdraw "golang.org/x/image/draw"

	"github.com/ristryder/gosd/colorspace"
	"github.com/ristryder/gosd/frame"
	"github.com/ristryder/gosd/imgfmt"
)

// Context performs scaling and conversion between two images. A zero
// Context is not valid; use Alloc.
type Context struct {
	// Scales counts completed Scale calls, so callers (and tests) can
	// observe whether cached results were reused.
	Scales int
}

// Alloc returns a new scaler context.
func Alloc() *Context {
	return &Context{}
}

// Supports reports whether Scale can convert srcFmt into dstFmt. A
// same-format pair is reported as supported for any registered format,
// although Scale handles same-format pairs only as bgra8 or gray8
// resampling and as same-size alpha-mode conversion.
func (c *Context) Supports(dstFmt, srcFmt string) bool {
	if srcFmt == dstFmt {
		_, ok := imgfmt.Get(srcFmt)
		return ok
	}
	if srcFmt == "bgra8" {
		dst, ok := imgfmt.Get(dstFmt)
		if !ok || dst.ComponentType != imgfmt.ComponentUInt || dst.ComponentSize != 1 {
			return false
		}
		return planeByComponent(dst, imgfmt.CompLuma) >= 0
	}
	return false
}

// Scale converts src into dst. Same-format pairs of equal size with
// differing alpha modes premultiply or unpremultiply; other bgra8->bgra8
// and gray8->gray8 pairs resample; bgra8 sources convert into the
// destination's planar colorspace. Anything else fails.
func (c *Context) Scale(dst, src *frame.Image) error {
	df, sf := dst.Format.Name, src.Format.Name

	switch {
	case df == sf && dst.W == src.W && dst.H == src.H &&
		dst.Color.Alpha != src.Color.Alpha:
		if err := alphaConvert(dst, src); err != nil {
			return err
		}

	case df == "bgra8" && sf == "bgra8":
		xdraw.BiLinear.Scale(rgbaWrap(dst), image.Rect(0, 0, dst.W, dst.H),
			rgbaWrap(src), image.Rect(0, 0, src.W, src.H), xdraw.Src, nil)

	case df == "gray8" && sf == "gray8":
		if err := grayScale(dst, src); err != nil {
			return err
		}

	case sf == "bgra8":
		if err := convertToPlanar(dst, src); err != nil {
			return err
		}

	default:
		return errors.Newf("scale: unsupported conversion %q -> %q", sf, df)
	}

	c.Scales++
	return nil
}

// rgbaWrap views a bgra8 plane as *image.RGBA without copying. The
// channel order differs from image.RGBA but resampling is
// channel-agnostic, and both encodings are alpha-premultiplied.
func rgbaWrap(img *frame.Image) *image.RGBA {
	end := (img.H-1)*img.Stride[0] + img.W*4
	return &image.RGBA{
		Pix:    img.Planes[0][:end],
		Stride: img.Stride[0],
		Rect:   image.Rect(0, 0, img.W, img.H),
	}
}

func grayWrap(img *frame.Image) *image.Gray {
	end := (img.H-1)*img.Stride[0] + img.W
	return &image.Gray{
		Pix:    img.Planes[0][:end],
		Stride: img.Stride[0],
		Rect:   image.Rect(0, 0, img.W, img.H),
	}
}

// grayScale resamples a single gray plane. Integer downscale factors use
// an exact box filter, which keeps the chroma-sized alpha plane bit-exact
// with the per-pixel math of convertToPlanar; everything else goes
// through the generic resampler.
func grayScale(dst, src *frame.Image) error {
	if dst.W == src.W && dst.H == src.H {
		copyPlane(dst, src, 0)
		return nil
	}
	if dst.W > 0 && dst.H > 0 && src.W%dst.W == 0 && src.H%dst.H == 0 {
		boxDownGray(dst, src, src.W/dst.W, src.H/dst.H)
		return nil
	}
	xdraw.BiLinear.Scale(grayWrap(dst), image.Rect(0, 0, dst.W, dst.H),
		grayWrap(src), image.Rect(0, 0, src.W, src.H), xdraw.Src, nil)
	return nil
}

func boxDownGray(dst, src *frame.Image, fx, fy int) {
	total := fx * fy
	for y := 0; y < dst.H; y++ {
		drow := dst.Planes[0][y*dst.Stride[0]:]
		for x := 0; x < dst.W; x++ {
			sum := 0
			for sy := 0; sy < fy; sy++ {
				srow := src.Planes[0][(y*fy+sy)*src.Stride[0]:]
				for sx := 0; sx < fx; sx++ {
					sum += int(srow[x*fx+sx])
				}
			}
			drow[x] = byte((sum + total/2) / total)
		}
	}
}

func copyPlane(dst, src *frame.Image, p int) {
	xs, ys := dst.Format.PlaneShift(p)
	pw := ((dst.W + (1 << xs) - 1) >> xs) * dst.Format.BytesPerPixel(p)
	ph := (dst.H + (1 << ys) - 1) >> ys
	for y := 0; y < ph; y++ {
		copy(dst.Planes[p][y*dst.Stride[p]:y*dst.Stride[p]+pw],
			src.Planes[p][y*src.Stride[p]:])
	}
}

// alphaConvert premultiplies (or unpremultiplies) src into dst of the
// same format and size. In encoded space, premultiplying scales every
// non-alpha sample linearly toward zero by its pixel's alpha; for
// subsampled chroma the alpha is box-averaged over the chroma block.
func alphaConvert(dst, src *frame.Image) error {
	toPremul := dst.Color.Alpha == colorspace.AlphaPremul
	if !toPremul && src.Color.Alpha != colorspace.AlphaPremul {
		return errors.New("scale: alpha conversion without premul side")
	}

	d := dst.Format
	ap := d.AlphaPlane()
	if ap < 0 {
		return errors.Newf("scale: alpha conversion on alpha-less %q", d.Name)
	}

	if d.NumPlanes == 1 {
		packedAlphaConvert(dst, src, toPremul)
		return nil
	}

	for p := 0; p < int(d.NumPlanes); p++ {
		if p == ap {
			copyPlane(dst, src, p)
			continue
		}
		xs, ys := d.PlaneShift(p)
		pw := (dst.W + (1 << xs) - 1) >> xs
		ph := (dst.H + (1 << ys) - 1) >> ys
		for y := 0; y < ph; y++ {
			drow := dst.Planes[p][y*dst.Stride[p]:]
			srow := src.Planes[p][y*src.Stride[p]:]
			for x := 0; x < pw; x++ {
				a := blockAlpha(src, ap, x<<xs, y<<ys, 1<<xs, 1<<ys)
				if toPremul {
					drow[x] = byte((int(srow[x])*a + 127) / 255)
				} else if a == 0 {
					drow[x] = 0
				} else {
					v := (int(srow[x])*255 + a/2) / a
					if v > 255 {
						v = 255
					}
					drow[x] = byte(v)
				}
			}
		}
	}
	return nil
}

// blockAlpha averages the alpha plane over a w x h block at (x, y),
// clipped to the image.
func blockAlpha(img *frame.Image, ap, x, y, w, h int) int {
	sum, n := 0, 0
	for sy := 0; sy < h && y+sy < img.H; sy++ {
		row := img.Planes[ap][(y+sy)*img.Stride[ap]:]
		for sx := 0; sx < w && x+sx < img.W; sx++ {
			sum += int(row[x+sx])
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return (sum + n/2) / n
}

func packedAlphaConvert(dst, src *frame.Image, toPremul bool) {
	d := dst.Format
	ac := d.PlaneComponentIndex(0, imgfmt.CompAlpha)
	for y := 0; y < dst.H; y++ {
		drow := dst.Planes[0][y*dst.Stride[0]:]
		srow := src.Planes[0][y*src.Stride[0]:]
		for x := 0; x < dst.W; x++ {
			px := x * 4
			a := int(srow[px+ac])
			for cidx := 0; cidx < 4; cidx++ {
				if cidx == ac {
					drow[px+cidx] = srow[px+cidx]
					continue
				}
				if toPremul {
					drow[px+cidx] = byte((int(srow[px+cidx])*a + 127) / 255)
				} else if a == 0 {
					drow[px+cidx] = 0
				} else {
					v := (int(srow[px+cidx])*255 + a/2) / a
					if v > 255 {
						v = 255
					}
					drow[px+cidx] = byte(v)
				}
			}
		}
	}
}

func planeByComponent(d imgfmt.Desc, comp uint8) int {
	for p := 0; p < int(d.NumPlanes); p++ {
		if d.Planes[p].NumComponents == 1 && d.Planes[p].Components[0] == comp {
			return p
		}
	}
	return -1
}
