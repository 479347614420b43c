// Package frame provides the planar pixel-buffer primitives the compositor
// core is built on: allocation, format/size assignment, zero-copy
// cropping, rect clearing, pixel addressing, attribute copying and
// parameter equality.
package frame

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/ristryder/gosd/colorspace"
	"github.com/ristryder/gosd/imgfmt"
)

// Params describes a destination's pixel format, size and colorspace, the
// unit the Pipeline Builder compares across calls to detect a parameter
// change.
type Params struct {
	Format string
	W, H   int
	Color  colorspace.Params
}

// Equal reports whether two Params are identical in every field the
// compositor cache keys its pipelines on.
func (p Params) Equal(o Params) bool {
	return p.Format == o.Format && p.W == o.W && p.H == o.H && p.Color.Equal(o.Color)
}

// Image is a reference to a planar pixel buffer: per-plane byte slices,
// strides, logical size and the format descriptor. Cropping re-slices the
// existing plane buffers rather than copying, so views (like the alpha
// plane alias the Overlay Converter builds) share backing storage with
// the image they were derived from.
type Image struct {
	Format imgfmt.Desc
	W, H   int
	Stride [imgfmt.MaxPlanes]int
	Planes [imgfmt.MaxPlanes][]byte
	Color  colorspace.Params
}

func ceilDivInt(v, d int) int {
	return (v + d - 1) / d
}

// Alloc allocates a new zeroed Image of the given format and size.
func Alloc(formatName string, w, h int) (*Image, error) {
	desc, ok := imgfmt.Get(formatName)
	if !ok {
		return nil, errors.Newf("frame: unknown format %q", formatName)
	}
	if w <= 0 || h <= 0 {
		return nil, errors.Newf("frame: invalid size %dx%d", w, h)
	}

	img := &Image{Format: desc, W: w, H: h}
	for i := 0; i < int(desc.NumPlanes); i++ {
		xs, ys := desc.PlaneShift(i)
		pw := ceilDivInt(w, 1<<xs)
		ph := ceilDivInt(h, 1<<ys)
		stride := pw * desc.BytesPerPixel(i)
		img.Stride[i] = stride
		img.Planes[i] = make([]byte, stride*ph)
	}
	return img, nil
}

// SetFormat reassigns the format descriptor without touching plane data.
// Used by callers that build a view over an existing buffer (e.g. the
// alpha-plane alias) rather than allocating fresh storage.
func (img *Image) SetFormat(d imgfmt.Desc) {
	img.Format = d
}

// SetSize updates logical dimensions in place; callers must ensure the
// backing planes are large enough.
func (img *Image) SetSize(w, h int) {
	img.W, img.H = w, h
}

// Cropped returns a new Image value describing the sub-rectangle
// [x0,y0)-[x1,y1) of img, sharing backing storage (a Go slice re-slice,
// not a copy). x0/y0/x1/y1 are in full-resolution (plane 0) coordinates.
func (img Image) Cropped(x0, y0, x1, y1 int) Image {
	out := img
	out.W = x1 - x0
	out.H = y1 - y0
	for i := 0; i < int(img.Format.NumPlanes); i++ {
		xs, ys := img.Format.PlaneShift(i)
		px := x0 >> xs
		py := y0 >> ys
		off := py*img.Stride[i] + px*img.Format.BytesPerPixel(i)
		out.Planes[i] = img.Planes[i][off:]
	}
	return out
}

// PixelPtr returns the byte slice starting at pixel (x, y) of the given
// plane, in full-resolution coordinates; the plane's own chroma shift is
// applied internally.
func (img *Image) PixelPtr(plane, x, y int) []byte {
	xs, ys := img.Format.PlaneShift(plane)
	off := (y>>ys)*img.Stride[plane] + (x>>xs)*img.Format.BytesPerPixel(plane)
	return img.Planes[plane][off:]
}

// Float32Row returns n float32 samples starting at pixel (x, y) of the
// given plane, in full-resolution coordinates. The plane must belong to a
// float format; the returned slice aliases the plane's backing bytes.
func (img *Image) Float32Row(plane, x, y, n int) []float32 {
	b := img.PixelPtr(plane, x, y)
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), n)
}

// ClearRect zeroes the rectangle [x0,y0)-[x1,y1) (full-resolution
// coordinates) in every plane.
func (img *Image) ClearRect(x0, y0, x1, y1 int) {
	for i := 0; i < int(img.Format.NumPlanes); i++ {
		xs, ys := img.Format.PlaneShift(i)
		bpp := img.Format.BytesPerPixel(i)
		px0, px1 := x0>>xs, ceilDivInt(x1, 1<<xs)
		py0, py1 := y0>>ys, ceilDivInt(y1, 1<<ys)
		for y := py0; y < py1; y++ {
			row := img.Planes[i][y*img.Stride[i]:]
			for x := px0; x < px1; x++ {
				off := x * bpp
				for b := 0; b < bpp; b++ {
					row[off+b] = 0
				}
			}
		}
	}
}

// CopyAttributes copies colorspace attributes (but not format or size)
// from src.
func (img *Image) CopyAttributes(src *Image) {
	img.Color = src.Color
}

// ParamsEqual reports whether a and b describe the same destination
// parameters; a thin wrapper so callers can treat Params equality as a
// named operation.
func ParamsEqual(a, b Params) bool {
	return a.Equal(b)
}
