// Package overlay composites pre-rasterized OSD bitmaps (libass coverage
// bitmaps and premultiplied BGRA images) onto video frames of a
// runtime-variable pixel format. A Cache memoizes the conversion
// pipelines and intermediate images for one destination format and the
// scaled bitmaps of unchanged inputs, so per-frame work is limited to the
// dirty regions of the composed overlay.
package overlay

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/ristryder/gosd/colorspace"
	"github.com/ristryder/gosd/frame"
	"github.com/ristryder/gosd/imgfmt"
	"github.com/ristryder/gosd/repack"
	"github.com/ristryder/gosd/scale"
	"github.com/ristryder/gosd/slicemap"
	"github.com/ristryder/gosd/subbitmap"
)

// Whether to convert the overlay to video colorspace in tiles. Faster for
// sparse OSD, but tile-local scaling cannot honor the global chroma
// position, so tiled conversion forces centered chroma.
const scaleInTiles = true

const tileH = 4

// part holds the cached scaled bitmaps of one input index.
type part struct {
	changeID int64
	imgs     []*frame.Image
}

// Cache owns every intermediate image and converter context needed to
// composite onto one destination format. It is created empty; the first
// Composite call (and any call after the destination parameters change)
// builds the pipeline. A Cache must not be used from multiple goroutines.
type Cache struct {
	parts    [subbitmap.MaxOSDParts]part
	changeID int64

	params frame.Params
	valid  bool

	w, h           int // params.W/H rounded up to alignment
	alignX, alignY int

	rgbaOverlay   *frame.Image // all OSD, bgra8 premultiplied
	videoOverlay  *frame.Image // rgbaOverlay in video colorspace
	alphaOverlay  *frame.Image // view of videoOverlay's alpha plane
	calphaOverlay *frame.Image // alphaOverlay at chroma plane size

	smap *slicemap.Map

	rgbaToOverlay *scale.Context
	alphaToCalpha *scale.Context
	tiled         bool

	subScale *scale.Context // for subbitmap.FormatRGBA parts

	overlayToF32 *repack.Repack
	overlayTmp   *frame.Image // slice in float32

	calphaToF32 *repack.Repack
	calphaTmp   *frame.Image

	videoToF32   *repack.Repack
	videoFromF32 *repack.Repack
	videoTmp     *frame.Image

	premul    *scale.Context
	unpremul  *scale.Context
	premulTmp *frame.Image

	blendLine func(dst, src, srcA []float32)
}

// NewCache returns an empty cache; the pipeline is built on first use.
func NewCache() *Cache {
	return &Cache{}
}

// Composite renders list's bitmaps and blends them onto dst, reusing
// every intermediate that list's change ids prove unchanged. It reports
// success; on failure dst may be partially blended and the cache is reset
// so the next call rebuilds from scratch. dst must be at least as large
// as list's bounding size.
func (c *Cache) Composite(dst *frame.Image, list *subbitmap.List) bool {
	if dst.W < list.W || dst.H < list.H {
		panic(errors.Newf("overlay: destination %dx%d smaller than input %dx%d",
			dst.W, dst.H, list.W, list.H))
	}

	dstParams := frame.Params{Format: dst.Format.Name, W: dst.W, H: dst.H, Color: dst.Color}
	if !c.valid || !frame.ParamsEqual(c.params, dstParams) {
		if err := c.reinit(dstParams); err != nil {
			c.reset()
			return false
		}
	}

	if err := c.draw(dst, list); err != nil {
		c.reset()
		return false
	}
	return true
}

// Composite is the one-shot form: an internal cache is created and
// discarded within the call.
func Composite(dst *frame.Image, list *subbitmap.List) bool {
	return NewCache().Composite(dst, list)
}

func (c *Cache) reset() {
	*c = Cache{}
}

func (c *Cache) draw(dst *frame.Image, list *subbitmap.List) error {
	if c.changeID != list.ChangeID {
		c.changeID = list.ChangeID

		c.clearRGBAOverlay()

		for i := range list.Items {
			if err := c.renderItem(&list.Items[i]); err != nil {
				return err
			}
		}

		if err := c.convertToVideoOverlay(); err != nil {
			return err
		}
	}

	target := dst
	if c.smap.Any() && c.premulTmp != nil {
		if err := c.premul.Scale(c.premulTmp, dst); err != nil {
			return err
		}
		target = c.premulTmp
	}

	if err := c.blendOverlayWithVideo(target); err != nil {
		return err
	}

	if c.smap.Any() && c.premulTmp != nil {
		if err := c.unpremul.Scale(dst, c.premulTmp); err != nil {
			return err
		}
	}

	return nil
}

func alignDown(v, a int) int { return v - v%a }
func alignUp(v, a int) int   { return alignDown(v+a-1, a) }

// reinit tears down all owned intermediates and rebuilds the pipeline for
// the given destination parameters.
func (c *Cache) reinit(params frame.Params) error {
	*c = Cache{params: params}

	desc, ok := imgfmt.Get(params.Format)
	if !ok {
		return errors.Newf("overlay: unknown destination format %q", params.Format)
	}

	needPremul := params.Color.Alpha != colorspace.AlphaPremul && desc.HasAlpha()

	c.blendLine = blendLineF32

	var err error
	if c.videoToF32, err = repack.CreatePlanar(params.Format, false); err != nil {
		return err
	}
	if c.videoFromF32, err = repack.CreatePlanar(params.Format, true); err != nil {
		return err
	}

	c.tiled = scaleInTiles

	vidF32 := c.videoToF32.DstFormat()
	vfdesc := imgfmt.MustGet(vidF32)

	// Pick the intermediate format for videoOverlay: same subsampling as
	// the video, has alpha, 8-bit. RGB destinations need no conversion at
	// all, the overlay is already usable.
	var overlayFmt string
	if params.Color.IsRGB() && vfdesc.NumPlanes >= 3 {
		overlayFmt = "bgra8"
		c.tiled = false
	} else {
		odesc := vfdesc
		odesc.Name = ""
		odesc.ComponentType = imgfmt.ComponentUInt
		odesc.ComponentSize = 1

		last := int(odesc.NumPlanes) - 1
		if odesc.Planes[last].Components[0] != imgfmt.CompAlpha {
			if odesc.NumPlanes >= imgfmt.MaxPlanes {
				return errors.Newf("overlay: no room for alpha plane in companion of %q",
					params.Format)
			}
			odesc.Planes[odesc.NumPlanes] = imgfmt.Plane{
				NumComponents: 1,
				Components:    [imgfmt.MaxPlanes]uint8{imgfmt.CompAlpha},
			}
			odesc.NumPlanes++
		}

		overlayFmt, ok = imgfmt.FindRegular(odesc)
		if !ok {
			return errors.Newf("overlay: no overlay format for %q", params.Format)
		}
		c.tiled = odesc.ChromaXS != 0 || odesc.ChromaYS != 0
	}

	if c.overlayToF32, err = repack.CreatePlanar(overlayFmt, false); err != nil {
		return err
	}

	renderFmt := c.overlayToF32.DstFormat()
	ofdesc := imgfmt.MustGet(renderFmt)

	if ofdesc.Planes[ofdesc.NumPlanes-1].Components[0] != imgfmt.CompAlpha {
		return errors.Newf("overlay: render format %q lacks trailing alpha", renderFmt)
	}

	// The float layouts must agree, minus a possibly missing alpha plane
	// on the video side.
	if ofdesc.NumPlanes != vfdesc.NumPlanes && ofdesc.NumPlanes-1 != vfdesc.NumPlanes {
		return errors.Newf("overlay: plane mismatch %q vs %q", renderFmt, vidF32)
	}
	for n := 0; n < int(vfdesc.NumPlanes); n++ {
		if vfdesc.Planes[n].Components[0] != ofdesc.Planes[n].Components[0] {
			return errors.Newf("overlay: component mismatch %q vs %q", renderFmt, vidF32)
		}
	}

	c.alignX = c.videoToF32.AlignX()
	c.alignY = c.videoToF32.AlignY()

	if c.overlayToF32.AlignX() > c.alignX || c.overlayToF32.AlignY() > c.alignY {
		return errors.Newf("overlay: overlay alignment coarser than video")
	}
	if c.alignX > slicemap.SliceW || c.alignY > tileH {
		return errors.Newf("overlay: alignment %d:%d too coarse", c.alignX, c.alignY)
	}

	c.w = alignUp(params.W, c.alignX)
	c.h = alignUp(params.H, c.alignY)

	// Overlay buffer size. Tiled conversion rounds up to whole tiles so
	// edge tiles need no separate scaler setup.
	w, h := c.w, c.h
	if c.tiled {
		w = alignUp(w, slicemap.SliceW)
		h = alignUp(h, tileH)
	}

	if c.rgbaOverlay, err = frame.Alloc("bgra8", w, h); err != nil {
		return err
	}
	if c.overlayTmp, err = frame.Alloc(renderFmt, slicemap.SliceW, c.alignY); err != nil {
		return err
	}
	if c.videoTmp, err = frame.Alloc(vidF32, slicemap.SliceW, c.alignY); err != nil {
		return err
	}

	c.rgbaOverlay.Color = colorspace.Params{
		Matrix: colorspace.MatrixRGB,
		Levels: colorspace.LevelsFull,
		Alpha:  colorspace.AlphaPremul,
	}
	c.overlayTmp.Color = params.Color
	c.videoTmp.Color = params.Color

	if overlayFmt == c.rgbaOverlay.Format.Name {
		if err = c.overlayToF32.ConfigBuffers(c.overlayTmp, c.rgbaOverlay); err != nil {
			return err
		}
	} else {
		if c.videoOverlay, err = frame.Alloc(overlayFmt, w, h); err != nil {
			return err
		}
		c.videoOverlay.Color = params.Color
		c.videoOverlay.Color.Alpha = colorspace.AlphaPremul
		if c.tiled {
			c.videoOverlay.Color.ChromaLocation = colorspace.ChromaLocationCenter
		}

		c.rgbaToOverlay = scale.Alloc()
		if !c.rgbaToOverlay.Supports(overlayFmt, c.rgbaOverlay.Format.Name) {
			return errors.Newf("overlay: scaler cannot convert bgra8 -> %q", overlayFmt)
		}

		if err = c.overlayToF32.ConfigBuffers(c.overlayTmp, c.videoOverlay); err != nil {
			return err
		}

		// A chroma-sized alpha plane, if the overlay format subsamples.
		xs := int(c.videoOverlay.Format.ChromaXS)
		ys := int(c.videoOverlay.Format.ChromaYS)
		if xs != 0 || ys != 0 {
			if err = c.initChromaAlpha(w, h, xs, ys); err != nil {
				return err
			}
		}
	}

	c.subScale = scale.Alloc()

	c.smap = slicemap.New(c.w, c.h, c.rgbaOverlay.H, c.alignX, c.alignY)

	if needPremul {
		c.premul = scale.Alloc()
		c.unpremul = scale.Alloc()
		if c.premulTmp, err = frame.Alloc(params.Format, params.W, params.H); err != nil {
			return err
		}
		c.premulTmp.Color = params.Color
		c.premulTmp.Color.Alpha = colorspace.AlphaPremul
	}

	c.valid = true
	return nil
}

// initChromaAlpha builds the zero-copy alpha view of videoOverlay, the
// chroma-sized alpha image, and their converter contexts.
func (c *Cache) initChromaAlpha(w, h, xs, ys int) error {
	od := c.videoOverlay.Format
	aplane := int(od.NumPlanes) - 1
	if od.Planes[aplane].NumComponents != 1 ||
		od.Planes[aplane].Components[0] != imgfmt.CompAlpha {
		return errors.Newf("overlay: %q has no trailing alpha plane", od.Name)
	}

	grayDesc := imgfmt.Desc{
		ComponentType: imgfmt.ComponentUInt,
		ComponentSize: od.ComponentSize,
		NumPlanes:     1,
		Planes: [imgfmt.MaxPlanes]imgfmt.Plane{
			{NumComponents: 1, Components: [imgfmt.MaxPlanes]uint8{imgfmt.CompLuma}},
		},
	}
	calphaFmt, ok := imgfmt.FindRegular(grayDesc)
	if !ok {
		return errors.Newf("overlay: no gray companion for alpha of %q", od.Name)
	}

	// Alpha is always full range, like full-range gray.
	acolor := colorspace.Params{Levels: colorspace.LevelsFull}

	c.alphaOverlay = &frame.Image{Color: acolor}
	c.alphaOverlay.SetFormat(imgfmt.MustGet(calphaFmt))
	c.alphaOverlay.SetSize(w, h)
	c.alphaOverlay.Planes[0] = c.videoOverlay.Planes[aplane]
	c.alphaOverlay.Stride[0] = c.videoOverlay.Stride[aplane]

	var err error
	if c.calphaOverlay, err = frame.Alloc(calphaFmt, w>>xs, h>>ys); err != nil {
		return err
	}
	c.calphaOverlay.Color = acolor

	if c.calphaToF32, err = repack.CreatePlanar(calphaFmt, false); err != nil {
		return err
	}
	if c.calphaTmp, err = frame.Alloc(c.calphaToF32.DstFormat(), slicemap.SliceW, 1); err != nil {
		return err
	}
	if err = c.calphaToF32.ConfigBuffers(c.calphaTmp, c.calphaOverlay); err != nil {
		return err
	}

	c.alphaToCalpha = scale.Alloc()
	if !c.alphaToCalpha.Supports(calphaFmt, calphaFmt) {
		return errors.Newf("overlay: scaler cannot resample %q", calphaFmt)
	}
	return nil
}

// DebugInfo reports the chosen alignment and intermediate formats.
func (c *Cache) DebugInfo() string {
	name := func(img *frame.Image) string {
		if img == nil {
			return "none"
		}
		return img.Format.Name
	}
	return fmt.Sprintf("align=%d:%d ov=%-7s, ov_f=%s, v_f=%s, a=%s, ca=%s, ca_f=%s",
		c.alignX, c.alignY,
		name(c.videoOverlay), name(c.overlayTmp), name(c.videoTmp),
		name(c.alphaOverlay), name(c.calphaOverlay), name(c.calphaTmp))
}
