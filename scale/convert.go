package scale

import (
	"github.com/cockroachdb/errors"

	"github.com/ristryder/gosd/colorspace"
	"github.com/ristryder/gosd/frame"
	"github.com/ristryder/gosd/imgfmt"
)

// convertToPlanar converts the premultiplied BGRA overlay into a planar
// 8-bit image in the destination's colorspace, keeping premultiplied
// semantics in encoded space: a pixel's encoded Y/U/V samples (offsets
// included) are scaled by its alpha, so that a transparent pixel encodes
// as zero and the float blend dst = ov + dst*(1-a) reproduces the exact
// encoding of the straight color at full alpha. Subsampled chroma is
// box-averaged, i.e. centered chroma placement.
func convertToPlanar(dst, src *frame.Image) error {
	if dst.W != src.W || dst.H != src.H {
		return errors.Newf("scale: conversion resize %dx%d -> %dx%d unsupported",
			src.W, src.H, dst.W, dst.H)
	}

	d := dst.Format
	lp := planeByComponent(d, imgfmt.CompLuma)
	up := planeByComponent(d, imgfmt.CompChU)
	vp := planeByComponent(d, imgfmt.CompChV)
	ap := planeByComponent(d, imgfmt.CompAlpha)
	if lp < 0 {
		return errors.Newf("scale: %q has no luma plane", d.Name)
	}

	m := dst.Color.Matrix
	levels := dst.Color.GuessLevels()

	xs, ys := int(d.ChromaXS), int(d.ChromaYS)
	bw := 1 << xs
	bh := 1 << ys
	cw := (dst.W + bw - 1) >> xs

	usum := make([]float64, cw)
	vsum := make([]float64, cw)
	cnt := make([]int, cw)

	flush := func(cy int) {
		if up < 0 {
			return
		}
		urow := dst.Planes[up][cy*dst.Stride[up]:]
		vrow := dst.Planes[vp][cy*dst.Stride[vp]:]
		for x := 0; x < cw; x++ {
			n := float64(cnt[x])
			urow[x] = quantize(float32(usum[x] / n))
			vrow[x] = quantize(float32(vsum[x] / n))
			usum[x], vsum[x], cnt[x] = 0, 0, 0
		}
	}

	for y := 0; y < dst.H; y++ {
		srow := src.Planes[0][y*src.Stride[0]:]
		lrow := dst.Planes[lp][y*dst.Stride[lp]:]
		var arow []byte
		if ap >= 0 {
			arow = dst.Planes[ap][y*dst.Stride[ap]:]
		}

		for x := 0; x < dst.W; x++ {
			b := srow[x*4]
			g := srow[x*4+1]
			r := srow[x*4+2]
			a := srow[x*4+3]

			var ye, ue, ve float64
			if a != 0 {
				af := float64(a) / 255
				rs := clamp01(float64(r) / 255 / af)
				gs := clamp01(float64(g) / 255 / af)
				bs := clamp01(float64(b) / 255 / af)
				yv, uv, vv := colorspace.RGBToYUV(rs, gs, bs, m, levels)
				ye, ue, ve = yv*af, uv*af, vv*af
			}

			lrow[x] = quantize(float32(ye))
			if arow != nil {
				arow[x] = a
			}
			usum[x>>xs] += ue
			vsum[x>>xs] += ve
			cnt[x>>xs]++
		}

		if (y+1)%bh == 0 || y == dst.H-1 {
			flush(y >> ys)
		}
	}

	return nil
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

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
