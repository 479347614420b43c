// Package imgfmt is the format descriptor oracle: given a format name it
// reports plane count, per-plane component layout, chroma subsampling
// shifts, component type/size and alpha presence. It also locates the
// format name matching a constructed descriptor, mirroring the lookup the
// compositor core needs when it builds an overlay format on the fly.
package imgfmt

// ComponentType distinguishes integer from floating point sample storage.
type ComponentType int

const (
	ComponentUnknown ComponentType = iota
	ComponentUInt
	ComponentFloat
)

// Component codes for Plane.Components, mirroring the convention that 1 is
// red/luma/gray, 2 is the first chroma component, 3 is the second chroma
// component, 4 is alpha, and 0 is unused padding.
const (
	CompNone  = 0
	CompLuma  = 1
	CompChU   = 2
	CompChV   = 3
	CompAlpha = 4
)

// MaxPlanes bounds the planes a single descriptor can carry.
const MaxPlanes = 4

// Plane describes the components packed into one plane, in byte order.
type Plane struct {
	NumComponents uint8
	Components    [MaxPlanes]uint8
}

// Desc is the metadata the compositor core needs about a pixel format:
// one that is byte aligned, has byte aligned components, and uses native
// endian storage.
type Desc struct {
	Name          string
	ComponentType ComponentType
	ComponentSize uint8 // bytes per component
	NumPlanes     uint8
	Planes        [MaxPlanes]Plane

	// Chroma shifts (log2) applying to the Cb/Cr (CompChU/CompChV) planes.
	// 0/0 means 4:4:4 or RGB; luma and alpha planes are always full size.
	ChromaXS, ChromaYS uint8
}

// HasAlpha reports whether any plane carries an alpha component.
func (d Desc) HasAlpha() bool {
	for i := 0; i < int(d.NumPlanes); i++ {
		p := d.Planes[i]
		for c := 0; c < int(p.NumComponents); c++ {
			if p.Components[c] == CompAlpha {
				return true
			}
		}
	}
	return false
}

// AlphaPlane returns the index of the plane carrying the alpha component,
// or -1 if the format has no alpha.
func (d Desc) AlphaPlane() int {
	for i := 0; i < int(d.NumPlanes); i++ {
		p := d.Planes[i]
		for c := 0; c < int(p.NumComponents); c++ {
			if p.Components[c] == CompAlpha {
				return i
			}
		}
	}
	return -1
}

// PlaneShift returns the (xs, ys) chroma shift that applies to a given
// plane: zero for any plane that carries luma or alpha, ChromaXS/ChromaYS
// for a plane that carries a chroma component.
func (d Desc) PlaneShift(plane int) (xs, ys uint8) {
	p := d.Planes[plane]
	for c := 0; c < int(p.NumComponents); c++ {
		if p.Components[c] == CompChU || p.Components[c] == CompChV {
			return d.ChromaXS, d.ChromaYS
		}
	}
	return 0, 0
}

// BytesPerPixel returns the byte stride contribution of one plane's pixel.
func (d Desc) BytesPerPixel(plane int) int {
	return int(d.Planes[plane].NumComponents) * int(d.ComponentSize)
}

// IsSubsampled reports whether any chroma plane is subsampled.
func (d Desc) IsSubsampled() bool {
	return d.ChromaXS != 0 || d.ChromaYS != 0
}

// PlaneComponentIndex returns the in-plane byte offset (in components) of
// the given component code within the plane, or -1 if absent.
func (d Desc) PlaneComponentIndex(plane int, comp uint8) int {
	p := d.Planes[plane]
	for c := 0; c < int(p.NumComponents); c++ {
		if p.Components[c] == comp {
			return c
		}
	}
	return -1
}
