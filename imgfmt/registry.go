package imgfmt

import "github.com/cockroachdb/errors"

// The registry below is deliberately small: it only needs to cover the
// formats the compositor core and its tests exercise (BGRA premultiplied
// overlays, planar YUV video with and without alpha, and the float32
// planar companions the repack layer produces). A full descriptor
// database would enumerate every AV_PIX_FMT_*; this core only needs a
// metadata oracle, not a decoder's worth of formats.
var registry = map[string]Desc{
	"bgra8": {
		Name:          "bgra8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     1,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 4, Components: [MaxPlanes]uint8{CompChV, CompChU, CompLuma, CompAlpha}},
		},
	},
	"gray8": {
		Name:          "gray8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     1,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
		},
	},
	"ya8": {
		Name:          "ya8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     2,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompAlpha}},
		},
	},
	"yuv444p8": {
		Name:          "yuv444p8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     3,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChU}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChV}},
		},
	},
	"yuva444p8": {
		Name:          "yuva444p8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     4,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChU}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChV}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompAlpha}},
		},
	},
	"yuv420p8": {
		Name:          "yuv420p8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     3,
		ChromaXS:      1,
		ChromaYS:      1,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChU}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChV}},
		},
	},
	"yuva420p8": {
		Name:          "yuva420p8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     4,
		ChromaXS:      1,
		ChromaYS:      1,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChU}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChV}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompAlpha}},
		},
	},
	"yuv422p8": {
		Name:          "yuv422p8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     3,
		ChromaXS:      1,
		ChromaYS:      0,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChU}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChV}},
		},
	},
	"yuva422p8": {
		Name:          "yuva422p8",
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     4,
		ChromaXS:      1,
		ChromaYS:      0,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChU}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompChV}},
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompAlpha}},
		},
	},
}

// Get returns the descriptor registered under name.
func Get(name string) (Desc, bool) {
	d, ok := registry[name]
	return d, ok
}

// MustGet is Get but panics on an unknown name; callers use it for names
// known to be registered (built-in formats or derived float companions).
func MustGet(name string) Desc {
	d, ok := Get(name)
	if !ok {
		panic(errors.Newf("imgfmt: unknown format %q", name))
	}
	return d
}

// Register adds or replaces a descriptor, used by FloatCompanion to publish
// derived float32-planar formats into the same namespace the rest of the
// core looks names up in.
func Register(d Desc) {
	registry[d.Name] = d
}

// FloatCompanion returns the fully planar float32 format that repack
// produces for d: every component gets its own plane (packed components
// are split apart), chroma shifts are preserved per component, and the
// component type becomes float. If a format is already registered under
// name+"_f32" it is returned as is; otherwise one is registered under that
// name. Formats of the same shape under other names are not looked up.
func FloatCompanion(d Desc) Desc {
	name := d.Name + "_f32"
	if existing, ok := Get(name); ok {
		return existing
	}

	out := Desc{
		Name:          name,
		ComponentType: ComponentFloat,
		ComponentSize: 4,
		ChromaXS:      d.ChromaXS,
		ChromaYS:      d.ChromaYS,
	}

	for pi := 0; pi < int(d.NumPlanes); pi++ {
		p := d.Planes[pi]
		for c := 0; c < int(p.NumComponents); c++ {
			out.Planes[out.NumPlanes] = Plane{
				NumComponents: 1,
				Components:    [MaxPlanes]uint8{p.Components[c]},
			}
			out.NumPlanes++
		}
	}

	Register(out)
	return out
}

// FindRegular locates the registered format whose plane/component layout
// exactly matches src (component type, size, per-plane component codes and
// chroma shifts). This is the Go analogue of mp_find_regular_imgfmt.
func FindRegular(src Desc) (string, bool) {
	for name, d := range registry {
		if sameLayout(d, src) {
			return name, true
		}
	}
	return "", false
}

func sameLayout(a, b Desc) bool {
	if a.ComponentType != b.ComponentType || a.ComponentSize != b.ComponentSize {
		return false
	}
	if a.NumPlanes != b.NumPlanes || a.ChromaXS != b.ChromaXS || a.ChromaYS != b.ChromaYS {
		return false
	}
	for i := 0; i < int(a.NumPlanes); i++ {
		if a.Planes[i].NumComponents != b.Planes[i].NumComponents {
			return false
		}
		for c := 0; c < int(a.Planes[i].NumComponents); c++ {
			if a.Planes[i].Components[c] != b.Planes[i].Components[c] {
				return false
			}
		}
	}
	return true
}
