package imgfmt

import "testing"

func TestDescQueries(t *testing.T) {
	d := MustGet("yuva420p8")

	if !d.HasAlpha() || d.AlphaPlane() != 3 {
		t.Fatalf("yuva420p8 alpha plane = %d", d.AlphaPlane())
	}
	if !d.IsSubsampled() {
		t.Fatal("yuva420p8 not subsampled")
	}
	if xs, ys := d.PlaneShift(1); xs != 1 || ys != 1 {
		t.Fatalf("chroma plane shift = %d:%d", xs, ys)
	}
	if xs, ys := d.PlaneShift(3); xs != 0 || ys != 0 {
		t.Fatalf("alpha plane shift = %d:%d", xs, ys)
	}

	b := MustGet("bgra8")
	if b.BytesPerPixel(0) != 4 {
		t.Fatalf("bgra8 bpp = %d", b.BytesPerPixel(0))
	}
	if b.PlaneComponentIndex(0, CompAlpha) != 3 {
		t.Fatalf("bgra8 alpha at %d", b.PlaneComponentIndex(0, CompAlpha))
	}
	if b.AlphaPlane() != 0 {
		t.Fatalf("bgra8 alpha plane = %d", b.AlphaPlane())
	}
}

func TestFloatCompanion(t *testing.T) {
	f := FloatCompanion(MustGet("bgra8"))

	if f.ComponentType != ComponentFloat || f.ComponentSize != 4 {
		t.Fatalf("companion type/size = %v/%d", f.ComponentType, f.ComponentSize)
	}
	if f.NumPlanes != 4 {
		t.Fatalf("bgra8 companion planes = %d", f.NumPlanes)
	}
	// Packed B,G,R,A splits into one plane per component, same order.
	want := []uint8{CompChV, CompChU, CompLuma, CompAlpha}
	for i, c := range want {
		if f.Planes[i].NumComponents != 1 || f.Planes[i].Components[0] != c {
			t.Fatalf("plane %d = %+v, want component %d", i, f.Planes[i], c)
		}
	}

	// Registered and reused.
	again := FloatCompanion(MustGet("bgra8"))
	if again.Name != f.Name {
		t.Fatalf("companion not reused: %q vs %q", again.Name, f.Name)
	}
	if _, ok := Get(f.Name); !ok {
		t.Fatalf("companion %q not registered", f.Name)
	}

	y := FloatCompanion(MustGet("yuv420p8"))
	if y.ChromaXS != 1 || y.ChromaYS != 1 {
		t.Fatalf("yuv420p8 companion shifts = %d:%d", y.ChromaXS, y.ChromaYS)
	}
}

func TestFindRegular(t *testing.T) {
	// A constructed descriptor with yuva420p8's layout but no name must
	// resolve to yuva420p8.
	d := MustGet("yuv420p8")
	d.Name = ""
	d.Planes[d.NumPlanes] = Plane{NumComponents: 1, Components: [MaxPlanes]uint8{CompAlpha}}
	d.NumPlanes++

	name, ok := FindRegular(d)
	if !ok || name != "yuva420p8" {
		t.Fatalf("FindRegular = %q/%v, want yuva420p8", name, ok)
	}

	// Gray layout resolves to gray8.
	g := Desc{
		ComponentType: ComponentUInt,
		ComponentSize: 1,
		NumPlanes:     1,
		Planes: [MaxPlanes]Plane{
			{NumComponents: 1, Components: [MaxPlanes]uint8{CompLuma}},
		},
	}
	name, ok = FindRegular(g)
	if !ok || name != "gray8" {
		t.Fatalf("FindRegular gray = %q/%v", name, ok)
	}

	// No match for an unknown layout.
	g.ComponentSize = 2
	if _, ok = FindRegular(g); ok {
		t.Fatal("FindRegular matched a 16-bit gray layout")
	}
}
