package frame

import (
	"testing"

	"github.com/ristryder/gosd/imgfmt"
)

func TestAllocPlaneGeometry(t *testing.T) {
	img, err := Alloc("yuv420p8", 5, 5)
	if err != nil {
		t.Fatal(err)
	}

	if img.Stride[0] != 5 || len(img.Planes[0]) != 25 {
		t.Fatalf("luma stride/len = %d/%d", img.Stride[0], len(img.Planes[0]))
	}
	// Chroma rounds up: ceil(5/2) = 3.
	if img.Stride[1] != 3 || len(img.Planes[1]) != 9 {
		t.Fatalf("chroma stride/len = %d/%d", img.Stride[1], len(img.Planes[1]))
	}

	if _, err := Alloc("nosuch", 4, 4); err == nil {
		t.Fatal("Alloc accepted unknown format")
	}
	if _, err := Alloc("bgra8", 0, 4); err == nil {
		t.Fatal("Alloc accepted zero width")
	}
}

func TestCroppedSharesStorage(t *testing.T) {
	img, err := Alloc("yuv420p8", 8, 8)
	if err != nil {
		t.Fatal(err)
	}

	c := img.Cropped(2, 4, 6, 8)
	if c.W != 4 || c.H != 4 {
		t.Fatalf("crop size = %dx%d", c.W, c.H)
	}

	c.Planes[0][0] = 0xAB
	if img.Planes[0][4*img.Stride[0]+2] != 0xAB {
		t.Fatal("crop does not alias parent luma")
	}

	c.Planes[1][0] = 0xCD
	if img.Planes[1][2*img.Stride[1]+1] != 0xCD {
		t.Fatal("crop does not alias parent chroma")
	}
}

func TestPixelPtrAppliesChromaShift(t *testing.T) {
	img, err := Alloc("yuv420p8", 8, 8)
	if err != nil {
		t.Fatal(err)
	}

	img.Planes[1][3*img.Stride[1]+2] = 0x7F
	if got := img.PixelPtr(1, 4, 6)[0]; got != 0x7F {
		t.Fatalf("PixelPtr(1,4,6) = %#x", got)
	}
}

func TestClearRect(t *testing.T) {
	img, err := Alloc("bgra8", 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i := range img.Planes[0] {
		img.Planes[0][i] = 0xFF
	}

	img.ClearRect(1, 1, 3, 3)

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			inside := x >= 1 && x < 3 && y >= 1 && y < 3
			px := img.PixelPtr(0, x, y)[:4]
			for _, b := range px {
				if inside && b != 0 {
					t.Fatalf("pixel (%d,%d) not cleared", x, y)
				}
				if !inside && b != 0xFF {
					t.Fatalf("pixel (%d,%d) clobbered", x, y)
				}
			}
		}
	}
}

func TestFloat32RowAliases(t *testing.T) {
	imgfmt.FloatCompanion(imgfmt.MustGet("gray8"))
	img, err := Alloc("gray8_f32", 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	row := img.Float32Row(0, 0, 1, 4)
	row[2] = 0.5
	if img.Float32Row(0, 2, 1, 1)[0] != 0.5 {
		t.Fatal("Float32Row does not alias plane storage")
	}
}

func TestParamsEqual(t *testing.T) {
	a := Params{Format: "yuv420p8", W: 32, H: 32}
	b := a
	if !ParamsEqual(a, b) {
		t.Fatal("identical params unequal")
	}
	b.W = 64
	if ParamsEqual(a, b) {
		t.Fatal("different params equal")
	}
}
