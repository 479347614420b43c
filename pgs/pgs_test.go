package pgs

import (
	"testing"

	"github.com/ristryder/gosd/subbitmap"
)

func segBytes(typ byte, pts uint32, payload []byte) []byte {
	b := []byte{
		'P', 'G',
		byte(pts >> 24), byte(pts >> 16), byte(pts >> 8), byte(pts),
		0, 0, 0, 0,
		typ,
		byte(len(payload) >> 8), byte(len(payload)),
	}
	return append(b, payload...)
}

// pcsPayload builds a PCS for a 16x16 screen with one object at (2,3).
func pcsPayload(compNum int, state byte) []byte {
	return []byte{
		0, 16, // width
		0, 16, // height
		0x10,                             // frame rate
		byte(compNum >> 8), byte(compNum), // composition number
		state,
		0,    // palette update flag
		0,    // palette id
		1,    // object count
		0, 0, // object id
		0,    // window id
		0,    // flags
		0, 2, // x
		0, 3, // y
	}
}

// odsPayload: object 0, 4x2 pixels, all palette code 1.
func odsPayload() []byte {
	rle := []byte{
		0x00, 0x84, 0x01, // 4 pixels of code 1
		0x00, 0x00, // end of line
		0x00, 0x84, 0x01,
		0x00, 0x00,
	}
	head := []byte{
		0, 0, // object id
		0,    // version
		0xC0, // first and last in sequence
		0, 0, 0, // fragment length
		0, 4, // width
		0, 2, // height
	}
	return append(head, rle...)
}

// pdsPayload: palette 0, entry 1 = opaque white (Y=235, Cr=Cb=128).
func pdsPayload() []byte {
	return []byte{
		0, 0, // palette id, version
		1, 235, 128, 128, 255,
	}
}

func buildStream(pts uint32) []byte {
	var s []byte
	s = append(s, segBytes(segPCS, pts, pcsPayload(0, 0x80))...)
	s = append(s, segBytes(segPDS, pts, pdsPayload())...)
	s = append(s, segBytes(segODS, pts, odsPayload())...)
	s = append(s, segBytes(segEND, pts, nil)...)
	return s
}

func TestParseSingleDisplaySet(t *testing.T) {
	sets, err := Parse(buildStream(900))
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d display sets, want 1", len(sets))
	}

	ds := sets[0]
	if ds.StartPTS != 900 || ds.Width != 16 || ds.Height != 16 {
		t.Fatalf("set header = %+v", ds)
	}
	if len(ds.Objects) != 1 {
		t.Fatalf("got %d objects, want 1", len(ds.Objects))
	}

	o := ds.Objects[0]
	if o.X != 2 || o.Y != 3 || o.W != 4 || o.H != 2 {
		t.Fatalf("object geometry = %+v", o)
	}

	// Palette entry 1 is opaque white in limited-range BT.601.
	for i := 0; i < o.W*o.H; i++ {
		px := o.Pixels[i*4 : i*4+4]
		for c := 0; c < 4; c++ {
			if px[c] != 255 {
				t.Fatalf("pixel %d = %v, want opaque white", i, px)
			}
		}
	}
}

func TestParseTwoSetsClosesTiming(t *testing.T) {
	s := append(buildStream(900), buildStream(1800)...)

	sets, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(sets))
	}
	if sets[0].EndPTS != 1800 {
		t.Fatalf("first set end = %d, want 1800", sets[0].EndPTS)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	bad := buildStream(0)
	bad[0] = 'X'
	if _, err := Parse(bad); err == nil {
		t.Fatal("bad magic accepted")
	}
}

func TestDecodeRLE(t *testing.T) {
	pal := newPalette(480)
	pal.apply(paletteUpdate{Entries: []byte{
		1, 235, 128, 128, 255, // white opaque
		2, 16, 128, 128, 128, // black half-transparent
	}})

	// Row 1: 2x code 1 as single pixels, then zeros to end of line.
	// Row 2: a long run of code 2.
	data := []byte{
		1, 1, 0x00, 0x02, 0x00, 0x00,
		0x00, 0xC0, 0x04, 0x02, // 14-bit length: 4 pixels of code 2
	}
	out := decodeRLE(data, 4, 2, pal)

	if out[3] != 255 || out[7] != 255 {
		t.Fatalf("row 1 codes: alpha %d %d, want opaque", out[3], out[7])
	}
	if out[11] != 0 || out[15] != 0 {
		t.Fatal("explicit zero run must stay transparent")
	}
	for x := 0; x < 4; x++ {
		if a := out[(4+x)*4+3]; a != 128 {
			t.Fatalf("row 2 pixel %d alpha = %d, want 128", x, a)
		}
	}

	// Truncated data leaves the rest transparent and must not panic.
	short := decodeRLE([]byte{1, 0x00}, 4, 4, pal)
	if short[3] == 0 {
		t.Fatal("first decoded pixel lost")
	}
	for i := 7; i < len(short); i += 4 {
		if short[i] != 0 {
			t.Fatalf("byte %d = %d after truncation", i, short[i])
		}
	}
}

func TestPaletteFadeOutKeepsAlpha(t *testing.T) {
	pal := newPalette(1080)
	pal.apply(paletteUpdate{Entries: []byte{1, 235, 128, 128, 200}})
	pal.apply(paletteUpdate{Entries: []byte{1, 235, 128, 128, 50}})

	if pal.alpha[1] != 200 {
		t.Fatalf("alpha faded to %d, want kept at 200", pal.alpha[1])
	}
}

func TestDisplaySetList(t *testing.T) {
	ds := DisplaySet{
		Width: 1920, Height: 1080,
		Objects: []Object{{X: 10, Y: 20, W: 4, H: 2, Pixels: make([]byte, 32), Stride: 16}},
	}

	list := ds.List(3, 7)
	if list.ChangeID != 7 || list.W != 1920 || list.H != 1080 {
		t.Fatalf("list header = %+v", list)
	}
	if len(list.Items) != 1 {
		t.Fatalf("items = %d", len(list.Items))
	}
	item := list.Items[0]
	if item.RenderIndex != 3 || item.Format != subbitmap.FormatRGBA || item.ChangeID != 7 {
		t.Fatalf("item = %+v", item)
	}
	p := item.Parts[0]
	if p.DW != 4 || p.DH != 2 || p.Stride != 16 {
		t.Fatalf("part = %+v", p)
	}
}

func TestPTSToString(t *testing.T) {
	cases := []struct {
		pts  int64
		want string
	}{
		{0, "00:00:00.000"},
		{90 * 1000, "00:00:01.000"},
		{90 * (3*3600*1000 + 25*60*1000 + 7*1000 + 89), "03:25:07.089"},
	}
	for _, c := range cases {
		if got := PTSToString(c.pts); got != c.want {
			t.Fatalf("PTSToString(%d) = %q, want %q", c.pts, got, c.want)
		}
	}
}
