package pgs

import "github.com/ristryder/gosd/subbitmap"

// decodeRLE expands PG run-length data into a w*h premultiplied BGRA
// buffer. Encoding: a non-zero byte is a single pixel of that palette
// code; zero introduces a run whose next byte carries two flag bits
// (0x80: explicit color follows, 0x40: 14-bit length) and the low six
// bits of the length; 0x00 0x00 ends the current line. Truncated data
// leaves the remaining pixels transparent.
func decodeRLE(data []byte, w, h int, pal *palette) []byte {
	out := make([]byte, w*h*4)

	pos := 0
	x, y := 0, 0

	put := func(code byte, n int) {
		c := pal.bgra[code]
		for ; n > 0 && y < h; n-- {
			if x >= w {
				x, y = 0, y+1
				if y >= h {
					return
				}
			}
			off := (y*w + x) * 4
			out[off] = c[0]
			out[off+1] = c[1]
			out[off+2] = c[2]
			out[off+3] = c[3]
			x++
		}
	}

	for pos < len(data) && y < h {
		b := data[pos]
		pos++

		if b != 0 {
			put(b, 1)
			continue
		}

		if pos >= len(data) {
			break
		}
		flags := data[pos]
		pos++

		if flags == 0 {
			// End of line.
			x, y = 0, y+1
			continue
		}

		n := int(flags & 0x3F)
		if flags&0x40 != 0 {
			if pos >= len(data) {
				break
			}
			n = n<<8 | int(data[pos])
			pos++
		}

		var code byte
		if flags&0x80 != 0 {
			if pos >= len(data) {
				break
			}
			code = data[pos]
			pos++
		}

		put(code, n)
	}

	return out
}

// List publishes the display set as compositor input. renderIndex keys
// the compositor's per-producer bitmap cache and changeID must increase
// with every distinct set handed to the same cache.
func (ds *DisplaySet) List(renderIndex int, changeID int64) *subbitmap.List {
	list := &subbitmap.List{
		ChangeID: changeID,
		W:        ds.Width,
		H:        ds.Height,
	}

	item := subbitmap.Item{
		RenderIndex: renderIndex,
		Format:      subbitmap.FormatRGBA,
		ChangeID:    changeID,
	}
	for _, o := range ds.Objects {
		item.Parts = append(item.Parts, subbitmap.Part{
			X:      o.X,
			Y:      o.Y,
			W:      o.W,
			H:      o.H,
			DW:     o.W,
			DH:     o.H,
			Bitmap: o.Pixels,
			Stride: o.Stride,
		})
	}

	list.Items = append(list.Items, item)
	return list
}
