// Package slicemap tracks which columns of an overlay are possibly
// non-transparent, as per-row run records over fixed-width column windows.
// The compositor consults it twice per frame: the overlay converter skips
// clean tiles, and the blender touches only dirty slices.
package slicemap

import "github.com/cockroachdb/errors"

// SliceW is the column window one slice covers. Must be a power of 2.
const SliceW = 256

// Slice records the dirty column range [X0, X1) within its window. The
// canonical empty slice is (SliceW, 0), i.e. X0 > X1.
type Slice struct {
	X0, X1 uint16
}

// Empty reports whether the slice marks no columns.
func (s Slice) Empty() bool {
	return s.X0 > s.X1
}

// Map is a 2D array of slices, one row of ceil(w/SliceW) slices per
// overlay line. Marked rectangles are snapped outward to the alignment
// grid so that every marked run is usable as-is by the aligned repack
// calls in the blender.
type Map struct {
	// Mark bounds; MarkRect rejects rectangles outside [0,W]x[0,H].
	W, H int

	// SW is the number of slices per row.
	SW int

	AlignX, AlignY int

	slices []Slice
	rows   int
	any    bool
}

// New returns a map of SW x rows empty slices. w and h bound MarkRect;
// rows may exceed h when the overlay buffer is padded (tiled scaling).
func New(w, h, rows, alignX, alignY int) *Map {
	m := &Map{
		W:      w,
		H:      h,
		SW:     (alignUp(w, SliceW)) / SliceW,
		AlignX: alignX,
		AlignY: alignY,
		rows:   rows,
	}
	m.slices = make([]Slice, m.SW*rows)
	for i := range m.slices {
		m.slices[i] = Slice{SliceW, 0}
	}
	return m
}

func alignDown(v, a int) int { return v - v%a }
func alignUp(v, a int) int   { return alignDown(v+a-1, a) }

// At returns the slice for column window sx of row y.
func (m *Map) At(y, sx int) *Slice {
	return &m.slices[y*m.SW+sx]
}

// Row returns row y's slices.
func (m *Map) Row(y int) []Slice {
	return m.slices[y*m.SW : (y+1)*m.SW]
}

// Any reports whether any slice has been marked since the last Clear.
func (m *Map) Any() bool {
	return m.any
}

// MarkRect records the rectangle [x0,x1)x[y0,y1) as possibly
// non-transparent. The rectangle must lie within [0,W]x[0,H] before it is
// snapped outward to the alignment grid; violating that is a programming
// error and panics.
func (m *Map) MarkRect(x0, y0, x1, y1 int) {
	if x0 < 0 || x0 > x1 || x1 > m.W || y0 < 0 || y0 > y1 || y1 > m.H {
		panic(errors.Newf("slicemap: rect (%d,%d)-(%d,%d) out of bounds %dx%d",
			x0, y0, x1, y1, m.W, m.H))
	}

	// W and H are alignment multiples, so snapping outward stays in
	// bounds.
	x0 = alignDown(x0, m.AlignX)
	y0 = alignDown(y0, m.AlignY)
	x1 = alignUp(x1, m.AlignX)
	y1 = alignUp(y1, m.AlignY)

	if x0 >= x1 || y0 >= y1 {
		return
	}

	// sx1 is the window containing the last marked column, so an x1 on a
	// window boundary stays within the row.
	sx0 := x0 / SliceW
	sx1 := (x1 - 1) / SliceW

	for y := y0; y < y1; y++ {
		line := m.Row(y)

		s0 := &line[sx0]
		s1 := &line[sx1]

		if v := uint16(x0 - sx0*SliceW); v < s0.X0 {
			s0.X0 = v
		}
		if v := uint16(x1 - sx1*SliceW); v > s1.X1 {
			s1.X1 = v
		}

		if s0 != s1 {
			s0.X1 = SliceW
			s1.X0 = 0

			for sx := sx0 + 1; sx < sx1; sx++ {
				line[sx] = Slice{0, SliceW}
			}
		}

		m.any = true
	}
}

// Clear calls fn for every non-empty run (y, x0, x1) in overlay
// coordinates and resets the map to all-empty. fn may be nil.
func (m *Map) Clear(fn func(y, x0, x1 int)) {
	for y := 0; y < m.rows; y++ {
		line := m.Row(y)
		for sx := range line {
			s := &line[sx]
			if !s.Empty() {
				if fn != nil {
					fn(y, sx*SliceW+int(s.X0), sx*SliceW+int(s.X1))
				}
				*s = Slice{SliceW, 0}
			}
		}
	}
	m.any = false
}

// TileDirty reports whether any of the tileH rows starting at row
// ty*tileH has a non-empty slice in column window sx. Used by tiled
// overlay conversion to skip clean tiles.
func (m *Map) TileDirty(sx, ty, tileH int) bool {
	for y := 0; y < tileH; y++ {
		if !m.At(ty*tileH+y, sx).Empty() {
			return true
		}
	}
	return false
}
