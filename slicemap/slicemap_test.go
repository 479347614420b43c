package slicemap

import "testing"

func TestNewAllEmpty(t *testing.T) {
	m := New(512, 8, 8, 1, 1)

	if m.SW != 2 {
		t.Fatalf("SW = %d, want 2", m.SW)
	}
	if m.Any() {
		t.Fatal("fresh map reports dirty")
	}
	for y := 0; y < 8; y++ {
		for sx := 0; sx < m.SW; sx++ {
			if s := m.At(y, sx); !s.Empty() || s.X0 != SliceW || s.X1 != 0 {
				t.Fatalf("slice (%d,%d) = %+v, want canonical empty", y, sx, s)
			}
		}
	}
}

func TestMarkRectSingleWindow(t *testing.T) {
	m := New(256, 8, 8, 1, 1)
	m.MarkRect(5, 3, 9, 5)

	if !m.Any() {
		t.Fatal("map not dirty after mark")
	}
	for y := 0; y < 8; y++ {
		s := m.At(y, 0)
		if y == 3 || y == 4 {
			if s.X0 != 5 || s.X1 != 9 {
				t.Fatalf("row %d slice = %+v, want (5,9)", y, s)
			}
		} else if !s.Empty() {
			t.Fatalf("row %d unexpectedly dirty: %+v", y, s)
		}
	}
}

func TestMarkRectAlignmentSnap(t *testing.T) {
	m := New(256, 8, 8, 2, 2)
	m.MarkRect(5, 3, 9, 5)

	// Snapped outward to (4,2)-(10,6).
	for y := 2; y < 6; y++ {
		if s := m.At(y, 0); s.X0 != 4 || s.X1 != 10 {
			t.Fatalf("row %d slice = %+v, want (4,10)", y, s)
		}
	}
	if s := m.At(1, 0); !s.Empty() {
		t.Fatalf("row 1 dirty: %+v", s)
	}
	if s := m.At(6, 0); !s.Empty() {
		t.Fatalf("row 6 dirty: %+v", s)
	}
}

func TestMarkRectSpansWindows(t *testing.T) {
	m := New(768, 2, 2, 1, 1)
	m.MarkRect(100, 0, 520, 1)

	want := []Slice{{100, 256}, {0, 256}, {0, 8}}
	for sx, w := range want {
		if s := m.At(0, sx); *s != w {
			t.Fatalf("slice %d = %+v, want %+v", sx, s, w)
		}
	}
	if s := m.At(1, 0); !s.Empty() {
		t.Fatal("row 1 dirty")
	}
}

func TestMarkRectFullWindowBoundary(t *testing.T) {
	m := New(256, 2, 2, 1, 1)
	m.MarkRect(0, 0, 256, 2)

	for y := 0; y < 2; y++ {
		if s := m.At(y, 0); s.X0 != 0 || s.X1 != SliceW {
			t.Fatalf("row %d slice = %+v, want (0,%d)", y, s, SliceW)
		}
	}
}

func TestMarkRectGrowsExisting(t *testing.T) {
	m := New(256, 2, 2, 1, 1)
	m.MarkRect(10, 0, 20, 1)
	m.MarkRect(15, 0, 40, 1)
	m.MarkRect(5, 0, 12, 1)

	if s := m.At(0, 0); s.X0 != 5 || s.X1 != 40 {
		t.Fatalf("slice = %+v, want (5,40)", s)
	}
}

func TestClearResetsAndReportsRuns(t *testing.T) {
	m := New(768, 4, 4, 1, 1)
	m.MarkRect(100, 1, 520, 3)

	type run struct{ y, x0, x1 int }
	var runs []run
	m.Clear(func(y, x0, x1 int) {
		runs = append(runs, run{y, x0, x1})
	})

	want := []run{
		{1, 100, 256}, {1, 256, 512}, {1, 512, 520},
		{2, 100, 256}, {2, 256, 512}, {2, 512, 520},
	}
	if len(runs) != len(want) {
		t.Fatalf("got %d runs, want %d: %+v", len(runs), len(want), runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Fatalf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}

	if m.Any() {
		t.Fatal("map dirty after clear")
	}
	for y := 0; y < 4; y++ {
		for sx := 0; sx < m.SW; sx++ {
			if s := m.At(y, sx); s.X0 != SliceW || s.X1 != 0 {
				t.Fatalf("slice (%d,%d) = %+v after clear", y, sx, s)
			}
		}
	}
}

func TestMarkRectOutOfBoundsPanics(t *testing.T) {
	m := New(64, 64, 64, 1, 1)

	for _, rect := range [][4]int{
		{-1, 0, 4, 4},
		{0, -2, 4, 4},
		{0, 0, 65, 4},
		{0, 0, 4, 100},
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("MarkRect%v did not panic", rect)
				}
			}()
			m.MarkRect(rect[0], rect[1], rect[2], rect[3])
		}()
	}
}

func TestTileDirty(t *testing.T) {
	m := New(512, 8, 8, 1, 1)
	m.MarkRect(300, 5, 310, 6)

	// Row 5 lives in tile row 1 (tile height 4), column window 1.
	if !m.TileDirty(1, 1, 4) {
		t.Fatal("tile (1,1) should be dirty")
	}
	if m.TileDirty(0, 1, 4) {
		t.Fatal("tile (0,1) should be clean")
	}
	if m.TileDirty(1, 0, 4) {
		t.Fatal("tile (1,0) should be clean")
	}
}
