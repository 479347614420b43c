// Package subbitmap defines the overlay-input model consumed by the
// compositor: a list of sub-bitmap items, each carrying either libass-style
// coverage bitmaps or premultiplied BGRA bitmaps, together with the change
// ids the compositor uses to detect unchanged input between frames.
package subbitmap

// Format tags the bitmap encoding of one item.
type Format int

const (
	FormatNone Format = iota
	// FormatLibASS parts carry an 8-bit coverage bitmap plus a single
	// 0xRRGGBBAA color whose low byte is inverse alpha.
	FormatLibASS
	// FormatRGBA parts carry a premultiplied BGRA bitmap with independent
	// source and display sizes.
	FormatRGBA
)

// SupportedFormats lists the bitmap formats the compositor accepts.
var SupportedFormats = map[Format]bool{
	FormatLibASS: true,
	FormatRGBA:   true,
}

// MaxOSDParts bounds Item.RenderIndex and sizes the compositor's part
// cache.
const MaxOSDParts = 64

// Part is one positioned bitmap.
type Part struct {
	// Position and source size on the destination grid.
	X, Y, W, H int

	// Display size; FormatRGBA only. The bitmap is W x H but drawn
	// stretched to DW x DH.
	DW, DH int

	Bitmap []byte
	Stride int

	// FormatLibASS only: 0xRRGGBBAA, low byte inverse alpha.
	Color uint32
}

// Item groups the parts of one producer (one subtitle track, one UI
// layer). RenderIndex must be stable for the producer's lifetime so the
// compositor can cache per-producer scaled bitmaps.
type Item struct {
	RenderIndex int
	Format      Format

	// ChangeID must increase whenever Parts' pixel content changes.
	ChangeID int64

	Parts []Part
}

// List is the full overlay input for one frame.
type List struct {
	// ChangeID must increase whenever the rendered set changes in any way.
	ChangeID int64

	// Bounding size of all parts. The destination must be at least this
	// large.
	W, H int

	Items []Item
}
