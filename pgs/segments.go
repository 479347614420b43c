// Package pgs decodes BluRay Presentation Graphic Stream (.sup) subtitle
// data into positioned, premultiplied BGRA bitmaps and publishes them as
// overlay input lists for the compositor. A stream is a sequence of PG
// segments: palette definitions, object definitions (run-length coded
// bitmaps), and presentation compositions that place objects on screen.
package pgs

import (
	"image"

	"github.com/cockroachdb/errors"
)

const headerSize = 13

// Segment type codes.
const (
	segPDS = 0x14 // palette definition
	segODS = 0x15 // object definition
	segPCS = 0x16 // presentation composition
	segWDS = 0x17 // window definition
	segEND = 0x80 // end of display set
)

// CompositionState describes how a presentation composition relates to
// the previous one.
type CompositionState uint32

const (
	CompositionStateNormal CompositionState = iota
	CompositionStateAcquPoint
	CompositionStateEpochStart
	CompositionStateEpochContinue
	CompositionStateInvalid
)

type segment struct {
	PTS  int64
	Size int
	Type int
}

// compositionObject places one object within a composition.
type compositionObject struct {
	ObjectID int
	WindowID int
	Forced   bool
	Origin   image.Point
}

// composition is one parsed PCS: the screen geometry, the palette to
// apply, and the objects to place.
type composition struct {
	CompNum       int
	State         CompositionState
	PaletteID     int
	PaletteUpdate bool
	Width, Height int
	StartPTS      int64
	Objects       []compositionObject
}

// object is an assembled ODS: bitmaps may span several segments, joined
// by the reader before decoding.
type object struct {
	ID      int
	Version int
	Width   int
	Height  int
	Data    []byte
	first   bool
	last    bool
}

// paletteUpdate is one PDS payload: 5 bytes per entry.
type paletteUpdate struct {
	ID      int
	Version int
	Entries []byte
}

func beUint16(b []byte, i int) uint16 {
	return uint16(b[i+1]) | uint16(b[i])<<8
}

func beUint32(b []byte, i int) uint32 {
	return uint32(b[i+3]) | uint32(b[i+2])<<8 | uint32(b[i+1])<<16 | uint32(b[i])<<24
}

func parseSegmentHeader(b []byte) (segment, error) {
	if b[0] != 'P' || b[1] != 'G' {
		return segment{}, errors.New("pgs: segment magic PG missing")
	}
	return segment{
		PTS:  int64(beUint32(b, 2)),
		Type: int(b[10]),
		Size: int(beUint16(b, 11)),
	}, nil
}

func parseComposition(b []byte, seg segment) composition {
	if len(b) < 11 {
		return composition{State: CompositionStateInvalid}
	}

	pc := composition{
		Width:         int(beUint16(b, 0)),
		Height:        int(beUint16(b, 2)),
		CompNum:       int(beUint16(b, 5)),
		State:         compositionState(b[7]),
		PaletteUpdate: b[8] == 0x80,
		PaletteID:     int(b[9]),
		StartPTS:      seg.PTS,
	}

	count := int(b[10])
	offset := 11
	for i := 0; i < count && offset+8 <= len(b); i++ {
		co := compositionObject{
			ObjectID: int(beUint16(b, offset)),
			WindowID: int(b[offset+2]),
			Forced:   b[offset+3]&0x40 != 0,
			Origin: image.Point{
				X: int(beUint16(b, offset+4)),
				Y: int(beUint16(b, offset+6)),
			},
		}
		pc.Objects = append(pc.Objects, co)
		offset += 8
	}

	return pc
}

func compositionState(b byte) CompositionState {
	switch b {
	case 0x00:
		return CompositionStateNormal
	case 0x40:
		return CompositionStateAcquPoint
	case 0x80:
		return CompositionStateEpochStart
	case 0xC0:
		return CompositionStateEpochContinue
	}
	return CompositionStateInvalid
}

func parseObject(b []byte, seg segment) object {
	o := object{
		ID:      int(beUint16(b, 0)),
		Version: int(b[2]),
		first:   b[3]&0x80 != 0,
		last:    b[3]&0x40 != 0,
	}

	if o.first {
		// 24-bit fragment length at 4, then width/height, then RLE data.
		o.Width = int(beUint16(b, 7))
		o.Height = int(beUint16(b, 9))
		o.Data = append([]byte(nil), b[11:seg.Size]...)
	} else {
		o.Data = append([]byte(nil), b[4:seg.Size]...)
	}

	return o
}

func parsePalette(b []byte, seg segment) paletteUpdate {
	n := (seg.Size - 2) / 5
	if n <= 0 {
		return paletteUpdate{ID: int(b[0])}
	}
	return paletteUpdate{
		ID:      int(b[0]),
		Version: int(b[1]),
		Entries: append([]byte(nil), b[2:2+n*5]...),
	}
}
