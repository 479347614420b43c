package pgs

import (
	"fmt"
	"io"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/ristryder/gosd/common"
)

// DisplaySet is one decoded presentation: the objects visible from
// StartPTS until EndPTS (90 kHz ticks; zero EndPTS means "until the next
// set").
type DisplaySet struct {
	StartPTS int64
	EndPTS   int64

	// Screen size the compositions were authored for.
	Width, Height int

	Forced  bool
	Objects []Object
}

// Object is one positioned bitmap, premultiplied BGRA.
type Object struct {
	X, Y   int
	W, H   int
	Pixels []byte
	Stride int
}

// ParseFile reads a .sup file (memory-mapped when possible) and decodes
// it into display sets.
func ParseFile(path string) ([]DisplaySet, error) {
	fs, err := common.NewFileStream(path)
	if err != nil {
		return nil, errors.Wrap(err, "pgs: failed to open sup file")
	}
	defer fs.Close()

	buf := make([]byte, fs.Size())
	if _, err := io.ReadFull(fs, buf); err != nil {
		return nil, errors.Wrap(err, "pgs: failed to read sup file")
	}

	return Parse(buf)
}

// Parse decodes a raw PG segment stream into display sets. Objects split
// across several ODS segments are reassembled; palettes and objects are
// carried forward within an epoch and dropped at each epoch start.
func Parse(buf []byte) ([]DisplaySet, error) {
	palettes := map[int]*palette{}
	objects := map[int]object{}

	var sets []DisplaySet
	var pending *composition

	position := 0
	for position+headerSize <= len(buf) {
		seg, err := parseSegmentHeader(buf[position : position+headerSize])
		if err != nil {
			return nil, err
		}
		position += headerSize

		if position+seg.Size > len(buf) {
			break
		}
		payload := buf[position : position+seg.Size]
		position += seg.Size

		switch seg.Type {
		case segPDS:
			if pending == nil {
				continue
			}
			pu := parsePalette(payload, seg)
			pal := palettes[pu.ID]
			if pal == nil {
				pal = newPalette(pending.Height)
				palettes[pu.ID] = pal
			}
			pal.apply(pu)

		case segODS:
			if pending == nil || pending.PaletteUpdate {
				continue
			}
			o := parseObject(payload, seg)
			if o.first {
				objects[o.ID] = o
			} else if prev, ok := objects[o.ID]; ok {
				prev.Data = append(prev.Data, o.Data...)
				prev.last = o.last
				objects[o.ID] = prev
			}

		case segPCS:
			next := parseComposition(payload, seg)
			if next.State == CompositionStateInvalid {
				continue
			}
			if pending != nil {
				if ds, ok := assemble(pending, palettes, objects); ok {
					sets = closePrevious(sets, next.StartPTS)
					sets = append(sets, ds)
				}
			}
			if next.State == CompositionStateEpochStart {
				clear(objects)
				clear(palettes)
			}
			pending = &next

		case segEND:
			if pending == nil {
				continue
			}
			if ds, ok := assemble(pending, palettes, objects); ok {
				sets = closePrevious(sets, ds.StartPTS)
				sets = append(sets, ds)
			}
			pending = nil

		case segWDS:
			// Window geometry is implied by the composition objects.
		}
	}

	if pending != nil {
		if ds, ok := assemble(pending, palettes, objects); ok {
			sets = closePrevious(sets, ds.StartPTS)
			sets = append(sets, ds)
		}
	}

	return sets, nil
}

// closePrevious fills in the previous set's end time if it is still open.
func closePrevious(sets []DisplaySet, pts int64) []DisplaySet {
	if n := len(sets); n > 0 && sets[n-1].EndPTS == 0 {
		sets[n-1].EndPTS = pts
	}
	return sets
}

// assemble decodes the pending composition's objects through the active
// palette. Compositions without decodable objects (including empty "clear
// screen" compositions) yield no display set.
func assemble(pc *composition, palettes map[int]*palette, objects map[int]object) (DisplaySet, bool) {
	pal := palettes[pc.PaletteID]
	if pal == nil || len(pc.Objects) == 0 {
		return DisplaySet{}, false
	}

	ds := DisplaySet{
		StartPTS: pc.StartPTS,
		Width:    pc.Width,
		Height:   pc.Height,
	}

	for _, co := range pc.Objects {
		o, ok := objects[co.ObjectID]
		if !ok || o.Width <= 0 || o.Height <= 0 {
			continue
		}

		pixels := decodeRLE(o.Data, o.Width, o.Height, pal)
		ds.Objects = append(ds.Objects, Object{
			X:      co.Origin.X,
			Y:      co.Origin.Y,
			W:      o.Width,
			H:      o.Height,
			Pixels: pixels,
			Stride: o.Width * 4,
		})
		ds.Forced = ds.Forced || co.Forced
	}

	return ds, len(ds.Objects) > 0
}

// PTSToString formats a 90 kHz timestamp as hh:mm:ss.mmm.
func PTSToString(pts int64) string {
	ms := float64(pts) / 90

	h := int64(math.Floor(ms / (60 * 60 * 1000)))
	ms -= float64(h) * 60 * 60 * 1000
	m := int64(math.Floor(ms / (60 * 1000)))
	ms -= float64(m) * 60 * 1000
	s := int64(math.Floor(ms / 1000))
	ms -= float64(s) * 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, int64(math.Round(ms)))
}
