package overlay

import "github.com/ristryder/gosd/slicemap"

// convertToVideoOverlay refreshes videoOverlay from the BGRA overlay. In
// tiled mode only tiles with at least one dirty slice row are converted;
// a tile is dirty iff any of its rows has a non-empty slice at the tile's
// column.
func (c *Cache) convertToVideoOverlay() error {
	if c.videoOverlay == nil {
		return nil
	}

	if c.tiled {
		tH := c.rgbaOverlay.H / tileH
		for ty := 0; ty < tH; ty++ {
			for sx := 0; sx < c.smap.SW; sx++ {
				if !c.smap.TileDirty(sx, ty, tileH) {
					continue
				}
				if err := c.convertOverlayPart(sx*slicemap.SliceW, ty*tileH,
					slicemap.SliceW, tileH); err != nil {
					return err
				}
			}
		}
		return nil
	}

	return c.convertOverlayPart(0, 0, c.rgbaOverlay.W, c.rgbaOverlay.H)
}

// convertOverlayPart converts one region of the overlay into video
// colorspace, then refreshes the chroma-sized alpha plane for the same
// region if the overlay format subsamples.
func (c *Cache) convertOverlayPart(x0, y0, w, h int) error {
	src := c.rgbaOverlay.Cropped(x0, y0, x0+w, y0+h)
	dst := c.videoOverlay.Cropped(x0, y0, x0+w, y0+h)

	if err := c.rgbaToOverlay.Scale(&dst, &src); err != nil {
		return err
	}

	if c.calphaOverlay != nil {
		xs := int(c.videoOverlay.Format.ChromaXS)
		ys := int(c.videoOverlay.Format.ChromaYS)

		asrc := c.alphaOverlay.Cropped(x0, y0, x0+w, y0+h)
		adst := c.calphaOverlay.Cropped(x0>>xs, y0>>ys, (x0+w)>>xs, (y0+h)>>ys)

		if err := c.alphaToCalpha.Scale(&adst, &asrc); err != nil {
			return err
		}
	}

	return nil
}
