package dropjpeg

import (
	"github.com/pkg/errors"

	"github.com/dlecorfec/dropjpeg/internal/block"
	"github.com/dlecorfec/dropjpeg/internal/dct"
)

// HAlign is a dropon's horizontal placement against the host's block grid.
type HAlign int

const (
	HLeft HAlign = iota
	HCenter
	HRight
)

// VAlign is a dropon's vertical placement against the host's block grid.
type VAlign int

const (
	VTop VAlign = iota
	VCenter
	VBottom
)

// Placement pins a dropon against a host image: an alignment pair plus a
// pixel nudge from that alignment's natural position. OffsetX/OffsetY are
// truncated to whole component blocks before use, since the compositor only
// ever writes at block boundaries.
type Placement struct {
	HAlign  HAlign
	VAlign  VAlign
	OffsetX int
	OffsetY int
}

type blockOffset struct{ x, y int }

// Compose blends d onto host in place, at the given placement. Placement is
// fully validated, for every component, before the first coefficient is
// written, so a failed call leaves host entirely unchanged.
func Compose(host *Image, d *Dropon, p Placement) error {
	ad, err := d.ensureAdapted(host)
	if err != nil {
		return err
	}
	if d.blend == BlendNone {
		return nil
	}

	maxH, maxV := host.coef.MaxSampling()
	offsets := make([]blockOffset, len(host.coef.Planes))
	for c, hp := range host.coef.Planes {
		dp := ad.image.coef.Planes[c]
		if dp.BlocksWide > hp.BlocksWide || dp.BlocksHigh > hp.BlocksHigh {
			return errors.Wrapf(ErrInvalidPlacement,
				"dropjpeg: component %d dropon extent %dx%d blocks exceeds host extent %dx%d blocks",
				c, dp.BlocksWide, dp.BlocksHigh, hp.BlocksWide, hp.BlocksHigh)
		}

		ox := horizontalOffset(p.HAlign, hp.BlocksWide, dp.BlocksWide)
		ox += pixelOffsetToBlocks(p.OffsetX, maxH, hp.H)
		ox = clamp(ox, 0, hp.BlocksWide-dp.BlocksWide)

		oy := verticalOffset(p.VAlign, hp.BlocksHigh, dp.BlocksHigh)
		oy += pixelOffsetToBlocks(p.OffsetY, maxV, hp.V)
		oy = clamp(oy, 0, hp.BlocksHigh-dp.BlocksHigh)

		offsets[c] = blockOffset{x: ox, y: oy}
	}

	for c, hp := range host.coef.Planes {
		dp := ad.image.coef.Planes[c]
		off := offsets[c]
		for by := 0; by < dp.BlocksHigh; by++ {
			for bx := 0; bx < dp.BlocksWide; bx++ {
				x0 := dp.Block(bx, by)
				x1 := hp.Block(off.x+bx, off.y+by)
				if d.blend == BlendFull {
					*x1 = *x0
					continue
				}
				blendBlock(x0, x1, ad.mask.Block(c, by, bx))
			}
		}
	}
	return nil
}

// blendBlock applies y = x1 + W*(x0-x1): D = x0-x1 in the DCT domain, then
// Convolve walks all 64 basis pairs of W to accumulate the DCT-domain
// result of multiplying D's spatial-domain signal by W's, before truncating
// back to integer coefficients and adding into x1.
func blendBlock(x0, x1 *block.Block, w *dct.MaskBlock) {
	var d, y [64]float32
	for n := range d {
		d[n] = float32(x0[n] - x1[n])
	}
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			dct.Convolve(&d, &y, w[i*8+j], i, j)
		}
	}
	for n := range x1 {
		x1[n] += int32(y[n])
	}
}

// horizontalOffset computes a component's left block offset for the given
// alignment, before the per-component pixel nudge and clamp are applied.
func horizontalOffset(align HAlign, hostBlocks, droponBlocks int) int {
	switch align {
	case HLeft:
		return 0
	case HRight:
		return hostBlocks - droponBlocks
	default: // HCenter
		return hostBlocks/2 - droponBlocks
	}
}

// verticalOffset is horizontalOffset's vertical analogue.
func verticalOffset(align VAlign, hostBlocks, droponBlocks int) int {
	switch align {
	case VTop:
		return 0
	case VBottom:
		return hostBlocks - droponBlocks
	default: // VCenter
		return hostBlocks/2 - droponBlocks
	}
}

// pixelOffsetToBlocks converts a full-resolution pixel offset into this
// component's block units, truncating toward zero (Go's integer division
// already does this for both positive and negative operands).
func pixelOffsetToBlocks(offsetPx, maxSamp, compSamp int) int {
	pixelsPerBlock := 8 * maxSamp / compSamp
	return offsetPx / pixelsPerBlock
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
