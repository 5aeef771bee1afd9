package dropjpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlecorfec/dropjpeg/internal/block"
	"github.com/dlecorfec/dropjpeg/internal/jpegcodec"
)

func newHostImage(w, h int, cs ColorSpace, sampling []Sampling) *Image {
	return &Image{coef: jpegcodec.NewCoefImage(w, h, cs, sampling)}
}

func fillDeterministic(img *Image) {
	for _, p := range img.coef.Planes {
		for bi := range p.Coef {
			for n := range p.Coef[bi] {
				p.Coef[bi][n] = int32((bi*7+n*3)%200 - 100)
			}
		}
	}
}

func snapshotBlocks(img *Image) [][]block.Block {
	out := make([][]block.Block, len(img.coef.Planes))
	for i, p := range img.coef.Planes {
		cp := make([]block.Block, len(p.Coef))
		copy(cp, p.Coef)
		out[i] = cp
	}
	return out
}

func solidRGB(w, h int, r, g, b byte) []byte {
	pix := make([]byte, w*h*3)
	for i := 0; i < w*h; i++ {
		pix[i*3], pix[i*3+1], pix[i*3+2] = r, g, b
	}
	return pix
}

// I2/R1: a BlendNone dropon must not touch any host coefficient, and a
// second no-op composition leaves the host exactly as it was.
func TestComposeBlendNoneDoesNotMutateHost(t *testing.T) {
	host := newHostImage(64, 64, YCbCr, SamplingYCbCr444)
	fillDeterministic(host)
	before := snapshotBlocks(host)

	dropon, err := NewDroponFromRaw(solidRGB(32, 32, 200, 100, 50), BlendNone, 32, 32)
	require.NoError(t, err)

	require.NoError(t, Compose(host, dropon, Placement{HAlign: HCenter, VAlign: VCenter}))
	assert.Equal(t, before, snapshotBlocks(host))

	require.NoError(t, Compose(host, dropon, Placement{HAlign: HCenter, VAlign: VCenter}))
	assert.Equal(t, before, snapshotBlocks(host))
}

// I3: with no per-pixel mask and BlendFull, every host block the dropon
// touches ends up exactly equal to the adapted dropon's own block.
func TestComposeBlendFullReplacesHostBlocksExactly(t *testing.T) {
	host := newHostImage(64, 64, YCbCr, SamplingYCbCr444)
	fillDeterministic(host)

	dropon, err := NewDroponFromRaw(solidRGB(16, 16, 10, 200, 30), BlendFull, 16, 16)
	require.NoError(t, err)

	require.NoError(t, Compose(host, dropon, Placement{HAlign: HLeft, VAlign: VTop}))

	require.NotNil(t, dropon.cached)
	for c, dp := range dropon.cached.image.coef.Planes {
		hp := host.coef.Planes[c]
		for by := 0; by < dp.BlocksHigh; by++ {
			for bx := 0; bx < dp.BlocksWide; bx++ {
				assert.Equal(t, *dp.Block(bx, by), *hp.Block(bx, by), "component %d block (%d,%d)", c, bx, by)
			}
		}
	}
}

// R2: composing an opaque dropon a second time is a no-op, since the host
// already equals the dropon everywhere the first composition touched.
func TestComposeBlendFullIsIdempotentAfterFirstApplication(t *testing.T) {
	host := newHostImage(64, 64, YCbCr, SamplingYCbCr444)
	fillDeterministic(host)

	dropon, err := NewDroponFromRaw(solidRGB(16, 16, 77, 88, 99), BlendFull, 16, 16)
	require.NoError(t, err)

	require.NoError(t, Compose(host, dropon, Placement{HAlign: HCenter, VAlign: VCenter}))
	once := snapshotBlocks(host)

	require.NoError(t, Compose(host, dropon, Placement{HAlign: HCenter, VAlign: VCenter}))
	assert.Equal(t, once, snapshotBlocks(host))
}

// B2: a dropon larger than the host on any axis is rejected, and the host
// is left completely unchanged.
func TestComposeRejectsOversizedDropon(t *testing.T) {
	host := newHostImage(32, 32, YCbCr, SamplingYCbCr444)
	fillDeterministic(host)
	before := snapshotBlocks(host)

	dropon, err := NewDroponFromRaw(solidRGB(64, 64, 1, 2, 3), BlendFull, 64, 64)
	require.NoError(t, err)

	err = Compose(host, dropon, Placement{})
	assert.ErrorIs(t, err, ErrInvalidPlacement)
	assert.Equal(t, before, snapshotBlocks(host))
}

// B1: a dropon sized exactly to the host, placed at RIGHT/BOTTOM, produces
// no off-grid block access.
func TestComposeExactFitAtBottomRight(t *testing.T) {
	host := newHostImage(32, 32, YCbCr, SamplingYCbCr444)
	dropon, err := NewDroponFromRaw(solidRGB(32, 32, 9, 9, 9), BlendFull, 32, 32)
	require.NoError(t, err)

	require.NoError(t, Compose(host, dropon, Placement{HAlign: HRight, VAlign: VBottom}))
	for c, dp := range dropon.cached.image.coef.Planes {
		hp := host.coef.Planes[c]
		assert.Equal(t, hp.BlocksWide, dp.BlocksWide, "component %d", c)
		assert.Equal(t, hp.BlocksHigh, dp.BlocksHigh, "component %d", c)
	}
}

// B3: the adapter rebuilds whenever the host's (colorspace, sampling)
// signature differs from the cached one, and is reused on consecutive calls
// with the same signature.
func TestComposeReAdaptsOnlyWhenHostSignatureChanges(t *testing.T) {
	dropon, err := NewDroponFromRaw(solidRGB(16, 16, 5, 6, 7), BlendFull, 16, 16)
	require.NoError(t, err)

	host444 := newHostImage(64, 64, YCbCr, SamplingYCbCr444)
	require.NoError(t, Compose(host444, dropon, Placement{}))
	first := dropon.cached

	// Same signature: no rebuild.
	require.NoError(t, Compose(host444, dropon, Placement{}))
	assert.Same(t, first, dropon.cached)

	// Different sampling: rebuild.
	host420 := newHostImage(64, 64, YCbCr, SamplingYCbCr420)
	require.NoError(t, Compose(host420, dropon, Placement{}))
	assert.NotSame(t, first, dropon.cached)
	second := dropon.cached

	// Back to the original signature: rebuilds again (no host back-pointer
	// is cached, only the value signature).
	require.NoError(t, Compose(host444, dropon, Placement{}))
	assert.NotSame(t, second, dropon.cached)
}

// A grayscale host adapts the dropon down to a single component, and the
// composition runs over that one plane only.
func TestComposeGrayscaleHostAdaptsToOneComponent(t *testing.T) {
	host := newHostImage(64, 64, Grayscale, SamplingGray)
	fillDeterministic(host)

	dropon, err := NewDroponFromRaw(solidRGB(16, 16, 220, 30, 30), BlendFull, 16, 16)
	require.NoError(t, err)

	require.NoError(t, Compose(host, dropon, Placement{HAlign: HCenter, VAlign: VCenter}))

	require.NotNil(t, dropon.cached)
	assert.Len(t, dropon.cached.image.coef.Planes, 1)
	assert.Len(t, dropon.cached.mask.Components, 1)
}

// With the alpha lanes passed through unconverted, a uniform blend
// strength drives every component's mask, chroma included, to the same
// normalised weight.
func TestAdaptedMaskChromaCarriesAlpha(t *testing.T) {
	host := newHostImage(32, 32, YCbCr, SamplingYCbCr444)
	dropon, err := NewDroponFromRaw(solidRGB(32, 32, 1, 2, 3), 64, 32, 32)
	require.NoError(t, err)
	require.NoError(t, Compose(host, dropon, Placement{}))

	for c := 0; c < 3; c++ {
		w := dropon.cached.mask.Block(c, 0, 0)
		// 4*w[0] is the effective DC weight after the convolver's own
		// factor of 4; for alpha 64 it must sit at ~64/255, not at the
		// 0.5-regardless-of-alpha a collapsed chroma lane would produce
		// for any blend value.
		assert.InDelta(t, 64.0/255.0, 4*float64(w[0]), 0.02, "component %d", c)
	}
}

// I6: a uniform, non-extreme blend strength behaves as a per-block convex
// combination at the DC term, where the mask carries essentially all of its
// energy after a quality-100 re-encode of a flat alpha plane.
func TestComposeUniformBlendApproximatesConvexCombination(t *testing.T) {
	host := newHostImage(32, 32, YCbCr, SamplingYCbCr444)
	for _, p := range host.coef.Planes {
		for bi := range p.Coef {
			p.Coef[bi][0] = 0 // flat host DC
		}
	}

	dropon, err := NewDroponFromRaw(solidRGB(32, 32, 250, 250, 250), 128, 32, 32)
	require.NoError(t, err)

	require.NoError(t, Compose(host, dropon, Placement{}))

	dp := dropon.cached.image.coef.Planes[0]
	hp := host.coef.Planes[0]
	x0 := dp.Block(0, 0)[0]
	got := hp.Block(0, 0)[0]
	want := float64(x0) * (128.0 / 255.0)
	assert.InDelta(t, want, float64(got), float64(x0)*0.05+4)
}
