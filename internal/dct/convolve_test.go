package dct

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvolveZeroWeightIsNoop(t *testing.T) {
	var x, y [64]float32
	x[5] = 42
	y[3] = 7
	Convolve(&x, &y, 0, 2, 3)
	assert.Equal(t, float32(7), y[3])
	for i := range y {
		if i != 3 {
			assert.Equal(t, float32(0), y[i], "index %d", i)
		}
	}
}

// A pure-DC input block convolved against the DC basis pair (k=0, l=0)
// produces a pure-DC output scaled by 4: both the row pass and the column
// pass apply the l=0/k=0 stencil's "2*x[j]" identity to the single nonzero
// sample.
func TestConvolveDCBasisProducesDC(t *testing.T) {
	var x, y [64]float32
	x[0] = 1
	Convolve(&x, &y, 1, 0, 0)
	assert.InDelta(t, 4, y[0], 1e-5)
	for i := 1; i < 64; i++ {
		assert.InDelta(t, 0, y[i], 1e-5, "index %d", i)
	}
}

// A pure-DC input convolved against basis pair (k=0, l=1) places all of its
// energy at output position (0,1): the row pass turns x[0] into
// sqrt2 at z[1] (stencilTable[1][1] = {0, sqrt2, 2, 1}, and x[2] is zero),
// the column pass's k=0 identity then carries it straight through to y[1]
// doubled.
func TestConvolveSingleFrequencyPlacement(t *testing.T) {
	var x, y [64]float32
	x[0] = 1
	Convolve(&x, &y, 1, 0, 1)
	assert.InDelta(t, 2*sqrt2, y[1], 1e-5)
	for i, v := range y {
		if i != 1 {
			assert.InDelta(t, 0, v, 1e-5, "index %d", i)
		}
	}
}

// Convolve is a fixed linear map on x for constant (w, k, l): scaling and
// summing inputs before the call must match scaling and summing the
// per-call outputs.
func TestConvolveLinearInX(t *testing.T) {
	var xa, xb [64]float32
	for i := range xa {
		xa[i] = float32(i%7) - 3
		xb[i] = float32((i*3)%11) - 5
	}
	const a = float32(2.5)

	var combined [64]float32
	for i := range combined {
		combined[i] = a*xa[i] + xb[i]
	}

	for _, kl := range [][2]int{{0, 0}, {3, 5}, {7, 2}} {
		k, l := kl[0], kl[1]

		var ya, yb, yCombined [64]float32
		Convolve(&xa, &ya, 1, k, l)
		Convolve(&xb, &yb, 1, k, l)
		Convolve(&combined, &yCombined, 1, k, l)

		for i := range yCombined {
			want := a*ya[i] + yb[i]
			assert.InDelta(t, want, yCombined[i], 1e-3, "k=%d l=%d index=%d", k, l, i)
		}
	}
}

// refAlpha is the orthonormal DCT-II scale factor.
func refAlpha(u int) float64 {
	if u == 0 {
		return 1 / math.Sqrt2
	}
	return 1
}

func refCos(p, u int) float64 {
	return math.Cos(float64(2*p+1) * float64(u) * math.Pi / 16)
}

// refConvolve computes DCT2D(IDCT2D(x) * phi(k,l)) the slow, literal way,
// in float64.
func refConvolve(x *[64]float32, k, l int) [64]float64 {
	var f [64]float64
	for p := 0; p < 8; p++ {
		for q := 0; q < 8; q++ {
			sum := 0.0
			for u := 0; u < 8; u++ {
				for v := 0; v < 8; v++ {
					sum += refAlpha(u) * refAlpha(v) / 4 * float64(x[u*8+v]) * refCos(p, u) * refCos(q, v)
				}
			}
			f[p*8+q] = sum * refCos(p, k) * refCos(q, l)
		}
	}
	var out [64]float64
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			sum := 0.0
			for p := 0; p < 8; p++ {
				for q := 0; q < 8; q++ {
					sum += f[p*8+q] * refCos(p, u) * refCos(q, v)
				}
			}
			out[u*8+v] = refAlpha(u) * refAlpha(v) / 4 * sum
		}
	}
	return out
}

// The two-pass stencil form must equal the DCT of the spatial-domain
// product for every one of the 64 basis pairs. The kernel's output carries
// a fixed factor of 4 relative to the orthonormal transform pair - the
// alpha-normalisation quarter that BuildMaskOperator folds into its 1020
// divisor (255 * 4) - so the reference is scaled accordingly.
func TestConvolveMatchesSpatialProductForAllBasisPairs(t *testing.T) {
	var x [64]float32
	for i := range x {
		x[i] = float32((i*31)%17) - 8
	}

	for k := 0; k < 8; k++ {
		for l := 0; l < 8; l++ {
			var y [64]float32
			Convolve(&x, &y, 1, k, l)
			want := refConvolve(&x, k, l)
			for i := range y {
				tol := 1e-4 * math.Abs(4*want[i])
				if tol < 1e-3 {
					tol = 1e-3
				}
				assert.InDelta(t, 4*want[i], y[i], tol, "k=%d l=%d index=%d", k, l, i)
			}
		}
	}
}

// Convolve accumulates into y rather than overwriting it.
func TestConvolveAccumulates(t *testing.T) {
	var x, y [64]float32
	x[0] = 1
	y[0] = 10
	Convolve(&x, &y, 1, 0, 0)
	assert.InDelta(t, 14, y[0], 1e-5)
}
