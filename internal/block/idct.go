package block

import "math"

// IDCT is the inverse of FDCT: b holds scale times the exact 8x8 DCT-II
// coefficients in natural order (row = vertical frequency, column =
// horizontal frequency); it is replaced in place by level-shifted pixel
// samples, clamped to [-128, 127].
func IDCT(b *Block) {
	var coef [Size2]float64
	for i := range coef {
		coef[i] = float64(b[i]) / scale
	}

	var cols [Size2]float64
	for u := 0; u < Size; u++ {
		for y := 0; y < Size; y++ {
			sum := 0.0
			for v := 0; v < Size; v++ {
				sum += alpha(v) * coef[Size*v+u] * cosTable[v][y]
			}
			cols[Size*y+u] = 0.5 * sum
		}
	}

	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			sum := 0.0
			for u := 0; u < Size; u++ {
				sum += alpha(u) * cols[Size*y+u] * cosTable[u][x]
			}
			px := math.Round(0.5 * sum)
			if px < -128 {
				px = -128
			} else if px > 127 {
				px = 127
			}
			b[Size*y+x] = int32(px)
		}
	}
}
