package dct

import "math"

// stencilTerm is one term of a row (or column) stencil: coefficient c0 times
// x[i0], plus an optional second term c1 times x[i1] (i1 == -1 means the
// term is absent).
type stencilTerm struct {
	i0 int
	c0 float32
	i1 int
	c1 float32
}

var sqrt2 = float32(math.Sqrt2)

// stencilTable[l] expands the l-th row (or, used a second time, column) of
// the basis-pair convolution into eight 1- or 2-term linear combinations of
// the eight input samples. Each stencilTable[l][j] computes output sample j
// from the stencil's own 8 inputs x[0..7]:
//
//	z[j] = c0*x[i0] (+ c1*x[i1] if i1 >= 0)
//
// The table is transcribed from the eight cases of mj_convolve's row-pass
// switch; the same table drives the column pass (switch(k)) since both
// passes apply the identical stencil, only the stride over the underlying
// array differs (1 for rows, 8 for columns).
var stencilTable = [8][8]stencilTerm{
	{ // l = 0
		{0, 2, -1, 0},
		{1, 2, -1, 0},
		{2, 2, -1, 0},
		{3, 2, -1, 0},
		{4, 2, -1, 0},
		{5, 2, -1, 0},
		{6, 2, -1, 0},
		{7, 2, -1, 0},
	},
	{ // l = 1
		{1, sqrt2, -1, 0},
		{0, sqrt2, 2, 1},
		{1, 1, 3, 1},
		{2, 1, 4, 1},
		{3, 1, 5, 1},
		{4, 1, 6, 1},
		{5, 1, 7, 1},
		{6, 1, -1, 0},
	},
	{ // l = 2
		{2, sqrt2, -1, 0},
		{1, 1, 3, 1},
		{0, sqrt2, 4, 1},
		{1, 1, 5, 1},
		{2, 1, 6, 1},
		{3, 1, 7, 1},
		{4, 1, -1, 0},
		{5, 1, 7, -1},
	},
	{ // l = 3
		{3, sqrt2, -1, 0},
		{2, 1, 4, 1},
		{1, 1, 5, 1},
		{0, sqrt2, 6, 1},
		{1, 1, 7, 1},
		{2, 1, -1, 0},
		{3, 1, 7, -1},
		{4, 1, 6, -1},
	},
	{ // l = 4
		{4, sqrt2, -1, 0},
		{3, 1, 5, 1},
		{2, 1, 6, 1},
		{1, 1, 7, 1},
		{0, sqrt2, -1, 0},
		{1, 1, 7, -1},
		{2, 1, 6, -1},
		{3, 1, 5, -1},
	},
	{ // l = 5
		{5, sqrt2, -1, 0},
		{4, 1, 6, 1},
		{3, 1, 7, 1},
		{2, 1, -1, 0},
		{1, 1, 7, -1},
		{0, sqrt2, 6, -1},
		{1, 1, 5, -1},
		{2, 1, 4, -1},
	},
	{ // l = 6
		{6, sqrt2, -1, 0},
		{5, 1, 7, 1},
		{4, 1, -1, 0},
		{3, 1, 7, -1},
		{2, 1, 6, -1},
		{1, 1, 5, -1},
		{0, sqrt2, 4, -1},
		{1, 1, 3, -1},
	},
	{ // l = 7
		{7, sqrt2, -1, 0},
		{6, 1, -1, 0},
		{5, 1, 7, -1},
		{4, 1, 6, -1},
		{3, 1, 5, -1},
		{2, 1, 4, -1},
		{1, 1, 3, -1},
		{0, sqrt2, 2, -1},
	},
}
