// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block holds the 8x8 DCT-block primitives shared by the codec and
// the coefficient-domain compositor: natural/zig-zag ordering and the
// forward/inverse DCT-II transforms.
package block

// Size is the width and height, in samples, of a JPEG coding unit.
const Size = 8

// Size2 is the number of samples in a coding unit.
const Size2 = Size * Size

// Block holds 64 values in natural (row-major) order: Block[8*y+x].
type Block [Size2]int32

// Natural maps a zig-zag index to a natural-order index, as defined in
// Annex A of the JPEG spec.
var Natural = [Size2]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// Zigzag maps a natural-order index to its zig-zag position; the inverse of
// Natural.
var Zigzag [Size2]int

func init() {
	for zig, nat := range Natural {
		Zigzag[nat] = zig
	}
}
