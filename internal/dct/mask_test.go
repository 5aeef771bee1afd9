package dct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlecorfec/dropjpeg/internal/block"
)

func TestBuildMaskOperatorScalesAllSixtyFourEntries(t *testing.T) {
	var blk block.Block
	for i := range blk {
		blk[i] = int32(i)
	}

	mo := BuildMaskOperator([]Plane{
		{BlocksWide: 1, BlocksHigh: 1, Blocks: []block.Block{blk}},
	})

	require.Len(t, mo.Components, 1)
	got := mo.Block(0, 0, 0)

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			coef := float32(row*8 + col)
			if row == 0 && col == 0 {
				coef += 1024
			}
			want := coef * coefScale(row) * coefScale(col) / 1020
			assert.InDelta(t, want, got[row*8+col], 1e-6, "row=%d col=%d", row, col)
		}
	}

	// Every off-diagonal, non-first-row/column entry must be populated; a
	// row-pointer typo in libmodjpeg's operator setup left exactly this set
	// at zero.
	for row := 1; row < 8; row++ {
		for col := 1; col < 8; col++ {
			assert.NotZero(t, got[row*8+col], "row=%d col=%d", row, col)
		}
	}
}

func TestBuildMaskOperatorDoesNotMutateInput(t *testing.T) {
	var blk block.Block
	blk[0] = 5

	planes := []Plane{
		{BlocksWide: 1, BlocksHigh: 1, Blocks: []block.Block{blk}},
	}
	BuildMaskOperator(planes)

	assert.Equal(t, int32(5), planes[0].Blocks[0][0])
}

func TestBuildMaskOperatorIndexesMultipleBlocks(t *testing.T) {
	var blkA, blkB block.Block
	blkA[0] = 0
	blkB[0] = 1020 // (1020+1024) DC, chosen so the arithmetic stays easy to eyeball

	mo := BuildMaskOperator([]Plane{
		{BlocksWide: 2, BlocksHigh: 1, Blocks: []block.Block{blkA, blkB}},
	})

	a := mo.Block(0, 0, 0)
	b := mo.Block(0, 0, 1)
	assert.NotEqual(t, a[0], b[0])
}
