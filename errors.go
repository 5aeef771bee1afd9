// Package dropjpeg composites a logo ("dropon") onto a baseline JPEG
// photograph entirely in the frequency domain: the host's quantised DCT
// coefficients are read, the dropon is re-encoded onto the host's colour
// space and chroma-subsampling grid, and the blend is carried out
// block-by-block on the coefficients themselves, so that any host block the
// dropon doesn't touch stays bit-identical to the input.
package dropjpeg

import (
	"github.com/pkg/errors"

	"github.com/dlecorfec/dropjpeg/internal/jpegcodec"
)

// Sentinel errors, wrapped at call boundaries with github.com/pkg/errors to
// attach component/block/file context without breaking errors.Is/errors.As.
var (
	// ErrUnsupportedColorspace names a colour space outside RGB/RGBA
	// (dropon source) or Grayscale/YCbCr/RGB (host/adapted JPEG). No
	// function in this package returns it: Decode rejects other frames with
	// ErrUnsupportedFormat, and the adapter only targets a host's own
	// colour space.
	ErrUnsupportedColorspace = errors.New("dropjpeg: unsupported colour space")
	// ErrInvalidPlacement is returned when a dropon, at the requested
	// alignment and offset, would not fit entirely on the host's block
	// grid.
	ErrInvalidPlacement = errors.New("dropjpeg: dropon does not fit host at requested placement")
	// ErrInvalidRawSize is returned when a raw pixel buffer's length
	// doesn't match width*height*3 (RGB) or width*height*4 (RGBA).
	ErrInvalidRawSize = errors.New("dropjpeg: raw pixel buffer size does not match width/height")
	// ErrUnsupportedFormat re-exports the codec facade's sentinel for
	// progressive/hierarchical/arithmetic-coded, CMYK, or non-8-bit JPEGs,
	// so callers never need to import internal/jpegcodec to check for it.
	ErrUnsupportedFormat = jpegcodec.ErrUnsupportedFormat
	// ErrTooManyComponents re-exports the codec facade's more specific
	// sentinel for CMYK (4-component) input; it also satisfies
	// errors.Is(err, ErrUnsupportedFormat).
	ErrTooManyComponents = jpegcodec.ErrTooManyComponents
)
