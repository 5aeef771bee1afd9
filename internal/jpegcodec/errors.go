// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jpegcodec

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors returned (optionally wrapped with call-site context via
// github.com/pkg/errors) by Decode and Encode.
var (
	// ErrUnsupportedFormat is returned for any JPEG feature this codec does
	// not implement: progressive or hierarchical frames, arithmetic coding,
	// CMYK, and anything but 8-bit precision.
	ErrUnsupportedFormat = errors.New("jpegcodec: unsupported jpeg format")
	// ErrShortSegment names a marker segment whose declared length runs
	// past the data actually present. Decode does not return it: a
	// truncated segment surfaces as the underlying read error instead.
	ErrShortSegment = errors.New("jpegcodec: short marker segment")
	// ErrInvalidMarker is returned when a byte expected to start a marker
	// (0xff) is not one.
	ErrInvalidMarker = errors.New("jpegcodec: invalid marker byte")
	// ErrTooManyComponents is returned for frames with more components than
	// this codec's grayscale/YCbCr/RGB model supports — in practice, CMYK.
	// It wraps ErrUnsupportedFormat, so errors.Is(err, ErrUnsupportedFormat)
	// is true for CMYK rejections too, without callers needing to know
	// about this more specific sentinel.
	ErrTooManyComponents = fmt.Errorf("%w: %s", ErrUnsupportedFormat, "jpegcodec: unsupported component count")
	// ErrMissingTable is returned when a scan references a quantization or
	// Huffman table index that was never defined.
	ErrMissingTable = errors.New("jpegcodec: scan references undefined table")
)
