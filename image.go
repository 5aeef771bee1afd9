package dropjpeg

import (
	"io"

	"github.com/pkg/errors"

	"github.com/dlecorfec/dropjpeg/internal/block"
	"github.com/dlecorfec/dropjpeg/internal/jpegcodec"
)

// ColorSpace identifies an Image's component layout.
type ColorSpace = jpegcodec.ColorSpace

// Grayscale, YCbCr and RGB are the three colour spaces this package's Images
// carry; a third-party JPEG in any other space (CMYK) is rejected at Decode
// time.
const (
	Grayscale = jpegcodec.Grayscale
	YCbCr     = jpegcodec.YCbCr
	RGB       = jpegcodec.RGB
)

// Sampling is a component's horizontal/vertical subsampling factor, relative
// to one 8x8 block per Minimum Coded Unit cell.
type Sampling = jpegcodec.Sampling

// SamplingYCbCr444, SamplingYCbCr422, SamplingYCbCr420 and SamplingGray are
// the common sampling layouts, re-exported from the codec for building hosts
// and test images; the adapter itself targets whatever sampling the host
// declares.
var (
	SamplingYCbCr444 = jpegcodec.SamplingYCbCr444
	SamplingYCbCr422 = jpegcodec.SamplingYCbCr422
	SamplingYCbCr420 = jpegcodec.SamplingYCbCr420
	SamplingGray     = jpegcodec.SamplingGray
)

// Image is the coefficient-domain handle the compositor reads and mutates:
// one dequantised DCT-coefficient plane per component, exactly as decoded
// from (or about to be re-encoded to) a baseline JPEG stream.
type Image struct {
	coef *jpegcodec.CoefImage
}

// Open decodes r's baseline JPEG stream into its coefficient planes,
// without ever materializing pixels.
func Open(r io.Reader) (*Image, error) {
	coef, err := jpegcodec.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "dropjpeg: decoding host image")
	}
	return &Image{coef: coef}, nil
}

// WriteTo re-quantises img's coefficient planes and writes them out as a
// baseline-sequential JPEG. Unmutated blocks round-trip to the same pixel
// values they were decoded with (I1); the byte stream itself need not match
// the original, since entropy coding may differ.
func (img *Image) WriteTo(w io.Writer) error {
	if err := jpegcodec.Encode(w, img.coef); err != nil {
		return errors.Wrap(err, "dropjpeg: encoding host image")
	}
	return nil
}

// ColorSpace returns img's colour space.
func (img *Image) ColorSpace() ColorSpace { return img.coef.ColorSpace }

// Width returns img's pixel width.
func (img *Image) Width() int { return img.coef.Width }

// Height returns img's pixel height.
func (img *Image) Height() int { return img.coef.Height }

// NumComponents returns img's component count (1 for Grayscale, 3 for
// YCbCr or RGB).
func (img *Image) NumComponents() int { return len(img.coef.Planes) }

// ComponentSampling returns component c's (H, V) sampling factor.
func (img *Image) ComponentSampling(c int) Sampling {
	p := img.coef.Planes[c]
	return Sampling{H: p.H, V: p.V}
}

// MaxSampling returns the largest horizontal and vertical sampling factor
// across img's components, i.e. the MCU size in blocks.
func (img *Image) MaxSampling() (h, v int) { return img.coef.MaxSampling() }

// BlockExtent returns component c's block-grid width and height.
func (img *Image) BlockExtent(c int) (w, h int) {
	p := img.coef.Planes[c]
	return p.BlocksWide, p.BlocksHigh
}

// Block returns a mutable view of component c's block at grid position
// (by, bx): 64 dequantised coefficients in natural (row-major) order.
func (img *Image) Block(c, by, bx int) *block.Block {
	return img.coef.Planes[c].Block(bx, by)
}
