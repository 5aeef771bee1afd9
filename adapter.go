package dropjpeg

import (
	"image"

	"github.com/pkg/errors"

	"github.com/dlecorfec/dropjpeg/internal/dct"
	"github.com/dlecorfec/dropjpeg/internal/jpegcodec"
)

// hostSignature is the (colour space, per-component sampling) tuple that
// decides whether a Dropon's cached adaptation is still valid for a given
// host Image; no back-pointer to the host is kept, only this value.
type hostSignature struct {
	colorSpace ColorSpace
	sampling   []Sampling
}

func (s hostSignature) equal(o hostSignature) bool {
	if s.colorSpace != o.colorSpace || len(s.sampling) != len(o.sampling) {
		return false
	}
	for i := range s.sampling {
		if s.sampling[i] != o.sampling[i] {
			return false
		}
	}
	return true
}

func (img *Image) signature() hostSignature {
	sampling := make([]Sampling, len(img.coef.Planes))
	for i, p := range img.coef.Planes {
		sampling[i] = Sampling{H: p.H, V: p.V}
	}
	return hostSignature{colorSpace: img.coef.ColorSpace, sampling: sampling}
}

// adaptedDropon is a Dropon re-encoded onto a specific host colour space and
// sampling grid: the coefficient image re-derived from its raw RGB pixels,
// the coefficient image re-derived from its raw alpha pixels, and the mask
// operator built from the latter.
type adaptedDropon struct {
	sig   hostSignature
	image *Image
	mask  *dct.MaskOperator
}

// ensureAdapted returns d's adaptation for host, rebuilding it via adapt
// only when the host's colour space or sampling differs from the cached
// signature (or this is the Dropon's first use).
func (d *Dropon) ensureAdapted(host *Image) (*adaptedDropon, error) {
	sig := host.signature()
	if d.cached != nil && d.cached.sig.equal(sig) {
		return d.cached, nil
	}
	ad, err := d.adapt(sig)
	if err != nil {
		return nil, err
	}
	d.cached = ad
	return ad, nil
}

// adapt forward-transforms and quantises the dropon's raw image and alpha
// pixels at quality 100, in sig's colour space and sampling, straight into
// coefficient images (jpegcodec.FromPixels; no JPEG byte stream is written
// or read back), and derives a mask operator from the alpha image's blocks. Re-using the real forward DCT and quantisation step is the only
// way to guarantee the dropon's coefficient blocks land on the same
// quantisation grid the host will re-quantise them through on encode.
func (d *Dropon) adapt(sig hostSignature) (*adaptedDropon, error) {
	sampling := make([]jpegcodec.Sampling, len(sig.sampling))
	copy(sampling, sig.sampling)

	// The alpha triplets have R==G==B==alpha and must reach every
	// component plane unconverted, so that each host component's mask
	// operator sees the alpha itself. Encoding them as RGB passes the
	// three lanes straight through (the same trick as handing libjpeg
	// already-converted samples via in_color_space); running them through
	// the RGB-to-YCbCr transform instead would collapse the chroma lanes
	// to a constant 128 and leave the chroma masks stuck at half opacity.
	alphaCS := jpegcodec.RGB
	if len(sig.sampling) == 1 {
		alphaCS = jpegcodec.Grayscale
	}

	imageCoef, err := jpegcodec.FromPixels(rgbToNRGBA(d.rawImage, d.width, d.height), 100, sig.colorSpace, sampling)
	if err != nil {
		return nil, errors.Wrap(err, "dropjpeg: adapting dropon image")
	}
	alphaCoef, err := jpegcodec.FromPixels(rgbToNRGBA(d.rawAlpha, d.width, d.height), 100, alphaCS, sampling)
	if err != nil {
		return nil, errors.Wrap(err, "dropjpeg: adapting dropon alpha mask")
	}

	maskPlanes := make([]dct.Plane, len(alphaCoef.Planes))
	for i, p := range alphaCoef.Planes {
		maskPlanes[i] = dct.Plane{BlocksWide: p.BlocksWide, BlocksHigh: p.BlocksHigh, Blocks: p.Coef}
	}

	return &adaptedDropon{
		sig:   sig,
		image: &Image{coef: imageCoef},
		mask:  dct.BuildMaskOperator(maskPlanes),
	}, nil
}

// rgbToNRGBA wraps a flat width*height RGB triplet buffer as an
// *image.NRGBA, the shape jpegcodec.FromPixels' pixel sampling expects.
func rgbToNRGBA(pix []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	n := w * h
	for i := 0; i < n; i++ {
		img.Pix[i*4+0] = pix[i*3+0]
		img.Pix[i*4+1] = pix[i*3+1]
		img.Pix[i*4+2] = pix[i*3+2]
		img.Pix[i*4+3] = 255
	}
	return img
}
