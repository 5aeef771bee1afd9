package dropjpeg

import (
	"image"
	"os"

	"github.com/pkg/errors"

	"github.com/dlecorfec/dropjpeg/internal/jpegcodec"
)

// Blend strength constants. Values in (BlendNone, BlendFull) are uniform
// per-pixel alpha; BlendNonuniform marks a Dropon whose alpha came from a
// per-pixel mask (raw RGBA source or a separate mask JPEG) rather than a
// single scalar.
const (
	BlendNone       = 0
	BlendFull       = 255
	BlendNonuniform = -1
)

// Dropon is the overlay source: raw RGB logo pixels, a parallel alpha plane
// carried as an RGB triplet with the alpha in all three lanes (so the
// adapter can hand each lane to its own component plane), and a blend
// strength. A Dropon
// owns no JPEG state of its own; adapt (adapter.go) derives a coefficient
// representation matching a specific host on demand.
type Dropon struct {
	rawImage []byte // width*height*3 RGB triplets
	rawAlpha []byte // width*height*3 RGB triplets; R==G==B==alpha per pixel
	width    int
	height   int
	blend    int

	cached *adaptedDropon
}

// NewDroponFromRaw builds a Dropon from raw pixels: either RGB triplets
// (len(pix) == 3*w*h), in which case blend is the uniform alpha applied to
// every pixel, or RGBA quads (len(pix) == 4*w*h), in which case each
// pixel's own alpha byte is used and blend is forced to BlendNonuniform.
func NewDroponFromRaw(pix []byte, blend, w, h int) (*Dropon, error) {
	n := w * h
	switch len(pix) {
	case n * 3:
		if blend < 0 || blend > 255 {
			return nil, errors.Wrapf(ErrInvalidRawSize, "dropjpeg: blend %d out of range for RGB dropon", blend)
		}
		rawImage := make([]byte, n*3)
		copy(rawImage, pix)
		rawAlpha := make([]byte, n*3)
		av := byte(blend)
		for i := 0; i < n; i++ {
			rawAlpha[i*3], rawAlpha[i*3+1], rawAlpha[i*3+2] = av, av, av
		}
		return &Dropon{rawImage: rawImage, rawAlpha: rawAlpha, width: w, height: h, blend: blend}, nil

	case n * 4:
		rawImage := make([]byte, n*3)
		rawAlpha := make([]byte, n*3)
		for i := 0; i < n; i++ {
			rawImage[i*3+0] = pix[i*4+0]
			rawImage[i*3+1] = pix[i*4+1]
			rawImage[i*3+2] = pix[i*4+2]
			a := pix[i*4+3]
			rawAlpha[i*3], rawAlpha[i*3+1], rawAlpha[i*3+2] = a, a, a
		}
		return &Dropon{rawImage: rawImage, rawAlpha: rawAlpha, width: w, height: h, blend: BlendNonuniform}, nil

	default:
		return nil, errors.Wrapf(ErrInvalidRawSize, "dropjpeg: %d bytes is neither %d (RGB) nor %d (RGBA) for a %dx%d dropon", len(pix), n*3, n*4, w, h)
	}
}

// NewDroponFromJPEG loads a logo from a JPEG file, decoded to RGB pixels via
// the codec facade. When maskPath is non-empty, that JPEG's luma plane
// (white = opaque, black = transparent) replaces the per-pixel alpha and
// blend is forced to BlendNonuniform; its dimensions must match the logo's.
// Otherwise blend is the uniform alpha applied to every pixel.
func NewDroponFromJPEG(imagePath, maskPath string, blend int) (*Dropon, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "dropjpeg: opening dropon image")
	}
	defer f.Close()

	img, err := jpegcodec.DecodeToPixels(f)
	if err != nil {
		return nil, errors.Wrap(err, "dropjpeg: decoding dropon image")
	}
	pix, w, h := imageToRGB(img)

	var rawAlpha []byte
	droponBlend := blend
	if maskPath != "" {
		mf, err := os.Open(maskPath)
		if err != nil {
			return nil, errors.Wrap(err, "dropjpeg: opening dropon mask")
		}
		defer mf.Close()

		maskImg, err := jpegcodec.DecodeToPixels(mf)
		if err != nil {
			return nil, errors.Wrap(err, "dropjpeg: decoding dropon mask")
		}
		y, mw, mh, err := lumaPlane(maskImg)
		if err != nil {
			return nil, err
		}
		if mw != w || mh != h {
			return nil, errors.Wrapf(ErrInvalidRawSize, "dropjpeg: mask %dx%d does not match dropon image %dx%d", mw, mh, w, h)
		}
		rawAlpha = make([]byte, w*h*3)
		for i, v := range y {
			rawAlpha[i*3], rawAlpha[i*3+1], rawAlpha[i*3+2] = v, v, v
		}
		droponBlend = BlendNonuniform
	} else {
		if blend < 0 || blend > 255 {
			return nil, errors.Wrapf(ErrInvalidRawSize, "dropjpeg: blend %d out of range without a mask", blend)
		}
		rawAlpha = make([]byte, w*h*3)
		av := byte(blend)
		for i := 0; i < w*h; i++ {
			rawAlpha[i*3], rawAlpha[i*3+1], rawAlpha[i*3+2] = av, av, av
		}
	}

	return &Dropon{rawImage: pix, rawAlpha: rawAlpha, width: w, height: h, blend: droponBlend}, nil
}

// imageToRGB flattens any image.Image into width*height RGB triplets.
func imageToRGB(img image.Image) (pix []byte, w, h int) {
	b := img.Bounds()
	w, h = b.Dx(), b.Dy()
	pix = make([]byte, w*h*3)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			pix[i+0] = byte(r >> 8)
			pix[i+1] = byte(g >> 8)
			pix[i+2] = byte(bl >> 8)
			i += 3
		}
	}
	return pix, w, h
}

// lumaPlane extracts the Y (luma) samples from a decoded grayscale or YCbCr
// image, the representations jpegcodec.DecodeToPixels produces.
func lumaPlane(img image.Image) (y []byte, w, h int, err error) {
	switch m := img.(type) {
	case *image.Gray:
		b := m.Bounds()
		w, h = b.Dx(), b.Dy()
		out := make([]byte, w*h)
		for row := 0; row < h; row++ {
			copy(out[row*w:(row+1)*w], m.Pix[row*m.Stride:row*m.Stride+w])
		}
		return out, w, h, nil
	case *image.YCbCr:
		b := m.Bounds()
		w, h = b.Dx(), b.Dy()
		out := make([]byte, w*h)
		for row := 0; row < h; row++ {
			copy(out[row*w:(row+1)*w], m.Y[row*m.YStride:row*m.YStride+w])
		}
		return out, w, h, nil
	default:
		return nil, 0, 0, errors.New("dropjpeg: mask image must decode to grayscale or YCbCr")
	}
}
