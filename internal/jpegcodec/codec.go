// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package jpegcodec is a baseline-sequential JPEG codec that stops one step
// short of pixels: Decode and Encode work with dequantized DCT coefficient
// planes (internal/block.Block grids) rather than raster images, which is
// the substrate the coefficient-domain compositor needs. DecodeToPixels and
// EncodeFromPixels are the ordinary raster-level convenience wrappers built
// on top of that core.
package jpegcodec

import (
	"bufio"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"github.com/dlecorfec/dropjpeg/internal/block"
)

// ColorSpace identifies the component layout of a CoefImage.
type ColorSpace int

const (
	// Grayscale images carry a single component.
	Grayscale ColorSpace = iota
	// YCbCr images carry three components: luma, then blue and red
	// chroma difference.
	YCbCr
	// RGB images carry three components holding red, green and blue
	// samples directly, with no colour-difference transform. A baseline
	// JPEG only distinguishes this from YCbCr via an Adobe APP14 marker's
	// transform byte; JFIF files with no such marker are assumed YCbCr.
	RGB
)

// Sampling is a component's JPEG sampling factor, relative to one 8x8 block
// per Minimum Coded Unit cell.
type Sampling struct{ H, V int }

// SamplingYCbCr444, SamplingYCbCr422 and SamplingYCbCr420 are the three
// chroma subsampling layouts this codec's pixel conversion understands. The
// coefficient-level Decode and Encode paths tolerate any sampling a source
// JPEG declares; these three are the ones DecodeToPixels/EncodeFromPixels
// know how to rasterize.
var (
	SamplingYCbCr444 = []Sampling{{1, 1}, {1, 1}, {1, 1}}
	SamplingYCbCr422 = []Sampling{{2, 1}, {1, 1}, {1, 1}}
	SamplingYCbCr420 = []Sampling{{2, 2}, {1, 1}, {1, 1}}
	SamplingGray     = []Sampling{{1, 1}}
)

// Plane is one component's coefficient grid: BlocksWide*BlocksHigh blocks in
// row-major order, each holding dequantized coefficients in natural order
// (quantized value times Quant's matching natural-order table entry).
type Plane struct {
	BlocksWide, BlocksHigh int
	H, V                   int
	Quant                  [blockSize]uint16
	Coef                   []block.Block
}

// Block returns the block at the given block-grid coordinates.
func (p *Plane) Block(bx, by int) *block.Block {
	return &p.Coef[by*p.BlocksWide+bx]
}

// CoefImage is the coefficient-domain representation of a baseline JPEG
// frame: one plane per component, each a grid of dequantized 8x8 blocks
// padded up to a whole number of Minimum Coded Units.
type CoefImage struct {
	Width, Height int
	ColorSpace    ColorSpace
	Planes        []*Plane
}

// MaxSampling returns the largest horizontal and vertical sampling factor
// across all components, i.e. the MCU size in blocks.
func (img *CoefImage) MaxSampling() (h, v int) {
	h, v = 1, 1
	for _, p := range img.Planes {
		if p.H > h {
			h = p.H
		}
		if p.V > v {
			v = p.V
		}
	}
	return h, v
}

// NewCoefImage allocates a zeroed CoefImage of the given pixel dimensions
// and component sampling layout. Each plane's block grid is padded up to a
// whole number of MCUs, exactly as a JPEG encoder pads the last row/column
// of blocks in an image whose dimensions aren't multiples of the MCU size.
func NewCoefImage(width, height int, cs ColorSpace, sampling []Sampling) *CoefImage {
	maxH, maxV := 1, 1
	for _, s := range sampling {
		if s.H > maxH {
			maxH = s.H
		}
		if s.V > maxV {
			maxV = s.V
		}
	}
	mcuWide := (width + 8*maxH - 1) / (8 * maxH)
	mcuHigh := (height + 8*maxV - 1) / (8 * maxV)
	planes := make([]*Plane, len(sampling))
	for i, s := range sampling {
		bw, bh := mcuWide*s.H, mcuHigh*s.V
		planes[i] = &Plane{BlocksWide: bw, BlocksHigh: bh, H: s.H, V: s.V, Coef: make([]block.Block, bw*bh)}
	}
	return &CoefImage{Width: width, Height: height, ColorSpace: cs, Planes: planes}
}

type componentSpec struct {
	id     byte
	h, v   int
	tq     int
	td, ta int
}

// Decode parses a baseline-sequential JPEG stream into its coefficient
// planes. Progressive, hierarchical, arithmetic-coded and non-8-bit streams
// are rejected with ErrUnsupportedFormat: this codec, like the compositor
// it feeds, only ever deals with a single fully materialized scan.
func Decode(r io.Reader) (*CoefImage, error) {
	br := bufio.NewReader(r)

	b0, err := br.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "jpegcodec: reading SOI")
	}
	b1, err := br.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "jpegcodec: reading SOI")
	}
	if b0 != 0xff || b1 != soiMarker {
		return nil, errors.Wrap(ErrInvalidMarker, "jpegcodec: missing SOI")
	}

	var (
		quantTables        [4]*[blockSize]uint16
		dcTables, acTables [4]*huffmanDecoder
		width, height      int
		comps              []componentSpec
		restartInterval    int
		img                *CoefImage
		pendingMarker      byte
		adobeTransform     = -1 // set from APP14 if present; -1 means "no Adobe marker seen"
	)

	readMarker := func() (byte, error) {
		if pendingMarker != 0 {
			m := pendingMarker
			pendingMarker = 0
			return m, nil
		}
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		for c == 0xff {
			c, err = br.ReadByte()
			if err != nil {
				return 0, err
			}
		}
		return c, nil
	}

	readUint16 := func() (int, error) {
		hi, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		lo, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		return int(hi)<<8 | int(lo), nil
	}

	for {
		marker, err := readMarker()
		if err != nil {
			return nil, errors.Wrap(err, "jpegcodec: reading marker")
		}
		if marker == eoiMarker {
			if img == nil {
				return nil, errors.New("jpegcodec: EOI before SOF")
			}
			return img, nil
		}

		length, err := readUint16()
		if err != nil {
			return nil, errors.Wrap(err, "jpegcodec: reading segment length")
		}
		remaining := length - 2

		switch marker {
		case sof0Marker:
			precision, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			if precision != 8 {
				return nil, errors.Wrap(ErrUnsupportedFormat, "jpegcodec: only 8-bit precision is supported")
			}
			h, err := readUint16()
			if err != nil {
				return nil, err
			}
			w, err := readUint16()
			if err != nil {
				return nil, err
			}
			width, height = w, h
			nComp, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			if nComp != 1 && nComp != 3 {
				return nil, errors.Wrap(ErrTooManyComponents, "jpegcodec: only grayscale, YCbCr or RGB frames are supported")
			}
			comps = make([]componentSpec, nComp)
			for i := range comps {
				id, err := br.ReadByte()
				if err != nil {
					return nil, err
				}
				samp, err := br.ReadByte()
				if err != nil {
					return nil, err
				}
				tq, err := br.ReadByte()
				if err != nil {
					return nil, err
				}
				comps[i] = componentSpec{id: id, h: int(samp >> 4), v: int(samp & 0x0f), tq: int(tq)}
			}
			cs := YCbCr
			sampling := make([]Sampling, nComp)
			for i, c := range comps {
				sampling[i] = Sampling{H: c.h, V: c.v}
			}
			switch {
			case nComp == 1:
				cs = Grayscale
			case adobeTransform == 0:
				cs = RGB
			}
			img = NewCoefImage(width, height, cs, sampling)
			for i, c := range comps {
				if quantTables[c.tq] == nil {
					return nil, errors.Wrap(ErrMissingTable, "jpegcodec: SOF references undefined DQT")
				}
				img.Planes[i].Quant = *quantTables[c.tq]
			}

		case sof2Marker:
			return nil, errors.Wrap(ErrUnsupportedFormat, "jpegcodec: progressive JPEG is not supported")

		case sof1Marker, sof3Marker, sof5Marker, sof6Marker, sof7Marker,
			sof9Marker, sof10Marker, sof11Marker, sof13Marker, sof14Marker, sof15Marker:
			return nil, errors.Wrap(ErrUnsupportedFormat, "jpegcodec: only baseline sequential JPEG is supported")

		case app14Marker:
			data := make([]byte, remaining)
			if _, err := io.ReadFull(br, data); err != nil {
				return nil, err
			}
			remaining = 0
			if len(data) >= 12 && string(data[0:5]) == "Adobe" {
				adobeTransform = int(data[11])
			}

		case dqtMarker:
			for remaining > 0 {
				pqTq, err := br.ReadByte()
				if err != nil {
					return nil, err
				}
				remaining--
				tq := pqTq & 0x0f
				var table [blockSize]uint16
				for zig := 0; zig < blockSize; zig++ {
					v, err := br.ReadByte()
					if err != nil {
						return nil, err
					}
					remaining--
					table[block.Natural[zig]] = uint16(v)
				}
				t := table
				quantTables[tq] = &t
			}

		case dhtMarker:
			for remaining > 0 {
				tcTh, err := br.ReadByte()
				if err != nil {
					return nil, err
				}
				remaining--
				class, dest := tcTh>>4, tcTh&0x0f
				var spec huffmanSpec
				total := 0
				for i := 0; i < 16; i++ {
					c, err := br.ReadByte()
					if err != nil {
						return nil, err
					}
					remaining--
					spec.count[i] = c
					total += int(c)
				}
				spec.value = make([]byte, total)
				for i := range spec.value {
					v, err := br.ReadByte()
					if err != nil {
						return nil, err
					}
					remaining--
					spec.value[i] = v
				}
				d := newHuffmanDecoder(spec)
				if class == 0 {
					dcTables[dest] = d
				} else {
					acTables[dest] = d
				}
			}

		case driMarker:
			v, err := readUint16()
			if err != nil {
				return nil, err
			}
			restartInterval = v
			remaining -= 2

		case sosMarker:
			if img == nil {
				return nil, errors.New("jpegcodec: SOS before SOF")
			}
			ns, err := br.ReadByte()
			if err != nil {
				return nil, err
			}
			scanComps := make([]int, ns)
			for i := range scanComps {
				cs, err := br.ReadByte()
				if err != nil {
					return nil, err
				}
				tdTa, err := br.ReadByte()
				if err != nil {
					return nil, err
				}
				idx := -1
				for j, c := range comps {
					if c.id == cs {
						idx = j
						break
					}
				}
				if idx < 0 {
					return nil, errors.New("jpegcodec: SOS references unknown component")
				}
				comps[idx].td = int(tdTa >> 4)
				comps[idx].ta = int(tdTa & 0x0f)
				scanComps[i] = idx
			}
			// Ss, Se, AhAl: baseline sequential always uses 0, 63, 0.
			if _, err := br.Discard(3); err != nil {
				return nil, err
			}
			m, err := decodeScan(br, img, comps, scanComps, dcTables, acTables, restartInterval)
			if err != nil {
				return nil, errors.Wrap(err, "jpegcodec: decoding scan")
			}
			pendingMarker = m

		default:
			if _, err := br.Discard(remaining); err != nil {
				return nil, err
			}
		}
	}
}

// decodeScan decodes one entropy-coded scan's interleaved MCUs, dequantizing
// each block as it completes. It returns the marker byte that follows the
// scan (already consumed from the stream, to be treated by Decode's loop as
// if it had just been read normally).
func decodeScan(br *bufio.Reader, img *CoefImage, comps []componentSpec, scanComps []int, dcTables, acTables [4]*huffmanDecoder, restartInterval int) (byte, error) {
	maxH, maxV := img.MaxSampling()
	mcuWide := (img.Width + 8*maxH - 1) / (8 * maxH)
	mcuHigh := (img.Height + 8*maxV - 1) / (8 * maxV)

	bits := newBitReader(br)
	prevDC := make([]int32, len(comps))
	mcuCount := 0

	for my := 0; my < mcuHigh; my++ {
		for mx := 0; mx < mcuWide; mx++ {
			if restartInterval > 0 && mcuCount > 0 && mcuCount%restartInterval == 0 {
				marker, err := bits.alignAndReadMarker()
				if err != nil {
					return 0, err
				}
				if marker < rst0Marker || marker > rst7Marker {
					return 0, errors.Errorf("jpegcodec: expected restart marker, got 0xff%02x", marker)
				}
				for i := range prevDC {
					prevDC[i] = 0
				}
			}
			for _, ci := range scanComps {
				c := comps[ci]
				plane := img.Planes[ci]
				for v := 0; v < c.v; v++ {
					for h := 0; h < c.h; h++ {
						bx, by := mx*c.h+h, my*c.v+v
						blk := plane.Block(bx, by)
						if err := decodeBlock(bits, blk, dcTables[c.td], acTables[c.ta], &prevDC[ci], &plane.Quant); err != nil {
							return 0, err
						}
					}
				}
			}
			mcuCount++
		}
	}
	return bits.alignAndReadMarker()
}

// decodeBlock decodes one Huffman-coded DC/AC block and dequantizes it
// in-place (natural order), per section F.2 of the JPEG spec.
func decodeBlock(br *bitReader, blk *block.Block, dc, ac *huffmanDecoder, prevDC *int32, quant *[blockSize]uint16) error {
	if dc == nil || ac == nil {
		return errors.Wrap(ErrMissingTable, "jpegcodec: scan uses undefined huffman table")
	}
	size, err := dc.decode(br)
	if err != nil {
		return err
	}
	diff, err := br.receiveExtend(uint32(size))
	if err != nil {
		return err
	}
	*prevDC += diff
	var raw block.Block
	raw[0] = *prevDC

	for k := 1; k < blockSize; {
		rs, err := ac.decode(br)
		if err != nil {
			return err
		}
		r, s := int(rs>>4), rs&0x0f
		if s == 0 {
			if r != 15 {
				break // EOB
			}
			k += 16
			continue
		}
		k += r
		if k >= blockSize {
			return errors.New("jpegcodec: AC run exceeds block size")
		}
		v, err := br.receiveExtend(uint32(s))
		if err != nil {
			return err
		}
		raw[block.Natural[k]] = v
		k++
	}

	for i := range raw {
		blk[i] = raw[i] * int32(quant[i])
	}
	return nil
}

// Encode writes img as a baseline-sequential JPEG. img.Planes' Quant tables
// are written verbatim as the DQT segment; callers that built img from
// pixels via EncodeFromPixels, or that adapted a decoded CoefImage, already
// have quantization tables in place.
func Encode(w io.Writer, img *CoefImage) error {
	if img.Width >= 1<<16 || img.Height >= 1<<16 {
		return errors.New("jpegcodec: image too large to encode")
	}
	bw := newBitWriter(w)

	bw.writeByte(0xff)
	bw.writeByte(soiMarker)

	if len(img.Planes) == 3 {
		writeAdobeAPP14(bw, img.ColorSpace)
	}

	writeDQT(bw, img.Planes)
	writeSOF(bw, img)
	writeDHT(bw, len(img.Planes))
	writeSOS(bw, img)

	bw.writeByte(0xff)
	bw.writeByte(eoiMarker)
	if bw.err != nil {
		return bw.err
	}
	return bw.flush()
}

// writeAdobeAPP14 writes the Adobe application segment 3-component decoders
// use to tell RGB and YCbCr frames apart: transform 0 means "no colour
// transform", i.e. RGB; transform 1 means YCbCr. Without this marker a
// decoder (including this package's own Decode) falls back to the JFIF
// convention of assuming YCbCr.
func writeAdobeAPP14(bw *bitWriter, cs ColorSpace) {
	transform := byte(1)
	if cs == RGB {
		transform = 0
	}
	bw.writeMarkerHeader(app14Marker, 2+5+2+2+2+1)
	bw.write([]byte("Adobe"))
	bw.writeByte(0)
	bw.writeByte(100)
	bw.writeByte(0)
	bw.writeByte(0)
	bw.writeByte(0)
	bw.writeByte(0)
	bw.writeByte(transform)
}

func writeDQT(bw *bitWriter, planes []*Plane) {
	// Each distinct quant table is written once; components sharing the
	// luminance/chrominance pair (plane 0 vs planes 1..) write at most two.
	tables := dedupQuant(planes)
	length := 2 + len(tables)*(1+blockSize)
	bw.writeMarkerHeader(dqtMarker, length)
	for tq, p := range tables {
		bw.writeByte(byte(tq))
		for zig := 0; zig < blockSize; zig++ {
			bw.writeByte(byte(p.Quant[block.Natural[zig]]))
		}
	}
}

// dedupQuant assigns each plane a quantization table index, reusing index 0
// for the first plane and index 1 for any later plane whose table differs
// from the first's (the ordinary luminance/chrominance split), and returns
// the distinct tables in index order.
func dedupQuant(planes []*Plane) []*Plane {
	out := []*Plane{planes[0]}
	for _, p := range planes[1:] {
		if p.Quant != planes[0].Quant {
			out = append(out, p)
			break
		}
	}
	return out
}

func quantIndexOf(planes []*Plane, p *Plane) int {
	if p.Quant == planes[0].Quant {
		return 0
	}
	return 1
}

func writeSOF(bw *bitWriter, img *CoefImage) {
	n := len(img.Planes)
	length := 8 + 3*n
	bw.writeMarkerHeader(sof0Marker, length)
	bw.writeByte(8)
	bw.writeByte(byte(img.Height >> 8))
	bw.writeByte(byte(img.Height & 0xff))
	bw.writeByte(byte(img.Width >> 8))
	bw.writeByte(byte(img.Width & 0xff))
	bw.writeByte(byte(n))
	for i, p := range img.Planes {
		bw.writeByte(byte(i + 1))
		bw.writeByte(byte(p.H<<4 | p.V))
		bw.writeByte(byte(quantIndexOf(img.Planes, p)))
	}
}

func writeDHT(bw *bitWriter, nComponent int) {
	specs := theHuffmanSpec[:]
	if nComponent == 1 {
		specs = specs[:2]
	}
	length := 2
	for _, s := range specs {
		length += 1 + 16 + len(s.value)
	}
	bw.writeMarkerHeader(dhtMarker, length)
	tcTh := []byte{0x00, 0x10, 0x01, 0x11}
	for i, s := range specs {
		bw.writeByte(tcTh[i])
		bw.write(s.count[:])
		bw.write(s.value)
	}
}

func writeSOS(bw *bitWriter, img *CoefImage) {
	n := len(img.Planes)
	length := 2 + 1 + 2*n + 3
	bw.writeMarkerHeader(sosMarker, length)
	bw.writeByte(byte(n))
	for i, p := range img.Planes {
		// Td/Ta name DHT destination slots, not huffIndex values: writeDHT
		// puts the luminance tables in slot 0 and the chrominance in slot 1.
		dest := quantIndexOf(img.Planes, p)
		bw.writeByte(byte(i + 1))
		bw.writeByte(byte(dest<<4 | dest))
	}
	bw.writeByte(0x00)
	bw.writeByte(0x3f)
	bw.writeByte(0x00)

	maxH, maxV := img.MaxSampling()
	mcuWide := (img.Width + 8*maxH - 1) / (8 * maxH)
	mcuHigh := (img.Height + 8*maxV - 1) / (8 * maxV)
	prevDC := make([]int32, n)
	for my := 0; my < mcuHigh; my++ {
		for mx := 0; mx < mcuWide; mx++ {
			for i, p := range img.Planes {
				td, ta := huffIndexLuminanceDC, huffIndexLuminanceAC
				if quantIndexOf(img.Planes, p) == 1 {
					td, ta = huffIndexChrominanceDC, huffIndexChrominanceAC
				}
				for v := 0; v < p.V; v++ {
					for h := 0; h < p.H; h++ {
						blk := p.Block(mx*p.H+h, my*p.V+v)
						encodeBlock(bw, blk, &p.Quant, td, ta, &prevDC[i])
					}
				}
			}
		}
	}
	bw.flushPadding()
}

// encodeBlock quantizes a dequantized natural-order block and Huffman-codes
// it, starting from an already-true-scale coefficient rather than an FDCT
// output: re-quantizing a value that is already a coefficient times its
// quant entry must truncate toward zero (Go's integer / already does this),
// not round to nearest the way a fresh FDCT output is quantized in
// quantizeBlockInto — rounding here would disagree with the truncation the
// compositor itself applies when writing blended coefficients back.
func encodeBlock(bw *bitWriter, blk *block.Block, quant *[blockSize]uint16, td, ta huffIndex, prevDC *int32) {
	dc := blk[0] / int32(quant[0])
	bw.emitHuffRLE(td, 0, dc-*prevDC)
	*prevDC = dc

	runLength := int32(0)
	for zig := 1; zig < blockSize; zig++ {
		ac := blk[block.Natural[zig]] / int32(quant[block.Natural[zig]])
		if ac == 0 {
			runLength++
			continue
		}
		for runLength > 15 {
			bw.emitHuff(ta, 0xf0)
			runLength -= 16
		}
		bw.emitHuffRLE(ta, runLength, ac)
		runLength = 0
	}
	if runLength > 0 {
		bw.emitHuff(ta, 0x00)
	}
}

// DecodeToPixels decodes r into a standard library raster image: an
// *image.Gray for single-component frames, an *image.YCbCr for YCbCr
// frames, or an *image.NRGBA for RGB frames.
func DecodeToPixels(r io.Reader) (image.Image, error) {
	img, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return img.ToPixels()
}

// ToPixels rasterizes a decoded (or composited) CoefImage back to 8-bit
// samples by running each block through the inverse DCT and undoing the
// level shift.
func (img *CoefImage) ToPixels() (image.Image, error) {
	if img.ColorSpace == Grayscale {
		p := img.Planes[0]
		gray := &image.Gray{
			Pix:    make([]byte, p.BlocksWide*8*p.BlocksHigh*8),
			Stride: p.BlocksWide * 8,
			Rect:   image.Rect(0, 0, img.Width, img.Height),
		}
		planePixels(p, gray.Pix, gray.Stride)
		return gray, nil
	}
	if len(img.Planes) != 3 {
		return nil, errors.Wrap(ErrTooManyComponents, "jpegcodec: ToPixels needs 1 or 3 components")
	}
	if img.ColorSpace == RGB {
		return img.rgbPlanesToImage()
	}
	y, cb, cr := img.Planes[0], img.Planes[1], img.Planes[2]
	ratio, err := subsampleRatio(y, cb)
	if err != nil {
		return nil, err
	}
	out := &image.YCbCr{
		Y:              make([]byte, y.BlocksWide*8*y.BlocksHigh*8),
		Cb:             make([]byte, cb.BlocksWide*8*cb.BlocksHigh*8),
		Cr:             make([]byte, cr.BlocksWide*8*cr.BlocksHigh*8),
		YStride:        y.BlocksWide * 8,
		CStride:        cb.BlocksWide * 8,
		SubsampleRatio: ratio,
		Rect:           image.Rect(0, 0, img.Width, img.Height),
	}
	planePixels(y, out.Y, out.YStride)
	planePixels(cb, out.Cb, out.CStride)
	planePixels(cr, out.Cr, out.CStride)
	return out, nil
}

// rgbPlanesToImage rasterizes an RGB-colourspace CoefImage into an
// *image.NRGBA. Unlike YCbCr, the standard library has no subsampled raster
// type for plain RGB, so this only supports 4:4:4 sampling; an RGB frame
// declaring anything else is rejected rather than silently box-upsampled.
func (img *CoefImage) rgbPlanesToImage() (image.Image, error) {
	r, g, b := img.Planes[0], img.Planes[1], img.Planes[2]
	if r.H != g.H || r.H != b.H || r.V != g.V || r.V != b.V {
		return nil, errors.Wrap(ErrUnsupportedFormat, "jpegcodec: RGB colour space requires 4:4:4 sampling")
	}
	stride := r.BlocksWide * 8
	rp := make([]byte, stride*r.BlocksHigh*8)
	gp := make([]byte, stride*r.BlocksHigh*8)
	bp := make([]byte, stride*r.BlocksHigh*8)
	planePixels(r, rp, stride)
	planePixels(g, gp, stride)
	planePixels(b, bp, stride)

	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := y*stride + x
			o := out.PixOffset(x, y)
			out.Pix[o+0] = rp[i]
			out.Pix[o+1] = gp[i]
			out.Pix[o+2] = bp[i]
			out.Pix[o+3] = 0xff
		}
	}
	return out, nil
}

func subsampleRatio(y, c *Plane) (image.YCbCrSubsampleRatio, error) {
	switch {
	case c.H == y.H && c.V == y.V:
		return image.YCbCrSubsampleRatio444, nil
	case c.H*2 == y.H && c.V == y.V:
		return image.YCbCrSubsampleRatio422, nil
	case c.H*2 == y.H && c.V*2 == y.V:
		return image.YCbCrSubsampleRatio420, nil
	default:
		return 0, errors.Wrap(ErrUnsupportedFormat, "jpegcodec: unsupported chroma subsampling ratio")
	}
}

// planePixels runs every block in p through the inverse DCT and writes the
// level-shifted samples into dst at the given stride. p's coefficients are
// dequantized (true DCT scale); block.IDCT expects the *8 fixed-point scale
// block.FDCT's output carries, so that scale is reapplied here before the
// inverse transform and is not otherwise meaningful.
func planePixels(p *Plane, dst []byte, stride int) {
	for by := 0; by < p.BlocksHigh; by++ {
		for bx := 0; bx < p.BlocksWide; bx++ {
			var raw block.Block
			blk := p.Block(bx, by)
			for i := range raw {
				raw[i] = blk[i] * 8
			}
			block.IDCT(&raw)
			for y := 0; y < 8; y++ {
				row := dst[(by*8+y)*stride+bx*8 : (by*8+y)*stride+bx*8+8]
				for x := 0; x < 8; x++ {
					row[x] = byte(raw[8*y+x] + 128)
				}
			}
		}
	}
}

// EncodeFromPixels encodes a raster image to JPEG at the given quality and
// colour space, building an intermediate CoefImage via forward DCT and
// quantization.
func EncodeFromPixels(w io.Writer, src image.Image, quality int, cs ColorSpace, sampling []Sampling) error {
	img, err := FromPixels(src, quality, cs, sampling)
	if err != nil {
		return err
	}
	return Encode(w, img)
}

// FromPixels forward-transforms and quantizes a raster image into a
// CoefImage, without writing it out. The root package's dropon adapter
// needs the coefficient image itself, not an encoded byte stream. cs
// picks which of Grayscale/YCbCr/RGB the source pixels are converted to;
// callers that only have a sampling layout on hand (one plane vs three) and
// don't care about RGB vs YCbCr can keep using the len(sampling)==1 == gray
// convention themselves before calling in.
func FromPixels(src image.Image, quality int, cs ColorSpace, sampling []Sampling) (*CoefImage, error) {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	img := NewCoefImage(width, height, cs, sampling)
	quant := ScaledQuantTables(quality)
	for i, p := range img.Planes {
		qi := quantIndexLuminance
		if i > 0 {
			qi = quantIndexChrominance
		}
		p.Quant = quant[qi]
	}

	maxH, maxV := img.MaxSampling()
	switch cs {
	case Grayscale:
		fillGrayPlane(img.Planes[0], src, bounds, maxH, maxV)
	case RGB:
		fillRGBPlanes(img.Planes, src, bounds, maxH, maxV)
	default:
		fillYCbCrPlanes(img.Planes, src, bounds, maxH, maxV)
	}
	return img, nil
}

func fillGrayPlane(p *Plane, src image.Image, bounds image.Rectangle, maxH, maxV int) {
	mcuWide, mcuHigh := p.BlocksWide/maxH, p.BlocksHigh/maxV
	for my := 0; my < mcuHigh; my++ {
		for mx := 0; mx < mcuWide; mx++ {
			for v := 0; v < p.V; v++ {
				for h := 0; h < p.H; h++ {
					var b block.Block
					ox, oy := (mx*p.H+h)*8, (my*p.V+v)*8
					for y := 0; y < 8; y++ {
						for x := 0; x < 8; x++ {
							sx, sy := clampPt(bounds, ox+x, oy+y)
							r, g, bch, _ := src.At(sx, sy).RGBA()
							yy, _, _ := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bch>>8))
							b[8*y+x] = int32(yy) - 128
						}
					}
					block.FDCT(&b)
					quantizeBlockInto(p.Block(mx*p.H+h, my*p.V+v), &b, &p.Quant)
				}
			}
		}
	}
}

func fillYCbCrPlanes(planes []*Plane, src image.Image, bounds image.Rectangle, maxH, maxV int) {
	width, height := bounds.Dx(), bounds.Dy()
	yb := make([]byte, width*height)
	cbb := make([]byte, width*height)
	crb := make([]byte, width*height)
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			r, g, bch, _ := src.At(bounds.Min.X+px, bounds.Min.Y+py).RGBA()
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bch>>8))
			yb[py*width+px] = yy
			cbb[py*width+px] = cb
			crb[py*width+px] = cr
		}
	}

	fillComponent(planes[0], yb, width, height, maxH, maxV)
	fillChroma(planes[1], cbb, width, height, maxH, maxV)
	fillChroma(planes[2], crb, width, height, maxH, maxV)
}

// fillRGBPlanes fills an RGB-colourspace image's three planes directly from
// the source's red, green and blue samples, with no colour-difference
// conversion. It reuses fillChroma's box-downsample for each plane, since an
// RGB frame with H==maxH/V==maxV planes reduces to the no-op, single-sample
// case it already handles.
func fillRGBPlanes(planes []*Plane, src image.Image, bounds image.Rectangle, maxH, maxV int) {
	width, height := bounds.Dx(), bounds.Dy()
	rb := make([]byte, width*height)
	gb := make([]byte, width*height)
	bb := make([]byte, width*height)
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			r, g, bch, _ := src.At(bounds.Min.X+px, bounds.Min.Y+py).RGBA()
			rb[py*width+px] = byte(r >> 8)
			gb[py*width+px] = byte(g >> 8)
			bb[py*width+px] = byte(bch >> 8)
		}
	}

	fillChroma(planes[0], rb, width, height, maxH, maxV)
	fillChroma(planes[1], gb, width, height, maxH, maxV)
	fillChroma(planes[2], bb, width, height, maxH, maxV)
}

func fillComponent(p *Plane, pix []byte, width, height, maxH, maxV int) {
	mcuWide, mcuHigh := p.BlocksWide/maxH, p.BlocksHigh/maxV
	for my := 0; my < mcuHigh; my++ {
		for mx := 0; mx < mcuWide; mx++ {
			for v := 0; v < p.V; v++ {
				for h := 0; h < p.H; h++ {
					var b block.Block
					ox, oy := (mx*p.H+h)*8, (my*p.V+v)*8
					for y := 0; y < 8; y++ {
						for x := 0; x < 8; x++ {
							sx, sy := clampXY(width, height, ox+x, oy+y)
							b[8*y+x] = int32(pix[sy*width+sx]) - 128
						}
					}
					block.FDCT(&b)
					quantizeBlockInto(p.Block(mx*p.H+h, my*p.V+v), &b, &p.Quant)
				}
			}
		}
	}
}

// fillChroma is fillComponent plus a box downsample: each destination
// sample is the average of the source samples its sampling factor covers,
// for any factor up to 4.
func fillChroma(p *Plane, pix []byte, width, height, maxH, maxV int) {
	sx, sy := maxH/p.H, maxV/p.V
	mcuWide, mcuHigh := p.BlocksWide/maxH, p.BlocksHigh/maxV
	for my := 0; my < mcuHigh; my++ {
		for mx := 0; mx < mcuWide; mx++ {
			for v := 0; v < p.V; v++ {
				for h := 0; h < p.H; h++ {
					var b block.Block
					ox, oy := (mx*p.H+h)*8*sx, (my*p.V+v)*8*sy
					for y := 0; y < 8; y++ {
						for x := 0; x < 8; x++ {
							sum, n := 0, 0
							for dy := 0; dy < sy; dy++ {
								for dx := 0; dx < sx; dx++ {
									cx, cy := clampXY(width, height, ox+x*sx+dx, oy+y*sy+dy)
									sum += int(pix[cy*width+cx])
									n++
								}
							}
							b[8*y+x] = int32(sum/n) - 128
						}
					}
					block.FDCT(&b)
					quantizeBlockInto(p.Block(mx*p.H+h, my*p.V+v), &b, &p.Quant)
				}
			}
		}
	}
}

func quantizeBlockInto(dst *block.Block, fdctOut *block.Block, quant *[blockSize]uint16) {
	for i := range dst {
		q := roundDiv(fdctOut[i], 8*int32(quant[i]))
		dst[i] = q * int32(quant[i])
	}
}

func clampXY(width, height, x, y int) (int, int) {
	if x >= width {
		x = width - 1
	}
	if y >= height {
		y = height - 1
	}
	return x, y
}

func clampPt(bounds image.Rectangle, x, y int) (int, int) {
	xmax, ymax := bounds.Max.X-1, bounds.Max.Y-1
	sx, sy := bounds.Min.X+x, bounds.Min.Y+y
	if sx > xmax {
		sx = xmax
	}
	if sy > ymax {
		sy = ymax
	}
	return sx, sy
}
