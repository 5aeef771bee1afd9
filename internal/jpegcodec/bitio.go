// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jpegcodec

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// bitWriter accumulates bits MSB-first and byte-stuffs 0xff with a trailing
// 0x00, per the entropy-coded segment format in Annex F of the JPEG spec.
type bitWriter struct {
	w           *bufio.Writer
	err         error
	bits, nBits uint32
}

func newBitWriter(w io.Writer) *bitWriter {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &bitWriter{w: bw}
}

func (w *bitWriter) writeByte(b byte) {
	if w.err != nil {
		return
	}
	w.err = w.w.WriteByte(b)
}

func (w *bitWriter) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

// emit emits the least significant nBits bits of bits. The precondition is
// bits < 1<<nBits && nBits <= 16.
func (w *bitWriter) emit(bits, nBits uint32) {
	nBits += w.nBits
	bits <<= 32 - nBits
	bits |= w.bits
	for nBits >= 8 {
		b := uint8(bits >> 24)
		w.writeByte(b)
		if b == 0xff {
			w.writeByte(0x00)
		}
		bits <<= 8
		nBits -= 8
	}
	w.bits, w.nBits = bits, nBits
}

// emitHuff emits value encoded with the given compiled Huffman table.
func (w *bitWriter) emitHuff(h huffIndex, value int32) {
	x := theHuffmanLUT[h][value]
	w.emit(x&(1<<24-1), x>>24)
}

// emitHuffRLE emits a run of runLength zeroes followed by value, Huffman
// coding the (run, size) pair and then the value's own bits.
func (w *bitWriter) emitHuffRLE(h huffIndex, runLength, value int32) {
	a, b := value, value
	if a < 0 {
		a, b = -value, value-1
	}
	var nBits uint32
	if a < 0x100 {
		nBits = uint32(bitCount[a])
	} else {
		nBits = 8 + uint32(bitCount[a>>8])
	}
	w.emitHuff(h, runLength<<4|int32(nBits))
	if nBits > 0 {
		w.emit(uint32(b)&(1<<nBits-1), nBits)
	}
}

// writeMarkerHeader writes a marker byte and its big-endian segment length
// (which includes the 2 length bytes themselves, per Annex B).
func (w *bitWriter) writeMarkerHeader(marker byte, length int) {
	w.writeByte(0xff)
	w.writeByte(marker)
	w.writeByte(byte(length >> 8))
	w.writeByte(byte(length & 0xff))
}

// flushPadding pads the final byte with 1 bits, as section F.1.2.3 requires at
// the end of an entropy-coded segment.
func (w *bitWriter) flushPadding() {
	if w.nBits > 0 {
		w.emit(0x7f, 7)
	}
}

func (w *bitWriter) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.w.Flush()
}

// bitReader reads bits MSB-first from an entropy-coded segment, undoing
// byte-stuffing (0xff 0x00 -> 0xff). fill stops short of any real marker it
// sees ahead, so the restart or EOI marker terminating the segment is never
// consumed as data; alignAndReadMarker picks it up once the caller has
// decoded the segment's MCUs.
type bitReader struct {
	r           *bufio.Reader
	bits, nBits uint32
}

func newBitReader(r *bufio.Reader) *bitReader {
	return &bitReader{r: r}
}

func (b *bitReader) fill() error {
	for b.nBits <= 24 {
		p, err := b.r.Peek(2)
		if err != nil {
			if len(p) == 1 && p[0] != 0xff {
				// Lone final byte before EOF; a valid stream always ends
				// with EOI, but don't lose the byte if it doesn't.
				b.r.Discard(1)
				b.bits |= uint32(p[0]) << (24 - b.nBits)
				b.nBits += 8
				continue
			}
			if b.nBits > 0 {
				return nil
			}
			return err
		}
		if p[0] == 0xff {
			if p[1] != 0x00 {
				// A marker (restart or EOI) follows the entropy-coded data.
				// Leave it unconsumed for alignAndReadMarker; whatever is
				// already buffered is the final byte's padding bits.
				if b.nBits > 0 {
					return nil
				}
				return errors.Errorf("jpegcodec: unexpected marker 0xff%02x inside entropy-coded segment", p[1])
			}
			// Byte-stuffed 0xff 0x00: the data byte is 0xff.
			b.r.Discard(2)
			b.bits |= 0xff << (24 - b.nBits)
			b.nBits += 8
			continue
		}
		b.r.Discard(1)
		b.bits |= uint32(p[0]) << (24 - b.nBits)
		b.nBits += 8
	}
	return nil
}

// discard drops any buffered, not-yet-consumed bits, aligning the stream to
// the byte boundary the padding before a restart marker or EOI guarantees.
func (b *bitReader) discard() {
	b.bits, b.nBits = 0, 0
}

// alignAndReadMarker discards buffered bits and reads the next marker byte
// directly from the underlying stream, verifying the 0xff prefix.
func (b *bitReader) alignAndReadMarker() (byte, error) {
	b.discard()
	c, err := b.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if c != 0xff {
		return 0, ErrInvalidMarker
	}
	// 0xff bytes before a marker code are fill bytes, per B.1.1.2.
	m := byte(0xff)
	for m == 0xff {
		m, err = b.r.ReadByte()
		if err != nil {
			return 0, err
		}
	}
	return m, nil
}

// readBit returns the next bit of the entropy-coded segment.
func (b *bitReader) readBit() (uint32, error) {
	if b.nBits == 0 {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}
	bit := b.bits >> 31
	b.bits <<= 1
	b.nBits--
	return bit, nil
}

// receive reads n raw (non-Huffman-coded) bits, MSB first.
func (b *bitReader) receive(n uint32) (int32, error) {
	var x uint32
	for i := uint32(0); i < n; i++ {
		bit, err := b.readBit()
		if err != nil {
			return 0, err
		}
		x = x<<1 | bit
	}
	return int32(x), nil
}

// receiveExtend reads n bits and sign-extends them per Annex F.2.2.1's
// EXTEND procedure: values in the top half of the range are left as-is,
// values in the bottom half become negative.
func (b *bitReader) receiveExtend(n uint32) (int32, error) {
	if n == 0 {
		return 0, nil
	}
	x, err := b.receive(n)
	if err != nil {
		return 0, err
	}
	if x < 1<<(n-1) {
		x += -1<<n + 1
	}
	return x, nil
}

