// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jpegcodec

import "github.com/pkg/errors"

// huffmanDecoder is the decode-side counterpart to huffmanLUT: it maps a
// codeword, grouped by bit length, back to the byte it decodes. Unlike
// theHuffmanLUT, these are built at Decode time from whatever DHT segments
// the source JPEG actually carries, since a host photograph handed to the
// compositor need not have been produced by this package's Encode.
type huffmanDecoder struct {
	// codes[length-1] maps a codeword of that length to its decoded value.
	codes [16]map[uint16]byte
}

func newHuffmanDecoder(s huffmanSpec) *huffmanDecoder {
	d := &huffmanDecoder{}
	code, k := uint16(0), 0
	for length := 0; length < 16; length++ {
		if s.count[length] > 0 {
			d.codes[length] = make(map[uint16]byte, s.count[length])
		}
		for j := byte(0); j < s.count[length]; j++ {
			d.codes[length][code] = s.value[k]
			code++
			k++
		}
		code <<= 1
	}
	return d
}

// ErrInvalidHuffmanCode reports an entropy-coded bit sequence that matches
// no codeword in the active Huffman table.
var ErrInvalidHuffmanCode = errors.New("jpegcodec: invalid huffman code")

// decode reads one Huffman-coded symbol from br.
func (d *huffmanDecoder) decode(br *bitReader) (byte, error) {
	var code uint16
	for length := 0; length < 16; length++ {
		bit, err := br.readBit()
		if err != nil {
			return 0, err
		}
		code = code<<1 | uint16(bit)
		if v, ok := d.codes[length][code]; ok {
			return v, nil
		}
	}
	return 0, ErrInvalidHuffmanCode
}
