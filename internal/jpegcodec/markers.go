// Copyright 2011 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jpegcodec

// JPEG marker codes, as defined in ITU-T T.81 Annex B.
const (
	soiMarker  = 0xd8 // Start Of Image.
	eoiMarker  = 0xd9 // End Of Image.
	sof0Marker = 0xc0 // Start Of Frame (baseline sequential), the only frame type this codec encodes or decodes.
	sof1Marker = 0xc1 // Start Of Frame (extended sequential, Huffman) — rejected.
	sof2Marker = 0xc2 // Start Of Frame (progressive, Huffman) — rejected.
	sof3Marker = 0xc3 // Start Of Frame (lossless, Huffman) — rejected.
	sof5Marker = 0xc5 // Start Of Frame (differential sequential, Huffman) — rejected.
	sof6Marker = 0xc6 // Start Of Frame (differential progressive, Huffman) — rejected.
	sof7Marker = 0xc7 // Start Of Frame (differential lossless, Huffman) — rejected.
	// 0xc8 is JPG (reserved), 0xc4/0xcc are DHT/DAC — not SOF markers.
	sof9Marker  = 0xc9 // Start Of Frame (extended sequential, arithmetic) — rejected.
	sof10Marker = 0xca // Start Of Frame (progressive, arithmetic) — rejected.
	sof11Marker = 0xcb // Start Of Frame (lossless, arithmetic) — rejected.
	sof13Marker = 0xcd // Start Of Frame (differential sequential, arithmetic) — rejected.
	sof14Marker = 0xce // Start Of Frame (differential progressive, arithmetic) — rejected.
	sof15Marker = 0xcf // Start Of Frame (differential lossless, arithmetic) — rejected.
	dhtMarker   = 0xc4 // Define Huffman Table.
	dqtMarker   = 0xdb // Define Quantization Table.
	driMarker   = 0xdd // Define Restart Interval.
	sosMarker   = 0xda // Start Of Scan.
	rst0Marker  = 0xd0 // Restart marker, first of 8.
	rst7Marker  = 0xd7 // Restart marker, last of 8.
	app0Marker  = 0xe0 // First application segment (JFIF).
	app14Marker = 0xee // Adobe application segment: carries the colour-transform byte RGB/YCbCr/YCCK frames are told apart by.
	comMarker   = 0xfe // Comment.
)

// blockSize is the number of samples (and dequantized coefficients) in an
// 8x8 coding unit.
const blockSize = 64
