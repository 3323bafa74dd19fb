// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package varint implements the JeeLabs varint encoding used by many sensor nodes to
// pack a list of signed integers into a radio payload.
//
// Each value is shifted left by one with the sign folded into bit 0 (inverting all bits
// for negative values), then emitted big-endian in 7-bit groups. The last byte of each
// value has its top bit set.
//
// Reference: http://jeelabs.org/article/1620c/
package varint

import "errors"

// ErrTruncated is returned by Decode when the buffer ends in the middle of a value.
var ErrTruncated = errors.New("varint: truncated value")

// Append appends the encoding of v to dst and returns the extended buffer.
func Append(dst []byte, v int) []byte {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	var tmp [10]byte
	i := len(tmp) - 1
	tmp[i] = byte(u&0x7f) | 0x80
	for u >>= 7; u != 0; u >>= 7 {
		i--
		tmp[i] = byte(u & 0x7f)
	}
	return append(dst, tmp[i:]...)
}

// Encode encodes a list of values.
func Encode(vals ...int) []byte {
	buf := make([]byte, 0, len(vals)*2)
	for _, v := range vals {
		buf = Append(buf, v)
	}
	return buf
}

// Decode decodes all values in buf. Values decoded before a truncated one are returned
// together with ErrTruncated.
func Decode(buf []byte) ([]int, error) {
	res := []int{}
	var u uint64
	for i, b := range buf {
		u = u<<7 | uint64(b&0x7f)
		if b&0x80 == 0 {
			if i == len(buf)-1 {
				return res, ErrTruncated
			}
			continue
		}
		if u&1 == 0 {
			res = append(res, int(u>>1))
		} else {
			res = append(res, int(^(u >> 1)))
		}
		u = 0
	}
	return res, nil
}
