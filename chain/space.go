// Copyright 2022 Michael J. Fromberger. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package chain implements the deterministic walk between plaintext
// indexes, plaintexts, and hashes that generates one compressed hash chain
// of a rainbow table.
package chain

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/creachadair/rtgen/charset"
)

// MaxLength is the largest admissible plaintext length.
const MaxLength = 9

// ErrSpaceTooLarge is reported when the plaintext space does not fit in a
// 64-bit index.
var ErrSpaceTooLarge = errors.New("plaintext space too large")

// ErrLengthRange is reported for plaintext length bounds outside
// 1 ≤ min ≤ max ≤ MaxLength.
var ErrLengthRange = errors.New("plaintext length out of range")

// A Space enumerates all plaintexts over a charset with lengths in
// [minLen, maxLen]. Each plaintext is named by a unique index in
// [0, Total()). Indexes partition by length: indexes below upTo[i] name
// plaintexts of length at most i, so the indexes in [upTo[i-1], upTo[i])
// name exactly the plaintexts of length i.
//
// Within a length bucket, the index is a positional number over the
// charset with the least-significant position at the end of the
// plaintext.
//
// A Space is read-only after construction and safe for concurrent use.
type Space struct {
	chars  []byte
	digit  [256]int16 // position of each byte in chars, or -1
	minLen int
	maxLen int
	upTo   []uint64 // cumulative counts, indexed by length 0..maxLen
	total  uint64
}

// NewSpace constructs the plaintext space for the given charset and length
// bounds. It reports ErrLengthRange if the bounds are invalid, and
// ErrSpaceTooLarge if the number of plaintexts exceeds the 64-bit index
// range.
func NewSpace(cs charset.Charset, minLen, maxLen int) (*Space, error) {
	if len(cs.Chars) == 0 {
		return nil, fmt.Errorf("%w: %q", charset.ErrNotSupported, cs.Name)
	}
	if minLen < 1 || minLen > maxLen || maxLen > MaxLength {
		return nil, fmt.Errorf("%w: min %d, max %d", ErrLengthRange, minLen, maxLen)
	}
	s := &Space{
		chars:  cs.Chars,
		minLen: minLen,
		maxLen: maxLen,
		upTo:   make([]uint64, maxLen+1),
	}
	for i := range s.digit {
		s.digit[i] = -1
	}
	for i, c := range s.chars {
		if s.digit[c] < 0 {
			s.digit[c] = int16(i)
		}
	}

	// upTo[i] = upTo[i-1] + C^i for every length i that is enumerable;
	// shorter lengths contribute nothing but still occupy a slot.
	c := uint64(len(s.chars))
	pow := uint64(1)
	for i := 1; i <= maxLen; i++ {
		hi, lo := mulCheck(pow, c)
		if hi {
			return nil, fmt.Errorf("%w: %d^%d exceeds 64 bits", ErrSpaceTooLarge, c, i)
		}
		pow = lo
		s.upTo[i] = s.upTo[i-1]
		if i >= minLen {
			sum := s.upTo[i] + pow
			if sum < s.upTo[i] {
				return nil, fmt.Errorf("%w: more than 2^64 plaintexts", ErrSpaceTooLarge)
			}
			s.upTo[i] = sum
		}
	}
	s.total = s.upTo[maxLen]
	return s, nil
}

// mulCheck returns a*b with an overflow flag.
func mulCheck(a, b uint64) (overflow bool, prod uint64) {
	prod = a * b
	return a != 0 && prod/a != b, prod
}

// Total returns the number of plaintexts in the space.
func (s *Space) Total() uint64 { return s.total }

// MinLength returns the shortest enumerable plaintext length.
func (s *Space) MinLength() int { return s.minLen }

// MaxLength returns the longest enumerable plaintext length.
func (s *Space) MaxLength() int { return s.maxLen }

// Plaintext appends the plaintext named by index to buf and returns the
// extended slice. Plaintext panics if index ≥ Total().
func (s *Space) Plaintext(index uint64, buf []byte) []byte {
	if index >= s.total {
		panic(fmt.Sprintf("index %d out of range for space of %d", index, s.total))
	}
	n := s.minLen
	for index >= s.upTo[n] {
		n++
	}
	r := index - s.upTo[n-1]

	c := uint64(len(s.chars))
	pos := len(buf)
	buf = append(buf, make([]byte, n)...)
	for k := n - 1; k >= 0; k-- {
		buf[pos+k] = s.chars[r%c]
		r /= c
	}
	return buf
}

// Index returns the index naming the given plaintext. It reports an error
// if the plaintext has a length outside the space bounds or contains a
// character outside the charset.
func (s *Space) Index(plain []byte) (uint64, error) {
	n := len(plain)
	if n < s.minLen || n > s.maxLen {
		return 0, fmt.Errorf("%w: plaintext length %d", ErrLengthRange, n)
	}
	c := uint64(len(s.chars))
	var r uint64
	for _, b := range plain {
		d := s.digit[b]
		if d < 0 {
			return 0, fmt.Errorf("character %q not in charset", b)
		}
		r = r*c + uint64(d)
	}
	return s.upTo[n-1] + r, nil
}

// Reduce maps a digest back into the index space for reduction column pos.
// The first four bytes of the digest are read as a little-endian unsigned
// 32-bit integer, shifted by the table's reduction offset and the column
// number, and folded modulo Total(). Only the first four digest bytes are
// consumed, for md5 and sha1 alike.
func (s *Space) Reduce(digest []byte, offset, pos uint64) uint64 {
	r := uint64(binary.LittleEndian.Uint32(digest))
	return (r + offset + pos) % s.total
}
