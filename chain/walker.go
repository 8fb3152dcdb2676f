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

package chain

import (
	"github.com/creachadair/rtgen/hashes"
)

// ReduceStride is the spacing between reduction families: table index t
// shifts every reduction by t*ReduceStride, so tables with distinct
// indexes cover the space independently.
const ReduceStride = 65536

// A Walker holds the state of one chain walk: the read-only walk
// parameters, and the current index, plaintext, and digest, which are
// rewritten once per chain column.
//
// A Walker is not safe for concurrent use; each worker must own its own,
// obtained from New or Clone.
type Walker struct {
	space        *Space
	routine      hashes.Routine
	reduceOffset uint64

	index uint64
	plain []byte
	sum   []byte
}

// New constructs a Walker over the given space and hash routine for the
// table with the given index.
func New(space *Space, routine hashes.Routine, tableIndex int) *Walker {
	return &Walker{
		space:        space,
		routine:      routine,
		reduceOffset: uint64(tableIndex) * ReduceStride,
		plain:        make([]byte, 0, space.MaxLength()),
		sum:          make([]byte, 0, routine.Size),
	}
}

// Clone returns a new Walker with the same parameters as w and fresh
// working state.
func (w *Walker) Clone() *Walker {
	cp := *w
	cp.index = 0
	cp.plain = make([]byte, 0, w.space.MaxLength())
	cp.sum = make([]byte, 0, w.routine.Size)
	return &cp
}

// Space returns the plaintext space w walks over.
func (w *Walker) Space() *Space { return w.space }

// Index returns the current index.
func (w *Walker) Index() uint64 { return w.index }

// SetIndex sets the current index. SetIndex panics if index is out of
// range for the space.
func (w *Walker) SetIndex(index uint64) {
	if index >= w.space.Total() {
		panic("index out of range")
	}
	w.index = index
}

// Plain returns the current plaintext. The returned slice is owned by w
// and is rewritten by the next call to IndexToPlain.
func (w *Walker) Plain() []byte { return w.plain }

// Hash returns the current digest. The returned slice is owned by w and
// is rewritten by the next call to PlainToHash.
func (w *Walker) Hash() []byte { return w.sum }

// IndexToPlain resolves the current index into its plaintext.
func (w *Walker) IndexToPlain() {
	w.plain = w.space.Plaintext(w.index, w.plain[:0])
}

// PlainToHash computes the digest of the current plaintext.
func (w *Walker) PlainToHash() {
	w.sum = w.routine.Sum(w.sum[:0], w.plain)
}

// HashToIndex reduces the current digest back to an index for reduction
// column pos.
func (w *Walker) HashToIndex(pos int) {
	w.index = w.space.Reduce(w.sum, w.reduceOffset, uint64(pos))
}

// Step advances the walk through length reduction columns starting from
// the current index and returns the resulting end index. Step is a pure
// function of the entry index for fixed walk parameters.
func (w *Walker) Step(length int) uint64 {
	for pos := 0; pos < length; pos++ {
		w.IndexToPlain()
		w.PlainToHash()
		w.HashToIndex(pos)
	}
	return w.index
}

// WalkFrom sets the current index to start and returns Step(length).
func (w *Walker) WalkFrom(start uint64, length int) uint64 {
	w.SetIndex(start)
	return w.Step(length)
}
