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

// Package table generates rainbow table files: flat sequences of 16-byte
// chain records, each the start and end index of one hash chain as
// little-endian unsigned 64-bit integers. Generation can be interrupted
// and resumed; a table file records its own progress in its length.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creachadair/rtgen/chain"
	"github.com/creachadair/rtgen/charset"
	"github.com/creachadair/rtgen/hashes"
)

// MaxChains is the exclusive upper bound on the chain count of one table.
// At 16 bytes per record, MaxChains records reach the 2 GiB file limit.
const MaxChains = 1 << 27

// Errors reported by parameter validation. Registry misses surface the
// corresponding errors from the hashes and charset packages.
var (
	ErrTableTooLarge = errors.New("table too large")
	ErrTableIndex    = errors.New("table index out of range")
	ErrChainLength   = errors.New("chain length out of range")
	ErrNumChains     = errors.New("chain count out of range")
)

// Params carries the validated inputs of one generation run.
type Params struct {
	Hash       string // hash routine name (md5, sha1)
	Charset    string // charset name (see the charset package)
	MinLen     int    // shortest plaintext length, ≥ 1
	MaxLen     int    // longest plaintext length, ≤ 9
	TableIndex int    // reduction family tag, ≥ 0
	ChainLen   int    // reduction columns per chain, > 0
	NumChains  int    // records in the finished table, in (0, MaxChains)
	Part       string // free-form filename suffix, may be empty
}

// Validate checks p and returns a descriptive error for the first
// constraint it violates. Values are never clamped.
func (p Params) Validate() error {
	if _, err := hashes.Lookup(p.Hash); err != nil {
		return err
	}
	if _, err := charset.Lookup(p.Charset); err != nil {
		return err
	}
	if p.MinLen < 1 || p.MinLen > p.MaxLen || p.MaxLen > chain.MaxLength {
		return fmt.Errorf("%w: min %d, max %d", chain.ErrLengthRange, p.MinLen, p.MaxLen)
	}
	if p.TableIndex < 0 {
		return fmt.Errorf("%w: %d", ErrTableIndex, p.TableIndex)
	}
	if p.ChainLen <= 0 {
		return fmt.Errorf("%w: %d", ErrChainLength, p.ChainLen)
	}
	if p.NumChains <= 0 {
		return fmt.Errorf("%w: %d", ErrNumChains, p.NumChains)
	}
	if p.NumChains >= MaxChains {
		return fmt.Errorf("%w: %d chains at %d bytes each exceeds 2 GiB",
			ErrTableTooLarge, p.NumChains, RecordSize)
	}
	return nil
}

// Filename returns the canonical file name encoding all parameters of p:
//
//	<hash>_<charset>#<min>-<max>_<tableindex>_<chainlen>x<numchains>_<part>.rt
//
// Two runs with equal parameters name the same file, which is what makes
// resumption work.
func (p Params) Filename() string {
	return fmt.Sprintf("%s_%s#%d-%d_%d_%dx%d_%s.rt",
		strings.ToLower(p.Hash), p.Charset, p.MinLen, p.MaxLen,
		p.TableIndex, p.ChainLen, p.NumChains, p.Part)
}

// walker constructs a chain walker for p. The caller must have validated p.
func (p Params) walker() (*chain.Walker, error) {
	routine, err := hashes.Lookup(p.Hash)
	if err != nil {
		return nil, err
	}
	cs, err := charset.Lookup(p.Charset)
	if err != nil {
		return nil, err
	}
	space, err := chain.NewSpace(cs, p.MinLen, p.MaxLen)
	if err != nil {
		return nil, err
	}
	return chain.New(space, routine, p.TableIndex), nil
}
