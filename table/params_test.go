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

package table

import (
	"errors"
	"testing"

	"github.com/creachadair/rtgen/chain"
	"github.com/creachadair/rtgen/charset"
	"github.com/creachadair/rtgen/hashes"
)

func validParams() Params {
	return Params{
		Hash:      "md5",
		Charset:   "loweralpha",
		MinLen:    1,
		MaxLen:    7,
		ChainLen:  3800,
		NumChains: 10000,
		Part:      "run1",
	}
}

func TestValidate(t *testing.T) {
	if err := validParams().Validate(); err != nil {
		t.Errorf("Validate: unexpected error: %v", err)
	}

	tests := []struct {
		desc string
		edit func(*Params)
		want error
	}{
		{"unknown hash", func(p *Params) { p.Hash = "crc32" }, hashes.ErrNotSupported},
		{"unknown charset", func(p *Params) { p.Charset = "klingon" }, charset.ErrNotSupported},
		{"zero min length", func(p *Params) { p.MinLen = 0 }, chain.ErrLengthRange},
		{"negative min length", func(p *Params) { p.MinLen = -3 }, chain.ErrLengthRange},
		{"max length 10", func(p *Params) { p.MaxLen = 10 }, chain.ErrLengthRange},
		{"min above max", func(p *Params) { p.MinLen = 5; p.MaxLen = 4 }, chain.ErrLengthRange},
		{"negative table index", func(p *Params) { p.TableIndex = -1 }, ErrTableIndex},
		{"zero chain length", func(p *Params) { p.ChainLen = 0 }, ErrChainLength},
		{"zero chains", func(p *Params) { p.NumChains = 0 }, ErrNumChains},
		{"negative chains", func(p *Params) { p.NumChains = -1 }, ErrNumChains},
		{"table at the file limit", func(p *Params) { p.NumChains = MaxChains }, ErrTableTooLarge},
		{"table beyond the file limit", func(p *Params) { p.NumChains = MaxChains + 1 }, ErrTableTooLarge},
	}
	for _, test := range tests {
		p := validParams()
		test.edit(&p)
		if err := p.Validate(); !errors.Is(err, test.want) {
			t.Errorf("Validate (%s): got %v, want %v", test.desc, err, test.want)
		}
	}

	// The largest admissible table is one chain short of the limit.
	p := validParams()
	p.NumChains = MaxChains - 1
	if err := p.Validate(); err != nil {
		t.Errorf("Validate at limit-1: unexpected error: %v", err)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		p    Params
		want string
	}{
		{validParams(), "md5_loweralpha#1-7_0_3800x10000_run1.rt"},
		{Params{Hash: "SHA1", Charset: "numeric", MinLen: 2, MaxLen: 3,
			TableIndex: 7, ChainLen: 100, NumChains: 42},
			"sha1_numeric#2-3_7_100x42_.rt"},
	}
	for _, test := range tests {
		if got := test.p.Filename(); got != test.want {
			t.Errorf("Filename: got %q, want %q", got, test.want)
		}
	}
}
