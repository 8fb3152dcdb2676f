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

// Package charset defines the plaintext alphabets a table may draw from.
//
// The order of characters within an alphabet is load-bearing: a plaintext
// index is a positional number over the alphabet, so reordering an alphabet
// changes every index assignment in the table.
package charset

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotSupported is reported by Lookup for a name outside the catalog.
var ErrNotSupported = errors.New("charset not supported")

// A Charset is an ordered alphabet of single-byte characters.
type Charset struct {
	Name  string
	Chars []byte
}

const (
	alpha      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	loweralpha = "abcdefghijklmnopqrstuvwxyz"
	numeric    = "0123456789"
	symbol14   = "!@#$%^&*()-_+="
	symbolRest = "~`[]{}|\\:;\"'<>,.?/ "
)

var sets = map[string]string{
	"alpha":                  alpha,
	"loweralpha":             loweralpha,
	"numeric":                numeric,
	"alpha-numeric":          alpha + numeric,
	"loweralpha-numeric":     loweralpha + numeric,
	"alpha-numeric-symbol14": alpha + numeric + symbol14,
	"all":                    alpha + numeric + symbol14 + symbolRest,
}

// Lookup returns the charset with the given name. The name "byte" selects
// the alphabet of all 256 byte values in natural order. Lookup reports
// ErrNotSupported for any other name outside the catalog.
func Lookup(name string) (Charset, error) {
	if name == "byte" {
		chars := make([]byte, 256)
		for i := range chars {
			chars[i] = byte(i)
		}
		return Charset{Name: name, Chars: chars}, nil
	}
	s, ok := sets[name]
	if !ok {
		return Charset{}, fmt.Errorf("%w: %q", ErrNotSupported, name)
	}
	return Charset{Name: name, Chars: []byte(s)}, nil
}

// Names returns the names of the catalog in sorted order, including "byte".
func Names() []string {
	names := []string{"byte"}
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
