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

// Package hashes defines the catalog of hash routines a chain walker may
// use. The catalog is fixed: md5 and sha1.
package hashes

import (
	"crypto/md5"
	"crypto/sha1"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotSupported is reported by Lookup for a name outside the catalog.
var ErrNotSupported = errors.New("hash routine not supported")

// A Routine computes the digests consumed by the reduction function.
type Routine struct {
	// Name is the canonical lower-case name of the routine.
	Name string

	// Size is the length of the digest in bytes.
	Size int

	// Sum appends the raw digest of data to dst and returns the extended
	// slice. The digest is the raw bytes, not a printable encoding.
	Sum func(dst, data []byte) []byte
}

var routines = map[string]Routine{
	"md5": {Name: "md5", Size: md5.Size, Sum: func(dst, data []byte) []byte {
		sum := md5.Sum(data)
		return append(dst, sum[:]...)
	}},
	"sha1": {Name: "sha1", Size: sha1.Size, Sum: func(dst, data []byte) []byte {
		sum := sha1.Sum(data)
		return append(dst, sum[:]...)
	}},
}

// Lookup returns the routine with the given name. Names are matched without
// regard to case. Lookup reports ErrNotSupported for any name outside the
// catalog.
func Lookup(name string) (Routine, error) {
	r, ok := routines[strings.ToLower(name)]
	if !ok {
		return Routine{}, fmt.Errorf("%w: %q", ErrNotSupported, name)
	}
	return r, nil
}

// Names returns the names of the supported routines in sorted order.
func Names() []string {
	names := make([]string, 0, len(routines))
	for name := range routines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
