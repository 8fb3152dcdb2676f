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

// Package bench measures the throughput of the chain-walker inner loop
// for a given parameter set. Hashes per second dominate the feasibility
// of a table, so the measurement walks real chains rather than timing
// the digest in isolation.
package bench

import (
	"fmt"
	"strings"
	"time"

	"github.com/creachadair/atomicfile"
	"github.com/creachadair/rtgen/chain"
	"github.com/creachadair/rtgen/charset"
	"github.com/creachadair/rtgen/hashes"
	"github.com/creachadair/rtgen/table"
)

// A Result reports the outcome of one measurement run.
type Result struct {
	Params  table.Params
	Chains  int64         // complete chains walked
	Steps   int64         // reduction columns executed
	Elapsed time.Duration // wall time spent walking
}

// StepsPerSec returns the measured rate of chain steps (one step is one
// index→plaintext→hash→index column) per second of wall time.
func (r *Result) StepsPerSec() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Steps) / r.Elapsed.Seconds()
}

// String renders a human-readable report.
func (r *Result) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "benchmark: %s %s#%d-%d index %d\n",
		r.Params.Hash, r.Params.Charset, r.Params.MinLen, r.Params.MaxLen, r.Params.TableIndex)
	fmt.Fprintf(&sb, "chains:    %d of length %d\n", r.Chains, r.Params.ChainLen)
	fmt.Fprintf(&sb, "steps:     %d in %v\n", r.Steps, r.Elapsed.Truncate(time.Millisecond))
	fmt.Fprintf(&sb, "rate:      %.0f steps/sec\n", r.StepsPerSec())
	return sb.String()
}

// WriteFile atomically writes the rendered report to path.
func (r *Result) WriteFile(path string) error {
	return atomicfile.WriteData(path, []byte(r.String()), 0644)
}

// Run walks chains with the given parameters on a single worker for at
// least d of wall time and reports the measured rates. The parameter
// record must validate; NumChains is not consulted.
func Run(p table.Params, d time.Duration) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
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
	w := chain.New(space, routine, p.TableIndex)

	// Start indexes stride through the space so successive chains do not
	// share a warm prefix.
	const stride = 2654435761 // Knuth multiplicative constant
	r := &Result{Params: p}
	begin := time.Now()
	for r.Elapsed < d {
		start := (uint64(r.Chains) * stride) % space.Total()
		w.WalkFrom(start, p.ChainLen)
		r.Chains++
		r.Steps += int64(p.ChainLen)
		r.Elapsed = time.Since(begin)
	}
	return r, nil
}
