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
	"cmp"
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/creachadair/mds/heapq"
	"github.com/creachadair/msync/trigger"
	"github.com/creachadair/rtgen/chain"
	"github.com/creachadair/taskgroup"
)

// ErrAlreadyFinished is reported by Run when the table file already holds
// the full complement of records. Its complete records are left untouched;
// a trailing partial record is truncated away.
var ErrAlreadyFinished = errors.New("table already finished")

// Options are optional settings for a Generator. A nil *Options is ready
// for use and provides default values as described.
type Options struct {
	// The number of concurrent chain workers. Default: runtime.NumCPU.
	Workers int

	// The source of random start indexes. The value is folded modulo the
	// plaintext space size. Default: a cryptographically secure source.
	// Tests substitute a seeded source to make runs reproducible.
	Source func() uint64

	// If set, progress and completion reports are written here.
	Log func(msg string, args ...any)

	// Records are made durable at least every FlushEvery records, and a
	// progress line is reported at the same cadence. Default: 100000.
	FlushEvery int

	// The number of dispatched chains that may be awaiting serialization
	// at once. This bounds the memory held by out-of-order results under
	// skewed scheduling. Default: 1024.
	Buffer int
}

func (o *Options) workers() int {
	if o == nil || o.Workers <= 0 {
		return runtime.NumCPU()
	}
	return o.Workers
}

func (o *Options) source() func() uint64 {
	if o == nil || o.Source == nil {
		return cryptoSource
	}
	return o.Source
}

func (o *Options) log() func(string, ...any) {
	if o == nil || o.Log == nil {
		return func(string, ...any) {}
	}
	return o.Log
}

func (o *Options) flushEvery() int64 {
	if o == nil || o.FlushEvery <= 0 {
		return 100000
	}
	return int64(o.FlushEvery)
}

func (o *Options) buffer() int {
	if o == nil || o.Buffer <= 0 {
		return 1024
	}
	return o.Buffer
}

// cryptoSource returns a uniform random 64-bit value from the system
// CSPRNG. Different runs are expected to produce different tables.
func cryptoSource() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("system random source failed: %v", err))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// A Generator drives the generation of one rainbow table: it dispatches
// independent chain computations to a pool of workers and serializes
// their results to the table file in chain order.
type Generator struct {
	params     Params
	walker     *chain.Walker
	source     func() uint64
	logf       func(string, ...any)
	workers    int
	flushEvery int64
	buffer     int

	nflushed atomic.Int64  // records durably written
	flushed  *trigger.Cond // signaled after each flush
	done     chan struct{} // closed when Run returns
}

// NewGenerator constructs a generator for the given parameters. It
// reports an error without side effects if the parameters are invalid.
func NewGenerator(p Params, opts *Options) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w, err := p.walker()
	if err != nil {
		return nil, err
	}
	return &Generator{
		params:     p,
		walker:     w,
		source:     opts.source(),
		logf:       opts.log(),
		workers:    opts.workers(),
		flushEvery: opts.flushEvery(),
		buffer:     opts.buffer(),
		flushed:    trigger.New(),
		done:       make(chan struct{}),
	}, nil
}

// Params returns the parameters the generator was constructed with.
func (g *Generator) Params() Params { return g.params }

// Path returns the table file path the generator writes under dir.
func (g *Generator) Path(dir string) string {
	return filepath.Join(dir, g.params.Filename())
}

// Flushed returns the number of records known to be durably written.
func (g *Generator) Flushed() int64 { return g.nflushed.Load() }

// Sync blocks until at least n records are durably written, ctx ends, or
// the run ends. If the run ends short of n records, Sync reports an
// error; the cause is whatever Run itself returned.
func (g *Generator) Sync(ctx context.Context, n int64) error {
	for {
		ready := g.flushed.Ready()
		if g.nflushed.Load() >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.done:
			if g.nflushed.Load() >= n {
				return nil
			}
			return errors.New("generation ended")
		case <-ready:
			// try again
		}
	}
}

// A result is one completed chain, keyed by its position in the table.
type result struct {
	index      int64
	start, end uint64
}

// Run opens (or resumes) the table file under dir and generates all
// missing chains. It returns ErrAlreadyFinished if the file is already
// complete, ctx.Err if the run was cancelled, or the first I/O error
// encountered. On cancellation, no new chains are dispatched; chains
// already dispatched run to completion and their records are written, not
// discarded. Every record is flushed and the file remains resumable.
//
// Run must be called at most once per generator.
func (g *Generator) Run(ctx context.Context, dir string) error {
	defer close(g.done)

	path := g.Path(dir)
	numChains := int64(g.params.NumChains)

	tf, err := Open(path)
	if err != nil {
		return err
	}
	first := tf.Done()
	if first >= numChains {
		tf.Close()
		return fmt.Errorf("%w: %q holds %d records", ErrAlreadyFinished, path, first)
	}
	g.nflushed.Store(first)

	begin := time.Now()
	if first > 0 {
		g.logf("resuming %q at chain %d of %d", path, first, numChains)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wg, run := taskgroup.New(taskgroup.Trigger(cancel)).Limit(g.workers)
	results := make(chan result, g.buffer)

	// Each dispatched chain holds a window token until its record is
	// written, bounding the results held out of order when one chain
	// straggles behind its successors.
	window := make(chan struct{}, g.buffer)

	// The collector serializes worker results into table order. Results
	// arrive in completion order; a min-heap on chain index holds the
	// stragglers until their predecessors land.
	var werr error // write error; owned by the collector
	coll := taskgroup.Go(taskgroup.NoError(func() {
		pending := heapq.New(func(a, b result) int { return cmp.Compare(a.index, b.index) })
		next := first
		for r := range results {
			pending.Add(r)
			for werr == nil && pending.Len() > 0 && pending.Front().index == next {
				r, _ := pending.Pop()
				if err := tf.Append(r.start, r.end); err != nil {
					werr = err
					cancel()
					break
				}
				<-window
				next++
				if next%g.flushEvery == 0 || next == numChains {
					if err := tf.Flush(); err != nil {
						werr = err
						cancel()
						break
					}
					g.nflushed.Store(next)
					g.flushed.Signal()
					g.logf("%d/%d chains [%v elapsed]",
						next, numChains, time.Since(begin).Truncate(10*time.Millisecond))
				}
			}
		}
	}))

	// Start indexes are drawn on the dispatch side, in chain order, so
	// that a seeded source reproduces the same table regardless of how
	// the workers are scheduled.
	//
	// Workers deliver every chain they complete: the collector drains the
	// channel until all workers have exited, so the send cannot block
	// forever, and a completed chain is never dropped. Cancellation is
	// observed between chains; work already dispatched runs to
	// completion.
	total := g.walker.Space().Total()
	chainLen := g.params.ChainLen
	for i := first; i < numChains && ctx.Err() == nil; i++ {
		index, start := i, g.source()%total
		select {
		case window <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
		run(func() error {
			w := g.walker.Clone()
			end := w.WalkFrom(start, chainLen)
			results <- result{index: index, start: start, end: end}
			return nil
		})
	}
	gerr := wg.Wait()
	close(results)
	coll.Wait()

	cerr := tf.Close()
	if cerr == nil && werr == nil {
		g.nflushed.Store(tf.Done())
		g.flushed.Signal()
	}

	switch {
	case werr != nil:
		return fmt.Errorf("writing %q: %w", path, werr)
	case gerr != nil:
		return gerr
	case ctx.Err() != nil:
		return ctx.Err()
	case cerr != nil:
		return fmt.Errorf("closing %q: %w", path, cerr)
	}
	g.logf("finished %d chains [%v elapsed]",
		numChains, time.Since(begin).Truncate(10*time.Millisecond))
	return nil
}
