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
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func testParams() Params {
	return Params{
		Hash:      "md5",
		Charset:   "loweralpha",
		MinLen:    1,
		MaxLen:    4,
		ChainLen:  25,
		NumChains: 300,
		Part:      "test",
	}
}

// seededSource returns a reproducible start-index source with the first
// skip draws discarded. Chain i consumes draw i, so a resume from record
// n replays the original table when given skip=n.
func seededSource(seed int64, skip int64) func() uint64 {
	rng := rand.New(rand.NewSource(seed))
	for i := int64(0); i < skip; i++ {
		rng.Uint64()
	}
	return rng.Uint64
}

func mustRun(t *testing.T, p Params, dir string, opts *Options) {
	t.Helper()
	g, err := NewGenerator(p, opts)
	if err != nil {
		t.Fatalf("NewGenerator: unexpected error: %v", err)
	}
	if err := g.Run(context.Background(), dir); err != nil {
		t.Fatalf("Run: unexpected error: %v", err)
	}
}

func TestGenerate(t *testing.T) {
	p := testParams()
	dir := t.TempDir()
	mustRun(t, p, dir, &Options{Source: seededSource(1, 0), Workers: 8, FlushEvery: 50})

	data, err := os.ReadFile(filepath.Join(dir, p.Filename()))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}
	if len(data) != p.NumChains*RecordSize {
		t.Fatalf("File size: got %d, want %d", len(data), p.NumChains*RecordSize)
	}

	// Record i must hold the i-th drawn start index, regardless of worker
	// scheduling, and its end must match an independent serial walk.
	w, err := p.walker()
	if err != nil {
		t.Fatalf("walker: unexpected error: %v", err)
	}
	total := w.Space().Total()
	draw := seededSource(1, 0)
	for i := 0; i < p.NumChains; i++ {
		rec := data[i*RecordSize:]
		start := binary.LittleEndian.Uint64(rec[:8])
		end := binary.LittleEndian.Uint64(rec[8:16])
		if want := draw() % total; start != want {
			t.Fatalf("Record %d start: got %d, want %d", i, start, want)
		}
		if want := w.Clone().WalkFrom(start, p.ChainLen); end != want {
			t.Fatalf("Record %d end: got %d, want %d", i, end, want)
		}
	}
}

// Two runs from the same seed produce byte-identical tables.
func TestDeterminism(t *testing.T) {
	p := testParams()
	p.NumChains = 1000
	dir1, dir2 := t.TempDir(), t.TempDir()
	mustRun(t, p, dir1, &Options{Source: seededSource(5, 0), Workers: 8})
	mustRun(t, p, dir2, &Options{Source: seededSource(5, 0), Workers: 2})

	d1, err := os.ReadFile(filepath.Join(dir1, p.Filename()))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}
	d2, err := os.ReadFile(filepath.Join(dir2, p.Filename()))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}
	if !bytes.Equal(d1, d2) {
		t.Error("Tables from identical seeds differ")
	}

	s1, err := Stat(filepath.Join(dir1, p.Filename()))
	if err != nil {
		t.Fatalf("Stat: unexpected error: %v", err)
	}
	s2, err := Stat(filepath.Join(dir2, p.Filename()))
	if err != nil {
		t.Fatalf("Stat: unexpected error: %v", err)
	}
	if s1 != s2 {
		t.Errorf("Stat mismatch: %+v ≠ %+v", s1, s2)
	}
}

// An interrupted run resumed with the surviving chains' draws replayed
// produces the same bytes as an uninterrupted run, and a trailing partial
// record is discarded on resume.
func TestResume(t *testing.T) {
	p := testParams()
	ref := t.TempDir()
	mustRun(t, p, ref, &Options{Source: seededSource(2, 0), Workers: 4})
	want, err := os.ReadFile(filepath.Join(ref, p.Filename()))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}

	// Simulate a run that died after 100 records plus a torn write.
	const survived = 100
	dir := t.TempDir()
	path := filepath.Join(dir, p.Filename())
	torn := append([]byte{}, want[:survived*RecordSize]...)
	torn = append(torn, want[survived*RecordSize:survived*RecordSize+7]...)
	if err := os.WriteFile(path, torn, 0600); err != nil {
		t.Fatalf("WriteFile: unexpected error: %v", err)
	}

	mustRun(t, p, dir, &Options{Source: seededSource(2, survived), Workers: 4})
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Error("Resumed table differs from uninterrupted run")
	}
}

// Cancellation keeps every fully-completed chain below the first
// unfinished one and leaves the file record-aligned and resumable.
func TestCancel(t *testing.T) {
	p := testParams()
	p.NumChains = 10000

	// The source blocks on draw 150 until the run is cancelled, pinning
	// the interruption point at exactly 149 dispatched chains.
	const dispatched = 149
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	blocked := make(chan struct{})
	base := seededSource(2, 0)
	var draws int
	source := func() uint64 {
		draws++
		if draws > dispatched {
			if draws == dispatched+1 {
				close(blocked)
			}
			<-ctx.Done()
			return 0
		}
		return base()
	}

	g, err := NewGenerator(p, &Options{Source: source, Workers: 4, FlushEvery: 50})
	if err != nil {
		t.Fatalf("NewGenerator: unexpected error: %v", err)
	}
	dir := t.TempDir()
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, dir) }()

	<-blocked
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: got %v, want %v", err, context.Canceled)
	}

	info, err := Stat(g.Path(dir))
	if err != nil {
		t.Fatalf("Stat: unexpected error: %v", err)
	}
	if info.Partial {
		t.Error("Cancelled table has a trailing partial record")
	}
	if info.Records != dispatched {
		t.Errorf("Records after cancel: got %d, want %d", info.Records, dispatched)
	}

	// The surviving prefix matches a reference run with the same seed.
	ref := testParams()
	refDir := t.TempDir()
	mustRun(t, ref, refDir, &Options{Source: seededSource(2, 0), Workers: 4})
	want, err := os.ReadFile(filepath.Join(refDir, ref.Filename()))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}
	got, err := os.ReadFile(g.Path(dir))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}
	if !bytes.Equal(got, want[:dispatched*RecordSize]) {
		t.Error("Cancelled table prefix differs from reference run")
	}

	// Sync past the interruption point reports that the run ended.
	if err := g.Sync(context.Background(), int64(p.NumChains)); err == nil {
		t.Error("Sync after cancelled run: got nil, wanted error")
	}
}

func TestAlreadyFinished(t *testing.T) {
	p := testParams()
	p.NumChains = 50
	dir := t.TempDir()
	mustRun(t, p, dir, &Options{Source: seededSource(7, 0)})

	before, err := os.ReadFile(filepath.Join(dir, p.Filename()))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}

	g, err := NewGenerator(p, &Options{Source: seededSource(99, 0)})
	if err != nil {
		t.Fatalf("NewGenerator: unexpected error: %v", err)
	}
	if err := g.Run(context.Background(), dir); !errors.Is(err, ErrAlreadyFinished) {
		t.Fatalf("Run on finished table: got %v, want %v", err, ErrAlreadyFinished)
	}

	after, err := os.ReadFile(filepath.Join(dir, p.Filename()))
	if err != nil {
		t.Fatalf("ReadFile: unexpected error: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Error("Finished table was modified by a redundant run")
	}
}

func TestGeneratorValidates(t *testing.T) {
	p := testParams()
	p.NumChains = MaxChains
	if _, err := NewGenerator(p, nil); !errors.Is(err, ErrTableTooLarge) {
		t.Errorf("NewGenerator: got %v, want %v", err, ErrTableTooLarge)
	}
}
