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

// Package cmdgen implements the "gen" and "bench" subcommands of the
// rtgen command-line tool.
package cmdgen

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/creachadair/command"
	"github.com/creachadair/rtgen/bench"
	"github.com/creachadair/rtgen/charset"
	"github.com/creachadair/rtgen/cmd/rtgen/config"
	"github.com/creachadair/rtgen/hashes"
	"github.com/creachadair/rtgen/table"
)

var params struct {
	hash       string
	charset    string
	minLength  int
	maxLength  int
	tableIndex int
	chainLen   int
	numChains  int
	part       string
	benchmark  bool

	benchTime time.Duration
	benchOut  string
}

func setParamFlags(fs *flag.FlagSet) {
	fs.StringVar(&params.hash, "hashtype", "", "Hash routine name ("+strings.Join(hashes.Names(), ", ")+")")
	fs.StringVar(&params.charset, "charset", "", "Charset name ("+strings.Join(charset.Names(), ", ")+")")
	fs.IntVar(&params.minLength, "minlength", 0, "Minimum plaintext length (1..9)")
	fs.IntVar(&params.maxLength, "maxlength", 0, "Maximum plaintext length (1..9)")
	fs.IntVar(&params.tableIndex, "tableindex", 0, "Table index (≥ 0)")
	fs.IntVar(&params.chainLen, "chainlength", 0, "Reduction columns per chain (> 0)")
	fs.IntVar(&params.numChains, "numchains", 0, "Number of chains to generate")
	fs.StringVar(&params.part, "part", "", "Free-form filename suffix")
}

func tableParams() (table.Params, error) {
	p := table.Params{
		Hash:       params.hash,
		Charset:    params.charset,
		MinLen:     params.minLength,
		MaxLen:     params.maxLength,
		TableIndex: params.tableIndex,
		ChainLen:   params.chainLen,
		NumChains:  params.numChains,
		Part:       params.part,
	}
	if err := p.Validate(); err != nil {
		if errors.Is(err, table.ErrTableTooLarge) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		return p, err
	}
	return p, nil
}

// Command implements the "gen" subcommand.
var Command = &command.C{
	Name: "gen",
	Usage: `--hashtype <name> --charset <name> --minlength <n> --maxlength <n>
--tableindex <n> --chainlength <n> --numchains <n> [--part <tag>]`,
	Help: `Generate or resume a rainbow table

The table is written to the canonical file name for its parameters in
the configured table directory. If that file already exists, generation
resumes after its last complete record, so an interrupted run can be
restarted with the same arguments. The records of a table that is already
complete are left untouched.
`,

	SetFlags: func(_ *command.Env, fs *flag.FlagSet) {
		setParamFlags(fs)
		fs.BoolVar(&params.benchmark, "benchmark", false, "Measure throughput instead of generating")
	},

	Run: runGen,
}

func runGen(env *command.Env, args []string) error {
	if len(args) != 0 {
		return command.Usagef("unexpected arguments: %v", args)
	}
	p, err := tableParams()
	if err != nil {
		return err
	}
	cfg := env.Config.(*config.Settings)
	if params.benchmark {
		return runBenchmark(p)
	}

	g, err := table.NewGenerator(p, &table.Options{
		Workers:    cfg.Workers,
		FlushEvery: cfg.FlushEvery,
		Log:        log.Printf,
	})
	if err != nil {
		return err
	}
	err = g.Run(cfg.Context, cfg.TableDir)
	if errors.Is(err, table.ErrAlreadyFinished) {
		fmt.Printf("%s: already finished\n", g.Path(cfg.TableDir))
		return nil
	}
	return err
}

// BenchCommand implements the "bench" subcommand.
var BenchCommand = &command.C{
	Name: "bench",
	Usage: `--hashtype <name> --charset <name> --minlength <n> --maxlength <n>
--tableindex <n> --chainlength <n> [--time <duration>] [--out <path>]`,
	Help: `Measure chain generation throughput

Chains are walked on a single worker for the measurement window and the
step rate is reported. Nothing is written to the table directory.
`,

	SetFlags: func(_ *command.Env, fs *flag.FlagSet) {
		setParamFlags(fs)
		fs.DurationVar(&params.benchTime, "time", 10*time.Second, "Measurement window")
		fs.StringVar(&params.benchOut, "out", "", "Write the report to this path")
	},

	Run: func(env *command.Env, args []string) error {
		if len(args) != 0 {
			return command.Usagef("unexpected arguments: %v", args)
		}
		// The chain count does not matter for measurement, but the record
		// must still validate.
		if params.numChains == 0 {
			params.numChains = 1
		}
		p, err := tableParams()
		if err != nil {
			return err
		}
		return runBenchmark(p)
	},
}

func runBenchmark(p table.Params) error {
	d := params.benchTime
	if d <= 0 {
		d = 10 * time.Second
	}
	r, err := bench.Run(p, d)
	if err != nil {
		return err
	}
	fmt.Print(r.String())
	if params.benchOut != "" {
		return r.WriteFile(params.benchOut)
	}
	return nil
}
