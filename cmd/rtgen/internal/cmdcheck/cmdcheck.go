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

// Package cmdcheck implements the "check" subcommand of the rtgen
// command-line tool.
package cmdcheck

import (
	"fmt"

	"github.com/creachadair/command"
	"github.com/creachadair/rtgen/table"
)

// Command implements the "check" subcommand.
var Command = &command.C{
	Name:  "check",
	Usage: "<table-file>...",
	Help: `Summarize and fingerprint table files

For each file the record count and an xxhash64 fingerprint of the
complete records are printed. Two tables generated from the same
parameters and start indexes have the same fingerprint, so fingerprints
can be compared across runs and machines. A trailing partial record is
flagged; it is ignored by the fingerprint and will be overwritten when
generation resumes.
`,

	Run: func(env *command.Env, args []string) error {
		if len(args) == 0 {
			return command.Usagef("missing table file")
		}
		for _, path := range args {
			info, err := table.Stat(path)
			if err != nil {
				return err
			}
			tag := ""
			if info.Partial {
				tag = " (trailing partial record)"
			}
			fmt.Printf("%s: %d records %016x%s\n", path, info.Records, info.Sum, tag)
		}
		return nil
	},
}
