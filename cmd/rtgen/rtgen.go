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

// Program rtgen generates rainbow tables.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/creachadair/command"
	"github.com/creachadair/rtgen/cmd/rtgen/config"

	// Subcommands.
	"github.com/creachadair/rtgen/cmd/rtgen/internal/cmdcheck"
	"github.com/creachadair/rtgen/cmd/rtgen/internal/cmdgen"
)

var (
	configPath = "$HOME/.config/rtgen/config.yml"
	tableDir   string
	numWorkers int
)

func main() {
	root := &command.C{
		Name: filepath.Base(os.Args[0]),
		Usage: `<command> [arguments]
help [<command>]`,
		Help: `A command-line tool to generate rainbow tables.`,

		SetFlags: func(env *command.Env, fs *flag.FlagSet) {
			if cf, ok := os.LookupEnv("RTGEN_CONFIG"); ok && cf != "" {
				configPath = cf
			}
			fs.StringVar(&configPath, "config", configPath, "Configuration file path")
			fs.StringVar(&tableDir, "dir", tableDir, "Table directory (overrides config)")
			fs.IntVar(&numWorkers, "workers", 0, "Concurrent chain workers (overrides config)")
		},

		Init: func(env *command.Env) error {
			cfg, err := config.Load(os.ExpandEnv(configPath))
			if err != nil {
				return err
			}
			if tableDir != "" {
				cfg.TableDir = tableDir
			}
			if numWorkers > 0 {
				cfg.Workers = numWorkers
			}
			// An interrupt cancels the generator, which flushes complete
			// records and leaves the table resumable.
			ctx, _ := signal.NotifyContext(context.Background(), os.Interrupt)
			cfg.Context = ctx
			env.Config = cfg
			return nil
		},

		Commands: []*command.C{
			cmdgen.Command,
			cmdgen.BenchCommand,
			cmdcheck.Command,
			configCommand,
			command.HelpCommand(nil),
		},
	}
	if err := command.Execute(root.NewEnv(nil), os.Args[1:]); err != nil {
		if errors.Is(err, command.ErrUsage) {
			os.Exit(2)
		}
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

var configCommand = &command.C{
	Name: "config",
	Help: "Manage the rtgen configuration file.",

	Commands: []*command.C{{
		Name: "init",
		Help: "Write a default configuration file if none exists.",

		Run: func(env *command.Env, args []string) error {
			return config.WriteDefault(os.ExpandEnv(configPath))
		},
	}},
}
