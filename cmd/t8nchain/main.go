// Copyright 2024 The go-probeum Authors
// This file is part of go-probeum.
//
// go-probeum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-probeum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-probeum. If not, see <http://www.gnu.org/licenses/>.

// t8nchain builds chains of blocks executed by an external state transition
// tool and checks them against the consensus rules.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/urfave/cli.v1"
)

var (
	toolFlag = cli.StringFlag{
		Name:  "tool",
		Usage: "Transition tool executable",
	}
	forkFlag = cli.StringFlag{
		Name:  "fork",
		Usage: "Fork or transition pseudo-fork the chain runs on",
	}
	engineFlag = cli.StringFlag{
		Name:  "engine",
		Usage: "Seal engine (NoProof, NoReward, Ethash)",
	}
	scratchFlag = cli.StringFlag{
		Name:  "scratch",
		Usage: "Parent directory of the per-block tool directories",
	}
	keepFailedFlag = cli.StringFlag{
		Name:  "keep-failed",
		Usage: "Directory to keep the files of failed tool runs in",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value: 3,
	}
)

var app = cli.NewApp()

func init() {
	app.Name = "t8nchain"
	app.Usage = "differential chain tests on a state transition tool"
	app.Flags = []cli.Flag{
		configFileFlag,
		toolFlag,
		forkFlag,
		engineFlag,
		scratchFlag,
		keepFailedFlag,
		verbosityFlag,
	}
	app.Commands = []cli.Command{
		runCommand,
		signCommand,
		rewardCommand,
		dumpConfigCommand,
	}
	app.Before = setupLogging
}

// setupLogging installs a terminal log handler on stderr, colored when stderr
// is a terminal.
func setupLogging(ctx *cli.Context) error {
	var (
		output   io.Writer = os.Stderr
		fd                 = os.Stderr.Fd()
		usecolor           = (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"
	)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	level := log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, level, usecolor)))
	return nil
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
