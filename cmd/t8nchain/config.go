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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
	"github.com/probeum/t8nchain/core"
	"github.com/probeum/t8nchain/params"
	"github.com/probeum/t8nchain/t8ntool"
	"gopkg.in/urfave/cli.v1"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[file]",
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://pkg.go.dev/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type chainConfig struct {
	Fork   string
	Engine string
}

type t8nchainConfig struct {
	Tool    t8ntool.Config
	Chain   chainConfig
	Rewards map[string]string `toml:",omitempty"`
}

func defaultConfig() t8nchainConfig {
	tool := t8ntool.DefaultConfig
	tool.Args = append([]string(nil), tool.Args...)
	return t8nchainConfig{
		Tool: tool,
		Chain: chainConfig{
			Fork:   string(params.Frontier),
			Engine: params.NoProof.String(),
		},
		Rewards: params.DefaultRewards.Strings(),
	}
}

func loadConfig(file string, cfg *t8nchainConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the defaults, then the config file, then the flags.
func makeConfig(ctx *cli.Context) (t8nchainConfig, error) {
	cfg := defaultConfig()
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.GlobalIsSet(toolFlag.Name) {
		cfg.Tool.Path = ctx.GlobalString(toolFlag.Name)
	}
	if ctx.GlobalIsSet(scratchFlag.Name) {
		cfg.Tool.ScratchDir = ctx.GlobalString(scratchFlag.Name)
	}
	if ctx.GlobalIsSet(keepFailedFlag.Name) {
		cfg.Tool.KeepFailed = ctx.GlobalString(keepFailedFlag.Name)
	}
	if ctx.GlobalIsSet(forkFlag.Name) {
		cfg.Chain.Fork = ctx.GlobalString(forkFlag.Name)
	}
	if ctx.GlobalIsSet(engineFlag.Name) {
		cfg.Chain.Engine = ctx.GlobalString(engineFlag.Name)
	}
	return cfg, nil
}

// chain converts the configuration into the rules of a tool chain.
func (cfg *t8nchainConfig) chain() (*core.ChainConfig, error) {
	engine, err := params.ParseEngine(cfg.Chain.Engine)
	if err != nil {
		return nil, err
	}
	rewards, err := params.ParseRewards(cfg.Rewards)
	if err != nil {
		return nil, err
	}
	fork := params.Fork(cfg.Chain.Fork)
	if _, ok := rewards[fork]; !ok && !fork.IsTransition() {
		return nil, fmt.Errorf("fork %q has no reward and is not a transition fork", fork)
	}
	return &core.ChainConfig{Fork: fork, Engine: engine, Rewards: rewards}, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	_, err = dump.Write(out)
	return err
}
