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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/probeum/t8nchain/core"
	"github.com/probeum/t8nchain/core/types"
	"github.com/probeum/t8nchain/params"
	"gopkg.in/urfave/cli.v1"
)

var (
	orderFlag = cli.StringFlag{
		Name:  "order",
		Usage: "Export shape: default, tool or old",
		Value: "default",
	}

	signCommand = cli.Command{
		Action:    signTx,
		Name:      "sign",
		Usage:     "Build a legacy transaction from its JSON fields",
		ArgsUsage: "<tx.json>",
		Flags:     []cli.Flag{orderFlag},
		Description: `
The sign command reads a transaction with either a secretKey or explicit v, r and
s values, and prints its hash, sender, raw RLP and exported fields.`,
	}

	rewardCommand = cli.Command{
		Action:    showReward,
		Name:      "reward",
		Usage:     "Show the block reward and the fork handed to the tool",
		ArgsUsage: "<fork> <number>",
	}
)

var exportOrders = map[string]types.ExportOrder{
	"default": types.ExportDefault,
	"tool":    types.ExportToolStyle,
	"old":     types.ExportOldStyle,
}

func signTx(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("need exactly one transaction file")
	}
	order, ok := exportOrders[ctx.String(orderFlag.Name)]
	if !ok {
		return fmt.Errorf("unknown export order %q", ctx.String(orderFlag.Name))
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	var tx types.LegacyTx
	if err := json.Unmarshal(data, &tx); err != nil {
		return err
	}
	out := map[string]interface{}{
		"hash":   tx.Hash(),
		"rlp":    hexutil.Bytes(tx.RawRLP()),
		"fields": tx.Export(order),
	}
	if from, err := tx.Sender(); err == nil {
		out["sender"] = from
	} else {
		out["sender"] = err.Error()
	}
	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

func showReward(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return errors.New("need a fork and a block number")
	}
	number, err := strconv.ParseUint(ctx.Args().Get(1), 0, 64)
	if err != nil {
		return fmt.Errorf("invalid block number: %v", err)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	engine, err := params.ParseEngine(cfg.Chain.Engine)
	if err != nil {
		return err
	}
	rewards, err := params.ParseRewards(cfg.Rewards)
	if err != nil {
		return err
	}
	reward, fork, err := core.ResolveReward(engine, params.Fork(ctx.Args().First()), number, rewards)
	if err != nil {
		return err
	}
	if engine == params.NoReward {
		fmt.Printf("fork %s, no reward passed (%s)\n", fork, engine)
		return nil
	}
	fmt.Printf("fork %s, reward %s wei\n", fork, reward.Dec())
	return nil
}
