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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/probeum/t8nchain/core"
	"github.com/probeum/t8nchain/core/types"
	"github.com/probeum/t8nchain/t8ntool"
	"golang.org/x/sync/errgroup"
	"gopkg.in/urfave/cli.v1"
)

var (
	strictFlag = cli.BoolFlag{
		Name:  "strict",
		Usage: "Mine every block in RequireValid mode",
	}
	dumpFlag = cli.BoolFlag{
		Name:  "dump",
		Usage: "Dump the headers of the resulting chain",
	}
	parallelFlag = cli.IntFlag{
		Name:  "parallel",
		Usage: "Number of scenarios run at the same time",
		Value: 1,
	}

	runCommand = cli.Command{
		Action:    runScenarios,
		Name:      "run",
		Usage:     "Build chains from scenario files",
		ArgsUsage: "<scenario.json> [<scenario.json>...]",
		Flags:     []cli.Flag{strictFlag, dumpFlag, parallelFlag},
		Description: `
The run command executes the genesis and every block of the scenario on the
transition tool and checks the outcome of each block against its expectation.
Blocks are given either as header, transactions and uncle headers, or as raw RLP.`,
	}
)

// scenario is a chain test: a genesis and a sequence of candidate blocks.
type scenario struct {
	Network    string           `json:"network"`
	SealEngine string           `json:"sealEngine"`
	Genesis    scenarioGenesis  `json:"genesis"`
	Blocks     []*scenarioBlock `json:"blocks"`
}

type scenarioGenesis struct {
	Header *types.Header `json:"header"`
	Pre    types.Alloc   `json:"pre"`
}

type scenarioBlock struct {
	Header       *types.Header     `json:"header"`
	Transactions []*types.LegacyTxArgs `json:"transactions"`
	Uncles       []*types.Header   `json:"uncleHeaders"`
	RLP          hexutil.Bytes     `json:"rlp"`

	// RewindTo rewinds the chain before the block is mined.
	RewindTo *uint64 `json:"rewindTo"`

	// ExpectException marks a block the chain must reject. A value other than
	// "*" must occur in the error message.
	ExpectException string `json:"expectException"`

	// Strict overrides the mining mode for this block.
	Strict *bool `json:"strict"`
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %v", path, err)
	}
	if sc.Genesis.Header == nil {
		return nil, fmt.Errorf("invalid scenario %s: missing genesis header", path)
	}
	for i, b := range sc.Blocks {
		if b.Header == nil && len(b.RLP) == 0 {
			return nil, fmt.Errorf("invalid scenario %s: block %d has neither header nor rlp", path, i)
		}
	}
	return &sc, nil
}

// block assembles the candidate. A header without parent hash is placed on
// top of head.
func (b *scenarioBlock) block(head *types.Block) (*types.Block, error) {
	if len(b.RLP) > 0 {
		return types.DecodeBlock(b.RLP)
	}
	header := types.CopyHeader(b.Header)
	if header.ParentHash == (common.Hash{}) {
		header.ParentHash = head.Hash()
	}
	if header.UncleHash == types.EmptyUncleHash && len(b.Uncles) > 0 {
		header.UncleHash = types.CalcUncleHash(b.Uncles)
	}
	txs := make([]*types.LegacyTx, len(b.Transactions))
	for i, args := range b.Transactions {
		tx, err := args.ToTransaction()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs[i] = tx
	}
	return types.NewBlock(header, nil, txs, b.Uncles), nil
}

func (b *scenarioBlock) mode(strict bool) core.MiningMode {
	if b.Strict != nil {
		strict = *b.Strict
	}
	if strict {
		return core.RequireValid
	}
	return core.AllowFailTransactions
}

// check compares the outcome of mining against the expectation. Errors other
// than validation failures abort the run.
func (b *scenarioBlock) check(err error) (bool, error) {
	if err != nil && !core.IsValidationError(err) {
		return false, err
	}
	if err == nil {
		return b.ExpectException == "", nil
	}
	return b.expects(err), nil
}

// expects reports whether err is the exception the block is marked with.
func (b *scenarioBlock) expects(err error) bool {
	switch b.ExpectException {
	case "":
		return false
	case "*":
		return true
	default:
		return strings.Contains(err.Error(), b.ExpectException)
	}
}

func runScenarios(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.New("need at least one scenario file")
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	// An interrupt kills the running tools.
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		paths   = ctx.Args()
		outputs = make([]bytes.Buffer, len(paths))
		failed  = make([]int, len(paths))
		strict  = ctx.Bool(strictFlag.Name)
		dump    = ctx.Bool(dumpFlag.Name)
	)
	g, gctx := errgroup.WithContext(runCtx)
	limit := ctx.Int(parallelFlag.Name)
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			n, err := runScenario(gctx, &outputs[i], cfg, path, strict, dump)
			failed[i] = n
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}
	err = g.Wait()
	for i := range outputs {
		os.Stdout.Write(outputs[i].Bytes())
	}
	if err != nil {
		return err
	}
	var total int
	for _, n := range failed {
		total += n
	}
	if total > 0 {
		return fmt.Errorf("%d blocks failed", total)
	}
	return nil
}

// runScenario builds the chain of one scenario file and returns the number of
// blocks that did not meet their expectation. Chains never share state, so
// scenarios may run concurrently.
func runScenario(ctx context.Context, w io.Writer, cfg t8nchainConfig, path string, strict, dump bool) (int, error) {
	sc, err := loadScenario(path)
	if err != nil {
		return 0, err
	}
	if sc.Network != "" {
		cfg.Chain.Fork = sc.Network
	}
	if sc.SealEngine != "" {
		cfg.Chain.Engine = sc.SealEngine
	}
	chainCfg, err := cfg.chain()
	if err != nil {
		return 0, err
	}
	tool, err := t8ntool.New(cfg.Tool)
	if err != nil {
		return 0, err
	}
	genesis := types.NewBlock(sc.Genesis.Header, sc.Genesis.Pre, nil, nil)
	chain, err := core.NewToolChain(ctx, genesis, chainCfg, tool)
	if err != nil {
		return 0, err
	}
	log.Info("Created tool chain", "scenario", path, "fork", chainCfg.Fork, "engine", chainCfg.Engine, "genesis", chain.Genesis().Hash())

	fmt.Fprintf(w, "== %s\n", path)
	failed := runBlocks(ctx, w, chain, sc.Blocks, strict)
	if failed < 0 {
		return 0, errors.New("aborted")
	}
	printChain(w, chain)
	if dump {
		for _, block := range chain.Blocks() {
			spew.Fdump(w, block.Header())
		}
	}
	return failed, nil
}

// runBlocks mines the scenario blocks and reports one line per block. It returns
// the number of failed blocks, or -1 if a harness or tool error aborted the run.
func runBlocks(ctx context.Context, w io.Writer, chain *core.ToolChain, blocks []*scenarioBlock, strict bool) int {
	var (
		pass   = color.New(color.FgGreen).SprintFunc()
		fail   = color.New(color.FgRed).SprintFunc()
		failed int
	)
	for i, b := range blocks {
		if b.RewindTo != nil {
			chain.Rewind(*b.RewindTo)
		}
		candidate, err := b.block(chain.CurrentBlock())
		if err != nil {
			if b.expects(err) {
				fmt.Fprintf(w, "%s block %d rejected on decoding: %v\n", pass("PASS"), i, err)
				continue
			}
			fmt.Fprintf(w, "%s block %d: undecodable: %v\n", fail("FAIL"), i, err)
			failed++
			continue
		}
		mode := b.mode(strict)
		mineErr := chain.Mine(ctx, candidate, mode)
		ok, err := b.check(mineErr)
		if err != nil {
			log.Error("Block aborted the run", "index", i, "err", err)
			fmt.Fprintf(w, "%s block %d: %v\n", fail("ABORT"), i, err)
			return -1
		}
		switch {
		case ok && mineErr != nil:
			fmt.Fprintf(w, "%s block %d rejected as expected: %v\n", pass("PASS"), i, mineErr)
		case ok:
			fmt.Fprintf(w, "%s block %d (%s) number %d hash %s\n", pass("PASS"), i, mode, chain.CurrentBlock().NumberU64(), chain.CurrentBlock().Hash().Hex())
		case mineErr != nil:
			failed++
			fmt.Fprintf(w, "%s block %d: %v\n", fail("FAIL"), i, mineErr)
		default:
			failed++
			fmt.Fprintf(w, "%s block %d: expected exception %q, block was imported\n", fail("FAIL"), i, b.ExpectException)
			chain.Rewind(chain.CurrentBlock().NumberU64() - 1)
		}
	}
	return failed
}

// printChain renders the chain as a table.
func printChain(w io.Writer, chain *core.ToolChain) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Number", "Hash", "State root", "Txs", "Uncles", "Gas used", "TD"})
	for _, block := range chain.Blocks() {
		table.Append([]string{
			fmt.Sprint(block.NumberU64()),
			block.Hash().TerminalString(),
			block.Root().TerminalString(),
			fmt.Sprint(len(block.Transactions())),
			fmt.Sprint(len(block.Uncles())),
			fmt.Sprint(block.GasUsed()),
			block.TotalDifficulty().String(),
		})
	}
	table.SetCaption(true, fmt.Sprintf("%s, %s", chain.Fork(), chain.Engine()))
	table.Render()
}
