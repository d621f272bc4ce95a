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
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/probeum/t8nchain/core"
	"github.com/probeum/t8nchain/core/types"
	"github.com/probeum/t8nchain/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoTool includes every transaction and reports a state root derived from
// the block number.
type echoTool struct{}

func (echoTool) Transition(ctx context.Context, req *core.TransitionRequest) (*core.TransitionResult, error) {
	res := &core.ExecutionResult{
		StateRoot:   common.BigToHash(new(big.Int).SetUint64(uint64(req.Env.Number) + 1)),
		TxRoot:      types.DeriveTxRoot(req.Txs),
		ReceiptRoot: types.EmptyRootHash,
	}
	for _, tx := range req.Txs {
		res.Receipts = append(res.Receipts, &core.Receipt{TxHash: tx.Hash(), GasUsed: 21000})
		res.GasUsed += 21000
	}
	alloc := make(map[common.Address]*core.ToolAccount)
	for addr, acc := range req.Alloc {
		alloc[addr] = &core.ToolAccount{Balance: (*math.HexOrDecimal256)(acc.Balance)}
	}
	return &core.TransitionResult{Result: res, Alloc: alloc}, nil
}

const testScenario = `{
	"network": "FrontierToHomesteadAt5",
	"genesis": {
		"header": {"number": "0x00", "difficulty": "0x020000", "timestamp": "0x03e8", "gasLimit": "0x2fefd8"},
		"pre": {"0xa94f5374fce5edbc8e2a8697c15331677e6ebf0b": {"balance": "0x0de0b6b3a7640000"}}
	},
	"blocks": [
		{"header": {"number": "1", "difficulty": "0x020000", "timestamp": "1010", "gasLimit": "0x2fefd8"},
		 "transactions": [{
			"data": "0x", "gasLimit": "0x5208", "gasPrice": "0x0a", "nonce": "0x00", "value": "0x01",
			"to": "0x095e7baea6a6c7c4c2dfeb977efac326af552d87",
			"secretKey": "0x45a915e4d060149eb4365960e6a7a45f334393093061116b197e3240065ff2d8"
		 }]},
		{"header": {"number": "2", "difficulty": "0x020000", "timestamp": "1010"}, "expectException": "timestamp"},
		{"header": {"number": "2", "difficulty": "0x020000", "timestamp": "1020"}},
		{"rewindTo": 1, "header": {"number": "2", "difficulty": "0x020000", "timestamp": "1030"}, "expectException": "*"}
	]
}`

func newScenarioChain(t *testing.T, sc *scenario) *core.ToolChain {
	t.Helper()
	genesis := types.NewBlock(sc.Genesis.Header, sc.Genesis.Pre, nil, nil)
	chain, err := core.NewToolChain(context.Background(), genesis, &core.ChainConfig{Fork: params.Fork(sc.Network)}, echoTool{})
	require.NoError(t, err)
	return chain
}

func TestLoadScenario(t *testing.T) {
	sc, err := loadScenario(writeFile(t, "scenario.json", testScenario))
	require.NoError(t, err)
	assert.Equal(t, "FrontierToHomesteadAt5", sc.Network)
	assert.Equal(t, uint64(1000), sc.Genesis.Header.Time)
	require.Len(t, sc.Blocks, 4)
	require.Len(t, sc.Blocks[0].Transactions, 1)
	assert.Equal(t, uint64(1), *sc.Blocks[3].RewindTo)

	_, err = loadScenario(writeFile(t, "bad.json", `{"genesis": {}}`))
	assert.Error(t, err)
	_, err = loadScenario(writeFile(t, "bad.json", `{"genesis": {"header": {"number": "0", "difficulty": "0", "timestamp": "0"}}, "blocks": [{}]}`))
	assert.Error(t, err)
}

func TestRunBlocks(t *testing.T) {
	sc, err := loadScenario(writeFile(t, "scenario.json", testScenario))
	require.NoError(t, err)
	chain := newScenarioChain(t, sc)

	var out bytes.Buffer
	failed := runBlocks(context.Background(), &out, chain, sc.Blocks, false)
	assert.Equal(t, 1, failed, out.String())
	assert.Equal(t, 2, chain.Len(), "block imported against expectation is rolled back")
	assert.Equal(t, chain.GetBlockByNumber(0).Hash(), chain.CurrentBlock().Header().ParentHash)
	assert.Contains(t, out.String(), "rejected as expected")
	assert.Contains(t, out.String(), "block was imported")

	var table bytes.Buffer
	printChain(&table, chain)
	assert.Contains(t, table.String(), "FrontierToHomesteadAt5")
}

func TestRunBlocksRLP(t *testing.T) {
	sc, err := loadScenario(writeFile(t, "scenario.json", testScenario))
	require.NoError(t, err)
	reference := newScenarioChain(t, sc)
	require.Equal(t, 0, runBlocks(context.Background(), new(bytes.Buffer), reference, sc.Blocks[:1], false))

	enc, err := rlp.EncodeToBytes(reference.CurrentBlock())
	require.NoError(t, err)
	strict := true
	blocks := []*scenarioBlock{
		{RLP: enc, Strict: &strict},
		{RLP: []byte{0xc0}, ExpectException: "*"},
	}
	chain := newScenarioChain(t, sc)
	var out bytes.Buffer
	assert.Equal(t, 0, runBlocks(context.Background(), &out, chain, blocks, false), out.String())
	assert.Equal(t, reference.CurrentBlock().Hash(), chain.CurrentBlock().Hash())
}

func TestScenarioCheck(t *testing.T) {
	wrapped := fmt.Errorf("%w: have 1, previous 1", core.ErrStaleTimestamp)
	tests := []struct {
		expect string
		err    error
		ok     bool
		fatal  bool
	}{
		{"", nil, true, false},
		{"", wrapped, false, false},
		{"*", nil, false, false},
		{"*", wrapped, true, false},
		{"timestamp", wrapped, true, false},
		{"uncle", wrapped, false, false},
		{"*", errors.New("tool crashed"), false, true},
		{"", &core.ConsistencyError{Msg: "bad root"}, false, true},
	}
	for i, tt := range tests {
		b := &scenarioBlock{ExpectException: tt.expect}
		ok, err := b.check(tt.err)
		assert.Equal(t, tt.ok, ok, "test %d", i)
		assert.Equal(t, tt.fatal, err != nil, "test %d", i)
	}
}

func TestScenarioBlockDefaults(t *testing.T) {
	head := types.NewBlockWithHeader(&types.Header{Number: big.NewInt(0), Difficulty: big.NewInt(1)})
	uncle := &types.Header{Number: big.NewInt(1), Difficulty: big.NewInt(1)}
	b := &scenarioBlock{
		Header: &types.Header{Number: big.NewInt(1), Difficulty: big.NewInt(1), UncleHash: types.EmptyUncleHash},
		Uncles: []*types.Header{uncle},
	}
	block, err := b.block(head)
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), block.Header().ParentHash)
	assert.Equal(t, types.CalcUncleHash([]*types.Header{uncle}), block.Header().UncleHash)
	assert.Equal(t, core.AllowFailTransactions, b.mode(false))
	assert.Equal(t, core.RequireValid, b.mode(true))
}

const badSigScenario = `{
	"network": "Frontier",
	"genesis": {
		"header": {"number": "0x00", "difficulty": "0x020000", "timestamp": "0x03e8", "gasLimit": "0x2fefd8"},
		"pre": {}
	},
	"blocks": [
		{"header": {"number": "1", "difficulty": "0x020000", "timestamp": "1010"},
		 "transactions": [{
			"data": "0x", "gasLimit": "0x5208", "gasPrice": "0x0a", "nonce": "0x00", "value": "0x01",
			"to": "0x095e7baea6a6c7c4c2dfeb977efac326af552d87",
			"v": "0x0100", "r": "0x01", "s": "0x01"
		 }],
		 "expectException": "v value"},
		{"header": {"number": "1", "difficulty": "0x020000", "timestamp": "1010"},
		 "transactions": [{
			"data": "0x", "gasLimit": "0x5208", "gasPrice": "0x0a", "nonce": "0x00", "value": "0x01",
			"to": "0x095e7baea6a6c7c4c2dfeb977efac326af552d87",
			"v": "0x0100", "r": "0x01", "s": "0x01"
		 }],
		 "expectException": "uncle"},
		{"rlp": "0xc0", "expectException": "timestamp"},
		{"rlp": "0xc0", "expectException": "*"}
	]
}`

func TestRunBlocksDecodeFailures(t *testing.T) {
	sc, err := loadScenario(writeFile(t, "scenario.json", badSigScenario))
	require.NoError(t, err, "transactions are built per block")
	chain := newScenarioChain(t, sc)

	var out bytes.Buffer
	failed := runBlocks(context.Background(), &out, chain, sc.Blocks, false)
	assert.Equal(t, 2, failed, out.String())
	assert.Equal(t, 1, chain.Len())

	_, err = sc.Blocks[0].block(chain.CurrentBlock())
	assert.True(t, errors.Is(err, types.ErrInvalidSigV), "have %v", err)
	assert.True(t, sc.Blocks[0].expects(err))
	assert.False(t, sc.Blocks[1].expects(err))
}
