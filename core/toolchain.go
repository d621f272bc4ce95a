// Copyright 2024 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/go-cmp/cmp"
	"github.com/probeum/t8nchain/core/types"
	"github.com/probeum/t8nchain/params"
)

// MiningMode selects how strictly a candidate block is checked.
type MiningMode int

const (
	// AllowFailTransactions drops transactions the tool rejected, with a warning.
	AllowFailTransactions MiningMode = iota
	// RequireValid fails on any rejected transaction and requires the candidate
	// header to be reproduced exactly by the tool.
	RequireValid
)

func (m MiningMode) String() string {
	if m == RequireValid {
		return "RequireValid"
	}
	return "AllowFailTransactions"
}

// ChainConfig holds the rules a ToolChain is built under.
type ChainConfig struct {
	Fork    params.Fork
	Engine  params.Engine
	Rewards params.RewardMap
}

// ToolChain is an in-memory chain whose blocks have all been executed by an
// external transition tool. Block i always has number i.
//
// A ToolChain is not safe for concurrent use.
type ToolChain struct {
	config *ChainConfig
	tool   Transitioner
	blocks []*types.Block
}

// NewToolChain executes the genesis on the tool to learn its state root and
// returns a chain holding the fixed genesis block.
func NewToolChain(ctx context.Context, genesis *types.Block, config *ChainConfig, tool Transitioner) (*ToolChain, error) {
	if genesis.Number().Sign() != 0 {
		return nil, fmt.Errorf("%w: have %v", ErrInvalidGenesis, genesis.Number())
	}
	cfg := *config
	if cfg.Rewards == nil {
		cfg.Rewards = params.DefaultRewards
	}
	c := &ToolChain{config: &cfg, tool: tool}

	// The state root depends on the canonical formatting the tool applies itself,
	// so it is only known after a run. Genesis is never rewarded.
	res, _, err := c.transition(ctx, genesis, params.NoReward)
	if err != nil {
		return nil, err
	}
	header := genesis.Header()
	header.Root = res.StateRoot

	// Only the root is taken from the tool, the declared allocation stays.
	block := types.NewBlock(header, genesis.State(), genesis.Transactions(), genesis.Uncles())
	c.blocks = append(c.blocks, block.WithTotalDifficulty(header.Difficulty))
	log.Debug("Initialized tool chain", "fork", cfg.Fork, "engine", cfg.Engine, "hash", header.Hash(), "root", header.Root)
	return c, nil
}

// Mine executes candidate on the tool, checks the result against the chain rules
// and appends it. Candidates without state execute on the head state. On error
// the chain is unchanged.
func (c *ToolChain) Mine(ctx context.Context, candidate *types.Block, mode MiningMode) error {
	res, state, err := c.transition(ctx, candidate, c.config.Engine)
	if err != nil {
		return err
	}
	pending := candidate.Header()

	// The tool may reject transactions, changing state root, tx root, receipts,
	// gas used and in turn the header hash.
	fixed := types.CopyHeader(pending)
	fixed.Number = new(big.Int).SetUint64(uint64(len(c.blocks)))
	fixed.Root = res.StateRoot
	fixed.GasUsed = uint64(res.GasUsed)
	fixed.TxHash = res.TxRoot
	fixed.ReceiptHash = res.ReceiptRoot
	fixed.Bloom = res.Bloom

	receipts := make(map[common.Hash]bool, len(res.Receipts))
	for _, r := range res.Receipts {
		receipts[r.TxHash] = true
	}
	var txs []*types.LegacyTx
	for _, tx := range candidate.Transactions() {
		if receipts[tx.Hash()] {
			txs = append(txs, tx)
			continue
		}
		if mode != RequireValid {
			log.Warn("Transition tool didn't return a transaction", "hash", tx.Hash(), "number", fixed.Number)
			continue
		}
		return fmt.Errorf("%w: hash %s", ErrDroppedTransaction, tx.Hash().Hex())
	}

	// Uncles were validated before execution, the tool neither checks nor rewards them.
	block := types.NewBlock(fixed, state, txs, candidate.Uncles())

	if pending.Number.Cmp(fixed.Number) != 0 {
		return fmt.Errorf("%w: have %v, want %v", ErrNumberMismatch, pending.Number, fixed.Number)
	}
	head := c.CurrentBlock()
	if fixed.Time <= head.Time() {
		return fmt.Errorf("%w: have %d, previous %d", ErrStaleTimestamp, fixed.Time, head.Time())
	}
	if mode == RequireValid {
		if c.config.Fork.RequiresDAOExtra(fixed.Number.Uint64()) && !bytes.Equal(fixed.Extra, params.DAOForkExtraData) {
			return fmt.Errorf("%w: block %v has extra data %#x", ErrDaoExtraData, fixed.Number, fixed.Extra)
		}
		if diff := cmp.Diff(pending, fixed, bigIntComparer); diff != "" {
			return fmt.Errorf("%w: pending header vs tool header (-pending +tool):\n%s", ErrHeaderMismatch, diff)
		}
	}
	if root := types.DeriveTxRoot(txs); root != res.TxRoot {
		return &ConsistencyError{Msg: fmt.Sprintf("transactions root %s of included transactions differs from tool root %s", root.Hex(), res.TxRoot.Hex())}
	}
	td := new(big.Int).Add(head.TotalDifficulty(), fixed.Difficulty)
	c.blocks = append(c.blocks, block.WithTotalDifficulty(td))

	log.Debug("Imported block from transition tool", "number", fixed.Number, "hash", block.Hash(), "txs", len(txs), "dropped", len(candidate.Transactions())-len(txs), "td", td)
	return nil
}

var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

// transition validates the candidate's uncles, executes it on the tool and
// reconciles the returned state.
func (c *ToolChain) transition(ctx context.Context, block *types.Block, engine params.Engine) (*ExecutionResult, types.Alloc, error) {
	header := block.Header()
	if !header.Number.IsUint64() {
		return nil, nil, fmt.Errorf("%w: %v out of range", ErrNumberMismatch, header.Number)
	}
	env := &Env{
		Coinbase:    header.Coinbase,
		Difficulty:  (*math.HexOrDecimal256)(header.Difficulty),
		GasLimit:    math.HexOrDecimal64(header.GasLimit),
		Number:      math.HexOrDecimal64(header.Number.Uint64()),
		Timestamp:   math.HexOrDecimal64(header.Time),
		ParentHash:  header.ParentHash,
		BaseFee:     (*math.HexOrDecimal256)(header.BaseFee),
		BlockHashes: make(map[string]common.Hash, len(c.blocks)),
	}
	for i, b := range c.blocks {
		env.BlockHashes[strconv.Itoa(i)] = b.Hash()
	}
	for _, uncle := range block.Uncles() {
		ommer, err := c.validateUncle(header, uncle)
		if err != nil {
			return nil, nil, err
		}
		env.Ommers = append(env.Ommers, ommer)
	}

	reward, fork, err := ResolveReward(engine, c.config.Fork, header.Number.Uint64(), c.config.Rewards)
	if err != nil {
		return nil, nil, err
	}
	req := &TransitionRequest{
		Env:  env,
		Txs:  block.Transactions(),
		Fork: fork,
	}
	if block.HasState() || len(c.blocks) == 0 {
		req.Alloc = block.State()
	} else {
		req.Alloc = c.CurrentBlock().State()
	}
	if engine != params.NoReward {
		req.Reward = reward
	}
	res, err := c.tool.Transition(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if res == nil || res.Result == nil {
		return nil, nil, errors.New("transition tool returned no result")
	}
	state, err := Reconcile(res.Alloc)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid transition tool allocation: %v", err)
	}
	return res.Result, state, nil
}

// validateUncle checks the uncle's ancestry and timing against the chain.
func (c *ToolChain) validateUncle(header, uncle *types.Header) (Ommer, error) {
	delta := new(big.Int).Sub(header.Number, uncle.Number)
	if delta.Sign() < 1 {
		return Ommer{}, fmt.Errorf("%w: block %v, uncle %v", ErrUncleDelta, header.Number, uncle.Number)
	}
	if uncle.Number.Sign() == 0 || uncle.Number.Cmp(big.NewInt(int64(len(c.blocks)))) >= 0 {
		return Ommer{}, fmt.Errorf("%w: uncle %v, chain height %d", ErrUncleNumber, uncle.Number, len(c.blocks))
	}
	number := uncle.Number.Uint64()
	if parent := c.blocks[number-1]; parent.Time() >= uncle.Time {
		return Ommer{}, fmt.Errorf("%w: uncle %d, parent %d", ErrUncleTimestamp, uncle.Time, parent.Time())
	}
	if c.config.Fork.RequiresDAOExtra(number) && !bytes.Equal(uncle.Extra, params.DAOForkExtraData) {
		return Ommer{}, fmt.Errorf("%w: uncle %d has extra data %#x", ErrUncleDaoExtraData, number, uncle.Extra)
	}
	return Ommer{Delta: delta.Uint64(), Address: uncle.Coinbase}, nil
}

// Rewind drops every block above number. It is a no-op if the chain is not
// higher than number.
func (c *ToolChain) Rewind(number uint64) {
	if number >= uint64(len(c.blocks))-1 {
		return
	}
	log.Debug("Rewinding tool chain", "from", len(c.blocks)-1, "to", number)
	for i := number + 1; i < uint64(len(c.blocks)); i++ {
		c.blocks[i] = nil
	}
	c.blocks = c.blocks[:number+1]
}

// CurrentBlock returns the head of the chain.
func (c *ToolChain) CurrentBlock() *types.Block { return c.blocks[len(c.blocks)-1] }

// Genesis returns the fixed genesis block.
func (c *ToolChain) Genesis() *types.Block { return c.blocks[0] }

// GetBlockByNumber returns the block at the given height, or nil.
func (c *ToolChain) GetBlockByNumber(number uint64) *types.Block {
	if number >= uint64(len(c.blocks)) {
		return nil
	}
	return c.blocks[number]
}

// Len returns the number of blocks, genesis included.
func (c *ToolChain) Len() int { return len(c.blocks) }

// Blocks returns the chain from genesis to head.
func (c *ToolChain) Blocks() []*types.Block {
	return append([]*types.Block(nil), c.blocks...)
}

func (c *ToolChain) Fork() params.Fork     { return c.config.Fork }
func (c *ToolChain) Engine() params.Engine { return c.config.Engine }
