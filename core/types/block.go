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

package types

import (
	"bytes"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

// Block represents a block of the tool chain together with its post state.
// Blocks are not modified once created; accessors hand out copies.
type Block struct {
	header       *Header
	state        Alloc
	transactions []*LegacyTx
	uncles       []*Header

	// td is the total difficulty of the chain up to and including the block.
	td *big.Int
}

// "external" block encoding, as produced by clients under test.
type extblock struct {
	Header *Header
	Txs    []*LegacyTx
	Uncles []*Header
}

// NewBlock creates a new block. The input data is copied, changes to header and
// to the field values will not affect the block. Unlike a client, the header's
// roots are taken as given: they come from the transition tool.
func NewBlock(header *Header, state Alloc, txs []*LegacyTx, uncles []*Header) *Block {
	b := &Block{header: CopyHeader(header), state: state.Copy(), td: new(big.Int)}
	if len(txs) > 0 {
		b.transactions = make([]*LegacyTx, len(txs))
		copy(b.transactions, txs)
	}
	if len(uncles) > 0 {
		b.uncles = make([]*Header, len(uncles))
		for i := range uncles {
			b.uncles[i] = CopyHeader(uncles[i])
		}
	}
	return b
}

// NewBlockWithHeader creates a block with the given header data and no body.
func NewBlockWithHeader(header *Header) *Block {
	return NewBlock(header, nil, nil, nil)
}

// WithTotalDifficulty returns a copy of b carrying the given total difficulty.
func (b *Block) WithTotalDifficulty(td *big.Int) *Block {
	cpy := *b
	cpy.td = new(big.Int).Set(td)
	return &cpy
}

// DecodeRLP decodes a block from its external encoding.
func (b *Block) DecodeRLP(s *rlp.Stream) error {
	var eb extblock
	if err := s.Decode(&eb); err != nil {
		return err
	}
	*b = *NewBlock(eb.Header, nil, eb.Txs, eb.Uncles)
	return nil
}

// EncodeRLP serializes b into the external block encoding.
func (b *Block) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, extblock{
		Header: b.header,
		Txs:    b.transactions,
		Uncles: b.uncles,
	})
}

// DecodeBlock decodes a raw RLP block into a candidate block without state.
func DecodeBlock(raw []byte) (*Block, error) {
	b := new(Block)
	if err := rlp.DecodeBytes(raw, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Block) Header() *Header { return CopyHeader(b.header) }
func (b *Block) Hash() common.Hash { return b.header.Hash() }

func (b *Block) Number() *big.Int     { return new(big.Int).Set(b.header.Number) }
func (b *Block) NumberU64() uint64    { return b.header.Number.Uint64() }
func (b *Block) Difficulty() *big.Int { return new(big.Int).Set(b.header.Difficulty) }
func (b *Block) Time() uint64         { return b.header.Time }
func (b *Block) GasUsed() uint64      { return b.header.GasUsed }
func (b *Block) Root() common.Hash    { return b.header.Root }
func (b *Block) TxHash() common.Hash  { return b.header.TxHash }
func (b *Block) Extra() []byte        { return common.CopyBytes(b.header.Extra) }

// State returns a copy of the block's post state. Candidates decoded from RLP
// have no state.
func (b *Block) State() Alloc { return b.state.Copy() }

// HasState reports whether the block carries a state allocation.
func (b *Block) HasState() bool { return b.state != nil }

func (b *Block) Transactions() []*LegacyTx {
	return append([]*LegacyTx(nil), b.transactions...)
}

func (b *Block) Uncles() []*Header {
	uncles := make([]*Header, len(b.uncles))
	for i, u := range b.uncles {
		uncles[i] = CopyHeader(u)
	}
	return uncles
}

// TotalDifficulty returns the total difficulty up to and including b.
func (b *Block) TotalDifficulty() *big.Int { return new(big.Int).Set(b.td) }

// Transactions implements DerivableList for transactions.
type Transactions []*LegacyTx

// Len returns the length of s.
func (s Transactions) Len() int { return len(s) }

// EncodeIndex encodes the i'th transaction to w.
func (s Transactions) EncodeIndex(i int, w *bytes.Buffer) {
	w.Write(s[i].raw)
}

// DeriveTxRoot computes the transactions trie root of txs.
func DeriveTxRoot(txs []*LegacyTx) common.Hash {
	return gethtypes.DeriveSha(Transactions(txs), trie.NewStackTrie(nil))
}
