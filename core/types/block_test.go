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
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() *Header {
	return &Header{
		ParentHash:  common.HexToHash("0x01"),
		UncleHash:   EmptyUncleHash,
		Coinbase:    common.HexToAddress("0x8888f1f195afa192cfee860698584c030f4c9db1"),
		Root:        common.HexToHash("0xcb52de543653d86ccd13ba3ddf8b052525b04231c6884a4db3188a184681d878"),
		TxHash:      EmptyRootHash,
		ReceiptHash: EmptyRootHash,
		Difficulty:  big.NewInt(0x020000),
		Number:      big.NewInt(1),
		GasLimit:    0x2fefd8,
		Time:        1000,
		Extra:       []byte{0x42},
		Nonce:       EncodeNonce(0x0102030405060708),
	}
}

func TestUncleHash(t *testing.T) {
	h := CalcUncleHash(nil)
	exp := common.HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
	if h != exp {
		t.Fatalf("empty uncle hash is wrong, got %x != %x", h, exp)
	}
}

func TestHeaderHashMatchesGeth(t *testing.T) {
	h := testHeader()
	g := &gethtypes.Header{
		ParentHash:  h.ParentHash,
		UncleHash:   h.UncleHash,
		Coinbase:    h.Coinbase,
		Root:        h.Root,
		TxHash:      h.TxHash,
		ReceiptHash: h.ReceiptHash,
		Difficulty:  h.Difficulty,
		Number:      h.Number,
		GasLimit:    h.GasLimit,
		GasUsed:     h.GasUsed,
		Time:        h.Time,
		Extra:       h.Extra,
		MixDigest:   h.MixDigest,
		Nonce:       gethtypes.BlockNonce(h.Nonce),
	}
	assert.Equal(t, g.Hash(), h.Hash())
}

func TestHeaderHashTracksFields(t *testing.T) {
	h := testHeader()
	before := h.Hash()
	h.Root = common.HexToHash("0x02")
	assert.NotEqual(t, before, h.Hash())

	cpy := CopyHeader(h)
	cpy.Number.SetUint64(7)
	assert.Equal(t, uint64(1), h.NumberU64(), "copy must not alias number")
}

func TestHeaderJSON(t *testing.T) {
	h := testHeader()
	enc, err := json.Marshal(h)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(enc, &fields))
	assert.Equal(t, h.Hash().Hex(), fields["hash"])
	assert.Equal(t, "0x20000", fields["difficulty"])

	var dec Header
	require.NoError(t, json.Unmarshal(enc, &dec))
	assert.Equal(t, h.Hash(), dec.Hash())

	// Filler style input with leading zeros and the "coinbase" alias.
	var filler Header
	require.NoError(t, json.Unmarshal([]byte(`{
		"coinbase": "0x8888f1f195afa192cfee860698584c030f4c9db1",
		"difficulty": "0x020000",
		"gasLimit": "0x2fefd8",
		"number": "0x01",
		"timestamp": "1000"
	}`), &filler))
	assert.Equal(t, h.Coinbase, filler.Coinbase)
	assert.Equal(t, uint64(1000), filler.Time)
	assert.Equal(t, EmptyUncleHash, filler.UncleHash)
	assert.Equal(t, EmptyRootHash, filler.TxHash)

	err = json.Unmarshal([]byte(`{"difficulty":"0x01","timestamp":"0x01"}`), &filler)
	assert.Error(t, err)
}

func TestBlockEncoding(t *testing.T) {
	tx, err := SignLegacyTx(testTxData(), testSecret)
	require.NoError(t, err)
	uncle := testHeader()
	uncle.Coinbase = common.HexToAddress("0x01")

	block := NewBlock(testHeader(), nil, []*LegacyTx{tx}, []*Header{uncle})
	enc, err := rlp.EncodeToBytes(block)
	require.NoError(t, err)

	dec, err := DecodeBlock(enc)
	require.NoError(t, err)
	assert.Equal(t, block.Hash(), dec.Hash())
	require.Len(t, dec.Transactions(), 1)
	assert.Equal(t, tx.Hash(), dec.Transactions()[0].Hash())
	require.Len(t, dec.Uncles(), 1)
	assert.Equal(t, uncle.Hash(), dec.Uncles()[0].Hash())
	assert.False(t, dec.HasState())

	// The external encoding is the one geth produces for legacy blocks.
	var gblock gethtypes.Block
	require.NoError(t, rlp.DecodeBytes(enc, &gblock))
	assert.Equal(t, block.Hash(), gblock.Hash())
	assert.Equal(t, tx.Hash(), gblock.Transactions()[0].Hash())
}

func TestBlockIsolation(t *testing.T) {
	header := testHeader()
	state := Alloc{testAddr: {Balance: big.NewInt(1)}}
	block := NewBlock(header, state, nil, nil).WithTotalDifficulty(big.NewInt(5))

	header.Time = 5
	state[testAddr].Balance.SetUint64(2)
	block.Header().Number.SetUint64(9)
	block.TotalDifficulty().SetUint64(9)

	assert.Equal(t, uint64(1000), block.Time())
	assert.Equal(t, uint64(1), block.NumberU64())
	assert.Equal(t, int64(1), block.State()[testAddr].Balance.Int64())
	assert.Equal(t, int64(5), block.TotalDifficulty().Int64())
}

func TestDeriveTxRoot(t *testing.T) {
	assert.Equal(t, EmptyRootHash, DeriveTxRoot(nil))

	var (
		ours   []*LegacyTx
		theirs gethtypes.Transactions
	)
	for i := int64(0); i < 130; i++ {
		d := testTxData()
		d.Nonce = big.NewInt(i)
		tx, err := SignLegacyTx(d, testSecret)
		require.NoError(t, err)
		ours = append(ours, tx)

		var gtx gethtypes.Transaction
		require.NoError(t, gtx.UnmarshalBinary(tx.RawRLP()))
		theirs = append(theirs, &gtx)
	}
	want := gethtypes.DeriveSha(theirs, trie.NewStackTrie(nil))
	assert.Equal(t, want, DeriveTxRoot(ours))
	assert.NotEqual(t, want, DeriveTxRoot(ours[1:]))
}
