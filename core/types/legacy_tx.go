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
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"
)

var (
	ErrInvalidSigV      = errors.New("invalid transaction v value")
	ErrInvalidSignature = errors.New("invalid transaction signature")
	ErrInvalidSecret    = errors.New("invalid transaction secret key")
	ErrFieldOverflow    = errors.New("transaction field exceeds 256 bits")
	ErrMissingField     = errors.New("missing required transaction field")
)

// senderCache holds recovered senders by transaction hash. The hash covers the
// signature, so an entry can never go stale.
var senderCache, _ = lru.New(4096)

// ExportOrder selects the shape produced by LegacyTx.Export.
type ExportOrder int

const (
	// ExportDefault uses the structured field names; creation has an empty "to".
	ExportDefault ExportOrder = iota
	// ExportToolStyle is the transition tool input: gas/input names, minimal hex
	// quantities, no "to" on creation and the signing secret when there is one.
	ExportToolStyle
	// ExportOldStyle is the default shape in the older positional key order.
	ExportOldStyle
)

// LegacyTxData holds the nine canonical fields of a legacy transaction, in their
// RLP order.
type LegacyTxData struct {
	Nonce    *big.Int
	GasPrice *big.Int
	Gas      *big.Int
	To       *common.Address `rlp:"nil"` // nil means contract creation
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

// legacySigPayload is the unsigned six field list that gets signed.
type legacySigPayload struct {
	Nonce    *big.Int
	GasPrice *big.Int
	Gas      *big.Int
	To       *common.Address `rlp:"nil"`
	Value    *big.Int
	Data     []byte
}

// LegacyTx is an immutable pre-EIP-2718 transaction. The raw encoding and hash
// are derived once by the constructors and always match the fields.
type LegacyTx struct {
	inner  LegacyTxData
	secret *big.Int // set only when the signature was derived here

	raw  []byte
	hash common.Hash
}

// NewLegacyTx creates a transaction with an explicit signature.
func NewLegacyTx(d *LegacyTxData) (*LegacyTx, error) {
	tx := &LegacyTx{inner: copyTxData(d)}
	if tx.inner.V.Sign() < 0 || tx.inner.V.BitLen() > 8 {
		return nil, fmt.Errorf("%w: %#x exceeds one byte", ErrInvalidSigV, tx.inner.V)
	}
	if err := tx.seal(); err != nil {
		return nil, err
	}
	return tx, nil
}

// SignLegacyTx creates a transaction signed with the given secret key. Any v, r
// and s in d are replaced.
func SignLegacyTx(d *LegacyTxData, secret *big.Int) (*LegacyTx, error) {
	if secret == nil || secret.Sign() <= 0 || secret.BitLen() > 256 {
		return nil, ErrInvalidSecret
	}
	key, err := crypto.ToECDSA(math.PaddedBigBytes(secret, 32))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	tx := &LegacyTx{inner: copyTxData(d), secret: new(big.Int).Set(secret)}
	sig, err := crypto.Sign(tx.SigHash().Bytes(), key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	r, s := new(big.Int).SetBytes(sig[:32]), new(big.Int).SetBytes(sig[32:64])
	if !crypto.ValidateSignatureValues(sig[64], r, s, false) {
		return nil, fmt.Errorf("%w: could not construct transaction signature", ErrInvalidSignature)
	}
	// The recovery id is offset by 27: legacy signing does not include a chain id.
	tx.inner.V = new(big.Int).SetUint64(uint64(sig[64]) + 27)
	tx.inner.R, tx.inner.S = r, s
	if err := tx.seal(); err != nil {
		return nil, err
	}
	return tx, nil
}

// DecodeLegacyTx decodes the RLP list of a legacy transaction. Non-canonical
// integers and trailing bytes are rejected.
func DecodeLegacyTx(raw []byte) (*LegacyTx, error) {
	var d LegacyTxData
	if err := rlp.DecodeBytes(raw, &d); err != nil {
		return nil, err
	}
	return NewLegacyTx(&d)
}

// DecodeRLP implements rlp.Decoder, reading one positional transaction record.
func (tx *LegacyTx) DecodeRLP(s *rlp.Stream) error {
	var d LegacyTxData
	if err := s.Decode(&d); err != nil {
		return err
	}
	dec, err := NewLegacyTx(&d)
	if err != nil {
		return err
	}
	*tx = *dec
	return nil
}

// EncodeRLP implements rlp.Encoder.
func (tx *LegacyTx) EncodeRLP(w io.Writer) error {
	_, err := w.Write(tx.raw)
	return err
}

func copyTxData(d *LegacyTxData) LegacyTxData {
	cpy := LegacyTxData{
		Nonce:    new(big.Int),
		GasPrice: new(big.Int),
		Gas:      new(big.Int),
		Value:    new(big.Int),
		Data:     common.CopyBytes(d.Data),
		V:        new(big.Int),
		R:        new(big.Int),
		S:        new(big.Int),
	}
	if d.To != nil {
		to := *d.To
		cpy.To = &to
	}
	for _, f := range []struct{ dst, src *big.Int }{
		{cpy.Nonce, d.Nonce}, {cpy.GasPrice, d.GasPrice}, {cpy.Gas, d.Gas},
		{cpy.Value, d.Value}, {cpy.V, d.V}, {cpy.R, d.R}, {cpy.S, d.S},
	} {
		if f.src != nil {
			f.dst.Set(f.src)
		}
	}
	return cpy
}

// seal validates the fields and derives the raw encoding and hash.
func (tx *LegacyTx) seal() error {
	for name, v := range map[string]*big.Int{
		"nonce": tx.inner.Nonce, "gasPrice": tx.inner.GasPrice, "gasLimit": tx.inner.Gas,
		"value": tx.inner.Value, "r": tx.inner.R, "s": tx.inner.S,
	} {
		if v.Sign() < 0 || v.BitLen() > 256 {
			return fmt.Errorf("%w: %s", ErrFieldOverflow, name)
		}
	}
	raw, err := rlp.EncodeToBytes(&tx.inner)
	if err != nil {
		return err
	}
	tx.raw = raw
	tx.hash = crypto.Keccak256Hash(raw)
	return nil
}

// Hash returns the keccak256 hash of the raw encoding.
func (tx *LegacyTx) Hash() common.Hash { return tx.hash }

// RawRLP returns a copy of the canonical encoding.
func (tx *LegacyTx) RawRLP() []byte { return common.CopyBytes(tx.raw) }

// SigHash returns the hash of the unsigned six field payload.
func (tx *LegacyTx) SigHash() common.Hash {
	return rlpHash(&legacySigPayload{
		Nonce:    tx.inner.Nonce,
		GasPrice: tx.inner.GasPrice,
		Gas:      tx.inner.Gas,
		To:       tx.inner.To,
		Value:    tx.inner.Value,
		Data:     tx.inner.Data,
	})
}

// Sender recovers the signing address. Only v values of 27 and 28 are
// recoverable.
func (tx *LegacyTx) Sender() (common.Address, error) {
	if from, ok := senderCache.Get(tx.hash); ok {
		return from.(common.Address), nil
	}
	v := tx.inner.V.Uint64()
	if v != 27 && v != 28 {
		return common.Address{}, fmt.Errorf("%w: %d is not recoverable", ErrInvalidSigV, v)
	}
	recid := byte(v - 27)
	if !crypto.ValidateSignatureValues(recid, tx.inner.R, tx.inner.S, false) {
		return common.Address{}, ErrInvalidSignature
	}
	sig := make([]byte, crypto.SignatureLength)
	tx.inner.R.FillBytes(sig[:32])
	tx.inner.S.FillBytes(sig[32:64])
	sig[64] = recid
	pub, err := crypto.SigToPub(tx.SigHash().Bytes(), sig)
	if err != nil {
		return common.Address{}, err
	}
	from := crypto.PubkeyToAddress(*pub)
	senderCache.Add(tx.hash, from)
	return from, nil
}

func (tx *LegacyTx) Nonce() *big.Int    { return new(big.Int).Set(tx.inner.Nonce) }
func (tx *LegacyTx) GasPrice() *big.Int { return new(big.Int).Set(tx.inner.GasPrice) }
func (tx *LegacyTx) Gas() *big.Int      { return new(big.Int).Set(tx.inner.Gas) }
func (tx *LegacyTx) Value() *big.Int    { return new(big.Int).Set(tx.inner.Value) }
func (tx *LegacyTx) Data() []byte       { return common.CopyBytes(tx.inner.Data) }
func (tx *LegacyTx) IsCreation() bool   { return tx.inner.To == nil }

// To returns the recipient address, or nil for contract creation.
func (tx *LegacyTx) To() *common.Address {
	if tx.inner.To == nil {
		return nil
	}
	to := *tx.inner.To
	return &to
}

// RawSignatureValues returns copies of v, r and s.
func (tx *LegacyTx) RawSignatureValues() (v, r, s *big.Int) {
	return new(big.Int).Set(tx.inner.V), new(big.Int).Set(tx.inner.R), new(big.Int).Set(tx.inner.S)
}

// Fields returns a copy of the nine canonical fields.
func (tx *LegacyTx) Fields() LegacyTxData { return copyTxData(&tx.inner) }

// Export renders the transaction in the requested shape.
func (tx *LegacyTx) Export(order ExportOrder) *Document {
	doc := NewDocument()
	doc.Set("data", hexutil.Encode(tx.inner.Data))
	doc.Set("gasLimit", CompactHex(tx.inner.Gas))
	doc.Set("gasPrice", CompactHex(tx.inner.GasPrice))
	doc.Set("nonce", CompactHex(tx.inner.Nonce))
	switch {
	case tx.inner.To != nil:
		doc.Set("to", hexutil.Encode(tx.inner.To.Bytes()))
	case order != ExportToolStyle:
		doc.Set("to", "")
	}
	doc.Set("value", CompactHex(tx.inner.Value))
	doc.Set("v", CompactHex(tx.inner.V))
	doc.Set("r", CompactHex(tx.inner.R))
	doc.Set("s", CompactHex(tx.inner.S))

	switch order {
	case ExportToolStyle:
		doc.Apply(stripLeadingZeros, "data", "to")
		doc.Rename("gasLimit", "gas")
		doc.Rename("data", "input")
		if tx.secret != nil && tx.secret.Sign() != 0 {
			doc.Set("secretKey", common.BigToHash(tx.secret).Hex())
		}
	case ExportOldStyle:
		doc.SetKeyPos("r", 4)
		doc.SetKeyPos("s", 5)
		doc.SetKeyPos("v", 7)
	}
	return doc
}

// stripLeadingZeros turns 0x0001 into 0x1 and 0x00 into 0x0.
func stripLeadingZeros(s string) string {
	if len(s) < 2 || s[:2] != "0x" {
		return s
	}
	digits := s[2:]
	for len(digits) > 1 && digits[0] == '0' {
		digits = digits[1:]
	}
	if digits == "" {
		digits = "0"
	}
	return "0x" + digits
}

// MarshalJSON encodes the default export shape.
func (tx *LegacyTx) MarshalJSON() ([]byte, error) {
	return tx.Export(ExportDefault).MarshalJSON()
}

// UnmarshalJSON decodes the structured field shape, see LegacyTxArgs.
func (tx *LegacyTx) UnmarshalJSON(input []byte) error {
	var args LegacyTxArgs
	if err := json.Unmarshal(input, &args); err != nil {
		return err
	}
	dec, err := args.ToTransaction()
	if err != nil {
		return err
	}
	*tx = *dec
	return nil
}

// LegacyTxArgs is the structured field form of a legacy transaction, as written
// in test fillers. Quantities are hex (leading zeros allowed) or decimal. An
// empty or null "to" denotes contract creation. When secretKey is given the
// signature is derived and v, r, s are ignored.
type LegacyTxArgs struct {
	Data      *hexutil.Bytes        `json:"data"`
	GasLimit  *math.HexOrDecimal256 `json:"gasLimit"`
	GasPrice  *math.HexOrDecimal256 `json:"gasPrice"`
	Nonce     *math.HexOrDecimal256 `json:"nonce"`
	To        json.RawMessage       `json:"to"`
	Value     *math.HexOrDecimal256 `json:"value"`
	V         *math.HexOrDecimal256 `json:"v"`
	R         *math.HexOrDecimal256 `json:"r"`
	S         *math.HexOrDecimal256 `json:"s"`
	SecretKey *math.HexOrDecimal256 `json:"secretKey"`
}

// ToTransaction validates the arguments and builds the transaction.
func (args *LegacyTxArgs) ToTransaction() (*LegacyTx, error) {
	required := []struct {
		name string
		val  *math.HexOrDecimal256
	}{
		{"gasLimit", args.GasLimit}, {"gasPrice", args.GasPrice},
		{"nonce", args.Nonce}, {"value", args.Value},
	}
	for _, f := range required {
		if f.val == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if args.Data == nil {
		return nil, fmt.Errorf("%w: data", ErrMissingField)
	}
	if args.To == nil {
		return nil, fmt.Errorf("%w: to", ErrMissingField)
	}
	d := &LegacyTxData{
		Nonce:    (*big.Int)(args.Nonce),
		GasPrice: (*big.Int)(args.GasPrice),
		Gas:      (*big.Int)(args.GasLimit),
		Value:    (*big.Int)(args.Value),
		Data:     *args.Data,
	}
	var to *string
	if err := json.Unmarshal(args.To, &to); err != nil {
		return nil, fmt.Errorf("invalid transaction 'to': %v", err)
	}
	if to != nil && *to != "" {
		if !common.IsHexAddress(*to) {
			return nil, fmt.Errorf("invalid transaction 'to': %q", *to)
		}
		addr := common.HexToAddress(*to)
		d.To = &addr
	}
	if args.SecretKey != nil {
		return SignLegacyTx(d, (*big.Int)(args.SecretKey))
	}
	for _, f := range []struct {
		name string
		val  *math.HexOrDecimal256
		dst  **big.Int
	}{
		{"v", args.V, &d.V}, {"r", args.R, &d.R}, {"s", args.S, &d.S},
	} {
		if f.val == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
		*f.dst = (*big.Int)(f.val)
	}
	return NewLegacyTx(d)
}
