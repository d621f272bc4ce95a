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
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcile(t *testing.T) {
	var partial map[common.Address]*ToolAccount
	require.NoError(t, json.Unmarshal([]byte(`{
		"0x1000000000000000000000000000000000000001": {"balance": "0x0de0b6b3a7640000"},
		"0x1000000000000000000000000000000000000002": {"nonce": "0x1", "code": "0x6001", "storage": {"0x1": "0x100", "0x0000000000000000000000000000000000000000000000000000000000000002": "0x02"}},
		"0x1000000000000000000000000000000000000003": {}
	}`), &partial))

	alloc, err := Reconcile(partial)
	require.NoError(t, err)
	require.Len(t, alloc, 3)

	enc, err := json.Marshal(alloc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"0x1000000000000000000000000000000000000001": {"balance": "0x0de0b6b3a7640000", "code": "0x", "nonce": "0x00", "storage": {}},
		"0x1000000000000000000000000000000000000002": {"balance": "0x00", "code": "0x6001", "nonce": "0x01", "storage": {"0x01": "0x0100", "0x02": "0x02"}},
		"0x1000000000000000000000000000000000000003": {"balance": "0x00", "code": "0x", "nonce": "0x00", "storage": {}}
	}`, string(enc))
}

func TestReconcileMalformed(t *testing.T) {
	_, err := Reconcile(map[common.Address]*ToolAccount{
		{1}: {Storage: map[string]string{"0x01": "0xzz"}},
	})
	assert.Error(t, err)

	alloc, err := Reconcile(nil)
	require.NoError(t, err)
	assert.Empty(t, alloc)
}
