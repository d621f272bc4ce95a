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

package params

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRewards(t *testing.T) {
	for fork, want := range map[Fork]uint64{
		Frontier:          5e18,
		Homestead:         5e18,
		EIP150:            5e18,
		EIP158:            5e18,
		Byzantium:         3e18,
		Constantinople:    2e18,
		ConstantinopleFix: 2e18,
		Istanbul:          2e18,
		Berlin:            2e18,
		London:            2e18,
	} {
		have, ok := DefaultRewards.Get(fork)
		require.True(t, ok, fork)
		assert.Equal(t, want, have.Uint64(), fork)
	}
	for _, f := range TransitionForks() {
		_, ok := DefaultRewards.Get(f)
		assert.False(t, ok, "pseudo-fork %s has no direct reward", f)
	}
}

func TestRewardMapGetCopies(t *testing.T) {
	r, _ := DefaultRewards.Get(Byzantium)
	r.SetUint64(1)
	again, _ := DefaultRewards.Get(Byzantium)
	assert.Equal(t, uint64(3e18), again.Uint64())

	cpy := DefaultRewards.Copy()
	cpy[Byzantium].SetUint64(1)
	again, _ = DefaultRewards.Get(Byzantium)
	assert.Equal(t, uint64(3e18), again.Uint64())
}

func TestParseRewards(t *testing.T) {
	m, err := ParseRewards(map[string]string{
		"Frontier":  "5000000000000000000",
		"Byzantium": "0x29a2241af62c0000",
	})
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(5e18), m[Frontier])
	assert.Equal(t, uint256.NewInt(3e18), m[Byzantium])
	assert.Equal(t, map[string]string{
		"Frontier":  "5000000000000000000",
		"Byzantium": "3000000000000000000",
	}, m.Strings())

	_, err = ParseRewards(map[string]string{"Frontier": "five"})
	assert.Error(t, err)
	_, err = ParseRewards(map[string]string{"Frontier": "0x"})
	assert.Error(t, err)
}
