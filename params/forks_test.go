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

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveFork(t *testing.T) {
	tests := []struct {
		fork          Fork
		before, after Fork
	}{
		{FrontierToHomesteadAt5, Frontier, Homestead},
		{HomesteadToEIP150At5, Homestead, EIP150},
		{EIP158ToByzantiumAt5, EIP158, Byzantium},
		{HomesteadToDaoAt5, Homestead, Homestead},
		{ByzantiumToConstantinopleFixAt5, Byzantium, ConstantinopleFix},
	}
	for _, tt := range tests {
		assert.True(t, tt.fork.IsTransition(), tt.fork)
		for number, want := range map[uint64]Fork{0: tt.before, 4: tt.before, 5: tt.after, 100: tt.after} {
			have, ok := tt.fork.Effective(number)
			require.True(t, ok)
			assert.Equal(t, want, have, "%s at %d", tt.fork, number)
		}
	}
	assert.Len(t, TransitionForks(), len(tests))

	_, ok := Berlin.Effective(5)
	assert.False(t, ok)
	assert.False(t, Berlin.IsTransition())
}

func TestRequiresDAOExtra(t *testing.T) {
	for n := uint64(0); n < 25; n++ {
		want := n >= 5 && n <= 18
		assert.Equal(t, want, HomesteadToDaoAt5.RequiresDAOExtra(n), "block %d", n)
		assert.False(t, Homestead.RequiresDAOExtra(n))
	}
	assert.Equal(t, "0x64616f2d686172642d666f726b", hexutil.Encode(DAOForkExtraData))
}

func TestParseEngine(t *testing.T) {
	for in, want := range map[string]Engine{
		"":         NoProof,
		"NoProof":  NoProof,
		"noreward": NoReward,
		"Ethash":   Ethash,
	} {
		have, err := ParseEngine(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, have, in)
	}
	_, err := ParseEngine("clique")
	assert.Error(t, err)
	assert.Equal(t, "NoReward", NoReward.String())
}
