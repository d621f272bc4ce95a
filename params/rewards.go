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
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// RewardMap is the read-only block reward schedule, keyed by real fork.
type RewardMap map[Fork]*uint256.Int

var (
	reward5Ether = uint256.MustFromDecimal("5000000000000000000")
	reward3Ether = uint256.MustFromDecimal("3000000000000000000")
	reward2Ether = uint256.MustFromDecimal("2000000000000000000")
)

// DefaultRewards is the mainnet reward schedule.
var DefaultRewards = RewardMap{
	Frontier:          reward5Ether,
	Homestead:         reward5Ether,
	EIP150:            reward5Ether,
	EIP158:            reward5Ether,
	Byzantium:         reward3Ether,
	Constantinople:    reward2Ether,
	ConstantinopleFix: reward2Ether,
	Istanbul:          reward2Ether,
	Berlin:            reward2Ether,
	London:            reward2Ether,
}

// Get returns a copy of the reward for fork f.
func (m RewardMap) Get(f Fork) (*uint256.Int, bool) {
	r, ok := m[f]
	if !ok || r == nil {
		return nil, false
	}
	return new(uint256.Int).Set(r), true
}

// Copy returns a deep copy of the map.
func (m RewardMap) Copy() RewardMap {
	cpy := make(RewardMap, len(m))
	for f, r := range m {
		cpy[f] = new(uint256.Int).Set(r)
	}
	return cpy
}

// ParseRewards converts a fork-name to amount table. Amounts may be decimal or
// 0x-prefixed hex.
func ParseRewards(raw map[string]string) (RewardMap, error) {
	m := make(RewardMap, len(raw))
	for name, amount := range raw {
		var (
			v   *uint256.Int
			err error
		)
		if strings.HasPrefix(amount, "0x") || strings.HasPrefix(amount, "0X") {
			v, err = uint256.FromHex(amount)
		} else {
			v, err = uint256.FromDecimal(amount)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid reward %q for fork %s: %v", amount, name, err)
		}
		m[Fork(name)] = v
	}
	return m, nil
}

// Strings renders the map back into the configuration form.
func (m RewardMap) Strings() map[string]string {
	out := make(map[string]string, len(m))
	for f, r := range m {
		out[string(f)] = r.Dec()
	}
	return out
}
