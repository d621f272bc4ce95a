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
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/probeum/t8nchain/params"
)

// ResolveReward returns the mining reward for a block at the given height and the
// real fork to present to the transition tool. Pseudo-forks resolve to the fork
// active on their side of params.TransitionBlock.
//
// A fork without reward that is not a known pseudo-fork, or a pseudo-fork mapped
// to a fork without reward, is a configuration defect and yields a
// *ConsistencyError.
func ResolveReward(engine params.Engine, fork params.Fork, number uint64, rewards params.RewardMap) (*uint256.Int, params.Fork, error) {
	if engine == params.Ethash {
		log.Warn("Transition tool backend treats Ethash as NoProof", "fork", fork, "number", number)
	}
	if reward, ok := rewards.Get(fork); ok {
		return reward, fork, nil
	}
	effective, ok := fork.Effective(number)
	if !ok {
		return nil, "", &ConsistencyError{Msg: fmt.Sprintf("no reward configured for fork %s", fork)}
	}
	reward, ok := rewards.Get(effective)
	if !ok {
		return nil, "", &ConsistencyError{Msg: fmt.Sprintf("no reward configured for fork %s (mapped from %s at block %d)", effective, fork, number)}
	}
	return reward, effective, nil
}
