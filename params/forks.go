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
)

// Fork names a protocol ruleset as understood by the transition tool.
type Fork string

const (
	Frontier          Fork = "Frontier"
	Homestead         Fork = "Homestead"
	EIP150            Fork = "EIP150"
	EIP158            Fork = "EIP158"
	Byzantium         Fork = "Byzantium"
	Constantinople    Fork = "Constantinople"
	ConstantinopleFix Fork = "ConstantinopleFix"
	Istanbul          Fork = "Istanbul"
	Berlin            Fork = "Berlin"
	London            Fork = "London"
)

// Transition pseudo-forks switch rules at TransitionBlock. They only exist in the
// test matrix; the tool is always handed one of the real forks instead.
const (
	FrontierToHomesteadAt5          Fork = "FrontierToHomesteadAt5"
	HomesteadToEIP150At5            Fork = "HomesteadToEIP150At5"
	EIP158ToByzantiumAt5            Fork = "EIP158ToByzantiumAt5"
	HomesteadToDaoAt5               Fork = "HomesteadToDaoAt5"
	ByzantiumToConstantinopleFixAt5 Fork = "ByzantiumToConstantinopleFixAt5"
)

// TransitionBlock is the height at which every pseudo-fork switches rules.
const TransitionBlock = 5

// DAO fork marker window. Blocks numbered DAOForkBlockFirst..DAOForkBlockLast on
// HomesteadToDaoAt5 must carry DAOForkExtraData.
const (
	DAOForkBlockFirst = 5
	DAOForkBlockLast  = 18
)

// DAOForkExtraData is "dao-hard-fork".
var DAOForkExtraData = []byte("dao-hard-fork")

type transition struct {
	before, after Fork
}

var transitions = map[Fork]transition{
	FrontierToHomesteadAt5:          {Frontier, Homestead},
	HomesteadToEIP150At5:            {Homestead, EIP150},
	EIP158ToByzantiumAt5:            {EIP158, Byzantium},
	HomesteadToDaoAt5:               {Homestead, Homestead},
	ByzantiumToConstantinopleFixAt5: {Byzantium, ConstantinopleFix},
}

// IsTransition reports whether f is one of the known pseudo-forks.
func (f Fork) IsTransition() bool {
	_, ok := transitions[f]
	return ok
}

// Effective maps a pseudo-fork to the real fork active at the given height.
// The boolean is false when f is not a known pseudo-fork.
func (f Fork) Effective(number uint64) (Fork, bool) {
	tr, ok := transitions[f]
	if !ok {
		return "", false
	}
	if number < TransitionBlock {
		return tr.before, true
	}
	return tr.after, true
}

// RequiresDAOExtra reports whether a block at the given height on fork f must
// carry the DAO marker in its extra-data.
func (f Fork) RequiresDAOExtra(number uint64) bool {
	return f == HomesteadToDaoAt5 && number >= DAOForkBlockFirst && number <= DAOForkBlockLast
}

func (f Fork) String() string { return string(f) }

// TransitionForks lists the pseudo-forks in a stable order.
func TransitionForks() []Fork {
	return []Fork{
		FrontierToHomesteadAt5,
		HomesteadToEIP150At5,
		EIP158ToByzantiumAt5,
		HomesteadToDaoAt5,
		ByzantiumToConstantinopleFixAt5,
	}
}

// Engine selects how block rewards and seals are handled.
type Engine int

const (
	NoProof  Engine = iota // rewards paid, seal not checked
	NoReward               // no reward argument passed to the tool at all
	Ethash                 // treated as NoProof by the tool backend
)

func (e Engine) String() string {
	switch e {
	case NoProof:
		return "NoProof"
	case NoReward:
		return "NoReward"
	case Ethash:
		return "Ethash"
	default:
		return fmt.Sprintf("Engine(%d)", int(e))
	}
}

// ParseEngine converts a seal engine name, case-insensitively.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(s) {
	case "", "noproof":
		return NoProof, nil
	case "noreward":
		return NoReward, nil
	case "ethash":
		return Ethash, nil
	}
	return 0, fmt.Errorf("unknown seal engine %q", s)
}
