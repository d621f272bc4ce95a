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
	"errors"

	"github.com/probeum/t8nchain/core/types"
)

// Validation failures. A candidate block rejected with one of these leaves the
// chain unmodified and is a legitimate test outcome.
var (
	// ErrUncleDelta is returned if an uncle is not older than the block including it.
	ErrUncleDelta = errors.New("uncle header delta is < 1")

	// ErrUncleNumber is returned if an uncle is the genesis or not below the chain height.
	ErrUncleNumber = errors.New("uncle number is too old or 0")

	// ErrUncleTimestamp is returned if an uncle is not newer than its parent block.
	ErrUncleTimestamp = errors.New("uncle timestamp is not greater than its parent's")

	// ErrUncleDaoExtraData is returned if an uncle inside the DAO window lacks the marker.
	ErrUncleDaoExtraData = errors.New("uncle DAO extra data required")

	// ErrDaoExtraData is returned if a block inside the DAO window lacks the marker.
	ErrDaoExtraData = errors.New("DAO extra data required")

	// ErrNumberMismatch is returned if the candidate number is not the chain height.
	ErrNumberMismatch = errors.New("block number from pending block != actual chain height")

	// ErrStaleTimestamp is returned if the candidate is not newer than the head.
	ErrStaleTimestamp = errors.New("block timestamp is not greater than previous block timestamp")

	// ErrDroppedTransaction is returned in strict mode if the tool returned no
	// receipt for a candidate transaction.
	ErrDroppedTransaction = errors.New("transition tool did not return a transaction")

	// ErrHeaderMismatch is returned in strict mode if the candidate header cannot be
	// reproduced by the transition tool.
	ErrHeaderMismatch = errors.New("pending block header != transition tool constructed header")

	// ErrInvalidGenesis is returned if the genesis block is not numbered zero.
	ErrInvalidGenesis = errors.New("genesis block number must be 0")
)

var validationErrors = []error{
	ErrUncleDelta,
	ErrUncleNumber,
	ErrUncleTimestamp,
	ErrUncleDaoExtraData,
	ErrDaoExtraData,
	ErrNumberMismatch,
	ErrStaleTimestamp,
	ErrDroppedTransaction,
	ErrHeaderMismatch,
	ErrInvalidGenesis,
	types.ErrInvalidSigV,
}

// IsValidationError reports whether err is a consensus validation failure as
// opposed to a harness, tool or configuration fault.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// ConsistencyError reports a defect of the harness or its configuration, such as
// a tool result contradicting itself or a gap in the reward tables. It is never
// a legitimate test outcome.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	return "internal consistency failure: " + e.Msg
}

// IsConsistencyError reports whether err is or wraps a *ConsistencyError.
func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
