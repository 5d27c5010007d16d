// Copyright 2019 The ethergo Authors
// This file is part of the ethergo library.
//
// The ethergo library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ethergo library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ethergo library. If not, see <http://www.gnu.org/licenses/>.

package vm

import (
	"math/big"

	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/common"
)

// ProgramInvoke is the execution context handed to the VM: transaction
// inputs, enclosing block fields and the tracked repository all reads and
// writes go through.
type ProgramInvoke struct {
	Address common.Address // account the program runs as
	Origin  common.Address // transaction sender
	Caller  common.Address

	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
	Data     []byte

	Coinbase   common.Address
	Number     uint64
	Time       uint64
	Difficulty *big.Int
	GasLimit   uint64

	State state.Repository
}

// NewProgramInvoke builds the invocation context for a transaction executing
// inside the given block against a tracked repository view.
func NewProgramInvoke(tx *types.Transaction, sender, receiver common.Address, block *types.Header, repo state.Repository) *ProgramInvoke {
	return &ProgramInvoke{
		Address:    receiver,
		Origin:     sender,
		Caller:     sender,
		Value:      tx.Value(),
		Gas:        tx.Gas(),
		GasPrice:   tx.GasPrice(),
		Data:       tx.Data(),
		Coinbase:   block.Coinbase,
		Number:     block.Number,
		Time:       block.Time,
		Difficulty: new(big.Int).Set(block.Difficulty),
		GasLimit:   block.GasLimit,
		State:      repo,
	}
}
