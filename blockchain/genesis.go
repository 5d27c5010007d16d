// Copyright 2019 The ethergo Authors
// Copyright 2014 The go-ethereum Authors
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

package blockchain

import (
	"math/big"

	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/params"
)

// GenesisAlloc maps addresses to their genesis balances.
type GenesisAlloc map[common.Address]*big.Int

// NewGenesisBlock returns the unique zero-parent block of number zero.
func NewGenesisBlock() *types.Block {
	header := &types.Header{
		ParentHash:  common.Hash{},
		Number:      0,
		Time:        0,
		Difficulty:  new(big.Int).Set(params.GenesisDifficulty),
		GasLimit:    params.GenesisGasLimit,
		MinGasPrice: new(big.Int).Set(params.InitialMinGasPrice),
	}
	return types.NewBlock(header, nil, nil)
}

// ApplyGenesisAlloc credits the allocation balances into the repository and
// flushes it. It is used when bootstrapping a fresh chain.
func ApplyGenesisAlloc(repo state.Repository, alloc GenesisAlloc) error {
	for addr, balance := range alloc {
		repo.CreateAccount(addr)
		repo.AddBalance(addr, balance)
	}
	return repo.Sync()
}
