// Copyright 2019 The ethergo Authors
// Copyright 2015 The go-ethereum Authors
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
//
// This file is derived from params/protocol_params.go (2019/01/15).
// Modified for the ethergo development.

package params

import (
	"math/big"
	"time"
)

const (
	// Fee schedule parameters

	TxGas     uint64 = 21000 // Per transaction not running any code. // G_transaction
	TxDataGas uint64 = 5     // Per byte of data attached to a transaction. // G_txdata

	GasLimitBoundDivisor uint64 = 1024    // The bound divisor of the gas limit, used in update calculations.
	MinGasLimit          uint64 = 125000  // Minimum the gas limit may ever be.
	GenesisGasLimit      uint64 = 1000000 // Gas limit of the Genesis block.

	MaximumExtraDataSize uint64 = 1024 // Maximum size header extra data may be.

	// Chain connector parameters

	ReorgThreshold uint64 = 5000 // Difficulty units an alt chain must lead by to signal a reorg.
	GarbageLimit   int    = 20   // Maximum orphan blocks buffered before a resync is issued.
)

// FutureBlockTimeBound is how far into the future a header timestamp may
// point before the header is rejected.
const FutureBlockTimeBound = 900 * time.Second

// Denominations of the base currency.
var (
	Wei    = big.NewInt(1)
	Szabo  = new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)
	Finney = new(big.Int).Exp(big.NewInt(10), big.NewInt(15), nil)
	Ether  = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

var (
	DifficultyBoundDivisor = big.NewInt(1024)   // The bound divisor of the difficulty, used in the update calculations.
	GenesisDifficulty      = big.NewInt(131072) // Difficulty of the Genesis block.
	MinimumDifficulty      = big.NewInt(131072) // The minimum that the difficulty may ever be.
	DurationLimit          = big.NewInt(8)      // The decision boundary on the blocktime duration used to determine whether difficulty should go up or not.
)

var (
	// BlockReward is credited to the coinbase of every non-genesis block.
	BlockReward = new(big.Int).Mul(big.NewInt(1500), Finney)
	// UncleReward is credited to the coinbase of every referenced uncle.
	UncleReward = new(big.Int).Div(new(big.Int).Mul(BlockReward, big.NewInt(3)), big.NewInt(4))
	// InclusionReward is credited to the block coinbase per included uncle.
	InclusionReward = new(big.Int).Div(BlockReward, big.NewInt(8))

	// InitialMinGasPrice is the minimum gas price carried by the genesis header.
	InitialMinGasPrice = new(big.Int).Mul(big.NewInt(10), Szabo)
)
