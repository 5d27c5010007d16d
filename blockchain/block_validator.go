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
//
// This file is derived from core/block_processor.go (2019/01/15).
// Modified for the ethergo development.

package blockchain

import (
	"math/big"
	"time"

	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/params"
	"gopkg.in/fatih/set.v0"
)

const (
	// Uncle window bounds. An uncle's parent must be an ancestor 2..7
	// generations back, the uncle itself 1..6 blocks behind.
	minUncleParentGap = 2
	maxUncleParentGap = 7
	minUncleGap       = 1
	maxUncleGap       = 6
)

// BlockValidator checks headers and uncle lists against the consensus rules.
type BlockValidator struct {
	pow   PoW
	store BlockStore
}

func NewBlockValidator(pow PoW, store BlockStore) *BlockValidator {
	return &BlockValidator{pow: pow, store: store}
}

// CalcDifficulty returns the expected difficulty of a block mined at the
// given time on top of parent. The rule is homeostatic: a short inter-block
// time raises difficulty, a long one lowers it, bounded below by the
// protocol minimum.
func CalcDifficulty(parent *types.Header, time uint64) *big.Int {
	quotient := new(big.Int).Div(parent.Difficulty, params.DifficultyBoundDivisor)

	diff := new(big.Int)
	if new(big.Int).SetUint64(time-parent.Time).Cmp(params.DurationLimit) < 0 {
		diff.Add(parent.Difficulty, quotient)
	} else {
		diff.Sub(parent.Difficulty, quotient)
	}
	if diff.Cmp(params.MinimumDifficulty) < 0 {
		diff.Set(params.MinimumDifficulty)
	}
	return diff
}

// CalcGasLimit returns the gas limit a child of parent must carry. The limit
// decays towards the parent's actual usage, never dropping below the
// protocol minimum. Integer arithmetic, truncating.
func CalcGasLimit(parent *types.Header) uint64 {
	limit := (parent.GasLimit*1023 + parent.GasUsed*6/5) / params.GasLimitBoundDivisor
	if limit < params.MinGasLimit {
		limit = params.MinGasLimit
	}
	return limit
}

// ValidateHeader checks a header against its parent. The first rule
// violation found is reported through the returned error; a nil return means
// every check passed.
func (v *BlockValidator) ValidateHeader(header, parent *types.Header) error {
	if header.Number != parent.Number+1 {
		return ValidationErrorf("block number %d is not parent number %d + 1", header.Number, parent.Number)
	}

	if expected := CalcDifficulty(parent, header.Time); expected.Cmp(header.Difficulty) != 0 {
		return ValidationErrorf("difficulty mismatch: have %v, want %v", header.Difficulty, expected)
	}

	if expected := CalcGasLimit(parent); header.GasLimit != expected {
		return ValidationErrorf("gas limit mismatch: have %d, want %d", header.GasLimit, expected)
	}

	if header.Time <= parent.Time {
		return ValidationErrorf("timestamp %d not after parent timestamp %d", header.Time, parent.Time)
	}
	if bound := time.Now().Add(params.FutureBlockTimeBound).Unix(); header.Time >= uint64(bound) {
		return ValidationErrorf("timestamp %d too far in the future", header.Time)
	}

	if uint64(len(header.Extra)) > params.MaximumExtraDataSize {
		return ValidationErrorf("extra data too long: %d > %d", len(header.Extra), params.MaximumExtraDataSize)
	}

	if !v.pow.Verify(header) {
		return ValidationErrorf("proof of work invalid for block %d", header.Number)
	}
	return nil
}

// ValidateUncles checks each uncle of the block: individual header validity
// against the uncle's own parent, the generation-gap windows, and duplicate
// suppression within the ancestor window.
func (v *BlockValidator) ValidateUncles(block *types.Block) error {
	if len(block.Uncles()) == 0 {
		return nil
	}

	// Collect the ancestor window and every uncle already referenced in it.
	ancestors := set.New()
	seenUncles := set.New()
	for _, hash := range v.store.GetListOfHashesStartFrom(block.ParentHash(), maxUncleParentGap) {
		ancestors.Add(hash)
		if ancestor := v.store.GetByHash(hash); ancestor != nil {
			for _, u := range ancestor.Uncles() {
				seenUncles.Add(u.Hash())
			}
		}
	}

	for i, uncle := range block.Uncles() {
		hash := uncle.Hash()

		if seenUncles.Has(hash) {
			return UncleErrorf("uncle[%d] %s already referenced", i, hash.Hex())
		}
		seenUncles.Add(hash)

		if ancestors.Has(hash) {
			return UncleErrorf("uncle[%d] %s is an ancestor", i, hash.Hex())
		}

		uncleParent := v.store.GetByHash(uncle.ParentHash)
		if uncleParent == nil {
			return UncleErrorf("uncle[%d] %s has unknown parent %s", i, hash.Hex(), uncle.ParentHash.Hex())
		}
		if gap := block.Number() - uncleParent.Number(); gap < minUncleParentGap || gap > maxUncleParentGap {
			return UncleErrorf("uncle[%d] %s parent gap %d outside [%d,%d]", i, hash.Hex(), gap, minUncleParentGap, maxUncleParentGap)
		}
		if gap := block.Number() - uncle.Number; gap < minUncleGap || gap > maxUncleGap {
			return UncleErrorf("uncle[%d] %s gap %d outside [%d,%d]", i, hash.Hex(), gap, minUncleGap, maxUncleGap)
		}

		if err := v.ValidateHeader(uncle, uncleParent.Header()); err != nil {
			return UncleErrorf("uncle[%d] %s header invalid: %v", i, hash.Hex(), err)
		}
	}
	return nil
}

// ValidateBlock runs the full structural validation of a block on top of its
// parent: header rules first, then the uncle list.
func (v *BlockValidator) ValidateBlock(block *types.Block, parent *types.Header) error {
	if err := v.ValidateHeader(block.Header(), parent); err != nil {
		return err
	}
	return v.ValidateUncles(block)
}
