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

package blockchain

import (
	"math/big"
	"testing"
	"time"

	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/params"
	"github.com/bellaj/ethergo/storage/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalcGasLimit(t *testing.T) {
	tests := []struct {
		parentLimit uint64
		parentUsed  uint64
		want        uint64
	}{
		// Decays towards usage, truncating integer arithmetic.
		{1000000, 0, 1000000 * 1023 / 1024},
		{1000000, 500000, (1000000*1023 + 500000*6/5) / 1024},
		// Never drops below the protocol minimum.
		{params.MinGasLimit, 0, params.MinGasLimit},
		{125100, 0, params.MinGasLimit},
	}
	for _, tt := range tests {
		parent := &types.Header{GasLimit: tt.parentLimit, GasUsed: tt.parentUsed}
		assert.Equal(t, tt.want, CalcGasLimit(parent), "parent limit %d used %d", tt.parentLimit, tt.parentUsed)
	}
}

func TestCalcDifficulty(t *testing.T) {
	parent := &types.Header{
		Time:       1000,
		Difficulty: big.NewInt(2 * 131072),
	}
	quotient := new(big.Int).Div(parent.Difficulty, params.DifficultyBoundDivisor)

	// A fast block raises difficulty, a slow one lowers it.
	up := CalcDifficulty(parent, parent.Time+1)
	assert.Equal(t, new(big.Int).Add(parent.Difficulty, quotient), up)

	down := CalcDifficulty(parent, parent.Time+100)
	assert.Equal(t, new(big.Int).Sub(parent.Difficulty, quotient), down)

	// The floor holds.
	atFloor := &types.Header{Time: 1000, Difficulty: new(big.Int).Set(params.MinimumDifficulty)}
	assert.Equal(t, params.MinimumDifficulty, CalcDifficulty(atFloor, atFloor.Time+100))
}

func newTestValidator(t *testing.T) (*BlockValidator, BlockStore) {
	store, err := NewBlockStore(database.NewMemDatabase())
	require.NoError(t, err)
	return NewBlockValidator(fakePoW{}, store), store
}

func TestValidateHeader(t *testing.T) {
	v, _ := newTestValidator(t)
	genesis := NewGenesisBlock()
	parent := genesis.Header()

	good := makeBlock(genesis).Header()
	assert.NoError(t, v.ValidateHeader(good, parent))

	tests := []struct {
		name   string
		tamper func(h *types.Header)
	}{
		{"wrong number", func(h *types.Header) { h.Number = 5 }},
		{"wrong difficulty", func(h *types.Header) { h.Difficulty = big.NewInt(1) }},
		{"wrong gas limit", func(h *types.Header) { h.GasLimit = h.GasLimit - 1 }},
		{"timestamp not after parent", func(h *types.Header) { h.Time = parent.Time }},
		{"timestamp too far ahead", func(h *types.Header) {
			h.Time = uint64(time.Now().Add(params.FutureBlockTimeBound + time.Hour).Unix())
		}},
		{"extra data too long", func(h *types.Header) { h.Extra = make([]byte, params.MaximumExtraDataSize+1) }},
	}
	for _, tt := range tests {
		h := makeBlock(genesis).Header()
		tt.tamper(h)
		assert.Error(t, v.ValidateHeader(h, parent), tt.name)
	}
}

func TestValidateHeaderMaxExtraData(t *testing.T) {
	v, _ := newTestValidator(t)
	genesis := NewGenesisBlock()

	// Exactly at the bound is fine; absent extra data trivially passes.
	h := makeBlock(genesis, withExtra(make([]byte, params.MaximumExtraDataSize))).Header()
	assert.NoError(t, v.ValidateHeader(h, genesis.Header()))
}

func TestValidateHeaderPoW(t *testing.T) {
	store, err := NewBlockStore(database.NewMemDatabase())
	require.NoError(t, err)
	v := NewBlockValidator(fakePoW{fail: true}, store)

	genesis := NewGenesisBlock()
	h := makeBlock(genesis).Header()
	assert.Error(t, v.ValidateHeader(h, genesis.Header()))
}

// uncleFixture builds a short canonical chain and a valid uncle candidate:
// the uncle is a sibling of b2, its parent b1 sits three generations behind
// the including block b4.
func uncleFixture(t *testing.T) (v *BlockValidator, chain []*types.Block, uncle *types.Header) {
	v, store := newTestValidator(t)

	genesis := NewGenesisBlock()
	require.NoError(t, store.SaveBlock(genesis))

	chain = []*types.Block{genesis}
	parent := genesis
	for i := 0; i < 3; i++ {
		b := makeBlock(parent)
		require.NoError(t, store.SaveBlock(b))
		chain = append(chain, b)
		parent = b
	}

	// Sibling of b2: same parent b1, different coinbase.
	uncle = makeBlock(chain[1], withCoinbase(common.BytesToAddress([]byte("uncle")))).Header()
	return v, chain, uncle
}

func TestValidateUncles(t *testing.T) {
	v, chain, uncle := uncleFixture(t)

	b4 := makeBlock(chain[3], withUncles(uncle))
	assert.NoError(t, v.ValidateUncles(b4))
}

func TestValidateUnclesRejectsDuplicateInBlock(t *testing.T) {
	v, chain, uncle := uncleFixture(t)

	b4 := makeBlock(chain[3], withUncles(uncle, uncle))
	assert.Error(t, v.ValidateUncles(b4))
}

func TestValidateUnclesRejectsAncestor(t *testing.T) {
	v, chain, _ := uncleFixture(t)

	b4 := makeBlock(chain[3], withUncles(chain[2].Header()))
	assert.Error(t, v.ValidateUncles(b4))
}

func TestValidateUnclesRejectsAlreadyReferenced(t *testing.T) {
	v, chain, uncle := uncleFixture(t)

	// b4 references the uncle and joins the chain; b5 must not reference it
	// again.
	b4 := makeBlock(chain[3], withUncles(uncle))
	require.NoError(t, v.store.SaveBlock(b4))

	b5 := makeBlock(b4, withUncles(uncle))
	assert.Error(t, v.ValidateUncles(b5))
}

func TestValidateUnclesRejectsUnknownParent(t *testing.T) {
	v, chain, uncle := uncleFixture(t)

	stray := *uncle
	stray.ParentHash = common.BytesToHash([]byte("nowhere"))
	b4 := makeBlock(chain[3], withUncles(&stray))
	assert.Error(t, v.ValidateUncles(b4))
}

func TestValidateUnclesRejectsGapTooSmall(t *testing.T) {
	v, chain, _ := uncleFixture(t)

	// A sibling of the including block itself: parent gap 1 is below the
	// window.
	sibling := makeBlock(chain[3], withCoinbase(common.BytesToAddress([]byte("uncle")))).Header()
	b4 := makeBlock(chain[3], withUncles(sibling))
	assert.Error(t, v.ValidateUncles(b4))
}

func TestValidateUnclesRejectsGapTooLarge(t *testing.T) {
	v, store := newTestValidator(t)

	genesis := NewGenesisBlock()
	require.NoError(t, store.SaveBlock(genesis))

	parent := genesis
	var chain []*types.Block
	chain = append(chain, genesis)
	for i := 0; i < 8; i++ {
		b := makeBlock(parent)
		require.NoError(t, store.SaveBlock(b))
		chain = append(chain, b)
		parent = b
	}

	// Uncle rooted eight generations back falls outside the window.
	uncle := makeBlock(chain[0], withCoinbase(common.BytesToAddress([]byte("uncle")))).Header()
	b9 := makeBlock(chain[8], withUncles(uncle))
	assert.Error(t, v.ValidateUncles(b9))
}
