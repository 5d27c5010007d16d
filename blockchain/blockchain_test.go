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

	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectExtendsHead(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.chain.Genesis()

	wantTD := new(big.Int)
	parent := genesis
	for i := 0; i < 3; i++ {
		block := makeBlock(parent)
		result, err := env.chain.ConnectBlock(block)
		require.NoError(t, err)
		assert.Equal(t, Connected, result)
		wantTD.Add(wantTD, block.Difficulty())
		parent = block
	}

	// head.number equals the count of non-genesis blocks applied and the
	// total difficulty is the sum of theirs.
	assert.Equal(t, uint64(3), env.chain.CurrentBlock().Number())
	assert.Equal(t, wantTD, env.chain.TotalDifficulty())
	assert.Len(t, env.listener.blocks, 3)
	assert.Len(t, env.wallet.processed, 3)
}

func TestConnectIgnoresDuplicate(t *testing.T) {
	env := newTestEnv(t)

	block := makeBlock(env.chain.Genesis())
	_, err := env.chain.ConnectBlock(block)
	require.NoError(t, err)

	result, err := env.chain.ConnectBlock(block)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, result)
	assert.Equal(t, uint64(1), env.chain.CurrentBlock().Number())
}

func TestConnectRejectsInvalidBlock(t *testing.T) {
	env := newTestEnv(t)
	head := env.chain.CurrentBlock()
	root := env.chain.Repository().Root()

	bad := makeBlock(env.chain.Genesis(), withExtra(make([]byte, params.MaximumExtraDataSize+1)))
	result, err := env.chain.ConnectBlock(bad)

	assert.Equal(t, Rejected, result)
	assert.Error(t, err)
	assert.Equal(t, head.Hash(), env.chain.CurrentBlock().Hash())
	assert.Equal(t, root, env.chain.Repository().Root())
}

// TestConnectOrphanDoesNotMutate pins the invariant that a block with an
// unknown parent never touches head or repository.
func TestConnectOrphanDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	head := env.chain.CurrentBlock()
	root := env.chain.Repository().Root()

	result, err := env.chain.ConnectBlock(makeOrphanBlock(1))
	require.NoError(t, err)
	assert.Equal(t, Orphaned, result)
	assert.Equal(t, head.Hash(), env.chain.CurrentBlock().Hash())
	assert.Equal(t, root, env.chain.Repository().Root())
	assert.Equal(t, 1, env.chain.GarbageSize())
}

// TestConnectFork covers scenario S4: a competing block with a known parent
// opens an alt chain and leaves the head alone.
func TestConnectFork(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.chain.Genesis()

	b1 := makeBlock(genesis)
	_, err := env.chain.ConnectBlock(b1)
	require.NoError(t, err)
	head := env.chain.CurrentBlock()

	// Sibling of b1 with a modest difficulty lead: no reorg signal.
	fork := makeForkBlock(genesis, 3000, []byte("fork"))
	result, err := env.chain.ConnectBlock(fork)
	require.NoError(t, err)
	assert.Equal(t, Forked, result)
	assert.Equal(t, head.Hash(), env.chain.CurrentBlock().Hash())
	assert.Equal(t, 1, env.chain.AltChainCount())

	select {
	case ev := <-env.chain.ReorgEvents():
		t.Fatalf("unexpected reorg event: %+v", ev)
	default:
	}
}

// TestConnectReorgThreshold covers scenario S5: once the alt chain's total
// difficulty leads by more than the threshold, exactly one reorg event
// fires.
func TestConnectReorgThreshold(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.chain.Genesis()

	b1 := makeBlock(genesis)
	_, err := env.chain.ConnectBlock(b1)
	require.NoError(t, err)

	fork := makeForkBlock(genesis, 3000, []byte("fork"))
	result, err := env.chain.ConnectBlock(fork)
	require.NoError(t, err)
	require.Equal(t, Forked, result)

	// The extension pushes the alt lead past the threshold.
	fork2 := makeForkBlock(fork, 3000, []byte("fork"))
	result, err = env.chain.ConnectBlock(fork2)
	require.NoError(t, err)
	assert.Equal(t, AltExtended, result)

	select {
	case ev := <-env.chain.ReorgEvents():
		assert.Equal(t, fork2.Hash(), ev.TipHash)
	default:
		t.Fatal("expected a reorg event")
	}

	// Growing the same alt chain further must not signal again.
	fork3 := makeForkBlock(fork2, 3000, []byte("fork"))
	result, err = env.chain.ConnectBlock(fork3)
	require.NoError(t, err)
	assert.Equal(t, AltExtended, result)

	select {
	case ev := <-env.chain.ReorgEvents():
		t.Fatalf("reorg signalled twice: %+v", ev)
	default:
	}
}

// TestConnectOrphanFlood covers scenario S6: the 21st orphan triggers the
// destructive resync.
func TestConnectOrphanFlood(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.chain.Genesis()

	// Build some canonical state first so the reset is observable.
	b1 := makeBlock(genesis)
	_, err := env.chain.ConnectBlock(b1)
	require.NoError(t, err)
	repoBefore := env.chain.Repository()

	for i := 0; i < params.GarbageLimit; i++ {
		result, err := env.chain.ConnectBlock(makeOrphanBlock(byte(i)))
		require.NoError(t, err)
		require.Equal(t, Orphaned, result)
	}
	assert.Equal(t, params.GarbageLimit, env.chain.GarbageSize())

	result, err := env.chain.ConnectBlock(makeOrphanBlock(200))
	require.NoError(t, err)
	assert.Equal(t, Resynced, result)

	assert.Equal(t, genesis.Hash(), env.chain.CurrentBlock().Hash())
	assert.Equal(t, 0, env.chain.TotalDifficulty().Sign())
	assert.Equal(t, 0, env.chain.GarbageSize())
	assert.Equal(t, 0, env.chain.AltChainCount())
	assert.Equal(t, 1, env.queue.cleared)
	// The repository was closed and reopened empty.
	assert.NotEqual(t, repoBefore, env.chain.Repository())

	// The chain accepts the old lineage again after the reset.
	result, err = env.chain.ConnectBlock(b1)
	require.NoError(t, err)
	assert.Equal(t, Connected, result)
}

func TestSyncDoneFiresOnce(t *testing.T) {
	env := newTestEnv(t)
	env.channels.allSync = true
	env.queue.size = 0

	_, err := env.chain.ConnectBlock(makeBlock(env.chain.Genesis()))
	require.NoError(t, err)
	assert.Equal(t, 1, env.listener.syncDone)

	_, err = env.chain.ConnectBlock(makeBlock(env.chain.CurrentBlock()))
	require.NoError(t, err)
	assert.Equal(t, 1, env.listener.syncDone, "sync-done must be one-shot")
}

func TestBlockChainOnlySkipsWallet(t *testing.T) {
	env := newTestEnv(t)
	env.config.BlockChainOnly = true

	_, err := env.chain.ConnectBlock(makeBlock(env.chain.Genesis()))
	require.NoError(t, err)
	assert.Empty(t, env.wallet.processed)
}

func TestRecoverHead(t *testing.T) {
	env := newTestEnv(t)
	genesis := env.chain.Genesis()

	parent := genesis
	wantTD := new(big.Int)
	for i := 0; i < 4; i++ {
		block := makeBlock(parent)
		_, err := env.chain.ConnectBlock(block)
		require.NoError(t, err)
		wantTD.Add(wantTD, block.Difficulty())
		parent = block
	}

	// A fresh engine over the same store resumes at the persisted head.
	chain2, err := NewBlockChain(env.config, newTestRepository(t), nil, env.store,
		nil, nil, nil, nil, fakePoW{}, fakeSigner{}, &fakeVM{})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), chain2.CurrentBlock().Number())
	assert.Equal(t, wantTD, chain2.TotalDifficulty())
}

func TestConnectTransferBlockEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.repo.AddBalance(testSender, big.NewInt(100000))
	require.NoError(t, env.repo.Sync())

	tx := signedBy(types.NewTransaction(0, testReceiver, big.NewInt(100), 21000, big.NewInt(1), nil), testSender)
	block := makeBlock(env.chain.Genesis(), withTxs(tx))

	result, err := env.chain.ConnectBlock(block)
	require.NoError(t, err)
	assert.Equal(t, Connected, result)

	repo := env.chain.Repository()
	assert.Equal(t, big.NewInt(78900), repo.GetBalance(testSender))
	assert.Equal(t, big.NewInt(100), repo.GetBalance(testReceiver))
	assert.Len(t, env.wallet.removed, 1)
}
