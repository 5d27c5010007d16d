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
	"errors"
	"math/big"
	"testing"

	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/blockchain/vm"
	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/storage/database"
	"github.com/stretchr/testify/require"
)

var (
	testCoinbase = common.BytesToAddress([]byte("coinbase"))
	testSender   = common.BytesToAddress([]byte("sender"))
	testReceiver = common.BytesToAddress([]byte("receiver"))
)

// fakePoW accepts every header unless told otherwise.
type fakePoW struct {
	fail bool
}

func (p fakePoW) Verify(*types.Header) bool { return !p.fail }

// fakeSigner recovers the sender from the first 20 bytes of the signature,
// standing in for the external elliptic-curve recovery.
type fakeSigner struct{}

func (fakeSigner) Sender(tx *types.Transaction) (common.Address, error) {
	sig := tx.Signature()
	if len(sig) < common.AddressLength {
		return common.Address{}, errors.New("signature missing")
	}
	return common.BytesToAddress(sig[:common.AddressLength]), nil
}

// signedBy binds the fake signature recovering to the given sender.
func signedBy(tx *types.Transaction, from common.Address) *types.Transaction {
	return tx.WithSignature(from.Bytes())
}

// fakeVM delegates to the configured play function, halting with an empty
// result by default.
type fakeVM struct {
	play func(*vm.Program) (*vm.ProgramResult, error)
}

func (f *fakeVM) Play(p *vm.Program) (*vm.ProgramResult, error) {
	if f.play == nil {
		return &vm.ProgramResult{}, nil
	}
	return f.play(p)
}

type fakeQueue struct {
	size    int
	cleared int
	closed  bool
}

func (q *fakeQueue) Size() int { return q.size }
func (q *fakeQueue) Clear()    { q.cleared++; q.size = 0 }
func (q *fakeQueue) Close()    { q.closed = true }

type fakeChannels struct {
	allSync bool
}

func (c *fakeChannels) IsAllSync() bool { return c.allSync }

type recordingListener struct {
	blocks   []*types.Block
	syncDone int
	traces   []string
}

func (l *recordingListener) OnBlock(block *types.Block) { l.blocks = append(l.blocks, block) }
func (l *recordingListener) OnSyncDone()                { l.syncDone++ }
func (l *recordingListener) Trace(msg string)           { l.traces = append(l.traces, msg) }

type fakeWallet struct {
	processed []*types.Block
	removed   []types.Transactions
}

func (w *fakeWallet) AddTransactions(txs types.Transactions)    {}
func (w *fakeWallet) RemoveTransactions(txs types.Transactions) { w.removed = append(w.removed, txs) }
func (w *fakeWallet) ProcessBlock(block *types.Block)           { w.processed = append(w.processed, block) }

func newTestRepository(t *testing.T) *state.StateDB {
	repo, err := state.NewStateDB(database.NewMemDatabase())
	require.NoError(t, err)
	return repo
}

// testEnv bundles a wired engine with handles on its fakes.
type testEnv struct {
	chain    *BlockChain
	repo     state.Repository
	store    BlockStore
	queue    *fakeQueue
	channels *fakeChannels
	listener *recordingListener
	wallet   *fakeWallet
	vm       *fakeVM
	config   *Config
}

func newTestEnv(t *testing.T) *testEnv {
	config := DefaultConfig
	repo := newTestRepository(t)
	store, err := NewBlockStore(database.NewMemDatabase())
	require.NoError(t, err)

	queue := &fakeQueue{size: 1}
	channels := &fakeChannels{}
	listener := &recordingListener{}
	wallet := &fakeWallet{}
	machine := &fakeVM{}

	factory := RepositoryFactoryFunc(func() (state.Repository, error) {
		return state.NewStateDB(database.NewMemDatabase())
	})

	chain, err := NewBlockChain(&config, repo, factory, store, queue, channels, listener, wallet,
		fakePoW{}, fakeSigner{}, machine)
	require.NoError(t, err)

	return &testEnv{
		chain:    chain,
		repo:     repo,
		store:    store,
		queue:    queue,
		channels: channels,
		listener: listener,
		wallet:   wallet,
		vm:       machine,
		config:   &config,
	}
}

type blockOpts struct {
	coinbase common.Address
	txs      []*types.Transaction
	uncles   []*types.Header
	extra    []byte
	dt       uint64
}

type blockOpt func(*blockOpts)

func withCoinbase(addr common.Address) blockOpt {
	return func(o *blockOpts) { o.coinbase = addr }
}

func withTxs(txs ...*types.Transaction) blockOpt {
	return func(o *blockOpts) { o.txs = txs }
}

func withUncles(uncles ...*types.Header) blockOpt {
	return func(o *blockOpts) { o.uncles = uncles }
}

func withExtra(extra []byte) blockOpt {
	return func(o *blockOpts) { o.extra = extra }
}

func withTimeDelta(dt uint64) blockOpt {
	return func(o *blockOpts) { o.dt = dt }
}

// makeBlock builds a block on top of parent that passes full header
// validation: expected difficulty, expected gas limit, strictly increasing
// timestamp.
func makeBlock(parent *types.Block, opts ...blockOpt) *types.Block {
	o := blockOpts{coinbase: testCoinbase, dt: 10}
	for _, opt := range opts {
		opt(&o)
	}
	return types.NewBlock(makeChildHeader(parent.Header(), o), o.txs, o.uncles)
}

func makeChildHeader(parent *types.Header, o blockOpts) *types.Header {
	time := parent.Time + o.dt
	return &types.Header{
		ParentHash:  parent.Hash(),
		Coinbase:    o.coinbase,
		Number:      parent.Number + 1,
		Time:        time,
		Difficulty:  CalcDifficulty(parent, time),
		GasLimit:    CalcGasLimit(parent),
		Extra:       o.extra,
		MinGasPrice: new(big.Int).Set(parent.MinGasPrice),
	}
}

// makeForkBlock builds a sibling block with an arbitrary difficulty; fork
// and alt-chain routing does not validate headers.
func makeForkBlock(parent *types.Block, difficulty int64, extra []byte) *types.Block {
	header := &types.Header{
		ParentHash:  parent.Hash(),
		Coinbase:    testCoinbase,
		Number:      parent.Number() + 1,
		Time:        parent.Time() + 10,
		Difficulty:  big.NewInt(difficulty),
		GasLimit:    CalcGasLimit(parent.Header()),
		Extra:       extra,
		MinGasPrice: new(big.Int).Set(parent.Header().MinGasPrice),
	}
	return types.NewBlock(header, nil, nil)
}

// makeOrphanBlock builds a block with a parent nobody knows.
func makeOrphanBlock(seed byte) *types.Block {
	header := &types.Header{
		ParentHash:  common.BytesToHash([]byte{0xde, 0xad, seed}),
		Coinbase:    testCoinbase,
		Number:      1000 + uint64(seed),
		Time:        1000,
		Difficulty:  big.NewInt(1),
		GasLimit:    CalcGasLimit(NewGenesisBlock().Header()),
		MinGasPrice: new(big.Int),
	}
	return types.NewBlock(header, nil, nil)
}

// testHeader returns a header usable for direct executor calls, without any
// consensus validation involved.
func testHeader() *types.Header {
	return &types.Header{
		Coinbase:    testCoinbase,
		Number:      1,
		Time:        10,
		Difficulty:  big.NewInt(131072),
		GasLimit:    1000000,
		MinGasPrice: new(big.Int),
	}
}
