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
	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/common"
)

// The interfaces in this file are the engine's boundaries to its external
// collaborators. Their implementations live with the network stack, the
// wallet and the node wiring; the engine only consumes them.

// BlockStore is the persistent index of blocks by hash and number.
type BlockStore interface {
	GetByHash(hash common.Hash) *types.Block
	GetByNumber(number uint64) *types.Block
	// GetListOfHashesStartFrom walks backwards from the given hash,
	// returning at most qty hashes including the starting one.
	GetListOfHashesStartFrom(hash common.Hash, qty int) []common.Hash
	SaveBlock(block *types.Block) error
	Reset() error
}

// BlockQueue is the consumer-side view of the peer download queue.
type BlockQueue interface {
	Size() int
	Clear()
	Close()
}

// ChannelManager answers whether every peer channel has finished syncing.
type ChannelManager interface {
	IsAllSync() bool
}

// Listener receives fire-and-forget engine notifications.
type Listener interface {
	OnBlock(block *types.Block)
	OnSyncDone()
	Trace(msg string)
}

// NopListener discards every notification.
type NopListener struct{}

func (NopListener) OnBlock(*types.Block) {}
func (NopListener) OnSyncDone()          {}
func (NopListener) Trace(string)         {}

// Wallet is notified about applied blocks so it can drop mined transactions.
// It is only consulted when the engine is not running blockchain-only.
type Wallet interface {
	AddTransactions(txs types.Transactions)
	RemoveTransactions(txs types.Transactions)
	ProcessBlock(block *types.Block)
}

// PoW verifies the proof-of-work of a header. The search side is out of the
// engine's scope.
type PoW interface {
	Verify(header *types.Header) bool
}

// RepositoryFactory reopens the world-state repository after a destructive
// resync.
type RepositoryFactory interface {
	OpenRepository() (state.Repository, error)
}

// RepositoryFactoryFunc adapts a plain function to a RepositoryFactory.
type RepositoryFactoryFunc func() (state.Repository, error)

func (f RepositoryFactoryFunc) OpenRepository() (state.Repository, error) { return f() }
