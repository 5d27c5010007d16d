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
	"sync"
	"time"

	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/blockchain/vm"
	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/log"
	"github.com/bellaj/ethergo/params"
	metrics "github.com/rcrowley/go-metrics"
)

var logger = log.NewModuleLogger(log.Blockchain)

var (
	blockInsertTimer = metrics.GetOrRegisterTimer("chain/inserts", nil)
	orphanBlockMeter = metrics.GetOrRegisterMeter("chain/orphans", nil)
	reorgSignalMeter = metrics.GetOrRegisterMeter("chain/reorgs", nil)
	resyncCounter    = metrics.GetOrRegisterCounter("chain/resyncs", nil)
)

// ConnectResult reports where the connector routed an incoming block.
type ConnectResult int

const (
	Connected ConnectResult = iota // extended the canonical head
	Duplicate                      // already known, ignored
	Forked                         // opened a new alt chain
	AltExtended                    // extended an existing alt chain
	Orphaned                       // parked in the garbage buffer
	Resynced                       // orphan flood triggered a destructive resync
	Rejected                       // failed validation or application
)

func (r ConnectResult) String() string {
	switch r {
	case Connected:
		return "connected"
	case Duplicate:
		return "duplicate"
	case Forked:
		return "forked"
	case AltExtended:
		return "alt-extended"
	case Orphaned:
		return "orphaned"
	case Resynced:
		return "resynced"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ReorgEvent signals that an alt chain outweighs the canonical chain by more
// than the reorg threshold. The replay itself happens outside the engine.
type ReorgEvent struct {
	TipHash         common.Hash
	TotalDifficulty *big.Int
	CanonicalTD     *big.Int
}

// altChain is a tentative lineage rooted at a known block. It is keyed by
// its tip hash for O(1) extension lookup and carries its own accumulated
// difficulty.
type altChain struct {
	td        *big.Int
	signalled bool
}

// BlockChain routes incoming blocks to the canonical chain, to alt chains or
// to the garbage buffer, and advances the head. Block application is a
// serial critical section; the single writer advancing the head is this
// struct under its mutex.
type BlockChain struct {
	mu sync.Mutex

	config      *Config
	repo        state.Repository
	repoFactory RepositoryFactory
	store       BlockStore
	queue       BlockQueue
	channels    ChannelManager
	listener    Listener
	wallet      Wallet
	processor   *BlockProcessor

	genesis         *types.Block
	bestBlock       *types.Block
	totalDifficulty *big.Int

	altChains map[common.Hash]*altChain
	garbage   []*types.Block

	reorgCh  chan ReorgEvent
	syncDone bool
}

// NewBlockChain wires the engine from its collaborators and recovers the
// head from the block store, writing the genesis block on first start.
func NewBlockChain(config *Config, repo state.Repository, repoFactory RepositoryFactory, store BlockStore,
	queue BlockQueue, channels ChannelManager, listener Listener, wallet Wallet,
	pow PoW, signer types.Signer, machine vm.VM) (*BlockChain, error) {

	if listener == nil {
		listener = NopListener{}
	}
	validator := NewBlockValidator(pow, store)

	bc := &BlockChain{
		config:          config,
		repo:            repo,
		repoFactory:     repoFactory,
		store:           store,
		queue:           queue,
		channels:        channels,
		listener:        listener,
		wallet:          wallet,
		processor:       NewBlockProcessor(config, validator, signer, machine, listener),
		genesis:         NewGenesisBlock(),
		totalDifficulty: new(big.Int),
		altChains:       make(map[common.Hash]*altChain),
		reorgCh:         make(chan ReorgEvent, 8),
	}

	if store.GetByHash(bc.genesis.Hash()) == nil {
		if err := store.SaveBlock(bc.genesis); err != nil {
			return nil, err
		}
	}
	bc.recoverHead()

	logger.Info("Chain initialised", "head", bc.bestBlock.Number(), "td", bc.totalDifficulty)
	return bc, nil
}

// recoverHead walks the canonical index forward from genesis, rebuilding the
// head pointer and the running total difficulty.
func (bc *BlockChain) recoverHead() {
	head := bc.genesis
	td := new(big.Int)
	for {
		next := bc.store.GetByNumber(head.Number() + 1)
		if next == nil {
			break
		}
		head = next
		td.Add(td, next.Difficulty())
	}
	bc.bestBlock = head
	bc.totalDifficulty = td
}

// ConnectBlock routes an incoming block. The decision ladder follows the
// connector state machine: duplicate, head extension, alt-chain extension,
// new fork, orphan.
func (bc *BlockChain) ConnectBlock(block *types.Block) (ConnectResult, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	defer bc.checkSyncDone()

	if bc.store.GetByHash(block.Hash()) != nil {
		logger.Debug("Ignoring known block", "number", block.Number(), "hash", block.Hash().Hex())
		return Duplicate, nil
	}

	// Head extension is the hot path.
	if block.ParentHash() == bc.bestBlock.Hash() {
		start := time.Now()
		if err := bc.applyBlock(block); err != nil {
			logger.Error("Invalid block rejected", "number", block.Number(), "hash", block.Hash().Hex(), "err", err)
			return Rejected, err
		}
		blockInsertTimer.UpdateSince(start)
		return Connected, nil
	}

	// An existing alt chain whose tip is the block's parent accepts it.
	if alt, ok := bc.altChains[block.ParentHash()]; ok {
		delete(bc.altChains, block.ParentHash())
		alt.td.Add(alt.td, block.Difficulty())
		bc.altChains[block.Hash()] = alt
		if err := bc.store.SaveBlock(block); err != nil {
			return Rejected, err
		}
		bc.maybeSignalReorg(block.Hash(), alt)
		return AltExtended, nil
	}

	// A known parent that is not the head roots a new alt chain carrying
	// the canonical total difficulty.
	if parent := bc.store.GetByHash(block.ParentHash()); parent != nil && bc.bestBlock.Number() <= block.Number() {
		alt := &altChain{td: new(big.Int).Add(bc.totalDifficulty, block.Difficulty())}
		bc.altChains[block.Hash()] = alt
		if err := bc.store.SaveBlock(block); err != nil {
			return Rejected, err
		}
		logger.Info("Fork detected", "number", block.Number(), "hash", block.Hash().Hex())
		bc.maybeSignalReorg(block.Hash(), alt)
		return Forked, nil
	}

	// Anything else (an unknown parent, or a known parent with the block
	// below the head's height) is parked in the garbage buffer; a flood
	// triggers a resync.
	orphanBlockMeter.Mark(1)
	bc.garbage = append(bc.garbage, block)
	logger.Debug("Orphan block buffered", "number", block.Number(), "hash", block.Hash().Hex(), "buffered", len(bc.garbage))
	if len(bc.garbage) > params.GarbageLimit {
		if err := bc.resync(); err != nil {
			return Rejected, err
		}
		return Resynced, nil
	}
	return Orphaned, nil
}

// applyBlock runs the block through the processor and advances the head.
// The head update is observable only after the block is persisted and the
// repository sync completed inside Process.
func (bc *BlockChain) applyBlock(block *types.Block) error {
	totalGasUsed, err := bc.processor.Process(bc.repo, block, bc.bestBlock.Header())
	if err != nil {
		return err
	}
	if err := bc.store.SaveBlock(block); err != nil {
		return err
	}

	bc.totalDifficulty.Add(bc.totalDifficulty, block.Difficulty())
	bc.bestBlock = block
	logger.Info("Imported new block", "number", block.Number(), "hash", block.Hash().Hex(),
		"txs", len(block.Transactions()), "gas", totalGasUsed, "td", bc.totalDifficulty)

	bc.listener.OnBlock(block)
	if !bc.config.BlockChainOnly && bc.wallet != nil {
		bc.wallet.ProcessBlock(block)
		bc.wallet.RemoveTransactions(block.Transactions())
	}
	return nil
}

// maybeSignalReorg emits a single reorg event once the alt chain outweighs
// the canonical chain by more than the threshold.
func (bc *BlockChain) maybeSignalReorg(tip common.Hash, alt *altChain) {
	if alt.signalled {
		return
	}
	lead := new(big.Int).Sub(alt.td, bc.totalDifficulty)
	if lead.Cmp(new(big.Int).SetUint64(params.ReorgThreshold)) <= 0 {
		return
	}
	alt.signalled = true
	reorgSignalMeter.Mark(1)
	logger.Warn("Alt chain outweighs canonical chain, reorg required",
		"tip", tip.Hex(), "altTD", alt.td, "td", bc.totalDifficulty)

	select {
	case bc.reorgCh <- ReorgEvent{TipHash: tip, TotalDifficulty: new(big.Int).Set(alt.td), CanonicalTD: new(big.Int).Set(bc.totalDifficulty)}:
	default:
		logger.Warn("Reorg event channel full, dropping event", "tip", tip.Hex())
	}
}

// resync destructively resets the engine after an orphan flood: the download
// queue is cleared, the head drops back to genesis, the repository is closed
// and reopened, and all tentative state is discarded.
func (bc *BlockChain) resync() error {
	logger.Warn("Orphan flood, resyncing chain", "orphans", len(bc.garbage))
	resyncCounter.Inc(1)

	if bc.queue != nil {
		bc.queue.Clear()
	}
	bc.garbage = nil
	bc.altChains = make(map[common.Hash]*altChain)
	bc.totalDifficulty = new(big.Int)

	bc.repo.Close()
	repo, err := bc.repoFactory.OpenRepository()
	if err != nil {
		return err
	}
	bc.repo = repo

	if err := bc.store.Reset(); err != nil {
		return err
	}
	if err := bc.store.SaveBlock(bc.genesis); err != nil {
		return err
	}
	bc.bestBlock = bc.genesis
	bc.syncDone = false
	return nil
}

// checkSyncDone fires the one-shot sync-done notification once the download
// queue drained and every peer channel reports in sync.
func (bc *BlockChain) checkSyncDone() {
	if bc.syncDone || bc.queue == nil || bc.channels == nil {
		return
	}
	if bc.queue.Size() == 0 && bc.channels.IsAllSync() {
		bc.syncDone = true
		bc.listener.OnSyncDone()
	}
}

// CurrentBlock returns the canonical head.
func (bc *BlockChain) CurrentBlock() *types.Block {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.bestBlock
}

// TotalDifficulty returns the accumulated difficulty of the canonical chain.
func (bc *BlockChain) TotalDifficulty() *big.Int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return new(big.Int).Set(bc.totalDifficulty)
}

// Genesis returns the genesis block.
func (bc *BlockChain) Genesis() *types.Block {
	return bc.genesis
}

// Repository returns the repository currently backing the chain. It changes
// identity after a resync.
func (bc *BlockChain) Repository() state.Repository {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.repo
}

// GarbageSize returns the number of buffered orphan blocks.
func (bc *BlockChain) GarbageSize() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.garbage)
}

// AltChainCount returns the number of tracked alt chains.
func (bc *BlockChain) AltChainCount() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.altChains)
}

// ReorgEvents exposes the reorg signal channel.
func (bc *BlockChain) ReorgEvents() <-chan ReorgEvent {
	return bc.reorgCh
}

// Stop shuts the engine down, closing the repository and the queue.
func (bc *BlockChain) Stop() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.queue != nil {
		bc.queue.Close()
	}
	bc.repo.Close()
	logger.Info("Chain stopped", "head", bc.bestBlock.Number())
}
