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
	"encoding/binary"
	"sync"

	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/storage/database"
)

const blockCacheSize = 256

var (
	blockPrefix     = []byte("blk-")
	canonicalPrefix = []byte("num-")
)

func blockKey(hash common.Hash) []byte {
	return append(blockPrefix, hash.Bytes()...)
}

func canonicalKey(number uint64) []byte {
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], number)
	return append(canonicalPrefix, num[:]...)
}

// persistentBlockStore keeps blocks in a key-value database, indexed by hash
// and, for canonical blocks, by number. Recently touched blocks are held in
// an LRU cache.
type persistentBlockStore struct {
	mu sync.RWMutex
	db database.Database

	blockCache common.Cache

	// saved tracks every hash written during this session so Reset can also
	// drop blocks that never became canonical.
	saved []common.Hash
}

// NewBlockStore opens a block store over the given database.
func NewBlockStore(db database.Database) (BlockStore, error) {
	cache, err := common.NewCache(common.LRUConfig{CacheSize: blockCacheSize})
	if err != nil {
		return nil, err
	}
	return &persistentBlockStore{db: db, blockCache: cache}, nil
}

func (s *persistentBlockStore) GetByHash(hash common.Hash) *types.Block {
	if cached, ok := s.blockCache.Get(hash); ok {
		return cached.(*types.Block)
	}
	data, err := s.db.Get(blockKey(hash))
	if err != nil {
		return nil
	}
	block, err := types.DecodeBlock(data)
	if err != nil {
		logger.Error("Corrupted block in store", "hash", hash.Hex(), "err", err)
		return nil
	}
	s.blockCache.Add(hash, block)
	return block
}

func (s *persistentBlockStore) GetByNumber(number uint64) *types.Block {
	data, err := s.db.Get(canonicalKey(number))
	if err != nil {
		return nil
	}
	return s.GetByHash(common.BytesToHash(data))
}

// GetListOfHashesStartFrom walks backwards through parent links, returning
// at most qty hashes starting with the given one. The walk stops at genesis
// or at the first unknown block.
func (s *persistentBlockStore) GetListOfHashesStartFrom(hash common.Hash, qty int) []common.Hash {
	hashes := make([]common.Hash, 0, qty)
	for len(hashes) < qty {
		block := s.GetByHash(hash)
		if block == nil {
			break
		}
		hashes = append(hashes, hash)
		if block.IsGenesis() {
			break
		}
		hash = block.ParentHash()
	}
	return hashes
}

// SaveBlock persists the block by hash. The canonical number index only
// records blocks that extend the indexed chain, so alt-chain blocks never
// shadow a canonical slot.
func (s *persistentBlockStore) SaveBlock(block *types.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	hash := block.Hash()
	if err := batch.Put(blockKey(hash), block.Encode()); err != nil {
		return err
	}
	if s.extendsCanonical(block) {
		if err := batch.Put(canonicalKey(block.Number()), hash.Bytes()); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	s.blockCache.Add(hash, block)
	s.saved = append(s.saved, hash)
	return nil
}

func (s *persistentBlockStore) extendsCanonical(block *types.Block) bool {
	if block.IsGenesis() {
		return true
	}
	if taken, err := s.db.Get(canonicalKey(block.Number())); err == nil {
		return common.BytesToHash(taken) == block.Hash()
	}
	prev, err := s.db.Get(canonicalKey(block.Number() - 1))
	if err != nil {
		return false
	}
	return common.BytesToHash(prev) == block.ParentHash()
}

// Reset drops every stored block: the canonical index is walked from zero
// and deleted, along with every hash saved during this session.
func (s *persistentBlockStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for number := uint64(0); ; number++ {
		data, err := s.db.Get(canonicalKey(number))
		if err != nil {
			break
		}
		if err := s.db.Delete(blockKey(common.BytesToHash(data))); err != nil {
			return err
		}
		if err := s.db.Delete(canonicalKey(number)); err != nil {
			return err
		}
	}
	for _, hash := range s.saved {
		if err := s.db.Delete(blockKey(hash)); err != nil {
			return err
		}
	}
	s.saved = nil
	s.blockCache.Purge()
	return nil
}
