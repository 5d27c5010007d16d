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

package state

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/crypto"
	"github.com/bellaj/ethergo/storage/database"
)

// StateDB implements Repository as a stack of overlay write-buffers. The
// outermost StateDB owns the backing database and holds the full world map;
// each StartTracking call pushes a child whose maps buffer writes until
// Commit folds them down or Rollback drops them.
type StateDB struct {
	db     database.Database // only set on the outermost view
	parent *StateDB          // nil on the outermost view

	accounts map[common.Address]*Account
	storage  map[common.Address]map[common.Hash]common.Hash
	code     map[common.Hash][]byte
	deleted  map[common.Address]bool
}

// NewStateDB opens a repository over the given database, loading any world
// state a previous Sync persisted.
func NewStateDB(db database.Database) (*StateDB, error) {
	sdb := &StateDB{
		db:       db,
		accounts: make(map[common.Address]*Account),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		code:     make(map[common.Hash][]byte),
		deleted:  make(map[common.Address]bool),
	}
	if err := sdb.load(); err != nil {
		return nil, err
	}
	return sdb, nil
}

func (s *StateDB) lookupAccount(addr common.Address) *Account {
	for v := s; v != nil; v = v.parent {
		if v.deleted[addr] {
			return nil
		}
		if acc, ok := v.accounts[addr]; ok {
			return acc
		}
	}
	return nil
}

// GetAccount returns a copy of the account, or nil if it does not exist in
// this view. Mutations must go through the repository operations.
func (s *StateDB) GetAccount(addr common.Address) *Account {
	if acc := s.lookupAccount(addr); acc != nil {
		return acc.copy()
	}
	return nil
}

// CreateAccount creates a fresh account, replacing any existing one.
func (s *StateDB) CreateAccount(addr common.Address) *Account {
	acc := newAccount()
	s.accounts[addr] = acc
	delete(s.deleted, addr)
	return acc.copy()
}

// getOrClone fetches the account into this view's own overlay so it can be
// written, creating it if the view has never seen the address.
func (s *StateDB) getOrClone(addr common.Address) *Account {
	if s.deleted[addr] {
		acc := newAccount()
		s.accounts[addr] = acc
		delete(s.deleted, addr)
		return acc
	}
	if acc, ok := s.accounts[addr]; ok {
		return acc
	}
	var acc *Account
	if found := s.parentLookup(addr); found != nil {
		acc = found.copy()
	} else {
		acc = newAccount()
	}
	s.accounts[addr] = acc
	return acc
}

func (s *StateDB) parentLookup(addr common.Address) *Account {
	if s.parent == nil {
		return nil
	}
	return s.parent.lookupAccount(addr)
}

// AddBalance adds delta to the account's balance, creating the account on a
// first credit. Delta may be negative, but the caller is responsible for
// never driving the balance below zero.
func (s *StateDB) AddBalance(addr common.Address, delta *big.Int) {
	acc := s.getOrClone(addr)
	acc.Balance.Add(acc.Balance, delta)
	if acc.Balance.Sign() < 0 {
		logger.Error("Account balance went negative", "addr", addr, "balance", acc.Balance)
	}
}

func (s *StateDB) GetBalance(addr common.Address) *big.Int {
	if acc := s.lookupAccount(addr); acc != nil {
		return new(big.Int).Set(acc.Balance)
	}
	return new(big.Int)
}

func (s *StateDB) GetNonce(addr common.Address) uint64 {
	if acc := s.lookupAccount(addr); acc != nil {
		return acc.Nonce
	}
	return 0
}

// IncreaseNonce bumps the account nonce by one.
func (s *StateDB) IncreaseNonce(addr common.Address) {
	s.getOrClone(addr).Nonce++
}

// GetCode returns the code bound to the account, nil if the account has none.
func (s *StateDB) GetCode(addr common.Address) []byte {
	acc := s.lookupAccount(addr)
	if acc == nil || !acc.HasCode() {
		return nil
	}
	for v := s; v != nil; v = v.parent {
		if code, ok := v.code[acc.CodeHash]; ok {
			return code
		}
	}
	if root := s.outermost(); root.db != nil {
		if code, err := root.db.Get(codeKey(acc.CodeHash)); err == nil {
			return code
		}
	}
	return nil
}

// SaveCode stores the code under its hash and binds the account to it.
func (s *StateDB) SaveCode(addr common.Address, code []byte) {
	hash := crypto.Keccak256Hash(code)
	s.code[hash] = append([]byte(nil), code...)
	s.getOrClone(addr).CodeHash = hash
}

func (s *StateDB) GetStorage(addr common.Address, key common.Hash) common.Hash {
	for v := s; v != nil; v = v.parent {
		if v.deleted[addr] {
			return common.Hash{}
		}
		if slots, ok := v.storage[addr]; ok {
			if val, ok := slots[key]; ok {
				return val
			}
		}
	}
	return common.Hash{}
}

func (s *StateDB) SetStorage(addr common.Address, key, value common.Hash) {
	slots, ok := s.storage[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.storage[addr] = slots
	}
	slots[key] = value
}

// Delete removes the account and its storage from this view.
func (s *StateDB) Delete(addr common.Address) {
	delete(s.accounts, addr)
	delete(s.storage, addr)
	s.deleted[addr] = true
}

// StartTracking pushes a child view buffering all writes until Commit or
// Rollback.
func (s *StateDB) StartTracking() Repository {
	return &StateDB{
		parent:   s,
		accounts: make(map[common.Address]*Account),
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		code:     make(map[common.Hash][]byte),
		deleted:  make(map[common.Address]bool),
	}
}

// Commit folds this view's writes into its parent. Committing the outermost
// view is a no-op; persistence happens through Sync.
func (s *StateDB) Commit() {
	if s.parent == nil {
		return
	}
	p := s.parent
	for addr := range s.deleted {
		p.Delete(addr)
	}
	for addr, acc := range s.accounts {
		delete(p.deleted, addr)
		p.accounts[addr] = acc
	}
	for addr, slots := range s.storage {
		pslots, ok := p.storage[addr]
		if !ok {
			pslots = make(map[common.Hash]common.Hash)
			p.storage[addr] = pslots
		}
		for k, v := range slots {
			pslots[k] = v
		}
	}
	for hash, code := range s.code {
		p.code[hash] = code
	}
	s.Rollback()
}

// Rollback discards every buffered write of this view.
func (s *StateDB) Rollback() {
	s.accounts = make(map[common.Address]*Account)
	s.storage = make(map[common.Address]map[common.Hash]common.Hash)
	s.code = make(map[common.Hash][]byte)
	s.deleted = make(map[common.Address]bool)
}

// flatten resolves the world state as seen from this view: every live
// account with its effective storage.
func (s *StateDB) flatten() (map[common.Address]*Account, map[common.Address]map[common.Hash]common.Hash) {
	accounts := make(map[common.Address]*Account)
	storage := make(map[common.Address]map[common.Hash]common.Hash)

	var views []*StateDB
	for v := s; v != nil; v = v.parent {
		views = append(views, v)
	}
	// Apply outermost first so inner overlays win.
	for i := len(views) - 1; i >= 0; i-- {
		v := views[i]
		for addr := range v.deleted {
			delete(accounts, addr)
			delete(storage, addr)
		}
		for addr, acc := range v.accounts {
			accounts[addr] = acc
		}
		for addr, slots := range v.storage {
			dst, ok := storage[addr]
			if !ok {
				dst = make(map[common.Hash]common.Hash)
				storage[addr] = dst
			}
			for k, val := range slots {
				dst[k] = val
			}
		}
	}
	// Storage of deleted-then-absent accounts must not linger.
	for addr := range storage {
		if _, ok := accounts[addr]; !ok {
			delete(storage, addr)
		}
	}
	return accounts, storage
}

// Root computes the deterministic world-state root of this view: the
// keccak256 digest of the sorted account snapshot.
func (s *StateDB) Root() common.Hash {
	accounts, storage := s.flatten()

	addrs := make([]common.Address, 0, len(accounts))
	for addr := range accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	var buf []byte
	for _, addr := range addrs {
		buf = append(buf, addr[:]...)
		buf = append(buf, encodeAccount(accounts[addr], storage[addr])...)
	}
	return crypto.Keccak256Hash(buf)
}

// Sync flushes the world state of the outermost view to the database. Calling
// Sync on a tracked child does nothing; Root always computes the root on
// demand.
func (s *StateDB) Sync() error {
	if s.parent != nil {
		return nil
	}
	if s.db == nil {
		return nil
	}

	batch := s.db.NewBatch()

	addrs := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	for _, addr := range addrs {
		if err := batch.Put(accountKey(addr), encodeAccount(s.accounts[addr], s.storage[addr])); err != nil {
			return err
		}
	}
	for hash, code := range s.code {
		if err := batch.Put(codeKey(hash), code); err != nil {
			return err
		}
	}
	if err := batch.Put(addrIndexKey, encodeAddressIndex(addrs)); err != nil {
		return err
	}
	return batch.Write()
}

// load restores the persisted world state written by a previous Sync.
func (s *StateDB) load() error {
	data, err := s.db.Get(addrIndexKey)
	if err != nil {
		// Fresh database, nothing persisted yet.
		return nil
	}
	addrs, err := decodeAddressIndex(data)
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		enc, err := s.db.Get(accountKey(addr))
		if err != nil {
			return err
		}
		acc, slots, err := decodeAccount(enc)
		if err != nil {
			return err
		}
		s.accounts[addr] = acc
		if len(slots) > 0 {
			s.storage[addr] = slots
		}
	}
	return nil
}

func (s *StateDB) outermost() *StateDB {
	v := s
	for v.parent != nil {
		v = v.parent
	}
	return v
}

// Close releases the backing database. Tracked children are simply dropped.
func (s *StateDB) Close() {
	if s.parent != nil {
		s.Rollback()
		return
	}
	if s.db != nil {
		s.db.Close()
	}
}
