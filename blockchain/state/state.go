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
	"math/big"

	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/log"
)

var logger = log.NewModuleLogger(log.BlockchainState)

// Account is the engine-facing view of a single account: nonce, balance and
// the hash of any attached code. Storage is kept per address by the
// repository itself.
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	CodeHash common.Hash
}

func newAccount() *Account {
	return &Account{Balance: new(big.Int)}
}

func (a *Account) copy() *Account {
	return &Account{
		Nonce:    a.Nonce,
		Balance:  new(big.Int).Set(a.Balance),
		CodeHash: a.CodeHash,
	}
}

// HasCode reports whether the account is bound to program code.
func (a *Account) HasCode() bool {
	return a.CodeHash != (common.Hash{})
}

// Repository is the nested, checkpointable world-state contract the engine
// runs against. StartTracking returns a child view buffering all writes;
// Commit folds them into the parent and Rollback discards them. Reads in a
// tracked view see the view's own uncommitted writes over the parent's.
//
// Balances are unsigned: no call sequence may drive a balance negative, the
// caller has to check first.
type Repository interface {
	GetAccount(addr common.Address) *Account
	CreateAccount(addr common.Address) *Account
	AddBalance(addr common.Address, delta *big.Int)
	GetBalance(addr common.Address) *big.Int
	GetNonce(addr common.Address) uint64
	IncreaseNonce(addr common.Address)

	GetCode(addr common.Address) []byte
	SaveCode(addr common.Address, code []byte)

	GetStorage(addr common.Address, key common.Hash) common.Hash
	SetStorage(addr common.Address, key, value common.Hash)

	Delete(addr common.Address)

	// Root returns the world-state root of this view, overlays included.
	Root() common.Hash
	// Sync flushes the world state to the backing store and recomputes the
	// root. Only the outermost repository persists anything.
	Sync() error

	StartTracking() Repository
	Commit()
	Rollback()

	Close()
}
