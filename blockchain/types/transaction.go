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
// This file is derived from core/types/transaction.go (2019/01/15).
// Modified for the ethergo development.

package types

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/crypto"
)

// Transaction is a single signed state-transition request.
type Transaction struct {
	data txdata

	hash atomic.Value
	from atomic.Value
}

type txdata struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *common.Address // nil means contract creation
	Amount       *big.Int
	Payload      []byte
	Sig          []byte
}

// NewTransaction creates a call transaction addressed to the given recipient.
func NewTransaction(nonce uint64, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, &to, amount, gasLimit, gasPrice, data)
}

// NewContractCreation creates a transaction with no recipient, deploying the
// payload as init code.
func NewContractCreation(nonce uint64, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, nil, amount, gasLimit, gasPrice, data)
}

func newTransaction(nonce uint64, to *common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	d := txdata{
		AccountNonce: nonce,
		Recipient:    to,
		Payload:      append([]byte(nil), data...),
		Amount:       new(big.Int),
		GasLimit:     gasLimit,
		Price:        new(big.Int),
	}
	if amount != nil {
		d.Amount.Set(amount)
	}
	if gasPrice != nil {
		d.Price.Set(gasPrice)
	}
	return &Transaction{data: d}
}

func (tx *Transaction) Nonce() uint64      { return tx.data.AccountNonce }
func (tx *Transaction) GasPrice() *big.Int { return new(big.Int).Set(tx.data.Price) }
func (tx *Transaction) Gas() uint64        { return tx.data.GasLimit }
func (tx *Transaction) Value() *big.Int    { return new(big.Int).Set(tx.data.Amount) }
func (tx *Transaction) Data() []byte       { return tx.data.Payload }
func (tx *Transaction) Signature() []byte  { return tx.data.Sig }

// To returns the recipient address of the transaction, or nil for a contract
// creation.
func (tx *Transaction) To() *common.Address {
	if tx.data.Recipient == nil {
		return nil
	}
	to := *tx.data.Recipient
	return &to
}

// IsContractCreation reports whether the transaction deploys a new contract.
func (tx *Transaction) IsContractCreation() bool {
	return tx.data.Recipient == nil
}

// WithSignature attaches the given raw signature bytes to the transaction.
func (tx *Transaction) WithSignature(sig []byte) *Transaction {
	cpy := &Transaction{data: tx.data}
	cpy.data.Sig = append([]byte(nil), sig...)
	return cpy
}

// Hash returns the keccak256 digest of the encoded transaction.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := crypto.Keccak256Hash(tx.encode())
	tx.hash.Store(v)
	return v
}

func (tx *Transaction) String() string {
	if tx.IsContractCreation() {
		return fmt.Sprintf("Tx(%s create nonce=%d value=%v gas=%d)", tx.Hash().Hex(), tx.Nonce(), tx.data.Amount, tx.data.GasLimit)
	}
	return fmt.Sprintf("Tx(%s to=%s nonce=%d value=%v gas=%d)", tx.Hash().Hex(), tx.data.Recipient.Hex(), tx.Nonce(), tx.data.Amount, tx.data.GasLimit)
}

func (tx *Transaction) encode() []byte {
	e := new(encBuf)
	e.uint64(tx.data.AccountNonce)
	e.big(tx.data.Price)
	e.uint64(tx.data.GasLimit)
	e.bool(tx.data.Recipient != nil)
	if tx.data.Recipient != nil {
		e.address(*tx.data.Recipient)
	}
	e.big(tx.data.Amount)
	e.bytes(tx.data.Payload)
	e.bytes(tx.data.Sig)
	return e.b
}

func decodeTx(d *decBuf) (*Transaction, error) {
	var (
		data txdata
		err  error
	)
	if data.AccountNonce, err = d.uint64(); err != nil {
		return nil, err
	}
	if data.Price, err = d.big(); err != nil {
		return nil, err
	}
	if data.GasLimit, err = d.uint64(); err != nil {
		return nil, err
	}
	hasRecipient, err := d.bool()
	if err != nil {
		return nil, err
	}
	if hasRecipient {
		to, err := d.address()
		if err != nil {
			return nil, err
		}
		data.Recipient = &to
	}
	if data.Amount, err = d.big(); err != nil {
		return nil, err
	}
	if data.Payload, err = d.bytes(); err != nil {
		return nil, err
	}
	if data.Sig, err = d.bytes(); err != nil {
		return nil, err
	}
	return &Transaction{data: data}, nil
}

// Transactions is a Transaction slice type; it only provides counting.
type Transactions []*Transaction

func (s Transactions) Len() int { return len(s) }

// Signer recovers the sending account of a transaction from its signature.
// The concrete elliptic-curve recovery lives outside the engine.
type Signer interface {
	Sender(tx *Transaction) (common.Address, error)
}

// Sender resolves the transaction sender through the given signer, caching
// the result on the transaction.
func Sender(signer Signer, tx *Transaction) (common.Address, error) {
	if from := tx.from.Load(); from != nil {
		return from.(common.Address), nil
	}
	addr, err := signer.Sender(tx)
	if err != nil {
		return common.Address{}, err
	}
	tx.from.Store(addr)
	return addr, nil
}
