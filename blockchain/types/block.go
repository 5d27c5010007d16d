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
// This file is derived from core/types/block.go (2019/01/15).
// Modified for the ethergo development.

package types

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/crypto"
)

// Header represents a block header in the chain.
type Header struct {
	ParentHash  common.Hash
	Coinbase    common.Address
	Root        common.Hash
	Difficulty  *big.Int
	Number      uint64
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MinGasPrice *big.Int
	Nonce       uint64 // proof-of-work nonce; verified by the delegated pow engine
}

// Hash returns the keccak256 digest of the encoded header.
func (h *Header) Hash() common.Hash {
	return crypto.Keccak256Hash(h.encode())
}

func (h *Header) encode() []byte {
	e := new(encBuf)
	e.hash(h.ParentHash)
	e.address(h.Coinbase)
	e.hash(h.Root)
	e.big(h.Difficulty)
	e.uint64(h.Number)
	e.uint64(h.GasLimit)
	e.uint64(h.GasUsed)
	e.uint64(h.Time)
	e.bytes(h.Extra)
	e.big(h.MinGasPrice)
	e.uint64(h.Nonce)
	return e.b
}

func decodeHeader(d *decBuf) (*Header, error) {
	h := new(Header)
	var err error
	if h.ParentHash, err = d.hash(); err != nil {
		return nil, err
	}
	if h.Coinbase, err = d.address(); err != nil {
		return nil, err
	}
	if h.Root, err = d.hash(); err != nil {
		return nil, err
	}
	if h.Difficulty, err = d.big(); err != nil {
		return nil, err
	}
	if h.Number, err = d.uint64(); err != nil {
		return nil, err
	}
	if h.GasLimit, err = d.uint64(); err != nil {
		return nil, err
	}
	if h.GasUsed, err = d.uint64(); err != nil {
		return nil, err
	}
	if h.Time, err = d.uint64(); err != nil {
		return nil, err
	}
	if h.Extra, err = d.bytes(); err != nil {
		return nil, err
	}
	if h.MinGasPrice, err = d.big(); err != nil {
		return nil, err
	}
	if h.Nonce, err = d.uint64(); err != nil {
		return nil, err
	}
	return h, nil
}

// copyHeader creates a deep copy of a block header to prevent side effects
// from modifying a header variable.
func copyHeader(h *Header) *Header {
	cpy := *h
	if cpy.Difficulty = new(big.Int); h.Difficulty != nil {
		cpy.Difficulty.Set(h.Difficulty)
	}
	if cpy.MinGasPrice = new(big.Int); h.MinGasPrice != nil {
		cpy.MinGasPrice.Set(h.MinGasPrice)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = make([]byte, len(h.Extra))
		copy(cpy.Extra, h.Extra)
	}
	return &cpy
}

// Block represents an entire block in the chain.
type Block struct {
	header       *Header
	transactions Transactions
	uncles       []*Header

	hash atomic.Value
}

// NewBlock creates a new block from the given header, transaction list and
// uncle list. The header is copied, the other inputs are referenced directly.
func NewBlock(header *Header, txs []*Transaction, uncles []*Header) *Block {
	return &Block{
		header:       copyHeader(header),
		transactions: txs,
		uncles:       uncles,
	}
}

func (b *Block) Header() *Header             { return copyHeader(b.header) }
func (b *Block) Transactions() Transactions  { return b.transactions }
func (b *Block) Uncles() []*Header           { return b.uncles }
func (b *Block) Number() uint64              { return b.header.Number }
func (b *Block) ParentHash() common.Hash     { return b.header.ParentHash }
func (b *Block) Coinbase() common.Address    { return b.header.Coinbase }
func (b *Block) Root() common.Hash           { return b.header.Root }
func (b *Block) Difficulty() *big.Int        { return new(big.Int).Set(b.header.Difficulty) }
func (b *Block) GasLimit() uint64            { return b.header.GasLimit }
func (b *Block) GasUsed() uint64             { return b.header.GasUsed }
func (b *Block) Time() uint64                { return b.header.Time }
func (b *Block) Extra() []byte               { return b.header.Extra }
func (b *Block) MinGasPrice() *big.Int       { return new(big.Int).Set(b.header.MinGasPrice) }

// Hash returns the keccak256 hash of the block's header. The hash is computed
// on the first call and cached thereafter.
func (b *Block) Hash() common.Hash {
	if hash := b.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	v := b.header.Hash()
	b.hash.Store(v)
	return v
}

// IsGenesis reports whether the block is the unique zero-parent block of
// number zero.
func (b *Block) IsGenesis() bool {
	return b.header.Number == 0 && b.header.ParentHash == (common.Hash{})
}

func (b *Block) String() string {
	return fmt.Sprintf("Block(#%d %s txs=%d uncles=%d)", b.Number(), b.Hash().Hex(), len(b.transactions), len(b.uncles))
}

// Encode serializes the block with the store codec.
func (b *Block) Encode() []byte {
	e := new(encBuf)
	e.bytes(b.header.encode())
	e.uint64(uint64(len(b.transactions)))
	for _, tx := range b.transactions {
		e.bytes(tx.encode())
	}
	e.uint64(uint64(len(b.uncles)))
	for _, u := range b.uncles {
		e.bytes(u.encode())
	}
	return e.b
}

// DecodeBlock deserializes a block encoded with the store codec.
func DecodeBlock(data []byte) (*Block, error) {
	d := &decBuf{b: data}

	hb, err := d.bytes()
	if err != nil {
		return nil, err
	}
	header, err := decodeHeader(&decBuf{b: hb})
	if err != nil {
		return nil, err
	}

	n, err := d.uint64()
	if err != nil {
		return nil, err
	}
	txs := make(Transactions, 0, n)
	for i := uint64(0); i < n; i++ {
		tb, err := d.bytes()
		if err != nil {
			return nil, err
		}
		tx, err := decodeTx(&decBuf{b: tb})
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	n, err = d.uint64()
	if err != nil {
		return nil, err
	}
	uncles := make([]*Header, 0, n)
	for i := uint64(0); i < n; i++ {
		ub, err := d.bytes()
		if err != nil {
			return nil, err
		}
		u, err := decodeHeader(&decBuf{b: ub})
		if err != nil {
			return nil, err
		}
		uncles = append(uncles, u)
	}

	return &Block{header: header, transactions: txs, uncles: uncles}, nil
}
