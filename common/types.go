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

package common

import (
	"encoding/hex"
	"math/big"
)

const (
	// HashLength is the expected length of a digest in bytes.
	HashLength = 32
	// AddressLength is the expected length of an account address in bytes.
	AddressLength = 20
)

// Hash represents the 32 byte Keccak-256 digest of arbitrary data.
type Hash [HashLength]byte

// BytesToHash sets b to hash. If b is larger than HashLength, b will be
// cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// BigToHash converts a big integer to a hash, left padded with zeroes.
func BigToHash(b *big.Int) Hash { return BytesToHash(b.Bytes()) }

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// SetBytes sets the hash to the value of b.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

func (h Hash) getShardIndex(shardMask int) int {
	return int(uint(h[HashLength-1])|uint(h[HashLength-2])<<8) & shardMask
}

// Address represents the 20 byte address of an account.
type Address [AddressLength]byte

// BytesToAddress returns the address corresponding to b. If b is larger than
// AddressLength, b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// BigToAddress converts a big integer to an address.
func BigToAddress(b *big.Int) Address { return BytesToAddress(b.Bytes()) }

func (a Address) Bytes() []byte { return a[:] }

func (a Address) Hash() Hash { return BytesToHash(a[:]) }

func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a Address) String() string { return a.Hex() }

func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

func (a Address) getShardIndex(shardMask int) int {
	return int(uint(a[AddressLength-1])|uint(a[AddressLength-2])<<8) & shardMask
}
