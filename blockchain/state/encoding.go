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
	"encoding/binary"
	"errors"
	"math/big"
	"sort"

	"github.com/bellaj/ethergo/common"
)

// Persistence keys. Accounts and code live in separate namespaces; the
// address index records the set of live accounts so a reopen can restore the
// world map.
var (
	accountPrefix = []byte("a-")
	codePrefix    = []byte("c-")
	addrIndexKey  = []byte("state-index")
)

var errBadAccountEncoding = errors.New("state: malformed account encoding")

func accountKey(addr common.Address) []byte {
	return append(accountPrefix, addr.Bytes()...)
}

func codeKey(hash common.Hash) []byte {
	return append(codePrefix, hash.Bytes()...)
}

// encodeAccount serializes an account together with its storage, sorted by
// slot key so the encoding is deterministic. The same bytes feed both the
// database and the world-state root.
func encodeAccount(acc *Account, slots map[common.Hash]common.Hash) []byte {
	var buf []byte
	var tmp [8]byte

	binary.BigEndian.PutUint64(tmp[:], acc.Nonce)
	buf = append(buf, tmp[:]...)

	bal := acc.Balance.Bytes()
	buf = append(buf, byte(len(bal)))
	buf = append(buf, bal...)

	buf = append(buf, acc.CodeHash[:]...)

	keys := make([]common.Hash, 0, len(slots))
	for k, v := range slots {
		if v == (common.Hash{}) {
			continue // zero slots are absent slots
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})

	binary.BigEndian.PutUint64(tmp[:], uint64(len(keys)))
	buf = append(buf, tmp[:]...)
	for _, k := range keys {
		v := slots[k]
		buf = append(buf, k[:]...)
		buf = append(buf, v[:]...)
	}
	return buf
}

func decodeAccount(data []byte) (*Account, map[common.Hash]common.Hash, error) {
	if len(data) < 9 {
		return nil, nil, errBadAccountEncoding
	}
	acc := newAccount()
	acc.Nonce = binary.BigEndian.Uint64(data[:8])
	data = data[8:]

	ballen := int(data[0])
	data = data[1:]
	if len(data) < ballen {
		return nil, nil, errBadAccountEncoding
	}
	acc.Balance = new(big.Int).SetBytes(data[:ballen])
	data = data[ballen:]

	if len(data) < common.HashLength+8 {
		return nil, nil, errBadAccountEncoding
	}
	acc.CodeHash = common.BytesToHash(data[:common.HashLength])
	data = data[common.HashLength:]

	n := binary.BigEndian.Uint64(data[:8])
	data = data[8:]
	if uint64(len(data)) != n*2*common.HashLength {
		return nil, nil, errBadAccountEncoding
	}
	var slots map[common.Hash]common.Hash
	if n > 0 {
		slots = make(map[common.Hash]common.Hash, n)
		for i := uint64(0); i < n; i++ {
			k := common.BytesToHash(data[:common.HashLength])
			v := common.BytesToHash(data[common.HashLength : 2*common.HashLength])
			slots[k] = v
			data = data[2*common.HashLength:]
		}
	}
	return acc, slots, nil
}

func encodeAddressIndex(addrs []common.Address) []byte {
	buf := make([]byte, 0, len(addrs)*common.AddressLength)
	for _, addr := range addrs {
		buf = append(buf, addr[:]...)
	}
	return buf
}

func decodeAddressIndex(data []byte) ([]common.Address, error) {
	if len(data)%common.AddressLength != 0 {
		return nil, errBadAccountEncoding
	}
	addrs := make([]common.Address, 0, len(data)/common.AddressLength)
	for len(data) > 0 {
		addrs = append(addrs, common.BytesToAddress(data[:common.AddressLength]))
		data = data[common.AddressLength:]
	}
	return addrs, nil
}
