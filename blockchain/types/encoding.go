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

package types

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/bellaj/ethergo/common"
)

// The store codec is a deterministic length-prefixed binary encoding used for
// hashing and persistence. It is an internal format, not a wire protocol.

var errDecodeShort = errors.New("encoding: input too short")

type encBuf struct {
	b []byte
}

func (e *encBuf) uint64(v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	e.b = append(e.b, tmp[:]...)
}

func (e *encBuf) bytes(v []byte) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(v)))
	e.b = append(e.b, tmp[:n]...)
	e.b = append(e.b, v...)
}

func (e *encBuf) hash(h common.Hash) {
	e.b = append(e.b, h[:]...)
}

func (e *encBuf) address(a common.Address) {
	e.b = append(e.b, a[:]...)
}

func (e *encBuf) big(v *big.Int) {
	if v == nil {
		e.bytes(nil)
		return
	}
	e.bytes(v.Bytes())
}

func (e *encBuf) bool(v bool) {
	if v {
		e.b = append(e.b, 1)
	} else {
		e.b = append(e.b, 0)
	}
}

type decBuf struct {
	b []byte
}

func (d *decBuf) uint64() (uint64, error) {
	if len(d.b) < 8 {
		return 0, errDecodeShort
	}
	v := binary.BigEndian.Uint64(d.b[:8])
	d.b = d.b[8:]
	return v, nil
}

func (d *decBuf) bytes() ([]byte, error) {
	l, n := binary.Uvarint(d.b)
	if n <= 0 || uint64(len(d.b)-n) < l {
		return nil, errDecodeShort
	}
	v := append([]byte(nil), d.b[n:n+int(l)]...)
	d.b = d.b[n+int(l):]
	return v, nil
}

func (d *decBuf) hash() (common.Hash, error) {
	if len(d.b) < common.HashLength {
		return common.Hash{}, errDecodeShort
	}
	h := common.BytesToHash(d.b[:common.HashLength])
	d.b = d.b[common.HashLength:]
	return h, nil
}

func (d *decBuf) address() (common.Address, error) {
	if len(d.b) < common.AddressLength {
		return common.Address{}, errDecodeShort
	}
	a := common.BytesToAddress(d.b[:common.AddressLength])
	d.b = d.b[common.AddressLength:]
	return a, nil
}

func (d *decBuf) big() (*big.Int, error) {
	b, err := d.bytes()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func (d *decBuf) bool() (bool, error) {
	if len(d.b) < 1 {
		return false, errDecodeShort
	}
	v := d.b[0] != 0
	d.b = d.b[1:]
	return v, nil
}
