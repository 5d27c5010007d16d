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

package state

import "encoding/json"

type dumpAccount struct {
	Nonce    uint64            `json:"nonce"`
	Balance  string            `json:"balance"`
	CodeHash string            `json:"codeHash,omitempty"`
	Storage  map[string]string `json:"storage,omitempty"`
}

type dump struct {
	Root     string                 `json:"root"`
	Accounts map[string]dumpAccount `json:"accounts"`
}

// Dump returns a JSON rendering of the world state as seen from this view,
// used by the block applier's trace output.
func (s *StateDB) Dump() []byte {
	accounts, storage := s.flatten()

	d := dump{
		Root:     s.Root().Hex(),
		Accounts: make(map[string]dumpAccount, len(accounts)),
	}
	for addr, acc := range accounts {
		da := dumpAccount{
			Nonce:   acc.Nonce,
			Balance: acc.Balance.String(),
		}
		if acc.HasCode() {
			da.CodeHash = acc.CodeHash.Hex()
		}
		if slots := storage[addr]; len(slots) > 0 {
			da.Storage = make(map[string]string, len(slots))
			for k, v := range slots {
				da.Storage[k.Hex()] = v.Hex()
			}
		}
		d.Accounts[addr.Hex()] = da
	}

	out, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		logger.Error("Failed to dump state", "err", err)
		return nil
	}
	return out
}
