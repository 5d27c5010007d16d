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

package log

// ModuleID identifies the subsystem a logger belongs to. Every package
// creates its own logger with NewModuleLogger so log lines can be filtered
// per subsystem.
type ModuleID int

const (
	Base ModuleID = iota
	Blockchain
	BlockchainState
	BlockchainTypes
	BlockchainVM
	StorageDatabase
	Common
	Crypto
	CMD
	CmdUtils

	moduleIDSize
)

var moduleNames = [moduleIDSize]string{
	"base",
	"blockchain",
	"blockchain/state",
	"blockchain/types",
	"blockchain/vm",
	"storage/database",
	"common",
	"crypto",
	"cmd",
	"cmd/utils",
}

func (mi ModuleID) String() string {
	if mi < 0 || mi >= moduleIDSize {
		return "unknown"
	}
	return moduleNames[mi]
}
