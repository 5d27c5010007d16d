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

// Config carries the engine's runtime switches.
type Config struct {
	// TraceStartBlock enables a full state dump to the listener for every
	// block at or past this number. -1 disables tracing.
	TraceStartBlock int64

	// BlockChainOnly disables wallet notifications.
	BlockChainOnly bool

	// PlayVM disables program execution when false; transactions then take
	// the pure-transfer path.
	PlayVM bool
}

// DefaultConfig is the configuration used when no flags override it.
var DefaultConfig = Config{
	TraceStartBlock: -1,
	BlockChainOnly:  false,
	PlayVM:          true,
}
