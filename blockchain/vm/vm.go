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

package vm

import (
	"errors"

	"github.com/bellaj/ethergo/common"
)

// ErrOutOfGas is returned by a VM when the program ran past its gas
// allowance. Every other non-nil error from Play is a runtime failure and
// reverts the tracked state.
var ErrOutOfGas = errors.New("vm: out of gas")

// Program couples the code to execute with its invocation context.
type Program struct {
	Code   []byte
	Invoke *ProgramInvoke
}

// ProgramResult is the outcome of a halted program run.
type ProgramResult struct {
	GasUsed        uint64
	Return         []byte           // hreturn bytes; init code's return becomes the contract body
	DeleteAccounts []common.Address // accounts self-destructed during the run
}

// VM executes programs against the tracked repository carried by the
// invocation context. Interpreter internals live outside the engine.
type VM interface {
	Play(program *Program) (*ProgramResult, error)
}
