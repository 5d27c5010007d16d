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

package blockchain

import (
	"errors"
	"fmt"

	"github.com/bellaj/ethergo/common"
)

var (
	// ErrUnknownSender is returned when the recovered sender has no account.
	ErrUnknownSender = errors.New("sender account unknown")
	// ErrNonceMismatch is returned when the transaction nonce does not equal
	// the sender account nonce.
	ErrNonceMismatch = errors.New("transaction nonce mismatch")
	// ErrInsufficientBalanceForGas is returned when the sender cannot prepay
	// the full gas allowance.
	ErrInsufficientBalanceForGas = errors.New("insufficient balance to pay for gas")
)

// ValidationError describes a block that failed a consensus check.
type ValidationError string

func ValidationErrorf(format string, v ...interface{}) ValidationError {
	return ValidationError(fmt.Sprintf(format, v...))
}

func (err ValidationError) Error() string { return string(err) }

// IsValidationError reports whether err rejects a block as invalid.
func IsValidationError(err error) bool {
	_, ok := err.(ValidationError)
	return ok
}

// KnownBlockError is returned when a block to import is already known.
type KnownBlockError struct {
	number uint64
	hash   common.Hash
}

func (e *KnownBlockError) Error() string {
	return fmt.Sprintf("block %d already known (%s)", e.number, e.hash.Hex())
}

// ParentError is returned when a block's parent is unknown.
type ParentError struct {
	hash common.Hash
}

func (e *ParentError) Error() string {
	return fmt.Sprintf("unknown parent %s", e.hash.Hex())
}

// UncleError describes an invalid uncle reference.
type UncleError struct {
	msg string
}

func UncleErrorf(format string, v ...interface{}) *UncleError {
	return &UncleError{fmt.Sprintf(format, v...)}
}

func (e *UncleError) Error() string { return e.msg }
