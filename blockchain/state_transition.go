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
// This file is derived from core/state_transition.go (2019/01/15).
// Modified for the ethergo development.

package blockchain

import (
	"math/big"

	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/blockchain/vm"
	"github.com/bellaj/ethergo/common"
	"github.com/bellaj/ethergo/crypto"
	"github.com/bellaj/ethergo/params"
)

/*
The state transitioning model

A state transition is the change made to the world state when a transaction
is applied:

1) Nonce handling
2) Pre-pay gas to the block coinbase
3) Value transfer, or a tracked view for contract creation
4) Run the program against the tracked view
  4a) For a creation, use the program's return as the new contract's code
5) Fold the tracked view down, refund unused gas
*/
type StateTransition struct {
	config *Config
	signer types.Signer
	vm     vm.VM

	repo   state.Repository
	header *types.Header
	tx     *types.Transaction

	gasPrice *big.Int
	gasDebit *big.Int
}

// NewStateTransition initialises and returns a new state transition object.
func NewStateTransition(config *Config, signer types.Signer, machine vm.VM, repo state.Repository, header *types.Header, tx *types.Transaction) *StateTransition {
	return &StateTransition{
		config:   config,
		signer:   signer,
		vm:       machine,
		repo:     repo,
		header:   header,
		tx:       tx,
		gasPrice: tx.GasPrice(),
	}
}

// ApplyTransaction runs the given transaction against the repository within
// the environment of the given block header and returns the gas it used.
//
// A non-nil error reports a transaction that consumed no gas (unknown
// sender, nonce mismatch, unaffordable gas allowance). Program-level
// failures are not errors: they consume gas and the enclosing block
// continues with its next transaction.
func ApplyTransaction(config *Config, signer types.Signer, machine vm.VM, repo state.Repository, header *types.Header, tx *types.Transaction) (uint64, error) {
	return NewStateTransition(config, signer, machine, repo, header, tx).TransitionDb()
}

// TransitionDb performs the transition.
func (st *StateTransition) TransitionDb() (uint64, error) {
	sender, err := types.Sender(st.signer, st.tx)
	if err != nil {
		return 0, ErrUnknownSender
	}
	acc := st.repo.GetAccount(sender)
	if acc == nil {
		return 0, ErrUnknownSender
	}
	if acc.Nonce != st.tx.Nonce() {
		logger.Debug("Invalid nonce", "tx", st.tx.Hash(), "have", st.tx.Nonce(), "want", acc.Nonce)
		return 0, ErrNonceMismatch
	}

	// From here on the sender's nonce bump survives every failure path.
	st.repo.IncreaseNonce(sender)

	// The full gas allowance is paid to the coinbase up front; unused gas
	// comes back as a refund. The affordability check runs before any value
	// movement so a failure here leaves nothing but the nonce bump.
	st.gasDebit = new(big.Int).Mul(new(big.Int).SetUint64(st.tx.Gas()), st.gasPrice)
	if st.repo.GetBalance(sender).Cmp(st.gasDebit) < 0 {
		return 0, ErrInsufficientBalanceForGas
	}
	st.repo.AddBalance(sender, new(big.Int).Neg(st.gasDebit))
	st.repo.AddBalance(st.header.Coinbase, st.gasDebit)

	var (
		isCreation = st.tx.IsContractCreation()
		receiver   common.Address
		code       []byte
	)
	if isCreation {
		receiver = crypto.CreateAddress(sender, st.tx.Nonce())
		code = st.tx.Data()
	} else {
		receiver = *st.tx.To()
		if st.repo.GetAccount(receiver) == nil {
			st.repo.CreateAccount(receiver)
		}
		code = st.repo.GetCode(receiver)
	}

	value := st.tx.Value()
	transferable := value.Sign() > 0 && st.repo.GetBalance(sender).Cmp(value) >= 0
	if !isCreation && transferable {
		// Calls settle the transfer in the outer repository right away. A
		// creation's transfer lives inside the tracked view so it reverts
		// with the run.
		st.repo.AddBalance(sender, new(big.Int).Neg(value))
		st.repo.AddBalance(receiver, value)
	}

	if !st.config.PlayVM || (!isCreation && len(code) == 0) {
		return st.finishTransfer(sender), nil
	}
	return st.execute(sender, receiver, code, isCreation, transferable), nil
}

// finishTransfer settles a transaction that ran no code: charge the flat
// transaction cost plus the per-byte data cost and refund the rest.
func (st *StateTransition) finishTransfer(sender common.Address) uint64 {
	gasUsed := params.TxGas + uint64(len(st.tx.Data()))*params.TxDataGas
	if gasUsed > st.tx.Gas() {
		gasUsed = st.tx.Gas()
	}
	st.refund(st.repo, sender, gasUsed)
	return gasUsed
}

// execute runs the program in a tracked child of the repository. The child
// is released on every exit path: committed after a successful run, rolled
// back otherwise, panics included.
func (st *StateTransition) execute(sender, receiver common.Address, code []byte, isCreation, transferable bool) uint64 {
	track := st.repo.StartTracking()
	committed := false
	defer func() {
		if !committed {
			track.Rollback()
		}
	}()

	if isCreation {
		switch {
		case transferable:
			track.AddBalance(sender, new(big.Int).Neg(st.tx.Value()))
			track.AddBalance(receiver, st.tx.Value())
		case track.GetAccount(receiver) == nil:
			track.CreateAccount(receiver)
		}
	}

	invoke := vm.NewProgramInvoke(st.tx, sender, receiver, st.header, track)
	result, err := st.vm.Play(&vm.Program{Code: code, Invoke: invoke})
	if err == vm.ErrOutOfGas {
		logger.Debug("Program ran out of gas", "tx", st.tx.Hash())
		return st.tx.Gas()
	}
	if err != nil {
		logger.Debug("Program failed, reverting", "tx", st.tx.Hash(), "err", err)
		return st.tx.Gas()
	}

	gasUsed := result.GasUsed
	if gasUsed > st.tx.Gas() {
		gasUsed = st.tx.Gas()
	}
	st.refund(track, sender, gasUsed)

	if isCreation && len(result.Return) > 0 {
		track.SaveCode(receiver, result.Return)
	}
	for _, addr := range result.DeleteAccounts {
		track.Delete(addr)
	}

	track.Commit()
	committed = true
	return gasUsed
}

// refund returns the unused part of the prepaid gas allowance from the
// coinbase to the sender.
func (st *StateTransition) refund(repo state.Repository, sender common.Address, gasUsed uint64) {
	spent := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), st.gasPrice)
	refund := new(big.Int).Sub(st.gasDebit, spent)
	if refund.Sign() > 0 {
		repo.AddBalance(sender, refund)
		repo.AddBalance(st.header.Coinbase, new(big.Int).Neg(refund))
	}
}
