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
// This file is derived from core/block_processor.go (2019/01/15).
// Modified for the ethergo development.

package blockchain

import (
	"math/big"

	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/blockchain/vm"
	"github.com/bellaj/ethergo/params"
)

// BlockProcessor replays validated blocks against the world state.
type BlockProcessor struct {
	config    *Config
	validator *BlockValidator
	signer    types.Signer
	vm        vm.VM
	listener  Listener
}

func NewBlockProcessor(config *Config, validator *BlockValidator, signer types.Signer, machine vm.VM, listener Listener) *BlockProcessor {
	return &BlockProcessor{
		config:    config,
		validator: validator,
		signer:    signer,
		vm:        machine,
		listener:  listener,
	}
}

// Process validates the block on top of its parent and applies its
// transactions in order, followed by the coinbase rewards. The whole
// application runs in a tracked view: a rejected block leaves the
// repository untouched.
func (p *BlockProcessor) Process(repo state.Repository, block *types.Block, parent *types.Header) (uint64, error) {
	if err := p.validator.ValidateBlock(block, parent); err != nil {
		return 0, err
	}

	track := repo.StartTracking()
	committed := false
	defer func() {
		if !committed {
			track.Rollback()
		}
	}()

	header := block.Header()
	var totalGasUsed uint64
	for i, tx := range block.Transactions() {
		gasUsed, err := ApplyTransaction(p.config, p.signer, p.vm, track, header, tx)
		if err != nil {
			logger.Debug("Transaction yielded no gas", "index", i, "tx", tx.Hash(), "err", err)
		}
		totalGasUsed += gasUsed
		if totalGasUsed > block.GasLimit() {
			return 0, ValidationErrorf("gas used %d exceeds block gas limit %d", totalGasUsed, block.GasLimit())
		}
	}

	AccumulateRewards(track, header, block.Uncles())
	track.Commit()
	committed = true

	if err := repo.Sync(); err != nil {
		return 0, err
	}
	// A diverging root is logged but the block still commits.
	if root := repo.Root(); root != block.Root() {
		logger.Warn("State root conflict after applying block",
			"number", block.Number(), "have", root.Hex(), "want", block.Root().Hex())
	}

	p.trace(repo, block)
	return totalGasUsed, nil
}

// trace dumps the post-block world state to the listener once the configured
// start block is reached.
func (p *BlockProcessor) trace(repo state.Repository, block *types.Block) {
	if p.config.TraceStartBlock < 0 || block.Number() < uint64(p.config.TraceStartBlock) {
		return
	}
	dumper, ok := repo.(interface{ Dump() []byte })
	if !ok {
		return
	}
	p.listener.Trace(string(dumper.Dump()))
}

// AccumulateRewards credits the coinbase of the block with the static block
// reward plus an inclusion reward per uncle, and each uncle coinbase with
// the uncle reward. Missing accounts are created.
func AccumulateRewards(repo state.Repository, header *types.Header, uncles []*types.Header) {
	if repo.GetAccount(header.Coinbase) == nil {
		repo.CreateAccount(header.Coinbase)
	}

	total := new(big.Int).Set(params.BlockReward)
	for _, uncle := range uncles {
		if repo.GetAccount(uncle.Coinbase) == nil {
			repo.CreateAccount(uncle.Coinbase)
		}
		repo.AddBalance(uncle.Coinbase, params.UncleReward)
		total.Add(total, params.InclusionReward)
	}
	repo.AddBalance(header.Coinbase, total)
}
