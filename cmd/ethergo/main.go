// Copyright 2019 The ethergo Authors
// Copyright 2016 The go-ethereum Authors
// This file is part of ethergo.
//
// ethergo is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ethergo is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ethergo. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from cmd/geth/main.go (2019/01/15).
// Modified for the ethergo development.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/bellaj/ethergo/blockchain"
	"github.com/bellaj/ethergo/blockchain/state"
	"github.com/bellaj/ethergo/cmd/utils"
	"github.com/bellaj/ethergo/log"
	"github.com/bellaj/ethergo/storage/database"
	cli "gopkg.in/urfave/cli.v1"
)

const clientIdentifier = "ethergo"

var logger = log.NewModuleLogger(log.CMD)

var app = newApp()

var nodeFlags = []cli.Flag{
	utils.DataDirFlag,
	utils.DBTypeFlag,
	utils.LevelDBCacheSizeFlag,
	utils.TraceStartBlockFlag,
	utils.BlockChainOnlyFlag,
	utils.NoVMFlag,
	utils.VerbosityFlag,
	utils.MetricsEnabledFlag,
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = clientIdentifier
	app.Usage = "the ethergo state-transition engine"
	app.Version = "0.1.0"
	app.Action = run
	app.Flags = nodeFlags
	app.Commands = []cli.Command{
		dumpConfigCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	sort.Sort(cli.FlagsByName(app.Flags))
	return app
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires the engine and waits for a termination signal. The block
// producers (fetcher, miner) live outside this binary; they hand blocks to
// BlockChain.ConnectBlock.
func run(ctx *cli.Context) error {
	log.ChangeGlobalLogLevel(ctx.GlobalInt(utils.VerbosityFlag.Name))

	config := utils.MakeChainConfig(ctx)

	chainDBConfig := utils.MakeDBConfig(ctx, "chaindata")
	chainDB, err := database.NewDatabase(chainDBConfig)
	if err != nil {
		return err
	}
	defer chainDB.Close()
	if ctx.GlobalBool(utils.MetricsEnabledFlag.Name) {
		chainDB.Meter("db/chaindata/")
	}

	stateDBConfig := utils.MakeDBConfig(ctx, "statedata")
	repoFactory := blockchain.RepositoryFactoryFunc(func() (state.Repository, error) {
		stateDB, err := database.NewDatabase(stateDBConfig)
		if err != nil {
			return nil, err
		}
		return state.NewStateDB(stateDB)
	})
	repo, err := repoFactory.OpenRepository()
	if err != nil {
		return err
	}

	store, err := blockchain.NewBlockStore(chainDB)
	if err != nil {
		return err
	}

	chain, err := blockchain.NewBlockChain(&config, repo, repoFactory, store,
		nil, nil, blockchain.NopListener{}, nil, acceptAllPoW{}, nil, nil)
	if err != nil {
		return err
	}
	defer chain.Stop()

	logger.Info("Engine running", "head", chain.CurrentBlock().Number(), "datadir", ctx.GlobalString(utils.DataDirFlag.Name))

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info("Shutting down")
	return nil
}
