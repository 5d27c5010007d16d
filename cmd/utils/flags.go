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
// This file is derived from cmd/utils/flags.go (2019/01/15).
// Modified for the ethergo development.

package utils

import (
	"path/filepath"

	"github.com/bellaj/ethergo/blockchain"
	"github.com/bellaj/ethergo/storage/database"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	DataDirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory for the databases",
		Value: "ethergo-data",
	}
	DBTypeFlag = cli.StringFlag{
		Name:  "dbtype",
		Usage: "Backing database type (\"leveldb\", \"badger\" or \"memory\")",
		Value: string(database.LevelDB),
	}
	LevelDBCacheSizeFlag = cli.IntFlag{
		Name:  "db.leveldb.cache-size",
		Usage: "Size of in-memory cache in LevelDB (MiB)",
		Value: 128,
	}
	TraceStartBlockFlag = cli.Int64Flag{
		Name:  "tracestart",
		Usage: "Block number tracing starts at (-1 disables tracing)",
		Value: -1,
	}
	BlockChainOnlyFlag = cli.BoolFlag{
		Name:  "blockchainonly",
		Usage: "Disable wallet notifications",
	}
	NoVMFlag = cli.BoolFlag{
		Name:  "novm",
		Usage: "Disable program execution; transactions take the pure-transfer path",
	}
	VerbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug",
		Value: 3,
	}
	MetricsEnabledFlag = cli.BoolFlag{
		Name:  "metrics",
		Usage: "Enable metrics collection and reporting",
	}
)

// MakeChainConfig assembles the engine configuration from the command line.
func MakeChainConfig(ctx *cli.Context) blockchain.Config {
	cfg := blockchain.DefaultConfig
	cfg.TraceStartBlock = ctx.GlobalInt64(TraceStartBlockFlag.Name)
	cfg.BlockChainOnly = ctx.GlobalBool(BlockChainOnlyFlag.Name)
	cfg.PlayVM = !ctx.GlobalBool(NoVMFlag.Name)
	return cfg
}

// MakeDBConfig assembles the database configuration from the command line.
// The state and chain databases live in separate subdirectories of the data
// directory.
func MakeDBConfig(ctx *cli.Context, name string) *database.DBConfig {
	return &database.DBConfig{
		Type:             database.DBType(ctx.GlobalString(DBTypeFlag.Name)),
		Dir:              filepath.Join(ctx.GlobalString(DataDirFlag.Name), name),
		LevelDBCacheSize: ctx.GlobalInt(LevelDBCacheSizeFlag.Name),
		OpenFilesLimit:   database.OpenFileLimit,
	}
}

// MigrateFlags makes global flag values visible to subcommand actions.
func MigrateFlags(action func(ctx *cli.Context) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		for _, name := range ctx.FlagNames() {
			if ctx.IsSet(name) {
				if err := ctx.GlobalSet(name, ctx.String(name)); err != nil {
					return err
				}
			}
		}
		return action(ctx)
	}
}
