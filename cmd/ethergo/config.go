// Copyright 2019 The ethergo Authors
// Copyright 2017 The go-ethereum Authors
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
// This file is derived from cmd/geth/config.go (2019/01/15).
// Modified for the ethergo development.

package main

import (
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/bellaj/ethergo/blockchain"
	"github.com/bellaj/ethergo/blockchain/types"
	"github.com/bellaj/ethergo/cmd/utils"
	"github.com/bellaj/ethergo/storage/database"
	"github.com/naoina/toml"
	cli "gopkg.in/urfave/cli.v1"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type ethergoConfig struct {
	Chain   blockchain.Config
	ChainDB database.DBConfig
	StateDB database.DBConfig
}

var dumpConfigCommand = cli.Command{
	Action:      utils.MigrateFlags(dumpConfig),
	Name:        "dumpconfig",
	Usage:       "Show configuration values",
	ArgsUsage:   "",
	Flags:       nodeFlags,
	Category:    "MISCELLANEOUS COMMANDS",
	Description: `The dumpconfig command shows configuration values.`,
}

func dumpConfig(ctx *cli.Context) error {
	cfg := ethergoConfig{
		Chain:   utils.MakeChainConfig(ctx),
		ChainDB: *utils.MakeDBConfig(ctx, "chaindata"),
		StateDB: *utils.MakeDBConfig(ctx, "statedata"),
	}
	return tomlSettings.NewEncoder(os.Stdout).Encode(&cfg)
}

// acceptAllPoW treats every header as sealed. The real verifier is plugged
// in by the consensus layer.
type acceptAllPoW struct{}

func (acceptAllPoW) Verify(*types.Header) bool { return true }
