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

package database

import (
	"github.com/bellaj/ethergo/log"
	"github.com/pkg/errors"
)

var logger = log.NewModuleLogger(log.StorageDatabase)

// DBType designates the backing key-value store.
type DBType string

const (
	LevelDB  DBType = "leveldb"
	BadgerDB DBType = "badger"
	MemoryDB DBType = "memory"
)

// Putter wraps the write operation of a backing data store.
type Putter interface {
	Put(key []byte, value []byte) error
}

// Database wraps all database operations. All methods are safe for
// concurrent use.
type Database interface {
	Putter
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	NewBatch() Batch
	Type() DBType
	Meter(prefix string)
	Close()
}

// Batch is a write-only database that commits changes to its host database
// when Write is called. Batch cannot be used concurrently.
type Batch interface {
	Putter
	ValueSize() int // amount of data in the batch
	Write() error
	Reset()
}

// DBConfig holds the options needed to open a backing database.
type DBConfig struct {
	Type DBType
	Dir  string

	// LevelDB options.
	LevelDBCacheSize int
	OpenFilesLimit   int
}

// NewDatabase opens a database of the configured type.
func NewDatabase(dbc *DBConfig) (Database, error) {
	switch dbc.Type {
	case LevelDB:
		db, err := NewLevelDBDatabase(dbc.Dir, dbc.LevelDBCacheSize, dbc.OpenFilesLimit)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open leveldb")
		}
		return db, nil
	case BadgerDB:
		db, err := NewBadgerDatabase(dbc.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open badgerdb")
		}
		return db, nil
	case MemoryDB:
		return NewMemDatabase(), nil
	default:
		return nil, errors.Errorf("unknown database type: %v", dbc.Type)
	}
}
