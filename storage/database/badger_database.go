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
	"os"
	"time"

	"github.com/bellaj/ethergo/log"
	"github.com/dgraph-io/badger"
	"github.com/pkg/errors"
)

const gcThreshold = int64(1 << 30)
const sizeGCTickerTime = 1 * time.Minute

type badgerDB struct {
	fn string // filename for reporting
	db *badger.DB

	gcTicker *time.Ticker // runs periodically and runs gc if db size exceeds the threshold
	quit     chan struct{}

	logger log.Logger // Contextual logger tracking the database path
}

// NewBadgerDatabase opens (or creates) a BadgerDB backed database under the
// given directory.
func NewBadgerDatabase(dbDir string) (*badgerDB, error) {
	localLogger := logger.NewWith("dbDir", dbDir)

	if fi, err := os.Stat(dbDir); err == nil {
		if !fi.IsDir() {
			return nil, errors.Errorf("badger dir is not a directory: %v", dbDir)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create badger dir %v", dbDir)
		}
	} else {
		return nil, errors.Wrapf(err, "failed to stat badger dir %v", dbDir)
	}

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open badger db at %v", dbDir)
	}

	bg := &badgerDB{
		fn:       dbDir,
		db:       db,
		logger:   localLogger,
		gcTicker: time.NewTicker(sizeGCTickerTime),
		quit:     make(chan struct{}),
	}

	go bg.runValueLogGC()

	return bg, nil
}

// runValueLogGC periodically checks the size of the value log and runs gc if
// it grew past gcThreshold since the last run.
func (bg *badgerDB) runValueLogGC() {
	_, lastValueLogSize := bg.db.Size()

	for {
		select {
		case <-bg.quit:
			return
		case <-bg.gcTicker.C:
			_, currValueLogSize := bg.db.Size()
			if currValueLogSize-lastValueLogSize < gcThreshold {
				continue
			}

			if err := bg.db.RunValueLogGC(0.5); err != nil {
				bg.logger.Error("Error while running value log gc", "err", err)
				continue
			}

			_, lastValueLogSize = bg.db.Size()
		}
	}
}

func (bg *badgerDB) Type() DBType {
	return BadgerDB
}

// Path returns the path to the database directory.
func (bg *badgerDB) Path() string {
	return bg.fn
}

func (bg *badgerDB) Put(key []byte, value []byte) error {
	return bg.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (bg *badgerDB) Has(key []byte) (bool, error) {
	err := bg.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

func (bg *badgerDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := bg.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (bg *badgerDB) Delete(key []byte) error {
	return bg.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (bg *badgerDB) Close() {
	close(bg.quit)
	bg.gcTicker.Stop()
	if err := bg.db.Close(); err != nil {
		bg.logger.Error("Failed to close database", "err", err)
		return
	}
	bg.logger.Info("Database closed")
}

func (bg *badgerDB) NewBatch() Batch {
	return &badgerBatch{db: bg.db, txn: bg.db.NewTransaction(true)}
}

func (bg *badgerDB) Meter(prefix string) {
	bg.logger.Warn("BadgerDB does not support metrics")
}

type badgerBatch struct {
	db   *badger.DB
	txn  *badger.Txn
	size int
}

func (b *badgerBatch) Put(key, value []byte) error {
	err := b.txn.Set(key, value)
	b.size += len(value)
	return err
}

func (b *badgerBatch) Write() error {
	return b.txn.Commit()
}

func (b *badgerBatch) ValueSize() int {
	return b.size
}

func (b *badgerBatch) Reset() {
	b.txn.Discard()
	b.txn = b.db.NewTransaction(true)
	b.size = 0
}
