// Copyright 2019 The ethergo Authors
// Copyright 2015 The go-ethereum Authors
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
// This file is derived from ethdb/database.go (2019/01/15).
// Modified for the ethergo development.

package database

import (
	"sync"
	"time"

	"github.com/bellaj/ethergo/log"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var OpenFileLimit = 64

type levelDB struct {
	fn string      // filename for reporting
	db *leveldb.DB // LevelDB instance

	compTimeMeter  metrics.Meter // Meter for measuring the total time spent in database compaction
	compReadMeter  metrics.Meter // Meter for measuring the data read during compaction
	compWriteMeter metrics.Meter // Meter for measuring the data written during compaction
	diskReadMeter  metrics.Meter // Meter for measuring the effective amount of data read
	diskWriteMeter metrics.Meter // Meter for measuring the effective amount of data written

	quitLock sync.Mutex      // Mutex protecting the quit channel access
	quitChan chan chan error // Quit channel to stop the metrics collection before closing the database

	logger log.Logger // Contextual logger tracking the database path
}

func getLevelDBOptions(cacheSize, numHandles int) *opt.Options {
	return &opt.Options{
		OpenFilesCacheCapacity: numHandles,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	}
}

// NewLevelDBDatabase opens (or creates) a LevelDB backed database at the
// given path, recovering a corrupted store if needed.
func NewLevelDBDatabase(file string, cacheSize, numHandles int) (*levelDB, error) {
	localLogger := logger.NewWith("database", file)

	// Ensure we have some minimal caching and file guarantees.
	if cacheSize < 16 {
		cacheSize = 16
	}
	if numHandles < 16 {
		numHandles = 16
	}
	localLogger.Info("Allocated LevelDB with write buffer and file handles", "cacheSize", cacheSize, "numHandles", numHandles)

	db, err := leveldb.OpenFile(file, getLevelDBOptions(cacheSize, numHandles))
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &levelDB{
		fn:     file,
		db:     db,
		logger: localLogger,
	}, nil
}

func (db *levelDB) Type() DBType {
	return LevelDB
}

// Path returns the path to the database directory.
func (db *levelDB) Path() string {
	return db.fn
}

func (db *levelDB) Put(key []byte, value []byte) error {
	return db.db.Put(key, value, nil)
}

func (db *levelDB) Has(key []byte) (bool, error) {
	return db.db.Has(key, nil)
}

func (db *levelDB) Get(key []byte) ([]byte, error) {
	return db.db.Get(key, nil)
}

func (db *levelDB) Delete(key []byte) error {
	return db.db.Delete(key, nil)
}

func (db *levelDB) Close() {
	// Stop the metrics collection to avoid internal database races.
	db.quitLock.Lock()
	defer db.quitLock.Unlock()

	if db.quitChan != nil {
		errc := make(chan error)
		db.quitChan <- errc
		if err := <-errc; err != nil {
			db.logger.Error("Metrics collection failed", "err", err)
		}
		db.quitChan = nil
	}
	if err := db.db.Close(); err != nil {
		db.logger.Error("Failed to close database", "err", err)
		return
	}
	db.logger.Info("Database closed")
}

// Meter configures the database metrics collectors.
func (db *levelDB) Meter(prefix string) {
	db.compTimeMeter = metrics.GetOrRegisterMeter(prefix+"compaction/time", metrics.DefaultRegistry)
	db.compReadMeter = metrics.GetOrRegisterMeter(prefix+"compaction/read", metrics.DefaultRegistry)
	db.compWriteMeter = metrics.GetOrRegisterMeter(prefix+"compaction/write", metrics.DefaultRegistry)
	db.diskReadMeter = metrics.GetOrRegisterMeter(prefix+"disk/read", metrics.DefaultRegistry)
	db.diskWriteMeter = metrics.GetOrRegisterMeter(prefix+"disk/write", metrics.DefaultRegistry)

	db.quitLock.Lock()
	db.quitChan = make(chan chan error)
	db.quitLock.Unlock()

	go db.meter(3 * time.Second)
}

// meter periodically retrieves internal leveldb counters and reports them to
// the metrics subsystem.
func (db *levelDB) meter(refresh time.Duration) {
	s := new(leveldb.DBStats)

	var prevCompRead, prevCompWrite int64
	var prevCompTime time.Duration
	var prevRead, prevWrite uint64

	var (
		errc chan error
		merr error
	)

	// Keep collecting stats unless an error occurs or shutdown is requested.
hasError:
	for {
		merr = db.db.Stats(s)
		if merr != nil {
			break
		}

		var currCompRead, currCompWrite int64
		var currCompTime time.Duration
		for i := 0; i < len(s.LevelDurations); i++ {
			currCompTime += s.LevelDurations[i]
			currCompRead += s.LevelRead[i]
			currCompWrite += s.LevelWrite[i]
		}

		db.compTimeMeter.Mark(int64(currCompTime.Seconds() - prevCompTime.Seconds()))
		db.compReadMeter.Mark(currCompRead - prevCompRead)
		db.compWriteMeter.Mark(currCompWrite - prevCompWrite)

		prevCompTime = currCompTime
		prevCompRead = currCompRead
		prevCompWrite = currCompWrite

		currRead, currWrite := s.IORead, s.IOWrite

		db.diskReadMeter.Mark(int64(currRead - prevRead))
		db.diskWriteMeter.Mark(int64(currWrite - prevWrite))

		prevRead, prevWrite = currRead, currWrite

		select {
		case errc = <-db.quitChan:
			break hasError
		case <-time.After(refresh):
		}
	}

	if errc == nil {
		errc = <-db.quitChan
	}
	errc <- merr
}

func (db *levelDB) NewBatch() Batch {
	return &ldbBatch{db: db.db, b: new(leveldb.Batch)}
}

type ldbBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

func (b *ldbBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(value)
	return nil
}

func (b *ldbBatch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *ldbBatch) ValueSize() int {
	return b.size
}

func (b *ldbBatch) Reset() {
	b.b.Reset()
	b.size = 0
}
