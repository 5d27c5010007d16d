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

package common

import (
	"errors"

	lru "github.com/hashicorp/golang-lru"
)

// CacheScale scales the preset cache sizes: effective = preset * CacheScale / 100.
// It defaults to 100; no command-line flag sets it.
var CacheScale = 100

// CacheKey must be implemented by every key stored in a Cache.
type CacheKey interface {
	getShardIndex(shardMask int) int
}

type Cache interface {
	Add(key CacheKey, value interface{}) (evicted bool)
	Get(key CacheKey) (value interface{}, ok bool)
	Contains(key CacheKey) bool
	Remove(key CacheKey)
	Purge()
	Len() int
}

type lruCache struct {
	lru *lru.Cache
}

func (cache *lruCache) Add(key CacheKey, value interface{}) (evicted bool) {
	return cache.lru.Add(key, value)
}

func (cache *lruCache) Get(key CacheKey) (value interface{}, ok bool) {
	return cache.lru.Get(key)
}

func (cache *lruCache) Contains(key CacheKey) bool {
	return cache.lru.Contains(key)
}

func (cache *lruCache) Remove(key CacheKey) {
	cache.lru.Remove(key)
}

func (cache *lruCache) Purge() {
	cache.lru.Purge()
}

func (cache *lruCache) Len() int {
	return cache.lru.Len()
}

type arcCache struct {
	arc *lru.ARCCache
}

func (cache *arcCache) Add(key CacheKey, value interface{}) (evicted bool) {
	cache.arc.Add(key, value)
	return false
}

func (cache *arcCache) Get(key CacheKey) (value interface{}, ok bool) {
	return cache.arc.Get(key)
}

func (cache *arcCache) Contains(key CacheKey) bool {
	return cache.arc.Contains(key)
}

func (cache *arcCache) Remove(key CacheKey) {
	cache.arc.Remove(key)
}

func (cache *arcCache) Purge() {
	cache.arc.Purge()
}

func (cache *arcCache) Len() int {
	return cache.arc.Len()
}

// CacheConfiger knows how to build a concrete cache for its configuration.
type CacheConfiger interface {
	newCache() (Cache, error)
}

func NewCache(config CacheConfiger) (Cache, error) {
	if config == nil {
		return nil, errors.New("cache config is nil")
	}
	return config.newCache()
}

type LRUConfig struct {
	CacheSize int
}

func (c LRUConfig) newCache() (Cache, error) {
	cacheSize := c.CacheSize * CacheScale / 100
	if cacheSize < 1 {
		return nil, errors.New("must provide a positive cache size")
	}
	l, err := lru.New(cacheSize)
	return &lruCache{l}, err
}

type ARCConfig struct {
	CacheSize int
}

func (c ARCConfig) newCache() (Cache, error) {
	cacheSize := c.CacheSize * CacheScale / 100
	if cacheSize < 1 {
		return nil, errors.New("must provide a positive cache size")
	}
	arc, err := lru.NewARC(cacheSize)
	return &arcCache{arc}, err
}
