// Copyright 2016-2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package cache

// This file provides a simple LRU cache of members, keyed by the
// canonical string form of their primary keys.

import (
	"container/list"
	"sync"

	"github.com/diffeo/go-restler/entity"
)

// entry is a single cached member.
type entry struct {
	key    string
	member *entity.Member
}

// lru is a least-recently-used cache with a fixed capacity.  The cache
// can be safely accessed from multiple goroutines.  It holds its own
// copies of members, and hands out copies.
type lru struct {
	size      int
	lock      sync.RWMutex
	evictList *list.List
	index     map[string]*list.Element
}

func newLRU(size int) *lru {
	return &lru{
		size:      size,
		evictList: list.New(),
		index:     make(map[string]*list.Element),
	}
}

// Get retrieves an item from the cache.  If it is not present, calls
// the fetch function, and if that succeeds, saves the item and returns
// it.  This should return an error only if the item is not present and
// the fetch function returns an error.
func (lru *lru) Get(key string, fetch func(string) (*entity.Member, error)) (*entity.Member, error) {
	// This sadly happens under a writer lock, since we need to move
	// the item to the front of the list if it is present
	lru.lock.Lock()
	defer lru.lock.Unlock()

	if element, present := lru.index[key]; present {
		lru.evictList.MoveToBack(element)
		return element.Value.(*entry).member.Copy(), nil
	}

	m, err := fetch(key)
	if err != nil {
		return nil, err
	}
	lru.add(key, m.Copy())
	return m, nil
}

// Peek looks for an item in the cache and returns it if present, or
// returns nil if absent.  This runs under a reader lock, and so can
// run concurrently with itself but not calls to Put or Get.  This
// does not affect the recency of the item.
func (lru *lru) Peek(key string) *entity.Member {
	lru.lock.RLock()
	defer lru.lock.RUnlock()

	if element, present := lru.index[key]; present {
		return element.Value.(*entry).member.Copy()
	}
	return nil
}

// Put adds a member to the LRU cache under its own key, possibly
// evicting something.
func (lru *lru) Put(m *entity.Member) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	key := m.Key().String()
	if element, present := lru.index[key]; present {
		element.Value.(*entry).member = m.Copy()
		lru.evictList.MoveToBack(element)
		return
	}
	lru.add(key, m.Copy())
}

// Remove takes an item out of the cache.  It does nothing if that
// key does not exist.
func (lru *lru) Remove(key string) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	if element, present := lru.index[key]; present {
		delete(lru.index, key)
		lru.evictList.Remove(element)
	}
}

// Len returns the number of cached members.
func (lru *lru) Len() int {
	lru.lock.RLock()
	defer lru.lock.RUnlock()

	return len(lru.index)
}

// add is an internal helper, running under the write lock, that adds a
// new item to the cache.  The item is known to not already exist.
func (lru *lru) add(key string, m *entity.Member) {
	element := lru.evictList.PushBack(&entry{key: key, member: m})
	lru.index[key] = element

	// If this caused the cache to go over size, start evicting items
	for len(lru.index) > lru.size {
		head := lru.evictList.Front()
		delete(lru.index, head.Value.(*entry).key)
		lru.evictList.Remove(head)
	}
}
