// Copyright 2025 go-ndagg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache memoizes expensive, deterministic builds by key.
//
// Compiling a kernel specialization costs tens to hundreds of milliseconds,
// so operators build each one lazily on first use and keep it for their
// lifetime. Cache guarantees a builder runs at most once per key even when
// several goroutines ask for the same missing key at the same time.
package cache

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	val V
	err error
}

// Cache maps keys to built values. The zero value is ready to use.
// Entries are never evicted. Distinct keys must format differently with
// fmt.Sprint, which holds for the integer keys operators use.
type Cache[K comparable, V any] struct {
	built  sync.Map // K -> *entry[V], written once per key
	flight singleflight.Group
}

// GetOrBuild returns the value for key, calling build to produce it if the
// key has not been built yet. Concurrent callers for the same missing key
// wait for a single build and share its result.
//
// A build error is remembered like a value: builds are deterministic, so
// the key keeps reporting the same error instead of rebuilding.
func (c *Cache[K, V]) GetOrBuild(key K, build func() (V, error)) (V, error) {
	if e, ok := c.built.Load(key); ok {
		en := e.(*entry[V])
		return en.val, en.err
	}
	res, _, _ := c.flight.Do(fmt.Sprint(key), func() (any, error) {
		// A flight for this key may have finished between the Load above
		// and joining this one.
		if e, ok := c.built.Load(key); ok {
			return e, nil
		}
		val, err := build()
		en := &entry[V]{val: val, err: err}
		c.built.Store(key, en)
		return en, nil
	})
	en := res.(*entry[V])
	return en.val, en.err
}

// Lookup returns the value built for key, if any. It never builds.
func (c *Cache[K, V]) Lookup(key K) (V, bool) {
	if e, ok := c.built.Load(key); ok {
		if en := e.(*entry[V]); en.err == nil {
			return en.val, true
		}
	}
	var zero V
	return zero, false
}

// Keys returns the keys that have been built, successfully or not.
func (c *Cache[K, V]) Keys() []K {
	var keys []K
	c.built.Range(func(k, _ any) bool {
		keys = append(keys, k.(K))
		return true
	})
	return keys
}

// Len returns the number of built keys.
func (c *Cache[K, V]) Len() int {
	n := 0
	c.built.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// SortedKeys returns the built keys of c in ascending order.
func SortedKeys[K cmp.Ordered, V any](c *Cache[K, V]) []K {
	keys := c.Keys()
	slices.Sort(keys)
	return keys
}
