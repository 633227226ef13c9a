// Package dsa provides the prefix index used by the request cache.
// Uses go-radix for a compressed prefix tree.
package dsa

import (
	"github.com/armon/go-radix"
)

// Trie is a typed wrapper over a radix tree. Keys sharing a prefix (for
// example every cache key of one camera) share nodes and can be listed or
// dropped together.
//
// Trie is not safe for concurrent use; callers hold their own lock.
type Trie[V any] struct {
	tree *radix.Tree
}

// NewTrie creates an empty tree.
func NewTrie[V any]() *Trie[V] {
	return &Trie[V]{tree: radix.New()}
}

// Insert adds or replaces key.
func (t *Trie[V]) Insert(key string, value V) {
	t.tree.Insert(key, value)
}

// Get looks up key.
func (t *Trie[V]) Get(key string) (V, bool) {
	val, found := t.tree.Get(key)
	if !found {
		var zero V
		return zero, false
	}
	v, ok := val.(V)
	return v, ok
}

// Delete removes key, reporting whether it was present.
func (t *Trie[V]) Delete(key string) bool {
	_, deleted := t.tree.Delete(key)
	return deleted
}

// WithPrefix returns every key starting with prefix, in lexical order.
func (t *Trie[V]) WithPrefix(prefix string) []string {
	var keys []string
	t.tree.WalkPrefix(prefix, func(k string, _ interface{}) bool {
		keys = append(keys, k)
		return false
	})
	return keys
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed.
func (t *Trie[V]) DeletePrefix(prefix string) int {
	return t.tree.DeletePrefix(prefix)
}

// Len returns the number of keys.
func (t *Trie[V]) Len() int {
	return t.tree.Len()
}
