package dsa

import (
	"reflect"
	"testing"
)

func TestTrieInsertGetDelete(t *testing.T) {
	trie := NewTrie[int]()
	trie.Insert("office\x00a", 1)
	trie.Insert("office\x00b", 2)
	trie.Insert("kitchen\x00a", 3)

	if v, ok := trie.Get("office\x00b"); !ok || v != 2 {
		t.Errorf("expected 2, got %d (found=%v)", v, ok)
	}
	if _, ok := trie.Get("garage\x00a"); ok {
		t.Error("expected missing key")
	}
	if trie.Len() != 3 {
		t.Errorf("expected 3 keys, got %d", trie.Len())
	}

	if !trie.Delete("kitchen\x00a") {
		t.Error("expected delete to report presence")
	}
	if trie.Delete("kitchen\x00a") {
		t.Error("expected second delete to report absence")
	}
}

func TestTriePrefixOperations(t *testing.T) {
	trie := NewTrie[struct{}]()
	for _, k := range []string{"office\x00b", "office\x00a", "officer\x00c", "kitchen\x00a"} {
		trie.Insert(k, struct{}{})
	}

	got := trie.WithPrefix("office\x00")
	want := []string{"office\x00a", "office\x00b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}

	if n := trie.DeletePrefix("office\x00"); n != 2 {
		t.Errorf("expected 2 deletions, got %d", n)
	}
	if trie.Len() != 2 {
		t.Errorf("expected 2 remaining keys, got %d", trie.Len())
	}
	if _, ok := trie.Get("officer\x00c"); !ok {
		t.Error("prefix delete must respect the separator")
	}
}
