package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenTrie_Prefixed(t *testing.T) {
	trie := newTokenTrie()
	trie.insert("delhi", 0)
	trie.insert("tech", 0)
	trie.insert("delhi", 1)
	trie.insert("dental", 2)
	trie.insert("arts", 3)

	assert.Len(t, trie.prefixed("de"), 3)
	assert.Len(t, trie.prefixed("del"), 2)
	assert.Contains(t, trie.prefixed("te"), int32(0))
	assert.Nil(t, trie.prefixed("x"))
	assert.Len(t, trie.prefixed(""), 4)
}

func TestTokenTrie_DuplicateInsert(t *testing.T) {
	trie := newTokenTrie()
	trie.insert("delhi", 7)
	trie.insert("delhi", 7)

	node := trie.root
	for _, ch := range "delhi" {
		node = node.children[ch]
	}
	assert.Equal(t, []int32{7}, node.postings)
}

func TestTokenTrie_AllPrefixed(t *testing.T) {
	trie := newTokenTrie()
	trie.insert("delhi", 0)
	trie.insert("tech", 0)
	trie.insert("delhi", 1)
	trie.insert("arts", 1)

	got := trie.allPrefixed([]string{"del", "te"})
	assert.Equal(t, map[int32]struct{}{0: {}}, got)

	assert.Empty(t, trie.allPrefixed([]string{"del", "zzz"}))
	assert.Nil(t, trie.allPrefixed(nil))
}
