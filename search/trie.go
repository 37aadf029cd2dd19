package search

// trieNode is one rune step of a token.
type trieNode struct {
	children map[rune]*trieNode
	// postings holds positions of suggestions containing the token ending here.
	postings []int32
}

// tokenTrie maps token prefixes to suggestion positions. It is built once
// per index and never mutated afterwards, so reads need no locking.
type tokenTrie struct {
	root *trieNode
}

func newTokenTrie() *tokenTrie {
	return &tokenTrie{root: &trieNode{children: make(map[rune]*trieNode)}}
}

// insert records that the suggestion at pos contains token.
func (t *tokenTrie) insert(token string, pos int32) {
	node := t.root
	for _, ch := range token {
		child, ok := node.children[ch]
		if !ok {
			child = &trieNode{children: make(map[rune]*trieNode)}
			node.children[ch] = child
		}
		node = child
	}
	if n := len(node.postings); n > 0 && node.postings[n-1] == pos {
		return
	}
	node.postings = append(node.postings, pos)
}

// prefixed returns the set of positions holding any token that starts with prefix.
func (t *tokenTrie) prefixed(prefix string) map[int32]struct{} {
	node := t.root
	for _, ch := range prefix {
		child, ok := node.children[ch]
		if !ok {
			return nil
		}
		node = child
	}

	out := make(map[int32]struct{})
	queue := []*trieNode{node}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, pos := range curr.postings {
			out[pos] = struct{}{}
		}
		for _, child := range curr.children {
			queue = append(queue, child)
		}
	}
	return out
}

// allPrefixed returns positions where every token in prefixes is matched by
// a prefix of some indexed token.
func (t *tokenTrie) allPrefixed(prefixes []string) map[int32]struct{} {
	if len(prefixes) == 0 {
		return nil
	}
	result := t.prefixed(prefixes[0])
	for _, p := range prefixes[1:] {
		if len(result) == 0 {
			return nil
		}
		next := t.prefixed(p)
		for pos := range result {
			if _, ok := next[pos]; !ok {
				delete(result, pos)
			}
		}
	}
	return result
}
