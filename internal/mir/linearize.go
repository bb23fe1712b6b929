package mir

import "mina/internal/cfg"

// Linearize produces a reverse-postorder traversal of entry's reachable
// blocks: a post-order DFS visiting each block's successors in reverse
// (so the first-appended successor comes first in the final order), then
// reversed.
// Grounded on original_source/src/SSA.cpp::printCFG's traversal shape.
func Linearize(entry *cfg.Block) []*cfg.Block {
	visited := make(map[*cfg.Block]bool)
	var postOrder []*cfg.Block

	var visit func(b *cfg.Block)
	visit = func(b *cfg.Block) {
		if visited[b] {
			return
		}
		visited[b] = true
		for i := len(b.Succs) - 1; i >= 0; i-- {
			visit(b.Succs[i])
		}
		postOrder = append(postOrder, b)
	}
	visit(entry)

	rpo := make([]*cfg.Block, len(postOrder))
	for i, b := range postOrder {
		rpo[len(postOrder)-1-i] = b
	}
	return rpo
}
